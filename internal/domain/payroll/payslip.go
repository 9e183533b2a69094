package payroll

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// PayslipPDF renders a one-page payslip for a finalized payroll.
func PayslipPDF(orgName string, p *Payroll) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Payslip %02d-%d", p.Month, p.Year), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, orgName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	period := time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
	pdf.CellFormat(0, 8, "Payslip for "+period.Format("January 2006"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(95, 7, "Employee: "+p.EmployeeName, "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, "Employee No: "+p.EmployeeNumber, "", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, "Status: "+p.Status, "", 0, "L", false, 0, "")
	if p.PaidOn != nil {
		pdf.CellFormat(95, 7, "Paid On: "+p.PaidOn.Format("02 Jan 2006"), "", 1, "L", false, 0, "")
	} else {
		pdf.Ln(7)
	}
	pdf.Ln(4)

	line := func(label string, amount float64, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(130, 7, label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 7, fmt.Sprintf("%.2f", amount), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, "Earnings", "", 1, "L", false, 0, "")
	line("Basic Salary", p.BasicSalary, false)
	line("HRA", p.HRA, false)
	line("Other Allowances", p.OtherAllowances, false)
	if p.Reimbursement != 0 {
		line("Reimbursement", p.Reimbursement, false)
	}
	if p.Incentives != 0 {
		line("Incentives", p.Incentives, false)
	}
	if p.Arrears != 0 {
		line("Arrears", p.Arrears, false)
	}
	line("Total Earnings", p.TotalEarnings, true)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, "Deductions", "", 1, "L", false, 0, "")
	line("TDS", p.TDSDeduction, false)
	line("Other Deductions", p.OtherDeductions, false)
	if p.LOPDays > 0 {
		line(fmt.Sprintf("Loss of Pay (%.1f days)", p.LOPDays), LossOfPayAmount(p.GrossSalary, p.LOPDays), false)
	}
	line("Total Deductions", p.TotalDeductions, true)
	pdf.Ln(4)

	line("Net Salary", p.NetSalary, true)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render payslip: %w", err)
	}
	return buf.Bytes(), nil
}
