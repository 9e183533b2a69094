package payroll

import "math"

// Salary split ratios applied to gross.
const (
	basicRatio = 0.40
	hraRatio   = 0.16
)

// Round2 rounds half away from zero to two decimals, the convention for
// currency amounts throughout payroll.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Breakdown splits gross into its components. Other allowances absorb the
// rounding slack so the three parts always sum back to gross.
func Breakdown(gross float64) (basic, hra, other float64) {
	basic = Round2(gross * basicRatio)
	hra = Round2(gross * hraRatio)
	other = Round2(gross - basic - hra)
	return basic, hra, other
}

// LossOfPayAmount prices lop days against a 30-day month regardless of the
// calendar month's actual length.
func LossOfPayAmount(gross, lopDays float64) float64 {
	return Round2(gross / 30 * lopDays)
}

// ApplyAdjustments merges the non-nil adjustable fields into the payroll and
// refreshes its derived totals.
func ApplyAdjustments(p *Payroll, in UpdateInput) {
	if in.Reimbursement != nil {
		p.Reimbursement = *in.Reimbursement
	}
	if in.Incentives != nil {
		p.Incentives = *in.Incentives
	}
	if in.Arrears != nil {
		p.Arrears = *in.Arrears
	}
	if in.TDSDeduction != nil {
		p.TDSDeduction = *in.TDSDeduction
	}
	if in.OtherDeductions != nil {
		p.OtherDeductions = *in.OtherDeductions
	}
	if in.LOPDays != nil {
		p.LOPDays = *in.LOPDays
	}
	p.TotalEarnings, p.TotalDeductions, p.NetSalary = Totals(p)
}

// Totals derives the payroll roll-ups from its line items. Loss of pay is
// not part of totalDeductions; it is subtracted from net only.
func Totals(p *Payroll) (earnings, deductions, net float64) {
	earnings = Round2(p.BasicSalary + p.HRA + p.OtherAllowances +
		p.Reimbursement + p.Incentives + p.Arrears)
	deductions = Round2(p.TDSDeduction + p.OtherDeductions)
	net = Round2(earnings - deductions - LossOfPayAmount(p.GrossSalary, p.LOPDays))
	return earnings, deductions, net
}
