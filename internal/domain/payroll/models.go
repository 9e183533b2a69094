package payroll

import "time"

const (
	StatusDraft     = "DRAFT"
	StatusProcessed = "PROCESSED"
	StatusPaid      = "PAID"
)

type SalaryStructure struct {
	ID              string    `json:"id"`
	OrganizationID  string    `json:"organizationId"`
	UserID          string    `json:"userId"`
	EmployeeID      string    `json:"employeeId"`
	GrossSalary     float64   `json:"grossSalary"`
	BasicSalary     float64   `json:"basicSalary"`
	HRA             float64   `json:"hra"`
	OtherAllowances float64   `json:"otherAllowances"`
	BankName        string    `json:"bankName"`
	AccountNumber   string    `json:"accountNumber"`
	IFSCCode        string    `json:"ifscCode"`
	EffectiveFrom   time.Time `json:"effectiveFrom"`
	IsActive        bool      `json:"isActive"`
}

type Payroll struct {
	ID              string     `json:"id"`
	OrganizationID  string     `json:"organizationId"`
	UserID          string     `json:"userId"`
	EmployeeID      string     `json:"employeeId"`
	EmployeeName    string     `json:"employeeName,omitempty"`
	EmployeeNumber  string     `json:"employeeNumber,omitempty"`
	GrossSalary     float64    `json:"grossSalary"`
	BasicSalary     float64    `json:"basicSalary"`
	HRA             float64    `json:"hra"`
	OtherAllowances float64    `json:"otherAllowances"`
	Reimbursement   float64    `json:"reimbursement"`
	Incentives      float64    `json:"incentives"`
	Arrears         float64    `json:"arrears"`
	TDSDeduction    float64    `json:"tdsDeduction"`
	OtherDeductions float64    `json:"otherDeductions"`
	LOPDays         float64    `json:"lopDays"`
	TotalEarnings   float64    `json:"totalEarnings"`
	TotalDeductions float64    `json:"totalDeductions"`
	NetSalary       float64    `json:"netSalary"`
	Month           int        `json:"month"`
	Year            int        `json:"year"`
	Status          string     `json:"status"`
	PaidOn          *time.Time `json:"paidOn,omitempty"`
	PaymentMethod   string     `json:"paymentMethod,omitempty"`
	TransactionID   string     `json:"transactionId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// BatchResult reports a month's bulk run: who got a fresh record and which
// employee numbers already had one.
type BatchResult struct {
	Month   int       `json:"month"`
	Year    int       `json:"year"`
	Created []Payroll `json:"created"`
	Skipped []string  `json:"skipped"`
}

// UpdateInput carries the adjustable line items; nil fields keep the stored
// value. Totals are recomputed from the merged row on every save.
type UpdateInput struct {
	Reimbursement   *float64 `json:"reimbursement"`
	Incentives      *float64 `json:"incentives"`
	Arrears         *float64 `json:"arrears"`
	TDSDeduction    *float64 `json:"tdsDeduction"`
	OtherDeductions *float64 `json:"otherDeductions"`
	LOPDays         *float64 `json:"lopDays"`
}

type GenerateInput struct {
	UserID          string  `json:"userId"`
	Month           int     `json:"month"`
	Year            int     `json:"year"`
	Reimbursement   float64 `json:"reimbursement"`
	Incentives      float64 `json:"incentives"`
	Arrears         float64 `json:"arrears"`
	TDSDeduction    float64 `json:"tdsDeduction"`
	OtherDeductions float64 `json:"otherDeductions"`
	LOPDays         float64 `json:"lopDays"`
}
