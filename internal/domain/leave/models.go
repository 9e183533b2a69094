package leave

import "time"

const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)

type Request struct {
	ID              string    `json:"id"`
	OrganizationID  string    `json:"organizationId"`
	UserID          string    `json:"userId"`
	LeaveTypeID     string    `json:"leaveTypeId"`
	LeaveTypeName   string    `json:"leaveTypeName,omitempty"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	TotalDays       float64   `json:"totalDays"`
	Reason          string    `json:"reason"`
	Status          string    `json:"status"`
	ApprovedBy      *string   `json:"approvedBy,omitempty"`
	RejectionReason string    `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Balance is the canonical per-type, per-year ledger: days consumed and days
// left. Allocation is derivable as used + remaining.
type Balance struct {
	ID            string  `json:"id"`
	UserID        string  `json:"userId"`
	LeaveTypeID   string  `json:"leaveTypeId"`
	LeaveTypeName string  `json:"leaveTypeName,omitempty"`
	Year          int     `json:"year"`
	Used          float64 `json:"used"`
	Remaining     float64 `json:"remaining"`
}

// Summary is the per-user year snapshot: balances, days booked, and the
// approved requests around today.
type Summary struct {
	Year        int       `json:"year"`
	TotalBooked float64   `json:"totalBooked"`
	Balances    []Balance `json:"balances"`
	Upcoming    []Request `json:"upcomingLeaves"`
	Past        []Request `json:"pastLeaves"`
}

// OnLeaveEntry is one member absent on a given day.
type OnLeaveEntry struct {
	UserID        string    `json:"userId"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	LeaveTypeName string    `json:"leaveTypeName"`
	Category      string    `json:"category"`
	StartDate     time.Time `json:"startDate"`
	EndDate       time.Time `json:"endDate"`
}

type ApplyInput struct {
	LeaveTypeID string    `json:"leaveTypeId"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Reason      string    `json:"reason"`
}
