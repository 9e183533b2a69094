package employee

import "time"

type Profile struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	OrganizationID string     `json:"organizationId"`
	EmployeeNumber string     `json:"employeeNumber"`
	FullName       string     `json:"fullName"`
	DateOfBirth    *time.Time `json:"dateOfBirth,omitempty"`
	Address        string     `json:"address"`
	Phone          string     `json:"phone"`
	Email          string     `json:"email"`
	PAN            string     `json:"pan,omitempty"`
	Aadhaar        string     `json:"aadhaar,omitempty"`
	DateOfJoining  *time.Time `json:"dateOfJoining,omitempty"`
	Department     string     `json:"department"`
	Position       string     `json:"position"`
	EmergencyContact string   `json:"emergencyContact"`

	CompletionPercent int      `json:"completionPercent"`
	CompletedSections []string `json:"completedSections"`
	ProfileCompleted  bool     `json:"profileCompleted"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ListItem is the directory-listing projection; identity documents never
// appear here.
type ListItem struct {
	ID             string `json:"id"`
	UserID         string `json:"userId"`
	EmployeeNumber string `json:"employeeNumber"`
	FullName       string `json:"fullName"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	Department     string `json:"department"`
	Position       string `json:"position"`
	IsActive       bool   `json:"isActive"`
}

type UpdateInput struct {
	FullName         string     `json:"fullName"`
	DateOfBirth      *time.Time `json:"dateOfBirth"`
	Address          string     `json:"address"`
	Phone            string     `json:"phone"`
	Email            string     `json:"email"`
	PAN              string     `json:"pan"`
	Aadhaar          string     `json:"aadhaar"`
	DateOfJoining    *time.Time `json:"dateOfJoining"`
	Department       string     `json:"department"`
	Position         string     `json:"position"`
	EmergencyContact string     `json:"emergencyContact"`
}
