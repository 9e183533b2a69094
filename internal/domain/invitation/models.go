package invitation

import "time"

type Invitation struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Token          string    `json:"-"`
	Accepted       bool      `json:"accepted"`
	ExpiresAt      time.Time `json:"expiresAt"`
	CreatedAt      time.Time `json:"createdAt"`
}

type AcceptResult struct {
	UserID         string
	OrganizationID string
	EmployeeNumber string
	Email          string
	Name           string
	Role           string
}
