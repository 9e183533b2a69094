package identity

import "time"

const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleAdmin      = "ADMIN"
	RoleEmployee   = "EMPLOYEE"
)

const (
	TokenEmailVerification = "EMAIL_VERIFICATION"
	TokenPasswordReset     = "PASSWORD_RESET"
	TokenRefresh           = "REFRESH_TOKEN"
	TokenInvitation        = "INVITATION"
)

const (
	AccessTokenTTL       = 15 * time.Minute
	RefreshTokenTTL      = 7 * 24 * time.Hour
	VerificationCodeTTL  = 15 * time.Minute
	PasswordResetTTL     = time.Hour
	InvitationTTL        = 7 * 24 * time.Hour
)

func ValidRole(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleAdmin, RoleEmployee:
		return true
	}
	return false
}

type User struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organizationId"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	Role           string     `json:"role"`
	IsActive       bool       `json:"isActive"`
	IsVerified     bool       `json:"isVerified"`
	MFAEnabled     bool       `json:"mfaEnabled"`
	LastLoginAt    *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Credentials is the login-path projection; it carries the hash and the
// encrypted MFA secret, and must never be serialized.
type Credentials struct {
	ID             string
	OrganizationID string
	Email          string
	Name           string
	Role           string
	IsActive       bool
	IsVerified     bool
	PasswordHash   string
	MFAEnabled     bool
	MFASecretEnc   []byte
}

type SignupResult struct {
	UserID           string
	OrganizationID   string
	EmployeeNumber   string
	VerificationCode string
}
