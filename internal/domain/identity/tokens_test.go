package identity

import (
	"strings"
	"testing"
	"time"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "s3cret-pass") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("wrong password accepted")
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	now := time.Now()

	raw, err := NewAccessToken(secret, "u1", "o1", RoleAdmin, now)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	claims, err := ParseAccessToken(secret, raw)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID != "u1" || claims.OrganizationID != "o1" || claims.Role != RoleAdmin {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	raw, err := NewAccessToken([]byte("secret-a"), "u1", "o1", RoleEmployee, time.Now())
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if _, err := ParseAccessToken([]byte("secret-b"), raw); err == nil {
		t.Fatal("token signed with another secret accepted")
	}
}

func TestAccessTokenExpiry(t *testing.T) {
	secret := []byte("test-secret")
	raw, err := NewAccessToken(secret, "u1", "o1", RoleEmployee, time.Now().Add(-AccessTokenTTL-time.Minute))
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if _, err := ParseAccessToken(secret, raw); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestOpaqueTokenShapes(t *testing.T) {
	if got := len(NewRefreshToken()); got != 80 {
		t.Fatalf("refresh token length = %d, want 80", got)
	}
	if got := len(NewResetToken()); got != 40 {
		t.Fatalf("reset token length = %d, want 40", got)
	}
	if got := len(NewInvitationToken()); got != 64 {
		t.Fatalf("invitation token length = %d, want 64", got)
	}
	if NewRefreshToken() == NewRefreshToken() {
		t.Fatal("refresh tokens collide")
	}
}

func TestVerificationCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := NewVerificationCode()
		if len(code) != 6 {
			t.Fatalf("code %q: length %d, want 6", code, len(code))
		}
		if strings.Trim(code, "0123456789") != "" {
			t.Fatalf("code %q contains non-digits", code)
		}
	}
}

func TestValidRole(t *testing.T) {
	for _, r := range []string{RoleSuperAdmin, RoleAdmin, RoleEmployee} {
		if !ValidRole(r) {
			t.Fatalf("ValidRole(%q) = false", r)
		}
	}
	if ValidRole("MANAGER") {
		t.Fatal("unknown role accepted")
	}
}
