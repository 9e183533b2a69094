package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hrops/internal/domain/identity"
)

func authedHandler(t *testing.T, got *UserContext) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := GetUser(r.Context())
		if !ok {
			t.Fatal("user missing from context")
		}
		*got = u
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticateCookie(t *testing.T) {
	secret := []byte("test-secret")
	token, err := identity.NewAccessToken(secret, "u1", "o1", identity.RoleAdmin, time.Now())
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	var got UserContext
	h := Authenticate(secret)(authedHandler(t, &got))

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got.UserID != "u1" || got.OrganizationID != "o1" || got.Role != identity.RoleAdmin {
		t.Fatalf("user context = %+v", got)
	}
}

func TestAuthenticateBearerFallback(t *testing.T) {
	secret := []byte("test-secret")
	token, _ := identity.NewAccessToken(secret, "u2", "o1", identity.RoleEmployee, time.Now())

	var got UserContext
	h := Authenticate(secret)(authedHandler(t, &got))

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusOK || got.UserID != "u2" {
		t.Fatalf("status = %d, user = %+v", w.Code, got)
	}
}

func TestAuthenticateRejectsMissingAndBadTokens(t *testing.T) {
	h := Authenticate([]byte("test-secret"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler reached without credentials")
	}))

	r := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status = %d", w.Code)
	}

	r = httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "garbage"})
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status = %d", w.Code)
	}
}

func TestRequireRole(t *testing.T) {
	secret := []byte("test-secret")
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := Authenticate(secret)(RequireRole(identity.RoleSuperAdmin, identity.RoleAdmin)(inner))

	cases := []struct {
		role string
		want int
	}{
		{identity.RoleSuperAdmin, http.StatusOK},
		{identity.RoleAdmin, http.StatusOK},
		{identity.RoleEmployee, http.StatusForbidden},
	}
	for _, c := range cases {
		token, _ := identity.NewAccessToken(secret, "u1", "o1", c.role, time.Now())
		r := httptest.NewRequest("GET", "/", nil)
		r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != c.want {
			t.Errorf("role %s: status = %d, want %d", c.role, w.Code, c.want)
		}
	}
}
