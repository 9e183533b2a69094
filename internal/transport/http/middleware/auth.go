package middleware

import (
	"context"
	"net/http"
	"strings"

	"hrops/internal/domain/identity"
	"hrops/internal/transport/http/api"
)

// AccessTokenCookie is the cookie the login flow sets; the Authorization
// header is accepted as a fallback for non-browser clients.
const AccessTokenCookie = "accessToken"

type userContextKey struct{}

// UserContext is the authenticated caller as established by Authenticate.
type UserContext struct {
	UserID         string
	OrganizationID string
	Role           string
}

func GetUser(ctx context.Context) (UserContext, bool) {
	u, ok := ctx.Value(userContextKey{}).(UserContext)
	return u, ok
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// Authenticate verifies the access token and stores the caller on the
// context. Requests without a valid token are rejected.
func Authenticate(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := tokenFromRequest(r)
			if raw == "" {
				api.Fail(w, r, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}
			claims, err := identity.ParseAccessToken(secret, raw)
			if err != nil {
				api.Fail(w, r, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), userContextKey{}, UserContext{
				UserID:         claims.UserID,
				OrganizationID: claims.OrganizationID,
				Role:           claims.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole allows only the listed roles past. It assumes Authenticate ran
// earlier in the chain.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, r, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}
			if _, ok := allowed[u.Role]; !ok {
				api.Fail(w, r, http.StatusForbidden, "forbidden", "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
