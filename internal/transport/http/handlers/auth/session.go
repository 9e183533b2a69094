package auth

import (
	"net/http"

	"hrops/internal/domain/identity"
	"hrops/internal/transport/http/middleware"
)

const refreshTokenCookie = "refreshToken"

// issueSession mints the access token, rotates the refresh token, and sets
// both cookies. The refresh cookie is scoped to the auth routes only.
func (h *Handler) issueSession(w http.ResponseWriter, r *http.Request, userID, orgID, role string) error {
	now := h.now()
	access, err := identity.NewAccessToken([]byte(h.cfg.JWTSecret), userID, orgID, role, now)
	if err != nil {
		return err
	}
	refresh := identity.NewRefreshToken()
	if err := h.store.RotateRefreshToken(r.Context(), userID, refresh, now.Add(identity.RefreshTokenTTL)); err != nil {
		return err
	}

	secure := h.cfg.IsProduction()
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    access,
		Path:     "/",
		MaxAge:   int(identity.AccessTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    refresh,
		Path:     "/api/v1/auth",
		MaxAge:   int(identity.RefreshTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

func (h *Handler) clearSession(w http.ResponseWriter) {
	secure := h.cfg.IsProduction()
	http.SetCookie(w, &http.Cookie{
		Name: middleware.AccessTokenCookie, Value: "", Path: "/", MaxAge: -1,
		HttpOnly: true, Secure: secure, SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name: refreshTokenCookie, Value: "", Path: "/api/v1/auth", MaxAge: -1,
		HttpOnly: true, Secure: secure, SameSite: http.SameSiteStrictMode,
	})
}
