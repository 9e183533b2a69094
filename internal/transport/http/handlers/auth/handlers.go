package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrops/internal/domain/audit"
	"hrops/internal/domain/identity"
	"hrops/internal/platform/config"
	"hrops/internal/platform/crypto"
	"hrops/internal/platform/email"
	"hrops/internal/platform/outbound"
	"hrops/internal/transport/http/api"
	"hrops/internal/transport/http/middleware"
	"hrops/internal/transport/http/shared"
)

type Handler struct {
	cfg    config.Config
	store  *identity.Store
	crypto *crypto.Service
	audit  *audit.Recorder
	queue  *outbound.Queue
	log    *slog.Logger
	now    func() time.Time
}

func New(cfg config.Config, store *identity.Store, cryptoSvc *crypto.Service, recorder *audit.Recorder, queue *outbound.Queue, log *slog.Logger) *Handler {
	return &Handler{
		cfg:    cfg,
		store:  store,
		crypto: cryptoSvc,
		audit:  recorder,
		queue:  queue,
		log:    log,
		now:    time.Now,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router, authn func(http.Handler) http.Handler) {
	r.Post("/signup", h.signup)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Post("/verify-email", h.verifyEmail)
	r.Post("/refresh", h.refresh)
	r.Post("/forgot-password", h.forgotPassword)
	r.Post("/reset-password", h.resetPassword)

	r.Group(func(r chi.Router) {
		r.Use(authn)
		r.Get("/me", h.me)
		r.Post("/revoke-all", h.revokeAll)
		r.Post("/mfa/setup", h.mfaSetup)
		r.Post("/mfa/enable", h.mfaEnable)
		r.Post("/mfa/disable", h.mfaDisable)
	})
}

type signupRequest struct {
	OrganizationName string `json:"organizationName"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	Role             string `json:"role"`
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	if missing := shared.RequireFields(map[string]string{
		"organizationName": req.OrganizationName,
		"firstName":        req.FirstName,
		"email":            req.Email,
		"password":         req.Password,
	}); len(missing) > 0 {
		api.FailWithDetails(w, r, http.StatusBadRequest, "invalid_payload", "missing required fields", missing)
		return
	}
	if !shared.ValidEmail(req.Email) {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "invalid email address")
		return
	}
	if err := shared.ValidPassword(req.Password); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	// The first account owns the org; it can only be an admin tier.
	role := req.Role
	switch role {
	case "":
		role = identity.RoleSuperAdmin
	case identity.RoleSuperAdmin, identity.RoleAdmin:
	default:
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "role must be SUPER_ADMIN or ADMIN")
		return
	}

	hash, err := identity.HashPassword(req.Password)
	if err != nil {
		h.internal(w, r, "hash password", err)
		return
	}

	name := strings.TrimSpace(req.FirstName + " " + req.LastName)
	res, err := h.store.CreateSignup(r.Context(), req.OrganizationName, name,
		req.Email, hash, role, identity.NewVerificationCode(), h.now())
	if errors.Is(err, identity.ErrEmailTaken) {
		api.Fail(w, r, http.StatusBadRequest, "email_taken", "email already registered")
		return
	}
	if err != nil {
		h.internal(w, r, "signup", err)
		return
	}

	subject, body := email.VerificationBody(res.VerificationCode)
	h.queue.EnqueueEmail(r.Context(), outbound.EmailArgs{
		To: req.Email, Subject: subject, Body: body, Template: "verification",
	})
	h.audit.Record(r.Context(), res.OrganizationID, &res.UserID, audit.ActionSignup,
		map[string]any{"email": req.Email, "employeeNumber": res.EmployeeNumber})

	api.CreatedMessage(w, r, "verification code sent", map[string]any{
		"userId":         res.UserID,
		"organizationId": res.OrganizationID,
		"employeeNumber": res.EmployeeNumber,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfaCode"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}

	creds, err := h.store.CredentialsByEmail(r.Context(), req.Email)
	if errors.Is(err, identity.ErrNotFound) || (err == nil && !identity.CheckPassword(creds.PasswordHash, req.Password)) {
		api.Fail(w, r, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		return
	}
	if err != nil {
		h.internal(w, r, "login lookup", err)
		return
	}
	if !creds.IsActive {
		api.Fail(w, r, http.StatusForbidden, "account_disabled", "account is deactivated")
		return
	}
	if !creds.IsVerified {
		api.Fail(w, r, http.StatusForbidden, "email_unverified", "verify your email first")
		return
	}

	if creds.MFAEnabled {
		if req.MFACode == "" {
			api.Fail(w, r, http.StatusUnauthorized, "mfa_required", "mfa code required")
			return
		}
		secret, err := h.crypto.DecryptString(creds.MFASecretEnc)
		if err != nil {
			h.internal(w, r, "mfa secret decrypt", err)
			return
		}
		if !validateTOTP(req.MFACode, secret) {
			h.audit.Record(r.Context(), creds.OrganizationID, &creds.ID,
				audit.ActionLoginFailed, map[string]any{"reason": "mfa"})
			api.Fail(w, r, http.StatusUnauthorized, "invalid_mfa_code", "invalid mfa code")
			return
		}
	}

	if err := h.issueSession(w, r, creds.ID, creds.OrganizationID, creds.Role); err != nil {
		h.internal(w, r, "issue session", err)
		return
	}
	if err := h.store.TouchLastLogin(r.Context(), creds.ID, h.now()); err != nil {
		h.log.Warn("touch last login failed", "error", err)
	}
	h.audit.Record(r.Context(), creds.OrganizationID, &creds.ID, audit.ActionLogin, nil)

	api.Success(w, r, map[string]any{
		"id":             creds.ID,
		"organizationId": creds.OrganizationID,
		"email":          creds.Email,
		"name":           creds.Name,
		"role":           creds.Role,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(refreshTokenCookie); err == nil && c.Value != "" {
		if err := h.store.DeleteRefreshToken(r.Context(), c.Value); err != nil {
			h.log.Warn("refresh token delete failed", "error", err)
		}
	}
	h.clearSession(w)
	if u, ok := middleware.GetUser(r.Context()); ok {
		h.audit.Record(r.Context(), u.OrganizationID, &u.UserID, audit.ActionLogout, nil)
	}
	api.SuccessMessage(w, r, "logged out", nil)
}

type verifyEmailRequest struct {
	Code string `json:"code"`
}

func (h *Handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}

	userID, err := h.store.ConsumeToken(r.Context(), req.Code, identity.TokenEmailVerification, h.now())
	if errors.Is(err, identity.ErrNotFound) {
		api.Fail(w, r, http.StatusBadRequest, "invalid_code", "invalid or expired verification code")
		return
	}
	if err != nil {
		h.internal(w, r, "verify email", err)
		return
	}
	if err := h.store.MarkVerified(r.Context(), userID); err != nil {
		h.internal(w, r, "mark verified", err)
		return
	}

	user, err := h.store.UserByID(r.Context(), userID)
	if err == nil {
		subject, body := email.WelcomeBody(user.Name)
		h.queue.EnqueueEmail(r.Context(), outbound.EmailArgs{
			To: user.Email, Subject: subject, Body: body, Template: "welcome",
		})
		h.audit.Record(r.Context(), user.OrganizationID, &userID, audit.ActionVerifyEmail, nil)
	}
	api.SuccessMessage(w, r, "email verified", nil)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(refreshTokenCookie)
	if err != nil || c.Value == "" {
		api.Fail(w, r, http.StatusUnauthorized, "unauthorized", "missing refresh token")
		return
	}

	userID, err := h.store.RefreshTokenOwner(r.Context(), c.Value, h.now())
	if errors.Is(err, identity.ErrNotFound) {
		h.clearSession(w)
		api.Fail(w, r, http.StatusUnauthorized, "unauthorized", "invalid refresh token")
		return
	}
	if err != nil {
		h.internal(w, r, "refresh lookup", err)
		return
	}

	user, err := h.store.UserByID(r.Context(), userID)
	if err != nil {
		h.internal(w, r, "refresh user lookup", err)
		return
	}
	if !user.IsActive {
		h.clearSession(w)
		api.Fail(w, r, http.StatusForbidden, "account_disabled", "account is deactivated")
		return
	}

	if err := h.issueSession(w, r, user.ID, user.OrganizationID, user.Role); err != nil {
		h.internal(w, r, "issue session", err)
		return
	}
	api.SuccessMessage(w, r, "session refreshed", nil)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}

	// The response is identical whether or not the address exists.
	creds, err := h.store.CredentialsByEmail(r.Context(), req.Email)
	if err == nil {
		token := identity.NewResetToken()
		if err := h.store.CreateToken(r.Context(), creds.ID, token,
			identity.TokenPasswordReset, h.now().Add(identity.PasswordResetTTL)); err != nil {
			h.internal(w, r, "create reset token", err)
			return
		}
		subject, body := email.PasswordResetBody(h.cfg.ClientURL + "/reset-password?token=" + token)
		h.queue.EnqueueEmail(r.Context(), outbound.EmailArgs{
			To: creds.Email, Subject: subject, Body: body, Template: "password_reset",
		})
	} else if !errors.Is(err, identity.ErrNotFound) {
		h.internal(w, r, "forgot password lookup", err)
		return
	}
	api.SuccessMessage(w, r, "if that account exists, a reset link was sent", nil)
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	if err := shared.ValidPassword(req.Password); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}

	userID, err := h.store.ConsumeToken(r.Context(), req.Token, identity.TokenPasswordReset, h.now())
	if errors.Is(err, identity.ErrNotFound) {
		api.Fail(w, r, http.StatusBadRequest, "invalid_token", "invalid or expired reset token")
		return
	}
	if err != nil {
		h.internal(w, r, "reset token", err)
		return
	}

	hash, err := identity.HashPassword(req.Password)
	if err != nil {
		h.internal(w, r, "hash password", err)
		return
	}
	if err := h.store.SetPassword(r.Context(), userID, hash); err != nil {
		h.internal(w, r, "set password", err)
		return
	}

	if user, err := h.store.UserByID(r.Context(), userID); err == nil {
		subject, body := email.PasswordResetSuccessBody()
		h.queue.EnqueueEmail(r.Context(), outbound.EmailArgs{
			To: user.Email, Subject: subject, Body: body, Template: "password_reset_success",
		})
		h.audit.Record(r.Context(), user.OrganizationID, &userID, audit.ActionPasswordReset, nil)
	}
	api.SuccessMessage(w, r, "password updated", nil)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	user, err := h.store.UserByID(r.Context(), u.UserID)
	if errors.Is(err, identity.ErrNotFound) {
		api.Fail(w, r, http.StatusNotFound, "not_found", "user not found")
		return
	}
	if err != nil {
		h.internal(w, r, "me lookup", err)
		return
	}
	api.Success(w, r, user)
}

// revokeAll invalidates every outstanding refresh token for the caller and
// clears the session cookies. In-flight access tokens age out on their own.
func (h *Handler) revokeAll(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	if err := h.store.RevokeAllRefreshTokens(r.Context(), u.UserID); err != nil {
		h.internal(w, r, "revoke sessions", err)
		return
	}
	h.clearSession(w)
	h.audit.Record(r.Context(), u.OrganizationID, &u.UserID, audit.ActionTokensRevoked, nil)
	api.SuccessMessage(w, r, "all sessions revoked", nil)
}

func (h *Handler) internal(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.log.Error(op+" failed", "error", err)
	api.Fail(w, r, http.StatusInternalServerError, "internal", "internal server error")
}
