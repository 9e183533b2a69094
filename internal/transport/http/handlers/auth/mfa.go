package auth

import (
	"errors"
	"net/http"

	"github.com/pquerna/otp/totp"

	"hrops/internal/domain/audit"
	"hrops/internal/domain/identity"
	"hrops/internal/transport/http/api"
	"hrops/internal/transport/http/middleware"
	"hrops/internal/transport/http/shared"
)

func validateTOTP(code, secret string) bool {
	return totp.Validate(code, secret)
}

// mfaSetup generates a fresh TOTP secret for the caller. The secret is
// stored encrypted but MFA stays off until the first code is confirmed via
// mfaEnable.
func (h *Handler) mfaSetup(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	user, err := h.store.UserByID(r.Context(), u.UserID)
	if err != nil {
		h.internal(w, r, "mfa setup lookup", err)
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "hrops",
		AccountName: user.Email,
	})
	if err != nil {
		h.internal(w, r, "totp generate", err)
		return
	}

	secretEnc, err := h.crypto.EncryptString(key.Secret())
	if err != nil {
		h.internal(w, r, "mfa secret encrypt", err)
		return
	}
	if err := h.store.SetMFASecret(r.Context(), u.UserID, secretEnc); err != nil {
		h.internal(w, r, "mfa secret store", err)
		return
	}

	api.Success(w, r, map[string]any{
		"secret":     key.Secret(),
		"otpauthUrl": key.URL(),
	})
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

func (h *Handler) mfaEnable(w http.ResponseWriter, r *http.Request) {
	var req mfaCodeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	u, _ := middleware.GetUser(r.Context())

	secretEnc, err := h.store.MFASecret(r.Context(), u.UserID)
	if errors.Is(err, identity.ErrNotFound) || len(secretEnc) == 0 {
		api.Fail(w, r, http.StatusBadRequest, "mfa_not_setup", "run mfa setup first")
		return
	}
	if err != nil {
		h.internal(w, r, "mfa secret lookup", err)
		return
	}
	secret, err := h.crypto.DecryptString(secretEnc)
	if err != nil {
		h.internal(w, r, "mfa secret decrypt", err)
		return
	}
	if !validateTOTP(req.Code, secret) {
		api.Fail(w, r, http.StatusBadRequest, "invalid_mfa_code", "invalid mfa code")
		return
	}

	if err := h.store.SetMFAEnabled(r.Context(), u.UserID, true); err != nil {
		h.internal(w, r, "mfa enable", err)
		return
	}
	h.audit.Record(r.Context(), u.OrganizationID, &u.UserID, audit.ActionMFAEnabled, nil)
	api.SuccessMessage(w, r, "mfa enabled", nil)
}

func (h *Handler) mfaDisable(w http.ResponseWriter, r *http.Request) {
	var req mfaCodeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	u, _ := middleware.GetUser(r.Context())

	secretEnc, err := h.store.MFASecret(r.Context(), u.UserID)
	if err != nil || len(secretEnc) == 0 {
		api.Fail(w, r, http.StatusBadRequest, "mfa_not_setup", "mfa is not enabled")
		return
	}
	secret, err := h.crypto.DecryptString(secretEnc)
	if err != nil {
		h.internal(w, r, "mfa secret decrypt", err)
		return
	}
	if !validateTOTP(req.Code, secret) {
		api.Fail(w, r, http.StatusBadRequest, "invalid_mfa_code", "invalid mfa code")
		return
	}

	if err := h.store.SetMFAEnabled(r.Context(), u.UserID, false); err != nil {
		h.internal(w, r, "mfa disable", err)
		return
	}
	h.audit.Record(r.Context(), u.OrganizationID, &u.UserID, audit.ActionMFADisabled, nil)
	api.SuccessMessage(w, r, "mfa disabled", nil)
}
