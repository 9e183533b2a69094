package employee

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrops/internal/domain/audit"
	"hrops/internal/domain/employee"
	"hrops/internal/domain/identity"
	"hrops/internal/transport/http/api"
	"hrops/internal/transport/http/middleware"
	"hrops/internal/transport/http/shared"
)

type Handler struct {
	store *employee.Store
	audit *audit.Recorder
	log   *slog.Logger
}

func New(store *employee.Store, recorder *audit.Recorder, log *slog.Logger) *Handler {
	return &Handler{store: store, audit: recorder, log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.Get("/me", h.myProfile)
	r.Put("/me", h.updateMyProfile)

	r.Group(func(r chi.Router) {
		r.Use(adminOnly)
		r.Get("/", h.list)
		r.Get("/{userID}", h.profile)
		r.Put("/{userID}", h.updateProfile)
		r.Patch("/{userID}/role", h.setRole)
		r.Patch("/{userID}/status", h.setStatus)
	})
}

func (h *Handler) myProfile(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	h.writeProfile(w, r, u.OrganizationID, u.UserID)
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	h.writeProfile(w, r, u.OrganizationID, chi.URLParam(r, "userID"))
}

func (h *Handler) writeProfile(w http.ResponseWriter, r *http.Request, orgID, userID string) {
	p, err := h.store.ByUserID(r.Context(), orgID, userID)
	if errors.Is(err, employee.ErrNotFound) {
		api.Fail(w, r, http.StatusNotFound, "not_found", "profile not found")
		return
	}
	if err != nil {
		h.internal(w, r, "profile lookup", err)
		return
	}
	api.Success(w, r, p)
}

func (h *Handler) updateMyProfile(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	h.update(w, r, u.OrganizationID, u.UserID)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	h.update(w, r, u.OrganizationID, chi.URLParam(r, "userID"))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, orgID, userID string) {
	var in employee.UpdateInput
	if err := shared.DecodeJSON(r, &in); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	if in.Email != "" && !shared.ValidEmail(in.Email) {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "invalid email address")
		return
	}

	p, err := h.store.Update(r.Context(), orgID, userID, in)
	if errors.Is(err, employee.ErrNotFound) {
		api.Fail(w, r, http.StatusNotFound, "not_found", "profile not found")
		return
	}
	if err != nil {
		h.internal(w, r, "profile update", err)
		return
	}

	actor, _ := middleware.GetUser(r.Context())
	h.audit.Record(r.Context(), orgID, &actor.UserID, audit.ActionProfileUpdated,
		map[string]any{"userId": userID, "completionPercent": p.CompletionPercent})
	api.Success(w, r, p)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	pg := shared.ParsePagination(r, 20, 100)
	items, total, err := h.store.List(r.Context(), u.OrganizationID,
		r.URL.Query().Get("search"), pg.Limit, pg.Offset())
	if err != nil {
		h.internal(w, r, "list employees", err)
		return
	}
	api.Paginated(w, r, items, total, pg.Page, pg.Limit)
}

type setRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) setRole(w http.ResponseWriter, r *http.Request) {
	var req setRoleRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	// The org owner role is assigned at signup and never granted later.
	if req.Role != identity.RoleAdmin && req.Role != identity.RoleEmployee {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "role must be ADMIN or EMPLOYEE")
		return
	}

	u, _ := middleware.GetUser(r.Context())
	targetID := chi.URLParam(r, "userID")
	if targetID == u.UserID {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "cannot change your own role")
		return
	}

	if err := h.store.SetRole(r.Context(), u.OrganizationID, targetID, req.Role); err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			api.Fail(w, r, http.StatusNotFound, "not_found", "member not found")
			return
		}
		h.internal(w, r, "set role", err)
		return
	}
	h.audit.Record(r.Context(), u.OrganizationID, &u.UserID, audit.ActionRoleChanged,
		map[string]any{"userId": targetID, "role": req.Role})
	api.SuccessMessage(w, r, "role updated", nil)
}

type setStatusRequest struct {
	Active bool `json:"active"`
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}

	u, _ := middleware.GetUser(r.Context())
	targetID := chi.URLParam(r, "userID")
	if targetID == u.UserID {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "cannot deactivate yourself")
		return
	}

	if err := h.store.SetActive(r.Context(), u.OrganizationID, targetID, req.Active); err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			api.Fail(w, r, http.StatusNotFound, "not_found", "member not found")
			return
		}
		h.internal(w, r, "set status", err)
		return
	}
	if !req.Active {
		h.audit.Record(r.Context(), u.OrganizationID, &u.UserID, audit.ActionDeactivated,
			map[string]any{"userId": targetID})
	}
	api.SuccessMessage(w, r, "status updated", nil)
}

func (h *Handler) internal(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.log.Error(op+" failed", "error", err)
	api.Fail(w, r, http.StatusInternalServerError, "internal", "internal server error")
}
