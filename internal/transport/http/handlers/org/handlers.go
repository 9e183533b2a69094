package org

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrops/internal/domain/audit"
	"hrops/internal/domain/identity"
	"hrops/internal/domain/org"
	"hrops/internal/platform/storage"
	"hrops/internal/transport/http/api"
	"hrops/internal/transport/http/middleware"
	"hrops/internal/transport/http/shared"
)

type Handler struct {
	store   *org.Store
	objects storage.ObjectStore
	audit   *audit.Recorder
	log     *slog.Logger
	now     func() time.Time
}

func New(store *org.Store, objects storage.ObjectStore, recorder *audit.Recorder, log *slog.Logger) *Handler {
	return &Handler{store: store, objects: objects, audit: recorder, log: log, now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.Get("/", h.get)
	r.Get("/policies", h.policies)
	r.Get("/leave-types", h.leaveTypes)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(identity.RoleSuperAdmin))
		r.Post("/", h.create)
	})

	r.Group(func(r chi.Router) {
		r.Use(adminOnly)
		r.Put("/", h.updateGeneral)
		r.Put("/attendance-policy", h.updateAttendancePolicy)
		r.Put("/leave-policy", h.updateLeavePolicy)
		r.Put("/notifications", h.updateNotifications)
		r.Post("/logo", h.uploadLogo)
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	o, err := h.store.ByID(r.Context(), u.OrganizationID)
	if errors.Is(err, org.ErrNotFound) {
		api.Fail(w, r, http.StatusNotFound, "not_found", "organization not found")
		return
	}
	if err != nil {
		h.internal(w, r, "organization lookup", err)
		return
	}
	api.Success(w, r, o)
}

type createRequest struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "name is required")
		return
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "unknown timezone")
			return
		}
	}

	o, err := h.store.Create(r.Context(), req.Name, req.Timezone)
	if err != nil {
		h.internal(w, r, "create organization", err)
		return
	}
	u, _ := middleware.GetUser(r.Context())
	h.audit.Record(r.Context(), o.ID, &u.UserID, audit.ActionOrgCreated,
		map[string]any{"organizationName": o.Name})
	api.CreatedMessage(w, r, "organization created", o)
}

// policies bundles the policy sub-documents into one read for settings
// screens.
func (h *Handler) policies(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	o, err := h.store.ByID(r.Context(), u.OrganizationID)
	if errors.Is(err, org.ErrNotFound) {
		api.Fail(w, r, http.StatusNotFound, "not_found", "organization not found")
		return
	}
	if err != nil {
		h.internal(w, r, "organization lookup", err)
		return
	}
	api.Success(w, r, map[string]any{
		"workingHours": map[string]any{
			"start":       o.WorkingStart,
			"end":         o.WorkingEnd,
			"weekOffDays": o.WeekOffDays,
		},
		"attendancePolicy":        o.AttendancePolicy,
		"leavePolicy":             o.LeavePolicy,
		"notificationPreferences": o.NotificationPrefs,
	})
}

func (h *Handler) leaveTypes(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	types, err := h.store.ListLeaveTypes(r.Context(), u.OrganizationID)
	if err != nil {
		h.internal(w, r, "list leave types", err)
		return
	}
	api.Success(w, r, types)
}

type updateGeneralRequest struct {
	Name         string   `json:"name"`
	Timezone     string   `json:"timezone"`
	WorkingStart string   `json:"workingStart"`
	WorkingEnd   string   `json:"workingEnd"`
	WeekOffDays  []string `json:"weekOffDays"`
}

func (h *Handler) updateGeneral(w http.ResponseWriter, r *http.Request) {
	var req updateGeneralRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "name is required")
		return
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "unknown timezone")
			return
		}
	}

	u, _ := middleware.GetUser(r.Context())
	err := h.store.UpdateGeneral(r.Context(), u.OrganizationID, req.Name,
		req.Timezone, req.WorkingStart, req.WorkingEnd, req.WeekOffDays)
	if errors.Is(err, org.ErrNotFound) {
		api.Fail(w, r, http.StatusNotFound, "not_found", "organization not found")
		return
	}
	if err != nil {
		h.internal(w, r, "update organization", err)
		return
	}
	h.audit.Record(r.Context(), u.OrganizationID, &u.UserID, audit.ActionOrgUpdated, nil)
	api.SuccessMessage(w, r, "organization updated", nil)
}

func (h *Handler) updateAttendancePolicy(w http.ResponseWriter, r *http.Request) {
	var req org.AttendancePolicy
	if err := shared.DecodeJSON(r, &req); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	if req.MinHoursPerDay <= 0 || req.MinHoursPerDay > 24 {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "minHoursPerDay must be between 0 and 24")
		return
	}
	if req.LateThresholdMin < 0 || req.EarlyThresholdMin < 0 {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "thresholds must not be negative")
		return
	}

	u, _ := middleware.GetUser(r.Context())
	err := h.store.UpdateAttendancePolicy(r.Context(), u.OrganizationID, req)
	if errors.Is(err, org.ErrPolicyLocked) {
		api.Fail(w, r, http.StatusForbidden, "policy_locked", "policy locked; contact support")
		return
	}
	if err != nil {
		h.internal(w, r, "update attendance policy", err)
		return
	}
	h.audit.Record(r.Context(), u.OrganizationID, &u.UserID, audit.ActionPolicyUpdated,
		map[string]any{"policy": "attendance"})
	api.SuccessMessage(w, r, "attendance policy updated", nil)
}

func (h *Handler) updateLeavePolicy(w http.ResponseWriter, r *http.Request) {
	var req org.LeavePolicy
	if err := shared.DecodeJSON(r, &req); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	for _, days := range []float64{req.Annual, req.Sick, req.Casual, req.Maternity, req.Paternity, req.Unpaid} {
		if days < 0 || days > 366 {
			api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "quotas must be between 0 and 366 days")
			return
		}
	}

	u, _ := middleware.GetUser(r.Context())
	err := h.store.UpdateLeavePolicy(r.Context(), u.OrganizationID, req, h.now().Year())
	if errors.Is(err, org.ErrPolicyLocked) {
		api.Fail(w, r, http.StatusForbidden, "policy_locked", "policy locked; contact support")
		return
	}
	if err != nil {
		h.internal(w, r, "update leave policy", err)
		return
	}
	h.audit.Record(r.Context(), u.OrganizationID, &u.UserID, audit.ActionPolicyUpdated,
		map[string]any{"policy": "leave"})
	api.SuccessMessage(w, r, "leave policy updated", nil)
}

type notificationsRequest struct {
	Preferences map[string]bool `json:"preferences"`
}

func (h *Handler) updateNotifications(w http.ResponseWriter, r *http.Request) {
	var req notificationsRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	u, _ := middleware.GetUser(r.Context())
	if err := h.store.UpdateNotificationPrefs(r.Context(), u.OrganizationID, req.Preferences); err != nil {
		h.internal(w, r, "update notification prefs", err)
		return
	}
	api.SuccessMessage(w, r, "notification preferences updated", nil)
}

const maxLogoBytes = 2 << 20

func (h *Handler) uploadLogo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxLogoBytes); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("logo")
	if err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "logo file is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(path.Ext(header.Filename))
	contentType := map[string]string{".png": "image/png", ".jpg": "image/jpeg", ".jpeg": "image/jpeg", ".svg": "image/svg+xml"}[ext]
	if contentType == "" {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "logo must be png, jpeg or svg")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxLogoBytes+1))
	if err != nil {
		h.internal(w, r, "read logo", err)
		return
	}
	if len(data) > maxLogoBytes {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "logo exceeds 2MB")
		return
	}

	u, _ := middleware.GetUser(r.Context())
	url, err := h.objects.Put(r.Context(), "logos/"+u.OrganizationID+ext, contentType, data)
	if err != nil {
		h.internal(w, r, "store logo", err)
		return
	}
	if err := h.store.SetLogoURL(r.Context(), u.OrganizationID, url); err != nil {
		h.internal(w, r, "save logo url", err)
		return
	}
	api.SuccessMessage(w, r, "logo updated", map[string]string{"logoUrl": url})
}

func (h *Handler) internal(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.log.Error(op+" failed", "error", err)
	api.Fail(w, r, http.StatusInternalServerError, "internal", "internal server error")
}
