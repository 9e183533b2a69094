package leave

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"hrops/internal/domain/audit"
	"hrops/internal/domain/leave"
	"hrops/internal/transport/http/api"
	"hrops/internal/transport/http/middleware"
	"hrops/internal/transport/http/shared"
)

type Handler struct {
	store *leave.Store
	audit *audit.Recorder
	log   *slog.Logger
	now   func() time.Time
}

func New(store *leave.Store, recorder *audit.Recorder, log *slog.Logger) *Handler {
	return &Handler{store: store, audit: recorder, log: log, now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.Post("/requests", h.apply)
	r.Get("/requests/me", h.myRequests)
	r.Post("/requests/{id}/cancel", h.cancel)
	r.Get("/balances/me", h.myBalances)
	r.Get("/summary/me", h.mySummary)

	r.Group(func(r chi.Router) {
		r.Use(adminOnly)
		r.Get("/requests", h.orgRequests)
		r.Post("/requests/{id}/approve", h.approve)
		r.Post("/requests/{id}/reject", h.reject)
		r.Get("/balances/{userID}", h.userBalances)
		r.Put("/balances", h.setBalance)
		r.Post("/balances/initialize", h.initializeBalances)
		r.Get("/summary/{userID}", h.userSummary)
		r.Get("/on-leave", h.onLeave)
	})
}

type applyRequest struct {
	LeaveTypeID string `json:"leaveTypeId"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Reason      string `json:"reason"`
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	if missing := shared.RequireFields(map[string]string{
		"leaveTypeId": req.LeaveTypeID,
		"startDate":   req.StartDate,
		"endDate":     req.EndDate,
	}); len(missing) > 0 {
		api.FailWithDetails(w, r, http.StatusBadRequest, "invalid_payload", "missing required fields", missing)
		return
	}
	start, err := shared.ParseDate(req.StartDate)
	if err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "startDate must be YYYY-MM-DD")
		return
	}
	end, err := shared.ParseDate(req.EndDate)
	if err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "endDate must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "endDate precedes startDate")
		return
	}

	u, _ := middleware.GetUser(r.Context())
	created, err := h.store.Apply(r.Context(), u.OrganizationID, u.UserID, leave.ApplyInput{
		LeaveTypeID: req.LeaveTypeID,
		StartDate:   start,
		EndDate:     end,
		Reason:      req.Reason,
	})
	switch {
	case errors.Is(err, leave.ErrNotFound):
		api.Fail(w, r, http.StatusNotFound, "not_found", "leave type not found")
		return
	case errors.Is(err, leave.ErrOverlap):
		api.Fail(w, r, http.StatusBadRequest, "conflict", "overlapping leave request exists")
		return
	case errors.Is(err, leave.ErrInsufficientBalance):
		api.Fail(w, r, http.StatusBadRequest, "insufficient_balance", "not enough leave balance")
		return
	case err != nil:
		h.internal(w, r, "apply leave", err)
		return
	}

	h.audit.Record(r.Context(), u.OrganizationID, &u.UserID, audit.ActionLeaveApplied,
		map[string]any{"requestId": created.ID, "days": created.TotalDays})
	api.CreatedMessage(w, r, "leave request submitted", created)
}

func (h *Handler) myRequests(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	pg := shared.ParsePagination(r, 20, 100)
	items, total, err := h.store.ListForUser(r.Context(), u.UserID,
		r.URL.Query().Get("status"), pg.Limit, pg.Offset())
	if err != nil {
		h.internal(w, r, "list leave requests", err)
		return
	}
	api.Paginated(w, r, items, total, pg.Page, pg.Limit)
}

func (h *Handler) orgRequests(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	pg := shared.ParsePagination(r, 20, 100)
	items, total, err := h.store.ListForOrg(r.Context(), u.OrganizationID,
		r.URL.Query().Get("status"), pg.Limit, pg.Offset())
	if err != nil {
		h.internal(w, r, "list leave requests", err)
		return
	}
	api.Paginated(w, r, items, total, pg.Page, pg.Limit)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "id")
	req, err := h.store.Approve(r.Context(), u.OrganizationID, id, u.UserID)
	switch {
	case errors.Is(err, leave.ErrNotFound):
		api.Fail(w, r, http.StatusNotFound, "not_found", "leave request not found")
		return
	case errors.Is(err, leave.ErrAlreadyDecided):
		api.Fail(w, r, http.StatusBadRequest, "conflict", "request already decided")
		return
	case errors.Is(err, leave.ErrInsufficientBalance):
		api.Fail(w, r, http.StatusBadRequest, "insufficient_balance", "not enough leave balance")
		return
	case err != nil:
		h.internal(w, r, "approve leave", err)
		return
	}
	h.audit.Record(r.Context(), u.OrganizationID, &u.UserID, audit.ActionLeaveApproved,
		map[string]any{"requestId": id, "userId": req.UserID})
	api.SuccessMessage(w, r, "leave approved", req)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	var body rejectRequest
	if err := shared.DecodeJSON(r, &body); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}

	u, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "id")
	req, err := h.store.Reject(r.Context(), u.OrganizationID, id, u.UserID, body.Reason)
	switch {
	case errors.Is(err, leave.ErrNotFound):
		api.Fail(w, r, http.StatusNotFound, "not_found", "leave request not found")
		return
	case errors.Is(err, leave.ErrAlreadyDecided):
		api.Fail(w, r, http.StatusBadRequest, "conflict", "request already decided")
		return
	case err != nil:
		h.internal(w, r, "reject leave", err)
		return
	}
	h.audit.Record(r.Context(), u.OrganizationID, &u.UserID, audit.ActionLeaveRejected,
		map[string]any{"requestId": id, "userId": req.UserID})
	api.SuccessMessage(w, r, "leave rejected", req)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "id")
	req, err := h.store.Cancel(r.Context(), u.OrganizationID, id, u.UserID)
	switch {
	case errors.Is(err, leave.ErrNotFound):
		api.Fail(w, r, http.StatusNotFound, "not_found", "leave request not found")
		return
	case errors.Is(err, leave.ErrAlreadyDecided):
		api.Fail(w, r, http.StatusBadRequest, "conflict", "only pending requests can be cancelled")
		return
	case err != nil:
		h.internal(w, r, "cancel leave", err)
		return
	}
	h.audit.Record(r.Context(), u.OrganizationID, &u.UserID, audit.ActionLeaveCancelled,
		map[string]any{"requestId": id})
	api.SuccessMessage(w, r, "leave request cancelled", req)
}

func (h *Handler) myBalances(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	h.writeBalances(w, r, u.UserID)
}

func (h *Handler) userBalances(w http.ResponseWriter, r *http.Request) {
	h.writeBalances(w, r, chi.URLParam(r, "userID"))
}

func (h *Handler) writeBalances(w http.ResponseWriter, r *http.Request, userID string) {
	year := h.now().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "year must be numeric")
			return
		}
		year = parsed
	}
	balances, err := h.store.Balances(r.Context(), userID, year)
	if err != nil {
		h.internal(w, r, "list balances", err)
		return
	}
	api.Success(w, r, balances)
}

func (h *Handler) yearParam(r *http.Request) (int, error) {
	year := h.now().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0, err
		}
		year = parsed
	}
	return year, nil
}

type setBalanceRequest struct {
	UserID      string  `json:"userId"`
	LeaveTypeID string  `json:"leaveTypeId"`
	Year        int     `json:"year"`
	Total       float64 `json:"total"`
}

// setBalance rebases one member's yearly allocation; used days survive the
// rebase.
func (h *Handler) setBalance(w http.ResponseWriter, r *http.Request) {
	var req setBalanceRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	if missing := shared.RequireFields(map[string]string{
		"userId":      req.UserID,
		"leaveTypeId": req.LeaveTypeID,
	}); len(missing) > 0 {
		api.FailWithDetails(w, r, http.StatusBadRequest, "invalid_payload", "missing required fields", missing)
		return
	}
	if req.Year == 0 {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "year is required")
		return
	}
	if req.Total < 0 || req.Total > 366 {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "total must be between 0 and 366 days")
		return
	}

	u, _ := middleware.GetUser(r.Context())
	b, err := h.store.SetBalance(r.Context(), u.OrganizationID, req.UserID,
		req.LeaveTypeID, req.Year, req.Total)
	if errors.Is(err, leave.ErrNotFound) {
		api.Fail(w, r, http.StatusNotFound, "not_found", "employee or leave type not found")
		return
	}
	if err != nil {
		h.internal(w, r, "set leave balance", err)
		return
	}
	h.audit.Record(r.Context(), u.OrganizationID, &u.UserID, audit.ActionBalanceSet,
		map[string]any{"userId": req.UserID, "leaveTypeId": req.LeaveTypeID,
			"year": req.Year, "total": req.Total})
	api.SuccessMessage(w, r, "leave balance updated", b)
}

type initializeBalancesRequest struct {
	Year int `json:"year"`
}

// initializeBalances seeds zeroed rows for every member and type missing
// one; the admin sets totals afterwards.
func (h *Handler) initializeBalances(w http.ResponseWriter, r *http.Request) {
	var req initializeBalancesRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	year := req.Year
	if year == 0 {
		year = h.now().Year()
	}

	u, _ := middleware.GetUser(r.Context())
	created, err := h.store.InitializeBalances(r.Context(), u.OrganizationID, year)
	if err != nil {
		h.internal(w, r, "initialize balances", err)
		return
	}
	h.audit.Record(r.Context(), u.OrganizationID, &u.UserID, audit.ActionBalancesInitialized,
		map[string]any{"year": year, "created": created})
	api.SuccessMessage(w, r, "leave balances initialized", map[string]any{
		"year": year, "created": created,
	})
}

func (h *Handler) mySummary(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	h.writeSummary(w, r, u.UserID)
}

func (h *Handler) userSummary(w http.ResponseWriter, r *http.Request) {
	h.writeSummary(w, r, chi.URLParam(r, "userID"))
}

func (h *Handler) writeSummary(w http.ResponseWriter, r *http.Request, userID string) {
	year, err := h.yearParam(r)
	if err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "year must be numeric")
		return
	}
	sum, err := h.store.Summary(r.Context(), userID, year, h.now())
	if err != nil {
		h.internal(w, r, "leave summary", err)
		return
	}
	api.Success(w, r, sum)
}

// onLeave lists members absent on the given day (today by default).
func (h *Handler) onLeave(w http.ResponseWriter, r *http.Request) {
	day := h.now()
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := shared.ParseDate(v)
		if err != nil {
			api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	u, _ := middleware.GetUser(r.Context())
	entries, err := h.store.OnLeave(r.Context(), u.OrganizationID, day)
	if err != nil {
		h.internal(w, r, "list on leave", err)
		return
	}
	api.Success(w, r, entries)
}

func (h *Handler) internal(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.log.Error(op+" failed", "error", err)
	api.Fail(w, r, http.StatusInternalServerError, "internal", "internal server error")
}
