package attendance

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrops/internal/domain/attendance"
	"hrops/internal/domain/audit"
	"hrops/internal/platform/requestctx"
	"hrops/internal/transport/http/api"
	"hrops/internal/transport/http/middleware"
	"hrops/internal/transport/http/shared"
)

type Handler struct {
	store *attendance.Store
	audit *audit.Recorder
	log   *slog.Logger
	now   func() time.Time
}

func New(store *attendance.Store, recorder *audit.Recorder, log *slog.Logger) *Handler {
	return &Handler{store: store, audit: recorder, log: log, now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.Post("/check-in", h.checkIn)
	r.Post("/check-out", h.checkOut)
	r.Get("/me", h.myRecords)
	r.Get("/me/today", h.today)
	r.Get("/me/summary", h.mySummary)

	r.Group(func(r chi.Router) {
		r.Use(adminOnly)
		r.Get("/", h.orgRecords)
		r.Put("/{id}", h.manualEdit)
	})
}

func (h *Handler) checkIn(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	rec, err := h.store.CheckIn(r.Context(), u.OrganizationID, u.UserID, h.now(),
		requestctx.GetClientIP(r.Context()), r.UserAgent())
	if errors.Is(err, attendance.ErrOpenSession) {
		api.Fail(w, r, http.StatusBadRequest, "conflict", "already checked in")
		return
	}
	if err != nil {
		h.internal(w, r, "check in", err)
		return
	}
	h.audit.Record(r.Context(), u.OrganizationID, &u.UserID, audit.ActionCheckIn,
		map[string]any{"attendanceId": rec.ID})
	api.CreatedMessage(w, r, "checked in", rec)
}

func (h *Handler) checkOut(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	rec, err := h.store.CheckOut(r.Context(), u.UserID, h.now())
	if errors.Is(err, attendance.ErrNoOpenSession) {
		api.Fail(w, r, http.StatusNotFound, "not_found", "no open session")
		return
	}
	if err != nil {
		h.internal(w, r, "check out", err)
		return
	}
	h.audit.Record(r.Context(), u.OrganizationID, &u.UserID, audit.ActionCheckOut,
		map[string]any{"attendanceId": rec.ID, "status": rec.Status})
	api.SuccessMessage(w, r, "checked out", rec)
}

func (h *Handler) today(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	rec, err := h.store.OpenSession(r.Context(), u.UserID)
	if errors.Is(err, attendance.ErrNotFound) {
		api.Success(w, r, nil)
		return
	}
	if err != nil {
		h.internal(w, r, "open session lookup", err)
		return
	}
	api.Success(w, r, rec)
}

// dateRange reads from/to query params, defaulting to the current month.
// `to` is exclusive at day granularity.
func (h *Handler) dateRange(r *http.Request) (time.Time, time.Time, error) {
	now := h.now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 1, 0)

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := shared.ParseDate(v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := shared.ParseDate(v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = parsed.AddDate(0, 0, 1)
	}
	return from, to, nil
}

func (h *Handler) myRecords(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	from, to, err := h.dateRange(r)
	if err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "dates must be YYYY-MM-DD")
		return
	}
	pg := shared.ParsePagination(r, 31, 100)
	recs, total, err := h.store.ListForUser(r.Context(), u.UserID, from, to, pg.Limit, pg.Offset())
	if err != nil {
		h.internal(w, r, "list attendance", err)
		return
	}
	api.Paginated(w, r, recs, total, pg.Page, pg.Limit)
}

func (h *Handler) mySummary(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	from, to, err := h.dateRange(r)
	if err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "dates must be YYYY-MM-DD")
		return
	}
	sum, err := h.store.SummaryForUser(r.Context(), u.UserID, from, to)
	if err != nil {
		h.internal(w, r, "attendance summary", err)
		return
	}
	api.Success(w, r, sum)
}

func (h *Handler) orgRecords(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	from, to, err := h.dateRange(r)
	if err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "dates must be YYYY-MM-DD")
		return
	}
	pg := shared.ParsePagination(r, 50, 200)
	recs, total, err := h.store.ListForOrg(r.Context(), u.OrganizationID, from, to, pg.Limit, pg.Offset())
	if err != nil {
		h.internal(w, r, "list attendance", err)
		return
	}
	api.Paginated(w, r, recs, total, pg.Page, pg.Limit)
}

type manualEditRequest struct {
	CheckIn  time.Time  `json:"checkIn"`
	CheckOut *time.Time `json:"checkOut"`
	Status   string     `json:"status"`
}

func (h *Handler) manualEdit(w http.ResponseWriter, r *http.Request) {
	var req manualEditRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	if req.CheckIn.IsZero() {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "checkIn is required")
		return
	}
	if req.CheckOut != nil && req.CheckOut.Before(req.CheckIn) {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "checkOut precedes checkIn")
		return
	}
	switch req.Status {
	case "", attendance.StatusPresent, attendance.StatusHalfDay, attendance.StatusAbsent, attendance.StatusOnLeave:
	default:
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "unknown status")
		return
	}

	u, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "id")
	rec, err := h.store.ManualEdit(r.Context(), u.OrganizationID, id, req.CheckIn, req.CheckOut, req.Status)
	if errors.Is(err, attendance.ErrNotFound) {
		api.Fail(w, r, http.StatusNotFound, "not_found", "attendance record not found")
		return
	}
	if err != nil {
		h.internal(w, r, "manual edit", err)
		return
	}
	h.audit.Record(r.Context(), u.OrganizationID, &u.UserID, audit.ActionAttendanceEdited,
		map[string]any{"attendanceId": id, "status": rec.Status})
	api.SuccessMessage(w, r, "attendance updated", rec)
}

func (h *Handler) internal(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.log.Error(op+" failed", "error", err)
	api.Fail(w, r, http.StatusInternalServerError, "internal", "internal server error")
}
