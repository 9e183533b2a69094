package reports

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"hrops/internal/domain/reports"
	"hrops/internal/transport/http/api"
	"hrops/internal/transport/http/middleware"
	"hrops/internal/transport/http/shared"
)

type Handler struct {
	store *reports.Store
	log   *slog.Logger
	now   func() time.Time
}

func New(store *reports.Store, log *slog.Logger) *Handler {
	return &Handler{store: store, log: log, now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.dashboard)
	r.Get("/attendance", h.attendance)
	r.Get("/payroll", h.payroll)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	db, err := h.store.Dashboard(r.Context(), u.OrganizationID, h.now())
	if err != nil {
		h.internal(w, r, "dashboard", err)
		return
	}
	api.Success(w, r, db)
}

func (h *Handler) attendance(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 1, 0)
	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := shared.ParseDate(v)
		if err != nil {
			api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "from must be YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := shared.ParseDate(v)
		if err != nil {
			api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "to must be YYYY-MM-DD")
			return
		}
		to = parsed.AddDate(0, 0, 1)
	}

	u, _ := middleware.GetUser(r.Context())
	rows, err := h.store.AttendanceReport(r.Context(), u.OrganizationID, from, to)
	if err != nil {
		h.internal(w, r, "attendance report", err)
		return
	}
	api.Success(w, r, rows)
}

func (h *Handler) payroll(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	month, year := int(now.Month()), now.Year()
	if v := r.URL.Query().Get("month"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 12 {
			api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "month must be 1-12")
			return
		}
		month = parsed
	}
	if v := r.URL.Query().Get("year"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "year must be numeric")
			return
		}
		year = parsed
	}

	u, _ := middleware.GetUser(r.Context())
	sum, err := h.store.PayrollSummary(r.Context(), u.OrganizationID, month, year)
	if err != nil {
		h.internal(w, r, "payroll summary", err)
		return
	}
	api.Success(w, r, sum)
}

func (h *Handler) internal(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.log.Error(op+" failed", "error", err)
	api.Fail(w, r, http.StatusInternalServerError, "internal", "internal server error")
}
