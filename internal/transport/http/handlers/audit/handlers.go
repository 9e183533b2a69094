package audit

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrops/internal/domain/audit"
	"hrops/internal/transport/http/api"
	"hrops/internal/transport/http/middleware"
	"hrops/internal/transport/http/shared"
)

type Handler struct {
	recorder *audit.Recorder
	log      *slog.Logger
}

func New(recorder *audit.Recorder, log *slog.Logger) *Handler {
	return &Handler{recorder: recorder, log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	pg := shared.ParsePagination(r, 50, 200)
	entries, total, err := h.recorder.List(r.Context(), u.OrganizationID,
		r.URL.Query().Get("action"), pg.Limit, pg.Offset())
	if err != nil {
		h.log.Error("list audit logs failed", "error", err)
		api.Fail(w, r, http.StatusInternalServerError, "internal", "internal server error")
		return
	}
	api.Paginated(w, r, entries, total, pg.Page, pg.Limit)
}
