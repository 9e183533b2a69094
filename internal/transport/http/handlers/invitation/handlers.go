package invitation

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrops/internal/domain/audit"
	"hrops/internal/domain/identity"
	"hrops/internal/domain/invitation"
	"hrops/internal/platform/config"
	"hrops/internal/platform/email"
	"hrops/internal/platform/outbound"
	"hrops/internal/transport/http/api"
	"hrops/internal/transport/http/middleware"
	"hrops/internal/transport/http/shared"
)

type Handler struct {
	cfg   config.Config
	store *invitation.Store
	audit *audit.Recorder
	queue *outbound.Queue
	log   *slog.Logger
	now   func() time.Time
}

func New(cfg config.Config, store *invitation.Store, recorder *audit.Recorder, queue *outbound.Queue, log *slog.Logger) *Handler {
	return &Handler{cfg: cfg, store: store, audit: recorder, queue: queue, log: log, now: time.Now}
}

// RegisterAdminRoutes mounts the management surface; RegisterPublicRoutes
// mounts token redemption, which runs unauthenticated.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/status", h.status)
	r.Delete("/{id}", h.revoke)
}

func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/preview", h.preview)
	r.Post("/accept", h.accept)
}

type createRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	if !shared.ValidEmail(req.Email) {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "invalid email address")
		return
	}
	if !invitation.ValidRole(req.Role) {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "role must be ADMIN or EMPLOYEE")
		return
	}

	u, _ := middleware.GetUser(r.Context())
	token := identity.NewInvitationToken()
	inv, err := h.store.Create(r.Context(), u.OrganizationID, req.Email, req.Role,
		token, h.now().Add(identity.InvitationTTL))
	if errors.Is(err, invitation.ErrEmailTaken) {
		api.Fail(w, r, http.StatusBadRequest, "email_taken", "email already registered")
		return
	}
	if err != nil {
		h.internal(w, r, "create invitation", err)
		return
	}

	subject, body := email.InvitationBody(h.cfg.ClientURL + "/accept-invitation?token=" + token)
	h.queue.EnqueueEmail(r.Context(), outbound.EmailArgs{
		To: req.Email, Subject: subject, Body: body, Template: "invitation",
	})
	h.audit.Record(r.Context(), u.OrganizationID, &u.UserID, audit.ActionInviteSent,
		map[string]any{"email": req.Email, "role": req.Role})
	api.CreatedMessage(w, r, "invitation sent", inv)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	pg := shared.ParsePagination(r, 20, 100)
	items, total, err := h.store.List(r.Context(), u.OrganizationID, pg.Limit, pg.Offset())
	if err != nil {
		h.internal(w, r, "list invitations", err)
		return
	}
	api.Paginated(w, r, items, total, pg.Page, pg.Limit)
}

// status reports how many invites are still pending acceptance, for the
// members page badge.
func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	n, err := h.store.ActiveCount(r.Context(), u.OrganizationID, h.now())
	if err != nil {
		h.internal(w, r, "count invitations", err)
		return
	}
	api.Success(w, r, map[string]any{"activeInvitations": n})
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "id")
	err := h.store.Revoke(r.Context(), u.OrganizationID, id)
	if errors.Is(err, invitation.ErrNotFound) {
		api.Fail(w, r, http.StatusNotFound, "not_found", "invitation not found")
		return
	}
	if err != nil {
		h.internal(w, r, "revoke invitation", err)
		return
	}
	h.audit.Record(r.Context(), u.OrganizationID, &u.UserID, audit.ActionInviteRevoked,
		map[string]any{"invitationId": id})
	api.SuccessMessage(w, r, "invitation revoked", nil)
}

// preview lets the accept page show the invite's email and role before the
// invitee commits.
func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "token is required")
		return
	}
	inv, err := h.store.ByToken(r.Context(), token, h.now())
	if err != nil {
		h.failToken(w, r, err)
		return
	}
	api.Success(w, r, map[string]any{"email": inv.Email, "role": inv.Role, "expiresAt": inv.ExpiresAt})
}

type acceptRequest struct {
	Token    string `json:"token"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *Handler) accept(w http.ResponseWriter, r *http.Request) {
	var req acceptRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	if missing := shared.RequireFields(map[string]string{
		"token": req.Token, "name": req.Name, "password": req.Password,
	}); len(missing) > 0 {
		api.FailWithDetails(w, r, http.StatusBadRequest, "invalid_payload", "missing required fields", missing)
		return
	}
	if err := shared.ValidPassword(req.Password); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}

	hash, err := identity.HashPassword(req.Password)
	if err != nil {
		h.internal(w, r, "hash password", err)
		return
	}

	res, err := h.store.Accept(r.Context(), req.Token, req.Name, hash, h.now())
	if err != nil {
		if errors.Is(err, invitation.ErrEmailTaken) {
			api.Fail(w, r, http.StatusBadRequest, "email_taken", "email already registered")
			return
		}
		h.failToken(w, r, err)
		return
	}

	subject, body := email.WelcomeBody(res.Name)
	h.queue.EnqueueEmail(r.Context(), outbound.EmailArgs{
		To: res.Email, Subject: subject, Body: body, Template: "welcome",
	})
	api.CreatedMessage(w, r, "invitation accepted", map[string]any{
		"userId":         res.UserID,
		"employeeNumber": res.EmployeeNumber,
	})
}

func (h *Handler) failToken(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, invitation.ErrNotFound):
		api.Fail(w, r, http.StatusNotFound, "not_found", "invitation not found")
	case errors.Is(err, invitation.ErrExpired):
		api.Fail(w, r, http.StatusBadRequest, "invitation_expired", "invitation has expired")
	case errors.Is(err, invitation.ErrAccepted):
		api.Fail(w, r, http.StatusBadRequest, "invitation_used", "invitation already accepted")
	default:
		h.internal(w, r, "invitation lookup", err)
	}
}

func (h *Handler) internal(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.log.Error(op+" failed", "error", err)
	api.Fail(w, r, http.StatusInternalServerError, "internal", "internal server error")
}
