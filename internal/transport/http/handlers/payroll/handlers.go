package payroll

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"hrops/internal/domain/audit"
	"hrops/internal/domain/identity"
	"hrops/internal/domain/payroll"
	"hrops/internal/transport/http/api"
	"hrops/internal/transport/http/middleware"
	"hrops/internal/transport/http/shared"
)

type Handler struct {
	store   *payroll.Store
	orgName func(r *http.Request) string
	audit   *audit.Recorder
	log     *slog.Logger
	now     func() time.Time
}

// OrgNameFunc resolves the organization display name for payslip rendering.
type OrgNameFunc func(r *http.Request) string

func New(store *payroll.Store, orgName OrgNameFunc, recorder *audit.Recorder, log *slog.Logger) *Handler {
	return &Handler{store: store, orgName: orgName, audit: recorder, log: log, now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.Get("/me", h.myPayrolls)
	r.Get("/structure/me", h.myStructure)
	r.Get("/{id}", h.byID)
	r.Get("/{id}/payslip", h.payslip)

	r.Group(func(r chi.Router) {
		r.Use(adminOnly)
		r.Put("/structure/{userID}", h.setStructure)
		r.Get("/structure/{userID}", h.structure)
		r.Post("/generate", h.generate)
		r.Post("/generate-month", h.generateMonth)
		r.Get("/", h.orgPayrolls)
		r.Put("/{id}", h.update)
		r.Post("/{id}/process", h.process)
		r.Post("/{id}/pay", h.pay)
		r.Delete("/{id}", h.remove)
	})
}

type structureRequest struct {
	GrossSalary   float64 `json:"grossSalary"`
	BankName      string  `json:"bankName"`
	AccountNumber string  `json:"accountNumber"`
	IFSCCode      string  `json:"ifscCode"`
	EffectiveFrom string  `json:"effectiveFrom"`
}

func (h *Handler) setStructure(w http.ResponseWriter, r *http.Request) {
	var req structureRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	if req.GrossSalary <= 0 {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "grossSalary must be positive")
		return
	}
	effectiveFrom := h.now()
	if req.EffectiveFrom != "" {
		parsed, err := shared.ParseDate(req.EffectiveFrom)
		if err != nil {
			api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "effectiveFrom must be YYYY-MM-DD")
			return
		}
		effectiveFrom = parsed
	}

	u, _ := middleware.GetUser(r.Context())
	userID := chi.URLParam(r, "userID")
	st, err := h.store.UpsertStructure(r.Context(), u.OrganizationID, userID,
		req.GrossSalary, req.BankName, req.AccountNumber, req.IFSCCode, effectiveFrom)
	if errors.Is(err, payroll.ErrNotFound) {
		api.Fail(w, r, http.StatusNotFound, "not_found", "employee not found")
		return
	}
	if err != nil {
		h.internal(w, r, "set salary structure", err)
		return
	}
	h.audit.Record(r.Context(), u.OrganizationID, &u.UserID, audit.ActionSalarySet,
		map[string]any{"userId": userID, "grossSalary": st.GrossSalary})
	api.SuccessMessage(w, r, "salary structure saved", st)
}

func (h *Handler) myStructure(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	h.writeStructure(w, r, u.OrganizationID, u.UserID)
}

func (h *Handler) structure(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	h.writeStructure(w, r, u.OrganizationID, chi.URLParam(r, "userID"))
}

func (h *Handler) writeStructure(w http.ResponseWriter, r *http.Request, orgID, userID string) {
	st, err := h.store.StructureByUser(r.Context(), orgID, userID)
	if errors.Is(err, payroll.ErrNoStructure) {
		api.Fail(w, r, http.StatusNotFound, "not_found", "no salary structure on file")
		return
	}
	if err != nil {
		h.internal(w, r, "salary structure lookup", err)
		return
	}
	api.Success(w, r, st)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	var in payroll.GenerateInput
	if err := shared.DecodeJSON(r, &in); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	if in.UserID == "" {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "userId is required")
		return
	}
	if in.Month < 1 || in.Month > 12 {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "month must be 1-12")
		return
	}
	if in.Year < 2000 || in.Year > 2100 {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "year out of range")
		return
	}
	if in.LOPDays < 0 || in.LOPDays > 31 {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "lopDays must be 0-31")
		return
	}

	u, _ := middleware.GetUser(r.Context())
	p, err := h.store.Generate(r.Context(), u.OrganizationID, in)
	switch {
	case errors.Is(err, payroll.ErrNoStructure):
		api.Fail(w, r, http.StatusBadRequest, "no_salary_structure", "set a salary structure first")
		return
	case errors.Is(err, payroll.ErrDuplicatePeriod):
		api.Fail(w, r, http.StatusBadRequest, "conflict", "payroll already exists for this period")
		return
	case err != nil:
		h.internal(w, r, "generate payroll", err)
		return
	}

	h.audit.Record(r.Context(), u.OrganizationID, &u.UserID, audit.ActionPayrollGenerated,
		map[string]any{"payrollId": p.ID, "month": p.Month, "year": p.Year, "netSalary": p.NetSalary})
	api.CreatedMessage(w, r, "payroll generated", p)
}

type generateMonthRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// generateMonth runs payroll for every active salary structure in the org.
// Employees with an existing record for the period are skipped and reported
// back, so a partial rerun after adding structures is safe.
func (h *Handler) generateMonth(w http.ResponseWriter, r *http.Request) {
	var req generateMonthRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	if req.Month < 1 || req.Month > 12 {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "month must be 1-12")
		return
	}
	if req.Year < 2000 || req.Year > 2100 {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "year out of range")
		return
	}

	u, _ := middleware.GetUser(r.Context())
	result, err := h.store.GenerateBatch(r.Context(), u.OrganizationID, req.Month, req.Year)
	if err != nil {
		h.internal(w, r, "generate monthly payroll", err)
		return
	}
	h.audit.Record(r.Context(), u.OrganizationID, &u.UserID, audit.ActionPayrollGenerated,
		map[string]any{"month": req.Month, "year": req.Year,
			"created": len(result.Created), "skipped": len(result.Skipped)})
	msg := fmt.Sprintf("generated %d payrolls, skipped %d", len(result.Created), len(result.Skipped))
	api.CreatedMessage(w, r, msg, result)
}

// update adjusts reimbursements, incentives and deductions on a draft or
// processed payroll; the totals are recomputed from the merged row.
func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var in payroll.UpdateInput
	if err := shared.DecodeJSON(r, &in); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	if in.LOPDays != nil && (*in.LOPDays < 0 || *in.LOPDays > 31) {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", "lopDays must be 0-31")
		return
	}

	u, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "id")
	p, err := h.store.Update(r.Context(), u.OrganizationID, id, in)
	switch {
	case errors.Is(err, payroll.ErrNotFound):
		api.Fail(w, r, http.StatusNotFound, "not_found", "payroll not found")
		return
	case errors.Is(err, payroll.ErrPaidImmutable):
		api.Fail(w, r, http.StatusForbidden, "forbidden", "paid payrolls cannot be modified")
		return
	case err != nil:
		h.internal(w, r, "update payroll", err)
		return
	}
	h.audit.Record(r.Context(), u.OrganizationID, &u.UserID, audit.ActionPayrollUpdated,
		map[string]any{"payrollId": id})
	api.SuccessMessage(w, r, "payroll updated", p)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "id")
	err := h.store.Delete(r.Context(), u.OrganizationID, id)
	switch {
	case errors.Is(err, payroll.ErrNotFound):
		api.Fail(w, r, http.StatusNotFound, "not_found", "payroll not found")
		return
	case errors.Is(err, payroll.ErrPaidImmutable):
		api.Fail(w, r, http.StatusForbidden, "forbidden", "paid payrolls cannot be deleted")
		return
	case err != nil:
		h.internal(w, r, "delete payroll", err)
		return
	}
	h.audit.Record(r.Context(), u.OrganizationID, &u.UserID, audit.ActionPayrollDeleted,
		map[string]any{"payrollId": id})
	api.SuccessMessage(w, r, "payroll deleted", nil)
}

func (h *Handler) periodParams(r *http.Request) (int, int, error) {
	now := h.now()
	month, year := int(now.Month()), now.Year()
	var err error
	if v := r.URL.Query().Get("month"); v != "" {
		if month, err = strconv.Atoi(v); err != nil || month < 1 || month > 12 {
			return 0, 0, fmt.Errorf("month must be 1-12")
		}
	}
	if v := r.URL.Query().Get("year"); v != "" {
		if year, err = strconv.Atoi(v); err != nil {
			return 0, 0, fmt.Errorf("year must be numeric")
		}
	}
	return month, year, nil
}

func (h *Handler) orgPayrolls(w http.ResponseWriter, r *http.Request) {
	month, year, err := h.periodParams(r)
	if err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	u, _ := middleware.GetUser(r.Context())
	pg := shared.ParsePagination(r, 50, 200)
	items, total, err := h.store.ListForOrg(r.Context(), u.OrganizationID, month, year, pg.Limit, pg.Offset())
	if err != nil {
		h.internal(w, r, "list payrolls", err)
		return
	}
	api.Paginated(w, r, items, total, pg.Page, pg.Limit)
}

func (h *Handler) myPayrolls(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	pg := shared.ParsePagination(r, 12, 100)
	items, total, err := h.store.ListForUser(r.Context(), u.UserID, pg.Limit, pg.Offset())
	if err != nil {
		h.internal(w, r, "list payrolls", err)
		return
	}
	api.Paginated(w, r, items, total, pg.Page, pg.Limit)
}

// byID serves a single payroll. Employees can only fetch their own rows;
// admins see the whole org.
func (h *Handler) byID(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	p, err := h.store.ByID(r.Context(), u.OrganizationID, chi.URLParam(r, "id"))
	if errors.Is(err, payroll.ErrNotFound) {
		api.Fail(w, r, http.StatusNotFound, "not_found", "payroll not found")
		return
	}
	if err != nil {
		h.internal(w, r, "payroll lookup", err)
		return
	}
	if u.Role == identity.RoleEmployee && p.UserID != u.UserID {
		api.Fail(w, r, http.StatusForbidden, "forbidden", "insufficient permissions")
		return
	}
	api.Success(w, r, p)
}

func (h *Handler) process(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	p, err := h.store.MarkProcessed(r.Context(), u.OrganizationID, chi.URLParam(r, "id"))
	if errors.Is(err, payroll.ErrNotFound) {
		api.Fail(w, r, http.StatusNotFound, "not_found", "no draft payroll to process")
		return
	}
	if err != nil {
		h.internal(w, r, "process payroll", err)
		return
	}
	api.SuccessMessage(w, r, "payroll processed", p)
}

type payRequest struct {
	PaymentMethod string `json:"paymentMethod"`
	TransactionID string `json:"transactionId"`
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		api.Fail(w, r, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}

	u, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "id")
	p, err := h.store.MarkPaid(r.Context(), u.OrganizationID, id, req.PaymentMethod, req.TransactionID, h.now())
	if errors.Is(err, payroll.ErrNotFound) {
		api.Fail(w, r, http.StatusNotFound, "not_found", "no unpaid payroll found")
		return
	}
	if err != nil {
		h.internal(w, r, "mark paid", err)
		return
	}
	h.audit.Record(r.Context(), u.OrganizationID, &u.UserID, audit.ActionPayrollPaid,
		map[string]any{"payrollId": id, "method": req.PaymentMethod})
	api.SuccessMessage(w, r, "payroll marked paid", p)
}

func (h *Handler) payslip(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.GetUser(r.Context())
	p, err := h.store.ByID(r.Context(), u.OrganizationID, chi.URLParam(r, "id"))
	if errors.Is(err, payroll.ErrNotFound) {
		api.Fail(w, r, http.StatusNotFound, "not_found", "payroll not found")
		return
	}
	if err != nil {
		h.internal(w, r, "payroll lookup", err)
		return
	}
	if u.Role == identity.RoleEmployee && p.UserID != u.UserID {
		api.Fail(w, r, http.StatusForbidden, "forbidden", "insufficient permissions")
		return
	}

	pdf, err := payroll.PayslipPDF(h.orgName(r), p)
	if err != nil {
		h.internal(w, r, "render payslip", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="payslip-%02d-%d.pdf"`, p.Month, p.Year))
	if _, err := w.Write(pdf); err != nil {
		h.log.Warn("payslip write failed", "error", err)
	}
}

func (h *Handler) internal(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.log.Error(op+" failed", "error", err)
	api.Fail(w, r, http.StatusInternalServerError, "internal", "internal server error")
}
