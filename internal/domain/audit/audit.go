package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrops/internal/platform/requestctx"
)

// Action names recorded in the trail. Handlers pass these, never free text.
const (
	ActionSignup              = "auth.signup"
	ActionLogin               = "auth.login"
	ActionLoginFailed         = "auth.login_failed"
	ActionLogout              = "auth.logout"
	ActionVerifyEmail         = "auth.verify_email"
	ActionPasswordReset       = "auth.password_reset"
	ActionMFAEnabled          = "auth.mfa_enabled"
	ActionMFADisabled         = "auth.mfa_disabled"
	ActionTokensRevoked       = "auth.tokens_revoked"
	ActionOrgCreated          = "org.created"
	ActionOrgUpdated          = "org.updated"
	ActionPolicyUpdated       = "org.policy_updated"
	ActionProfileUpdated      = "employee.profile_updated"
	ActionRoleChanged         = "employee.role_changed"
	ActionDeactivated         = "employee.deactivated"
	ActionInviteSent          = "invitation.sent"
	ActionInviteAccepted      = "invitation.accepted"
	ActionInviteRevoked       = "invitation.revoked"
	ActionCheckIn             = "attendance.check_in"
	ActionCheckOut            = "attendance.check_out"
	ActionAttendanceEdited    = "attendance.manual_edit"
	ActionAutoCheckout        = "attendance.auto_checkout"
	ActionLeaveApplied        = "leave.applied"
	ActionLeaveApproved       = "leave.approved"
	ActionLeaveRejected       = "leave.rejected"
	ActionLeaveCancelled      = "leave.cancelled"
	ActionBalanceSet          = "leave.balance_set"
	ActionBalancesInitialized = "leave.balances_initialized"
	ActionSalarySet           = "payroll.salary_set"
	ActionPayrollGenerated    = "payroll.generated"
	ActionPayrollUpdated      = "payroll.updated"
	ActionPayrollPaid         = "payroll.paid"
	ActionPayrollDeleted      = "payroll.deleted"
)

type Entry struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organizationId"`
	UserID         *string        `json:"userId,omitempty"`
	Action         string         `json:"action"`
	Metadata       map[string]any `json:"metadata"`
	IPAddress      string         `json:"ipAddress,omitempty"`
	RequestID      string         `json:"requestId,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// Execer is the slice of pgx both pgxpool.Pool and pgx.Tx satisfy, so
// entries can be written standalone or inside a caller's transaction.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Recorder writes the append-only trail. Record never fails the caller's
// request: a write error is logged and dropped.
type Recorder struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewRecorder(pool *pgxpool.Pool, log *slog.Logger) *Recorder {
	return &Recorder{pool: pool, log: log}
}

func (r *Recorder) Record(ctx context.Context, orgID string, userID *string, action string, metadata map[string]any) {
	if err := r.RecordIn(ctx, r.pool, orgID, userID, action, metadata); err != nil {
		r.log.Warn("audit write failed", "action", action, "error", err)
	}
}

// RecordIn writes the entry through tx so it commits or rolls back with the
// caller's work. The error propagates; inside a transaction there is no
// best-effort fallback.
func (r *Recorder) RecordIn(ctx context.Context, tx Execer, orgID string, userID *string, action string, metadata map[string]any) error {
	if metadata == nil {
		metadata = map[string]any{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		r.log.Warn("audit metadata encode failed", "action", action, "error", err)
		raw = []byte("{}")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO audit_logs (organization_id, user_id, action, metadata, ip_address, request_id)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		orgID, userID, action, raw,
		requestctx.GetClientIP(ctx), requestctx.GetRequestID(ctx))
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// List returns the trail newest-first, optionally filtered by action.
func (r *Recorder) List(ctx context.Context, orgID, action string, limit, offset int) ([]Entry, int, error) {
	where := `organization_id = $1`
	args := []any{orgID}
	if action != "" {
		where += ` AND action = $2`
		args = append(args, action)
	}

	var total int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM audit_logs WHERE `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, organization_id, user_id, action, metadata, ip_address,
		       request_id, created_at
		FROM audit_logs
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var raw []byte
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.UserID, &e.Action,
			&raw, &e.IPAddress, &e.RequestID, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan audit log: %w", err)
		}
		if err := json.Unmarshal(raw, &e.Metadata); err != nil {
			return nil, 0, fmt.Errorf("decode audit metadata: %w", err)
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}
