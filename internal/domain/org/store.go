package org

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrPolicyLocked is returned when a policy update is attempted after the
	// one-time configuration window has closed.
	ErrPolicyLocked = errors.New("policy locked")
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const orgColumns = `
	id, name, timezone, logo_url, working_start, working_end, week_off_days,
	att_min_hours_per_day, att_late_threshold_min, att_early_threshold_min,
	att_auto_checkout, attendance_policy_configured,
	leave_annual, leave_sick, leave_casual, leave_maternity, leave_paternity,
	leave_unpaid, leave_carry_forward_limit, leave_notice_days,
	leave_max_consecutive_days, leave_policy_configured,
	notification_prefs, is_active, created_at, updated_at`

func scanOrganization(row pgx.Row) (*Organization, error) {
	o := &Organization{}
	var weekOff, prefs []byte
	err := row.Scan(
		&o.ID, &o.Name, &o.Timezone, &o.LogoURL, &o.WorkingStart, &o.WorkingEnd, &weekOff,
		&o.AttendancePolicy.MinHoursPerDay, &o.AttendancePolicy.LateThresholdMin,
		&o.AttendancePolicy.EarlyThresholdMin, &o.AttendancePolicy.AutoCheckout,
		&o.AttendancePolicyConfigured,
		&o.LeavePolicy.Annual, &o.LeavePolicy.Sick, &o.LeavePolicy.Casual,
		&o.LeavePolicy.Maternity, &o.LeavePolicy.Paternity, &o.LeavePolicy.Unpaid,
		&o.LeavePolicy.CarryForwardLimit, &o.LeavePolicy.NoticeDays,
		&o.LeavePolicy.MaxConsecutiveDays, &o.LeavePolicyConfigured,
		&prefs, &o.IsActive, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan organization: %w", err)
	}
	if err := json.Unmarshal(weekOff, &o.WeekOffDays); err != nil {
		return nil, fmt.Errorf("decode week off days: %w", err)
	}
	if err := json.Unmarshal(prefs, &o.NotificationPrefs); err != nil {
		return nil, fmt.Errorf("decode notification prefs: %w", err)
	}
	return o, nil
}

// Create provisions a bare organization. Signup is the usual path; this
// covers the explicit admin-driven flow.
func (s *Store) Create(ctx context.Context, name, timezone string) (*Organization, error) {
	if timezone == "" {
		timezone = "Asia/Kolkata"
	}
	var id string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO organizations (name, timezone)
		VALUES ($1, $2)
		RETURNING id`, name, timezone).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert organization: %w", err)
	}
	return s.ByID(ctx, id)
}

func (s *Store) ByID(ctx context.Context, id string) (*Organization, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id)
	return scanOrganization(row)
}

func (s *Store) UpdateGeneral(ctx context.Context, id, name, timezone, workingStart, workingEnd string, weekOffDays []string) error {
	weekOff, err := json.Marshal(weekOffDays)
	if err != nil {
		return fmt.Errorf("encode week off days: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE organizations
		SET name = $2, timezone = $3, working_start = $4, working_end = $5,
		    week_off_days = $6, updated_at = now()
		WHERE id = $1`, id, name, timezone, workingStart, workingEnd, weekOff)
	if err != nil {
		return fmt.Errorf("update organization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetLogoURL(ctx context.Context, id, url string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE organizations SET logo_url = $2, updated_at = now()
		WHERE id = $1`, id, url)
	if err != nil {
		return fmt.Errorf("set logo url: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateNotificationPrefs(ctx context.Context, id string, prefs map[string]bool) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode notification prefs: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE organizations SET notification_prefs = $2, updated_at = now()
		WHERE id = $1`, id, raw)
	if err != nil {
		return fmt.Errorf("update notification prefs: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAttendancePolicy writes the policy once. After the first successful
// configuration the row is locked and further updates fail with
// ErrPolicyLocked.
func (s *Store) UpdateAttendancePolicy(ctx context.Context, id string, p AttendancePolicy) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE organizations
		SET att_min_hours_per_day = $2, att_late_threshold_min = $3,
		    att_early_threshold_min = $4, att_auto_checkout = $5,
		    attendance_policy_configured = TRUE, updated_at = now()
		WHERE id = $1 AND NOT attendance_policy_configured`,
		id, p.MinHoursPerDay, p.LateThresholdMin, p.EarlyThresholdMin, p.AutoCheckout)
	if err != nil {
		return fmt.Errorf("update attendance policy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.policyUpdateFailure(ctx, id, "attendance_policy_configured")
	}
	return nil
}

// policyUpdateFailure disambiguates a zero-row policy update: the org is
// either missing or already configured.
func (s *Store) policyUpdateFailure(ctx context.Context, id, column string) error {
	var configured bool
	err := s.pool.QueryRow(ctx,
		`SELECT `+column+` FROM organizations WHERE id = $1`, id).Scan(&configured)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check policy lock: %w", err)
	}
	if configured {
		return ErrPolicyLocked
	}
	return ErrNotFound
}

func (s *Store) ListLeaveTypes(ctx context.Context, orgID string) ([]LeaveType, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, organization_id, name, category, is_paid, requires_approval,
		       auto_approve, max_per_year, carry_forward
		FROM leave_types
		WHERE organization_id = $1
		ORDER BY name`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list leave types: %w", err)
	}
	defer rows.Close()

	var out []LeaveType
	for rows.Next() {
		var lt LeaveType
		if err := rows.Scan(&lt.ID, &lt.OrganizationID, &lt.Name, &lt.Category,
			&lt.IsPaid, &lt.RequiresApproval, &lt.AutoApprove, &lt.MaxPerYear,
			&lt.CarryForward); err != nil {
			return nil, fmt.Errorf("scan leave type: %w", err)
		}
		out = append(out, lt)
	}
	return out, rows.Err()
}

// UpdateLeavePolicy writes the policy columns once and reconciles the leave
// type catalog against them, all in one transaction. Balance rows are seeded
// insert-only for members who lack one; existing rows are never overwritten.
// Like the attendance policy, a second update fails with ErrPolicyLocked.
func (s *Store) UpdateLeavePolicy(ctx context.Context, orgID string, p LeavePolicy, year int) error {
	existing, err := s.ListLeaveTypes(ctx, orgID)
	if err != nil {
		return err
	}
	plan := PlanLeaveTypeSync(existing, Quotas(p))

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin leave policy tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE organizations
		SET leave_annual = $2, leave_sick = $3, leave_casual = $4,
		    leave_maternity = $5, leave_paternity = $6, leave_unpaid = $7,
		    leave_carry_forward_limit = $8, leave_notice_days = $9,
		    leave_max_consecutive_days = $10, leave_policy_configured = TRUE,
		    updated_at = now()
		WHERE id = $1 AND NOT leave_policy_configured`,
		orgID, p.Annual, p.Sick, p.Casual, p.Maternity, p.Paternity, p.Unpaid,
		p.CarryForwardLimit, p.NoticeDays, p.MaxConsecutiveDays)
	if err != nil {
		return fmt.Errorf("update leave policy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.policyUpdateFailure(ctx, orgID, "leave_policy_configured")
	}

	for _, q := range plan.Create {
		var typeID string
		err := tx.QueryRow(ctx, `
			INSERT INTO leave_types (organization_id, name, category, is_paid, max_per_year, carry_forward)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`, orgID, q.Name, q.Category, q.IsPaid, q.Days, q.CarryForward).Scan(&typeID)
		if err != nil {
			return fmt.Errorf("create leave type %s: %w", q.Category, err)
		}
		if err := seedBalances(ctx, tx, orgID, typeID, InitialRemaining(q.Category, q.Days), year); err != nil {
			return err
		}
	}
	for _, lt := range plan.Update {
		_, err := tx.Exec(ctx, `
			UPDATE leave_types
			SET name = $2, is_paid = $3, max_per_year = $4, carry_forward = $5, updated_at = now()
			WHERE id = $1`, lt.ID, lt.Name, lt.IsPaid, lt.MaxPerYear, lt.CarryForward)
		if err != nil {
			return fmt.Errorf("update leave type %s: %w", lt.Category, err)
		}
		if err := seedBalances(ctx, tx, orgID, lt.ID, InitialRemaining(lt.Category, lt.MaxPerYear), year); err != nil {
			return err
		}
	}
	for _, lt := range plan.Delete {
		// Balance rows for the deleted type stay behind; history keeps
		// pointing at the old type id.
		if _, err := tx.Exec(ctx, `DELETE FROM leave_types WHERE id = $1`, lt.ID); err != nil {
			return fmt.Errorf("delete leave type %s: %w", lt.Category, err)
		}
	}

	return tx.Commit(ctx)
}

// seedBalances inserts a balance row for every active member who lacks one
// for the type and year. Existing rows are untouched.
func seedBalances(ctx context.Context, tx pgx.Tx, orgID, typeID string, remaining float64, year int) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO leave_balances (organization_id, user_id, leave_type_id, year, used, remaining)
		SELECT $1, u.id, $2, $3, 0, $4
		FROM users u
		WHERE u.organization_id = $1 AND u.is_active
		ON CONFLICT (user_id, leave_type_id, year) DO NOTHING`,
		orgID, typeID, year, remaining)
	if err != nil {
		return fmt.Errorf("seed balances: %w", err)
	}
	return nil
}

// SeedBalancesForUser provisions one member's balances for the year from the
// org's leave catalog, inside the caller's transaction: a new member joins
// with balances or not at all. Annual leave starts at zero; other categories
// start with the full cap.
func SeedBalancesForUser(ctx context.Context, tx pgx.Tx, orgID, userID string, year int) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO leave_balances (organization_id, user_id, leave_type_id, year, used, remaining)
		SELECT $1, $2, lt.id, $3, 0,
		       CASE WHEN lt.category = 'ANNUAL' THEN 0 ELSE lt.max_per_year END
		FROM leave_types lt
		WHERE lt.organization_id = $1
		ON CONFLICT (user_id, leave_type_id, year) DO NOTHING`, orgID, userID, year)
	if err != nil {
		return fmt.Errorf("seed balances for user: %w", err)
	}
	return nil
}

// Deactivate soft-disables the organization; members can no longer log in.
func (s *Store) Deactivate(ctx context.Context, id string, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE organizations SET is_active = FALSE, updated_at = $2
		WHERE id = $1`, id, now)
	if err != nil {
		return fmt.Errorf("deactivate organization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
