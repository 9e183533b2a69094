package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrOverlap             = errors.New("overlapping leave request exists")
	ErrAlreadyDecided      = errors.New("request already decided")
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const requestColumns = `
	r.id, r.organization_id, r.user_id, r.leave_type_id, lt.name,
	r.start_date, r.end_date, r.total_days, r.reason, r.status,
	r.approved_by, r.rejection_reason, r.created_at, r.updated_at`

const requestFrom = ` FROM leave_requests r JOIN leave_types lt ON lt.id = r.leave_type_id`

func scanRequest(row pgx.Row) (*Request, error) {
	r := &Request{}
	err := row.Scan(&r.ID, &r.OrganizationID, &r.UserID, &r.LeaveTypeID,
		&r.LeaveTypeName, &r.StartDate, &r.EndDate, &r.TotalDays, &r.Reason,
		&r.Status, &r.ApprovedBy, &r.RejectionReason, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan leave request: %w", err)
	}
	return r, nil
}

// Apply files a leave request. The balance lookup here is advisory UX; the
// authoritative guard is the conditional debit that runs at approval time.
// A user with no balance row for the type is treated as unlimited. Overlap
// against the user's live requests is rejected outright. Types flagged
// auto-approve skip the pending stage and debit synchronously.
func (s *Store) Apply(ctx context.Context, orgID, userID string, in ApplyInput) (*Request, error) {
	days := TotalDays(in.StartDate, in.EndDate)
	if days <= 0 {
		return nil, fmt.Errorf("end date precedes start date")
	}

	var autoApprove bool
	err := s.pool.QueryRow(ctx, `
		SELECT auto_approve FROM leave_types
		WHERE organization_id = $1 AND id = $2`, orgID, in.LeaveTypeID).Scan(&autoApprove)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("leave type lookup: %w", err)
	}

	var overlap bool
	err = s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM leave_requests
			WHERE user_id = $1 AND status IN ('PENDING', 'APPROVED')
			  AND start_date <= $3 AND end_date >= $2
		)`, userID, in.StartDate, in.EndDate).Scan(&overlap)
	if err != nil {
		return nil, fmt.Errorf("overlap lookup: %w", err)
	}
	if overlap {
		return nil, ErrOverlap
	}

	var remaining float64
	err = s.pool.QueryRow(ctx, `
		SELECT remaining FROM leave_balances
		WHERE user_id = $1 AND leave_type_id = $2 AND year = $3`,
		userID, in.LeaveTypeID, in.StartDate.Year()).Scan(&remaining)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// No row seeded for this type: unlimited.
	case err != nil:
		return nil, fmt.Errorf("balance lookup: %w", err)
	case remaining < days:
		return nil, ErrInsufficientBalance
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin apply tx: %w", err)
	}
	defer tx.Rollback(ctx)

	status := StatusPending
	if autoApprove {
		status = StatusApproved
	}
	var id string
	err = tx.QueryRow(ctx, `
		INSERT INTO leave_requests (organization_id, user_id, leave_type_id,
			start_date, end_date, total_days, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		orgID, userID, in.LeaveTypeID, in.StartDate, in.EndDate, days, in.Reason, status).
		Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert leave request: %w", err)
	}
	if autoApprove {
		if err := debitBalance(ctx, tx, userID, in.LeaveTypeID, in.StartDate.Year(), days); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit apply tx: %w", err)
	}
	return s.ByID(ctx, orgID, id)
}

// debitBalance conditionally debits the year's balance row. A missing row
// means the type is unlimited for this user and the debit is skipped; a row
// with too few days remaining fails the whole transaction.
func debitBalance(ctx context.Context, tx pgx.Tx, userID, typeID string, year int, days float64) error {
	tag, err := tx.Exec(ctx, `
		UPDATE leave_balances
		SET used = used + $4, remaining = remaining - $4
		WHERE user_id = $1 AND leave_type_id = $2 AND year = $3 AND remaining >= $4`,
		userID, typeID, year, days)
	if err != nil {
		return fmt.Errorf("debit balance: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM leave_balances
			WHERE user_id = $1 AND leave_type_id = $2 AND year = $3
		)`, userID, typeID, year).Scan(&exists)
	if err != nil {
		return fmt.Errorf("balance existence check: %w", err)
	}
	if exists {
		return ErrInsufficientBalance
	}
	return nil
}

func (s *Store) ByID(ctx context.Context, orgID, id string) (*Request, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+requestColumns+requestFrom+`
		WHERE r.organization_id = $1 AND r.id = $2`, orgID, id)
	return scanRequest(row)
}

// Approve flips a pending request to approved and debits the balance in the
// same transaction. The conditional UPDATE on remaining is what actually
// enforces the quota under concurrency.
func (s *Store) Approve(ctx context.Context, orgID, id, approverID string) (*Request, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin approve tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var userID, typeID string
	var startDate time.Time
	var days float64
	err = tx.QueryRow(ctx, `
		UPDATE leave_requests
		SET status = 'APPROVED', approved_by = $3, updated_at = now()
		WHERE organization_id = $1 AND id = $2 AND status = 'PENDING'
		RETURNING user_id, leave_type_id, start_date, total_days`,
		orgID, id, approverID).Scan(&userID, &typeID, &startDate, &days)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, lookupErr := s.ByID(ctx, orgID, id); lookupErr != nil {
			return nil, lookupErr
		}
		return nil, ErrAlreadyDecided
	}
	if err != nil {
		return nil, fmt.Errorf("approve request: %w", err)
	}

	if err := debitBalance(ctx, tx, userID, typeID, startDate.Year(), days); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit approve tx: %w", err)
	}
	return s.ByID(ctx, orgID, id)
}

func (s *Store) Reject(ctx context.Context, orgID, id, approverID, reason string) (*Request, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE leave_requests
		SET status = 'REJECTED', approved_by = $3, rejection_reason = $4,
		    updated_at = now()
		WHERE organization_id = $1 AND id = $2 AND status = 'PENDING'`,
		orgID, id, approverID, reason)
	if err != nil {
		return nil, fmt.Errorf("reject request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, lookupErr := s.ByID(ctx, orgID, id); lookupErr != nil {
			return nil, lookupErr
		}
		return nil, ErrAlreadyDecided
	}
	return s.ByID(ctx, orgID, id)
}

// Cancel withdraws the caller's own pending request. Approved requests stay
// decided; the admin flow handles corrections.
func (s *Store) Cancel(ctx context.Context, orgID, id, userID string) (*Request, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE leave_requests
		SET status = 'CANCELLED', updated_at = now()
		WHERE organization_id = $1 AND id = $2 AND user_id = $3 AND status = 'PENDING'`,
		orgID, id, userID)
	if err != nil {
		return nil, fmt.Errorf("cancel request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, lookupErr := s.ByID(ctx, orgID, id); lookupErr != nil {
			return nil, lookupErr
		}
		return nil, ErrAlreadyDecided
	}
	return s.ByID(ctx, orgID, id)
}

func (s *Store) ListForUser(ctx context.Context, userID, status string, limit, offset int) ([]Request, int, error) {
	where := `r.user_id = $1`
	args := []any{userID}
	if status != "" {
		where += ` AND r.status = $2`
		args = append(args, status)
	}
	return s.list(ctx, where, args, limit, offset)
}

func (s *Store) ListForOrg(ctx context.Context, orgID, status string, limit, offset int) ([]Request, int, error) {
	where := `r.organization_id = $1`
	args := []any{orgID}
	if status != "" {
		where += ` AND r.status = $2`
		args = append(args, status)
	}
	return s.list(ctx, where, args, limit, offset)
}

func (s *Store) list(ctx context.Context, where string, args []any, limit, offset int) ([]Request, int, error) {
	var total int
	err := s.pool.QueryRow(ctx, `SELECT count(*)`+requestFrom+` WHERE `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count leave requests: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s%s WHERE %s
		ORDER BY r.created_at DESC
		LIMIT $%d OFFSET $%d`, requestColumns, requestFrom, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list leave requests: %w", err)
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		var r Request
		if err := rows.Scan(&r.ID, &r.OrganizationID, &r.UserID, &r.LeaveTypeID,
			&r.LeaveTypeName, &r.StartDate, &r.EndDate, &r.TotalDays, &r.Reason,
			&r.Status, &r.ApprovedBy, &r.RejectionReason, &r.CreatedAt,
			&r.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan leave request: %w", err)
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// SetBalance rebases one member's yearly allocation for a type. Used days
// are preserved; remaining becomes total minus used.
func (s *Store) SetBalance(ctx context.Context, orgID, userID, typeID string, year int, total float64) (*Balance, error) {
	var member bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND organization_id = $2)
		   AND EXISTS (SELECT 1 FROM leave_types WHERE id = $3 AND organization_id = $2)`,
		userID, orgID, typeID).Scan(&member)
	if err != nil {
		return nil, fmt.Errorf("set balance lookup: %w", err)
	}
	if !member {
		return nil, ErrNotFound
	}

	var used float64
	err = s.pool.QueryRow(ctx, `
		SELECT used FROM leave_balances
		WHERE user_id = $1 AND leave_type_id = $2 AND year = $3`,
		userID, typeID, year).Scan(&used)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("set balance used lookup: %w", err)
	}
	remaining := RemainingForTotal(total, used)

	b := &Balance{UserID: userID, LeaveTypeID: typeID, Year: year}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO leave_balances (organization_id, user_id, leave_type_id, year, used, remaining)
		VALUES ($1, $2, $3, $4, 0, $5)
		ON CONFLICT (user_id, leave_type_id, year)
		DO UPDATE SET remaining = $5
		RETURNING id, used, remaining`,
		orgID, userID, typeID, year, remaining).Scan(&b.ID, &b.Used, &b.Remaining)
	if err != nil {
		return nil, fmt.Errorf("set balance: %w", err)
	}
	return b, nil
}

// InitializeBalances seeds a zeroed balance row for every active member and
// leave type that lacks one for the year. Existing rows are untouched; the
// admin is expected to set totals afterwards.
func (s *Store) InitializeBalances(ctx context.Context, orgID string, year int) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO leave_balances (organization_id, user_id, leave_type_id, year, used, remaining)
		SELECT $1, u.id, lt.id, $2, 0, 0
		FROM users u
		CROSS JOIN leave_types lt
		WHERE u.organization_id = $1 AND u.is_active AND lt.organization_id = $1
		ON CONFLICT (user_id, leave_type_id, year) DO NOTHING`, orgID, year)
	if err != nil {
		return 0, fmt.Errorf("initialize balances: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Summary assembles a member's year view: balances with total booked days,
// the next approved leaves, and the year's past approved leaves.
func (s *Store) Summary(ctx context.Context, userID string, year int, today time.Time) (*Summary, error) {
	balances, err := s.Balances(ctx, userID, year)
	if err != nil {
		return nil, err
	}
	sum := &Summary{Year: year, Balances: balances}
	for _, b := range balances {
		sum.TotalBooked += b.Used
	}

	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	sum.Upcoming, err = s.approvedWindow(ctx, `
		SELECT `+requestColumns+requestFrom+`
		WHERE r.user_id = $1 AND r.status = 'APPROVED' AND r.start_date >= $2
		ORDER BY r.start_date
		LIMIT 5`, userID, day)
	if err != nil {
		return nil, err
	}
	startOfYear := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	sum.Past, err = s.approvedWindow(ctx, `
		SELECT `+requestColumns+requestFrom+`
		WHERE r.user_id = $1 AND r.status = 'APPROVED'
		  AND r.end_date < $2 AND r.end_date >= $3
		ORDER BY r.end_date DESC
		LIMIT 10`, userID, day, startOfYear)
	if err != nil {
		return nil, err
	}
	return sum, nil
}

func (s *Store) approvedWindow(ctx context.Context, query string, args ...any) ([]Request, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list approved leaves: %w", err)
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		var r Request
		if err := rows.Scan(&r.ID, &r.OrganizationID, &r.UserID, &r.LeaveTypeID,
			&r.LeaveTypeName, &r.StartDate, &r.EndDate, &r.TotalDays, &r.Reason,
			&r.Status, &r.ApprovedBy, &r.RejectionReason, &r.CreatedAt,
			&r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan leave request: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// OnLeave lists members with an approved request covering the given day.
func (s *Store) OnLeave(ctx context.Context, orgID string, day time.Time) ([]OnLeaveEntry, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Millisecond)

	rows, err := s.pool.Query(ctx, `
		SELECT r.user_id, u.name, u.email, lt.name, lt.category,
		       r.start_date, r.end_date
		FROM leave_requests r
		JOIN users u ON u.id = r.user_id
		JOIN leave_types lt ON lt.id = r.leave_type_id
		WHERE r.organization_id = $1 AND r.status = 'APPROVED'
		  AND r.start_date <= $2 AND r.end_date >= $3
		ORDER BY u.name`, orgID, end, start)
	if err != nil {
		return nil, fmt.Errorf("list on leave: %w", err)
	}
	defer rows.Close()

	var out []OnLeaveEntry
	for rows.Next() {
		var e OnLeaveEntry
		if err := rows.Scan(&e.UserID, &e.Name, &e.Email, &e.LeaveTypeName,
			&e.Category, &e.StartDate, &e.EndDate); err != nil {
			return nil, fmt.Errorf("scan on leave: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Balances(ctx context.Context, userID string, year int) ([]Balance, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT b.id, b.user_id, b.leave_type_id, COALESCE(lt.name, ''),
		       b.year, b.used, b.remaining
		FROM leave_balances b
		LEFT JOIN leave_types lt ON lt.id = b.leave_type_id
		WHERE b.user_id = $1 AND b.year = $2
		ORDER BY lt.name NULLS LAST`, userID, year)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	defer rows.Close()

	var out []Balance
	for rows.Next() {
		var b Balance
		if err := rows.Scan(&b.ID, &b.UserID, &b.LeaveTypeID, &b.LeaveTypeName,
			&b.Year, &b.Used, &b.Remaining); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
