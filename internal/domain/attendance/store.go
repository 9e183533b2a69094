package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrOpenSession   = errors.New("an open session already exists")
	ErrNoOpenSession = errors.New("no open session to close")
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const recordColumns = `
	id, organization_id, user_id, check_in, check_out, status, is_manual_edit,
	ip_address, device_info, created_at, updated_at`

func scanRecord(row pgx.Row) (*Record, error) {
	r := &Record{}
	err := row.Scan(&r.ID, &r.OrganizationID, &r.UserID, &r.CheckIn, &r.CheckOut,
		&r.Status, &r.IsManualEdit, &r.IPAddress, &r.DeviceInfo, &r.CreatedAt,
		&r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan attendance: %w", err)
	}
	return r, nil
}

// CheckIn opens a session. The application-level lookup gives the caller a
// clean error; the partial unique index is the authoritative guard and is
// translated to the same error when a concurrent check-in slips past the
// lookup.
func (s *Store) CheckIn(ctx context.Context, orgID, userID string, at time.Time, ip, device string) (*Record, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM attendance WHERE user_id = $1 AND check_out IS NULL
		)`, userID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("open session lookup: %w", err)
	}
	if exists {
		return nil, ErrOpenSession
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO attendance (organization_id, user_id, check_in, ip_address, device_info)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+recordColumns, orgID, userID, at, ip, device)
	rec, err := scanRecord(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrOpenSession
		}
		return nil, err
	}
	return rec, nil
}

// CheckOut closes the user's open session and derives the day status from
// the worked duration.
func (s *Store) CheckOut(ctx context.Context, userID string, at time.Time) (*Record, error) {
	var id string
	var checkIn time.Time
	err := s.pool.QueryRow(ctx, `
		SELECT id, check_in FROM attendance
		WHERE user_id = $1 AND check_out IS NULL`, userID).Scan(&id, &checkIn)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoOpenSession
	}
	if err != nil {
		return nil, fmt.Errorf("open session lookup: %w", err)
	}
	if at.Before(checkIn) {
		return nil, fmt.Errorf("check-out %v precedes check-in %v", at, checkIn)
	}

	status := DeriveStatus(at.Sub(checkIn).Minutes())
	row := s.pool.QueryRow(ctx, `
		UPDATE attendance
		SET check_out = $2, status = $3, updated_at = now()
		WHERE id = $1 AND check_out IS NULL
		RETURNING `+recordColumns, id, at, status)
	rec, err := scanRecord(row)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoOpenSession
	}
	return rec, err
}

func (s *Store) OpenSession(ctx context.Context, userID string) (*Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+recordColumns+` FROM attendance
		WHERE user_id = $1 AND check_out IS NULL`, userID)
	return scanRecord(row)
}

func (s *Store) ListForUser(ctx context.Context, userID string, from, to time.Time, limit, offset int) ([]Record, int, error) {
	var total int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM attendance
		WHERE user_id = $1 AND check_in >= $2 AND check_in < $3`,
		userID, from, to).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+recordColumns+` FROM attendance
		WHERE user_id = $1 AND check_in >= $2 AND check_in < $3
		ORDER BY check_in DESC
		LIMIT $4 OFFSET $5`, userID, from, to, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()
	out, err := collectRecords(rows)
	return out, total, err
}

func (s *Store) ListForOrg(ctx context.Context, orgID string, from, to time.Time, limit, offset int) ([]Record, int, error) {
	var total int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM attendance
		WHERE organization_id = $1 AND check_in >= $2 AND check_in < $3`,
		orgID, from, to).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+recordColumns+` FROM attendance
		WHERE organization_id = $1 AND check_in >= $2 AND check_in < $3
		ORDER BY check_in DESC
		LIMIT $4 OFFSET $5`, orgID, from, to, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()
	out, err := collectRecords(rows)
	return out, total, err
}

func collectRecords(rows pgx.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.OrganizationID, &r.UserID, &r.CheckIn,
			&r.CheckOut, &r.Status, &r.IsManualEdit, &r.IPAddress, &r.DeviceInfo,
			&r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ManualEdit lets an admin overwrite a record's times and, optionally, its
// status. Status derivation is deliberately not re-run here; the corrected
// status is the admin's call.
func (s *Store) ManualEdit(ctx context.Context, orgID, id string, checkIn time.Time, checkOut *time.Time, status string) (*Record, error) {
	if checkOut != nil && checkOut.Before(checkIn) {
		return nil, fmt.Errorf("check-out %v precedes check-in %v", checkOut, checkIn)
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE attendance
		SET check_in = $3, check_out = $4,
		    status = COALESCE(NULLIF($5, ''), status),
		    is_manual_edit = TRUE, updated_at = now()
		WHERE organization_id = $1 AND id = $2
		RETURNING `+recordColumns, orgID, id, checkIn, checkOut, status)
	return scanRecord(row)
}

func (s *Store) SummaryForUser(ctx context.Context, userID string, from, to time.Time) (*Summary, error) {
	sum := &Summary{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE status = 'PRESENT'),
			count(*) FILTER (WHERE status = 'HALF_DAY'),
			count(*) FILTER (WHERE status = 'ABSENT'),
			COALESCE(sum(EXTRACT(EPOCH FROM (check_out - check_in)) / 60) FILTER (WHERE check_out IS NOT NULL), 0)
		FROM attendance
		WHERE user_id = $1 AND check_in >= $2 AND check_in < $3`,
		userID, from, to).
		Scan(&sum.PresentDays, &sum.HalfDays, &sum.AbsentDays, &sum.TotalMinutes)
	if err != nil {
		return nil, fmt.Errorf("attendance summary: %w", err)
	}
	return sum, nil
}

// ListOpenSessionsBefore returns sessions opened before the cutoff that are
// still missing a check-out. Part of the sweep contract.
func (s *Store) ListOpenSessionsBefore(ctx context.Context, cutoff time.Time) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+recordColumns+` FROM attendance
		WHERE check_out IS NULL AND check_in < $1`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list open sessions: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// CloseOpenSession closes a session only if it is still open, reporting
// whether this call won. Part of the sweep contract.
func (s *Store) CloseOpenSession(ctx context.Context, id string, checkOut time.Time, status string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE attendance
		SET check_out = $2, status = $3, is_manual_edit = TRUE, updated_at = now()
		WHERE id = $1 AND check_out IS NULL`, id, checkOut, status)
	if err != nil {
		return false, fmt.Errorf("close open session: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
