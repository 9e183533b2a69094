// Package reports aggregates cross-domain figures for the admin dashboard.
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Dashboard struct {
	TotalEmployees   int `json:"totalEmployees"`
	ActiveEmployees  int `json:"activeEmployees"`
	PresentToday     int `json:"presentToday"`
	CheckedInNow     int `json:"checkedInNow"`
	PendingLeaves    int `json:"pendingLeaves"`
	OnLeaveToday     int `json:"onLeaveToday"`
	PendingInvites   int `json:"pendingInvites"`
}

type AttendanceRow struct {
	UserID         string  `json:"userId"`
	FullName       string  `json:"fullName"`
	EmployeeNumber string  `json:"employeeNumber"`
	PresentDays    int     `json:"presentDays"`
	HalfDays       int     `json:"halfDays"`
	AbsentDays     int     `json:"absentDays"`
	TotalHours     float64 `json:"totalHours"`
}

type PayrollSummary struct {
	Month       int     `json:"month"`
	Year        int     `json:"year"`
	Count       int     `json:"count"`
	TotalGross  float64 `json:"totalGross"`
	TotalNet    float64 `json:"totalNet"`
	TotalPaid   int     `json:"totalPaid"`
	TotalUnpaid int     `json:"totalUnpaid"`
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Dashboard(ctx context.Context, orgID string, now time.Time) (*Dashboard, error) {
	y, m, d := now.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	db := &Dashboard{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM users WHERE organization_id = $1),
			(SELECT count(*) FROM users WHERE organization_id = $1 AND is_active),
			(SELECT count(DISTINCT user_id) FROM attendance
				WHERE organization_id = $1 AND check_in >= $2 AND check_in < $3),
			(SELECT count(*) FROM attendance
				WHERE organization_id = $1 AND check_out IS NULL),
			(SELECT count(*) FROM leave_requests
				WHERE organization_id = $1 AND status = 'PENDING'),
			(SELECT count(*) FROM leave_requests
				WHERE organization_id = $1 AND status = 'APPROVED'
				  AND start_date <= $4 AND end_date >= $4),
			(SELECT count(*) FROM invitations
				WHERE organization_id = $1 AND NOT accepted AND expires_at > $5)`,
		orgID, dayStart, dayEnd, dayStart, now).
		Scan(&db.TotalEmployees, &db.ActiveEmployees, &db.PresentToday,
			&db.CheckedInNow, &db.PendingLeaves, &db.OnLeaveToday,
			&db.PendingInvites)
	if err != nil {
		return nil, fmt.Errorf("dashboard aggregates: %w", err)
	}
	return db, nil
}

// AttendanceReport rolls up per-member day counts over a date range.
func (s *Store) AttendanceReport(ctx context.Context, orgID string, from, to time.Time) ([]AttendanceRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT u.id, p.full_name, p.employee_number,
			count(*) FILTER (WHERE a.status = 'PRESENT'),
			count(*) FILTER (WHERE a.status = 'HALF_DAY'),
			count(*) FILTER (WHERE a.status = 'ABSENT'),
			COALESCE(sum(EXTRACT(EPOCH FROM (a.check_out - a.check_in)) / 3600)
				FILTER (WHERE a.check_out IS NOT NULL), 0)
		FROM users u
		JOIN employee_profiles p ON p.user_id = u.id
		LEFT JOIN attendance a ON a.user_id = u.id
			AND a.check_in >= $2 AND a.check_in < $3
		WHERE u.organization_id = $1
		GROUP BY u.id, p.full_name, p.employee_number
		ORDER BY p.employee_number`, orgID, from, to)
	if err != nil {
		return nil, fmt.Errorf("attendance report: %w", err)
	}
	defer rows.Close()

	var out []AttendanceRow
	for rows.Next() {
		var r AttendanceRow
		if err := rows.Scan(&r.UserID, &r.FullName, &r.EmployeeNumber,
			&r.PresentDays, &r.HalfDays, &r.AbsentDays, &r.TotalHours); err != nil {
			return nil, fmt.Errorf("scan attendance row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) PayrollSummary(ctx context.Context, orgID string, month, year int) (*PayrollSummary, error) {
	sum := &PayrollSummary{Month: month, Year: year}
	err := s.pool.QueryRow(ctx, `
		SELECT count(*),
			COALESCE(sum(gross_salary), 0),
			COALESCE(sum(net_salary), 0),
			count(*) FILTER (WHERE status = 'PAID'),
			count(*) FILTER (WHERE status <> 'PAID')
		FROM payrolls
		WHERE organization_id = $1 AND month = $2 AND year = $3`,
		orgID, month, year).
		Scan(&sum.Count, &sum.TotalGross, &sum.TotalNet, &sum.TotalPaid,
			&sum.TotalUnpaid)
	if err != nil {
		return nil, fmt.Errorf("payroll summary: %w", err)
	}
	return sum, nil
}
