package invitation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrops/internal/domain/audit"
	"hrops/internal/domain/identity"
	"hrops/internal/domain/org"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrExpired    = errors.New("invitation expired")
	ErrAccepted   = errors.New("invitation already accepted")
	ErrEmailTaken = errors.New("email already registered")
)

type Store struct {
	pool  *pgxpool.Pool
	audit *audit.Recorder
}

func NewStore(pool *pgxpool.Pool, recorder *audit.Recorder) *Store {
	return &Store{pool: pool, audit: recorder}
}

// Create issues an invitation. Re-inviting the same address replaces the
// earlier pending invite so only the newest token works.
func (s *Store) Create(ctx context.Context, orgID, email, role, token string, expiresAt time.Time) (*Invitation, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin invite tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE email = lower($1))`, email).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("member lookup: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM invitations
		WHERE organization_id = $1 AND email = lower($2) AND NOT accepted`, orgID, email)
	if err != nil {
		return nil, fmt.Errorf("purge stale invites: %w", err)
	}

	inv := &Invitation{}
	err = tx.QueryRow(ctx, `
		INSERT INTO invitations (organization_id, email, role, token, expires_at)
		VALUES ($1, lower($2), $3, $4, $5)
		RETURNING id, organization_id, email, role, token, accepted, expires_at, created_at`,
		orgID, email, role, token, expiresAt).
		Scan(&inv.ID, &inv.OrganizationID, &inv.Email, &inv.Role, &inv.Token,
			&inv.Accepted, &inv.ExpiresAt, &inv.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert invitation: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit invite tx: %w", err)
	}
	return inv, nil
}

func (s *Store) ByToken(ctx context.Context, token string, now time.Time) (*Invitation, error) {
	inv := &Invitation{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, organization_id, email, role, token, accepted, expires_at, created_at
		FROM invitations WHERE token = $1`, token).
		Scan(&inv.ID, &inv.OrganizationID, &inv.Email, &inv.Role, &inv.Token,
			&inv.Accepted, &inv.ExpiresAt, &inv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("invitation by token: %w", err)
	}
	if inv.Accepted {
		return nil, ErrAccepted
	}
	if !now.Before(inv.ExpiresAt) {
		return nil, ErrExpired
	}
	return inv, nil
}

// Accept redeems the invitation in one transaction: the invitation flips to
// accepted, the member account and profile are created, the current year's
// leave balances are seeded from the org's catalog, and the audit entry is
// written.
func (s *Store) Accept(ctx context.Context, token, name, passwordHash string, now time.Time) (*AcceptResult, error) {
	inv, err := s.ByToken(ctx, token, now)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin accept tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE invitations SET accepted = TRUE
		WHERE id = $1 AND NOT accepted`, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("mark accepted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAccepted
	}

	var userID string
	err = tx.QueryRow(ctx, `
		INSERT INTO users (organization_id, email, name, password_hash, role, is_verified)
		VALUES ($1, lower($2), $3, $4, $5, TRUE)
		RETURNING id`, inv.OrganizationID, inv.Email, name, passwordHash, inv.Role).
		Scan(&userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	var n int64
	err = tx.QueryRow(ctx, `
		INSERT INTO counters (organization_id, name, value)
		VALUES ($1, 'employee', 1)
		ON CONFLICT (organization_id, name)
		DO UPDATE SET value = counters.value + 1
		RETURNING value`, inv.OrganizationID).Scan(&n)
	if err != nil {
		return nil, fmt.Errorf("next employee number: %w", err)
	}
	empNo := fmt.Sprintf("EMP-%06d", n)

	_, err = tx.Exec(ctx, `
		INSERT INTO employee_profiles (user_id, organization_id, employee_number, full_name, email)
		VALUES ($1, $2, $3, $4, lower($5))`,
		userID, inv.OrganizationID, empNo, name, inv.Email)
	if err != nil {
		return nil, fmt.Errorf("insert employee profile: %w", err)
	}

	if err := org.SeedBalancesForUser(ctx, tx, inv.OrganizationID, userID, now.Year()); err != nil {
		return nil, err
	}

	// The audit row rides the same transaction: an accepted invitation
	// without its trail entry never becomes visible.
	err = s.audit.RecordIn(ctx, tx, inv.OrganizationID, &userID, audit.ActionInviteAccepted,
		map[string]any{"email": inv.Email, "employeeNumber": empNo})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit accept tx: %w", err)
	}
	return &AcceptResult{
		UserID:         userID,
		OrganizationID: inv.OrganizationID,
		EmployeeNumber: empNo,
		Email:          inv.Email,
		Name:           name,
		Role:           inv.Role,
	}, nil
}

func (s *Store) List(ctx context.Context, orgID string, limit, offset int) ([]Invitation, int, error) {
	var total int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM invitations WHERE organization_id = $1`, orgID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count invitations: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, organization_id, email, role, token, accepted, expires_at, created_at
		FROM invitations
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, orgID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()

	var out []Invitation
	for rows.Next() {
		var inv Invitation
		if err := rows.Scan(&inv.ID, &inv.OrganizationID, &inv.Email, &inv.Role,
			&inv.Token, &inv.Accepted, &inv.ExpiresAt, &inv.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan invitation: %w", err)
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}

// ActiveCount reports how many invitations are still redeemable: not yet
// accepted and not past their expiry.
func (s *Store) ActiveCount(ctx context.Context, orgID string, now time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM invitations
		WHERE organization_id = $1 AND NOT accepted AND expires_at > $2`, orgID, now).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active invitations: %w", err)
	}
	return n, nil
}

func (s *Store) Revoke(ctx context.Context, orgID, id string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM invitations
		WHERE organization_id = $1 AND id = $2 AND NOT accepted`, orgID, id)
	if err != nil {
		return fmt.Errorf("revoke invitation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ValidRole guards the role an invite may carry; org-owner stays unique.
func ValidRole(role string) bool {
	return role == identity.RoleAdmin || role == identity.RoleEmployee
}
