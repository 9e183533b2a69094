package identity

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
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")
)

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// CreateSignup provisions a new organization with its first admin in a single
// transaction: organization, user, employee profile (with the org-scoped
// employee number) and the email-verification token all land or none do.
func (s *Store) CreateSignup(ctx context.Context, orgName, name, email, passwordHash, role, verificationCode string, now time.Time) (*SignupResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin signup tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var orgID string
	err = tx.QueryRow(ctx, `
		INSERT INTO organizations (name)
		VALUES ($1)
		RETURNING id`, orgName).Scan(&orgID)
	if err != nil {
		return nil, fmt.Errorf("insert organization: %w", err)
	}

	var userID string
	err = tx.QueryRow(ctx, `
		INSERT INTO users (organization_id, email, name, password_hash, role)
		VALUES ($1, lower($2), $3, $4, $5)
		RETURNING id`, orgID, email, name, passwordHash, role).Scan(&userID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	empNo, err := nextEmployeeNumber(ctx, tx, orgID)
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO employee_profiles (user_id, organization_id, employee_number)
		VALUES ($1, $2, $3)`, userID, orgID, empNo)
	if err != nil {
		return nil, fmt.Errorf("insert employee profile: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO tokens (user_id, token, token_type, expires_at)
		VALUES ($1, $2, $3, $4)`,
		userID, verificationCode, TokenEmailVerification, now.Add(VerificationCodeTTL))
	if err != nil {
		return nil, fmt.Errorf("insert verification token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit signup tx: %w", err)
	}
	return &SignupResult{
		UserID:           userID,
		OrganizationID:   orgID,
		EmployeeNumber:   empNo,
		VerificationCode: verificationCode,
	}, nil
}

func nextEmployeeNumber(ctx context.Context, tx pgx.Tx, orgID string) (string, error) {
	var n int64
	err := tx.QueryRow(ctx, `
		INSERT INTO counters (organization_id, name, value)
		VALUES ($1, 'employee', 1)
		ON CONFLICT (organization_id, name)
		DO UPDATE SET value = counters.value + 1
		RETURNING value`, orgID).Scan(&n)
	if err != nil {
		return "", fmt.Errorf("next employee number: %w", err)
	}
	return fmt.Sprintf("EMP-%06d", n), nil
}

func (s *Store) CredentialsByEmail(ctx context.Context, email string) (*Credentials, error) {
	c := &Credentials{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, organization_id, email, name, role, is_active, is_verified,
		       password_hash, mfa_enabled, COALESCE(mfa_secret_enc, ''::bytea)
		FROM users
		WHERE email = lower($1)`, email).
		Scan(&c.ID, &c.OrganizationID, &c.Email, &c.Name, &c.Role, &c.IsActive,
			&c.IsVerified, &c.PasswordHash, &c.MFAEnabled, &c.MFASecretEnc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("credentials by email: %w", err)
	}
	return c, nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*User, error) {
	u := &User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, organization_id, email, name, role, is_active, is_verified,
		       mfa_enabled, last_login_at, created_at
		FROM users
		WHERE id = $1`, id).
		Scan(&u.ID, &u.OrganizationID, &u.Email, &u.Name, &u.Role, &u.IsActive,
			&u.IsVerified, &u.MFAEnabled, &u.LastLoginAt, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user by id: %w", err)
	}
	return u, nil
}

// ConsumeToken marks a single-use token used and returns its owner. The
// guard runs inside the UPDATE so concurrent consumers cannot both win.
func (s *Store) ConsumeToken(ctx context.Context, token, tokenType string, now time.Time) (string, error) {
	var userID string
	err := s.pool.QueryRow(ctx, `
		UPDATE tokens
		SET is_used = TRUE
		WHERE token = $1 AND token_type = $2 AND NOT is_used AND expires_at > $3
		RETURNING user_id`, token, tokenType, now).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("consume token: %w", err)
	}
	return userID, nil
}

func (s *Store) CreateToken(ctx context.Context, userID, token, tokenType string, expiresAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tokens (user_id, token, token_type, expires_at)
		VALUES ($1, $2, $3, $4)`, userID, token, tokenType, expiresAt)
	if err != nil {
		return fmt.Errorf("create token: %w", err)
	}
	return nil
}

// RotateRefreshToken replaces all of the user's refresh tokens with a single
// fresh one, so a stolen older token stops working at next login.
func (s *Store) RotateRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rotate tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		DELETE FROM tokens
		WHERE user_id = $1 AND token_type = $2`, userID, TokenRefresh)
	if err != nil {
		return fmt.Errorf("purge refresh tokens: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO tokens (user_id, token, token_type, expires_at)
		VALUES ($1, $2, $3, $4)`, userID, token, TokenRefresh, expiresAt)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return tx.Commit(ctx)
}

// RefreshTokenOwner resolves a live refresh token without consuming it.
func (s *Store) RefreshTokenOwner(ctx context.Context, token string, now time.Time) (string, error) {
	var userID string
	err := s.pool.QueryRow(ctx, `
		SELECT user_id FROM tokens
		WHERE token = $1 AND token_type = $2 AND NOT is_used AND expires_at > $3`,
		token, TokenRefresh, now).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("refresh token owner: %w", err)
	}
	return userID, nil
}

func (s *Store) DeleteRefreshToken(ctx context.Context, token string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM tokens
		WHERE token = $1 AND token_type = $2`, token, TokenRefresh)
	if err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

func (s *Store) MarkVerified(ctx context.Context, userID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET is_verified = TRUE, updated_at = now()
		WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPassword updates the hash and revokes every refresh token, ending all
// other sessions.
func (s *Store) SetPassword(ctx context.Context, userID, passwordHash string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin password tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now()
		WHERE id = $1`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	_, err = tx.Exec(ctx, `
		DELETE FROM tokens
		WHERE user_id = $1 AND token_type = $2`, userID, TokenRefresh)
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return tx.Commit(ctx)
}

// RevokeAllRefreshTokens ends every session for the user except the access
// token already in flight, which expires on its own.
func (s *Store) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM tokens
		WHERE user_id = $1 AND token_type = $2`, userID, TokenRefresh)
	if err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}

func (s *Store) TouchLastLogin(ctx context.Context, userID string, now time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users SET last_login_at = $2 WHERE id = $1`, userID, now)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

func (s *Store) SetMFASecret(ctx context.Context, userID string, secretEnc []byte) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET mfa_secret_enc = $2, updated_at = now()
		WHERE id = $1`, userID, secretEnc)
	if err != nil {
		return fmt.Errorf("set mfa secret: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetMFAEnabled(ctx context.Context, userID string, enabled bool) error {
	q := `UPDATE users SET mfa_enabled = $2, updated_at = now() WHERE id = $1`
	if !enabled {
		q = `UPDATE users SET mfa_enabled = FALSE, mfa_secret_enc = NULL, updated_at = now() WHERE id = $1`
		tag, err := s.pool.Exec(ctx, q, userID)
		if err != nil {
			return fmt.Errorf("disable mfa: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	}
	tag, err := s.pool.Exec(ctx, q, userID, enabled)
	if err != nil {
		return fmt.Errorf("enable mfa: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) MFASecret(ctx context.Context, userID string) ([]byte, error) {
	var enc []byte
	err := s.pool.QueryRow(ctx, `
		SELECT mfa_secret_enc FROM users WHERE id = $1`, userID).Scan(&enc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mfa secret: %w", err)
	}
	return enc, nil
}
