package employee

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrops/internal/platform/crypto"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	pool   *pgxpool.Pool
	crypto *crypto.Service
}

func NewStore(pool *pgxpool.Pool, cryptoSvc *crypto.Service) *Store {
	return &Store{pool: pool, crypto: cryptoSvc}
}

const profileColumns = `
	id, user_id, organization_id, employee_number, full_name, date_of_birth,
	address, phone, email, pan_enc, aadhaar_enc, date_of_joining, department,
	position, emergency_contact, completion_percent, completed_sections,
	profile_completed, created_at, updated_at`

func (s *Store) scanProfile(row pgx.Row) (*Profile, error) {
	p := &Profile{}
	var panEnc, aadhaarEnc, sections []byte
	err := row.Scan(
		&p.ID, &p.UserID, &p.OrganizationID, &p.EmployeeNumber, &p.FullName,
		&p.DateOfBirth, &p.Address, &p.Phone, &p.Email, &panEnc, &aadhaarEnc,
		&p.DateOfJoining, &p.Department, &p.Position, &p.EmergencyContact,
		&p.CompletionPercent, &sections, &p.ProfileCompleted, &p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	if err := json.Unmarshal(sections, &p.CompletedSections); err != nil {
		return nil, fmt.Errorf("decode completed sections: %w", err)
	}
	if len(panEnc) > 0 {
		if p.PAN, err = s.crypto.DecryptString(panEnc); err != nil {
			return nil, fmt.Errorf("decrypt pan: %w", err)
		}
	}
	if len(aadhaarEnc) > 0 {
		if p.Aadhaar, err = s.crypto.DecryptString(aadhaarEnc); err != nil {
			return nil, fmt.Errorf("decrypt aadhaar: %w", err)
		}
	}
	return p, nil
}

func (s *Store) ByUserID(ctx context.Context, orgID, userID string) (*Profile, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+profileColumns+` FROM employee_profiles
		WHERE organization_id = $1 AND user_id = $2`, orgID, userID)
	return s.scanProfile(row)
}

func (s *Store) ByID(ctx context.Context, orgID, id string) (*Profile, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+profileColumns+` FROM employee_profiles
		WHERE organization_id = $1 AND id = $2`, orgID, id)
	return s.scanProfile(row)
}

// Update writes the editable profile fields, encrypting identity documents
// before they touch the database, and recomputes section completion from the
// resulting state.
func (s *Store) Update(ctx context.Context, orgID, userID string, in UpdateInput) (*Profile, error) {
	current, err := s.ByUserID(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}

	var panEnc, aadhaarEnc []byte
	if in.PAN != "" {
		if panEnc, err = s.crypto.EncryptString(in.PAN); err != nil {
			return nil, fmt.Errorf("encrypt pan: %w", err)
		}
	}
	if in.Aadhaar != "" {
		if aadhaarEnc, err = s.crypto.EncryptString(in.Aadhaar); err != nil {
			return nil, fmt.Errorf("encrypt aadhaar: %w", err)
		}
	}

	// Documents are write-only from the client's side: a blank field keeps
	// whatever is already on file.
	// Employee number and email are not client-editable but count toward
	// completion, so they come from the stored row.
	next := &Profile{
		EmployeeNumber: current.EmployeeNumber,
		Email:          current.Email,
		FullName:       in.FullName,
		DateOfBirth:    in.DateOfBirth,
		Address:        in.Address,
		Phone:          in.Phone,
		PAN:            in.PAN,
		Aadhaar:        in.Aadhaar,
		DateOfJoining:  in.DateOfJoining,
		Department:     in.Department,
		Position:       in.Position,
	}
	if next.PAN == "" {
		next.PAN = current.PAN
	}
	if next.Aadhaar == "" {
		next.Aadhaar = current.Aadhaar
	}
	pct, sections := Completion(next)
	sectionsJSON, err := json.Marshal(sections)
	if err != nil {
		return nil, fmt.Errorf("encode completed sections: %w", err)
	}
	if sections == nil {
		sectionsJSON = []byte("[]")
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE employee_profiles
		SET full_name = $3, date_of_birth = $4, address = $5, phone = $6,
		    email = $7, pan_enc = COALESCE($8, pan_enc),
		    aadhaar_enc = COALESCE($9, aadhaar_enc), date_of_joining = $10,
		    department = $11, position = $12, emergency_contact = $13,
		    completion_percent = $14, completed_sections = $15,
		    profile_completed = $16, updated_at = now()
		WHERE organization_id = $1 AND user_id = $2`,
		orgID, userID, in.FullName, in.DateOfBirth, in.Address, in.Phone,
		in.Email, panEnc, aadhaarEnc, in.DateOfJoining, in.Department,
		in.Position, in.EmergencyContact, pct, sectionsJSON, pct == 100)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.ByUserID(ctx, orgID, userID)
}

// List returns the org directory, optionally filtered by a case-insensitive
// name/email/number search.
func (s *Store) List(ctx context.Context, orgID, search string, limit, offset int) ([]ListItem, int, error) {
	where := `p.organization_id = $1`
	args := []any{orgID}
	if search != "" {
		where += ` AND (p.full_name ILIKE $2 OR u.email ILIKE $2 OR p.employee_number ILIKE $2)`
		args = append(args, "%"+search+"%")
	}

	var total int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM employee_profiles p
		JOIN users u ON u.id = p.user_id
		WHERE `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT p.id, p.user_id, p.employee_number, p.full_name, u.email,
		       u.role, p.department, p.position, u.is_active
		FROM employee_profiles p
		JOIN users u ON u.id = p.user_id
		WHERE %s
		ORDER BY p.employee_number
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var out []ListItem
	for rows.Next() {
		var it ListItem
		if err := rows.Scan(&it.ID, &it.UserID, &it.EmployeeNumber, &it.FullName,
			&it.Email, &it.Role, &it.Department, &it.Position, &it.IsActive); err != nil {
			return nil, 0, fmt.Errorf("scan employee: %w", err)
		}
		out = append(out, it)
	}
	return out, total, rows.Err()
}

// SetActive toggles a member's account. Deactivation is the offboarding path;
// historical rows are kept.
func (s *Store) SetActive(ctx context.Context, orgID, userID string, active bool) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET is_active = $3, updated_at = now()
		WHERE organization_id = $1 AND id = $2`, orgID, userID, active)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetRole(ctx context.Context, orgID, userID, role string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET role = $3, updated_at = now()
		WHERE organization_id = $1 AND id = $2`, orgID, userID, role)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
