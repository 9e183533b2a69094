package payroll

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
	ErrNotFound        = errors.New("not found")
	ErrNoStructure     = errors.New("no active salary structure")
	ErrDuplicatePeriod = errors.New("payroll already exists for this period")
	ErrPaidImmutable   = errors.New("paid payroll cannot be deleted")
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// UpsertStructure saves an employee's salary structure, deriving the
// component split from gross. One active structure per user.
func (s *Store) UpsertStructure(ctx context.Context, orgID, userID string, gross float64, bankName, accountNumber, ifsc string, effectiveFrom time.Time) (*SalaryStructure, error) {
	var employeeID string
	err := s.pool.QueryRow(ctx, `
		SELECT id FROM employee_profiles
		WHERE organization_id = $1 AND user_id = $2`, orgID, userID).Scan(&employeeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("employee lookup: %w", err)
	}

	basic, hra, other := Breakdown(gross)
	st := &SalaryStructure{}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO salary_structures (organization_id, user_id, employee_id,
			gross_salary, basic_salary, hra, other_allowances, bank_name,
			account_number, ifsc_code, effective_from)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id) DO UPDATE SET
			gross_salary = EXCLUDED.gross_salary,
			basic_salary = EXCLUDED.basic_salary,
			hra = EXCLUDED.hra,
			other_allowances = EXCLUDED.other_allowances,
			bank_name = EXCLUDED.bank_name,
			account_number = EXCLUDED.account_number,
			ifsc_code = EXCLUDED.ifsc_code,
			effective_from = EXCLUDED.effective_from,
			is_active = TRUE,
			updated_at = now()
		RETURNING id, organization_id, user_id, employee_id, gross_salary,
			basic_salary, hra, other_allowances, bank_name, account_number,
			ifsc_code, effective_from, is_active`,
		orgID, userID, employeeID, gross, basic, hra, other, bankName,
		accountNumber, ifsc, effectiveFrom).
		Scan(&st.ID, &st.OrganizationID, &st.UserID, &st.EmployeeID,
			&st.GrossSalary, &st.BasicSalary, &st.HRA, &st.OtherAllowances,
			&st.BankName, &st.AccountNumber, &st.IFSCCode, &st.EffectiveFrom,
			&st.IsActive)
	if err != nil {
		return nil, fmt.Errorf("upsert salary structure: %w", err)
	}
	return st, nil
}

func (s *Store) StructureByUser(ctx context.Context, orgID, userID string) (*SalaryStructure, error) {
	st := &SalaryStructure{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, organization_id, user_id, employee_id, gross_salary,
		       basic_salary, hra, other_allowances, bank_name, account_number,
		       ifsc_code, effective_from, is_active
		FROM salary_structures
		WHERE organization_id = $1 AND user_id = $2 AND is_active`, orgID, userID).
		Scan(&st.ID, &st.OrganizationID, &st.UserID, &st.EmployeeID,
			&st.GrossSalary, &st.BasicSalary, &st.HRA, &st.OtherAllowances,
			&st.BankName, &st.AccountNumber, &st.IFSCCode, &st.EffectiveFrom,
			&st.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoStructure
	}
	if err != nil {
		return nil, fmt.Errorf("salary structure lookup: %w", err)
	}
	return st, nil
}

const payrollColumns = `
	p.id, p.organization_id, p.user_id, p.employee_id, ep.full_name,
	ep.employee_number, p.gross_salary, p.basic_salary, p.hra,
	p.other_allowances, p.reimbursement, p.incentives, p.arrears,
	p.tds_deduction, p.other_deductions, p.lop_days, p.total_earnings,
	p.total_deductions, p.net_salary, p.month, p.year, p.status, p.paid_on,
	p.payment_method, p.transaction_id, p.created_at, p.updated_at`

const payrollFrom = ` FROM payrolls p JOIN employee_profiles ep ON ep.id = p.employee_id`

func scanPayroll(row pgx.Row) (*Payroll, error) {
	p := &Payroll{}
	err := row.Scan(&p.ID, &p.OrganizationID, &p.UserID, &p.EmployeeID,
		&p.EmployeeName, &p.EmployeeNumber, &p.GrossSalary, &p.BasicSalary,
		&p.HRA, &p.OtherAllowances, &p.Reimbursement, &p.Incentives, &p.Arrears,
		&p.TDSDeduction, &p.OtherDeductions, &p.LOPDays, &p.TotalEarnings,
		&p.TotalDeductions, &p.NetSalary, &p.Month, &p.Year, &p.Status,
		&p.PaidOn, &p.PaymentMethod, &p.TransactionID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan payroll: %w", err)
	}
	return p, nil
}

// Generate materializes one month's payroll from the user's active salary
// structure plus the period's adjustments. The (employee, month, year)
// constraint makes regeneration a clean conflict instead of a duplicate.
func (s *Store) Generate(ctx context.Context, orgID string, in GenerateInput) (*Payroll, error) {
	st, err := s.StructureByUser(ctx, orgID, in.UserID)
	if err != nil {
		return nil, err
	}

	p := &Payroll{
		GrossSalary:     st.GrossSalary,
		BasicSalary:     st.BasicSalary,
		HRA:             st.HRA,
		OtherAllowances: st.OtherAllowances,
		Reimbursement:   in.Reimbursement,
		Incentives:      in.Incentives,
		Arrears:         in.Arrears,
		TDSDeduction:    in.TDSDeduction,
		OtherDeductions: in.OtherDeductions,
		LOPDays:         in.LOPDays,
	}
	earnings, deductions, net := Totals(p)

	var id string
	err = s.pool.QueryRow(ctx, `
		INSERT INTO payrolls (organization_id, user_id, employee_id,
			gross_salary, basic_salary, hra, other_allowances, reimbursement,
			incentives, arrears, tds_deduction, other_deductions, lop_days,
			total_earnings, total_deductions, net_salary, month, year)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18)
		RETURNING id`,
		orgID, in.UserID, st.EmployeeID, st.GrossSalary, st.BasicSalary, st.HRA,
		st.OtherAllowances, in.Reimbursement, in.Incentives, in.Arrears,
		in.TDSDeduction, in.OtherDeductions, in.LOPDays, earnings, deductions,
		net, in.Month, in.Year).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicatePeriod
		}
		return nil, fmt.Errorf("insert payroll: %w", err)
	}
	return s.ByID(ctx, orgID, id)
}

// GenerateBatch runs the month for every active salary structure in the
// organization. Employees who already have a payroll for the period are
// skipped and reported, not failed; the run is best effort per employee.
func (s *Store) GenerateBatch(ctx context.Context, orgID string, month, year int) (*BatchResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT s.user_id, s.employee_id, s.gross_salary, s.basic_salary, s.hra,
		       s.other_allowances, ep.employee_number
		FROM salary_structures s
		JOIN employee_profiles ep ON ep.id = s.employee_id
		JOIN users u ON u.id = s.user_id
		WHERE s.organization_id = $1 AND s.is_active AND u.is_active
		ORDER BY ep.employee_number`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list salary structures: %w", err)
	}
	type candidate struct {
		userID, employeeID, employeeNumber string
		gross, basic, hra, other           float64
	}
	var candidates []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.userID, &c.employeeID, &c.gross, &c.basic, &c.hra,
			&c.other, &c.employeeNumber); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan salary structure: %w", err)
		}
		candidates = append(candidates, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list salary structures: %w", err)
	}

	result := &BatchResult{Month: month, Year: year}
	for _, c := range candidates {
		p := &Payroll{
			GrossSalary:     c.gross,
			BasicSalary:     c.basic,
			HRA:             c.hra,
			OtherAllowances: c.other,
		}
		earnings, deductions, net := Totals(p)

		var id string
		err := s.pool.QueryRow(ctx, `
			INSERT INTO payrolls (organization_id, user_id, employee_id,
				gross_salary, basic_salary, hra, other_allowances,
				total_earnings, total_deductions, net_salary, month, year)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (employee_id, month, year) DO NOTHING
			RETURNING id`,
			orgID, c.userID, c.employeeID, c.gross, c.basic, c.hra, c.other,
			earnings, deductions, net, month, year).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			result.Skipped = append(result.Skipped, c.employeeNumber)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("insert payroll for %s: %w", c.employeeNumber, err)
		}
		created, err := s.ByID(ctx, orgID, id)
		if err != nil {
			return nil, err
		}
		result.Created = append(result.Created, *created)
	}
	return result, nil
}

// Update adjusts a payroll's line items and recomputes the derived totals.
// Paid records are immutable.
func (s *Store) Update(ctx context.Context, orgID, id string, in UpdateInput) (*Payroll, error) {
	p, err := s.ByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if p.Status == StatusPaid {
		return nil, ErrPaidImmutable
	}

	ApplyAdjustments(p, in)

	tag, err := s.pool.Exec(ctx, `
		UPDATE payrolls
		SET reimbursement = $3, incentives = $4, arrears = $5,
		    tds_deduction = $6, other_deductions = $7, lop_days = $8,
		    total_earnings = $9, total_deductions = $10, net_salary = $11,
		    updated_at = now()
		WHERE organization_id = $1 AND id = $2 AND status <> 'PAID'`,
		orgID, id, p.Reimbursement, p.Incentives, p.Arrears, p.TDSDeduction,
		p.OtherDeductions, p.LOPDays, p.TotalEarnings, p.TotalDeductions, p.NetSalary)
	if err != nil {
		return nil, fmt.Errorf("update payroll: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrPaidImmutable
	}
	return s.ByID(ctx, orgID, id)
}

// Delete removes a draft or processed payroll. Paid records are immutable.
func (s *Store) Delete(ctx context.Context, orgID, id string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM payrolls
		WHERE organization_id = $1 AND id = $2 AND status <> 'PAID'`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete payroll: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := s.ByID(ctx, orgID, id); err != nil {
		return err
	}
	return ErrPaidImmutable
}

func (s *Store) ByID(ctx context.Context, orgID, id string) (*Payroll, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+payrollColumns+payrollFrom+`
		WHERE p.organization_id = $1 AND p.id = $2`, orgID, id)
	return scanPayroll(row)
}

func (s *Store) ListForOrg(ctx context.Context, orgID string, month, year, limit, offset int) ([]Payroll, int, error) {
	var total int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM payrolls
		WHERE organization_id = $1 AND month = $2 AND year = $3`,
		orgID, month, year).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count payrolls: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+payrollColumns+payrollFrom+`
		WHERE p.organization_id = $1 AND p.month = $2 AND p.year = $3
		ORDER BY ep.employee_number
		LIMIT $4 OFFSET $5`, orgID, month, year, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list payrolls: %w", err)
	}
	defer rows.Close()
	out, err := collectPayrolls(rows)
	return out, total, err
}

func (s *Store) ListForUser(ctx context.Context, userID string, limit, offset int) ([]Payroll, int, error) {
	var total int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM payrolls WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count payrolls: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+payrollColumns+payrollFrom+`
		WHERE p.user_id = $1
		ORDER BY p.year DESC, p.month DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list payrolls: %w", err)
	}
	defer rows.Close()
	out, err := collectPayrolls(rows)
	return out, total, err
}

func collectPayrolls(rows pgx.Rows) ([]Payroll, error) {
	var out []Payroll
	for rows.Next() {
		var p Payroll
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.UserID, &p.EmployeeID,
			&p.EmployeeName, &p.EmployeeNumber, &p.GrossSalary, &p.BasicSalary,
			&p.HRA, &p.OtherAllowances, &p.Reimbursement, &p.Incentives,
			&p.Arrears, &p.TDSDeduction, &p.OtherDeductions, &p.LOPDays,
			&p.TotalEarnings, &p.TotalDeductions, &p.NetSalary, &p.Month,
			&p.Year, &p.Status, &p.PaidOn, &p.PaymentMethod, &p.TransactionID,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan payroll: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) MarkProcessed(ctx context.Context, orgID, id string) (*Payroll, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE payrolls SET status = 'PROCESSED', updated_at = now()
		WHERE organization_id = $1 AND id = $2 AND status = 'DRAFT'`, orgID, id)
	if err != nil {
		return nil, fmt.Errorf("mark processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.ByID(ctx, orgID, id)
}

func (s *Store) MarkPaid(ctx context.Context, orgID, id, method, transactionID string, paidOn time.Time) (*Payroll, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE payrolls
		SET status = 'PAID', paid_on = $3, payment_method = $4,
		    transaction_id = $5, updated_at = now()
		WHERE organization_id = $1 AND id = $2 AND status IN ('DRAFT', 'PROCESSED')`,
		orgID, id, paidOn, method, transactionID)
	if err != nil {
		return nil, fmt.Errorf("mark paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.ByID(ctx, orgID, id)
}
