package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

const salaryColumns = `id, employee_id, employee_name, month, basic_salary, overtime_hours, overtime_rate, total_overtime,
	epf, etf, net_salary, status, payment_date, cash_book_entry_id, created_at, updated_at`

// SalaryRepository implements usecase.SalaryRepository.
type SalaryRepository struct {
	db DB
}

// NewSalaryRepository creates a new SalaryRepository.
func NewSalaryRepository(db DB) *SalaryRepository {
	return &SalaryRepository{db: db}
}

// CreateIfAbsent inserts the record unless the employee already has one for the month.
func (r *SalaryRepository) CreateIfAbsent(ctx context.Context, tx usecase.Transaction, record *domain.SalaryRecord) (bool, error) {
	query := `
		INSERT INTO salary_records (id, employee_id, employee_name, month, basic_salary, overtime_hours, overtime_rate,
			total_overtime, epf, etf, net_salary, status, payment_date, cash_book_entry_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (employee_id, month) DO NOTHING
	`

	tag, err := conn(r.db, tx).Exec(ctx, query,
		record.ID,
		record.EmployeeID,
		record.EmployeeName,
		record.Month,
		decimalToNumeric(record.BasicSalary),
		decimalToNumeric(record.OvertimeHours),
		decimalToNumeric(record.OvertimeRate),
		decimalToNumeric(record.TotalOvertime),
		decimalToNumeric(record.EPF),
		decimalToNumeric(record.ETF),
		decimalToNumeric(record.NetSalary),
		string(record.Status),
		optionalTimestamptz(record.PaymentDate),
		optionalText(record.CashBookEntryID),
		timeToPgTimestamptz(record.CreatedAt),
		timeToPgTimestamptz(record.UpdatedAt),
	)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// GetByID retrieves a record by ID.
func (r *SalaryRepository) GetByID(ctx context.Context, id string) (*domain.SalaryRecord, error) {
	query := `SELECT ` + salaryColumns + ` FROM salary_records WHERE id = $1`
	return scanSalaryRecord(r.db.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves a record by ID with a FOR UPDATE lock.
func (r *SalaryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.SalaryRecord, error) {
	query := `SELECT ` + salaryColumns + ` FROM salary_records WHERE id = $1 FOR UPDATE`
	return scanSalaryRecord(conn(r.db, tx).QueryRow(ctx, query, id))
}

// Update writes the payment state of a record.
func (r *SalaryRepository) Update(ctx context.Context, tx usecase.Transaction, record *domain.SalaryRecord) error {
	query := `
		UPDATE salary_records
		SET status = $2, payment_date = $3, cash_book_entry_id = $4, updated_at = $5
		WHERE id = $1
	`

	tag, err := conn(r.db, tx).Exec(ctx, query,
		record.ID,
		string(record.Status),
		optionalTimestamptz(record.PaymentDate),
		optionalText(record.CashBookEntryID),
		timeToPgTimestamptz(record.UpdatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSalaryNotFound
	}

	return nil
}

// ListByMonth returns the records of a month ordered by employee.
func (r *SalaryRepository) ListByMonth(ctx context.Context, month string) ([]*domain.SalaryRecord, error) {
	return r.list(ctx, `SELECT `+salaryColumns+` FROM salary_records WHERE month = $1 ORDER BY employee_id`, month)
}

// ListUpToMonth returns records whose month is at or before month.
// YYYY-MM sorts lexically in calendar order.
func (r *SalaryRepository) ListUpToMonth(ctx context.Context, month string) ([]*domain.SalaryRecord, error) {
	return r.list(ctx, `SELECT `+salaryColumns+` FROM salary_records WHERE month <= $1 ORDER BY month, employee_id`, month)
}

func (r *SalaryRepository) list(ctx context.Context, query string, args ...any) ([]*domain.SalaryRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.SalaryRecord
	for rows.Next() {
		record, err := scanSalaryRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func scanSalaryRecord(row pgx.Row) (*domain.SalaryRecord, error) {
	var (
		s                            domain.SalaryRecord
		status                       string
		basic, hours, rate, overtime pgtype.Numeric
		epf, etf, net                pgtype.Numeric
		paymentDate                  pgtype.Timestamptz
		cashBookID                   pgtype.Text
	)

	err := row.Scan(
		&s.ID, &s.EmployeeID, &s.EmployeeName, &s.Month, &basic, &hours, &rate, &overtime,
		&epf, &etf, &net, &status, &paymentDate, &cashBookID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSalaryNotFound
		}
		return nil, err
	}

	s.Status = domain.SalaryStatus(status)
	s.BasicSalary = numericToDecimal(basic)
	s.OvertimeHours = numericToDecimal(hours)
	s.OvertimeRate = numericToDecimal(rate)
	s.TotalOvertime = numericToDecimal(overtime)
	s.EPF = numericToDecimal(epf)
	s.ETF = numericToDecimal(etf)
	s.NetSalary = numericToDecimal(net)
	s.PaymentDate = timestamptzPtr(paymentDate)
	s.CashBookEntryID = textPtr(cashBookID)

	return &s, nil
}
