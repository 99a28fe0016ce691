package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

const balanceColumns = `domain, balance, initial_amount, version, allow_negative, created_at, last_updated`

// BalanceRepository implements usecase.BalanceRepository.
type BalanceRepository struct {
	db DB
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(db DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// Get retrieves the committed record of a domain.
func (r *BalanceRepository) Get(ctx context.Context, d domain.BalanceDomain) (*domain.BalanceRecord, error) {
	query := `SELECT ` + balanceColumns + ` FROM balances WHERE domain = $1`
	return scanBalance(r.db.QueryRow(ctx, query, string(d)))
}

// GetForUpdate retrieves the record of a domain with a FOR UPDATE lock.
func (r *BalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, d domain.BalanceDomain) (*domain.BalanceRecord, error) {
	query := `SELECT ` + balanceColumns + ` FROM balances WHERE domain = $1 FOR UPDATE`
	return scanBalance(conn(r.db, tx).QueryRow(ctx, query, string(d)))
}

// Create inserts a record. A concurrent first posting loses with a unique violation
// on balances_pkey, which the retrier treats as transient.
func (r *BalanceRepository) Create(ctx context.Context, tx usecase.Transaction, record *domain.BalanceRecord) error {
	query := `
		INSERT INTO balances (domain, balance, initial_amount, version, allow_negative, created_at, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := conn(r.db, tx).Exec(ctx, query,
		string(record.Domain),
		decimalToNumeric(record.Balance),
		decimalToNumeric(record.InitialAmount),
		record.Version,
		record.AllowNegative,
		timeToPgTimestamptz(record.CreatedAt),
		timeToPgTimestamptz(record.LastUpdated),
	)

	return err
}

// Update writes balance, opening amount and version.
func (r *BalanceRepository) Update(ctx context.Context, tx usecase.Transaction, record *domain.BalanceRecord) error {
	query := `
		UPDATE balances
		SET balance = $2, initial_amount = $3, version = $4, last_updated = $5
		WHERE domain = $1
	`

	tag, err := conn(r.db, tx).Exec(ctx, query,
		string(record.Domain),
		decimalToNumeric(record.Balance),
		decimalToNumeric(record.InitialAmount),
		record.Version,
		timeToPgTimestamptz(record.LastUpdated),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBalanceNotFound
	}

	return nil
}

// List returns every balance record.
func (r *BalanceRepository) List(ctx context.Context) ([]*domain.BalanceRecord, error) {
	rows, err := r.db.Query(ctx, `SELECT `+balanceColumns+` FROM balances ORDER BY domain`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*domain.BalanceRecord, 0, 2)
	for rows.Next() {
		rec, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func scanBalance(row pgx.Row) (*domain.BalanceRecord, error) {
	var (
		rec           domain.BalanceRecord
		name          string
		balance       pgtype.Numeric
		initialAmount pgtype.Numeric
	)

	err := row.Scan(&name, &balance, &initialAmount, &rec.Version, &rec.AllowNegative, &rec.CreatedAt, &rec.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBalanceNotFound
		}
		return nil, err
	}

	rec.Domain = domain.BalanceDomain(name)
	rec.Balance = numericToDecimal(balance)
	rec.InitialAmount = numericToDecimal(initialAmount)

	return &rec, nil
}
