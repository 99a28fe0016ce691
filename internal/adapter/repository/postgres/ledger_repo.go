package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

const ledgerColumns = `id, transaction_id, source, transaction_type, description, category, amount, date, created_at, updated_at`

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	db DB
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Create inserts a journal entry.
func (r *LedgerRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (id, transaction_id, source, transaction_type, description, category, amount, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := conn(r.db, tx).Exec(ctx, query,
		entry.ID,
		entry.TransactionID,
		string(entry.Source),
		entry.TransactionType,
		entry.Description,
		entry.Category,
		decimalToNumeric(entry.Amount),
		timeToPgTimestamptz(entry.Date),
		timeToPgTimestamptz(entry.CreatedAt),
		timeToPgTimestamptz(entry.UpdatedAt),
	)

	return err
}

// GetByTransactionIDForUpdate returns the journal entry mirroring a source transaction.
func (r *LedgerRepository) GetByTransactionIDForUpdate(ctx context.Context, tx usecase.Transaction, transactionID string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE transaction_id = $1 FOR UPDATE`
	return scanLedgerEntry(conn(r.db, tx).QueryRow(ctx, query, transactionID))
}

// Update rewrites a journal entry.
func (r *LedgerRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	query := `
		UPDATE ledger_entries
		SET transaction_type = $2, description = $3, category = $4, amount = $5, date = $6, updated_at = $7
		WHERE id = $1
	`

	tag, err := conn(r.db, tx).Exec(ctx, query,
		entry.ID,
		entry.TransactionType,
		entry.Description,
		entry.Category,
		decimalToNumeric(entry.Amount),
		timeToPgTimestamptz(entry.Date),
		timeToPgTimestamptz(entry.UpdatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLedgerEntryNotFound
	}

	return nil
}

// Delete removes a journal entry.
func (r *LedgerRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	tag, err := conn(r.db, tx).Exec(ctx, `DELETE FROM ledger_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLedgerEntryNotFound
	}

	return nil
}

// ListByPeriod returns journal entries dated within [from, to].
func (r *LedgerRepository) ListByPeriod(ctx context.Context, from, to time.Time) ([]*domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE date BETWEEN $1 AND $2 ORDER BY date, id`
	return r.list(ctx, query, timeToPgTimestamptz(from), timeToPgTimestamptz(to))
}

// ListAll returns the whole journal.
func (r *LedgerRepository) ListAll(ctx context.Context) ([]*domain.LedgerEntry, error) {
	return r.list(ctx, `SELECT `+ledgerColumns+` FROM ledger_entries ORDER BY date, id`)
}

func (r *LedgerRepository) list(ctx context.Context, query string, args ...any) ([]*domain.LedgerEntry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func scanLedgerEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var (
		e      domain.LedgerEntry
		source string
		amount pgtype.Numeric
	)

	err := row.Scan(
		&e.ID, &e.TransactionID, &source, &e.TransactionType, &e.Description,
		&e.Category, &amount, &e.Date, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLedgerEntryNotFound
		}
		return nil, err
	}

	e.Source = domain.LedgerSource(source)
	e.Amount = numericToDecimal(amount)

	return &e, nil
}
