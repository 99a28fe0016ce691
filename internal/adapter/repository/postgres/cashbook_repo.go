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

const cashBookColumns = `id, seq, date, description, category, direction, amount, balance_after, reference_type, reference_id, created_at`

// CashBookRepository implements usecase.CashBookRepository.
type CashBookRepository struct {
	db DB
}

// NewCashBookRepository creates a new CashBookRepository.
func NewCashBookRepository(db DB) *CashBookRepository {
	return &CashBookRepository{db: db}
}

// Create inserts an entry and assigns its Seq from the table sequence.
func (r *CashBookRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.CashBookEntry) error {
	query := `
		INSERT INTO cash_book_entries (id, date, description, category, direction, amount, balance_after, reference_type, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING seq
	`

	return conn(r.db, tx).QueryRow(ctx, query,
		entry.ID,
		timeToPgTimestamptz(entry.Date),
		entry.Description,
		entry.Category,
		string(entry.Direction),
		decimalToNumeric(entry.Amount),
		decimalToNumeric(entry.BalanceAfter),
		string(entry.ReferenceType),
		optionalText(entry.ReferenceID),
		timeToPgTimestamptz(entry.CreatedAt),
	).Scan(&entry.Seq)
}

// GetByID retrieves an entry by ID.
func (r *CashBookRepository) GetByID(ctx context.Context, id string) (*domain.CashBookEntry, error) {
	query := `SELECT ` + cashBookColumns + ` FROM cash_book_entries WHERE id = $1`
	return scanCashBookEntry(r.db.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves an entry by ID with a FOR UPDATE lock.
func (r *CashBookRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.CashBookEntry, error) {
	query := `SELECT ` + cashBookColumns + ` FROM cash_book_entries WHERE id = $1 FOR UPDATE`
	return scanCashBookEntry(conn(r.db, tx).QueryRow(ctx, query, id))
}

// GetLatest returns the entry with the highest Seq.
func (r *CashBookRepository) GetLatest(ctx context.Context, tx usecase.Transaction) (*domain.CashBookEntry, error) {
	query := `SELECT ` + cashBookColumns + ` FROM cash_book_entries ORDER BY seq DESC LIMIT 1`
	return scanCashBookEntry(conn(r.db, tx).QueryRow(ctx, query))
}

// GetLatestAsOf returns the highest-Seq entry dated at or before at.
func (r *CashBookRepository) GetLatestAsOf(ctx context.Context, at time.Time) (*domain.CashBookEntry, error) {
	query := `SELECT ` + cashBookColumns + ` FROM cash_book_entries WHERE date <= $1 ORDER BY seq DESC LIMIT 1`
	return scanCashBookEntry(r.db.QueryRow(ctx, query, timeToPgTimestamptz(at)))
}

// Update rewrites the mutable fields of an entry.
func (r *CashBookRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.CashBookEntry) error {
	query := `
		UPDATE cash_book_entries
		SET date = $2, description = $3, category = $4, direction = $5, amount = $6, balance_after = $7
		WHERE id = $1
	`

	tag, err := conn(r.db, tx).Exec(ctx, query,
		entry.ID,
		timeToPgTimestamptz(entry.Date),
		entry.Description,
		entry.Category,
		string(entry.Direction),
		decimalToNumeric(entry.Amount),
		decimalToNumeric(entry.BalanceAfter),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCashBookEntryNotFound
	}

	return nil
}

// Delete removes an entry.
func (r *CashBookRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	tag, err := conn(r.db, tx).Exec(ctx, `DELETE FROM cash_book_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCashBookEntryNotFound
	}

	return nil
}

// ListByPeriod returns entries dated within [from, to].
func (r *CashBookRepository) ListByPeriod(ctx context.Context, from, to time.Time) ([]*domain.CashBookEntry, error) {
	query := `SELECT ` + cashBookColumns + ` FROM cash_book_entries WHERE date BETWEEN $1 AND $2 ORDER BY date, seq`
	return r.list(ctx, query, timeToPgTimestamptz(from), timeToPgTimestamptz(to))
}

// ListAll returns every entry.
func (r *CashBookRepository) ListAll(ctx context.Context) ([]*domain.CashBookEntry, error) {
	return r.list(ctx, `SELECT `+cashBookColumns+` FROM cash_book_entries ORDER BY date, seq`)
}

func (r *CashBookRepository) list(ctx context.Context, query string, args ...any) ([]*domain.CashBookEntry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.CashBookEntry
	for rows.Next() {
		entry, err := scanCashBookEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func scanCashBookEntry(row pgx.Row) (*domain.CashBookEntry, error) {
	var (
		e             domain.CashBookEntry
		direction     string
		referenceType string
		amount        pgtype.Numeric
		balanceAfter  pgtype.Numeric
		referenceID   pgtype.Text
	)

	err := row.Scan(
		&e.ID, &e.Seq, &e.Date, &e.Description, &e.Category, &direction,
		&amount, &balanceAfter, &referenceType, &referenceID, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCashBookEntryNotFound
		}
		return nil, err
	}

	e.Direction = domain.Direction(direction)
	e.ReferenceType = domain.ReferenceType(referenceType)
	e.Amount = numericToDecimal(amount)
	e.BalanceAfter = numericToDecimal(balanceAfter)
	e.ReferenceID = textPtr(referenceID)

	return &e, nil
}
