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

const pettyCashColumns = `id, date, description, category, kind, amount, cash_book_entry_id, created_at, updated_at`

// PettyCashRepository implements usecase.PettyCashRepository.
type PettyCashRepository struct {
	db DB
}

// NewPettyCashRepository creates a new PettyCashRepository.
func NewPettyCashRepository(db DB) *PettyCashRepository {
	return &PettyCashRepository{db: db}
}

// Create inserts a petty cash entry.
func (r *PettyCashRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.PettyCashEntry) error {
	query := `
		INSERT INTO petty_cash_entries (id, date, description, category, kind, amount, cash_book_entry_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := conn(r.db, tx).Exec(ctx, query,
		entry.ID,
		timeToPgTimestamptz(entry.Date),
		entry.Description,
		entry.Category,
		string(entry.Kind),
		decimalToNumeric(entry.Amount),
		optionalText(entry.CashBookEntryID),
		timeToPgTimestamptz(entry.CreatedAt),
		timeToPgTimestamptz(entry.UpdatedAt),
	)

	return err
}

// GetByID retrieves an entry by ID.
func (r *PettyCashRepository) GetByID(ctx context.Context, id string) (*domain.PettyCashEntry, error) {
	query := `SELECT ` + pettyCashColumns + ` FROM petty_cash_entries WHERE id = $1`
	return scanPettyCashEntry(r.db.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves an entry by ID with a FOR UPDATE lock.
func (r *PettyCashRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.PettyCashEntry, error) {
	query := `SELECT ` + pettyCashColumns + ` FROM petty_cash_entries WHERE id = $1 FOR UPDATE`
	return scanPettyCashEntry(conn(r.db, tx).QueryRow(ctx, query, id))
}

// Update rewrites an entry. The kind never changes.
func (r *PettyCashRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.PettyCashEntry) error {
	query := `
		UPDATE petty_cash_entries
		SET date = $2, description = $3, category = $4, amount = $5, cash_book_entry_id = $6, updated_at = $7
		WHERE id = $1
	`

	tag, err := conn(r.db, tx).Exec(ctx, query,
		entry.ID,
		timeToPgTimestamptz(entry.Date),
		entry.Description,
		entry.Category,
		decimalToNumeric(entry.Amount),
		optionalText(entry.CashBookEntryID),
		timeToPgTimestamptz(entry.UpdatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPettyCashEntryNotFound
	}

	return nil
}

// Delete removes an entry.
func (r *PettyCashRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	tag, err := conn(r.db, tx).Exec(ctx, `DELETE FROM petty_cash_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPettyCashEntryNotFound
	}

	return nil
}

// ListByPeriod returns entries dated within [from, to] ordered by date.
func (r *PettyCashRepository) ListByPeriod(ctx context.Context, from, to time.Time) ([]*domain.PettyCashEntry, error) {
	query := `SELECT ` + pettyCashColumns + ` FROM petty_cash_entries WHERE date BETWEEN $1 AND $2 ORDER BY date, created_at, id`

	rows, err := r.db.Query(ctx, query, timeToPgTimestamptz(from), timeToPgTimestamptz(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.PettyCashEntry
	for rows.Next() {
		entry, err := scanPettyCashEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Totals aggregates every committed entry.
func (r *PettyCashRepository) Totals(ctx context.Context) (domain.PettyCashTotals, error) {
	return r.totals(ctx, r.db, `SELECT kind, SUM(amount), COUNT(*) FROM petty_cash_entries GROUP BY kind`)
}

// TotalsTx aggregates the entries visible to tx, including its own writes.
func (r *PettyCashRepository) TotalsTx(ctx context.Context, tx usecase.Transaction) (domain.PettyCashTotals, error) {
	return r.totals(ctx, conn(r.db, tx), `SELECT kind, SUM(amount), COUNT(*) FROM petty_cash_entries GROUP BY kind`)
}

// TotalsAsOf aggregates entries dated at or before at.
func (r *PettyCashRepository) TotalsAsOf(ctx context.Context, at time.Time) (domain.PettyCashTotals, error) {
	query := `SELECT kind, SUM(amount), COUNT(*) FROM petty_cash_entries WHERE date <= $1 GROUP BY kind`
	return r.totals(ctx, r.db, query, timeToPgTimestamptz(at))
}

func (r *PettyCashRepository) totals(ctx context.Context, db DB, query string, args ...any) (domain.PettyCashTotals, error) {
	var totals domain.PettyCashTotals

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return totals, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			kind  string
			sum   pgtype.Numeric
			count int64
		)
		if err := rows.Scan(&kind, &sum, &count); err != nil {
			return totals, err
		}

		amount := numericToDecimal(sum)
		switch domain.PettyCashKind(kind) {
		case domain.PettyCashInitial:
			totals.Initial = amount
			totals.HasInitial = count > 0
		case domain.PettyCashExpense:
			totals.Expenses = amount
		case domain.PettyCashReimbursement:
			totals.Reimbursements = amount
		}
		totals.Count += int(count)
	}

	return totals, rows.Err()
}

func scanPettyCashEntry(row pgx.Row) (*domain.PettyCashEntry, error) {
	var (
		e          domain.PettyCashEntry
		kind       string
		amount     pgtype.Numeric
		cashBookID pgtype.Text
	)

	err := row.Scan(&e.ID, &e.Date, &e.Description, &e.Category, &kind, &amount, &cashBookID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPettyCashEntryNotFound
		}
		return nil, err
	}

	e.Kind = domain.PettyCashKind(kind)
	e.Amount = numericToDecimal(amount)
	e.CashBookEntryID = textPtr(cashBookID)

	return &e, nil
}
