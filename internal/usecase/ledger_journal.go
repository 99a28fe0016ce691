package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

// LedgerJournal keeps exactly one ledger entry per main-cash posting.
type LedgerJournal struct {
	uow        *UnitOfWork
	ledgerRepo LedgerRepository
}

// NewLedgerJournal creates a new LedgerJournal.
func NewLedgerJournal(uow *UnitOfWork, ledgerRepo LedgerRepository) *LedgerJournal {
	return &LedgerJournal{
		uow:        uow,
		ledgerRepo: ledgerRepo,
	}
}

// Post appends the mirror of a cash book posting.
func (j *LedgerJournal) Post(ctx context.Context, tx Transaction, source *domain.CashBookEntry, transactionType string) (*domain.LedgerEntry, error) {
	entry := domain.NewLedgerEntryFromCashBook(j.uow.NewID(), source, transactionType)
	if err := j.ledgerRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Correct replaces the signed amount of the entry linked to transactionID.
func (j *LedgerJournal) Correct(ctx context.Context, tx Transaction, transactionID string, newAmount decimal.Decimal) (*domain.LedgerEntry, error) {
	entry, err := j.ledgerRepo.GetByTransactionIDForUpdate(ctx, tx, transactionID)
	if err != nil {
		return nil, err
	}

	entry.Amount = newAmount
	entry.UpdatedAt = j.uow.Now()

	if err := j.ledgerRepo.Update(ctx, tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Relabel copies a new description and category onto the linked entry.
func (j *LedgerJournal) Relabel(ctx context.Context, tx Transaction, transactionID, description, category string) error {
	entry, err := j.ledgerRepo.GetByTransactionIDForUpdate(ctx, tx, transactionID)
	if err != nil {
		return err
	}

	if entry.Description == description && entry.Category == category {
		return nil
	}

	entry.Description = description
	entry.Category = category
	entry.UpdatedAt = j.uow.Now()

	return j.ledgerRepo.Update(ctx, tx, entry)
}

// Void removes the entry linked to transactionID.
func (j *LedgerJournal) Void(ctx context.Context, tx Transaction, transactionID string) error {
	entry, err := j.ledgerRepo.GetByTransactionIDForUpdate(ctx, tx, transactionID)
	if err != nil {
		return err
	}
	return j.ledgerRepo.Delete(ctx, tx, entry.ID)
}

// ListByPeriod returns the journal for one month.
func (j *LedgerJournal) ListByPeriod(ctx context.Context, period domain.Period) ([]*domain.LedgerEntry, error) {
	from, to := period.Bounds(j.uow.Clock().Location())
	return j.ledgerRepo.ListByPeriod(ctx, from, to)
}
