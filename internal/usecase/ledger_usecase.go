package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

// LedgerUseCase handles engine-wide consistency checks.
type LedgerUseCase struct {
	balanceRepo  BalanceRepository
	cashBookRepo CashBookRepository
	ledgerRepo   LedgerRepository
	pettyRepo    PettyCashRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	balanceRepo BalanceRepository,
	cashBookRepo CashBookRepository,
	ledgerRepo LedgerRepository,
	pettyRepo PettyCashRepository,
) *LedgerUseCase {
	return &LedgerUseCase{
		balanceRepo:  balanceRepo,
		cashBookRepo: cashBookRepo,
		ledgerRepo:   ledgerRepo,
		pettyRepo:    pettyRepo,
	}
}

// CheckConsistency verifies balance provenance for every domain and that each cash book
// entry has exactly one matching journal entry. Violations are logged and returned as an
// error wrapping domain.ErrConsistency together with the full report.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*domain.ConsistencyReport, error) {
	cashBook, err := uc.cashBookRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	ledger, err := uc.ledgerRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	totals, err := uc.pettyRepo.Totals(ctx)
	if err != nil {
		return nil, err
	}

	report := &domain.ConsistencyReport{
		CheckedAt:       time.Now().UTC(),
		CashBookEntries: len(cashBook),
		LedgerEntries:   len(ledger),
	}

	mainPostings := decimal.Zero
	for _, e := range cashBook {
		mainPostings = mainPostings.Add(e.SignedAmount())
	}

	mainCheck, err := uc.checkBalance(ctx, domain.DomainMain, mainPostings, nil)
	if err != nil {
		return nil, err
	}
	report.Balances = append(report.Balances, mainCheck)

	pettyPostings := totals.Reimbursements.Sub(totals.Expenses)
	pettyCheck, err := uc.checkBalance(ctx, domain.DomainPetty, pettyPostings, &totals.Initial)
	if err != nil {
		return nil, err
	}
	report.Balances = append(report.Balances, pettyCheck)

	report.JournalMismatches = matchJournal(cashBook, ledger)
	report.Finalize()

	if !report.IsConsistent {
		logger := zerolog.Ctx(ctx)
		for _, b := range report.Balances {
			if !b.Consistent {
				logger.Error().
					Str("domain", string(b.Domain)).
					Str("stored", b.Stored.String()).
					Str("expected", b.Expected.String()).
					Msg("balance provenance violated")
			}
		}
		for _, m := range report.JournalMismatches {
			logger.Error().
				Str("transaction_id", m.TransactionID).
				Str("reason", m.Reason).
				Int("mirrors", m.Mirrors).
				Msg("journal mirror violated")
		}

		return report, fmt.Errorf("%w: %d balance and %d journal violations",
			domain.ErrConsistency, countInconsistent(report.Balances), len(report.JournalMismatches))
	}

	return report, nil
}

// checkBalance compares a stored record with initial + postings. A missing record is
// treated as zero. For petty cash the opening amount must also match the initial entry.
func (uc *LedgerUseCase) checkBalance(ctx context.Context, d domain.BalanceDomain, postings decimal.Decimal, entryInitial *decimal.Decimal) (domain.BalanceCheck, error) {
	check := domain.BalanceCheck{Domain: d, Postings: postings}

	rec, err := uc.balanceRepo.Get(ctx, d)
	switch {
	case errors.Is(err, domain.ErrBalanceNotFound):
	case err != nil:
		return check, err
	default:
		check.Stored = rec.Balance
		check.InitialAmount = rec.InitialAmount
	}

	check.Expected = check.InitialAmount.Add(postings)
	check.Consistent = check.Stored.Equal(check.Expected)
	if entryInitial != nil && !check.InitialAmount.Equal(*entryInitial) {
		check.Consistent = false
	}
	return check, nil
}

func matchJournal(cashBook []*domain.CashBookEntry, ledger []*domain.LedgerEntry) []domain.JournalMismatch {
	byTransaction := make(map[string][]*domain.LedgerEntry, len(ledger))
	for _, le := range ledger {
		byTransaction[le.TransactionID] = append(byTransaction[le.TransactionID], le)
	}

	mismatches := make([]domain.JournalMismatch, 0)
	claimed := make(map[string]struct{}, len(cashBook))

	for _, e := range cashBook {
		key := e.JournalKey()
		claimed[key] = struct{}{}
		mirrors := byTransaction[key]

		switch {
		case len(mirrors) == 0:
			mismatches = append(mismatches, domain.JournalMismatch{
				TransactionID: key,
				Reason:        "missing journal entry",
				Expected:      e.SignedAmount(),
			})
		case len(mirrors) > 1:
			mismatches = append(mismatches, domain.JournalMismatch{
				TransactionID: key,
				Reason:        "duplicate journal entries",
				Expected:      e.SignedAmount(),
				Mirrors:       len(mirrors),
			})
		case !mirrors[0].Amount.Equal(e.SignedAmount()):
			mismatches = append(mismatches, domain.JournalMismatch{
				TransactionID: key,
				Reason:        "amount mismatch",
				Expected:      e.SignedAmount(),
				Found:         mirrors[0].Amount,
				Mirrors:       1,
			})
		}
	}

	for key, mirrors := range byTransaction {
		if _, ok := claimed[key]; ok {
			continue
		}
		mismatches = append(mismatches, domain.JournalMismatch{
			TransactionID: key,
			Reason:        "orphan journal entry",
			Found:         mirrors[0].Amount,
			Mirrors:       len(mirrors),
		})
	}

	return mismatches
}

func countInconsistent(checks []domain.BalanceCheck) int {
	n := 0
	for _, c := range checks {
		if !c.Consistent {
			n++
		}
	}
	return n
}
