package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// tamper writes directly through the repositories, bypassing the posters.
func (e *engine) tamper(t *testing.T, fn func(ctx context.Context, tx usecase.Transaction)) {
	t.Helper()
	ctx := context.Background()
	tx, err := e.store.Begin(ctx)
	require.NoError(t, err)
	fn(ctx, tx)
	require.NoError(t, tx.Commit(ctx))
}

func TestCheckConsistency_EmptyEngine(t *testing.T) {
	e := newEngine(t)

	report, err := e.ledger.CheckConsistency(context.Background())
	require.NoError(t, err)
	assert.True(t, report.IsConsistent)
	assert.Len(t, report.Balances, 2)
	assert.Zero(t, report.CashBookEntries)
}

func TestCheckConsistency_AfterMixedActivity(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.cashBook.OpenBalance(ctx, dec("1000"))
	require.NoError(t, err)
	e.deposit(t, "4000")
	e.fund(t, "500")
	e.expense(t, "120")
	_, err = e.petty.PostReimbursement(ctx, usecase.AddPettyCashInput{Amount: dec("100")})
	require.NoError(t, err)

	report, err := e.ledger.CheckConsistency(ctx)
	require.NoError(t, err)
	require.True(t, report.IsConsistent)
	assert.Equal(t, 3, report.CashBookEntries)
	assert.Equal(t, 3, report.LedgerEntries)

	for _, b := range report.Balances {
		switch b.Domain {
		case domain.DomainMain:
			requireDecimal(t, "4400", b.Stored)
			requireDecimal(t, "1000", b.InitialAmount)
			requireDecimal(t, "3400", b.Postings)
		case domain.DomainPetty:
			requireDecimal(t, "480", b.Stored)
			requireDecimal(t, "-20", b.Postings)
		}
	}
}

func TestCheckConsistency_DetectsMissingMirror(t *testing.T) {
	e := newEngine(t)
	entry := e.deposit(t, "100")

	e.tamper(t, func(ctx context.Context, tx usecase.Transaction) {
		mirror, err := e.ledgerRepo.GetByTransactionIDForUpdate(ctx, tx, entry.ID)
		require.NoError(t, err)
		require.NoError(t, e.ledgerRepo.Delete(ctx, tx, mirror.ID))
	})

	report, err := e.ledger.CheckConsistency(context.Background())
	require.ErrorIs(t, err, domain.ErrConsistency)
	require.NotNil(t, report)
	assert.False(t, report.IsConsistent)
	require.Len(t, report.JournalMismatches, 1)
	assert.Equal(t, entry.ID, report.JournalMismatches[0].TransactionID)
	assert.Equal(t, "missing journal entry", report.JournalMismatches[0].Reason)
}

func TestCheckConsistency_DetectsAmountMismatchAndOrphan(t *testing.T) {
	e := newEngine(t)
	entry := e.deposit(t, "100")

	e.tamper(t, func(ctx context.Context, tx usecase.Transaction) {
		mirror, err := e.ledgerRepo.GetByTransactionIDForUpdate(ctx, tx, entry.ID)
		require.NoError(t, err)
		mirror.Amount = dec("90")
		require.NoError(t, e.ledgerRepo.Update(ctx, tx, mirror))

		require.NoError(t, e.ledgerRepo.Create(ctx, tx, &domain.LedgerEntry{
			ID:            "stray",
			TransactionID: "nowhere",
			Source:        domain.LedgerSourceCashBook,
			Amount:        dec("-5"),
		}))
	})

	report, err := e.ledger.CheckConsistency(context.Background())
	require.ErrorIs(t, err, domain.ErrConsistency)

	reasons := map[string]string{}
	for _, m := range report.JournalMismatches {
		reasons[m.TransactionID] = m.Reason
	}
	assert.Equal(t, "amount mismatch", reasons[entry.ID])
	assert.Equal(t, "orphan journal entry", reasons["nowhere"])
}

func TestCheckConsistency_DetectsBalanceDrift(t *testing.T) {
	e := newEngine(t)
	e.deposit(t, "100")

	e.tamper(t, func(ctx context.Context, tx usecase.Transaction) {
		rec, err := e.balanceRepo.GetForUpdate(ctx, tx, domain.DomainMain)
		require.NoError(t, err)
		rec.Balance = dec("150")
		require.NoError(t, e.balanceRepo.Update(ctx, tx, rec))
	})

	report, err := e.ledger.CheckConsistency(context.Background())
	require.ErrorIs(t, err, domain.ErrConsistency)
	assert.Empty(t, report.JournalMismatches)

	for _, b := range report.Balances {
		if b.Domain == domain.DomainMain {
			assert.False(t, b.Consistent)
			requireDecimal(t, "100", b.Expected)
		}
	}
}
