package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

// ReconciliationUseCase produces period statements. It only reads.
type ReconciliationUseCase struct {
	clock        Clock
	balanceRepo  BalanceRepository
	cashBookRepo CashBookRepository
	ledgerRepo   LedgerRepository
	pettyRepo    PettyCashRepository
	salaryRepo   SalaryRepository
	revenue      RevenueSource
	cache        Cache
	cacheTTL     time.Duration
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(
	clock Clock,
	balanceRepo BalanceRepository,
	cashBookRepo CashBookRepository,
	ledgerRepo LedgerRepository,
	pettyRepo PettyCashRepository,
	salaryRepo SalaryRepository,
	revenue RevenueSource,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		clock:        clock,
		balanceRepo:  balanceRepo,
		cashBookRepo: cashBookRepo,
		ledgerRepo:   ledgerRepo,
		pettyRepo:    pettyRepo,
		salaryRepo:   salaryRepo,
		revenue:      revenue,
		cacheTTL:     DefaultReportCacheTTL,
	}
}

// WithCache caches statements of closed months.
func (uc *ReconciliationUseCase) WithCache(cache Cache, ttl time.Duration) *ReconciliationUseCase {
	uc.cache = cache
	if ttl > 0 {
		uc.cacheTTL = ttl
	}
	return uc
}

// ProfitAndLoss sums one month's revenue, salary expense and petty cash expense.
func (uc *ReconciliationUseCase) ProfitAndLoss(ctx context.Context, year, month int) (*domain.ProfitLossStatement, error) {
	period, err := domain.NewPeriod(year, month)
	if err != nil {
		return nil, err
	}

	var statement domain.ProfitLossStatement
	key := "report:profit-loss:" + period.String()
	if uc.fromCache(ctx, period, key, &statement) {
		return &statement, nil
	}

	from, to := period.Bounds(uc.clock.Location())

	revenue, err := uc.revenue.CompletedOrderRevenue(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to read revenue: %w", err)
	}

	salaries, err := uc.salaryRepo.ListByMonth(ctx, period.String())
	if err != nil {
		return nil, err
	}

	pettyExpense, err := uc.pettyCashExpense(ctx, from, to)
	if err != nil {
		return nil, err
	}

	statement = domain.ProfitLossStatement{
		Period:           period.String(),
		From:             from,
		To:               to,
		Revenue:          revenue,
		SalaryExpense:    sumNetSalary(salaries),
		PettyCashExpense: pettyExpense,
	}
	statement.Expenses = statement.SalaryExpense.Add(statement.PettyCashExpense)
	statement.NetProfit = statement.Revenue.Sub(statement.Expenses)

	uc.toCache(ctx, period, key, &statement)
	return &statement, nil
}

// FinancialPosition reports assets, liabilities and equity at the end of a month.
// An accounting equation mismatch is flagged on the result, not returned as an error.
func (uc *ReconciliationUseCase) FinancialPosition(ctx context.Context, year, month int) (*domain.FinancialPosition, error) {
	period, err := domain.NewPeriod(year, month)
	if err != nil {
		return nil, err
	}

	var position domain.FinancialPosition
	key := "report:position:" + period.String()
	if uc.fromCache(ctx, period, key, &position) {
		return &position, nil
	}

	_, asOf := period.Bounds(uc.clock.Location())
	position = domain.FinancialPosition{Period: period.String(), AsOf: asOf}

	opening, err := uc.openingCapital(ctx, asOf)
	if err != nil {
		return nil, err
	}
	position.OpeningCapital = opening

	position.MainCash, err = uc.mainCashAsOf(ctx, asOf, opening)
	if err != nil {
		return nil, err
	}

	pettyTotals, err := uc.pettyRepo.TotalsAsOf(ctx, asOf)
	if err != nil {
		return nil, err
	}
	position.PettyCash = pettyTotals.Balance()

	position.Receivables, err = uc.revenue.OutstandingReceivables(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to read receivables: %w", err)
	}

	salaries, err := uc.salaryRepo.ListUpToMonth(ctx, period.String())
	if err != nil {
		return nil, err
	}
	for _, s := range salaries {
		if s.Status == domain.SalaryPending || (s.PaymentDate != nil && s.PaymentDate.After(asOf)) {
			position.UnpaidSalaries = position.UnpaidSalaries.Add(s.NetSalary)
		}
	}

	revenue, err := uc.revenue.CompletedOrderRevenue(ctx, time.Time{}, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to read revenue: %w", err)
	}
	pettyExpense, err := uc.pettyCashExpense(ctx, time.Time{}, asOf)
	if err != nil {
		return nil, err
	}
	position.RetainedEarnings = revenue.Sub(sumNetSalary(salaries)).Sub(pettyExpense)

	position.Reconcile()
	if !position.Balanced {
		zerolog.Ctx(ctx).Warn().
			Str("period", position.Period).
			Str("difference", position.Difference.String()).
			Msg("financial position does not balance")
	}

	uc.toCache(ctx, period, key, &position)
	return &position, nil
}

// pettyCashExpense nets the reimbursements journaled from petty cash in [from, to].
// Compensating inflows reduce it.
func (uc *ReconciliationUseCase) pettyCashExpense(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	entries, err := uc.ledgerRepo.ListByPeriod(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, e := range entries {
		if e.Source == domain.LedgerSourcePettyCash && e.TransactionType == string(domain.PettyCashReimbursement) {
			total = total.Sub(e.Amount)
		}
	}
	return total, nil
}

func (uc *ReconciliationUseCase) openingCapital(ctx context.Context, asOf time.Time) (decimal.Decimal, error) {
	rec, err := uc.balanceRepo.Get(ctx, domain.DomainMain)
	if errors.Is(err, domain.ErrBalanceNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	if rec.CreatedAt.After(asOf) {
		return decimal.Zero, nil
	}
	return rec.InitialAmount, nil
}

// mainCashAsOf reads the balance snapshot of the last cash book entry at or before asOf.
func (uc *ReconciliationUseCase) mainCashAsOf(ctx context.Context, asOf time.Time, opening decimal.Decimal) (decimal.Decimal, error) {
	entry, err := uc.cashBookRepo.GetLatestAsOf(ctx, asOf)
	if errors.Is(err, domain.ErrCashBookEntryNotFound) {
		return opening, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return entry.BalanceAfter, nil
}

// fromCache only serves months that have already closed.
func (uc *ReconciliationUseCase) fromCache(ctx context.Context, period domain.Period, key string, dst any) bool {
	if uc.cache == nil || !uc.closed(period) {
		return false
	}

	data, err := uc.cache.Get(ctx, key)
	if err != nil || data == nil {
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("discarding unreadable cached report")
		return false
	}
	return true
}

func (uc *ReconciliationUseCase) toCache(ctx context.Context, period domain.Period, key string, src any) {
	if uc.cache == nil || !uc.closed(period) {
		return
	}

	data, err := json.Marshal(src)
	if err != nil {
		return
	}
	if err := uc.cache.Set(ctx, key, data, uc.cacheTTL); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to cache report")
	}
}

func (uc *ReconciliationUseCase) closed(period domain.Period) bool {
	_, end := period.Bounds(uc.clock.Location())
	return uc.clock.Now().After(end)
}

func sumNetSalary(records []*domain.SalaryRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.NetSalary)
	}
	return total
}
