package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/cashledger/internal/adapter/repository/memory"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
	"github.com/iho/cashledger/internal/usecase/mocks"
)

// seedMarch opens the books with 10000, sells 3000 on account (2000 collected), runs the
// petty cash fund and generates one salary of net 4600.
func seedMarch(t *testing.T, e *engine, reimburse bool) *domain.SalaryRecord {
	t.Helper()
	ctx := context.Background()

	_, err := e.cashBook.OpenBalance(ctx, dec("10000"))
	require.NoError(t, err)

	e.orders.AddOrder(memory.Order{
		ID:          "ord-1",
		Status:      memory.OrderStatusCompleted,
		Total:       dec("3000"),
		Paid:        dec("2000"),
		CompletedAt: time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC),
	})
	e.orders.AddOrder(memory.Order{
		ID:     "ord-2",
		Status: "Pending",
		Total:  dec("999"),
	})
	e.deposit(t, "2000")

	e.fund(t, "1000")
	e.expense(t, "300")
	if reimburse {
		_, err := e.petty.PostReimbursement(ctx, usecase.AddPettyCashInput{Amount: dec("300")})
		require.NoError(t, err)
	}

	e.hr.AddEmployee(domain.Employee{ID: "emp-1", Name: "Nimal Perera", BasicSalary: dec("5000")})
	created, err := e.payroll.RunMonthlyPayroll(ctx, "2024-03")
	require.NoError(t, err)
	require.Len(t, created, 1)
	return created[0]
}

func TestProfitAndLoss(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	seedMarch(t, e, true)

	statement, err := e.reports.ProfitAndLoss(ctx, 2024, 3)
	require.NoError(t, err)

	assert.Equal(t, "2024-03", statement.Period)
	requireDecimal(t, "3000", statement.Revenue)
	requireDecimal(t, "4600", statement.SalaryExpense)
	requireDecimal(t, "300", statement.PettyCashExpense)
	requireDecimal(t, "4900", statement.Expenses)
	requireDecimal(t, "-1900", statement.NetProfit)

	april, err := e.reports.ProfitAndLoss(ctx, 2024, 4)
	require.NoError(t, err)
	requireDecimal(t, "0", april.Revenue)
	requireDecimal(t, "0", april.NetProfit)

	_, err = e.reports.ProfitAndLoss(ctx, 2024, 13)
	require.ErrorIs(t, err, domain.ErrInvalidPeriod)
}

func TestFinancialPosition_Balances(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	salary := seedMarch(t, e, true)

	position, err := e.reports.FinancialPosition(ctx, 2024, 3)
	require.NoError(t, err)

	requireDecimal(t, "10700", position.MainCash)
	requireDecimal(t, "1000", position.PettyCash)
	requireDecimal(t, "1000", position.Receivables)
	requireDecimal(t, "12700", position.TotalAssets)
	requireDecimal(t, "4600", position.UnpaidSalaries)
	requireDecimal(t, "10000", position.OpeningCapital)
	requireDecimal(t, "-1900", position.RetainedEarnings)
	assert.True(t, position.Balanced, "difference %s", position.Difference)

	e.clock.Advance(time.Hour)
	_, err = e.payroll.MarkPaid(ctx, salary.ID)
	require.NoError(t, err)

	position, err = e.reports.FinancialPosition(ctx, 2024, 3)
	require.NoError(t, err)
	requireDecimal(t, "6100", position.MainCash)
	requireDecimal(t, "0", position.TotalLiabilities)
	requireDecimal(t, "8100", position.TotalEquity)
	assert.True(t, position.Balanced, "difference %s", position.Difference)

	e.requireConsistent(t)
}

func TestFinancialPosition_PaidAfterPeriodIsStillLiability(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	salary := seedMarch(t, e, true)

	e.clock.Set(time.Date(2024, time.April, 2, 9, 0, 0, 0, time.UTC))
	_, err := e.payroll.MarkPaid(ctx, salary.ID)
	require.NoError(t, err)

	march, err := e.reports.FinancialPosition(ctx, 2024, 3)
	require.NoError(t, err)
	requireDecimal(t, "10700", march.MainCash)
	requireDecimal(t, "4600", march.UnpaidSalaries)
	assert.True(t, march.Balanced)

	april, err := e.reports.FinancialPosition(ctx, 2024, 4)
	require.NoError(t, err)
	requireDecimal(t, "6100", april.MainCash)
	requireDecimal(t, "0", april.UnpaidSalaries)
	assert.True(t, april.Balanced)
}

func TestFinancialPosition_ReportsMismatch(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	seedMarch(t, e, false)

	position, err := e.reports.FinancialPosition(ctx, 2024, 3)
	require.NoError(t, err)
	assert.False(t, position.Balanced)
	requireDecimal(t, "-300", position.Difference)
}

func TestFinancialPosition_BeforeAnyActivity(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	seedMarch(t, e, true)

	position, err := e.reports.FinancialPosition(ctx, 2024, 2)
	require.NoError(t, err)
	requireDecimal(t, "0", position.OpeningCapital)
	requireDecimal(t, "0", position.TotalAssets)
	requireDecimal(t, "0", position.TotalLiabilities)
	assert.True(t, position.Balanced)
}

func TestReports_CacheClosedMonthsOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCache(ctrl)

	e := newEngine(t)
	ctx := context.Background()
	seedMarch(t, e, true)
	e.reports.WithCache(cache, time.Minute)

	// March is still open: the cache is never consulted.
	_, err := e.reports.ProfitAndLoss(ctx, 2024, 3)
	require.NoError(t, err)

	e.clock.Set(time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC))

	var stored []byte
	cache.EXPECT().Get(gomock.Any(), "report:profit-loss:2024-03").Return(nil, nil)
	cache.EXPECT().Set(gomock.Any(), "report:profit-loss:2024-03", gomock.Any(), time.Minute).
		DoAndReturn(func(_ context.Context, _ string, value []byte, _ time.Duration) error {
			stored = value
			return nil
		})

	first, err := e.reports.ProfitAndLoss(ctx, 2024, 3)
	require.NoError(t, err)
	require.NotEmpty(t, stored)

	cache.EXPECT().Get(gomock.Any(), "report:profit-loss:2024-03").Return(stored, nil)
	second, err := e.reports.ProfitAndLoss(ctx, 2024, 3)
	require.NoError(t, err)
	requireDecimal(t, first.NetProfit.String(), second.NetProfit)
	assert.Equal(t, first.Period, second.Period)
}

func TestReports_RevenueSourceFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	revenue := mocks.NewMockRevenueSource(ctrl)

	store := memory.NewStore()
	clock := newTestClock(time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC))
	reports := usecase.NewReconciliationUseCase(
		clock,
		memory.NewBalanceRepository(store),
		memory.NewCashBookRepository(store),
		memory.NewLedgerRepository(store),
		memory.NewPettyCashRepository(store),
		memory.NewSalaryRepository(store),
		revenue,
	)

	ordersDown := errors.New("orders unavailable")
	revenue.EXPECT().CompletedOrderRevenue(gomock.Any(), gomock.Any(), gomock.Any()).Return(decimal.Zero, ordersDown)
	_, err := reports.ProfitAndLoss(context.Background(), 2024, 3)
	require.ErrorIs(t, err, ordersDown)

	revenue.EXPECT().OutstandingReceivables(gomock.Any(), gomock.Any()).Return(decimal.Zero, ordersDown)
	_, err = reports.FinancialPosition(context.Background(), 2024, 3)
	require.ErrorIs(t, err, ordersDown)
}
