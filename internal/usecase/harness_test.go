package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/cashledger/internal/adapter/repository/memory"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(now time.Time) *testClock {
	return &testClock{now: now}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Location() *time.Location {
	return time.UTC
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sequentialIDs struct {
	n atomic.Int64
}

func (g *sequentialIDs) Generate() string {
	return fmt.Sprintf("id-%05d", g.n.Add(1))
}

// engine wires every use case against one in-memory store.
type engine struct {
	store *memory.Store
	clock *testClock

	balanceRepo  *memory.BalanceRepository
	cashBookRepo *memory.CashBookRepository
	ledgerRepo   *memory.LedgerRepository
	pettyRepo    *memory.PettyCashRepository
	salaryRepo   *memory.SalaryRepository
	outboxRepo   *memory.OutboxRepository

	hr     *memory.HRDirectory
	orders *memory.OrderBook

	balances *usecase.BalanceStore
	journal  *usecase.LedgerJournal
	cashBook *usecase.CashBookUseCase
	petty    *usecase.PettyCashUseCase
	payroll  *usecase.PayrollUseCase
	reports  *usecase.ReconciliationUseCase
	ledger   *usecase.LedgerUseCase
}

func newEngine(t *testing.T) *engine {
	t.Helper()

	store := memory.NewStore()
	e := &engine{
		store:        store,
		clock:        newTestClock(time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)),
		balanceRepo:  memory.NewBalanceRepository(store),
		cashBookRepo: memory.NewCashBookRepository(store),
		ledgerRepo:   memory.NewLedgerRepository(store),
		pettyRepo:    memory.NewPettyCashRepository(store),
		salaryRepo:   memory.NewSalaryRepository(store),
		outboxRepo:   memory.NewOutboxRepository(store),
		hr:           memory.NewHRDirectory(),
		orders:       memory.NewOrderBook(),
	}

	uow := usecase.NewUnitOfWork(store, e.outboxRepo, &sequentialIDs{}, usecase.WithClock(e.clock))
	e.balances = usecase.NewBalanceStore(uow, e.balanceRepo)
	e.journal = usecase.NewLedgerJournal(uow, e.ledgerRepo)
	e.cashBook = usecase.NewCashBookUseCase(uow, e.balances, e.journal, e.cashBookRepo)
	e.petty = usecase.NewPettyCashUseCase(uow, e.balances, e.cashBook, e.pettyRepo)
	e.payroll = usecase.NewPayrollUseCase(uow, e.cashBook, e.salaryRepo, e.hr, e.hr, domain.DefaultPayrollPolicy())
	e.reports = usecase.NewReconciliationUseCase(e.clock, e.balanceRepo, e.cashBookRepo, e.ledgerRepo, e.pettyRepo, e.salaryRepo, e.orders)
	e.ledger = usecase.NewLedgerUseCase(e.balanceRepo, e.cashBookRepo, e.ledgerRepo, e.pettyRepo)
	return e
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (e *engine) deposit(t *testing.T, amount string) *domain.CashBookEntry {
	t.Helper()
	entry, err := e.cashBook.Post(context.Background(), usecase.PostCashBookInput{
		Description: "Sales takings",
		Category:    "Sales",
		Direction:   domain.DirectionInflow,
		Amount:      dec(amount),
	})
	require.NoError(t, err)
	e.clock.Advance(time.Minute)
	return entry
}

func (e *engine) fund(t *testing.T, amount string) *domain.PettyCashEntry {
	t.Helper()
	entry, err := e.petty.PostInitial(context.Background(), usecase.AddPettyCashInput{Amount: dec(amount)})
	require.NoError(t, err)
	e.clock.Advance(time.Minute)
	return entry
}

func (e *engine) expense(t *testing.T, amount string) *domain.PettyCashEntry {
	t.Helper()
	entry, err := e.petty.PostExpense(context.Background(), usecase.AddPettyCashInput{
		Description: "Stationery",
		Category:    "Office",
		Amount:      dec(amount),
	})
	require.NoError(t, err)
	e.clock.Advance(time.Minute)
	return entry
}

// balance returns the domain balance, or zero when the domain was never touched.
func (e *engine) balance(t *testing.T, d domain.BalanceDomain) decimal.Decimal {
	t.Helper()
	rec, err := e.balances.GetBalance(context.Background(), d)
	if errors.Is(err, domain.ErrBalanceNotFound) {
		return decimal.Zero
	}
	require.NoError(t, err)
	return rec.Balance
}

func (e *engine) requireBalance(t *testing.T, d domain.BalanceDomain, want string) {
	t.Helper()
	got := e.balance(t, d)
	require.Truef(t, got.Equal(dec(want)), "%s balance = %s, want %s", d, got, want)
}

func (e *engine) requireConsistent(t *testing.T) {
	t.Helper()
	report, err := e.ledger.CheckConsistency(context.Background())
	require.NoError(t, err)
	require.True(t, report.IsConsistent)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, got.Equal(dec(want)), "got %s, want %s", got, want)
}
