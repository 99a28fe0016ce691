package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

func TestCashBookCreateAssignsSeq(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewCashBookRepository(mockPool)

	mockPool.ExpectQuery("INSERT INTO cash_book_entries").
		WithArgs("cb-1", pgxmock.AnyArg(), "Sales takings", "Sales", "inflow",
			pgxmock.AnyArg(), pgxmock.AnyArg(), "", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"seq"}).AddRow(int64(42)))

	entry := &domain.CashBookEntry{
		ID:          "cb-1",
		Date:        time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC),
		Description: "Sales takings",
		Category:    "Sales",
		Direction:   domain.DirectionInflow,
		Amount:      decimal.NewFromInt(100),
	}
	if err := repo.Create(context.Background(), nil, entry); err != nil {
		t.Fatalf("create: %v", err)
	}
	if entry.Seq != 42 {
		t.Fatalf("expected seq 42, got %d", entry.Seq)
	}

	assertExpectations(t, mockPool)
}

func TestCashBookGetByIDNotFound(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewCashBookRepository(mockPool)

	mockPool.ExpectQuery("FROM cash_book_entries WHERE id").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrCashBookEntryNotFound) {
		t.Fatalf("expected ErrCashBookEntryNotFound, got %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestCashBookGetLatestScansRow(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewCashBookRepository(mockPool)
	at := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)

	mockPool.ExpectQuery("ORDER BY seq DESC LIMIT 1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "seq", "date", "description", "category", "direction",
			"amount", "balance_after", "reference_type", "reference_id", "created_at",
		}).AddRow("cb-7", int64(7), at, "Petty cash top-up", "Reimbursement", "outflow",
			"250.00", "1750.00", "pettycash", "pc-3", at))

	entry, err := repo.GetLatest(context.Background(), nil)
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if entry.ID != "cb-7" || entry.Seq != 7 {
		t.Fatalf("unexpected entry %s/%d", entry.ID, entry.Seq)
	}
	if !entry.Amount.Equal(decimal.NewFromInt(250)) || !entry.BalanceAfter.Equal(decimal.NewFromInt(1750)) {
		t.Fatalf("unexpected amounts %s/%s", entry.Amount, entry.BalanceAfter)
	}
	if entry.JournalKey() != "pc-3" {
		t.Fatalf("expected petty reference to key the journal, got %s", entry.JournalKey())
	}

	assertExpectations(t, mockPool)
}

func TestBalanceUpdateMissingRow(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewBalanceRepository(mockPool)

	mockPool.ExpectExec("UPDATE balances").
		WithArgs("petty", pgxmock.AnyArg(), pgxmock.AnyArg(), int64(2), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), nil, &domain.BalanceRecord{Domain: domain.DomainPetty, Version: 2})
	if !errors.Is(err, domain.ErrBalanceNotFound) {
		t.Fatalf("expected ErrBalanceNotFound, got %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestSalaryCreateIfAbsentReportsConflict(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewSalaryRepository(mockPool)
	record := &domain.SalaryRecord{ID: "s-1", EmployeeID: "e-1", Month: "2024-03", Status: domain.SalaryPending}

	mockPool.ExpectExec("ON CONFLICT \\(employee_id, month\\) DO NOTHING").
		WithArgs(salaryArgs()...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec("ON CONFLICT \\(employee_id, month\\) DO NOTHING").
		WithArgs(salaryArgs()...).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	created, err := repo.CreateIfAbsent(context.Background(), nil, record)
	if err != nil || !created {
		t.Fatalf("first insert = %v, %v", created, err)
	}
	created, err = repo.CreateIfAbsent(context.Background(), nil, record)
	if err != nil || created {
		t.Fatalf("conflicting insert = %v, %v", created, err)
	}

	assertExpectations(t, mockPool)
}

func TestPettyCashTotalsFoldsKinds(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewPettyCashRepository(mockPool)

	mockPool.ExpectQuery("FROM petty_cash_entries GROUP BY kind").
		WillReturnRows(pgxmock.NewRows([]string{"kind", "sum", "count"}).
			AddRow("initial", "1000.00", int64(1)).
			AddRow("expense", "450.50", int64(3)).
			AddRow("reimbursement", "300.00", int64(1)))

	totals, err := repo.Totals(context.Background())
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if !totals.HasInitial || totals.Count != 5 {
		t.Fatalf("unexpected totals %+v", totals)
	}
	if !totals.Balance().Equal(decimal.RequireFromString("849.50")) {
		t.Fatalf("balance = %s", totals.Balance())
	}
	if !totals.Outstanding().Equal(decimal.RequireFromString("150.50")) {
		t.Fatalf("outstanding = %s", totals.Outstanding())
	}

	assertExpectations(t, mockPool)
}

func TestLedgerDeleteMissingEntry(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewLedgerRepository(mockPool)

	mockPool.ExpectExec("DELETE FROM ledger_entries").
		WithArgs("gone").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), nil, "gone"); !errors.Is(err, domain.ErrLedgerEntryNotFound) {
		t.Fatalf("expected ErrLedgerEntryNotFound, got %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestOutboxCreateMarshalsPayload(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewOutboxRepository(mockPool)

	mockPool.ExpectExec("INSERT INTO outbox_events").
		WithArgs("evt-1", "cb-1", domain.AggregateTypeCashBook, domain.EventTypeCashBookPosted,
			[]byte(`{"amount":"100"}`), pgxmock.AnyArg(), false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), nil, &domain.OutboxEvent{
		ID:            "evt-1",
		AggregateID:   "cb-1",
		AggregateType: domain.AggregateTypeCashBook,
		EventType:     domain.EventTypeCashBookPosted,
		Payload:       map[string]any{"amount": "100"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestMonthlyOvertimeEffectiveRate(t *testing.T) {
	mockPool := newMockPool(t)
	hr := NewHRDirectory(mockPool)

	mockPool.ExpectQuery("FROM overtime_records").
		WithArgs("e-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"hours", "pay"}).AddRow("10.00", "1500.00"))

	summary, err := hr.MonthlyOvertime(context.Background(), "e-1", "2024-03")
	if err != nil {
		t.Fatalf("overtime: %v", err)
	}
	if !summary.Rate.Equal(decimal.NewFromInt(150)) || !summary.Pay.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("unexpected summary %+v", summary)
	}

	if _, err := hr.MonthlyOvertime(context.Background(), "e-1", "March"); !errors.Is(err, domain.ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestOrderRevenueWrapsErrors(t *testing.T) {
	mockPool := newMockPool(t)
	orders := NewOrderRevenue(mockPool)
	dbErr := errors.New("connection reset")

	mockPool.ExpectQuery("FROM orders").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(dbErr)

	_, err := orders.CompletedOrderRevenue(context.Background(), time.Time{}, time.Now())
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}

	assertExpectations(t, mockPool)
}

// salaryArgs matches the sixteen columns of a salary_records insert.
func salaryArgs() []any {
	args := make([]any, 16)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}
