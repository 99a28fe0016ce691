package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

func TestStoreRollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewBalanceRepository(store)

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := repo.Create(ctx, tx, &domain.BalanceRecord{Domain: domain.DomainMain, Balance: decimal.NewFromInt(5)}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.GetForUpdate(ctx, tx, domain.DomainMain); err != nil {
		t.Fatalf("own write not visible: %v", err)
	}
	if _, err := repo.Get(ctx, domain.DomainMain); !errors.Is(err, domain.ErrBalanceNotFound) {
		t.Fatalf("uncommitted write leaked: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	if _, err := repo.Get(ctx, domain.DomainMain); !errors.Is(err, domain.ErrBalanceNotFound) {
		t.Fatalf("expected not found after rollback, got %v", err)
	}
	if err := tx.Commit(ctx); !errors.Is(err, ErrTxClosed) {
		t.Fatalf("expected ErrTxClosed, got %v", err)
	}
}

func TestStoreSerializesTransactions(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	first, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := store.Begin(waitCtx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected second begin to block, got %v", err)
	}

	if err := first.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	second, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("begin after commit: %v", err)
	}
	_ = second.Rollback(ctx)
}

func TestCashBookSequenceAndLatest(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewCashBookRepository(store)
	at := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	tx, _ := store.Begin(ctx)
	for _, id := range []string{"a", "b", "c"} {
		entry := &domain.CashBookEntry{ID: id, Date: at, Amount: decimal.NewFromInt(1), Direction: domain.DirectionInflow}
		if err := repo.Create(ctx, tx, entry); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	entries, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, want := range []string{"a", "b", "c"} {
		if entries[i].ID != want || entries[i].Seq != int64(i+1) {
			t.Fatalf("entry %d = %s/%d, want %s/%d", i, entries[i].ID, entries[i].Seq, want, i+1)
		}
	}

	latest, err := repo.GetLatest(ctx, nil)
	if err != nil || latest.ID != "c" {
		t.Fatalf("latest = %v, %v", latest, err)
	}

	if _, err := repo.GetLatestAsOf(ctx, at.Add(-time.Second)); !errors.Is(err, domain.ErrCashBookEntryNotFound) {
		t.Fatalf("expected not found before first entry, got %v", err)
	}
}

func TestSalaryCreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewSalaryRepository(store)

	tx, _ := store.Begin(ctx)
	defer tx.Rollback(ctx)

	created, err := repo.CreateIfAbsent(ctx, tx, &domain.SalaryRecord{ID: "s1", EmployeeID: "e1", Month: "2024-03"})
	if err != nil || !created {
		t.Fatalf("first create = %v, %v", created, err)
	}
	created, err = repo.CreateIfAbsent(ctx, tx, &domain.SalaryRecord{ID: "s2", EmployeeID: "e1", Month: "2024-03"})
	if err != nil || created {
		t.Fatalf("duplicate create = %v, %v", created, err)
	}
	created, err = repo.CreateIfAbsent(ctx, tx, &domain.SalaryRecord{ID: "s3", EmployeeID: "e1", Month: "2024-04"})
	if err != nil || !created {
		t.Fatalf("next month create = %v, %v", created, err)
	}
}

func TestOrderBookRevenue(t *testing.T) {
	ctx := context.Background()
	book := NewOrderBook()
	march := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	book.AddOrder(Order{ID: "1", Status: OrderStatusCompleted, Total: decimal.NewFromInt(100), Paid: decimal.NewFromInt(40), CompletedAt: march})
	book.AddOrder(Order{ID: "2", Status: OrderStatusCompleted, Total: decimal.NewFromInt(50), Paid: decimal.NewFromInt(50), CompletedAt: march.AddDate(0, 1, 0)})
	book.AddOrder(Order{ID: "3", Status: "Cancelled", Total: decimal.NewFromInt(999)})

	revenue, _ := book.CompletedOrderRevenue(ctx, march.AddDate(0, 0, -14), march.AddDate(0, 0, 16))
	if !revenue.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("revenue = %s", revenue)
	}

	due, _ := book.OutstandingReceivables(ctx, march.AddDate(0, 2, 0))
	if !due.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("receivables = %s", due)
	}
}
