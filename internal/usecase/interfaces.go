package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

// BalanceRepository defines data access for balance records.
type BalanceRepository interface {
	Get(ctx context.Context, d domain.BalanceDomain) (*domain.BalanceRecord, error)
	GetForUpdate(ctx context.Context, tx Transaction, d domain.BalanceDomain) (*domain.BalanceRecord, error)
	Create(ctx context.Context, tx Transaction, record *domain.BalanceRecord) error
	Update(ctx context.Context, tx Transaction, record *domain.BalanceRecord) error
	List(ctx context.Context) ([]*domain.BalanceRecord, error)
}

// CashBookRepository defines data access for cash book entries.
type CashBookRepository interface {
	// Create stores the entry and assigns its Seq.
	Create(ctx context.Context, tx Transaction, entry *domain.CashBookEntry) error
	GetByID(ctx context.Context, id string) (*domain.CashBookEntry, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.CashBookEntry, error)
	// GetLatest returns the most recently appended entry.
	GetLatest(ctx context.Context, tx Transaction) (*domain.CashBookEntry, error)
	// GetLatestAsOf returns the last entry dated at or before at.
	GetLatestAsOf(ctx context.Context, at time.Time) (*domain.CashBookEntry, error)
	Update(ctx context.Context, tx Transaction, entry *domain.CashBookEntry) error
	Delete(ctx context.Context, tx Transaction, id string) error
	// ListByPeriod returns entries dated within [from, to] ordered by date then Seq.
	ListByPeriod(ctx context.Context, from, to time.Time) ([]*domain.CashBookEntry, error)
	ListAll(ctx context.Context) ([]*domain.CashBookEntry, error)
}

// LedgerRepository defines data access for the ledger journal.
type LedgerRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	// GetByTransactionIDForUpdate returns the entry linked to a source transaction.
	GetByTransactionIDForUpdate(ctx context.Context, tx Transaction, transactionID string) (*domain.LedgerEntry, error)
	Update(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	Delete(ctx context.Context, tx Transaction, id string) error
	ListByPeriod(ctx context.Context, from, to time.Time) ([]*domain.LedgerEntry, error)
	ListAll(ctx context.Context) ([]*domain.LedgerEntry, error)
}

// PettyCashRepository defines data access for petty cash entries.
type PettyCashRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.PettyCashEntry) error
	GetByID(ctx context.Context, id string) (*domain.PettyCashEntry, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.PettyCashEntry, error)
	Update(ctx context.Context, tx Transaction, entry *domain.PettyCashEntry) error
	Delete(ctx context.Context, tx Transaction, id string) error
	ListByPeriod(ctx context.Context, from, to time.Time) ([]*domain.PettyCashEntry, error)
	Totals(ctx context.Context) (domain.PettyCashTotals, error)
	TotalsTx(ctx context.Context, tx Transaction) (domain.PettyCashTotals, error)
	TotalsAsOf(ctx context.Context, at time.Time) (domain.PettyCashTotals, error)
}

// SalaryRepository defines data access for salary records.
type SalaryRepository interface {
	// CreateIfAbsent stores the record unless one exists for the same employee and month.
	// It reports whether the record was created.
	CreateIfAbsent(ctx context.Context, tx Transaction, record *domain.SalaryRecord) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.SalaryRecord, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.SalaryRecord, error)
	Update(ctx context.Context, tx Transaction, record *domain.SalaryRecord) error
	ListByMonth(ctx context.Context, month string) ([]*domain.SalaryRecord, error)
	// ListUpToMonth returns every record whose month is at or before month.
	ListUpToMonth(ctx context.Context, month string) ([]*domain.SalaryRecord, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// EmployeeDirectory reads employees from the HR subsystem.
type EmployeeDirectory interface {
	ListActive(ctx context.Context) ([]domain.Employee, error)
}

// OvertimeSource reads aggregated overtime from the HR subsystem.
type OvertimeSource interface {
	MonthlyOvertime(ctx context.Context, employeeID, month string) (domain.OvertimeSummary, error)
}

// RevenueSource reads order totals from the order subsystem.
type RevenueSource interface {
	CompletedOrderRevenue(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	OutstandingReceivables(ctx context.Context, asOf time.Time) (decimal.Decimal, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier retries an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// MetricsRecorder receives posting telemetry.
type MetricsRecorder interface {
	ObservePosting(operation string, duration time.Duration, err error)
	SetBalance(d domain.BalanceDomain, balance decimal.Decimal)
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release removes a claim so the key can be retried.
	Release(ctx context.Context, key string) error
}
