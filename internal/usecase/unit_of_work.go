package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cashledger/internal/domain"
)

// Clock supplies posting timestamps and the business timezone.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// SystemClock reads the wall clock.
type SystemClock struct {
	loc *time.Location
}

// NewSystemClock creates a clock reporting periods in loc.
func NewSystemClock(loc *time.Location) SystemClock {
	if loc == nil {
		loc = time.UTC
	}
	return SystemClock{loc: loc}
}

// Now returns the current time in UTC, truncated to microseconds.
func (c SystemClock) Now() time.Time {
	return domain.Instant(time.Now())
}

// Location returns the business timezone.
func (c SystemClock) Location() *time.Location {
	return c.loc
}

// UnitOfWork runs postings as single transactions and records their side effects.
type UnitOfWork struct {
	txManager TransactionManager
	outbox    OutboxRepository
	idGen     IDGenerator
	retrier   Retrier
	metrics   MetricsRecorder
	clock     Clock
	timeout   time.Duration
}

// UnitOfWorkOption configures a UnitOfWork.
type UnitOfWorkOption func(*UnitOfWork)

// WithRetrier retries whole units of work on transient storage errors.
func WithRetrier(r Retrier) UnitOfWorkOption {
	return func(u *UnitOfWork) { u.retrier = r }
}

// WithMetrics records posting durations and balances.
func WithMetrics(m MetricsRecorder) UnitOfWorkOption {
	return func(u *UnitOfWork) { u.metrics = m }
}

// WithClock overrides the wall clock.
func WithClock(c Clock) UnitOfWorkOption {
	return func(u *UnitOfWork) { u.clock = c }
}

// WithTimeout overrides DefaultTransactionTimeout.
func WithTimeout(d time.Duration) UnitOfWorkOption {
	return func(u *UnitOfWork) { u.timeout = d }
}

// NewUnitOfWork creates a new UnitOfWork. outbox may be nil.
func NewUnitOfWork(txManager TransactionManager, outbox OutboxRepository, idGen IDGenerator, opts ...UnitOfWorkOption) *UnitOfWork {
	u := &UnitOfWork{
		txManager: txManager,
		outbox:    outbox,
		idGen:     idGen,
		clock:     NewSystemClock(time.UTC),
		timeout:   DefaultTransactionTimeout,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Now returns the posting timestamp.
func (u *UnitOfWork) Now() time.Time {
	return domain.Instant(u.clock.Now())
}

// Clock returns the configured clock.
func (u *UnitOfWork) Clock() Clock {
	return u.clock
}

// NewID returns a fresh identifier.
func (u *UnitOfWork) NewID() string {
	return u.idGen.Generate()
}

// Run executes fn inside one transaction. fn may be invoked more than once when a
// retrier is configured, so it must not carry state between attempts.
func (u *UnitOfWork) Run(ctx context.Context, operation string, fn func(ctx context.Context, tx Transaction) error) error {
	start := time.Now()

	attempt := func() error {
		return u.runOnce(ctx, fn)
	}

	var err error
	if u.retrier != nil {
		err = u.retrier.Retry(ctx, attempt)
	} else {
		err = attempt()
	}

	if u.metrics != nil {
		u.metrics.ObservePosting(operation, time.Since(start), err)
	}

	logger := zerolog.Ctx(ctx)
	if err != nil {
		logger.Debug().Err(err).Str("operation", operation).Msg("posting rejected")
	} else {
		logger.Debug().Str("operation", operation).Dur("duration", time.Since(start)).Msg("posting committed")
	}

	return err
}

func (u *UnitOfWork) runOnce(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	tx, err := u.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Emit writes an outbox event inside tx.
func (u *UnitOfWork) Emit(ctx context.Context, tx Transaction, aggregateType, aggregateID, eventType string, payload map[string]any) error {
	if u.outbox == nil {
		return nil
	}

	return u.outbox.Create(ctx, tx, &domain.OutboxEvent{
		ID:            u.idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     u.Now(),
	})
}

func (u *UnitOfWork) recordBalance(rec *domain.BalanceRecord) {
	if u.metrics != nil && rec != nil {
		u.metrics.SetBalance(rec.Domain, rec.Balance)
	}
}

func (u *UnitOfWork) recordBalances(records ...*domain.BalanceRecord) {
	for _, rec := range records {
		u.recordBalance(rec)
	}
}
