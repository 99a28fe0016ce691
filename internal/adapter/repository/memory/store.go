// Package memory provides in-memory repositories for development and tests.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// ErrTxClosed is returned when committing a finished transaction.
var ErrTxClosed = errors.New("transaction already closed")

type state struct {
	balances map[domain.BalanceDomain]domain.BalanceRecord
	cashBook map[string]domain.CashBookEntry
	ledger   map[string]domain.LedgerEntry
	petty    map[string]domain.PettyCashEntry
	salaries map[string]domain.SalaryRecord
	outbox   map[string]domain.OutboxEvent
	cashSeq  int64
}

func newState() *state {
	return &state{
		balances: make(map[domain.BalanceDomain]domain.BalanceRecord),
		cashBook: make(map[string]domain.CashBookEntry),
		ledger:   make(map[string]domain.LedgerEntry),
		petty:    make(map[string]domain.PettyCashEntry),
		salaries: make(map[string]domain.SalaryRecord),
		outbox:   make(map[string]domain.OutboxEvent),
	}
}

func (s *state) clone() *state {
	c := &state{
		balances: make(map[domain.BalanceDomain]domain.BalanceRecord, len(s.balances)),
		cashBook: make(map[string]domain.CashBookEntry, len(s.cashBook)),
		ledger:   make(map[string]domain.LedgerEntry, len(s.ledger)),
		petty:    make(map[string]domain.PettyCashEntry, len(s.petty)),
		salaries: make(map[string]domain.SalaryRecord, len(s.salaries)),
		outbox:   make(map[string]domain.OutboxEvent, len(s.outbox)),
		cashSeq:  s.cashSeq,
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	for k, v := range s.cashBook {
		c.cashBook[k] = v
	}
	for k, v := range s.ledger {
		c.ledger[k] = v
	}
	for k, v := range s.petty {
		c.petty[k] = v
	}
	for k, v := range s.salaries {
		c.salaries[k] = v
	}
	for k, v := range s.outbox {
		c.outbox[k] = v
	}
	return c
}

// Store holds committed state. Transactions are serialized: Begin waits until the
// previous transaction finishes and works on a private copy that Commit swaps in.
type Store struct {
	writer chan struct{}
	mu     sync.RWMutex
	data   *state
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		writer: make(chan struct{}, 1),
		data:   newState(),
	}
}

// Begin starts a new transaction.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	select {
	case s.writer <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.RLock()
	working := s.data.clone()
	s.mu.RUnlock()

	return &Tx{store: s, working: working}, nil
}

// view returns the state visible to tx, or the committed state under a read lock.
func (s *Store) view(tx usecase.Transaction) (*state, func()) {
	if tx != nil {
		return tx.(*Tx).working, func() {}
	}
	s.mu.RLock()
	return s.data, s.mu.RUnlock
}

// Tx is an in-memory transaction.
type Tx struct {
	store   *Store
	working *state
	done    bool
}

// Commit publishes the transaction's changes.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxClosed
	}

	t.store.mu.Lock()
	t.store.data = t.working
	t.store.mu.Unlock()

	t.finish()
	return nil
}

// Rollback discards the transaction's changes. It is a no-op after Commit.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.finish()
	return nil
}

func (t *Tx) finish() {
	t.done = true
	t.working = nil
	<-t.store.writer
}
