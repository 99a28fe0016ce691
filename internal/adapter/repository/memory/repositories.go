package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// BalanceRepository implements usecase.BalanceRepository.
type BalanceRepository struct{ store *Store }

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(store *Store) *BalanceRepository {
	return &BalanceRepository{store: store}
}

func (r *BalanceRepository) Get(ctx context.Context, d domain.BalanceDomain) (*domain.BalanceRecord, error) {
	return r.get(nil, d)
}

func (r *BalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, d domain.BalanceDomain) (*domain.BalanceRecord, error) {
	return r.get(tx, d)
}

func (r *BalanceRepository) get(tx usecase.Transaction, d domain.BalanceDomain) (*domain.BalanceRecord, error) {
	st, done := r.store.view(tx)
	defer done()

	rec, ok := st.balances[d]
	if !ok {
		return nil, domain.ErrBalanceNotFound
	}
	return &rec, nil
}

func (r *BalanceRepository) Create(ctx context.Context, tx usecase.Transaction, record *domain.BalanceRecord) error {
	st := tx.(*Tx).working
	if _, ok := st.balances[record.Domain]; ok {
		return domain.ErrAlreadyInitialized
	}
	st.balances[record.Domain] = *record
	return nil
}

func (r *BalanceRepository) Update(ctx context.Context, tx usecase.Transaction, record *domain.BalanceRecord) error {
	st := tx.(*Tx).working
	if _, ok := st.balances[record.Domain]; !ok {
		return domain.ErrBalanceNotFound
	}
	st.balances[record.Domain] = *record
	return nil
}

func (r *BalanceRepository) List(ctx context.Context) ([]*domain.BalanceRecord, error) {
	st, done := r.store.view(nil)
	defer done()

	out := make([]*domain.BalanceRecord, 0, len(st.balances))
	for _, rec := range st.balances {
		rec := rec
		out = append(out, &rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out, nil
}

// CashBookRepository implements usecase.CashBookRepository.
type CashBookRepository struct{ store *Store }

// NewCashBookRepository creates a new CashBookRepository.
func NewCashBookRepository(store *Store) *CashBookRepository {
	return &CashBookRepository{store: store}
}

func (r *CashBookRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.CashBookEntry) error {
	st := tx.(*Tx).working
	st.cashSeq++
	entry.Seq = st.cashSeq
	st.cashBook[entry.ID] = *entry
	return nil
}

func (r *CashBookRepository) GetByID(ctx context.Context, id string) (*domain.CashBookEntry, error) {
	return r.get(nil, id)
}

func (r *CashBookRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.CashBookEntry, error) {
	return r.get(tx, id)
}

func (r *CashBookRepository) get(tx usecase.Transaction, id string) (*domain.CashBookEntry, error) {
	st, done := r.store.view(tx)
	defer done()

	e, ok := st.cashBook[id]
	if !ok {
		return nil, domain.ErrCashBookEntryNotFound
	}
	return &e, nil
}

func (r *CashBookRepository) GetLatest(ctx context.Context, tx usecase.Transaction) (*domain.CashBookEntry, error) {
	st, done := r.store.view(tx)
	defer done()

	var latest *domain.CashBookEntry
	for _, e := range st.cashBook {
		if latest == nil || e.Seq > latest.Seq {
			e := e
			latest = &e
		}
	}
	if latest == nil {
		return nil, domain.ErrCashBookEntryNotFound
	}
	return latest, nil
}

func (r *CashBookRepository) GetLatestAsOf(ctx context.Context, at time.Time) (*domain.CashBookEntry, error) {
	st, done := r.store.view(nil)
	defer done()

	var latest *domain.CashBookEntry
	for _, e := range st.cashBook {
		if e.Date.After(at) {
			continue
		}
		if latest == nil || e.Seq > latest.Seq {
			e := e
			latest = &e
		}
	}
	if latest == nil {
		return nil, domain.ErrCashBookEntryNotFound
	}
	return latest, nil
}

func (r *CashBookRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.CashBookEntry) error {
	st := tx.(*Tx).working
	if _, ok := st.cashBook[entry.ID]; !ok {
		return domain.ErrCashBookEntryNotFound
	}
	st.cashBook[entry.ID] = *entry
	return nil
}

func (r *CashBookRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	st := tx.(*Tx).working
	if _, ok := st.cashBook[id]; !ok {
		return domain.ErrCashBookEntryNotFound
	}
	delete(st.cashBook, id)
	return nil
}

func (r *CashBookRepository) ListByPeriod(ctx context.Context, from, to time.Time) ([]*domain.CashBookEntry, error) {
	return r.list(func(e *domain.CashBookEntry) bool {
		return !e.Date.Before(from) && !e.Date.After(to)
	}), nil
}

func (r *CashBookRepository) ListAll(ctx context.Context) ([]*domain.CashBookEntry, error) {
	return r.list(func(*domain.CashBookEntry) bool { return true }), nil
}

func (r *CashBookRepository) list(keep func(*domain.CashBookEntry) bool) []*domain.CashBookEntry {
	st, done := r.store.view(nil)
	defer done()

	out := make([]*domain.CashBookEntry, 0)
	for _, e := range st.cashBook {
		e := e
		if keep(&e) {
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct{ store *Store }

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(store *Store) *LedgerRepository {
	return &LedgerRepository{store: store}
}

func (r *LedgerRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	tx.(*Tx).working.ledger[entry.ID] = *entry
	return nil
}

func (r *LedgerRepository) GetByTransactionIDForUpdate(ctx context.Context, tx usecase.Transaction, transactionID string) (*domain.LedgerEntry, error) {
	for _, e := range tx.(*Tx).working.ledger {
		if e.TransactionID == transactionID {
			e := e
			return &e, nil
		}
	}
	return nil, domain.ErrLedgerEntryNotFound
}

func (r *LedgerRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	st := tx.(*Tx).working
	if _, ok := st.ledger[entry.ID]; !ok {
		return domain.ErrLedgerEntryNotFound
	}
	st.ledger[entry.ID] = *entry
	return nil
}

func (r *LedgerRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	st := tx.(*Tx).working
	if _, ok := st.ledger[id]; !ok {
		return domain.ErrLedgerEntryNotFound
	}
	delete(st.ledger, id)
	return nil
}

func (r *LedgerRepository) ListByPeriod(ctx context.Context, from, to time.Time) ([]*domain.LedgerEntry, error) {
	return r.list(func(e *domain.LedgerEntry) bool {
		return !e.Date.Before(from) && !e.Date.After(to)
	}), nil
}

func (r *LedgerRepository) ListAll(ctx context.Context) ([]*domain.LedgerEntry, error) {
	return r.list(func(*domain.LedgerEntry) bool { return true }), nil
}

func (r *LedgerRepository) list(keep func(*domain.LedgerEntry) bool) []*domain.LedgerEntry {
	st, done := r.store.view(nil)
	defer done()

	out := make([]*domain.LedgerEntry, 0)
	for _, e := range st.ledger {
		e := e
		if keep(&e) {
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// PettyCashRepository implements usecase.PettyCashRepository.
type PettyCashRepository struct{ store *Store }

// NewPettyCashRepository creates a new PettyCashRepository.
func NewPettyCashRepository(store *Store) *PettyCashRepository {
	return &PettyCashRepository{store: store}
}

func (r *PettyCashRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.PettyCashEntry) error {
	tx.(*Tx).working.petty[entry.ID] = *entry
	return nil
}

func (r *PettyCashRepository) GetByID(ctx context.Context, id string) (*domain.PettyCashEntry, error) {
	return r.get(nil, id)
}

func (r *PettyCashRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.PettyCashEntry, error) {
	return r.get(tx, id)
}

func (r *PettyCashRepository) get(tx usecase.Transaction, id string) (*domain.PettyCashEntry, error) {
	st, done := r.store.view(tx)
	defer done()

	e, ok := st.petty[id]
	if !ok {
		return nil, domain.ErrPettyCashEntryNotFound
	}
	return &e, nil
}

func (r *PettyCashRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.PettyCashEntry) error {
	st := tx.(*Tx).working
	if _, ok := st.petty[entry.ID]; !ok {
		return domain.ErrPettyCashEntryNotFound
	}
	st.petty[entry.ID] = *entry
	return nil
}

func (r *PettyCashRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	st := tx.(*Tx).working
	if _, ok := st.petty[id]; !ok {
		return domain.ErrPettyCashEntryNotFound
	}
	delete(st.petty, id)
	return nil
}

func (r *PettyCashRepository) ListByPeriod(ctx context.Context, from, to time.Time) ([]*domain.PettyCashEntry, error) {
	st, done := r.store.view(nil)
	defer done()

	out := make([]*domain.PettyCashEntry, 0)
	for _, e := range st.petty {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		e := e
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *PettyCashRepository) Totals(ctx context.Context) (domain.PettyCashTotals, error) {
	return r.totals(nil, nil), nil
}

func (r *PettyCashRepository) TotalsTx(ctx context.Context, tx usecase.Transaction) (domain.PettyCashTotals, error) {
	return r.totals(tx, nil), nil
}

func (r *PettyCashRepository) TotalsAsOf(ctx context.Context, at time.Time) (domain.PettyCashTotals, error) {
	return r.totals(nil, &at), nil
}

func (r *PettyCashRepository) totals(tx usecase.Transaction, asOf *time.Time) domain.PettyCashTotals {
	st, done := r.store.view(tx)
	defer done()

	var totals domain.PettyCashTotals
	for _, e := range st.petty {
		if asOf != nil && e.Date.After(*asOf) {
			continue
		}
		e := e
		totals = totals.With(&e)
	}
	return totals
}

// SalaryRepository implements usecase.SalaryRepository.
type SalaryRepository struct{ store *Store }

// NewSalaryRepository creates a new SalaryRepository.
func NewSalaryRepository(store *Store) *SalaryRepository {
	return &SalaryRepository{store: store}
}

func (r *SalaryRepository) CreateIfAbsent(ctx context.Context, tx usecase.Transaction, record *domain.SalaryRecord) (bool, error) {
	st := tx.(*Tx).working
	for _, s := range st.salaries {
		if s.EmployeeID == record.EmployeeID && s.Month == record.Month {
			return false, nil
		}
	}
	st.salaries[record.ID] = *record
	return true, nil
}

func (r *SalaryRepository) GetByID(ctx context.Context, id string) (*domain.SalaryRecord, error) {
	return r.get(nil, id)
}

func (r *SalaryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.SalaryRecord, error) {
	return r.get(tx, id)
}

func (r *SalaryRepository) get(tx usecase.Transaction, id string) (*domain.SalaryRecord, error) {
	st, done := r.store.view(tx)
	defer done()

	s, ok := st.salaries[id]
	if !ok {
		return nil, domain.ErrSalaryNotFound
	}
	return &s, nil
}

func (r *SalaryRepository) Update(ctx context.Context, tx usecase.Transaction, record *domain.SalaryRecord) error {
	st := tx.(*Tx).working
	if _, ok := st.salaries[record.ID]; !ok {
		return domain.ErrSalaryNotFound
	}
	st.salaries[record.ID] = *record
	return nil
}

func (r *SalaryRepository) ListByMonth(ctx context.Context, month string) ([]*domain.SalaryRecord, error) {
	return r.list(func(s *domain.SalaryRecord) bool { return s.Month == month }), nil
}

func (r *SalaryRepository) ListUpToMonth(ctx context.Context, month string) ([]*domain.SalaryRecord, error) {
	return r.list(func(s *domain.SalaryRecord) bool { return s.Month <= month }), nil
}

func (r *SalaryRepository) list(keep func(*domain.SalaryRecord) bool) []*domain.SalaryRecord {
	st, done := r.store.view(nil)
	defer done()

	out := make([]*domain.SalaryRecord, 0)
	for _, s := range st.salaries {
		s := s
		if keep(&s) {
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out
}

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct{ store *Store }

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	tx.(*Tx).working.outbox[event.ID] = *event
	return nil
}

func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	st, done := r.store.view(nil)
	defer done()

	out := make([]*domain.OutboxEvent, 0)
	for _, e := range st.outbox {
		if e.Published {
			continue
		}
		e := e
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkPublished and DeletePublished run outside posting transactions, so they write
// committed state directly under the write lock.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	e, ok := r.store.data.outbox[id]
	if !ok {
		return nil
	}
	e.Published = true
	e.PublishedAt = &publishedAt
	r.store.data.outbox[id] = e
	return nil
}

func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, e := range r.store.data.outbox {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			delete(r.store.data.outbox, id)
		}
	}
	return nil
}
