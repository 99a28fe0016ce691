package usecase

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

// BalanceStore is the single writer of balance records.
// Every mutating method runs inside the caller's transaction and locks the row first.
type BalanceStore struct {
	uow         *UnitOfWork
	balanceRepo BalanceRepository
}

// NewBalanceStore creates a new BalanceStore.
func NewBalanceStore(uow *UnitOfWork, balanceRepo BalanceRepository) *BalanceStore {
	return &BalanceStore{
		uow:         uow,
		balanceRepo: balanceRepo,
	}
}

// GetBalance returns the current record of a domain.
func (s *BalanceStore) GetBalance(ctx context.Context, d domain.BalanceDomain) (*domain.BalanceRecord, error) {
	if !d.IsValid() {
		return nil, domain.ErrInvalidDomain
	}
	return s.balanceRepo.Get(ctx, d)
}

// List returns every balance record.
func (s *BalanceStore) List(ctx context.Context) ([]*domain.BalanceRecord, error) {
	return s.balanceRepo.List(ctx)
}

// Lock locks the domain row for the rest of tx. It returns nil when no record exists yet.
func (s *BalanceStore) Lock(ctx context.Context, tx Transaction, d domain.BalanceDomain) (*domain.BalanceRecord, error) {
	rec, err := s.balanceRepo.GetForUpdate(ctx, tx, d)
	if errors.Is(err, domain.ErrBalanceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ApplyDelta adds a signed amount to the domain balance, creating the record on first use.
func (s *BalanceStore) ApplyDelta(ctx context.Context, tx Transaction, d domain.BalanceDomain, delta decimal.Decimal) (*domain.BalanceRecord, error) {
	rec, err := s.Lock(ctx, tx, d)
	if err != nil {
		return nil, err
	}

	now := s.uow.Now()
	if rec == nil {
		rec = &domain.BalanceRecord{
			Domain:      d,
			Balance:     decimal.Zero,
			CreatedAt:   now,
			LastUpdated: now,
		}
		if err := rec.ValidateDelta(delta); err != nil {
			return nil, err
		}
		rec.Balance = rec.ApplyDelta(delta)
		rec.Version = 1
		if err := s.balanceRepo.Create(ctx, tx, rec); err != nil {
			return nil, err
		}
		return rec, nil
	}

	if err := rec.ValidateDelta(delta); err != nil {
		return nil, err
	}

	rec.Balance = rec.ApplyDelta(delta)
	rec.Version++
	rec.LastUpdated = now

	if err := s.balanceRepo.Update(ctx, tx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Initialize opens a domain with an initial amount. A dormant record may be reopened.
func (s *BalanceStore) Initialize(ctx context.Context, tx Transaction, d domain.BalanceDomain, amount decimal.Decimal) (*domain.BalanceRecord, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	rec, err := s.Lock(ctx, tx, d)
	if err != nil {
		return nil, err
	}

	now := s.uow.Now()
	if rec == nil {
		rec = &domain.BalanceRecord{
			Domain:        d,
			Balance:       amount,
			InitialAmount: amount,
			Version:       1,
			CreatedAt:     now,
			LastUpdated:   now,
		}
		if err := s.balanceRepo.Create(ctx, tx, rec); err != nil {
			return nil, err
		}
		return rec, nil
	}

	if !rec.IsDormant() {
		return nil, domain.ErrAlreadyInitialized
	}

	rec.Balance = amount
	rec.InitialAmount = amount
	rec.Version++
	rec.LastUpdated = now

	if err := s.balanceRepo.Update(ctx, tx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// AdjustInitial moves the opening amount and the balance together by delta.
func (s *BalanceStore) AdjustInitial(ctx context.Context, tx Transaction, d domain.BalanceDomain, delta decimal.Decimal) (*domain.BalanceRecord, error) {
	rec, err := s.Lock(ctx, tx, d)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrBalanceNotFound
	}
	if err := rec.ValidateDelta(delta); err != nil {
		return nil, err
	}

	rec.Balance = rec.ApplyDelta(delta)
	rec.InitialAmount = rec.InitialAmount.Add(delta)
	rec.Version++
	rec.LastUpdated = s.uow.Now()

	if err := s.balanceRepo.Update(ctx, tx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
