package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

const (
	defaultInitialDescription       = "Petty cash float"
	defaultReimbursementDescription = "Petty cash reimbursement"
)

// PettyCashUseCase posts petty cash entries. Initial funding and reimbursements are
// drawn from main cash through the cash book; expenses only draw down the fund.
type PettyCashUseCase struct {
	uow       *UnitOfWork
	balances  *BalanceStore
	cashBook  *CashBookUseCase
	pettyRepo PettyCashRepository
}

// NewPettyCashUseCase creates a new PettyCashUseCase.
func NewPettyCashUseCase(
	uow *UnitOfWork,
	balances *BalanceStore,
	cashBook *CashBookUseCase,
	pettyRepo PettyCashRepository,
) *PettyCashUseCase {
	return &PettyCashUseCase{
		uow:       uow,
		balances:  balances,
		cashBook:  cashBook,
		pettyRepo: pettyRepo,
	}
}

// AddPettyCashInput represents input for a petty cash posting.
type AddPettyCashInput struct {
	Date        *time.Time
	Description string
	Category    string
	Kind        domain.PettyCashKind
	Amount      decimal.Decimal
}

// UpdatePettyCashInput represents a petty cash correction. Nil fields are left unchanged.
type UpdatePettyCashInput struct {
	Date        *time.Time
	Description *string
	Category    *string
	Kind        *domain.PettyCashKind
	Amount      *decimal.Decimal
}

// Add dispatches on the entry kind.
func (uc *PettyCashUseCase) Add(ctx context.Context, input AddPettyCashInput) (*domain.PettyCashEntry, error) {
	switch input.Kind {
	case domain.PettyCashInitial:
		return uc.PostInitial(ctx, input)
	case domain.PettyCashExpense:
		return uc.PostExpense(ctx, input)
	case domain.PettyCashReimbursement:
		return uc.PostReimbursement(ctx, input)
	default:
		return nil, domain.ErrInvalidKind
	}
}

// PostInitial funds an uninitialized petty cash fund from main cash.
func (uc *PettyCashUseCase) PostInitial(ctx context.Context, input AddPettyCashInput) (*domain.PettyCashEntry, error) {
	input.Kind = domain.PettyCashInitial
	entry, err := uc.newEntry(input)
	if err != nil {
		return nil, err
	}

	var mainRec, pettyRec *domain.BalanceRecord
	err = uc.uow.Run(ctx, OpPettyCashInitial, func(ctx context.Context, tx Transaction) error {
		entry := *entry

		if _, err := uc.balances.Lock(ctx, tx, domain.DomainMain); err != nil {
			return err
		}
		rec, err := uc.balances.Lock(ctx, tx, domain.DomainPetty)
		if err != nil {
			return err
		}
		if rec != nil && !rec.IsDormant() {
			return domain.ErrAlreadyFunded
		}

		cb, err := uc.drawFromMain(ctx, tx, &entry)
		if err != nil {
			return err
		}

		if err := uc.pettyRepo.Create(ctx, tx, &entry); err != nil {
			return err
		}

		pettyRec, err = uc.balances.Initialize(ctx, tx, domain.DomainPetty, entry.Amount)
		if err != nil {
			return err
		}
		mainRec = &domain.BalanceRecord{Domain: domain.DomainMain, Balance: cb.BalanceAfter}

		return uc.emit(ctx, tx, &entry, domain.EventTypePettyCashPosted)
	})
	if err != nil {
		return nil, err
	}

	uc.uow.recordBalances(mainRec, pettyRec)
	return uc.pettyRepo.GetByID(ctx, entry.ID)
}

// PostExpense records a payment out of the fund.
func (uc *PettyCashUseCase) PostExpense(ctx context.Context, input AddPettyCashInput) (*domain.PettyCashEntry, error) {
	input.Kind = domain.PettyCashExpense
	entry, err := uc.newEntry(input)
	if err != nil {
		return nil, err
	}

	var pettyRec *domain.BalanceRecord
	err = uc.uow.Run(ctx, OpPettyCashExpense, func(ctx context.Context, tx Transaction) error {
		entry := *entry

		if err := uc.requireFunded(ctx, tx); err != nil {
			return err
		}

		var err error
		pettyRec, err = uc.balances.ApplyDelta(ctx, tx, domain.DomainPetty, entry.Effect())
		if err != nil {
			return pettyCashError(err)
		}

		if err := uc.pettyRepo.Create(ctx, tx, &entry); err != nil {
			return err
		}

		return uc.emit(ctx, tx, &entry, domain.EventTypePettyCashPosted)
	})
	if err != nil {
		return nil, err
	}

	uc.uow.recordBalance(pettyRec)
	return uc.pettyRepo.GetByID(ctx, entry.ID)
}

// PostReimbursement replenishes the fund from main cash, capped by the outstanding claims.
func (uc *PettyCashUseCase) PostReimbursement(ctx context.Context, input AddPettyCashInput) (*domain.PettyCashEntry, error) {
	input.Kind = domain.PettyCashReimbursement
	entry, err := uc.newEntry(input)
	if err != nil {
		return nil, err
	}

	var mainRec, pettyRec *domain.BalanceRecord
	err = uc.uow.Run(ctx, OpPettyCashReimburse, func(ctx context.Context, tx Transaction) error {
		entry := *entry

		if _, err := uc.balances.Lock(ctx, tx, domain.DomainMain); err != nil {
			return err
		}
		if err := uc.requireFunded(ctx, tx); err != nil {
			return err
		}

		totals, err := uc.pettyRepo.TotalsTx(ctx, tx)
		if err != nil {
			return err
		}
		if entry.Amount.GreaterThan(totals.Outstanding()) {
			return domain.ErrReimbursementExceedsOutstanding
		}

		cb, err := uc.drawFromMain(ctx, tx, &entry)
		if err != nil {
			return err
		}

		pettyRec, err = uc.balances.ApplyDelta(ctx, tx, domain.DomainPetty, entry.Effect())
		if err != nil {
			return pettyCashError(err)
		}
		mainRec = &domain.BalanceRecord{Domain: domain.DomainMain, Balance: cb.BalanceAfter}

		if err := uc.pettyRepo.Create(ctx, tx, &entry); err != nil {
			return err
		}

		return uc.emit(ctx, tx, &entry, domain.EventTypePettyCashPosted)
	})
	if err != nil {
		return nil, err
	}

	uc.uow.recordBalances(mainRec, pettyRec)
	return uc.pettyRepo.GetByID(ctx, entry.ID)
}

// Update reverses an entry's prior effect and applies the corrected one as one unit.
func (uc *PettyCashUseCase) Update(ctx context.Context, id string, input UpdatePettyCashInput) (*domain.PettyCashEntry, error) {
	var pettyRec *domain.BalanceRecord
	err := uc.uow.Run(ctx, OpPettyCashUpdate, func(ctx context.Context, tx Transaction) error {
		current, err := uc.lockEntry(ctx, tx, id)
		if err != nil {
			return err
		}

		if input.Kind != nil && *input.Kind != current.Kind {
			return domain.ErrKindImmutable
		}

		updated := *current
		if input.Description != nil {
			updated.Description = strings.TrimSpace(*input.Description)
		}
		if input.Category != nil {
			updated.Category = strings.TrimSpace(*input.Category)
		}
		if input.Amount != nil {
			updated.Amount = *input.Amount
		}
		if input.Date != nil {
			updated.Date = domain.Instant(*input.Date)
		}
		if err := updated.Validate(); err != nil {
			return err
		}

		totals, err := uc.pettyRepo.TotalsTx(ctx, tx)
		if err != nil {
			return err
		}
		if err := totals.Without(current).With(&updated).Check(); err != nil {
			return err
		}

		amountChanged := !updated.Amount.Equal(current.Amount)
		if current.Kind.AffectsMainCash() && current.CashBookEntryID != nil &&
			(amountChanged || updated.Description != current.Description) {
			_, err := uc.cashBook.RestateTx(ctx, tx, *current.CashBookEntryID,
				current.Amount.Neg(), current.Amount.Sub(updated.Amount), updated.Description, adjustmentRef(current))
			if err != nil {
				return err
			}
		}

		if pettyRec, err = uc.shiftFund(ctx, tx, current.Kind, updated.Effect().Sub(current.Effect())); err != nil {
			return err
		}

		updated.UpdatedAt = uc.uow.Now()
		if err := uc.pettyRepo.Update(ctx, tx, &updated); err != nil {
			return err
		}

		return uc.emit(ctx, tx, &updated, domain.EventTypePettyCashUpdated)
	})
	if err != nil {
		return nil, err
	}

	uc.uow.recordBalance(pettyRec)
	return uc.pettyRepo.GetByID(ctx, id)
}

// Delete reverses an entry and removes it. The initial entry can only go once the
// fund holds no other entries, which returns the fund to Uninitialized.
func (uc *PettyCashUseCase) Delete(ctx context.Context, id string) error {
	var pettyRec *domain.BalanceRecord
	err := uc.uow.Run(ctx, OpPettyCashDelete, func(ctx context.Context, tx Transaction) error {
		current, err := uc.lockEntry(ctx, tx, id)
		if err != nil {
			return err
		}

		totals, err := uc.pettyRepo.TotalsTx(ctx, tx)
		if err != nil {
			return err
		}

		if current.Kind == domain.PettyCashInitial {
			if totals.Count > 1 {
				return domain.ErrCannotUnfundActiveLedger
			}
		} else if err := totals.Without(current).Check(); err != nil {
			return err
		}

		if current.Kind.AffectsMainCash() && current.CashBookEntryID != nil {
			if err := uc.cashBook.WithdrawTx(ctx, tx, *current.CashBookEntryID, current.Amount.Neg(), adjustmentRef(current)); err != nil {
				return err
			}
		}

		if pettyRec, err = uc.shiftFund(ctx, tx, current.Kind, current.Effect().Neg()); err != nil {
			return err
		}

		if err := uc.pettyRepo.Delete(ctx, tx, current.ID); err != nil {
			return err
		}

		return uc.emit(ctx, tx, current, domain.EventTypePettyCashDeleted)
	})
	if err != nil {
		return err
	}

	uc.uow.recordBalance(pettyRec)
	return nil
}

// Get returns one entry.
func (uc *PettyCashUseCase) Get(ctx context.Context, id string) (*domain.PettyCashEntry, error) {
	return uc.pettyRepo.GetByID(ctx, id)
}

// GetByMonth returns the month's entries with the fund's current balance and outstanding claims.
func (uc *PettyCashUseCase) GetByMonth(ctx context.Context, period domain.Period) (*domain.PettyCashFund, error) {
	from, to := period.Bounds(uc.uow.Clock().Location())
	entries, err := uc.pettyRepo.ListByPeriod(ctx, from, to)
	if err != nil {
		return nil, err
	}

	totals, err := uc.pettyRepo.Totals(ctx)
	if err != nil {
		return nil, err
	}

	fund := &domain.PettyCashFund{
		Entries:        entries,
		CurrentBalance: decimal.Zero,
		Outstanding:    totals.Outstanding(),
	}

	rec, err := uc.balances.GetBalance(ctx, domain.DomainPetty)
	switch {
	case errors.Is(err, domain.ErrBalanceNotFound):
	case err != nil:
		return nil, err
	default:
		fund.CurrentBalance = rec.Balance
		fund.Funded = !rec.IsDormant()
	}

	return fund, nil
}

func (uc *PettyCashUseCase) newEntry(input AddPettyCashInput) (*domain.PettyCashEntry, error) {
	now := uc.uow.Now()

	entry := &domain.PettyCashEntry{
		ID:          uc.uow.NewID(),
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		Kind:        input.Kind,
		Amount:      input.Amount,
		Date:        now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if input.Date != nil {
		entry.Date = domain.Instant(*input.Date)
	}

	if input.Kind.AffectsMainCash() {
		if entry.Category == "" {
			entry.Category = input.Kind.CashBookCategory()
		}
		if entry.Description == "" {
			entry.Description = defaultReimbursementDescription
			if input.Kind == domain.PettyCashInitial {
				entry.Description = defaultInitialDescription
			}
		}
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return entry, nil
}

// drawFromMain posts the cash book outflow backing an initial or reimbursement entry.
func (uc *PettyCashUseCase) drawFromMain(ctx context.Context, tx Transaction, entry *domain.PettyCashEntry) (*domain.CashBookEntry, error) {
	cb, err := uc.cashBook.PostTx(ctx, tx, PostCashBookInput{
		Description: entry.Description,
		Category:    entry.Kind.CashBookCategory(),
		Direction:   domain.DirectionOutflow,
		Amount:      entry.Amount,
	}, &CashBookReference{
		Type:            domain.ReferencePettyCash,
		ID:              entry.ID,
		TransactionType: string(entry.Kind),
	})
	if err != nil {
		return nil, err
	}

	cbID := cb.ID
	entry.CashBookEntryID = &cbID
	return cb, nil
}

// adjustmentRef owns the compensating postings of an entry whose main-cash draw is sealed.
func adjustmentRef(entry *domain.PettyCashEntry) *CashBookReference {
	return &CashBookReference{
		Type:            domain.ReferencePettyCashAdjustment,
		ID:              entry.ID,
		TransactionType: string(entry.Kind),
	}
}

func (uc *PettyCashUseCase) requireFunded(ctx context.Context, tx Transaction) error {
	rec, err := uc.balances.Lock(ctx, tx, domain.DomainPetty)
	if err != nil {
		return err
	}
	if rec == nil || rec.IsDormant() {
		return domain.ErrPettyCashNotFunded
	}
	return nil
}

// lockEntry takes main, petty and entry locks in that order.
func (uc *PettyCashUseCase) lockEntry(ctx context.Context, tx Transaction, id string) (*domain.PettyCashEntry, error) {
	if _, err := uc.balances.Lock(ctx, tx, domain.DomainMain); err != nil {
		return nil, err
	}
	if _, err := uc.balances.Lock(ctx, tx, domain.DomainPetty); err != nil {
		return nil, err
	}
	return uc.pettyRepo.GetByIDForUpdate(ctx, tx, id)
}

// shiftFund moves the petty balance by delta. Initial entries also move the opening amount.
func (uc *PettyCashUseCase) shiftFund(ctx context.Context, tx Transaction, kind domain.PettyCashKind, delta decimal.Decimal) (*domain.BalanceRecord, error) {
	if delta.IsZero() {
		return nil, nil
	}

	var (
		rec *domain.BalanceRecord
		err error
	)
	if kind == domain.PettyCashInitial {
		rec, err = uc.balances.AdjustInitial(ctx, tx, domain.DomainPetty, delta)
	} else {
		rec, err = uc.balances.ApplyDelta(ctx, tx, domain.DomainPetty, delta)
	}
	if err != nil {
		return nil, pettyCashError(err)
	}
	return rec, nil
}

func (uc *PettyCashUseCase) emit(ctx context.Context, tx Transaction, entry *domain.PettyCashEntry, eventType string) error {
	return uc.uow.Emit(ctx, tx, domain.AggregateTypePettyCash, entry.ID, eventType, domain.PettyCashEventPayload(entry))
}

func pettyCashError(err error) error {
	if errors.Is(err, domain.ErrInsufficientFunds) {
		return domain.ErrInsufficientPettyCash
	}
	return err
}
