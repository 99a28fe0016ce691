package usecase

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

// CashBookUseCase posts entries against the main cash balance and mirrors them into the journal.
type CashBookUseCase struct {
	uow          *UnitOfWork
	balances     *BalanceStore
	journal      *LedgerJournal
	cashBookRepo CashBookRepository
}

// NewCashBookUseCase creates a new CashBookUseCase.
func NewCashBookUseCase(
	uow *UnitOfWork,
	balances *BalanceStore,
	journal *LedgerJournal,
	cashBookRepo CashBookRepository,
) *CashBookUseCase {
	return &CashBookUseCase{
		uow:          uow,
		balances:     balances,
		journal:      journal,
		cashBookRepo: cashBookRepo,
	}
}

// PostCashBookInput represents input for a cash book posting.
type PostCashBookInput struct {
	Description string
	Category    string
	Direction   domain.Direction
	Amount      decimal.Decimal
}

// CashBookReference links a posting to the record that owns it.
type CashBookReference struct {
	Type            domain.ReferenceType
	ID              string
	TransactionType string
}

// UpdateCashBookInput represents a correction. Nil fields are left unchanged.
type UpdateCashBookInput struct {
	Description *string
	Category    *string
	Amount      *decimal.Decimal
}

// Post records a cash book entry.
func (uc *CashBookUseCase) Post(ctx context.Context, input PostCashBookInput) (*domain.CashBookEntry, error) {
	if err := uc.validate(input); err != nil {
		return nil, err
	}

	var entry *domain.CashBookEntry
	err := uc.uow.Run(ctx, OpCashBookPost, func(ctx context.Context, tx Transaction) error {
		var err error
		entry, err = uc.PostTx(ctx, tx, input, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.uow.recordBalance(&domain.BalanceRecord{Domain: domain.DomainMain, Balance: entry.BalanceAfter})
	return entry, nil
}

// PostTx records a cash book entry inside tx. On insufficient main cash nothing is written.
func (uc *CashBookUseCase) PostTx(ctx context.Context, tx Transaction, input PostCashBookInput, ref *CashBookReference) (*domain.CashBookEntry, error) {
	now := uc.uow.Now()

	entry := &domain.CashBookEntry{
		ID:          uc.uow.NewID(),
		Description: input.Description,
		Category:    input.Category,
		Direction:   input.Direction,
		Amount:      input.Amount,
		Date:        now,
		CreatedAt:   now,
	}

	transactionType := ""
	if ref != nil {
		refID := ref.ID
		entry.ReferenceType = ref.Type
		entry.ReferenceID = &refID
		transactionType = ref.TransactionType
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	rec, err := uc.balances.ApplyDelta(ctx, tx, domain.DomainMain, entry.SignedAmount())
	if err != nil {
		return nil, mainCashError(err)
	}
	entry.BalanceAfter = rec.Balance

	if err := uc.cashBookRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	if _, err := uc.journal.Post(ctx, tx, entry, transactionType); err != nil {
		return nil, err
	}

	if err := uc.uow.Emit(ctx, tx, domain.AggregateTypeCashBook, entry.ID, domain.EventTypeCashBookPosted, domain.CashBookEventPayload(entry)); err != nil {
		return nil, err
	}

	return entry, nil
}

// OpenBalance sets the opening amount of the main cash book.
func (uc *CashBookUseCase) OpenBalance(ctx context.Context, amount decimal.Decimal) (*domain.BalanceRecord, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var rec *domain.BalanceRecord
	err := uc.uow.Run(ctx, OpCashBookOpen, func(ctx context.Context, tx Transaction) error {
		var err error
		rec, err = uc.balances.Initialize(ctx, tx, domain.DomainMain, amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.uow.recordBalance(rec)
	return rec, nil
}

// Update corrects an entry that is not owned by another record.
func (uc *CashBookUseCase) Update(ctx context.Context, id string, input UpdateCashBookInput) (*domain.CashBookEntry, error) {
	var entry *domain.CashBookEntry
	err := uc.uow.Run(ctx, OpCashBookUpdate, func(ctx context.Context, tx Transaction) error {
		current, err := uc.lockEntry(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.HasReference() {
			return domain.ErrEntryOwnedElsewhere
		}

		entry, err = uc.revise(ctx, tx, current, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// Delete reverses an entry that is not owned by another record.
func (uc *CashBookUseCase) Delete(ctx context.Context, id string) error {
	return uc.uow.Run(ctx, OpCashBookDelete, func(ctx context.Context, tx Transaction) error {
		current, err := uc.lockEntry(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.HasReference() {
			return domain.ErrEntryOwnedElsewhere
		}

		return uc.reverse(ctx, tx, current)
	})
}

// RestateTx corrects an owned posting after its owner's signed main-cash effect moved
// from effect by delta. The posting is revised in place while it is the latest one and
// still carries the whole effect. Otherwise it is only relabeled and a compensating
// posting owned by ref carries delta.
func (uc *CashBookUseCase) RestateTx(ctx context.Context, tx Transaction, id string, effect, delta decimal.Decimal, description string, ref *CashBookReference) (*domain.CashBookEntry, error) {
	current, err := uc.lockEntry(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	input := UpdateCashBookInput{Description: &description}
	if delta.IsZero() {
		return uc.revise(ctx, tx, current, input)
	}

	next := current.SignedAmount().Add(delta)
	inPlace, err := uc.holdsEffect(ctx, tx, current, effect)
	if err != nil {
		return nil, err
	}
	if inPlace && next.Sign() == current.SignedAmount().Sign() {
		amount := next.Abs()
		input.Amount = &amount
		return uc.revise(ctx, tx, current, input)
	}

	if _, err := uc.revise(ctx, tx, current, input); err != nil {
		return nil, err
	}
	return uc.compensate(ctx, tx, current, delta, ref)
}

// WithdrawTx cancels an owner's signed main-cash effect. The posting is reversed in place
// while it is the latest one and still carries the whole effect; otherwise a
// compensating posting owned by ref returns it.
func (uc *CashBookUseCase) WithdrawTx(ctx context.Context, tx Transaction, id string, effect decimal.Decimal, ref *CashBookReference) error {
	current, err := uc.lockEntry(ctx, tx, id)
	if err != nil {
		return err
	}

	inPlace, err := uc.holdsEffect(ctx, tx, current, effect)
	if err != nil {
		return err
	}
	if inPlace {
		return uc.reverse(ctx, tx, current)
	}

	_, err = uc.compensate(ctx, tx, current, effect.Neg(), ref)
	return err
}

// Get returns one entry.
func (uc *CashBookUseCase) Get(ctx context.Context, id string) (*domain.CashBookEntry, error) {
	return uc.cashBookRepo.GetByID(ctx, id)
}

// ListByPeriod returns one month of entries in posting order.
func (uc *CashBookUseCase) ListByPeriod(ctx context.Context, period domain.Period) ([]*domain.CashBookEntry, error) {
	from, to := period.Bounds(uc.uow.Clock().Location())
	return uc.cashBookRepo.ListByPeriod(ctx, from, to)
}

func (uc *CashBookUseCase) validate(input PostCashBookInput) error {
	entry := domain.CashBookEntry{
		Description: input.Description,
		Category:    input.Category,
		Direction:   input.Direction,
		Amount:      input.Amount,
	}
	return entry.Validate()
}

// lockEntry locks main cash before the entry so the latest-entry check stays stable.
func (uc *CashBookUseCase) lockEntry(ctx context.Context, tx Transaction, id string) (*domain.CashBookEntry, error) {
	if _, err := uc.balances.Lock(ctx, tx, domain.DomainMain); err != nil {
		return nil, err
	}
	return uc.cashBookRepo.GetByIDForUpdate(ctx, tx, id)
}

func (uc *CashBookUseCase) ensureLatest(ctx context.Context, tx Transaction, entry *domain.CashBookEntry) error {
	latest, err := uc.cashBookRepo.GetLatest(ctx, tx)
	if err != nil {
		return err
	}
	if latest.ID != entry.ID {
		return domain.ErrEntrySealed
	}
	return nil
}

// holdsEffect reports whether entry alone carries effect and nothing was posted after it.
func (uc *CashBookUseCase) holdsEffect(ctx context.Context, tx Transaction, entry *domain.CashBookEntry, effect decimal.Decimal) (bool, error) {
	if !entry.SignedAmount().Equal(effect) {
		return false, nil
	}
	latest, err := uc.cashBookRepo.GetLatest(ctx, tx)
	if err != nil {
		return false, err
	}
	return latest.ID == entry.ID, nil
}

// compensate posts delta against main cash on behalf of ref. Sealed postings are left untouched.
func (uc *CashBookUseCase) compensate(ctx context.Context, tx Transaction, sealed *domain.CashBookEntry, delta decimal.Decimal, ref *CashBookReference) (*domain.CashBookEntry, error) {
	direction := domain.DirectionInflow
	if delta.IsNegative() {
		direction = domain.DirectionOutflow
	}

	return uc.PostTx(ctx, tx, PostCashBookInput{
		Description: sealed.Description,
		Category:    sealed.Category,
		Direction:   direction,
		Amount:      delta.Abs(),
	}, ref)
}

func (uc *CashBookUseCase) revise(ctx context.Context, tx Transaction, entry *domain.CashBookEntry, input UpdateCashBookInput) (*domain.CashBookEntry, error) {
	relabeled := false
	if input.Description != nil && *input.Description != entry.Description {
		if err := domain.ValidateDescription(*input.Description); err != nil {
			return nil, err
		}
		entry.Description = *input.Description
		relabeled = true
	}
	if input.Category != nil && *input.Category != entry.Category {
		if err := domain.ValidateCategory(*input.Category); err != nil {
			return nil, err
		}
		entry.Category = *input.Category
		relabeled = true
	}

	amountChanged := input.Amount != nil && !input.Amount.Equal(entry.Amount)
	if amountChanged {
		if err := domain.ValidateAmount(*input.Amount); err != nil {
			return nil, err
		}
		if err := uc.ensureLatest(ctx, tx, entry); err != nil {
			return nil, err
		}

		before := entry.SignedAmount()
		entry.Amount = *input.Amount

		rec, err := uc.balances.ApplyDelta(ctx, tx, domain.DomainMain, entry.SignedAmount().Sub(before))
		if err != nil {
			return nil, mainCashError(err)
		}
		entry.BalanceAfter = rec.Balance
	}

	if !amountChanged && !relabeled {
		return entry, nil
	}

	if err := uc.cashBookRepo.Update(ctx, tx, entry); err != nil {
		return nil, err
	}

	if amountChanged {
		if _, err := uc.journal.Correct(ctx, tx, entry.JournalKey(), entry.SignedAmount()); err != nil {
			return nil, err
		}
	}
	if relabeled {
		if err := uc.journal.Relabel(ctx, tx, entry.JournalKey(), entry.Description, entry.Category); err != nil {
			return nil, err
		}
	}

	if err := uc.uow.Emit(ctx, tx, domain.AggregateTypeCashBook, entry.ID, domain.EventTypeCashBookCorrected, domain.CashBookEventPayload(entry)); err != nil {
		return nil, err
	}

	return entry, nil
}

func (uc *CashBookUseCase) reverse(ctx context.Context, tx Transaction, entry *domain.CashBookEntry) error {
	if err := uc.ensureLatest(ctx, tx, entry); err != nil {
		return err
	}

	if _, err := uc.balances.ApplyDelta(ctx, tx, domain.DomainMain, entry.SignedAmount().Neg()); err != nil {
		return mainCashError(err)
	}

	if err := uc.journal.Void(ctx, tx, entry.JournalKey()); err != nil {
		return err
	}

	if err := uc.cashBookRepo.Delete(ctx, tx, entry.ID); err != nil {
		return err
	}

	return uc.uow.Emit(ctx, tx, domain.AggregateTypeCashBook, entry.ID, domain.EventTypeCashBookReversed, domain.CashBookEventPayload(entry))
}

func mainCashError(err error) error {
	if errors.Is(err, domain.ErrInsufficientFunds) {
		return domain.ErrInsufficientMainCash
	}
	return err
}
