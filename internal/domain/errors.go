package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy roots. Specific errors wrap one of these so callers can match
// on either the root or the specific condition.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidState      = errors.New("operation not allowed in current state")
	ErrConsistency       = errors.New("ledger consistency violated")
)

var (
	// Validation errors
	ErrInvalidAmount      = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrInvalidDomain      = fmt.Errorf("%w: unknown balance domain", ErrValidation)
	ErrInvalidDirection   = fmt.Errorf("%w: direction must be inflow or outflow", ErrValidation)
	ErrInvalidKind        = fmt.Errorf("%w: kind must be initial, expense or reimbursement", ErrValidation)
	ErrInvalidPeriod      = fmt.Errorf("%w: invalid period", ErrValidation)
	ErrInvalidDescription = fmt.Errorf("%w: invalid description", ErrValidation)
	ErrInvalidCategory    = fmt.Errorf("%w: invalid category", ErrValidation)
	ErrKindImmutable      = fmt.Errorf("%w: petty cash entry kind cannot be changed", ErrValidation)

	// Balance policy errors
	ErrInsufficientMainCash            = fmt.Errorf("%w: main cash balance too low", ErrInsufficientFunds)
	ErrInsufficientPettyCash           = fmt.Errorf("%w: petty cash balance too low", ErrInsufficientFunds)
	ErrReimbursementExceedsOutstanding = errors.New("reimbursement exceeds outstanding petty cash claims")

	// State machine errors
	ErrAlreadyInitialized       = fmt.Errorf("%w: balance already initialized", ErrInvalidState)
	ErrAlreadyFunded            = fmt.Errorf("%w: petty cash fund already funded", ErrInvalidState)
	ErrPettyCashNotFunded       = fmt.Errorf("%w: petty cash fund is not funded", ErrInvalidState)
	ErrAlreadyPaid              = fmt.Errorf("%w: salary already paid", ErrInvalidState)
	ErrCannotUnfundActiveLedger = fmt.Errorf("%w: initial entry cannot be removed while other petty cash entries exist", ErrInvalidState)
	ErrEntrySealed              = fmt.Errorf("%w: cash book entry has later postings", ErrInvalidState)
	ErrEntryOwnedElsewhere      = fmt.Errorf("%w: cash book entry is managed by its source record", ErrInvalidState)

	// Lookup errors
	ErrBalanceNotFound        = fmt.Errorf("balance %w", ErrNotFound)
	ErrCashBookEntryNotFound  = fmt.Errorf("cash book entry %w", ErrNotFound)
	ErrLedgerEntryNotFound    = fmt.Errorf("ledger entry %w", ErrNotFound)
	ErrPettyCashEntryNotFound = fmt.Errorf("petty cash entry %w", ErrNotFound)
	ErrSalaryNotFound         = fmt.Errorf("salary record %w", ErrNotFound)
)
