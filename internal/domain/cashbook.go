package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of the main cash book an entry lands on.
type Direction string

const (
	DirectionInflow  Direction = "inflow"
	DirectionOutflow Direction = "outflow"
)

// IsValid reports whether d is inflow or outflow.
func (d Direction) IsValid() bool {
	return d == DirectionInflow || d == DirectionOutflow
}

// ParseDirection parses a direction, accepting "in"/"out" shorthands.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inflow", "in":
		return DirectionInflow, nil
	case "outflow", "out":
		return DirectionOutflow, nil
	default:
		return "", ErrInvalidDirection
	}
}

// Signed returns amount with the sign of the direction.
func (d Direction) Signed(amount decimal.Decimal) decimal.Decimal {
	if d == DirectionOutflow {
		return amount.Neg()
	}
	return amount
}

// Categories used by postings that originate outside the cash book.
const (
	CategoryPettyCashInitial = "Petty Cash Initial"
	CategoryReimbursement    = "Reimbursement"
	CategorySalary           = "Salary"
)

// ReferenceType names the kind of record a cash book entry was posted for.
type ReferenceType string

const (
	ReferenceNone                ReferenceType = ""
	ReferencePettyCash           ReferenceType = "pettycash"
	ReferencePettyCashAdjustment ReferenceType = "pettycash_adjustment"
	ReferenceSalary              ReferenceType = "salary"
)

// CashBookEntry is one posting against the main cash balance.
// BalanceAfter is a snapshot of the main balance right after this entry was applied.
type CashBookEntry struct {
	Date          time.Time
	CreatedAt     time.Time
	ReferenceID   *string
	ID            string
	Description   string
	Category      string
	Direction     Direction
	ReferenceType ReferenceType
	Amount        decimal.Decimal
	BalanceAfter  decimal.Decimal
	Seq           int64
}

// Validate validates the entry fields supplied by the caller.
func (e *CashBookEntry) Validate() error {
	if err := ValidateAmount(e.Amount); err != nil {
		return err
	}
	if !e.Direction.IsValid() {
		return ErrInvalidDirection
	}
	if err := ValidateDescription(e.Description); err != nil {
		return err
	}
	return ValidateCategory(e.Category)
}

// SignedAmount is the delta this entry applied to the main balance.
func (e *CashBookEntry) SignedAmount() decimal.Decimal {
	return e.Direction.Signed(e.Amount)
}

// HasReference reports whether the entry belongs to another record.
func (e *CashBookEntry) HasReference() bool {
	return e.ReferenceID != nil && *e.ReferenceID != ""
}

// JournalSource is the source tag of the ledger entry mirroring this posting.
func (e *CashBookEntry) JournalSource() LedgerSource {
	if e.ReferenceType == ReferencePettyCash || e.ReferenceType == ReferencePettyCashAdjustment {
		return LedgerSourcePettyCash
	}
	return LedgerSourceCashBook
}

// JournalKey is the transaction id the mirroring ledger entry is linked to.
// Petty-cash draws are journaled against the petty cash entry; their compensating
// postings against themselves.
func (e *CashBookEntry) JournalKey() string {
	if e.ReferenceType == ReferencePettyCash && e.HasReference() {
		return *e.ReferenceID
	}
	return e.ID
}
