package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PettyCashKind classifies a petty cash entry.
type PettyCashKind string

const (
	PettyCashInitial       PettyCashKind = "initial"
	PettyCashExpense       PettyCashKind = "expense"
	PettyCashReimbursement PettyCashKind = "reimbursement"
)

// IsValid reports whether k is a known kind.
func (k PettyCashKind) IsValid() bool {
	switch k {
	case PettyCashInitial, PettyCashExpense, PettyCashReimbursement:
		return true
	}
	return false
}

// ParsePettyCashKind parses a kind name.
func ParsePettyCashKind(s string) (PettyCashKind, error) {
	k := PettyCashKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", ErrInvalidKind
	}
	return k, nil
}

// AffectsMainCash reports whether entries of this kind move money out of the main cash book.
func (k PettyCashKind) AffectsMainCash() bool {
	return k == PettyCashInitial || k == PettyCashReimbursement
}

// CashBookCategory is the cash book category used when this kind draws on main cash.
func (k PettyCashKind) CashBookCategory() string {
	if k == PettyCashInitial {
		return CategoryPettyCashInitial
	}
	return CategoryReimbursement
}

// PettyCashEntry is one movement of the petty cash fund.
type PettyCashEntry struct {
	Date            time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CashBookEntryID *string
	ID              string
	Description     string
	Category        string
	Kind            PettyCashKind
	Amount          decimal.Decimal
}

// Validate validates the caller supplied fields.
func (e *PettyCashEntry) Validate() error {
	if !e.Kind.IsValid() {
		return ErrInvalidKind
	}
	if err := ValidateAmount(e.Amount); err != nil {
		return err
	}
	if err := ValidateDescription(e.Description); err != nil {
		return err
	}
	return ValidateCategory(e.Category)
}

// Effect is the signed change this entry makes to the petty balance.
func (e *PettyCashEntry) Effect() decimal.Decimal {
	if e.Kind == PettyCashExpense {
		return e.Amount.Neg()
	}
	return e.Amount
}

// PettyCashTotals aggregates the fund's entries.
type PettyCashTotals struct {
	Initial        decimal.Decimal
	Expenses       decimal.Decimal
	Reimbursements decimal.Decimal
	HasInitial     bool
	Count          int
}

// Outstanding is the unreimbursed portion of recorded expenses.
func (t PettyCashTotals) Outstanding() decimal.Decimal {
	return t.Expenses.Sub(t.Reimbursements)
}

// Balance is the fund balance implied by the entries.
func (t PettyCashTotals) Balance() decimal.Decimal {
	return t.Initial.Add(t.Reimbursements).Sub(t.Expenses)
}

// Without returns the totals with e's contribution removed.
func (t PettyCashTotals) Without(e *PettyCashEntry) PettyCashTotals {
	out := t
	switch e.Kind {
	case PettyCashInitial:
		out.Initial = out.Initial.Sub(e.Amount)
		out.HasInitial = false
	case PettyCashExpense:
		out.Expenses = out.Expenses.Sub(e.Amount)
	case PettyCashReimbursement:
		out.Reimbursements = out.Reimbursements.Sub(e.Amount)
	}
	out.Count--
	return out
}

// With returns the totals with e's contribution added.
func (t PettyCashTotals) With(e *PettyCashEntry) PettyCashTotals {
	out := t
	switch e.Kind {
	case PettyCashInitial:
		out.Initial = out.Initial.Add(e.Amount)
		out.HasInitial = true
	case PettyCashExpense:
		out.Expenses = out.Expenses.Add(e.Amount)
	case PettyCashReimbursement:
		out.Reimbursements = out.Reimbursements.Add(e.Amount)
	}
	out.Count++
	return out
}

// Check verifies the fund invariants hold for these totals.
func (t PettyCashTotals) Check() error {
	if t.Balance().IsNegative() {
		return ErrInsufficientPettyCash
	}
	if t.Outstanding().IsNegative() {
		return ErrReimbursementExceedsOutstanding
	}
	return nil
}

// PettyCashFund is the petty cash view for a period.
type PettyCashFund struct {
	Entries        []*PettyCashEntry
	CurrentBalance decimal.Decimal
	Outstanding    decimal.Decimal
	Funded         bool
}
