package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDirection(t *testing.T) {
	t.Parallel()

	cases := map[string]Direction{
		"inflow":  DirectionInflow,
		"IN":      DirectionInflow,
		"outflow": DirectionOutflow,
		" out ":   DirectionOutflow,
	}
	for in, want := range cases {
		got, err := ParseDirection(in)
		if err != nil || got != want {
			t.Fatalf("ParseDirection(%q) = %q, %v", in, got, err)
		}
	}

	if _, err := ParseDirection("sideways"); !errors.Is(err, ErrInvalidDirection) {
		t.Fatalf("expected ErrInvalidDirection, got %v", err)
	}
}

func TestCashBookEntry_Validate(t *testing.T) {
	t.Parallel()

	valid := CashBookEntry{
		Description: "Shop sales",
		Amount:      decimal.NewFromInt(500),
		Direction:   DirectionInflow,
		Category:    "Sales",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid entry, got %v", err)
	}

	zero := valid
	zero.Amount = decimal.Zero
	if err := zero.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	noDir := valid
	noDir.Direction = ""
	if err := noDir.Validate(); !errors.Is(err, ErrInvalidDirection) {
		t.Fatalf("expected ErrInvalidDirection, got %v", err)
	}

	noCategory := valid
	noCategory.Category = " "
	if err := noCategory.Validate(); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestCashBookEntry_Journal(t *testing.T) {
	t.Parallel()

	pettyID := "petty-1"
	salaryID := "salary-1"

	plain := &CashBookEntry{ID: "cb-1", Direction: DirectionOutflow, Amount: decimal.NewFromInt(30)}
	if plain.JournalKey() != "cb-1" || plain.JournalSource() != LedgerSourceCashBook {
		t.Fatalf("plain entry journaled as %s/%s", plain.JournalSource(), plain.JournalKey())
	}
	if !plain.SignedAmount().Equal(decimal.NewFromInt(-30)) {
		t.Fatalf("expected -30, got %s", plain.SignedAmount())
	}

	petty := &CashBookEntry{ID: "cb-2", ReferenceType: ReferencePettyCash, ReferenceID: &pettyID}
	if petty.JournalKey() != pettyID || petty.JournalSource() != LedgerSourcePettyCash {
		t.Fatalf("petty entry journaled as %s/%s", petty.JournalSource(), petty.JournalKey())
	}

	salary := &CashBookEntry{ID: "cb-3", ReferenceType: ReferenceSalary, ReferenceID: &salaryID}
	if salary.JournalKey() != "cb-3" || salary.JournalSource() != LedgerSourceCashBook {
		t.Fatalf("salary entry journaled as %s/%s", salary.JournalSource(), salary.JournalKey())
	}

	mirror := NewLedgerEntryFromCashBook("le-1", petty, string(PettyCashReimbursement))
	if mirror.TransactionID != pettyID || mirror.TransactionType != "reimbursement" {
		t.Fatalf("unexpected mirror %+v", mirror)
	}
}
