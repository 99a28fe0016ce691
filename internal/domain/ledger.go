package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerSource tags the subsystem that originated a ledger entry.
type LedgerSource string

const (
	LedgerSourceCashBook  LedgerSource = "CashBook"
	LedgerSourcePettyCash LedgerSource = "PettyCash"
)

// IsValid reports whether s is a known source.
func (s LedgerSource) IsValid() bool {
	return s == LedgerSourceCashBook || s == LedgerSourcePettyCash
}

// LedgerEntry is the journal mirror of a main-cash posting.
// Amount is signed: outflows are negative.
type LedgerEntry struct {
	Date            time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ID              string
	Description     string
	Category        string
	Source          LedgerSource
	TransactionID   string
	TransactionType string
	Amount          decimal.Decimal
}

// NewLedgerEntryFromCashBook builds the journal mirror of a cash book posting.
func NewLedgerEntryFromCashBook(id string, e *CashBookEntry, transactionType string) *LedgerEntry {
	if transactionType == "" {
		transactionType = string(e.Direction)
	}
	return &LedgerEntry{
		ID:              id,
		Description:     e.Description,
		Amount:          e.SignedAmount(),
		Category:        e.Category,
		Source:          e.JournalSource(),
		TransactionID:   e.JournalKey(),
		TransactionType: transactionType,
		Date:            e.Date,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.CreatedAt,
	}
}
