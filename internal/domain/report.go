package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceEpsilon is the tolerance of the accounting equation check.
var BalanceEpsilon = decimal.RequireFromString("0.01")

// ProfitLossStatement summarises one month's revenue and expenses.
type ProfitLossStatement struct {
	From             time.Time
	To               time.Time
	Period           string
	Revenue          decimal.Decimal
	SalaryExpense    decimal.Decimal
	PettyCashExpense decimal.Decimal
	Expenses         decimal.Decimal
	NetProfit        decimal.Decimal
}

// FinancialPosition is the statement of position at the end of a month.
type FinancialPosition struct {
	AsOf             time.Time
	Period           string
	MainCash         decimal.Decimal
	PettyCash        decimal.Decimal
	Cash             decimal.Decimal
	Receivables      decimal.Decimal
	TotalAssets      decimal.Decimal
	UnpaidSalaries   decimal.Decimal
	TotalLiabilities decimal.Decimal
	OpeningCapital   decimal.Decimal
	RetainedEarnings decimal.Decimal
	TotalEquity      decimal.Decimal
	Difference       decimal.Decimal
	Balanced         bool
}

// Reconcile fills the totals and the balanced flag.
func (f *FinancialPosition) Reconcile() {
	f.Cash = f.MainCash.Add(f.PettyCash)
	f.TotalAssets = f.Cash.Add(f.Receivables)
	f.TotalLiabilities = f.UnpaidSalaries
	f.TotalEquity = f.OpeningCapital.Add(f.RetainedEarnings)
	f.Difference = f.TotalAssets.Sub(f.TotalLiabilities.Add(f.TotalEquity))
	f.Balanced = f.Difference.Abs().LessThanOrEqual(BalanceEpsilon)
}

// BalanceCheck compares a stored balance with the one implied by its postings.
type BalanceCheck struct {
	Domain        BalanceDomain
	Stored        decimal.Decimal
	InitialAmount decimal.Decimal
	Postings      decimal.Decimal
	Expected      decimal.Decimal
	Consistent    bool
}

// JournalMismatch describes a cash book entry whose ledger mirror is missing or wrong.
type JournalMismatch struct {
	TransactionID string
	Reason        string
	Expected      decimal.Decimal
	Found         decimal.Decimal
	Mirrors       int
}

// ConsistencyReport is the result of a full engine consistency check.
type ConsistencyReport struct {
	CheckedAt         time.Time
	Balances          []BalanceCheck
	JournalMismatches []JournalMismatch
	CashBookEntries   int
	LedgerEntries     int
	IsConsistent      bool
}

// Finalize sets IsConsistent from the collected checks.
func (r *ConsistencyReport) Finalize() {
	r.IsConsistent = len(r.JournalMismatches) == 0
	for _, b := range r.Balances {
		if !b.Consistent {
			r.IsConsistent = false
		}
	}
}
