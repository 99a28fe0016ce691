package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

// CashBookEntryResponse represents a cash book entry in API responses.
type CashBookEntryResponse struct {
	ID            string          `json:"id"`
	Seq           int64           `json:"seq"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Direction     string          `json:"direction"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	ReferenceType string          `json:"reference_type,omitempty"`
	ReferenceID   *string         `json:"reference_id,omitempty"`
	Date          time.Time       `json:"date"`
	CreatedAt     time.Time       `json:"created_at"`
}

// CashBookEntryFromDomain converts a domain entry to response.
func CashBookEntryFromDomain(e *domain.CashBookEntry) *CashBookEntryResponse {
	return &CashBookEntryResponse{
		ID:            e.ID,
		Seq:           e.Seq,
		Description:   e.Description,
		Category:      e.Category,
		Direction:     string(e.Direction),
		Amount:        e.Amount,
		BalanceAfter:  e.BalanceAfter,
		ReferenceType: string(e.ReferenceType),
		ReferenceID:   e.ReferenceID,
		Date:          e.Date,
		CreatedAt:     e.CreatedAt,
	}
}

// CashBookEntriesFromDomain converts domain entries to responses.
func CashBookEntriesFromDomain(entries []*domain.CashBookEntry) []*CashBookEntryResponse {
	result := make([]*CashBookEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = CashBookEntryFromDomain(e)
	}
	return result
}

// PettyCashEntryResponse represents a petty cash entry in API responses.
type PettyCashEntryResponse struct {
	ID              string          `json:"id"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Kind            string          `json:"kind"`
	Amount          decimal.Decimal `json:"amount"`
	CashBookEntryID *string         `json:"cash_book_entry_id,omitempty"`
	Date            time.Time       `json:"date"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// PettyCashEntryFromDomain converts a domain entry to response.
func PettyCashEntryFromDomain(e *domain.PettyCashEntry) *PettyCashEntryResponse {
	return &PettyCashEntryResponse{
		ID:              e.ID,
		Description:     e.Description,
		Category:        e.Category,
		Kind:            string(e.Kind),
		Amount:          e.Amount,
		CashBookEntryID: e.CashBookEntryID,
		Date:            e.Date,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// PettyCashFundResponse is the monthly view of the petty cash fund.
type PettyCashFundResponse struct {
	Entries        []*PettyCashEntryResponse `json:"entries"`
	CurrentBalance decimal.Decimal           `json:"current_balance"`
	Outstanding    decimal.Decimal           `json:"outstanding"`
	Funded         bool                      `json:"funded"`
}

// PettyCashFundFromDomain converts a fund view to response.
func PettyCashFundFromDomain(f *domain.PettyCashFund) *PettyCashFundResponse {
	entries := make([]*PettyCashEntryResponse, len(f.Entries))
	for i, e := range f.Entries {
		entries[i] = PettyCashEntryFromDomain(e)
	}
	return &PettyCashFundResponse{
		Entries:        entries,
		CurrentBalance: f.CurrentBalance,
		Outstanding:    f.Outstanding,
		Funded:         f.Funded,
	}
}

// LedgerEntryResponse represents a journal entry in API responses.
type LedgerEntryResponse struct {
	ID              string          `json:"id"`
	TransactionID   string          `json:"transaction_id"`
	Source          string          `json:"source"`
	TransactionType string          `json:"transaction_type"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Amount          decimal.Decimal `json:"amount"`
	Date            time.Time       `json:"date"`
}

// LedgerEntriesFromDomain converts journal entries to responses.
func LedgerEntriesFromDomain(entries []*domain.LedgerEntry) []*LedgerEntryResponse {
	result := make([]*LedgerEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = &LedgerEntryResponse{
			ID:              e.ID,
			TransactionID:   e.TransactionID,
			Source:          string(e.Source),
			TransactionType: e.TransactionType,
			Description:     e.Description,
			Category:        e.Category,
			Amount:          e.Amount,
			Date:            e.Date,
		}
	}
	return result
}

// SalaryResponse represents a salary record in API responses.
type SalaryResponse struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	EmployeeName    string          `json:"employee_name"`
	Month           string          `json:"month"`
	BasicSalary     decimal.Decimal `json:"basic_salary"`
	OvertimeHours   decimal.Decimal `json:"overtime_hours"`
	OvertimeRate    decimal.Decimal `json:"overtime_rate"`
	TotalOvertime   decimal.Decimal `json:"total_overtime"`
	EPF             decimal.Decimal `json:"epf"`
	ETF             decimal.Decimal `json:"etf"`
	NetSalary       decimal.Decimal `json:"net_salary"`
	Status          string          `json:"status"`
	PaymentDate     *time.Time      `json:"payment_date,omitempty"`
	CashBookEntryID *string         `json:"cash_book_entry_id,omitempty"`
}

// SalaryFromDomain converts a salary record to response.
func SalaryFromDomain(s *domain.SalaryRecord) *SalaryResponse {
	return &SalaryResponse{
		ID:              s.ID,
		EmployeeID:      s.EmployeeID,
		EmployeeName:    s.EmployeeName,
		Month:           s.Month,
		BasicSalary:     s.BasicSalary,
		OvertimeHours:   s.OvertimeHours,
		OvertimeRate:    s.OvertimeRate,
		TotalOvertime:   s.TotalOvertime,
		EPF:             s.EPF,
		ETF:             s.ETF,
		NetSalary:       s.NetSalary,
		Status:          string(s.Status),
		PaymentDate:     s.PaymentDate,
		CashBookEntryID: s.CashBookEntryID,
	}
}

// SalariesFromDomain converts salary records to responses.
func SalariesFromDomain(records []*domain.SalaryRecord) []*SalaryResponse {
	result := make([]*SalaryResponse, len(records))
	for i, s := range records {
		result[i] = SalaryFromDomain(s)
	}
	return result
}

// BalanceResponse represents a balance record in API responses.
type BalanceResponse struct {
	Domain        string          `json:"domain"`
	Balance       decimal.Decimal `json:"balance"`
	InitialAmount decimal.Decimal `json:"initial_amount"`
	Version       int64           `json:"version"`
	LastUpdated   time.Time       `json:"last_updated"`
}

// BalanceFromDomain converts a balance record to response.
func BalanceFromDomain(b *domain.BalanceRecord) *BalanceResponse {
	return &BalanceResponse{
		Domain:        string(b.Domain),
		Balance:       b.Balance,
		InitialAmount: b.InitialAmount,
		Version:       b.Version,
		LastUpdated:   b.LastUpdated,
	}
}

// ProfitLossResponse is the income statement of a month.
type ProfitLossResponse struct {
	Period           string          `json:"period"`
	From             time.Time       `json:"from"`
	To               time.Time       `json:"to"`
	Revenue          decimal.Decimal `json:"revenue"`
	SalaryExpense    decimal.Decimal `json:"salary_expense"`
	PettyCashExpense decimal.Decimal `json:"petty_cash_expense"`
	Expenses         decimal.Decimal `json:"expenses"`
	NetProfit        decimal.Decimal `json:"net_profit"`
}

// ProfitLossFromDomain converts a statement to response.
func ProfitLossFromDomain(s *domain.ProfitLossStatement) *ProfitLossResponse {
	return &ProfitLossResponse{
		Period:           s.Period,
		From:             s.From,
		To:               s.To,
		Revenue:          s.Revenue,
		SalaryExpense:    s.SalaryExpense,
		PettyCashExpense: s.PettyCashExpense,
		Expenses:         s.Expenses,
		NetProfit:        s.NetProfit,
	}
}

// PositionResponse is the balance sheet at the end of a month.
type PositionResponse struct {
	Period      string          `json:"period"`
	AsOf        time.Time       `json:"as_of"`
	Assets      Assets          `json:"assets"`
	Liabilities Liabilities     `json:"liabilities"`
	Equity      Equity          `json:"equity"`
	Balanced    bool            `json:"balanced"`
	Difference  decimal.Decimal `json:"difference"`
}

// Assets groups the asset side of a position.
type Assets struct {
	MainCash    decimal.Decimal `json:"main_cash"`
	PettyCash   decimal.Decimal `json:"petty_cash"`
	Cash        decimal.Decimal `json:"cash"`
	Receivables decimal.Decimal `json:"receivables"`
	Total       decimal.Decimal `json:"total"`
}

// Liabilities groups what the business owes.
type Liabilities struct {
	UnpaidSalaries decimal.Decimal `json:"unpaid_salaries"`
	Total          decimal.Decimal `json:"total"`
}

// Equity groups owner capital and retained earnings.
type Equity struct {
	OpeningCapital   decimal.Decimal `json:"opening_capital"`
	RetainedEarnings decimal.Decimal `json:"retained_earnings"`
	Total            decimal.Decimal `json:"total"`
}

// PositionFromDomain converts a financial position to response.
func PositionFromDomain(p *domain.FinancialPosition) *PositionResponse {
	return &PositionResponse{
		Period: p.Period,
		AsOf:   p.AsOf,
		Assets: Assets{
			MainCash:    p.MainCash,
			PettyCash:   p.PettyCash,
			Cash:        p.Cash,
			Receivables: p.Receivables,
			Total:       p.TotalAssets,
		},
		Liabilities: Liabilities{
			UnpaidSalaries: p.UnpaidSalaries,
			Total:          p.TotalLiabilities,
		},
		Equity: Equity{
			OpeningCapital:   p.OpeningCapital,
			RetainedEarnings: p.RetainedEarnings,
			Total:            p.TotalEquity,
		},
		Balanced:   p.Balanced,
		Difference: p.Difference,
	}
}

// BalanceCheckResponse is one domain's line in a consistency report.
type BalanceCheckResponse struct {
	Domain        string          `json:"domain"`
	Stored        decimal.Decimal `json:"stored"`
	InitialAmount decimal.Decimal `json:"initial_amount"`
	Postings      decimal.Decimal `json:"postings"`
	Expected      decimal.Decimal `json:"expected"`
	Consistent    bool            `json:"consistent"`
}

// JournalMismatchResponse describes a cash book entry and journal disagreement.
type JournalMismatchResponse struct {
	TransactionID string          `json:"transaction_id"`
	Reason        string          `json:"reason"`
	Expected      decimal.Decimal `json:"expected"`
	Found         decimal.Decimal `json:"found"`
	Mirrors       int             `json:"mirrors"`
}

// ConsistencyResponse is the result of a ledger consistency check.
type ConsistencyResponse struct {
	CheckedAt         time.Time                 `json:"checked_at"`
	IsConsistent      bool                      `json:"is_consistent"`
	CashBookEntries   int                       `json:"cash_book_entries"`
	LedgerEntries     int                       `json:"ledger_entries"`
	Balances          []BalanceCheckResponse    `json:"balances"`
	JournalMismatches []JournalMismatchResponse `json:"journal_mismatches"`
}

// ConsistencyFromDomain converts a consistency report to response.
func ConsistencyFromDomain(r *domain.ConsistencyReport) *ConsistencyResponse {
	resp := &ConsistencyResponse{
		CheckedAt:         r.CheckedAt,
		IsConsistent:      r.IsConsistent,
		CashBookEntries:   r.CashBookEntries,
		LedgerEntries:     r.LedgerEntries,
		Balances:          make([]BalanceCheckResponse, len(r.Balances)),
		JournalMismatches: make([]JournalMismatchResponse, len(r.JournalMismatches)),
	}
	for i, b := range r.Balances {
		resp.Balances[i] = BalanceCheckResponse{
			Domain:        string(b.Domain),
			Stored:        b.Stored,
			InitialAmount: b.InitialAmount,
			Postings:      b.Postings,
			Expected:      b.Expected,
			Consistent:    b.Consistent,
		}
	}
	for i, m := range r.JournalMismatches {
		resp.JournalMismatches[i] = JournalMismatchResponse{
			TransactionID: m.TransactionID,
			Reason:        m.Reason,
			Expected:      m.Expected,
			Found:         m.Found,
			Mirrors:       m.Mirrors,
		}
	}
	return resp
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}
