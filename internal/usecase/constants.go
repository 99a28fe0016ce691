package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultReportCacheTTL is how long computed statements are cached
	DefaultReportCacheTTL = 5 * time.Minute
)

// Operation names used for metrics and logs.
const (
	OpCashBookPost       = "cashbook.post"
	OpCashBookOpen       = "cashbook.open"
	OpCashBookUpdate     = "cashbook.update"
	OpCashBookDelete     = "cashbook.delete"
	OpPettyCashInitial   = "pettycash.initial"
	OpPettyCashExpense   = "pettycash.expense"
	OpPettyCashReimburse = "pettycash.reimbursement"
	OpPettyCashUpdate    = "pettycash.update"
	OpPettyCashDelete    = "pettycash.delete"
	OpPayrollRun         = "payroll.run"
	OpPayrollPay         = "payroll.pay"
)
