package domain

import "time"

// Event types
const (
	EventTypeCashBookPosted    = "cashbook.entry_posted"
	EventTypeCashBookCorrected = "cashbook.entry_corrected"
	EventTypeCashBookReversed  = "cashbook.entry_reversed"
	EventTypePettyCashPosted   = "pettycash.entry_posted"
	EventTypePettyCashUpdated  = "pettycash.entry_updated"
	EventTypePettyCashDeleted  = "pettycash.entry_deleted"
	EventTypePayrollGenerated  = "payroll.generated"
	EventTypeSalaryPaid        = "payroll.salary_paid"
)

// Aggregate types
const (
	AggregateTypeCashBook  = "cashbook_entry"
	AggregateTypePettyCash = "pettycash_entry"
	AggregateTypeSalary    = "salary"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Payload       map[string]any
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Published     bool
}

// CashBookEventPayload builds the payload of a cash book event.
func CashBookEventPayload(e *CashBookEntry) map[string]any {
	payload := map[string]any{
		"entry_id":      e.ID,
		"direction":     string(e.Direction),
		"amount":        e.Amount.String(),
		"category":      e.Category,
		"balance_after": e.BalanceAfter.String(),
		"date":          e.Date.Format(time.RFC3339Nano),
	}
	if e.HasReference() {
		payload["reference_type"] = string(e.ReferenceType)
		payload["reference_id"] = *e.ReferenceID
	}
	return payload
}

// PettyCashEventPayload builds the payload of a petty cash event.
func PettyCashEventPayload(e *PettyCashEntry) map[string]any {
	payload := map[string]any{
		"entry_id": e.ID,
		"kind":     string(e.Kind),
		"amount":   e.Amount.String(),
		"category": e.Category,
		"date":     e.Date.Format(time.RFC3339Nano),
	}
	if e.CashBookEntryID != nil {
		payload["cash_book_entry_id"] = *e.CashBookEntryID
	}
	return payload
}

// SalaryEventPayload builds the payload of a payroll event.
func SalaryEventPayload(s *SalaryRecord) map[string]any {
	payload := map[string]any{
		"salary_id":   s.ID,
		"employee_id": s.EmployeeID,
		"month":       s.Month,
		"net_salary":  s.NetSalary.String(),
		"status":      string(s.Status),
	}
	if s.CashBookEntryID != nil {
		payload["cash_book_entry_id"] = *s.CashBookEntryID
	}
	return payload
}
