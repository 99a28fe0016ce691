package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalaryStatus is the payment state of a salary record.
type SalaryStatus string

const (
	SalaryPending   SalaryStatus = "Pending"
	SalaryCompleted SalaryStatus = "Completed"
)

// SalaryRecord is one employee's payroll for one month.
// It is unique by (EmployeeID, Month).
type SalaryRecord struct {
	CreatedAt       time.Time
	UpdatedAt       time.Time
	PaymentDate     *time.Time
	CashBookEntryID *string
	ID              string
	EmployeeID      string
	EmployeeName    string
	Month           string
	Status          SalaryStatus
	BasicSalary     decimal.Decimal
	OvertimeHours   decimal.Decimal
	OvertimeRate    decimal.Decimal
	TotalOvertime   decimal.Decimal
	EPF             decimal.Decimal
	ETF             decimal.Decimal
	NetSalary       decimal.Decimal
}

// IsPaid reports whether the salary has been disbursed.
func (s *SalaryRecord) IsPaid() bool {
	return s.Status == SalaryCompleted
}

// MarkPaid transitions the record from Pending to Completed. A zero net salary
// is settled without a cash book entry, signalled by an empty id.
func (s *SalaryRecord) MarkPaid(cashBookEntryID string, at time.Time) error {
	if s.Status != SalaryPending {
		return ErrAlreadyPaid
	}
	s.Status = SalaryCompleted
	s.PaymentDate = &at
	s.UpdatedAt = at
	if cashBookEntryID != "" {
		s.CashBookEntryID = &cashBookEntryID
	}
	return nil
}

// Employee is the payroll view of an employee, owned by the HR subsystem.
type Employee struct {
	ID          string
	Name        string
	BasicSalary decimal.Decimal
}

// OvertimeSummary aggregates an employee's overtime for one month.
type OvertimeSummary struct {
	Hours decimal.Decimal
	Rate  decimal.Decimal
	Pay   decimal.Decimal
}

// PayrollPolicy holds the statutory contribution rates.
type PayrollPolicy struct {
	EPFRate decimal.Decimal
	ETFRate decimal.Decimal
}

// DefaultPayrollPolicy returns EPF 8% and ETF 3%.
func DefaultPayrollPolicy() PayrollPolicy {
	return PayrollPolicy{
		EPFRate: decimal.RequireFromString("0.08"),
		ETFRate: decimal.RequireFromString("0.03"),
	}
}

// Validate checks the rates are fractions in [0, 1).
func (p PayrollPolicy) Validate() error {
	one := decimal.NewFromInt(1)
	if p.EPFRate.IsNegative() || !p.EPFRate.LessThan(one) {
		return ErrValidation
	}
	if p.ETFRate.IsNegative() || !p.ETFRate.LessThan(one) {
		return ErrValidation
	}
	return nil
}

// Compute builds a pending salary record for an employee and month.
// Money values are rounded to two decimals.
func (p PayrollPolicy) Compute(emp Employee, month string, overtime OvertimeSummary) *SalaryRecord {
	basic := emp.BasicSalary.Round(AmountScale)
	overtimePay := overtime.Pay.Round(AmountScale)
	epf := basic.Mul(p.EPFRate).Round(AmountScale)
	etf := basic.Mul(p.ETFRate).Round(AmountScale)

	return &SalaryRecord{
		EmployeeID:    emp.ID,
		EmployeeName:  emp.Name,
		Month:         month,
		Status:        SalaryPending,
		BasicSalary:   basic,
		OvertimeHours: overtime.Hours,
		OvertimeRate:  overtime.Rate,
		TotalOvertime: overtimePay,
		EPF:           epf,
		ETF:           etf,
		NetSalary:     basic.Add(overtimePay).Sub(epf),
	}
}
