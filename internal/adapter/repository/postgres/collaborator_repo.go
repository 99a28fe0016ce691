package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

// HRDirectory reads employees and overtime from the HR subsystem tables.
// It implements usecase.EmployeeDirectory and usecase.OvertimeSource.
type HRDirectory struct {
	db DB
}

// NewHRDirectory creates a new HRDirectory.
func NewHRDirectory(db DB) *HRDirectory {
	return &HRDirectory{db: db}
}

// ListActive returns active employees ordered by ID.
func (h *HRDirectory) ListActive(ctx context.Context) ([]domain.Employee, error) {
	rows, err := h.db.Query(ctx, `SELECT id, name, basic_salary FROM employees WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var employees []domain.Employee
	for rows.Next() {
		var (
			emp    domain.Employee
			salary pgtype.Numeric
		)
		if err := rows.Scan(&emp.ID, &emp.Name, &salary); err != nil {
			return nil, err
		}
		emp.BasicSalary = numericToDecimal(salary)
		employees = append(employees, emp)
	}

	return employees, rows.Err()
}

// MonthlyOvertime sums an employee's overtime for a YYYY-MM month.
// The reported rate is the effective rate, pay divided by hours.
func (h *HRDirectory) MonthlyOvertime(ctx context.Context, employeeID, month string) (domain.OvertimeSummary, error) {
	period, err := domain.ParsePeriod(month)
	if err != nil {
		return domain.OvertimeSummary{}, err
	}
	start, _ := period.Bounds(time.UTC)

	query := `
		SELECT COALESCE(SUM(hours), 0), COALESCE(SUM(pay), 0)
		FROM overtime_records
		WHERE employee_id = $1 AND work_date >= $2 AND work_date < $3
	`

	var hours, pay pgtype.Numeric
	err = h.db.QueryRow(ctx, query,
		employeeID,
		pgtype.Date{Time: start, Valid: true},
		pgtype.Date{Time: start.AddDate(0, 1, 0), Valid: true},
	).Scan(&hours, &pay)
	if err != nil {
		return domain.OvertimeSummary{}, fmt.Errorf("sum overtime: %w", err)
	}

	summary := domain.OvertimeSummary{
		Hours: numericToDecimal(hours),
		Pay:   numericToDecimal(pay),
		Rate:  decimal.Zero,
	}
	if summary.Hours.IsPositive() {
		summary.Rate = summary.Pay.Div(summary.Hours).Round(domain.AmountScale)
	}

	return summary, nil
}

// OrderRevenue reads completed order totals from the order subsystem tables.
// It implements usecase.RevenueSource.
type OrderRevenue struct {
	db DB
}

// NewOrderRevenue creates a new OrderRevenue.
func NewOrderRevenue(db DB) *OrderRevenue {
	return &OrderRevenue{db: db}
}

// CompletedOrderRevenue sums totals of orders completed within [from, to].
func (o *OrderRevenue) CompletedOrderRevenue(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(total), 0)
		FROM orders
		WHERE status = 'Completed' AND completed_at BETWEEN $1 AND $2
	`

	var total pgtype.Numeric
	if err := o.db.QueryRow(ctx, query, timeToPgTimestamptz(from), timeToPgTimestamptz(to)).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum order revenue: %w", err)
	}

	return numericToDecimal(total), nil
}

// OutstandingReceivables sums unpaid remainders of orders completed by asOf.
func (o *OrderRevenue) OutstandingReceivables(ctx context.Context, asOf time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(total - paid_amount), 0)
		FROM orders
		WHERE status = 'Completed' AND completed_at <= $1 AND total > paid_amount
	`

	var due pgtype.Numeric
	if err := o.db.QueryRow(ctx, query, timeToPgTimestamptz(asOf)).Scan(&due); err != nil {
		return decimal.Zero, fmt.Errorf("sum receivables: %w", err)
	}

	return numericToDecimal(due), nil
}
