package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iho/cashledger/internal/domain"
)

// PayrollUseCase generates monthly salaries and pays them out of main cash.
type PayrollUseCase struct {
	uow        *UnitOfWork
	cashBook   *CashBookUseCase
	salaryRepo SalaryRepository
	employees  EmployeeDirectory
	overtime   OvertimeSource
	policy     domain.PayrollPolicy
}

// NewPayrollUseCase creates a new PayrollUseCase.
func NewPayrollUseCase(
	uow *UnitOfWork,
	cashBook *CashBookUseCase,
	salaryRepo SalaryRepository,
	employees EmployeeDirectory,
	overtime OvertimeSource,
	policy domain.PayrollPolicy,
) *PayrollUseCase {
	return &PayrollUseCase{
		uow:        uow,
		cashBook:   cashBook,
		salaryRepo: salaryRepo,
		employees:  employees,
		overtime:   overtime,
		policy:     policy,
	}
}

// RunMonthlyPayroll creates a pending salary for every active employee that has none for
// the month and returns the records it created. Employees already on the month's payroll
// are skipped, so the run is safe to repeat.
func (uc *PayrollUseCase) RunMonthlyPayroll(ctx context.Context, month string) ([]*domain.SalaryRecord, error) {
	period, err := domain.ParsePeriod(month)
	if err != nil {
		return nil, err
	}
	month = period.String()

	employees, err := uc.employees.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	existing, err := uc.salaryRepo.ListByMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, rec := range existing {
		seen[rec.EmployeeID] = struct{}{}
	}

	pending := make([]*domain.SalaryRecord, 0, len(employees))
	for _, emp := range employees {
		if _, ok := seen[emp.ID]; ok {
			continue
		}

		overtime, err := uc.overtime.MonthlyOvertime(ctx, emp.ID, month)
		if err != nil {
			return nil, fmt.Errorf("failed to read overtime for employee %s: %w", emp.ID, err)
		}

		pending = append(pending, uc.policy.Compute(emp, month, overtime))
	}

	if len(pending) == 0 {
		return []*domain.SalaryRecord{}, nil
	}

	created := make([]*domain.SalaryRecord, 0, len(pending))
	err = uc.uow.Run(ctx, OpPayrollRun, func(ctx context.Context, tx Transaction) error {
		created = created[:0]
		now := uc.uow.Now()

		for _, tmpl := range pending {
			rec := *tmpl
			rec.ID = uc.uow.NewID()
			rec.CreatedAt = now
			rec.UpdatedAt = now

			ok, err := uc.salaryRepo.CreateIfAbsent(ctx, tx, &rec)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}

			if err := uc.uow.Emit(ctx, tx, domain.AggregateTypeSalary, rec.ID, domain.EventTypePayrollGenerated, domain.SalaryEventPayload(&rec)); err != nil {
				return err
			}
			created = append(created, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("month", month).
		Int("created", len(created)).
		Int("skipped", len(employees)-len(created)).
		Msg("payroll generated")

	return created, nil
}

// MarkPaid pays a pending salary out of main cash.
func (uc *PayrollUseCase) MarkPaid(ctx context.Context, salaryID string) (*domain.SalaryRecord, error) {
	var (
		paid    *domain.SalaryRecord
		mainRec *domain.BalanceRecord
	)
	err := uc.uow.Run(ctx, OpPayrollPay, func(ctx context.Context, tx Transaction) error {
		rec, err := uc.salaryRepo.GetByIDForUpdate(ctx, tx, salaryID)
		if err != nil {
			return err
		}
		if rec.Status != domain.SalaryPending {
			return domain.ErrAlreadyPaid
		}

		cashBookEntryID := ""
		if rec.NetSalary.IsPositive() {
			cb, err := uc.cashBook.PostTx(ctx, tx, PostCashBookInput{
				Description: fmt.Sprintf("Salary %s %s", rec.EmployeeName, rec.Month),
				Category:    domain.CategorySalary,
				Direction:   domain.DirectionOutflow,
				Amount:      rec.NetSalary,
			}, &CashBookReference{
				Type:            domain.ReferenceSalary,
				ID:              rec.ID,
				TransactionType: "salary",
			})
			if err != nil {
				return err
			}
			cashBookEntryID = cb.ID
			mainRec = &domain.BalanceRecord{Domain: domain.DomainMain, Balance: cb.BalanceAfter}
		}

		if err := rec.MarkPaid(cashBookEntryID, uc.uow.Now()); err != nil {
			return err
		}
		if err := uc.salaryRepo.Update(ctx, tx, rec); err != nil {
			return err
		}

		paid = rec
		return uc.uow.Emit(ctx, tx, domain.AggregateTypeSalary, rec.ID, domain.EventTypeSalaryPaid, domain.SalaryEventPayload(rec))
	})
	if err != nil {
		return nil, err
	}

	uc.uow.recordBalance(mainRec)
	return paid, nil
}

// Get returns one salary record.
func (uc *PayrollUseCase) Get(ctx context.Context, id string) (*domain.SalaryRecord, error) {
	return uc.salaryRepo.GetByID(ctx, id)
}

// ListByMonth returns the payroll of one month.
func (uc *PayrollUseCase) ListByMonth(ctx context.Context, month string) ([]*domain.SalaryRecord, error) {
	period, err := domain.ParsePeriod(month)
	if err != nil {
		return nil, err
	}
	return uc.salaryRepo.ListByMonth(ctx, period.String())
}
