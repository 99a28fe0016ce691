package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// PayrollService defines the behavior needed by PayrollHandler.
type PayrollService interface {
	RunMonthlyPayroll(ctx context.Context, month string) ([]*domain.SalaryRecord, error)
	MarkPaid(ctx context.Context, salaryID string) (*domain.SalaryRecord, error)
	Get(ctx context.Context, id string) (*domain.SalaryRecord, error)
	ListByMonth(ctx context.Context, month string) ([]*domain.SalaryRecord, error)
}

// PayrollHandler handles payroll requests.
type PayrollHandler struct {
	payrollUC PayrollService
	clock     usecase.Clock
}

// NewPayrollHandler creates a new PayrollHandler.
func NewPayrollHandler(payrollUC PayrollService, clock usecase.Clock) *PayrollHandler {
	return &PayrollHandler{payrollUC: payrollUC, clock: clock}
}

// Calculate generates the salary records of a month.
func (h *PayrollHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req dto.CalculatePayrollRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, "invalid request", err)
		return
	}

	records, err := h.payrollUC.RunMonthlyPayroll(r.Context(), req.Month)
	if err != nil {
		respondError(w, r, "failed to calculate payroll", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"month":    req.Month,
		"salaries": dto.SalariesFromDomain(records),
	})
}

// List returns the salary records of ?month=YYYY-MM, defaulting to the current month.
func (h *PayrollHandler) List(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriodQuery(r, h.clock.Now(), h.clock.Location())
	if err != nil {
		respondError(w, r, "invalid month", err)
		return
	}

	records, err := h.payrollUC.ListByMonth(r.Context(), period.String())
	if err != nil {
		respondError(w, r, "failed to list salaries", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"month":    period.String(),
		"salaries": dto.SalariesFromDomain(records),
	})
}

// Get returns one salary record.
func (h *PayrollHandler) Get(w http.ResponseWriter, r *http.Request) {
	record, err := h.payrollUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, "failed to get salary", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SalaryFromDomain(record))
}

// Pay marks a salary as paid out of main cash.
func (h *PayrollHandler) Pay(w http.ResponseWriter, r *http.Request) {
	record, err := h.payrollUC.MarkPaid(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, "failed to pay salary", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SalaryFromDomain(record))
}
