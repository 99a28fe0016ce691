package handler

import (
	"context"
	"net/http"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// ReportService defines the behavior needed by ReportHandler.
type ReportService interface {
	ProfitAndLoss(ctx context.Context, year, month int) (*domain.ProfitLossStatement, error)
	FinancialPosition(ctx context.Context, year, month int) (*domain.FinancialPosition, error)
}

// ReportHandler serves financial statements.
type ReportHandler struct {
	reportUC ReportService
	clock    usecase.Clock
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportUC ReportService, clock usecase.Clock) *ReportHandler {
	return &ReportHandler{reportUC: reportUC, clock: clock}
}

// ProfitLoss returns the income statement of a month.
func (h *ReportHandler) ProfitLoss(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriodQuery(r, h.clock.Now(), h.clock.Location())
	if err != nil {
		respondError(w, r, "invalid period", err)
		return
	}

	statement, err := h.reportUC.ProfitAndLoss(r.Context(), period.Year, int(period.Month))
	if err != nil {
		respondError(w, r, "failed to build profit and loss", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ProfitLossFromDomain(statement))
}

// Position returns the balance sheet at the end of a month.
func (h *ReportHandler) Position(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriodQuery(r, h.clock.Now(), h.clock.Location())
	if err != nil {
		respondError(w, r, "invalid period", err)
		return
	}

	position, err := h.reportUC.FinancialPosition(r.Context(), period.Year, int(period.Month))
	if err != nil {
		respondError(w, r, "failed to build financial position", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PositionFromDomain(position))
}
