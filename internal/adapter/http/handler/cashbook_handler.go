package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// CashBookService defines the behavior needed by CashBookHandler.
type CashBookService interface {
	Post(ctx context.Context, input usecase.PostCashBookInput) (*domain.CashBookEntry, error)
	OpenBalance(ctx context.Context, amount decimal.Decimal) (*domain.BalanceRecord, error)
	Update(ctx context.Context, id string, input usecase.UpdateCashBookInput) (*domain.CashBookEntry, error)
	Delete(ctx context.Context, id string) error
	ListByPeriod(ctx context.Context, period domain.Period) ([]*domain.CashBookEntry, error)
}

// CashBookHandler handles main cash book requests.
type CashBookHandler struct {
	cashBookUC CashBookService
	clock      usecase.Clock
}

// NewCashBookHandler creates a new CashBookHandler.
func NewCashBookHandler(cashBookUC CashBookService, clock usecase.Clock) *CashBookHandler {
	return &CashBookHandler{cashBookUC: cashBookUC, clock: clock}
}

// Create posts a cash book entry.
func (h *CashBookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.PostCashBookRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, "invalid request", err)
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		respondError(w, r, "invalid request", err)
		return
	}

	entry, err := h.cashBookUC.Post(r.Context(), input)
	if err != nil {
		respondError(w, r, "failed to post cash book entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.CashBookEntryFromDomain(entry))
}

// List returns the entries of a month.
func (h *CashBookHandler) List(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriodQuery(r, h.clock.Now(), h.clock.Location())
	if err != nil {
		respondError(w, r, "invalid period", err)
		return
	}

	entries, err := h.cashBookUC.ListByPeriod(r.Context(), period)
	if err != nil {
		respondError(w, r, "failed to list cash book", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"period":  period.String(),
		"entries": dto.CashBookEntriesFromDomain(entries),
	})
}

// OpenBalance sets the opening main cash amount.
func (h *CashBookHandler) OpenBalance(w http.ResponseWriter, r *http.Request) {
	var req dto.OpeningBalanceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, "invalid request", err)
		return
	}

	rec, err := h.cashBookUC.OpenBalance(r.Context(), req.Amount)
	if err != nil {
		respondError(w, r, "failed to open balance", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.BalanceFromDomain(rec))
}

// Update corrects a cash book entry.
func (h *CashBookHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateCashBookRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, "invalid request", err)
		return
	}

	entry, err := h.cashBookUC.Update(r.Context(), chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		respondError(w, r, "failed to update cash book entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CashBookEntryFromDomain(entry))
}

// Delete reverses a cash book entry.
func (h *CashBookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.cashBookUC.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, "failed to delete cash book entry", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
