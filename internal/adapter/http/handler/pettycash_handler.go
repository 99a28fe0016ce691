package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// PettyCashService defines the behavior needed by PettyCashHandler.
type PettyCashService interface {
	Add(ctx context.Context, input usecase.AddPettyCashInput) (*domain.PettyCashEntry, error)
	Update(ctx context.Context, id string, input usecase.UpdatePettyCashInput) (*domain.PettyCashEntry, error)
	Delete(ctx context.Context, id string) error
	GetByMonth(ctx context.Context, period domain.Period) (*domain.PettyCashFund, error)
}

// PettyCashHandler handles petty cash requests.
type PettyCashHandler struct {
	pettyUC PettyCashService
	clock   usecase.Clock
}

// NewPettyCashHandler creates a new PettyCashHandler.
func NewPettyCashHandler(pettyUC PettyCashService, clock usecase.Clock) *PettyCashHandler {
	return &PettyCashHandler{pettyUC: pettyUC, clock: clock}
}

// Create posts a petty cash entry of any kind.
func (h *PettyCashHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.AddPettyCashRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, "invalid request", err)
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		respondError(w, r, "invalid request", err)
		return
	}

	entry, err := h.pettyUC.Add(r.Context(), input)
	if err != nil {
		respondError(w, r, "failed to post petty cash entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PettyCashEntryFromDomain(entry))
}

// GetByMonth returns the fund view of a month.
func (h *PettyCashHandler) GetByMonth(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriodQuery(r, h.clock.Now(), h.clock.Location())
	if err != nil {
		respondError(w, r, "invalid period", err)
		return
	}

	fund, err := h.pettyUC.GetByMonth(r.Context(), period)
	if err != nil {
		respondError(w, r, "failed to load petty cash", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PettyCashFundFromDomain(fund))
}

// Update corrects a petty cash entry.
func (h *PettyCashHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdatePettyCashRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, "invalid request", err)
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		respondError(w, r, "invalid request", err)
		return
	}

	entry, err := h.pettyUC.Update(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		respondError(w, r, "failed to update petty cash entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PettyCashEntryFromDomain(entry))
}

// Delete removes a petty cash entry and reverses its effects.
func (h *PettyCashHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.pettyUC.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, "failed to delete petty cash entry", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
