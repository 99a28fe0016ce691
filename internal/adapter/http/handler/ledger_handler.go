package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// JournalService lists the ledger journal.
type JournalService interface {
	ListByPeriod(ctx context.Context, period domain.Period) ([]*domain.LedgerEntry, error)
}

// ConsistencyService checks stored balances against the books.
type ConsistencyService interface {
	CheckConsistency(ctx context.Context) (*domain.ConsistencyReport, error)
}

// BalanceService reads balance records.
type BalanceService interface {
	GetBalance(ctx context.Context, d domain.BalanceDomain) (*domain.BalanceRecord, error)
}

// LedgerHandler handles ledger-wide operations.
type LedgerHandler struct {
	journal  JournalService
	ledgerUC ConsistencyService
	balances BalanceService
	clock    usecase.Clock
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(journal JournalService, ledgerUC ConsistencyService, balances BalanceService, clock usecase.Clock) *LedgerHandler {
	return &LedgerHandler{journal: journal, ledgerUC: ledgerUC, balances: balances, clock: clock}
}

// List returns the journal entries of a month.
func (h *LedgerHandler) List(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriodQuery(r, h.clock.Now(), h.clock.Location())
	if err != nil {
		respondError(w, r, "invalid period", err)
		return
	}

	entries, err := h.journal.ListByPeriod(r.Context(), period)
	if err != nil {
		respondError(w, r, "failed to list ledger", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"period":  period.String(),
		"entries": dto.LedgerEntriesFromDomain(entries),
	})
}

// CheckConsistency checks if the ledger is consistent.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	report, err := h.ledgerUC.CheckConsistency(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrConsistency) && report != nil {
			zerolog.Ctx(r.Context()).Error().
				Int("journal_mismatches", len(report.JournalMismatches)).
				Msg("ledger consistency violated")
			writeJSON(w, http.StatusConflict, dto.ConsistencyFromDomain(report))
			return
		}
		respondError(w, r, "failed to check consistency", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyFromDomain(report))
}

// Balance returns the record of one balance domain.
func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	d := domain.BalanceDomain(chi.URLParam(r, "domain"))
	if !d.IsValid() {
		respondError(w, r, "invalid balance domain", domain.ErrInvalidDomain)
		return
	}

	rec, err := h.balances.GetBalance(r.Context(), d)
	if err != nil {
		respondError(w, r, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(rec))
}
