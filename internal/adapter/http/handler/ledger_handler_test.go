package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
)

type ledgerStub struct {
	listFn    func(ctx context.Context, period domain.Period) ([]*domain.LedgerEntry, error)
	checkFn   func(ctx context.Context) (*domain.ConsistencyReport, error)
	balanceFn func(ctx context.Context, d domain.BalanceDomain) (*domain.BalanceRecord, error)
}

func (s *ledgerStub) ListByPeriod(ctx context.Context, period domain.Period) ([]*domain.LedgerEntry, error) {
	return s.listFn(ctx, period)
}

func (s *ledgerStub) CheckConsistency(ctx context.Context) (*domain.ConsistencyReport, error) {
	return s.checkFn(ctx)
}

func (s *ledgerStub) GetBalance(ctx context.Context, d domain.BalanceDomain) (*domain.BalanceRecord, error) {
	return s.balanceFn(ctx, d)
}

func newLedgerHandler(s *ledgerStub) *LedgerHandler {
	return NewLedgerHandler(s, s, s, testClock())
}

func TestLedgerHandler_CheckConsistency_OK(t *testing.T) {
	handler := newLedgerHandler(&ledgerStub{
		checkFn: func(ctx context.Context) (*domain.ConsistencyReport, error) {
			return &domain.ConsistencyReport{IsConsistent: true, CashBookEntries: 3, LedgerEntries: 3}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/ledger/consistency", nil)
	rec := httptest.NewRecorder()

	handler.CheckConsistency(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.ConsistencyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.IsConsistent || resp.LedgerEntries != 3 {
		t.Fatalf("unexpected report %+v", resp)
	}
}

func TestLedgerHandler_CheckConsistency_Violation(t *testing.T) {
	handler := newLedgerHandler(&ledgerStub{
		checkFn: func(ctx context.Context) (*domain.ConsistencyReport, error) {
			report := &domain.ConsistencyReport{
				JournalMismatches: []domain.JournalMismatch{{TransactionID: "cb-1", Reason: "missing journal entry"}},
			}
			return report, fmt.Errorf("%w: 1 journal mismatch", domain.ErrConsistency)
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/ledger/consistency", nil)
	rec := httptest.NewRecorder()

	handler.CheckConsistency(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	var resp dto.ConsistencyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.IsConsistent || len(resp.JournalMismatches) != 1 {
		t.Fatalf("unexpected report %+v", resp)
	}
}

func TestLedgerHandler_CheckConsistency_Failure(t *testing.T) {
	handler := newLedgerHandler(&ledgerStub{
		checkFn: func(ctx context.Context) (*domain.ConsistencyReport, error) {
			return nil, errors.New("db down")
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/ledger/consistency", nil)
	rec := httptest.NewRecorder()

	handler.CheckConsistency(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestLedgerHandler_List(t *testing.T) {
	handler := newLedgerHandler(&ledgerStub{
		listFn: func(ctx context.Context, period domain.Period) ([]*domain.LedgerEntry, error) {
			return []*domain.LedgerEntry{{ID: "le-1", TransactionID: "cb-1", Amount: decimal.NewFromInt(-50)}}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/ledger?month=2024-03", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Period  string                     `json:"period"`
		Entries []*dto.LedgerEntryResponse `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Period != "2024-03" || len(resp.Entries) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestLedgerHandler_Balance(t *testing.T) {
	handler := newLedgerHandler(&ledgerStub{
		balanceFn: func(ctx context.Context, d domain.BalanceDomain) (*domain.BalanceRecord, error) {
			return &domain.BalanceRecord{Domain: d, Balance: decimal.NewFromInt(42)}, nil
		},
	})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/balances/petty", nil), "domain", "petty")
	rec := httptest.NewRecorder()
	handler.Balance(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req = withURLParam(httptest.NewRequest(http.MethodGet, "/balances/savings", nil), "domain", "savings")
	rec = httptest.NewRecorder()
	handler.Balance(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown domain, got %d", rec.Code)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	ok := PingerFunc(func(context.Context) error { return nil })
	down := PingerFunc(func(context.Context) error { return errors.New("refused") })

	tests := []struct {
		name     string
		postgres Pinger
		redis    Pinger
		expected int
	}{
		{"memory only", nil, nil, http.StatusOK},
		{"all up", ok, ok, http.StatusOK},
		{"postgres down", down, ok, http.StatusServiceUnavailable},
		{"redis down", ok, down, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHealthHandler(tt.postgres, tt.redis).Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
			if rec.Code != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, rec.Code)
			}
		})
	}
}
