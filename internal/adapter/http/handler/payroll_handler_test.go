package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
)

type payrollServiceStub struct {
	runFn  func(ctx context.Context, month string) ([]*domain.SalaryRecord, error)
	payFn  func(ctx context.Context, id string) (*domain.SalaryRecord, error)
	getFn  func(ctx context.Context, id string) (*domain.SalaryRecord, error)
	listFn func(ctx context.Context, month string) ([]*domain.SalaryRecord, error)
}

func (s *payrollServiceStub) RunMonthlyPayroll(ctx context.Context, month string) ([]*domain.SalaryRecord, error) {
	return s.runFn(ctx, month)
}

func (s *payrollServiceStub) MarkPaid(ctx context.Context, id string) (*domain.SalaryRecord, error) {
	return s.payFn(ctx, id)
}

func (s *payrollServiceStub) Get(ctx context.Context, id string) (*domain.SalaryRecord, error) {
	return s.getFn(ctx, id)
}

func (s *payrollServiceStub) ListByMonth(ctx context.Context, month string) ([]*domain.SalaryRecord, error) {
	return s.listFn(ctx, month)
}

func TestPayrollHandler_Calculate(t *testing.T) {
	handler := NewPayrollHandler(&payrollServiceStub{
		runFn: func(ctx context.Context, month string) ([]*domain.SalaryRecord, error) {
			return []*domain.SalaryRecord{{
				ID:          "sal-1",
				EmployeeID:  "emp-1",
				Month:       month,
				Status:      domain.SalaryPending,
				BasicSalary: decimal.NewFromInt(50000),
				NetSalary:   decimal.NewFromInt(46000),
			}}, nil
		},
	}, testClock())

	req := httptest.NewRequest(http.MethodPost, "/payroll/calculate", bytes.NewBufferString(`{"month":"2024-03"}`))
	rec := httptest.NewRecorder()

	handler.Calculate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Month    string                `json:"month"`
		Salaries []*dto.SalaryResponse `json:"salaries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Month != "2024-03" || len(resp.Salaries) != 1 || resp.Salaries[0].Status != "Pending" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestPayrollHandler_Calculate_InvalidMonth(t *testing.T) {
	handler := NewPayrollHandler(&payrollServiceStub{
		runFn: func(ctx context.Context, month string) ([]*domain.SalaryRecord, error) {
			t.Fatal("RunMonthlyPayroll should not be called")
			return nil, nil
		},
	}, testClock())

	for _, body := range []string{`{}`, `{"month":"March"}`, `{"month":"2024-13"}`} {
		req := httptest.NewRequest(http.MethodPost, "/payroll/calculate", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()

		handler.Calculate(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestPayrollHandler_List(t *testing.T) {
	var got string
	handler := NewPayrollHandler(&payrollServiceStub{
		listFn: func(ctx context.Context, month string) ([]*domain.SalaryRecord, error) {
			got = month
			return nil, nil
		},
	}, testClock())

	req := httptest.NewRequest(http.MethodGet, "/payroll?month=2024-01", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK || got != "2024-01" {
		t.Fatalf("expected 200 for 2024-01, got %d for %q", rec.Code, got)
	}
}

func TestPayrollHandler_Pay(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"paid", nil, http.StatusOK},
		{"already paid", domain.ErrAlreadyPaid, http.StatusConflict},
		{"not found", domain.ErrSalaryNotFound, http.StatusNotFound},
		{"insufficient main cash", domain.ErrInsufficientMainCash, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewPayrollHandler(&payrollServiceStub{
				payFn: func(ctx context.Context, id string) (*domain.SalaryRecord, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &domain.SalaryRecord{ID: id, Status: domain.SalaryCompleted}, nil
				},
			}, testClock())

			req := withURLParam(httptest.NewRequest(http.MethodPost, "/payroll/sal-1/pay", nil), "id", "sal-1")
			rec := httptest.NewRecorder()

			handler.Pay(rec, req)

			if rec.Code != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, rec.Code)
			}
		})
	}
}

func TestPayrollHandler_Get(t *testing.T) {
	handler := NewPayrollHandler(&payrollServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.SalaryRecord, error) {
			return &domain.SalaryRecord{ID: id, EmployeeName: "Nimal"}, nil
		},
	}, testClock())

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/payroll/sal-7", nil), "id", "sal-7")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	var resp dto.SalaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if rec.Code != http.StatusOK || resp.ID != "sal-7" {
		t.Fatalf("unexpected response %d %+v", rec.Code, resp)
	}
}
