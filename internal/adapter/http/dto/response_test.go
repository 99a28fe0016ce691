package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

func TestCashBookEntryFromDomain(t *testing.T) {
	ref := "pc-1"
	entry := &domain.CashBookEntry{
		ID:            "cb-1",
		Seq:           3,
		Description:   "Petty cash reimbursement",
		Category:      domain.CategoryReimbursement,
		Direction:     domain.DirectionOutflow,
		Amount:        decimal.NewFromInt(300),
		BalanceAfter:  decimal.NewFromInt(4700),
		ReferenceType: domain.ReferencePettyCash,
		ReferenceID:   &ref,
		Date:          time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	}

	resp := CashBookEntryFromDomain(entry)
	if resp.ID != "cb-1" || resp.Direction != "outflow" || resp.ReferenceType != "pettycash" || *resp.ReferenceID != "pc-1" {
		t.Fatalf("unexpected response %+v", resp)
	}

	body, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(body), `"balance_after":"4700"`) {
		t.Fatalf("expected decimal as string, got %s", body)
	}
}

func TestPositionFromDomain(t *testing.T) {
	pos := &domain.FinancialPosition{
		Period:         "2024-03",
		MainCash:       decimal.NewFromInt(11700),
		PettyCash:      decimal.NewFromInt(1000),
		Receivables:    decimal.NewFromInt(1000),
		UnpaidSalaries: decimal.NewFromInt(4600),
		OpeningCapital: decimal.NewFromInt(10000),
	}
	pos.RetainedEarnings = decimal.NewFromInt(-900)
	pos.Reconcile()

	resp := PositionFromDomain(pos)
	if !resp.Assets.Total.Equal(decimal.NewFromInt(13700)) {
		t.Fatalf("assets = %s", resp.Assets.Total)
	}
	if !resp.Liabilities.Total.Equal(decimal.NewFromInt(4600)) || !resp.Equity.Total.Equal(decimal.NewFromInt(9100)) {
		t.Fatalf("unexpected liabilities/equity %+v %+v", resp.Liabilities, resp.Equity)
	}
	if !resp.Balanced || !resp.Difference.IsZero() {
		t.Fatalf("expected balanced position, difference %s", resp.Difference)
	}
}

func TestConsistencyFromDomain(t *testing.T) {
	report := &domain.ConsistencyReport{
		Balances: []domain.BalanceCheck{{Domain: domain.DomainMain, Consistent: true}},
		JournalMismatches: []domain.JournalMismatch{
			{TransactionID: "cb-9", Reason: "missing journal entry"},
		},
	}
	report.Finalize()

	resp := ConsistencyFromDomain(report)
	if resp.IsConsistent {
		t.Fatalf("expected inconsistent report")
	}
	if len(resp.Balances) != 1 || resp.Balances[0].Domain != "main" {
		t.Fatalf("unexpected balances %+v", resp.Balances)
	}
	if len(resp.JournalMismatches) != 1 || resp.JournalMismatches[0].TransactionID != "cb-9" {
		t.Fatalf("unexpected mismatches %+v", resp.JournalMismatches)
	}
}
