package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BalanceDomain names an independently tracked cash balance.
type BalanceDomain string

const (
	DomainMain  BalanceDomain = "main"
	DomainPetty BalanceDomain = "petty"
)

// IsValid reports whether d is a known balance domain.
func (d BalanceDomain) IsValid() bool {
	return d == DomainMain || d == DomainPetty
}

// ParseBalanceDomain parses a domain name such as "main" or "petty".
func ParseBalanceDomain(s string) (BalanceDomain, error) {
	d := BalanceDomain(strings.ToLower(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", ErrInvalidDomain
	}
	return d, nil
}

// BalanceRecord is the current balance of one domain.
// Balance always equals InitialAmount plus the signed postings applied to the domain.
type BalanceRecord struct {
	Domain        BalanceDomain
	Balance       decimal.Decimal
	InitialAmount decimal.Decimal
	Version       int64
	AllowNegative bool
	CreatedAt     time.Time
	LastUpdated   time.Time
}

// ValidateDelta checks if the signed delta can be applied under the domain policy.
func (b *BalanceRecord) ValidateDelta(delta decimal.Decimal) error {
	if !b.AllowNegative && b.Balance.Add(delta).IsNegative() {
		return ErrInsufficientFunds
	}
	return nil
}

// ApplyDelta returns the balance after applying delta.
func (b *BalanceRecord) ApplyDelta(delta decimal.Decimal) decimal.Decimal {
	return b.Balance.Add(delta)
}

// PostedTotal is the net of all postings applied on top of the initial amount.
func (b *BalanceRecord) PostedTotal() decimal.Decimal {
	return b.Balance.Sub(b.InitialAmount)
}

// IsDormant reports whether the record carries neither funds nor an opening amount.
func (b *BalanceRecord) IsDormant() bool {
	return b.Balance.IsZero() && b.InitialAmount.IsZero()
}
