package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	// MaxAmount caps a single posting.
	MaxAmount = "1000000000"

	// AmountScale is the number of fractional digits money may carry.
	AmountScale = 2

	MaxDescriptionLength = 500
	MaxCategoryLength    = 100

	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

var maxAmount = decimal.RequireFromString(MaxAmount)

// ValidateAmount checks that amount is a positive money value with at most two decimals.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: amount exceeds maximum of %s", ErrValidation, MaxAmount)
	}
	if !amount.Equal(amount.Truncate(AmountScale)) {
		return fmt.Errorf("%w: amount must have at most %d decimal places", ErrValidation, AmountScale)
	}
	return nil
}

// ValidateDescription requires a non-empty description of bounded length.
func ValidateDescription(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > MaxDescriptionLength {
		return ErrInvalidDescription
	}
	return nil
}

// ValidateCategory requires a non-empty category of bounded length.
func ValidateCategory(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > MaxCategoryLength {
		return ErrInvalidCategory
	}
	return nil
}

// NormalizePagination clamps limit and offset into their allowed ranges.
func NormalizePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
