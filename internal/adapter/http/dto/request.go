package dto

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// PostCashBookRequest represents a manual cash book posting.
// Amounts may be sent as JSON strings or numbers.
type PostCashBookRequest struct {
	Description string          `json:"description" validate:"required,max=500"`
	Category    string          `json:"category"    validate:"required,max=100"`
	Direction   string          `json:"direction"   validate:"required,oneof=inflow outflow in out"`
	Amount      decimal.Decimal `json:"amount"      validate:"money"`
}

// ToUseCaseInput converts to use case input.
func (r *PostCashBookRequest) ToUseCaseInput() (usecase.PostCashBookInput, error) {
	direction, err := domain.ParseDirection(r.Direction)
	if err != nil {
		return usecase.PostCashBookInput{}, err
	}
	return usecase.PostCashBookInput{
		Description: r.Description,
		Category:    r.Category,
		Direction:   direction,
		Amount:      r.Amount,
	}, nil
}

// OpeningBalanceRequest sets the opening amount of main cash.
type OpeningBalanceRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"money"`
}

// UpdateCashBookRequest corrects a cash book entry. Omitted fields are left unchanged.
type UpdateCashBookRequest struct {
	Description *string          `json:"description,omitempty" validate:"omitempty,max=500"`
	Category    *string          `json:"category,omitempty"    validate:"omitempty,max=100"`
	Amount      *decimal.Decimal `json:"amount,omitempty"      validate:"omitempty,money"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateCashBookRequest) ToUseCaseInput() usecase.UpdateCashBookInput {
	return usecase.UpdateCashBookInput{
		Description: r.Description,
		Category:    r.Category,
		Amount:      r.Amount,
	}
}

// AddPettyCashRequest represents a petty cash posting of any kind.
type AddPettyCashRequest struct {
	Date        *time.Time      `json:"date,omitempty"`
	Description string          `json:"description" validate:"max=500"`
	Category    string          `json:"category"    validate:"max=100"`
	Kind        string          `json:"kind"        validate:"required,oneof=initial expense reimbursement"`
	Amount      decimal.Decimal `json:"amount"      validate:"money"`
}

// ToUseCaseInput converts to use case input.
func (r *AddPettyCashRequest) ToUseCaseInput() (usecase.AddPettyCashInput, error) {
	kind, err := domain.ParsePettyCashKind(r.Kind)
	if err != nil {
		return usecase.AddPettyCashInput{}, err
	}
	return usecase.AddPettyCashInput{
		Date:        r.Date,
		Description: r.Description,
		Category:    r.Category,
		Kind:        kind,
		Amount:      r.Amount,
	}, nil
}

// UpdatePettyCashRequest corrects a petty cash entry. Omitted fields are left unchanged.
type UpdatePettyCashRequest struct {
	Date        *time.Time       `json:"date,omitempty"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=500"`
	Category    *string          `json:"category,omitempty"    validate:"omitempty,max=100"`
	Kind        *string          `json:"kind,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"      validate:"omitempty,money"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdatePettyCashRequest) ToUseCaseInput() (usecase.UpdatePettyCashInput, error) {
	input := usecase.UpdatePettyCashInput{
		Date:        r.Date,
		Description: r.Description,
		Category:    r.Category,
		Amount:      r.Amount,
	}
	if r.Kind != nil && strings.TrimSpace(*r.Kind) != "" {
		kind, err := domain.ParsePettyCashKind(*r.Kind)
		if err != nil {
			return usecase.UpdatePettyCashInput{}, err
		}
		input.Kind = &kind
	}
	return input, nil
}

// CalculatePayrollRequest generates salaries for a month.
type CalculatePayrollRequest struct {
	Month string `json:"month" validate:"required,month"`
}
