package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeErrorCode(w, status, message, details, "")
}

func writeErrorCode(w http.ResponseWriter, status int, message, details, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
		Code:    code,
	})
}

// respondError maps err to a status and writes it. Unexpected errors are logged.
func respondError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := mapDomainError(err)
	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(message)
	}
	writeErrorCode(w, status, message, err.Error(), errorCode(err))
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrReimbursementExceedsOutstanding):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// errorCode gives clients a stable identifier for the specific failure.
func errorCode(err error) string {
	codes := []struct {
		target error
		code   string
	}{
		{domain.ErrInsufficientMainCash, "INSUFFICIENT_MAIN_CASH"},
		{domain.ErrInsufficientPettyCash, "INSUFFICIENT_PETTY_CASH"},
		{domain.ErrReimbursementExceedsOutstanding, "REIMBURSEMENT_EXCEEDS_OUTSTANDING"},
		{domain.ErrAlreadyInitialized, "ALREADY_INITIALIZED"},
		{domain.ErrAlreadyFunded, "ALREADY_FUNDED"},
		{domain.ErrPettyCashNotFunded, "PETTY_CASH_NOT_FUNDED"},
		{domain.ErrAlreadyPaid, "ALREADY_PAID"},
		{domain.ErrCannotUnfundActiveLedger, "CANNOT_UNFUND_ACTIVE_LEDGER"},
		{domain.ErrEntrySealed, "ENTRY_SEALED"},
		{domain.ErrEntryOwnedElsewhere, "ENTRY_OWNED_ELSEWHERE"},
		{domain.ErrKindImmutable, "KIND_IMMUTABLE"},
		{domain.ErrValidation, "VALIDATION_FAILED"},
		{domain.ErrNotFound, "NOT_FOUND"},
		{domain.ErrConsistency, "INCONSISTENT_LEDGER"},
	}
	for _, c := range codes {
		if errors.Is(err, c.target) {
			return c.code
		}
	}
	return "INTERNAL"
}

// decodeJSON decodes and validates a request body.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err)
	}
	return dto.Validate(dst)
}

// parsePeriodQuery reads ?month=&year=. Either may be omitted and defaults to now in loc.
// month also accepts the YYYY-MM form.
func parsePeriodQuery(r *http.Request, now time.Time, loc *time.Location) (domain.Period, error) {
	q := r.URL.Query()
	if m := q.Get("month"); len(m) == 7 && q.Get("year") == "" {
		return domain.ParsePeriod(m)
	}

	current := domain.PeriodOf(now, loc)
	year := current.Year
	month := int(current.Month)

	if v := q.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return domain.Period{}, fmt.Errorf("%w: year must be a number", domain.ErrInvalidPeriod)
		}
		year = y
	}
	if v := q.Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return domain.Period{}, fmt.Errorf("%w: month must be a number", domain.ErrInvalidPeriod)
		}
		month = m
	}

	return domain.NewPeriod(year, month)
}
