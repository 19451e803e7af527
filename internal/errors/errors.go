package errors

import stderrors "errors"

type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return e.Field + ": " + e.Message
}

// NewValidation returns an *ErrValidation for field.
func NewValidation(field, message string) *ErrValidation {
	return &ErrValidation{Field: field, Message: message}
}

// IsValidation reports whether err wraps an *ErrValidation.
func IsValidation(err error) bool {
	var v *ErrValidation
	return stderrors.As(err, &v)
}

// DomainError is an expected failure of a price or valuation operation.
// Two DomainErrors match under errors.Is when their codes are equal.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Code + ": " + e.Message
}

func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

var (
	ErrSameSymbols    = &DomainError{Code: "ERR_SAME_SYMBOLS", Message: "symbol equals the default currency"}
	ErrPriceNotFound  = &DomainError{Code: "ERR_PRICE_NOT_FOUND", Message: "no close price available"}
	ErrSeriesNotFound = &DomainError{Code: "ERR_SERIES_NOT_FOUND", Message: "no stored price history"}
)
