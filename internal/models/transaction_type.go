package models

import apperrors "github.com/tropicaldog17/coinbasis/internal/errors"

// TransactionType is the closed set of transaction kinds the engine values.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeTrade      TransactionType = "trade"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTrade:
		return true
	}
	return false
}

// ParseTransactionType accepts the canonical names plus a few exchange spellings.
func ParseTransactionType(s string) (TransactionType, error) {
	switch NormalizeCode(s) {
	case "DEPOSIT", "RECEIVE", "INCOME":
		return TransactionTypeDeposit, nil
	case "WITHDRAWAL", "WITHDRAW", "SEND":
		return TransactionTypeWithdrawal, nil
	case "TRADE", "SWAP", "BUY", "SELL":
		return TransactionTypeTrade, nil
	}
	return "", apperrors.NewValidation("type", "unknown transaction type "+s)
}

// ErrorType flags a transaction that was processed with a problem. Tagging is
// non-fatal: the batch keeps going.
type ErrorType string

const (
	ErrorTypeNone                    ErrorType = ""
	ErrorTypeInvalidCurrency         ErrorType = "invalid_currency"
	ErrorTypeInsufficientFunds       ErrorType = "insufficient_funds"
	ErrorTypePriceHistoryUnavailable ErrorType = "price_history_unavailable"
	ErrorTypeManualReviewRequired    ErrorType = "manual_review_required"
	ErrorTypeDataCorruption          ErrorType = "data_corruption"
	ErrorTypeTaxEventNotCreated      ErrorType = "tax_event_not_created"
)
