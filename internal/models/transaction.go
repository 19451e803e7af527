package models

import (
	"time"

	"github.com/google/uuid"
	apperrors "github.com/tropicaldog17/coinbasis/internal/errors"
)

// RawTransaction is one imported wallet movement. Amounts never change after
// creation; the valuation engine only writes ErrorType and the two
// default-currency valuations.
type RawTransaction struct {
	ID             string          `json:"id"`
	WalletID       string          `json:"wallet_id"`
	DateTime       time.Time       `json:"date_time"`
	Type           TransactionType `json:"type"`
	ReceivedAmount Money           `json:"received_amount"`
	SentAmount     Money           `json:"sent_amount"`
	FeeAmount      Money           `json:"fee_amount"`
	Account        string          `json:"account"`
	TransactionIDs []string        `json:"transaction_ids,omitempty"`
	Note           string          `json:"note,omitempty"`

	ErrorType                 ErrorType `json:"error_type,omitempty"`
	ValueInDefaultCurrency    Money     `json:"value_in_default_currency"`
	FeeValueInDefaultCurrency Money     `json:"fee_value_in_default_currency"`
}

// TransactionInput carries the fields shared by the factories.
type TransactionInput struct {
	ID             string
	WalletID       string
	DateTime       time.Time
	Account        string
	FeeAmount      Money
	TransactionIDs []string
	Note           string
}

func NewDeposit(in TransactionInput, received Money) (*RawTransaction, error) {
	tx := newRawTransaction(in, TransactionTypeDeposit)
	tx.ReceivedAmount = received
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return tx, nil
}

func NewWithdrawal(in TransactionInput, sent Money) (*RawTransaction, error) {
	tx := newRawTransaction(in, TransactionTypeWithdrawal)
	tx.SentAmount = sent
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return tx, nil
}

func NewTrade(in TransactionInput, received, sent Money) (*RawTransaction, error) {
	tx := newRawTransaction(in, TransactionTypeTrade)
	tx.ReceivedAmount = received
	tx.SentAmount = sent
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return tx, nil
}

func newRawTransaction(in TransactionInput, typ TransactionType) *RawTransaction {
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	return &RawTransaction{
		ID:             id,
		WalletID:       in.WalletID,
		DateTime:       in.DateTime,
		Type:           typ,
		FeeAmount:      normalizeMoney(in.FeeAmount),
		Account:        in.Account,
		TransactionIDs: in.TransactionIDs,
		Note:           in.Note,
	}
}

// Validate checks the construction rules used by importers and the API layer.
// The valuation engine applies its own, tagging checks at processing time.
func (t *RawTransaction) Validate() error {
	if t.DateTime.IsZero() {
		return apperrors.NewValidation("date_time", "is required")
	}
	if t.Account == "" {
		return apperrors.NewValidation("account", "is required")
	}
	if !t.Type.Valid() {
		return apperrors.NewValidation("type", "must be deposit, withdrawal or trade")
	}
	t.ReceivedAmount = normalizeMoney(t.ReceivedAmount)
	t.SentAmount = normalizeMoney(t.SentAmount)
	t.FeeAmount = normalizeMoney(t.FeeAmount)

	needsReceived := t.Type == TransactionTypeDeposit || t.Type == TransactionTypeTrade
	needsSent := t.Type == TransactionTypeWithdrawal || t.Type == TransactionTypeTrade
	if needsReceived {
		if err := requirePositive("received_amount", t.ReceivedAmount); err != nil {
			return err
		}
	} else if !t.ReceivedAmount.IsEmpty() {
		return apperrors.NewValidation("received_amount", "must be empty for a withdrawal")
	}
	if needsSent {
		if err := requirePositive("sent_amount", t.SentAmount); err != nil {
			return err
		}
	} else if !t.SentAmount.IsEmpty() {
		return apperrors.NewValidation("sent_amount", "must be empty for a deposit")
	}
	if t.Type == TransactionTypeTrade && t.ReceivedAmount.CurrencyCode == t.SentAmount.CurrencyCode {
		return apperrors.NewValidation("sent_amount", "must differ in currency from received_amount")
	}
	if !t.FeeAmount.IsEmpty() && t.FeeAmount.IsNegative() {
		return apperrors.NewValidation("fee_amount", "must be non-negative")
	}
	return nil
}

// SetError tags the transaction; the latest tag wins.
func (t *RawTransaction) SetError(e ErrorType) {
	t.ErrorType = e
}

func (t *RawTransaction) HasError() bool { return t.ErrorType != ErrorTypeNone }

// ResetValuation clears every field written by the valuation engine.
func (t *RawTransaction) ResetValuation() {
	t.ErrorType = ErrorTypeNone
	t.ValueInDefaultCurrency = EmptyMoney
	t.FeeValueInDefaultCurrency = EmptyMoney
}

func requirePositive(field string, m Money) error {
	if m.IsEmpty() {
		return apperrors.NewValidation(field, "is required")
	}
	if !m.IsPositive() {
		return apperrors.NewValidation(field, "must be positive")
	}
	return nil
}

func normalizeMoney(m Money) Money {
	if m.IsEmpty() {
		return m
	}
	m.CurrencyCode = NormalizeCode(m.CurrencyCode)
	return m
}
