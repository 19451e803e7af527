package models

import (
	"testing"
	"time"

	apperrors "github.com/tropicaldog17/coinbasis/internal/errors"
)

func amt(amount, code string) Money {
	m, err := NewMoneyFromString(amount, code)
	if err != nil {
		panic(err)
	}
	return m
}

func TestTransactionFactories(t *testing.T) {
	in := TransactionInput{DateTime: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC), Account: "Kraken"}

	tests := []struct {
		name        string
		build       func() (*RawTransaction, error)
		expectError bool
		field       string
	}{
		{
			name:  "valid deposit",
			build: func() (*RawTransaction, error) { return NewDeposit(in, amt("1", "btc")) },
		},
		{
			name:        "deposit with zero amount",
			build:       func() (*RawTransaction, error) { return NewDeposit(in, amt("0", "BTC")) },
			expectError: true,
			field:       "received_amount",
		},
		{
			name:        "withdrawal without amount",
			build:       func() (*RawTransaction, error) { return NewWithdrawal(in, EmptyMoney) },
			expectError: true,
			field:       "sent_amount",
		},
		{
			name:  "valid trade",
			build: func() (*RawTransaction, error) { return NewTrade(in, amt("8", "ETH"), amt("1", "BTC")) },
		},
		{
			name:        "trade with same asset on both legs",
			build:       func() (*RawTransaction, error) { return NewTrade(in, amt("1", "BTC"), amt("1", "BTC")) },
			expectError: true,
			field:       "sent_amount",
		},
		{
			name: "negative fee",
			build: func() (*RawTransaction, error) {
				withFee := in
				withFee.FeeAmount = amt("-0.1", "BTC")
				return NewDeposit(withFee, amt("1", "BTC"))
			},
			expectError: true,
			field:       "fee_amount",
		},
		{
			name: "missing account",
			build: func() (*RawTransaction, error) {
				return NewDeposit(TransactionInput{DateTime: in.DateTime}, amt("1", "BTC"))
			},
			expectError: true,
			field:       "account",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := tt.build()
			if tt.expectError {
				verr, ok := err.(*apperrors.ErrValidation)
				if !ok {
					t.Fatalf("expected validation error, got %v", err)
				}
				if verr.Field != tt.field {
					t.Fatalf("expected field %q, got %q", tt.field, verr.Field)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tx.ID == "" {
				t.Fatalf("expected generated ID")
			}
		})
	}
}

func TestTransactionFactoryNormalizesCodes(t *testing.T) {
	tx, err := NewDeposit(TransactionInput{DateTime: time.Now(), Account: "Ledger"}, amt("2", " eth "))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.ReceivedAmount.CurrencyCode != "ETH" {
		t.Fatalf("expected normalized code, got %q", tx.ReceivedAmount.CurrencyCode)
	}
}

func TestResetValuation(t *testing.T) {
	tx := &RawTransaction{
		ErrorType:                 ErrorTypeInsufficientFunds,
		ValueInDefaultCurrency:    amt("10", "USD"),
		FeeValueInDefaultCurrency: amt("1", "USD"),
	}
	tx.ResetValuation()
	if tx.HasError() || !tx.ValueInDefaultCurrency.IsEmpty() || !tx.FeeValueInDefaultCurrency.IsEmpty() {
		t.Fatalf("valuation fields not cleared: %+v", tx)
	}
}

func TestParseTransactionType(t *testing.T) {
	for in, want := range map[string]TransactionType{
		"Deposit": TransactionTypeDeposit,
		"send":    TransactionTypeWithdrawal,
		"SWAP":    TransactionTypeTrade,
	} {
		got, err := ParseTransactionType(in)
		if err != nil || got != want {
			t.Errorf("ParseTransactionType(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseTransactionType("stake"); err == nil {
		t.Errorf("expected error for unknown type")
	}
}
