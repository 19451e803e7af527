package models

import (
	"encoding/json"
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money is an immutable amount in a currency. The zero value is EmptyMoney and
// stands for "no amount".
type Money struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currency"`
}

// EmptyMoney is the "no amount" sentinel.
var EmptyMoney = Money{}

func NewMoney(amount decimal.Decimal, currencyCode string) Money {
	return Money{Amount: amount, CurrencyCode: currencyCode}
}

// NewMoneyFromString parses amount; it is meant for fixtures and importers.
func NewMoneyFromString(amount, currencyCode string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return EmptyMoney, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return NewMoney(d, currencyCode), nil
}

func (m Money) IsEmpty() bool    { return m.CurrencyCode == "" }
func (m Money) IsZero() bool     { return m.Amount.IsZero() }
func (m Money) IsPositive() bool { return m.Amount.IsPositive() }
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }

// Add returns m+other. An empty operand is neutral; differing currencies panic.
func (m Money) Add(other Money) Money {
	code := sameCurrency(m, other)
	if other.IsEmpty() {
		return m
	}
	if m.IsEmpty() {
		return other
	}
	return Money{Amount: m.Amount.Add(other.Amount), CurrencyCode: code}
}

// Subtract returns m-other. An empty operand is neutral; differing currencies panic.
func (m Money) Subtract(other Money) Money {
	code := sameCurrency(m, other)
	if other.IsEmpty() {
		return m
	}
	if m.IsEmpty() {
		return Money{Amount: other.Amount.Neg(), CurrencyCode: other.CurrencyCode}
	}
	return Money{Amount: m.Amount.Sub(other.Amount), CurrencyCode: code}
}

// MultiplyBy scales the amount, keeping the currency.
func (m Money) MultiplyBy(factor decimal.Decimal) Money {
	if m.IsEmpty() {
		return m
	}
	return Money{Amount: m.Amount.Mul(factor), CurrencyCode: m.CurrencyCode}
}

func (m Money) AbsoluteAmount() decimal.Decimal { return m.Amount.Abs() }

func (m Money) ToAbsoluteAmountMoney() Money {
	return Money{Amount: m.Amount.Abs(), CurrencyCode: m.CurrencyCode}
}

func (m Money) IsFiatCurrency() bool { return IsFiatCurrency(m.CurrencyCode) }

// String formats ISO currencies with their symbol and minor units; crypto
// amounts are printed in full precision followed by the code.
func (m Money) String() string {
	if m.IsEmpty() {
		return "-"
	}
	if cur := money.GetCurrency(m.CurrencyCode); cur != nil && IsFiatCurrency(m.CurrencyCode) {
		minor := m.Amount.Shift(int32(cur.Fraction)).Round(0)
		return cur.Formatter().Format(minor.IntPart())
	}
	return m.Amount.String() + " " + m.CurrencyCode
}

func (m Money) MarshalJSON() ([]byte, error) {
	if m.IsEmpty() {
		return []byte("null"), nil
	}
	type plain Money
	return json.Marshal(plain(m))
}

func (m *Money) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = EmptyMoney
		return nil
	}
	type plain Money
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = Money(p)
	return nil
}

// sameCurrency panics when both operands carry a currency and they differ.
func sameCurrency(a, b Money) string {
	if a.IsEmpty() {
		return b.CurrencyCode
	}
	if b.IsEmpty() {
		return a.CurrencyCode
	}
	if a.CurrencyCode != b.CurrencyCode {
		panic("currency mismatch: " + a.CurrencyCode + " != " + b.CurrencyCode)
	}
	return a.CurrencyCode
}
