package models

import "github.com/shopspring/decimal"

// Holding is the running position of one asset inside a Portfolio.
// AverageBoughtPrice is per unit, in the portfolio's default currency.
type Holding struct {
	Asset              string          `json:"asset"`
	Balance            decimal.Decimal `json:"balance"`
	AverageBoughtPrice decimal.Decimal `json:"average_bought_price"`
	CurrentPrice       Money           `json:"current_price"`
}

func NewHolding(asset string) *Holding {
	return &Holding{Asset: asset, Balance: decimal.Zero, AverageBoughtPrice: decimal.Zero}
}

// CostBasis is Balance * AverageBoughtPrice.
func (h *Holding) CostBasis() decimal.Decimal {
	return h.Balance.Mul(h.AverageBoughtPrice)
}

// MarketValue is zero until CurrentPrice has been filled in.
func (h *Holding) MarketValue() decimal.Decimal {
	if h.CurrentPrice.IsEmpty() {
		return decimal.Zero
	}
	return h.Balance.Mul(h.CurrentPrice.Amount)
}

func (h *Holding) UnrealizedGain() decimal.Decimal {
	if h.CurrentPrice.IsEmpty() {
		return decimal.Zero
	}
	return h.MarketValue().Sub(h.CostBasis())
}
