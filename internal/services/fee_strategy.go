package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/tropicaldog17/coinbasis/internal/models"
)

// applyFee values the fee and deducts it from its holding. A fee paid in the
// received currency of a deposit or trade is already netted out of the
// received amount and is only valued.
func (p *transactionProcessor) applyFee(ctx context.Context, pf *models.Portfolio, tx *models.RawTransaction) {
	fee := tx.FeeAmount
	if fee.IsEmpty() {
		return
	}
	if fee.IsZero() {
		tx.FeeValueInDefaultCurrency = models.NewMoney(decimal.Zero, pf.DefaultCurrency)
		return
	}

	h := pf.GetOrCreate(fee.CurrencyCode)
	if fee.CurrencyCode == pf.DefaultCurrency {
		tx.FeeValueInDefaultCurrency = fee
	} else {
		price := p.priceOrFallback(ctx, tx, fee.CurrencyCode, h.AverageBoughtPrice)
		tx.FeeValueInDefaultCurrency = models.NewMoney(fee.Amount.Mul(price), pf.DefaultCurrency)
	}

	netted := tx.Type != models.TransactionTypeWithdrawal && fee.CurrencyCode == tx.ReceivedAmount.CurrencyCode
	if netted {
		return
	}
	h.Balance = h.Balance.Sub(fee.Amount)
	settleOutflow(h, tx)
}
