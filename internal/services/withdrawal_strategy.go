package services

import (
	"context"

	"github.com/tropicaldog17/coinbasis/internal/models"
)

// applyWithdrawal removes the sent amount and records its disposal against
// the pre-withdrawal average. Sending the default currency is not a disposal.
func (p *transactionProcessor) applyWithdrawal(ctx context.Context, pf *models.Portfolio, tx *models.RawTransaction) {
	sent := tx.SentAmount
	h := pf.GetOrCreate(sent.CurrencyCode)
	averageCost := h.AverageBoughtPrice

	if sent.CurrencyCode == pf.DefaultCurrency {
		tx.ValueInDefaultCurrency = sent
	} else {
		price := p.priceOrFallback(ctx, tx, sent.CurrencyCode, averageCost)
		tx.ValueInDefaultCurrency = models.NewMoney(sent.Amount.Mul(price), pf.DefaultCurrency)
		p.recordDisposal(pf, tx, sent.CurrencyCode, averageCost, price, sent.Amount)
	}

	h.Balance = h.Balance.Sub(sent.Amount)
	settleOutflow(h, tx)
}
