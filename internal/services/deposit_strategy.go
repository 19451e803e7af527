package services

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tropicaldog17/coinbasis/internal/models"
)

// applyDeposit adds the received amount and folds its cost into the
// holding's average. A failed lookup values the deposit at the current
// average and leaves the average untouched.
func (p *transactionProcessor) applyDeposit(ctx context.Context, pf *models.Portfolio, tx *models.RawTransaction) {
	received := tx.ReceivedAmount
	h := pf.GetOrCreate(received.CurrencyCode)
	before := h.Balance
	h.Balance = h.Balance.Add(received.Amount)

	if received.CurrencyCode == pf.DefaultCurrency {
		h.AverageBoughtPrice = decimal.NewFromInt(1)
		tx.ValueInDefaultCurrency = received
	} else if price, err := p.prices.GetPriceAtClose(ctx, received.CurrencyCode, tx.DateTime); err != nil {
		tx.SetError(models.ErrorTypePriceHistoryUnavailable)
		tx.ValueInDefaultCurrency = models.NewMoney(received.Amount.Mul(h.AverageBoughtPrice), pf.DefaultCurrency)
		p.logger.Warn("deposit price unavailable, keeping average cost",
			zap.String("tx_id", tx.ID),
			zap.String("asset", received.CurrencyCode),
			zap.Error(err))
	} else {
		value := received.Amount.Mul(price)
		tx.ValueInDefaultCurrency = models.NewMoney(value, pf.DefaultCurrency)
		h.AverageBoughtPrice = weightedAverage(h.AverageBoughtPrice, before, value, received.Amount)
	}
	if h.Balance.IsZero() {
		h.AverageBoughtPrice = decimal.Zero
	}
}
