package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/tropicaldog17/coinbasis/internal/models"
)

// applyTrade swaps the sent leg for the received leg. The trade is valued
// from whichever leg is in the default currency, else from the sent asset's
// close, and that value becomes the received asset's cost.
func (p *transactionProcessor) applyTrade(ctx context.Context, pf *models.Portfolio, tx *models.RawTransaction) {
	received, sent := tx.ReceivedAmount, tx.SentAmount
	receiver := pf.GetOrCreate(received.CurrencyCode)
	sender := pf.GetOrCreate(sent.CurrencyCode)
	senderAverage := sender.AverageBoughtPrice

	var cost decimal.Decimal
	switch {
	case received.CurrencyCode == pf.DefaultCurrency:
		cost = received.Amount
	case sent.CurrencyCode == pf.DefaultCurrency:
		cost = sent.Amount
	default:
		price := p.priceOrFallback(ctx, tx, sent.CurrencyCode, senderAverage)
		cost = sent.Amount.Mul(price)
	}
	tx.ValueInDefaultCurrency = models.NewMoney(cost, pf.DefaultCurrency)

	if received.CurrencyCode == pf.DefaultCurrency {
		receiver.AverageBoughtPrice = decimal.NewFromInt(1)
	} else {
		receiver.AverageBoughtPrice = weightedAverage(receiver.AverageBoughtPrice, receiver.Balance, cost, received.Amount)
	}

	if sent.CurrencyCode != pf.DefaultCurrency {
		p.recordDisposal(pf, tx, sent.CurrencyCode, senderAverage, cost.Div(sent.Amount), sent.Amount)
	}

	receiver.Balance = receiver.Balance.Add(received.Amount)
	if receiver.Balance.IsZero() {
		receiver.AverageBoughtPrice = decimal.Zero
	}
	sender.Balance = sender.Balance.Sub(sent.Amount)
	settleOutflow(sender, tx)
}
