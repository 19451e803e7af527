package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/tropicaldog17/coinbasis/internal/errors"
	"github.com/tropicaldog17/coinbasis/internal/logger"
	"github.com/tropicaldog17/coinbasis/internal/models"
)

// PriceLookup is the part of PriceHistoryService the valuation engine needs.
type PriceLookup interface {
	GetPriceAtClose(ctx context.Context, symbol string, date time.Time) (decimal.Decimal, error)
}

type transactionProcessor struct {
	prices PriceLookup
	logger *zap.Logger
}

// NewTransactionProcessor creates the valuation engine. Price failures tag
// the transaction and fall back to average cost; invalid amounts skip it.
func NewTransactionProcessor(prices PriceLookup, log *zap.Logger) models.TransactionProcessor {
	return &transactionProcessor{
		prices: prices,
		logger: logger.OrNop(log).With(zap.String("component", "transaction_processor")),
	}
}

func (p *transactionProcessor) Process(ctx context.Context, pf *models.Portfolio, tx *models.RawTransaction) error {
	if err := validateForProcessing(tx); err != nil {
		p.logger.Warn("transaction skipped",
			zap.String("tx_id", tx.ID),
			zap.String("type", string(tx.Type)),
			zap.String("error_type", string(tx.ErrorType)),
			zap.Error(err))
		return err
	}

	switch tx.Type {
	case models.TransactionTypeDeposit:
		p.applyDeposit(ctx, pf, tx)
	case models.TransactionTypeWithdrawal:
		p.applyWithdrawal(ctx, pf, tx)
	case models.TransactionTypeTrade:
		p.applyTrade(ctx, pf, tx)
	}
	p.applyFee(ctx, pf, tx)

	if tx.HasError() {
		p.logger.Warn("transaction flagged",
			zap.String("tx_id", tx.ID),
			zap.String("type", string(tx.Type)),
			zap.String("error_type", string(tx.ErrorType)))
	} else {
		p.logger.Debug("transaction applied",
			zap.String("tx_id", tx.ID),
			zap.String("type", string(tx.Type)),
			zap.Stringer("value", tx.ValueInDefaultCurrency))
	}
	return nil
}

// validateForProcessing tags and rejects transactions whose amounts cannot
// be applied. Nothing is mutated when it returns an error.
func validateForProcessing(tx *models.RawTransaction) error {
	switch tx.Type {
	case models.TransactionTypeDeposit:
		if err := requireAmount(tx, "received_amount", tx.ReceivedAmount); err != nil {
			return err
		}
	case models.TransactionTypeWithdrawal:
		if err := requireAmount(tx, "sent_amount", tx.SentAmount); err != nil {
			return err
		}
	case models.TransactionTypeTrade:
		if err := requireAmount(tx, "received_amount", tx.ReceivedAmount); err != nil {
			return err
		}
		if err := requireAmount(tx, "sent_amount", tx.SentAmount); err != nil {
			return err
		}
		if tx.ReceivedAmount.CurrencyCode == tx.SentAmount.CurrencyCode {
			tx.SetError(models.ErrorTypeInvalidCurrency)
			return apperrors.NewValidation("sent_amount", "trade sends and receives "+tx.SentAmount.CurrencyCode)
		}
	default:
		tx.SetError(models.ErrorTypeInvalidCurrency)
		return apperrors.NewValidation("type", "unknown transaction type "+string(tx.Type))
	}
	if !tx.FeeAmount.IsEmpty() && tx.FeeAmount.IsNegative() {
		tx.SetError(models.ErrorTypeInvalidCurrency)
		return apperrors.NewValidation("fee_amount", "must be non-negative")
	}
	return nil
}

func requireAmount(tx *models.RawTransaction, field string, m models.Money) error {
	switch {
	case m.IsEmpty():
		tx.SetError(models.ErrorTypeInvalidCurrency)
		return apperrors.NewValidation(field, "is missing")
	case m.IsNegative():
		tx.SetError(models.ErrorTypeInvalidCurrency)
		return apperrors.NewValidation(field, "must be positive")
	case m.IsZero():
		tx.SetError(models.ErrorTypeManualReviewRequired)
		return apperrors.NewValidation(field, "is zero")
	}
	return nil
}

// weightedAverage folds an inflow of amount units costing value into avg.
// A negative balance carries no cost and counts as zero.
func weightedAverage(avg, balance, value, amount decimal.Decimal) decimal.Decimal {
	if balance.IsNegative() {
		balance = decimal.Zero
	}
	total := balance.Add(amount)
	if !total.IsPositive() {
		return avg
	}
	return avg.Mul(balance).Add(value).Div(total)
}

// settleOutflow resets the average of an emptied holding and flags an
// overdrawn one.
func settleOutflow(h *models.Holding, tx *models.RawTransaction) {
	if h.Balance.IsZero() {
		h.AverageBoughtPrice = decimal.Zero
		return
	}
	if h.Balance.IsNegative() {
		tx.SetError(models.ErrorTypeInsufficientFunds)
	}
}

// recordDisposal appends a taxable event for amount units of asset leaving
// the portfolio.
func (p *transactionProcessor) recordDisposal(pf *models.Portfolio, tx *models.RawTransaction, asset string, averageCost, valueAtDisposal, amount decimal.Decimal) {
	if averageCost.IsNegative() {
		tx.SetError(models.ErrorTypeDataCorruption)
		p.logger.Error("negative average cost on disposal",
			zap.String("tx_id", tx.ID),
			zap.String("asset", asset),
			zap.String("average_cost", averageCost.String()))
		return
	}
	event, err := models.NewTaxableEvent(tx.DateTime, asset, averageCost, valueAtDisposal, amount, pf.DefaultCurrency)
	if err != nil {
		tx.SetError(models.ErrorTypeTaxEventNotCreated)
		p.logger.Warn("taxable event not created",
			zap.String("tx_id", tx.ID),
			zap.String("asset", asset),
			zap.Error(err))
		return
	}
	pf.AddTaxableEvent(event)
}

// priceOrFallback looks up the close of asset and falls back to fallback,
// tagging the transaction, when none is available.
func (p *transactionProcessor) priceOrFallback(ctx context.Context, tx *models.RawTransaction, asset string, fallback decimal.Decimal) decimal.Decimal {
	price, err := p.prices.GetPriceAtClose(ctx, asset, tx.DateTime)
	if err != nil {
		tx.SetError(models.ErrorTypePriceHistoryUnavailable)
		p.logger.Warn("price unavailable, using average cost",
			zap.String("tx_id", tx.ID),
			zap.String("asset", asset),
			zap.Time("date", tx.DateTime),
			zap.String("fallback", fallback.String()),
			zap.Error(err))
		return fallback
	}
	return price
}
