package models

import (
	"time"

	"github.com/shopspring/decimal"
	apperrors "github.com/tropicaldog17/coinbasis/internal/errors"
)

// TaxableEvent records one realized disposal. AverageCost and ValueAtDisposal
// are per unit, in Currency.
type TaxableEvent struct {
	dateTime        time.Time
	disposedAsset   string
	averageCost     decimal.Decimal
	valueAtDisposal decimal.Decimal
	amount          decimal.Decimal
	currency        string
}

func NewTaxableEvent(dateTime time.Time, disposedAsset string, averageCost, valueAtDisposal, amount decimal.Decimal, currency string) (TaxableEvent, error) {
	switch {
	case dateTime.IsZero():
		return TaxableEvent{}, apperrors.NewValidation("date_time", "is required")
	case disposedAsset == "":
		return TaxableEvent{}, apperrors.NewValidation("disposed_asset", "is required")
	case currency == "":
		return TaxableEvent{}, apperrors.NewValidation("currency", "is required")
	case !amount.IsPositive():
		return TaxableEvent{}, apperrors.NewValidation("amount", "must be positive")
	case averageCost.IsNegative():
		return TaxableEvent{}, apperrors.NewValidation("average_cost", "must be non-negative")
	case valueAtDisposal.IsNegative():
		return TaxableEvent{}, apperrors.NewValidation("value_at_disposal", "must be non-negative")
	}
	return TaxableEvent{
		dateTime:        dateTime,
		disposedAsset:   disposedAsset,
		averageCost:     averageCost,
		valueAtDisposal: valueAtDisposal,
		amount:          amount,
		currency:        currency,
	}, nil
}

func (e TaxableEvent) DateTime() time.Time              { return e.dateTime }
func (e TaxableEvent) DisposedAsset() string            { return e.disposedAsset }
func (e TaxableEvent) AverageCost() decimal.Decimal     { return e.averageCost }
func (e TaxableEvent) ValueAtDisposal() decimal.Decimal { return e.valueAtDisposal }
func (e TaxableEvent) Amount() decimal.Decimal          { return e.amount }
func (e TaxableEvent) Currency() string                 { return e.currency }

func (e TaxableEvent) CostBasis() decimal.Decimal { return e.averageCost.Mul(e.amount) }
func (e TaxableEvent) Proceeds() decimal.Decimal  { return e.valueAtDisposal.Mul(e.amount) }

// Gain is Proceeds - CostBasis; negative for a loss.
func (e TaxableEvent) Gain() decimal.Decimal { return e.Proceeds().Sub(e.CostBasis()) }

// TaxableEventView is the serialised form of a TaxableEvent.
type TaxableEventView struct {
	DateTime        time.Time       `json:"date_time"`
	DisposedAsset   string          `json:"disposed_asset"`
	AverageCost     decimal.Decimal `json:"average_cost"`
	ValueAtDisposal decimal.Decimal `json:"value_at_disposal"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Gain            decimal.Decimal `json:"gain"`
}

func (e TaxableEvent) View() TaxableEventView {
	return TaxableEventView{
		DateTime:        e.dateTime,
		DisposedAsset:   e.disposedAsset,
		AverageCost:     e.averageCost,
		ValueAtDisposal: e.valueAtDisposal,
		Amount:          e.amount,
		Currency:        e.currency,
		Gain:            e.Gain(),
	}
}
