package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tropicaldog17/coinbasis/internal/models"
)

// PriceHistoryAPI is the remote source of daily closes.
type PriceHistoryAPI interface {
	// FetchPriceHistory returns daily closes of symbolPair in [start, end].
	FetchPriceHistory(ctx context.Context, symbolPair string, start, end time.Time) ([]models.PriceRecord, error)
	// FetchCurrentPrice returns the latest price of each symbol quoted in currency.
	FetchCurrentPrice(ctx context.Context, symbols []string, currency string) ([]models.PriceRecord, error)
	// DetermineTradingPair maps (from, to) to the provider's instrument id.
	DetermineTradingPair(from, to string) string
}

// PriceHistoryService values assets in the default currency.
type PriceHistoryService interface {
	GetPriceAtClose(ctx context.Context, symbol string, date time.Time) (decimal.Decimal, error)
	GetCurrentPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
	GetPriceWithRetry(ctx context.Context, symbol string, date time.Time, attempts int) (decimal.Decimal, error)
	DefaultCurrency() string
}

// PortfolioService runs valuation batches.
type PortfolioService interface {
	CalculateTrades(ctx context.Context, p *models.Portfolio) (*models.CalculationReport, error)
	CalculateAll(ctx context.Context, portfolios []*models.Portfolio) ([]*models.CalculationReport, error)
	RefreshCurrentPrices(ctx context.Context, p *models.Portfolio) error
}
