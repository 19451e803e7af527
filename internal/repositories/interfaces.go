package repositories

import (
	"context"

	"github.com/tropicaldog17/coinbasis/internal/models"
)

// PriceHistoryStorage is the durable per-symbol price series.
//
// LoadHistory returns errors.ErrSeriesNotFound for a symbol that was never
// saved. SaveHistory merges records keyed by (CurrencyPair, CloseDate) and
// marks the series as known even when records is empty.
type PriceHistoryStorage interface {
	LoadHistory(ctx context.Context, symbol string) ([]models.PriceRecord, error)
	SaveHistory(ctx context.Context, symbol string, records []models.PriceRecord) error
}
