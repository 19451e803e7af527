package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tropicaldog17/coinbasis/internal/logger"
	"github.com/tropicaldog17/coinbasis/internal/services"
)

const priceRefreshTimeout = 2 * time.Minute

// PriceRefreshJob keeps today's prices of a fixed symbol list warm.
type PriceRefreshJob struct {
	prices  services.PriceHistoryService
	symbols []string
	logger  *zap.Logger
}

func NewPriceRefreshJob(prices services.PriceHistoryService, symbols []string, log *zap.Logger) *PriceRefreshJob {
	return &PriceRefreshJob{
		prices:  prices,
		symbols: symbols,
		logger:  logger.OrNop(log).With(zap.String("job", "price_refresh")),
	}
}

func (j *PriceRefreshJob) Name() string { return "price_refresh" }

func (j *PriceRefreshJob) Run(ctx context.Context) error {
	if len(j.symbols) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, priceRefreshTimeout)
	defer cancel()

	prices, err := j.prices.GetCurrentPrices(ctx, j.symbols)
	if err != nil {
		return fmt.Errorf("refresh %d symbols: %w", len(j.symbols), err)
	}
	j.logger.Info("current prices refreshed",
		zap.Int("requested", len(j.symbols)),
		zap.Int("priced", len(prices)))
	return nil
}
