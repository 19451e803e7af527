package services

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/tropicaldog17/coinbasis/internal/logger"
	"github.com/tropicaldog17/coinbasis/internal/models"
)

// RetryingPriceAPI retries failed fetches of the wrapped API with
// exponential backoff.
type RetryingPriceAPI struct {
	next       PriceHistoryAPI
	maxRetries uint64
	newBackOff func() backoff.BackOff
	logger     *zap.Logger
}

func NewRetryingPriceAPI(next PriceHistoryAPI, maxRetries int, log *zap.Logger) *RetryingPriceAPI {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RetryingPriceAPI{
		next:       next,
		maxRetries: uint64(maxRetries),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 10 * time.Second
			b.MaxElapsedTime = time.Minute
			return b
		},
		logger: logger.OrNop(log).With(zap.String("component", "retrying_price_api")),
	}
}

func (r *RetryingPriceAPI) DetermineTradingPair(from, to string) string {
	return r.next.DetermineTradingPair(from, to)
}

func (r *RetryingPriceAPI) FetchPriceHistory(ctx context.Context, symbolPair string, start, end time.Time) ([]models.PriceRecord, error) {
	var out []models.PriceRecord
	err := r.retry(ctx, "fetch_price_history", func() error {
		recs, err := r.next.FetchPriceHistory(ctx, symbolPair, start, end)
		if err != nil {
			return err
		}
		out = recs
		return nil
	})
	return out, err
}

func (r *RetryingPriceAPI) FetchCurrentPrice(ctx context.Context, symbols []string, currency string) ([]models.PriceRecord, error) {
	var out []models.PriceRecord
	err := r.retry(ctx, "fetch_current_price", func() error {
		recs, err := r.next.FetchCurrentPrice(ctx, symbols, currency)
		if err != nil {
			return err
		}
		out = recs
		return nil
	})
	return out, err
}

func (r *RetryingPriceAPI) retry(ctx context.Context, op string, fn func() error) error {
	b := backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), r.maxRetries), ctx)
	notify := func(err error, wait time.Duration) {
		r.logger.Warn("price api call failed, retrying",
			zap.String("op", op),
			zap.Duration("wait", wait),
			zap.Error(err))
	}
	return backoff.RetryNotify(func() error {
		err := fn()
		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil:
			return backoff.Permanent(ctx.Err())
		case isPermanentAPIError(err):
			return backoff.Permanent(err)
		}
		return err
	}, b, notify)
}

// isPermanentAPIError reports failures that repeating the request cannot fix.
func isPermanentAPIError(err error) bool {
	if errors.Is(err, ErrYahooNoResult) {
		return true
	}
	var statusErr *YahooStatusError
	return errors.As(err, &statusErr) && statusErr.Permanent()
}
