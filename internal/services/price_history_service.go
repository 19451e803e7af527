package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/tropicaldog17/coinbasis/internal/errors"
	"github.com/tropicaldog17/coinbasis/internal/logger"
	"github.com/tropicaldog17/coinbasis/internal/models"
	"github.com/tropicaldog17/coinbasis/internal/repositories"
)

const (
	// DefaultPriceRetryAttempts is used by GetPriceWithRetry when attempts <= 0.
	DefaultPriceRetryAttempts = 3

	todayCacheTTL    = time.Minute
	fiatFallbackDays = 4
	fetchWindow      = 365 * 24 * time.Hour
)

// symbolHistory is the in-process copy of one symbol's stored closes.
type symbolHistory struct {
	byDate map[string]decimal.Decimal
	keys   map[string]struct{}
}

func newSymbolHistory() *symbolHistory {
	return &symbolHistory{
		byDate: make(map[string]decimal.Decimal),
		keys:   make(map[string]struct{}),
	}
}

type todayEntry struct {
	price     decimal.Decimal
	expiresAt time.Time
}

type priceHistoryService struct {
	defaultCurrency string
	api             PriceHistoryAPI
	storage         repositories.PriceHistoryStorage
	logger          *zap.Logger
	now             func() time.Time

	mu      sync.RWMutex
	history map[string]*symbolHistory

	todayMu sync.Mutex
	today   map[string]todayEntry

	group singleflight.Group
}

// NewPriceHistoryService creates a PriceHistoryService quoting in defaultCurrency.
func NewPriceHistoryService(defaultCurrency string, api PriceHistoryAPI, storage repositories.PriceHistoryStorage, log *zap.Logger) PriceHistoryService {
	return &priceHistoryService{
		defaultCurrency: models.NormalizeCode(defaultCurrency),
		api:             api,
		storage:         storage,
		logger:          logger.OrNop(log).With(zap.String("component", "price_history_service")),
		now:             time.Now,
		history:         make(map[string]*symbolHistory),
		today:           make(map[string]todayEntry),
	}
}

func (s *priceHistoryService) DefaultCurrency() string {
	return s.defaultCurrency
}

// GetPriceAtClose returns the close of symbol on date, in the default currency.
func (s *priceHistoryService) GetPriceAtClose(ctx context.Context, symbol string, date time.Time) (decimal.Decimal, error) {
	symbol = models.NormalizeCode(symbol)
	if symbol == "" {
		return decimal.Zero, apperrors.NewValidation("symbol", "is required")
	}
	if symbol == s.defaultCurrency {
		return decimal.Zero, apperrors.ErrSameSymbols
	}

	day := models.DateOnly(date)
	isToday := day.Equal(models.DateOnly(s.now()))
	if isToday {
		if price, ok := s.todayGet(symbol, day); ok {
			return price, nil
		}
	}

	if err := s.ensureLoaded(ctx, symbol); err != nil {
		return decimal.Zero, err
	}

	if price, ok := s.lookup(symbol, day); ok {
		if isToday {
			s.todayPut(symbol, day, price)
		}
		return price, nil
	}
	fiat := models.IsFiatCurrency(symbol)
	if fiat {
		if price, ok := s.fiatFallback(symbol, day); ok {
			return price, nil
		}
	}

	fetchErr := s.fetchAndMerge(ctx, symbol, day)
	if fetchErr != nil {
		if ctx.Err() != nil {
			return decimal.Zero, ctx.Err()
		}
		s.logger.Warn("price history fetch failed",
			zap.String("symbol", symbol),
			zap.Time("date", day),
			zap.Error(fetchErr))
	}

	if price, ok := s.lookup(symbol, day); ok {
		if isToday {
			s.todayPut(symbol, day, price)
		}
		return price, nil
	}
	if fiat {
		if price, ok := s.fiatFallback(symbol, day); ok {
			return price, nil
		}
	}

	if fetchErr != nil {
		return decimal.Zero, fmt.Errorf("%w: %s on %s: %w", apperrors.ErrPriceNotFound, symbol, day.Format(models.DateLayout), fetchErr)
	}
	return decimal.Zero, fmt.Errorf("%w: %s on %s", apperrors.ErrPriceNotFound, symbol, day.Format(models.DateLayout))
}

// GetPriceWithRetry repeats GetPriceAtClose up to attempts times without
// delay. Caller errors, permanent API failures and cancellation are not
// retried.
func (s *priceHistoryService) GetPriceWithRetry(ctx context.Context, symbol string, date time.Time, attempts int) (decimal.Decimal, error) {
	if attempts <= 0 {
		attempts = DefaultPriceRetryAttempts
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		price, err := s.GetPriceAtClose(ctx, symbol, date)
		if err == nil {
			return price, nil
		}
		lastErr = err
		if errors.Is(err, apperrors.ErrSameSymbols) || apperrors.IsValidation(err) || isPermanentAPIError(err) || ctx.Err() != nil {
			break
		}
		s.logger.Debug("price lookup failed",
			zap.String("symbol", symbol),
			zap.Int("attempt", i+1),
			zap.Error(err))
	}
	return decimal.Zero, lastErr
}

// GetCurrentPrices answers from the today cache and asks the API once for
// the rest. The default currency is always 1. Symbols the API could not
// price are absent from the result.
func (s *priceHistoryService) GetCurrentPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	day := models.DateOnly(s.now())
	out := make(map[string]decimal.Decimal, len(symbols))
	var missing []string
	seen := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		sym = models.NormalizeCode(sym)
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		if sym == s.defaultCurrency {
			out[sym] = decimal.NewFromInt(1)
			continue
		}
		if price, ok := s.todayGet(sym, day); ok {
			out[sym] = price
			continue
		}
		missing = append(missing, sym)
	}
	if len(missing) == 0 {
		return out, nil
	}

	bySymbolPair := make(map[string]string, len(missing))
	for _, sym := range missing {
		bySymbolPair[s.api.DetermineTradingPair(sym, s.defaultCurrency)] = sym
	}

	recs, err := s.api.FetchCurrentPrice(ctx, missing, s.defaultCurrency)
	if err != nil {
		return out, fmt.Errorf("failed to fetch current prices: %w", err)
	}
	for _, rec := range recs {
		if !rec.ClosePrice.IsPositive() {
			continue
		}
		sym := models.NormalizeCode(rec.Symbol)
		if sym == "" {
			sym = bySymbolPair[rec.CurrencyPair]
		}
		if sym == "" {
			continue
		}
		out[sym] = rec.ClosePrice
		s.todayPut(sym, day, rec.ClosePrice)
	}
	return out, nil
}

// ensureLoaded pulls the symbol's stored history into memory once. A
// storage failure is recorded as an empty series so the symbol is not
// reloaded on every lookup.
func (s *priceHistoryService) ensureLoaded(ctx context.Context, symbol string) error {
	if s.isLoaded(symbol) {
		return nil
	}
	// The shared load outlives any single caller's cancellation.
	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan("load:"+symbol, func() (interface{}, error) {
		if s.isLoaded(symbol) {
			return nil, nil
		}
		recs, err := s.storage.LoadHistory(loadCtx, symbol)
		if err != nil {
			if errors.Is(err, apperrors.ErrSeriesNotFound) {
				s.logger.Debug("no stored price history", zap.String("symbol", symbol))
			} else {
				s.logger.Warn("failed to load price history, caching empty series",
					zap.String("symbol", symbol),
					zap.Error(err))
			}
			if saveErr := s.storage.SaveHistory(loadCtx, symbol, nil); saveErr != nil {
				s.logger.Warn("failed to persist empty price history",
					zap.String("symbol", symbol),
					zap.Error(saveErr))
			}
			recs = nil
		}

		h := newSymbolHistory()
		pair := s.api.DetermineTradingPair(symbol, s.defaultCurrency)
		for _, rec := range recs {
			if rec.CurrencyPair == pair && rec.Usable() {
				h.put(rec)
			}
		}
		s.mu.Lock()
		s.history[symbol] = h
		s.mu.Unlock()
		return nil, nil
	})
	return waitShared(ctx, ch)
}

// fetchAndMerge asks the API for up to a year of closes starting at day and
// persists whatever was not cached yet.
func (s *priceHistoryService) fetchAndMerge(ctx context.Context, symbol string, day time.Time) error {
	end := day.Add(fetchWindow)
	if limit := models.DateOnly(s.now()).Add(24 * time.Hour); limit.Before(end) {
		end = limit
	}
	if end.Before(day) {
		return nil
	}

	key := "fetch:" + symbol + ":" + day.Format(models.DateLayout)
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		pair := s.api.DetermineTradingPair(symbol, s.defaultCurrency)
		recs, err := s.api.FetchPriceHistory(fetchCtx, pair, day, end)
		if err != nil {
			return nil, err
		}
		delta := s.merge(symbol, pair, recs)
		if len(delta) == 0 {
			return nil, nil
		}
		if err := s.storage.SaveHistory(fetchCtx, symbol, delta); err != nil {
			s.logger.Warn("failed to persist fetched prices",
				zap.String("symbol", symbol),
				zap.Int("records", len(delta)),
				zap.Error(err))
		}
		s.logger.Debug("merged fetched prices",
			zap.String("symbol", symbol),
			zap.Int("new_records", len(delta)))
		return nil, nil
	})
	return waitShared(ctx, ch)
}

// waitShared waits for a singleflight result or for ctx, whichever is first.
func waitShared(ctx context.Context, ch <-chan singleflight.Result) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

// merge adds records not yet cached and returns them.
func (s *priceHistoryService) merge(symbol, pair string, recs []models.PriceRecord) []models.PriceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.history[symbol]
	if !ok {
		h = newSymbolHistory()
		s.history[symbol] = h
	}
	var delta []models.PriceRecord
	for _, rec := range recs {
		if !rec.Usable() {
			continue
		}
		rec.Symbol = symbol
		if rec.CurrencyPair == "" {
			rec.CurrencyPair = pair
		}
		rec.CloseDate = models.DateOnly(rec.CloseDate)
		if h.put(rec) {
			delta = append(delta, rec)
		}
	}
	return delta
}

// put reports whether rec was new.
func (h *symbolHistory) put(rec models.PriceRecord) bool {
	key := rec.Key()
	if _, dup := h.keys[key]; dup {
		return false
	}
	h.keys[key] = struct{}{}
	h.byDate[models.DateOnly(rec.CloseDate).Format(models.DateLayout)] = rec.ClosePrice
	return true
}

func (s *priceHistoryService) isLoaded(symbol string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.history[symbol]
	return ok
}

func (s *priceHistoryService) lookup(symbol string, day time.Time) (decimal.Decimal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.history[symbol]
	if !ok {
		return decimal.Zero, false
	}
	price, ok := h.byDate[day.Format(models.DateLayout)]
	return price, ok
}

// fiatFallback carries the last close forward over weekends and holidays.
func (s *priceHistoryService) fiatFallback(symbol string, day time.Time) (decimal.Decimal, bool) {
	for i := 1; i <= fiatFallbackDays; i++ {
		if price, ok := s.lookup(symbol, day.AddDate(0, 0, -i)); ok {
			return price, true
		}
	}
	return decimal.Zero, false
}

func (s *priceHistoryService) todayGet(symbol string, day time.Time) (decimal.Decimal, bool) {
	s.todayMu.Lock()
	defer s.todayMu.Unlock()
	key := symbol + "|" + day.Format(models.DateLayout)
	e, ok := s.today[key]
	if !ok {
		return decimal.Zero, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.today, key)
		return decimal.Zero, false
	}
	return e.price, true
}

func (s *priceHistoryService) todayPut(symbol string, day time.Time, price decimal.Decimal) {
	s.todayMu.Lock()
	defer s.todayMu.Unlock()
	s.today[symbol+"|"+day.Format(models.DateLayout)] = todayEntry{
		price:     price,
		expiresAt: s.now().Add(todayCacheTTL),
	}
}
