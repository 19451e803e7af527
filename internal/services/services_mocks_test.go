package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/tropicaldog17/coinbasis/internal/errors"
	"github.com/tropicaldog17/coinbasis/internal/models"
)

var errUpstream = errors.New("upstream unavailable")

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// mockPriceAPI serves closes from a map of pair -> date -> price.
type mockPriceAPI struct {
	mu           sync.Mutex
	history      map[string]map[string]string
	current      map[string]string
	historyErr   error
	currentErr   error
	historyCalls int
	currentCalls [][]string
}

func newMockPriceAPI() *mockPriceAPI {
	return &mockPriceAPI{history: map[string]map[string]string{}, current: map[string]string{}}
}

func (m *mockPriceAPI) setClose(pair string, date time.Time, price string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.history[pair] == nil {
		m.history[pair] = map[string]string{}
	}
	m.history[pair][date.Format(models.DateLayout)] = price
}

func (m *mockPriceAPI) DetermineTradingPair(from, to string) string {
	if models.IsFiatCurrency(from) && models.IsFiatCurrency(to) {
		return from + to + "=X"
	}
	return from + "-" + to
}

func (m *mockPriceAPI) FetchPriceHistory(ctx context.Context, pair string, start, end time.Time) ([]models.PriceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.historyCalls++
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	var out []models.PriceRecord
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if p, ok := m.history[pair][d.Format(models.DateLayout)]; ok {
			out = append(out, models.PriceRecord{CurrencyPair: pair, CloseDate: d, ClosePrice: dec(p)})
		}
	}
	return out, nil
}

func (m *mockPriceAPI) FetchCurrentPrice(ctx context.Context, symbols []string, currency string) ([]models.PriceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentCalls = append(m.currentCalls, append([]string(nil), symbols...))
	if m.currentErr != nil {
		return nil, m.currentErr
	}
	var out []models.PriceRecord
	for _, s := range symbols {
		if p, ok := m.current[s]; ok {
			out = append(out, models.PriceRecord{Symbol: s, CurrencyPair: s + "-" + currency, CloseDate: time.Now(), ClosePrice: dec(p)})
		}
	}
	return out, nil
}

// mockStorage is an in-memory PriceHistoryStorage.
type mockStorage struct {
	mu        sync.Mutex
	series    map[string][]models.PriceRecord
	loadErr   error
	loadCalls map[string]int
	saves     map[string][][]models.PriceRecord
	loadDelay time.Duration
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		series:    map[string][]models.PriceRecord{},
		loadCalls: map[string]int{},
		saves:     map[string][][]models.PriceRecord{},
	}
}

func (m *mockStorage) LoadHistory(ctx context.Context, symbol string) ([]models.PriceRecord, error) {
	if m.loadDelay > 0 {
		time.Sleep(m.loadDelay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadCalls[symbol]++
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	recs, ok := m.series[symbol]
	if !ok {
		return nil, apperrors.ErrSeriesNotFound
	}
	return append([]models.PriceRecord(nil), recs...), nil
}

func (m *mockStorage) SaveHistory(ctx context.Context, symbol string, records []models.PriceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves[symbol] = append(m.saves[symbol], records)
	m.series[symbol] = append(m.series[symbol], records...)
	return nil
}

func (m *mockStorage) loads(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls[symbol]
}

// mockPriceLookup returns fixed closes keyed by symbol and date.
type mockPriceLookup struct {
	prices map[string]decimal.Decimal

	mu    sync.Mutex
	calls int
}

func newMockPriceLookup() *mockPriceLookup {
	return &mockPriceLookup{prices: map[string]decimal.Decimal{}}
}

func (m *mockPriceLookup) set(symbol string, date time.Time, price string) {
	m.prices[symbol+"|"+models.DateOnly(date).Format(models.DateLayout)] = dec(price)
}

func (m *mockPriceLookup) GetPriceAtClose(ctx context.Context, symbol string, date time.Time) (decimal.Decimal, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if p, ok := m.prices[symbol+"|"+models.DateOnly(date).Format(models.DateLayout)]; ok {
		return p, nil
	}
	return decimal.Zero, apperrors.ErrPriceNotFound
}

// mockPriceService adapts mockPriceLookup to PriceHistoryService.
type mockPriceService struct {
	*mockPriceLookup
	currency string
	current  map[string]decimal.Decimal
	err      error
}

func (m *mockPriceService) DefaultCurrency() string { return m.currency }

func (m *mockPriceService) GetCurrentPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	out := map[string]decimal.Decimal{}
	for _, s := range symbols {
		if p, ok := m.current[s]; ok {
			out[s] = p
		}
	}
	return out, m.err
}

func (m *mockPriceService) GetPriceWithRetry(ctx context.Context, symbol string, date time.Time, attempts int) (decimal.Decimal, error) {
	return m.GetPriceAtClose(ctx, symbol, date)
}
