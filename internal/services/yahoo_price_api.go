package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tropicaldog17/coinbasis/internal/logger"
	"github.com/tropicaldog17/coinbasis/internal/models"
)

const DefaultYahooBaseURL = "https://query2.finance.yahoo.com"

var ErrYahooNoResult = errors.New("yahoo: no result")

// YahooStatusError is returned when the chart endpoint answers with a
// non-200 status.
type YahooStatusError struct {
	StatusCode int
	Pair       string
}

func (e *YahooStatusError) Error() string {
	return fmt.Sprintf("yahoo returned status %d for %s", e.StatusCode, e.Pair)
}

// Permanent reports client errors other than throttling.
func (e *YahooStatusError) Permanent() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != http.StatusTooManyRequests
}

// yahooAliases maps exchange tickers to the symbol Yahoo lists the asset under.
var yahooAliases = map[string]string{
	"XBT":    "BTC",
	"XDG":    "DOGE",
	"STR":    "XLM",
	"BCHABC": "BCH",
	"BCHSV":  "BSV",
	"IOTA":   "MIOTA",
	"UNI":    "UNI7083",
	"APT":    "APT21794",
	"ARB":    "ARB11841",
	"GRT":    "GRT6719",
	"SUI":    "SUI20947",
}

// YahooPriceAPI reads daily closes from the Yahoo Finance v8 chart endpoint.
type YahooPriceAPI struct {
	baseURL    string
	httpClient *http.Client
	limiter    *RateLimiter
	logger     *zap.Logger
}

func NewYahooPriceAPI(baseURL string, limiter *RateLimiter, log *zap.Logger) *YahooPriceAPI {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	return &YahooPriceAPI{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    limiter,
		logger:     logger.OrNop(log).With(zap.String("component", "yahoo_price_api")),
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// DetermineTradingPair returns "EURUSD=X" for fiat pairs and "BTC-USD" style
// tickers for everything else.
func (y *YahooPriceAPI) DetermineTradingPair(from, to string) string {
	from = models.NormalizeCode(from)
	to = models.NormalizeCode(to)
	if models.IsFiatCurrency(from) && models.IsFiatCurrency(to) {
		return from + to + "=X"
	}
	if alias, ok := yahooAliases[from]; ok {
		from = alias
	}
	return from + "-" + to
}

func (y *YahooPriceAPI) FetchPriceHistory(ctx context.Context, symbolPair string, start, end time.Time) ([]models.PriceRecord, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(models.DateOnly(start).Unix(), 10))
	q.Set("period2", strconv.FormatInt(models.DateOnly(end).Add(24*time.Hour).Unix(), 10))
	q.Set("interval", "1d")

	chart, err := y.getChart(ctx, symbolPair, q)
	if err != nil {
		return nil, err
	}

	r := chart.Chart.Result[0]
	var closes []*float64
	if len(r.Indicators.Quote) > 0 {
		closes = r.Indicators.Quote[0].Close
	}
	records := make([]models.PriceRecord, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		records = append(records, models.PriceRecord{
			CurrencyPair: symbolPair,
			CloseDate:    models.DateOnly(time.Unix(ts, 0)),
			ClosePrice:   decimal.NewFromFloat(*closes[i]),
		})
	}

	y.logger.Debug("fetched price history",
		zap.String("pair", symbolPair),
		zap.Time("start", start),
		zap.Time("end", end),
		zap.Int("records", len(records)))
	return records, nil
}

// FetchCurrentPrice queries each symbol in turn. Symbols the provider cannot
// price are logged and left out; an error is returned only when none could.
func (y *YahooPriceAPI) FetchCurrentPrice(ctx context.Context, symbols []string, currency string) ([]models.PriceRecord, error) {
	var (
		records []models.PriceRecord
		lastErr error
	)
	for _, symbol := range symbols {
		pair := y.DetermineTradingPair(symbol, currency)
		q := url.Values{}
		q.Set("range", "1d")
		q.Set("interval", "1d")

		chart, err := y.getChart(ctx, pair, q)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			y.logger.Warn("current price unavailable", zap.String("pair", pair), zap.Error(err))
			lastErr = err
			continue
		}
		meta := chart.Chart.Result[0].Meta
		if meta.RegularMarketPrice <= 0 {
			lastErr = fmt.Errorf("%s: %w", pair, ErrYahooNoResult)
			continue
		}
		asOf := time.Now()
		if meta.RegularMarketTime > 0 {
			asOf = time.Unix(meta.RegularMarketTime, 0)
		}
		records = append(records, models.PriceRecord{
			Symbol:       models.NormalizeCode(symbol),
			CurrencyPair: pair,
			CloseDate:    models.DateOnly(asOf),
			ClosePrice:   decimal.NewFromFloat(meta.RegularMarketPrice),
		})
	}
	if len(records) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return records, nil
}

func (y *YahooPriceAPI) getChart(ctx context.Context, pair string, q url.Values) (*chartResponse, error) {
	if y.limiter != nil {
		if err := y.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.baseURL, url.PathEscape(pair), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "coinbasis/1.0")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pair, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &YahooStatusError{StatusCode: resp.StatusCode, Pair: pair}
	}

	var chart chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, fmt.Errorf("failed to decode chart for %s: %w", pair, err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("%s: %w: %s", pair, ErrYahooNoResult, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("%s: %w", pair, ErrYahooNoResult)
	}
	return &chart, nil
}
