package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYahooPriceAPI_DetermineTradingPair(t *testing.T) {
	api := NewYahooPriceAPI("", nil, nil)
	tests := []struct {
		from, to string
		want     string
	}{
		{"BTC", "USD", "BTC-USD"},
		{"xbt", "usd", "BTC-USD"},
		{"XDG", "EUR", "DOGE-EUR"},
		{"UNI", "USD", "UNI7083-USD"},
		{"EUR", "USD", "EURUSD=X"},
		{"gbp", "eur", "GBPEUR=X"},
		{"USDT", "USD", "USDT-USD"},
	}
	for _, tt := range tests {
		t.Run(tt.from+"_"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, api.DetermineTradingPair(tt.from, tt.to))
		})
	}
}

func TestYahooPriceAPI_FetchPriceHistory(t *testing.T) {
	d1 := day(2024, 1, 1)
	d2 := day(2024, 1, 2)
	d3 := day(2024, 1, 3)

	var gotPath, gotInterval, gotP1 string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotInterval = r.URL.Query().Get("interval")
		gotP1 = r.URL.Query().Get("period1")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"chart":{"result":[{"meta":{"currency":"USD","symbol":"BTC-USD"},
			"timestamp":[%d,%d,%d],
			"indicators":{"quote":[{"close":[42000.5,null,43000]}]}}],"error":null}}`,
			d1.Unix()+3600, d2.Unix()+3600, d3.Unix()+3600)
	}))
	defer srv.Close()

	api := NewYahooPriceAPI(srv.URL, nil, nil)
	recs, err := api.FetchPriceHistory(context.Background(), "BTC-USD", d1, d3)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/BTC-USD", gotPath)
	assert.Equal(t, "1d", gotInterval)
	assert.Equal(t, fmt.Sprint(d1.Unix()), gotP1)

	require.Len(t, recs, 2)
	assert.Equal(t, "BTC-USD", recs[0].CurrencyPair)
	assert.True(t, recs[0].CloseDate.Equal(d1))
	assert.True(t, recs[0].ClosePrice.Equal(dec("42000.5")))
	assert.True(t, recs[1].CloseDate.Equal(d3))
}

func TestYahooPriceAPI_Errors(t *testing.T) {
	t.Run("http status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()
		_, err := NewYahooPriceAPI(srv.URL, nil, nil).FetchPriceHistory(context.Background(), "BTC-USD", day(2024, 1, 1), day(2024, 1, 2))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
		var statusErr *YahooStatusError
		require.ErrorAs(t, err, &statusErr)
		assert.False(t, statusErr.Permanent())
	})

	t.Run("chart error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
		}))
		defer srv.Close()
		_, err := NewYahooPriceAPI(srv.URL, nil, nil).FetchPriceHistory(context.Background(), "NOPE-USD", day(2024, 1, 1), day(2024, 1, 2))
		assert.ErrorIs(t, err, ErrYahooNoResult)
		assert.Contains(t, err.Error(), "delisted")
	})

	t.Run("empty result", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"chart":{"result":[],"error":null}}`)
		}))
		defer srv.Close()
		_, err := NewYahooPriceAPI(srv.URL, nil, nil).FetchPriceHistory(context.Background(), "BTC-USD", day(2024, 1, 1), day(2024, 1, 2))
		assert.ErrorIs(t, err, ErrYahooNoResult)
	})
}

func TestYahooPriceAPI_FetchCurrentPrice(t *testing.T) {
	now := time.Now().Unix()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/BTC-USD"):
			fmt.Fprintf(w, `{"chart":{"result":[{"meta":{"regularMarketPrice":65000.25,"regularMarketTime":%d}}],"error":null}}`, now)
		case strings.HasSuffix(r.URL.Path, "/ETH-USD"):
			fmt.Fprintf(w, `{"chart":{"result":[{"meta":{"regularMarketPrice":3100,"regularMarketTime":%d}}],"error":null}}`, now)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	api := NewYahooPriceAPI(srv.URL, nil, nil)
	recs, err := api.FetchCurrentPrice(context.Background(), []string{"btc", "ETH", "NOPE"}, "USD")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "BTC", recs[0].Symbol)
	assert.True(t, recs[0].ClosePrice.Equal(dec("65000.25")))
	assert.Equal(t, "ETH", recs[1].Symbol)

	_, err = api.FetchCurrentPrice(context.Background(), []string{"NOPE"}, "USD")
	assert.Error(t, err)
}

func TestYahooPriceAPI_UsesRateLimiter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[{"meta":{},"timestamp":[],"indicators":{"quote":[{"close":[]}]}}],"error":null}}`)
	}))
	defer srv.Close()

	rl, err := NewRateLimiter(1)
	require.NoError(t, err)
	require.NoError(t, rl.Wait(context.Background()))

	api := NewYahooPriceAPI(srv.URL, rl, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = api.FetchPriceHistory(ctx, "BTC-USD", day(2024, 1, 1), day(2024, 1, 2))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
