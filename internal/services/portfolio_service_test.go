package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tropicaldog17/coinbasis/internal/errors"
	"github.com/tropicaldog17/coinbasis/internal/models"
)

func newPortfolioFixture(t *testing.T, btc string) *models.Portfolio {
	t.Helper()
	p, err := models.NewPortfolio("USD")
	require.NoError(t, err)
	w := models.NewWallet("cold storage")
	dep, err := models.NewDeposit(input(day(2024, 1, 1)), amt(btc, "BTC"))
	require.NoError(t, err)
	w.AddTransaction(dep)
	require.NoError(t, p.AddWallet(w))
	return p
}

func newMockPriceService() *mockPriceService {
	lookup := newMockPriceLookup()
	lookup.set("BTC", day(2024, 1, 1), "42000")
	return &mockPriceService{mockPriceLookup: lookup, currency: "USD", current: map[string]decimal.Decimal{}}
}

func TestPortfolioService_CalculateTradesIsRepeatable(t *testing.T) {
	svc := NewPortfolioService(newMockPriceService(), nil, nil)
	p := newPortfolioFixture(t, "2")

	for i := 0; i < 2; i++ {
		report, err := svc.CalculateTrades(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Processed)
		assertDec(t, "2", p.Holdings["BTC"].Balance)
		assertDec(t, "42000", p.Holdings["BTC"].AverageBoughtPrice)
	}
}

func TestPortfolioService_RejectsCurrencyMismatch(t *testing.T) {
	prices := newMockPriceService()
	prices.currency = "EUR"
	svc := NewPortfolioService(prices, nil, nil)

	_, err := svc.CalculateTrades(context.Background(), newPortfolioFixture(t, "1"))
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.CalculateTrades(context.Background(), nil)
	assert.True(t, apperrors.IsValidation(err))
}

func TestPortfolioService_CalculateTradesCanceled(t *testing.T) {
	svc := NewPortfolioService(newMockPriceService(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.CalculateTrades(ctx, newPortfolioFixture(t, "1"))
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.Processed)
}

func TestPortfolioService_CalculateAll(t *testing.T) {
	svc := NewPortfolioService(newMockPriceService(), nil, nil)
	portfolios := []*models.Portfolio{
		newPortfolioFixture(t, "1"),
		newPortfolioFixture(t, "2"),
		newPortfolioFixture(t, "3"),
		newPortfolioFixture(t, "4"),
		newPortfolioFixture(t, "5"),
	}

	reports, err := svc.CalculateAll(context.Background(), portfolios)
	require.NoError(t, err)
	require.Len(t, reports, len(portfolios))
	for i, p := range portfolios {
		assert.Equal(t, 1, reports[i].Processed)
		assertDec(t, []string{"1", "2", "3", "4", "5"}[i], p.Holdings["BTC"].Balance)
	}
}

func TestPortfolioService_RefreshCurrentPrices(t *testing.T) {
	prices := newMockPriceService()
	prices.current["BTC"] = dec("65000")
	svc := NewPortfolioService(prices, nil, nil)

	p := newPortfolioFixture(t, "2")
	usd, err := models.NewDeposit(input(day(2024, 1, 2)), amt("100", "USD"))
	require.NoError(t, err)
	p.Wallets[0].AddTransaction(usd)
	_, err = svc.CalculateTrades(context.Background(), p)
	require.NoError(t, err)

	require.NoError(t, svc.RefreshCurrentPrices(context.Background(), p))
	btc := p.Holdings["BTC"]
	assertDec(t, "65000", btc.CurrentPrice.Amount)
	assert.Equal(t, "USD", btc.CurrentPrice.CurrencyCode)
	assertDec(t, "130000", btc.MarketValue())
	assertDec(t, "46000", btc.UnrealizedGain())
	assertDec(t, "1", p.Holdings["USD"].CurrentPrice.Amount)

	prices.err = errUpstream
	assert.ErrorIs(t, svc.RefreshCurrentPrices(context.Background(), p), errUpstream)
}
