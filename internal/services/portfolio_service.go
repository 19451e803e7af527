package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/tropicaldog17/coinbasis/internal/errors"
	"github.com/tropicaldog17/coinbasis/internal/logger"
	"github.com/tropicaldog17/coinbasis/internal/models"
)

// maxConcurrentPortfolios bounds CalculateAll.
const maxConcurrentPortfolios = 4

type portfolioService struct {
	prices    PriceHistoryService
	processor models.TransactionProcessor
	logger    *zap.Logger
}

// NewPortfolioService creates a PortfolioService. When processor is nil the
// default valuation engine backed by prices is used.
func NewPortfolioService(prices PriceHistoryService, processor models.TransactionProcessor, log *zap.Logger) PortfolioService {
	log = logger.OrNop(log)
	if processor == nil {
		processor = NewTransactionProcessor(prices, log)
	}
	return &portfolioService{
		prices:    prices,
		processor: processor,
		logger:    log.With(zap.String("component", "portfolio_service")),
	}
}

// CalculateTrades recomputes holdings and taxable events from scratch.
func (s *portfolioService) CalculateTrades(ctx context.Context, p *models.Portfolio) (*models.CalculationReport, error) {
	if p == nil {
		return nil, apperrors.NewValidation("portfolio", "is required")
	}
	if p.DefaultCurrency != s.prices.DefaultCurrency() {
		return nil, apperrors.NewValidation("default_currency",
			fmt.Sprintf("portfolio uses %s but prices are quoted in %s", p.DefaultCurrency, s.prices.DefaultCurrency()))
	}

	p.Reset()
	report, err := p.CalculateTrades(ctx, s.processor)
	if err != nil {
		s.logger.Warn("calculation interrupted",
			zap.Int("processed", report.Processed),
			zap.Error(err))
		return report, err
	}

	s.logger.Info("portfolio calculated",
		zap.Int("processed", report.Processed),
		zap.Int("skipped", report.Skipped),
		zap.Int("flagged", report.Flagged),
		zap.Int("holdings", len(p.Holdings)),
		zap.Int("taxable_events", len(p.TaxableEvents)))
	return report, nil
}

// CalculateAll runs independent portfolios concurrently. Reports are in
// input order; the first error cancels the rest.
func (s *portfolioService) CalculateAll(ctx context.Context, portfolios []*models.Portfolio) ([]*models.CalculationReport, error) {
	reports := make([]*models.CalculationReport, len(portfolios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPortfolios)
	for i, p := range portfolios {
		g.Go(func() error {
			report, err := s.CalculateTrades(gctx, p)
			reports[i] = report
			if err != nil {
				return fmt.Errorf("portfolio %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return reports, err
	}
	return reports, nil
}

// RefreshCurrentPrices fills CurrentPrice on every non-empty holding. Holdings
// the price source could not quote keep their previous price.
func (s *portfolioService) RefreshCurrentPrices(ctx context.Context, p *models.Portfolio) error {
	if p == nil {
		return apperrors.NewValidation("portfolio", "is required")
	}
	var symbols []string
	for _, h := range p.HoldingList() {
		if h.Balance.IsZero() {
			continue
		}
		if h.Asset == p.DefaultCurrency {
			h.CurrentPrice = models.NewMoney(decimal.NewFromInt(1), p.DefaultCurrency)
			continue
		}
		symbols = append(symbols, h.Asset)
	}
	if len(symbols) == 0 {
		return nil
	}

	prices, err := s.prices.GetCurrentPrices(ctx, symbols)
	for sym, price := range prices {
		if h, ok := p.Holdings[sym]; ok {
			h.CurrentPrice = models.NewMoney(price, p.DefaultCurrency)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to refresh current prices: %w", err)
	}
	return nil
}
