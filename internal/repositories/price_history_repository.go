package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/tropicaldog17/coinbasis/internal/db"
	apperrors "github.com/tropicaldog17/coinbasis/internal/errors"
	"github.com/tropicaldog17/coinbasis/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type priceHistoryRepository struct {
	db *db.DB
}

// NewPriceHistoryRepository creates a gorm-backed PriceHistoryStorage.
func NewPriceHistoryRepository(database *db.DB) PriceHistoryStorage {
	return &priceHistoryRepository{db: database}
}

func (r *priceHistoryRepository) LoadHistory(ctx context.Context, symbol string) ([]models.PriceRecord, error) {
	var series models.PriceSeries
	if err := r.db.WithContext(ctx).First(&series, "symbol = ?", symbol).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", symbol, apperrors.ErrSeriesNotFound)
		}
		return nil, fmt.Errorf("failed to load price series %s: %w", symbol, err)
	}

	var rows []models.PriceRecord
	if err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("close_date ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load price history %s: %w", symbol, err)
	}
	return usableRecords(rows), nil
}

func (r *priceHistoryRepository) SaveHistory(ctx context.Context, symbol string, records []models.PriceRecord) error {
	rows := make([]models.PriceRecord, 0, len(records))
	for _, rec := range records {
		if !rec.Usable() {
			continue
		}
		rows = append(rows, models.PriceRecord{
			Symbol:       symbol,
			CurrencyPair: rec.CurrencyPair,
			CloseDate:    models.DateOnly(rec.CloseDate),
			ClosePrice:   rec.ClosePrice,
		})
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}},
			DoUpdates: clause.AssignmentColumns([]string{"updated_at"}),
		}).Create(&models.PriceSeries{Symbol: symbol}).Error; err != nil {
			return fmt.Errorf("failed to upsert price series: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "currency_pair"}, {Name: "close_date"}},
			DoNothing: true,
		}).CreateInBatches(rows, 500).Error; err != nil {
			return fmt.Errorf("failed to insert price records: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save price history %s: %w", symbol, err)
	}
	return nil
}

// usableRecords drops zero or negative closes, which stand for missing data.
func usableRecords(in []models.PriceRecord) []models.PriceRecord {
	out := make([]models.PriceRecord, 0, len(in))
	for _, rec := range in {
		if rec.Usable() {
			out = append(out, rec)
		}
	}
	return out
}
