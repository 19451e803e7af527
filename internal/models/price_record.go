package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceRecord is one daily close of Symbol quoted as CurrencyPair.
// (CurrencyPair, CloseDate) is the natural key.
type PriceRecord struct {
	ID           uint            `json:"-" gorm:"primaryKey"`
	Symbol       string          `json:"symbol" gorm:"column:symbol;type:varchar(50);not null;index"`
	CurrencyPair string          `json:"currency_pair" gorm:"column:currency_pair;type:varchar(50);not null;uniqueIndex:idx_price_records_pair_date"`
	CloseDate    time.Time       `json:"close_date" gorm:"column:close_date;not null;uniqueIndex:idx_price_records_pair_date"`
	ClosePrice   decimal.Decimal `json:"close_price" gorm:"column:close_price;type:decimal(30,18);not null"`
	CreatedAt    time.Time       `json:"-" gorm:"column:created_at;autoCreateTime"`
}

func (PriceRecord) TableName() string {
	return "price_records"
}

// Usable reports whether the record carries real data.
func (p PriceRecord) Usable() bool {
	return p.ClosePrice.IsPositive() && !p.CloseDate.IsZero()
}

// Key identifies the record by its natural key.
func (p PriceRecord) Key() string {
	return p.CurrencyPair + "|" + DateOnly(p.CloseDate).Format(DateLayout)
}

// PriceSeries marks a symbol whose history was persisted, even when empty.
type PriceSeries struct {
	Symbol    string    `gorm:"primaryKey;column:symbol;type:varchar(50)"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (PriceSeries) TableName() string {
	return "price_series"
}

// DateLayout is the calendar-day format used in keys and query strings.
const DateLayout = "2006-01-02"

// DateOnly truncates t to its calendar day in UTC.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
