package repositories

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"

	apperrors "github.com/tropicaldog17/coinbasis/internal/errors"
	"github.com/tropicaldog17/coinbasis/internal/models"
)

var symbolFileName = regexp.MustCompile(`^[A-Z0-9._-]+$`)

// FilePriceHistoryStore keeps one msgpack file per symbol under dir.
type FilePriceHistoryStore struct {
	dir string
	mu  sync.Mutex
}

type fileRecord struct {
	Pair  string `msgpack:"p"`
	Date  int64  `msgpack:"d"`
	Close string `msgpack:"c"`
}

func NewFilePriceHistoryStore(dir string) (*FilePriceHistoryStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create price history dir: %w", err)
	}
	return &FilePriceHistoryStore{dir: dir}, nil
}

func (s *FilePriceHistoryStore) LoadHistory(ctx context.Context, symbol string) ([]models.PriceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.read(symbol)
	if err != nil {
		return nil, err
	}
	return usableRecords(recs), nil
}

func (s *FilePriceHistoryStore) SaveHistory(ctx context.Context, symbol string, records []models.PriceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read(symbol)
	if err != nil && !errors.Is(err, apperrors.ErrSeriesNotFound) {
		return err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, rec := range existing {
		seen[rec.Key()] = struct{}{}
	}
	merged := existing
	for _, rec := range records {
		if !rec.Usable() {
			continue
		}
		rec.Symbol = symbol
		rec.CloseDate = models.DateOnly(rec.CloseDate)
		if _, dup := seen[rec.Key()]; dup {
			continue
		}
		seen[rec.Key()] = struct{}{}
		merged = append(merged, rec)
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].CloseDate.Before(merged[j].CloseDate) })
	return s.write(symbol, merged)
}

func (s *FilePriceHistoryStore) path(symbol string) (string, error) {
	if !symbolFileName.MatchString(symbol) {
		return "", apperrors.NewValidation("symbol", "unsupported characters in "+symbol)
	}
	return filepath.Join(s.dir, symbol+".msgpack"), nil
}

func (s *FilePriceHistoryStore) read(symbol string) ([]models.PriceRecord, error) {
	p, err := s.path(symbol)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", symbol, apperrors.ErrSeriesNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read price history %s: %w", symbol, err)
	}

	var rows []fileRecord
	if err := msgpack.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode price history %s: %w", symbol, err)
	}
	out := make([]models.PriceRecord, 0, len(rows))
	for _, row := range rows {
		price, err := decimal.NewFromString(row.Close)
		if err != nil {
			return nil, fmt.Errorf("corrupt close price %q in %s: %w", row.Close, symbol, err)
		}
		out = append(out, models.PriceRecord{
			Symbol:       symbol,
			CurrencyPair: row.Pair,
			CloseDate:    time.Unix(row.Date, 0).UTC(),
			ClosePrice:   price,
		})
	}
	return out, nil
}

func (s *FilePriceHistoryStore) write(symbol string, records []models.PriceRecord) error {
	p, err := s.path(symbol)
	if err != nil {
		return err
	}
	rows := make([]fileRecord, 0, len(records))
	for _, rec := range records {
		rows = append(rows, fileRecord{Pair: rec.CurrencyPair, Date: rec.CloseDate.Unix(), Close: rec.ClosePrice.String()})
	}
	data, err := msgpack.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode price history %s: %w", symbol, err)
	}

	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write price history %s: %w", symbol, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("failed to replace price history %s: %w", symbol, err)
	}
	return nil
}
