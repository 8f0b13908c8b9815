package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Laxmikant2002/trading-demo/pkg/models"
)

// QuoteStore persists the quote history. Rows are append-only except for
// the same-cycle indicator backfill on the newest row.
type QuoteStore struct {
	db *gorm.DB
}

func NewQuoteStore(db *gorm.DB) *QuoteStore {
	return &QuoteStore{db: db}
}

func (s *QuoteStore) Insert(ctx context.Context, q *models.Quote) error {
	return s.db.WithContext(ctx).Create(q).Error
}

// SetIndicators backfills the indicator columns on an existing row.
func (s *QuoteStore) SetIndicators(ctx context.Context, id uint, ma20, ma50, rsi14 *float64) error {
	return s.db.WithContext(ctx).
		Model(&models.Quote{}).
		Where("id = ?", id).
		Updates(map[string]any{"ma_20": ma20, "ma_50": ma50, "rsi_14": rsi14}).
		Error
}

// RecentCloses returns up to limit close prices for the symbol in ascending
// time order, the shape the indicator calculator wants.
func (s *QuoteStore) RecentCloses(ctx context.Context, symbol string, limit int) ([]float64, error) {
	var prices []float64
	err := s.db.WithContext(ctx).
		Model(&models.Quote{}).
		Where("symbol = ?", symbol).
		Order("timestamp DESC").
		Limit(limit).
		Pluck("price", &prices).
		Error
	if err != nil {
		return nil, err
	}

	// Query is newest-first; reverse to chronological
	for i, j := 0, len(prices)-1; i < j; i, j = i+1, j-1 {
		prices[i], prices[j] = prices[j], prices[i]
	}
	return prices, nil
}

// DeleteOlderThan purges rows outside the retention window.
func (s *QuoteStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("timestamp < ?", cutoff).
		Delete(&models.Quote{})
	return res.RowsAffected, res.Error
}
