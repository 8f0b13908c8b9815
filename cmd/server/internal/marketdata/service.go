package marketdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Laxmikant2002/trading-demo/pkg/models"
)

// historyDepth is how many persisted rows feed the indicator calculator.
const historyDepth = 100

// HistoryStore is the persistence surface of the refresh cycle.
type HistoryStore interface {
	Insert(ctx context.Context, q *models.Quote) error
	SetIndicators(ctx context.Context, id uint, ma20, ma50, rsi14 *float64) error
	RecentCloses(ctx context.Context, symbol string, limit int) ([]float64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Exporter mirrors refreshed quotes to an external stream. Optional.
type Exporter interface {
	Export(ctx context.Context, q models.Quote)
}

// Service runs one refresh cycle end to end: fetch, enrich, persist,
// cache, announce, evaluate alerts, export.
type Service struct {
	fetcher       Fetcher
	history       HistoryStore
	cache         *Cache
	alerts        *AlertEvaluator
	exporter      Exporter
	symbols       []string
	retentionDays int
	logger        *zap.Logger
}

func NewService(
	fetcher Fetcher,
	history HistoryStore,
	cache *Cache,
	alerts *AlertEvaluator,
	exporter Exporter,
	symbols []string,
	retentionDays int,
	logger *zap.Logger,
) *Service {
	normalized := make([]string, len(symbols))
	for i, s := range symbols {
		normalized[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	return &Service{
		fetcher:       fetcher,
		history:       history,
		cache:         cache,
		alerts:        alerts,
		exporter:      exporter,
		symbols:       normalized,
		retentionDays: retentionDays,
		logger:        logger,
	}
}

func (s *Service) Symbols() []string { return s.symbols }

// Refresh performs one cycle. A provider error fails the whole cycle; per-
// symbol persistence or cache errors are logged and the loop moves on.
func (s *Service) Refresh(ctx context.Context) error {
	raws, err := s.fetcher.FetchQuotes(ctx, s.symbols)
	if err != nil {
		return fmt.Errorf("refresh cycle: %w", err)
	}

	now := time.Now().UTC()
	for _, raw := range raws {
		sym := strings.ToUpper(strings.TrimSpace(raw.Symbol))
		if !s.tracked(sym) {
			continue
		}
		s.refreshSymbol(ctx, sym, raw, now)
	}
	return nil
}

func (s *Service) refreshSymbol(ctx context.Context, sym string, raw RawQuote, now time.Time) {
	high, low := s.fetcher.Fetch24hRange(ctx, sym)

	row := models.Quote{
		Symbol:    sym,
		Price:     float64(raw.Price),
		Change24h: float64(raw.ChangePercent),
		High24h:   high,
		Low24h:    low,
		Timestamp: now,
		IsDelayed: true,
	}
	if v := float64(raw.Volume); v > 0 {
		row.Volume24h = &v
	}

	if err := s.history.Insert(ctx, &row); err != nil {
		s.logger.Error("Failed to persist quote", zap.String("symbol", sym), zap.Error(err))
		return
	}

	// Indicators come from persisted history including the row just written
	closes, err := s.history.RecentCloses(ctx, sym, historyDepth)
	if err != nil {
		s.logger.Error("History read failed", zap.String("symbol", sym), zap.Error(err))
	} else if ind := Compute(closes); ind.MA20 != nil || ind.MA50 != nil || ind.RSI14 != nil {
		if err := s.history.SetIndicators(ctx, row.ID, ind.MA20, ind.MA50, ind.RSI14); err != nil {
			s.logger.Error("Indicator backfill failed", zap.String("symbol", sym), zap.Error(err))
		} else {
			row.MA20, row.MA50, row.RSI14 = ind.MA20, ind.MA50, ind.RSI14
		}
	}

	if err := s.cache.Put(ctx, row); err != nil {
		s.logger.Error("Cache write failed", zap.String("symbol", sym), zap.Error(err))
	}

	if s.exporter != nil {
		s.exporter.Export(ctx, row)
	}

	if s.alerts != nil {
		s.alerts.Evaluate(ctx, sym, row.Price)
	}
}

// Cleanup purges persisted rows outside the retention window. Failures are
// logged only.
func (s *Service) Cleanup(ctx context.Context) {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)
	deleted, err := s.history.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("Market data cleanup failed", zap.Error(err))
		return
	}
	s.logger.Info("Cleaned up old market data", zap.Int64("rows", deleted))
}

func (s *Service) tracked(sym string) bool {
	for _, t := range s.symbols {
		if t == sym {
			return true
		}
	}
	return false
}
