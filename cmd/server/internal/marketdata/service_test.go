package marketdata

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Laxmikant2002/trading-demo/pkg/models"
)

type stubFetcher struct {
	quotes   []RawQuote
	fetchErr error
	high     float64
	low      float64
}

func (f *stubFetcher) FetchQuotes(ctx context.Context, symbols []string) ([]RawQuote, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.quotes, nil
}

func (f *stubFetcher) Fetch24hRange(ctx context.Context, symbol string) (float64, float64) {
	return f.high, f.low
}

type stubHistory struct {
	mu         sync.Mutex
	rows       []models.Quote
	closes     []float64
	indicators map[uint]Indicators
	insertErr  error
	deleted    int64
	cutoffs    []time.Time
}

func (h *stubHistory) Insert(ctx context.Context, q *models.Quote) error {
	if h.insertErr != nil {
		return h.insertErr
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	q.ID = uint(len(h.rows) + 1)
	h.rows = append(h.rows, *q)
	return nil
}

func (h *stubHistory) SetIndicators(ctx context.Context, id uint, ma20, ma50, rsi14 *float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.indicators == nil {
		h.indicators = make(map[uint]Indicators)
	}
	h.indicators[id] = Indicators{MA20: ma20, MA50: ma50, RSI14: rsi14}
	return nil
}

func (h *stubHistory) RecentCloses(ctx context.Context, symbol string, limit int) ([]float64, error) {
	return h.closes, nil
}

func (h *stubHistory) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cutoffs = append(h.cutoffs, cutoff)
	return h.deleted, nil
}

type stubExporter struct {
	mu       sync.Mutex
	exported []models.Quote
}

func (e *stubExporter) Export(ctx context.Context, q models.Quote) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.exported = append(e.exported, q)
}

func newServiceUnderTest(t *testing.T, fetcher *stubFetcher, history *stubHistory, exporter Exporter) (*Service, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(rdb, 15*time.Minute)
	svc := NewService(fetcher, history, cache, nil, exporter, []string{"btc", "ETH"}, 365, zap.NewNop())
	return svc, cache
}

func TestService_SymbolsNormalized(t *testing.T) {
	svc, _ := newServiceUnderTest(t, &stubFetcher{}, &stubHistory{}, nil)
	assert.Equal(t, []string{"BTC", "ETH"}, svc.Symbols())
}

func TestService_Refresh_PersistsAndCaches(t *testing.T) {
	fetcher := &stubFetcher{
		quotes: []RawQuote{
			{Symbol: "BTC", Price: 50000, ChangePercent: 2.5, Volume: 1200},
		},
		high: 51000,
		low:  48000,
	}
	history := &stubHistory{}
	exporter := &stubExporter{}
	svc, cache := newServiceUnderTest(t, fetcher, history, exporter)

	require.NoError(t, svc.Refresh(context.Background()))

	require.Len(t, history.rows, 1)
	row := history.rows[0]
	assert.Equal(t, "BTC", row.Symbol)
	assert.Equal(t, 50000.0, row.Price)
	assert.Equal(t, 2.5, row.Change24h)
	assert.Equal(t, 51000.0, row.High24h)
	assert.Equal(t, 48000.0, row.Low24h)
	assert.True(t, row.IsDelayed)
	require.NotNil(t, row.Volume24h)
	assert.Equal(t, 1200.0, *row.Volume24h)

	cached, hit, err := cache.Get(context.Background(), "BTC")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, 50000.0, cached.Price)

	require.Len(t, exporter.exported, 1)
	assert.Equal(t, "BTC", exporter.exported[0].Symbol)
}

func TestService_Refresh_BackfillsIndicators(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	fetcher := &stubFetcher{quotes: []RawQuote{{Symbol: "BTC", Price: 160}}}
	history := &stubHistory{closes: closes}
	svc, _ := newServiceUnderTest(t, fetcher, history, nil)

	require.NoError(t, svc.Refresh(context.Background()))

	require.Len(t, history.indicators, 1)
	ind := history.indicators[1]
	require.NotNil(t, ind.MA20)
	require.NotNil(t, ind.RSI14)
	assert.Equal(t, 100.0, *ind.RSI14)
}

func TestService_Refresh_SkipsIndicatorsBelowMinimum(t *testing.T) {
	fetcher := &stubFetcher{quotes: []RawQuote{{Symbol: "BTC", Price: 160}}}
	history := &stubHistory{closes: []float64{1, 2, 3}}
	svc, _ := newServiceUnderTest(t, fetcher, history, nil)

	require.NoError(t, svc.Refresh(context.Background()))

	assert.Empty(t, history.indicators)
}

func TestService_Refresh_ProviderFailureFailsCycle(t *testing.T) {
	fetcher := &stubFetcher{fetchErr: errors.New("rate limited")}
	history := &stubHistory{}
	svc, _ := newServiceUnderTest(t, fetcher, history, nil)

	err := svc.Refresh(context.Background())
	assert.Error(t, err)
	assert.Empty(t, history.rows)
}

func TestService_Refresh_IgnoresUntrackedSymbols(t *testing.T) {
	fetcher := &stubFetcher{quotes: []RawQuote{{Symbol: "DOGE", Price: 0.1}}}
	history := &stubHistory{}
	svc, _ := newServiceUnderTest(t, fetcher, history, nil)

	require.NoError(t, svc.Refresh(context.Background()))
	assert.Empty(t, history.rows)
}

func TestService_Refresh_ZeroVolumeStoredAsNull(t *testing.T) {
	fetcher := &stubFetcher{quotes: []RawQuote{{Symbol: "BTC", Price: 50000, Volume: 0}}}
	history := &stubHistory{}
	svc, _ := newServiceUnderTest(t, fetcher, history, nil)

	require.NoError(t, svc.Refresh(context.Background()))
	require.Len(t, history.rows, 1)
	assert.Nil(t, history.rows[0].Volume24h)
}

func TestService_Cleanup_UsesRetentionWindow(t *testing.T) {
	history := &stubHistory{deleted: 12}
	svc, _ := newServiceUnderTest(t, &stubFetcher{}, history, nil)

	svc.Cleanup(context.Background())

	require.Len(t, history.cutoffs, 1)
	wantCutoff := time.Now().UTC().AddDate(0, 0, -365)
	assert.WithinDuration(t, wantCutoff, history.cutoffs[0], time.Minute)
}
