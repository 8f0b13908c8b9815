package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Laxmikant2002/trading-demo/pkg/models"
)

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCache(rdb, ttl), mr
}

func TestCache_PutGet_RoundTrip(t *testing.T) {
	cache, _ := newTestCache(t, 15*time.Minute)
	ctx := context.Background()

	ma20 := 49500.0
	in := models.Quote{
		Symbol:    "BTC",
		Price:     50000,
		Change24h: 2.4,
		High24h:   51000,
		Low24h:    48000,
		Timestamp: time.Now().UTC().Truncate(time.Second),
		IsDelayed: true,
		MA20:      &ma20,
	}
	require.NoError(t, cache.Put(ctx, in))

	out, hit, err := cache.Get(ctx, "BTC")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, in.Symbol, out.Symbol)
	assert.Equal(t, in.Price, out.Price)
	require.NotNil(t, out.MA20)
	assert.Equal(t, ma20, *out.MA20)
}

func TestCache_Get_Miss(t *testing.T) {
	cache, _ := newTestCache(t, 15*time.Minute)

	out, hit, err := cache.Get(context.Background(), "BTC")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, out)
}

func TestCache_TTLExpiry(t *testing.T) {
	cache, mr := newTestCache(t, 15*time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, models.Quote{Symbol: "ETH", Price: 3000}))

	_, hit, err := cache.Get(ctx, "ETH")
	require.NoError(t, err)
	require.True(t, hit)

	mr.FastForward(16 * time.Minute)

	_, hit, err = cache.Get(ctx, "ETH")
	require.NoError(t, err)
	assert.False(t, hit, "entry past TTL must be a miss")
}

func TestCache_GetAll_OmitsMisses(t *testing.T) {
	cache, _ := newTestCache(t, 15*time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, models.Quote{Symbol: "BTC", Price: 50000}))
	require.NoError(t, cache.Put(ctx, models.Quote{Symbol: "SOL", Price: 150}))

	quotes, err := cache.GetAll(ctx, []string{"BTC", "ETH", "SOL"})
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	symbols := []string{quotes[0].Symbol, quotes[1].Symbol}
	assert.ElementsMatch(t, []string{"BTC", "SOL"}, symbols)
}

func TestCache_GetAll_EmptyInput(t *testing.T) {
	cache, _ := newTestCache(t, 15*time.Minute)

	quotes, err := cache.GetAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestCache_Put_PublishesUpdate(t *testing.T) {
	cache, _ := newTestCache(t, 15*time.Minute)
	ctx := context.Background()

	sub := cache.Subscribe(ctx)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, cache.Put(ctx, models.Quote{Symbol: "BTC", Price: 50000}))

	select {
	case msg := <-sub.Channel():
		assert.Equal(t, "prices.BTC", msg.Channel)
		sym, ok := SymbolFromChannel(msg.Channel)
		require.True(t, ok)
		assert.Equal(t, "BTC", sym)
	case <-time.After(2 * time.Second):
		t.Fatal("No pub/sub message received after Put")
	}
}

func TestSymbolFromChannel(t *testing.T) {
	sym, ok := SymbolFromChannel("prices.ETH")
	require.True(t, ok)
	assert.Equal(t, "ETH", sym)

	_, ok = SymbolFromChannel("other.ETH")
	assert.False(t, ok)

	_, ok = SymbolFromChannel("prices.")
	assert.False(t, ok)
}
