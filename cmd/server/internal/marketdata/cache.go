package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Laxmikant2002/trading-demo/pkg/models"
)

const (
	keyPrefix     = "market_data:"
	channelPrefix = "prices."
)

// Cache is the TTL-keyed symbol -> latest quote store. The refresh cycle
// is the only writer; request handlers, the heartbeat and the price feed
// read concurrently. Expiry is enforced by Redis itself so a slow consumer
// never serves data past TTL.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// Put caches the quote and announces it to pub/sub subscribers in one
// atomic pipeline.
func (c *Cache) Put(ctx context.Context, q models.Quote) error {
	payload, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encode quote: %w", err)
	}

	pipe := c.rdb.Pipeline()
	pipe.Set(ctx, keyPrefix+q.Symbol, payload, c.ttl)
	pipe.Publish(ctx, channelPrefix+q.Symbol, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache write %s: %w", q.Symbol, err)
	}
	return nil
}

// Get returns the cached quote for a symbol. An expired or absent entry is
// a miss, not an error.
func (c *Cache) Get(ctx context.Context, symbol string) (*models.Quote, bool, error) {
	raw, err := c.rdb.Get(ctx, keyPrefix+symbol).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var q models.Quote
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return nil, false, fmt.Errorf("decode cached quote %s: %w", symbol, err)
	}
	return &q, true, nil
}

// GetAll fetches the latest quote for each symbol in one MGET; misses are
// silently omitted.
func (c *Cache) GetAll(ctx context.Context, symbols []string) ([]models.Quote, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	keys := make([]string, len(symbols))
	for i, sym := range symbols {
		keys[i] = keyPrefix + sym
	}

	results, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	quotes := make([]models.Quote, 0, len(results))
	for _, val := range results {
		raw, ok := val.(string)
		if !ok || raw == "" {
			continue
		}
		var q models.Quote
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			continue
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

// Subscribe opens a pub/sub subscription covering every symbol channel.
func (c *Cache) Subscribe(ctx context.Context) *redis.PubSub {
	return c.rdb.PSubscribe(ctx, channelPrefix+"*")
}

// SymbolFromChannel extracts the symbol from a pub/sub channel name.
func SymbolFromChannel(channel string) (string, bool) {
	sym, ok := strings.CutPrefix(channel, channelPrefix)
	return sym, ok && sym != ""
}
