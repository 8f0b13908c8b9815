package marketdata

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/Laxmikant2002/trading-demo/cmd/server/internal/hub"
	"github.com/Laxmikant2002/trading-demo/cmd/server/internal/protocol"
	"github.com/Laxmikant2002/trading-demo/pkg/models"
)

// PriceFeed bridges the cache's pub/sub announcements to the broadcast
// hub: every published quote becomes a price-update on its market topic.
// Decoupling the refresh cycle from fan-out this way also lets multiple
// server instances share one feed.
type PriceFeed struct {
	cache  *Cache
	hub    *hub.Hub
	logger *zap.Logger
}

func NewPriceFeed(cache *Cache, h *hub.Hub, logger *zap.Logger) *PriceFeed {
	return &PriceFeed{cache: cache, hub: h, logger: logger}
}

// Run blocks consuming pub/sub messages until ctx is cancelled.
func (f *PriceFeed) Run(ctx context.Context) {
	pubsub := f.cache.Subscribe(ctx)
	defer pubsub.Close()

	ch := pubsub.Channel()
	f.logger.Info("Price feed started")

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			f.dispatch(msg.Channel, msg.Payload)
		}
	}
}

func (f *PriceFeed) dispatch(channel, payload string) {
	sym, ok := SymbolFromChannel(channel)
	if !ok {
		return
	}

	var q models.Quote
	if err := json.Unmarshal([]byte(payload), &q); err != nil {
		f.logger.Error("Bad quote payload on feed", zap.String("channel", channel), zap.Error(err))
		return
	}

	f.hub.Broadcast(hub.MarketTopic(sym), protocol.EventPriceUpdate, models.PriceUpdate{
		Symbol:        q.Symbol,
		Price:         q.Price,
		Change:        absoluteChange(q.Price, q.Change24h),
		ChangePercent: q.Change24h,
		Timestamp:     q.Timestamp,
	})
}

// absoluteChange back-derives the 24h move in currency terms from the
// percentage the provider reports.
func absoluteChange(price, changePercent float64) float64 {
	if changePercent == -100 {
		return price
	}
	prev := price / (1 + changePercent/100)
	return price - prev
}
