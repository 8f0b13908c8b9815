package hub

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Laxmikant2002/trading-demo/cmd/server/internal/protocol"
	"github.com/Laxmikant2002/trading-demo/pkg/models"
)

// SnapshotReader is the cache surface the heartbeat needs.
type SnapshotReader interface {
	GetAll(ctx context.Context, symbols []string) ([]models.Quote, error)
}

// Heartbeat re-broadcasts the full cached quote set to every symbol topic
// on a fixed interval, independent of the refresh cycle. Clients use it as
// a liveness signal during quiet markets.
type Heartbeat struct {
	hub      *Hub
	cache    SnapshotReader
	symbols  []string
	interval time.Duration
	logger   *zap.Logger
}

func NewHeartbeat(h *Hub, cache SnapshotReader, symbols []string, interval time.Duration, logger *zap.Logger) *Heartbeat {
	// Cache keys and topics are uppercase, whatever the config says.
	normalized := make([]string, len(symbols))
	for i, s := range symbols {
		normalized[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	return &Heartbeat{
		hub:      h,
		cache:    cache,
		symbols:  normalized,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled.
func (hb *Heartbeat) Run(ctx context.Context) {
	ticker := time.NewTicker(hb.interval)
	defer ticker.Stop()

	hb.logger.Info("Heartbeat broadcasting started", zap.Duration("interval", hb.interval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hb.tick(ctx)
		}
	}
}

func (hb *Heartbeat) tick(ctx context.Context) {
	quotes, err := hb.cache.GetAll(ctx, hb.symbols)
	if err != nil {
		hb.logger.Error("Heartbeat cache read failed", zap.Error(err))
		return
	}
	if len(quotes) == 0 {
		return
	}

	for _, sym := range hb.symbols {
		hb.hub.Broadcast(MarketTopic(sym), protocol.EventMarketDataUpdate, quotes)
	}
}
