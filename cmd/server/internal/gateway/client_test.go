package gateway_test

import (
	"net"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/Laxmikant2002/trading-demo/cmd/server/internal/gateway"
	"github.com/Laxmikant2002/trading-demo/cmd/server/internal/hub"
)

func newPipeClient(t *testing.T) *gateway.ClientAdapter {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	return gateway.NewClient(server, hub.NewHub(zap.NewNop()), nil, zap.NewNop())
}

// A disconnect can land between a broadcast snapshotting the member set and
// delivering to it, so sends must be no-ops on a closed client.
func TestClientAdapter_SendAfterCloseIsNoOp(t *testing.T) {
	c := newPipeClient(t)

	c.Close()
	c.SendBytes([]byte(`{"event":"ping"}`))
	c.SendJSON(map[string]string{"event": "pong"})
}

func TestClientAdapter_CloseIsIdempotent(t *testing.T) {
	c := newPipeClient(t)

	c.Close()
	c.Close()
}

func TestClientAdapter_ConcurrentSendAndClose(t *testing.T) {
	c := newPipeClient(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.SendBytes([]byte("tick"))
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Close()
	}()
	wg.Wait()
}

// Broadcast after an unregister must not bring the process down, whatever
// the interleaving with the member snapshot.
func TestHub_BroadcastAfterUnregister(t *testing.T) {
	h := hub.NewHub(zap.NewNop())
	c := newPipeClient(t)

	h.Register(c)
	h.Join(c, hub.MarketTopic("BTC"))
	h.Unregister(c)

	h.Broadcast(hub.MarketTopic("BTC"), "price-update", map[string]string{"symbol": "BTC"})
	h.BroadcastSystem("system", "maintenance")
}
