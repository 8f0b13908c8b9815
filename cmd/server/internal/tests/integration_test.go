package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gobwas/ws"
	"github.com/gorilla/websocket" // Gorilla for the test CLIENT side
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Laxmikant2002/trading-demo/cmd/server/internal/gateway"
	"github.com/Laxmikant2002/trading-demo/cmd/server/internal/hub"
	"github.com/Laxmikant2002/trading-demo/cmd/server/internal/marketdata"
	"github.com/Laxmikant2002/trading-demo/pkg/models"
)

var symbols = []string{"BTC", "ETH"}

type env struct {
	server *httptest.Server
	cache  *marketdata.Cache
	hub    *hub.Hub
}

func startServer(t *testing.T) *env {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := marketdata.NewCache(rdb, 15*time.Minute)

	wsHub := hub.NewHub(zap.NewNop())
	handler := gateway.NewHandler(wsHub, cache, symbols, zap.NewNop())

	feed := marketdata.NewPriceFeed(cache, wsHub, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go feed.Run(ctx)
	time.Sleep(50 * time.Millisecond) // let the pattern subscription establish

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			return
		}
		client := gateway.NewClient(conn, wsHub, handler, zap.NewNop())
		client.Start()
	}))
	t.Cleanup(server.Close)

	return &env{server: server, cache: cache, hub: wsHub}
}

func connectWS(t *testing.T, serverURL string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(serverURL, "http")
	wsConn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to connect to websocket: %v", err)
	}
	t.Cleanup(func() { wsConn.Close() })
	return wsConn
}

// readEvent reads frames until one matches the wanted event name.
func readEvent(t *testing.T, conn *websocket.Conn, event string) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Waiting for %s: %v", event, err)
		}
		var msg map[string]any
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("Bad frame: %s", raw)
		}
		if msg["event"] == event {
			return msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, payload string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
}

func TestEndToEnd_AuthenticateAndSubscribe(t *testing.T) {
	e := startServer(t)
	conn := connectWS(t, e.server.URL)

	send(t, conn, `{"event":"authenticate","data":{"userId":7,"email":"trader@example.com"}}`)
	readEvent(t, conn, "authenticated")

	// Seed the cache so the initial snapshot has content
	if err := e.cache.Put(context.Background(), models.Quote{Symbol: "BTC", Price: 50000}); err != nil {
		t.Fatalf("Cache put: %v", err)
	}

	send(t, conn, `{"event":"subscribe-market-data","data":{"symbols":["BTC"]}}`)
	initial := readEvent(t, conn, "market-data-initial")
	if initial["data"] == nil {
		t.Error("Initial snapshot should carry the cached quotes")
	}
}

func TestEndToEnd_PriceUpdateFlowsThroughFeed(t *testing.T) {
	e := startServer(t)
	conn := connectWS(t, e.server.URL)

	send(t, conn, `{"event":"subscribe-market-data","data":{"symbols":["BTC"]}}`)
	time.Sleep(100 * time.Millisecond) // let the join land before publishing

	if err := e.cache.Put(context.Background(), models.Quote{Symbol: "BTC", Price: 50123.5, Change24h: 1.2}); err != nil {
		t.Fatalf("Cache put: %v", err)
	}

	msg := readEvent(t, conn, "price-update")
	data := msg["data"].(map[string]any)
	if data["symbol"] != "BTC" {
		t.Errorf("Expected BTC update, got %v", data)
	}
	if data["price"].(float64) != 50123.5 {
		t.Errorf("Expected price 50123.5, got %v", data["price"])
	}
}

func TestEndToEnd_ChatRelayExcludesSender(t *testing.T) {
	e := startServer(t)
	sender := connectWS(t, e.server.URL)
	receiver := connectWS(t, e.server.URL)

	send(t, sender, `{"event":"subscribe-chat","data":{"roomId":"general"}}`)
	send(t, receiver, `{"event":"subscribe-chat","data":{"roomId":"general"}}`)
	time.Sleep(100 * time.Millisecond)

	send(t, sender, `{"event":"send-chat-message","data":{"roomId":"general","message":"hello"}}`)

	msg := readEvent(t, receiver, "chat-message")
	data := msg["data"].(map[string]any)
	if data["message"] != "hello" {
		t.Errorf("Receiver should get the relayed message, got %v", data)
	}

	// Sender must get nothing back; the only frame it could see is a ping
	sender.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	if _, raw, err := sender.ReadMessage(); err == nil && strings.Contains(string(raw), "chat-message") {
		t.Errorf("Sender must not receive its own message: %s", raw)
	}
}

func TestEndToEnd_UnauthenticatedUserActionsSilentlyIgnored(t *testing.T) {
	e := startServer(t)
	conn := connectWS(t, e.server.URL)

	send(t, conn, `{"event":"subscribe-trades"}`)
	send(t, conn, `{"event":"subscribe-notifications"}`)

	// Connection stays open and responsive
	send(t, conn, `{"event":"ping"}`)
	readEvent(t, conn, "pong")

	if e.hub.MemberCount("trades:0") != 0 || e.hub.MemberCount("notifications:0") != 0 {
		t.Error("Unauthenticated subscribe must not create memberships")
	}
}

func TestEndToEnd_InvalidJSONKeepsConnectionAlive(t *testing.T) {
	e := startServer(t)
	conn := connectWS(t, e.server.URL)

	send(t, conn, `{"event": "subsc`)
	readEvent(t, conn, "error")

	// Recoverable: the same connection still works afterwards
	send(t, conn, `{"event":"ping"}`)
	readEvent(t, conn, "pong")
	_ = e
}

func TestEndToEnd_OversizedMessageClosesConnection(t *testing.T) {
	e := startServer(t)
	conn := connectWS(t, e.server.URL)
	_ = e

	huge := `{"event":"ping","data":{"pad":"` + strings.Repeat("a", 513*1024) + `"}}`
	err := conn.WriteMessage(websocket.TextMessage, []byte(huge))
	if err == nil {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		if _, _, err := conn.ReadMessage(); err == nil {
			t.Error("Server should close the connection on an oversized frame")
		}
	}
}
