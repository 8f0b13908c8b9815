package gateway

import (
	"encoding/json"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"go.uber.org/zap"

	"github.com/Laxmikant2002/trading-demo/cmd/server/internal/hub"
	"github.com/Laxmikant2002/trading-demo/cmd/server/internal/protocol"
)

const (
	maxMessageSize = 512 * 1024
)

// ClientAdapter owns one websocket connection: a read pump that decodes
// inbound events and a write pump fed by a buffered send channel. Identity
// is attached after a successful authenticate handshake.
type ClientAdapter struct {
	conn    net.Conn
	hub     *hub.Hub
	handler *Handler
	logger  *zap.Logger

	// sendMu guards send against a concurrent Close: the hub delivers to a
	// snapshot of members, so a broadcast can race the readPump's Unregister.
	sendMu sync.Mutex
	send   chan []byte
	closed bool

	// set by authenticate; zero means unauthenticated
	userID    uint
	userEmail string

	writeWait  time.Duration
	pongWait   time.Duration
	pingPeriod time.Duration
}

func NewClient(conn net.Conn, h *hub.Hub, handler *Handler, logger *zap.Logger) *ClientAdapter {
	return &ClientAdapter{
		conn:       conn,
		hub:        h,
		handler:    handler,
		send:       make(chan []byte, 256),
		logger:     logger,
		writeWait:  5 * time.Second,
		pongWait:   60 * time.Second,
		pingPeriod: 50 * time.Second,
	}
}

func (c *ClientAdapter) Start() {
	c.hub.Register(c)
	go c.writePump()
	go c.readPump()
}

func (c *ClientAdapter) ID() string { return c.conn.RemoteAddr().String() }

// Close closes the send channel so writePump writes the close frame and
// exits. Safe to call once; sends after Close become no-ops.
func (c *ClientAdapter) Close() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Identity returns the authenticated user, zero until the handshake has
// happened. Only touched from the read pump goroutine.
func (c *ClientAdapter) Identity() (uint, string) { return c.userID, c.userEmail }

func (c *ClientAdapter) SetIdentity(userID uint, email string) {
	c.userID = userID
	c.userEmail = email
}

func (c *ClientAdapter) SendJSON(v interface{}) {
	b, err := json.Marshal(v)
	if err == nil {
		c.SendBytes(b)
	}
}

func (c *ClientAdapter) SendBytes(b []byte) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- b:
	default:
		// Drop message if buffer full (Backpressure)
	}
}

func (c *ClientAdapter) sendEvent(event string, data any) {
	c.SendJSON(protocol.ServerMessage{Event: event, Data: data})
}

func (c *ClientAdapter) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))

	for {
		header, err := ws.ReadHeader(c.conn)
		if err != nil {
			break
		}

		if header.Length > int64(maxMessageSize) {
			c.logger.Warn("Msg too big", zap.Int64("size", header.Length))
			break
		}

		if !header.Fin {
			c.logger.Warn("Client sent fragmented message (not supported)")
			break
		}

		payload := make([]byte, header.Length)
		if _, err := io.ReadFull(c.conn, payload); err != nil {
			break
		}

		if header.Masked {
			ws.Cipher(payload, header.Mask, 0)
		}

		if header.OpCode == ws.OpClose {
			break
		}
		if header.OpCode == ws.OpPong {
			c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
			continue
		}

		if header.OpCode == ws.OpText {
			var msg protocol.ClientMessage
			if err := json.Unmarshal(payload, &msg); err != nil {
				c.sendEvent(protocol.EventError, protocol.ErrorPayload{Error: "Invalid JSON"})
				continue
			}

			c.handler.Handle(c, msg)
		}
	}
}

func (c *ClientAdapter) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if !ok {
				c.conn.Write(ws.CompiledClose)
				return
			}
			if err := wsutil.WriteServerText(c.conn, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := wsutil.WriteServerMessage(c.conn, ws.OpPing, nil); err != nil {
				return
			}
		}
	}
}
