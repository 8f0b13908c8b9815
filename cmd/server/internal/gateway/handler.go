package gateway

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Laxmikant2002/trading-demo/cmd/server/internal/hub"
	"github.com/Laxmikant2002/trading-demo/cmd/server/internal/protocol"
)

// Conn is what the handler needs from a connection: hub membership plus
// mutable identity. ClientAdapter implements it; tests use a mock.
type Conn interface {
	hub.Client
	Identity() (userID uint, email string)
	SetIdentity(userID uint, email string)
}

// Handler routes decoded client events to the hub and the market-data
// cache. One handler instance serves every connection.
type Handler struct {
	hub     *hub.Hub
	cache   hub.SnapshotReader
	symbols []string
	logger  *zap.Logger
}

func NewHandler(h *hub.Hub, cache hub.SnapshotReader, symbols []string, logger *zap.Logger) *Handler {
	return &Handler{hub: h, cache: cache, symbols: symbols, logger: logger}
}

func (h *Handler) Handle(c Conn, msg protocol.ClientMessage) {
	switch msg.Event {
	case protocol.EventAuthenticate:
		h.handleAuthenticate(c, msg.Data)
	case protocol.EventSubscribeMarketData:
		h.handleSubscribeMarketData(c, msg.Data)
	case protocol.EventUnsubscribeMarketData:
		h.handleUnsubscribeMarketData(c, msg.Data)
	case protocol.EventSubscribeTrades:
		h.joinUserTopic(c, hub.TradesTopic)
	case protocol.EventUnsubscribeTrades:
		h.leaveUserTopic(c, hub.TradesTopic)
	case protocol.EventSubscribeNotifications:
		h.joinUserTopic(c, hub.NotificationsTopic)
	case protocol.EventUnsubscribeNotifications:
		h.leaveUserTopic(c, hub.NotificationsTopic)
	case protocol.EventSubscribeChat:
		h.handleSubscribeChat(c, msg.Data)
	case protocol.EventUnsubscribeChat:
		h.handleUnsubscribeChat(c, msg.Data)
	case protocol.EventSendChatMessage:
		h.handleChatMessage(c, msg.Data)
	case protocol.EventPing:
		c.SendJSON(protocol.ServerMessage{Event: protocol.EventPong})
	default:
		c.SendJSON(protocol.ServerMessage{
			Event: protocol.EventError,
			Data:  protocol.ErrorPayload{Error: "Unknown event: " + msg.Event},
		})
	}
}

func (h *Handler) handleAuthenticate(c Conn, raw json.RawMessage) {
	var payload protocol.AuthPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.UserID == 0 || payload.Email == "" {
		c.SendJSON(protocol.ServerMessage{
			Event: protocol.EventAuthenticationError,
			Data:  protocol.AuthError{Error: "Invalid credentials"},
		})
		return
	}

	c.SetIdentity(payload.UserID, payload.Email)
	c.SendJSON(protocol.ServerMessage{
		Event: protocol.EventAuthenticated,
		Data:  protocol.AuthResult{Success: true},
	})
	h.logger.Info("Client authenticated", zap.String("client", c.ID()), zap.Uint("user_id", payload.UserID))
}

func (h *Handler) handleSubscribeMarketData(c Conn, raw json.RawMessage) {
	symbols := h.requestedSymbols(raw)
	for _, sym := range symbols {
		h.hub.Join(c, hub.MarketTopic(sym))
	}
	h.logger.Debug("Market data subscription", zap.String("client", c.ID()), zap.Strings("symbols", symbols))

	// Snapshot delivered async so a slow cache read never blocks the pump
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		quotes, err := h.cache.GetAll(ctx, symbols)
		if err != nil {
			h.logger.Error("Initial market data load failed", zap.Error(err))
			c.SendJSON(protocol.ServerMessage{
				Event: protocol.EventError,
				Data:  protocol.ErrorPayload{Error: "Failed to load market data"},
			})
			return
		}
		c.SendJSON(protocol.ServerMessage{Event: protocol.EventMarketDataInitial, Data: quotes})
	}()
}

func (h *Handler) handleUnsubscribeMarketData(c Conn, raw json.RawMessage) {
	for _, sym := range h.requestedSymbols(raw) {
		h.hub.Leave(c, hub.MarketTopic(sym))
	}
}

// requestedSymbols normalizes the optional symbol list, defaulting to every
// tracked symbol and dropping unknown ones.
func (h *Handler) requestedSymbols(raw json.RawMessage) []string {
	var payload protocol.SymbolsPayload
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &payload)
	}
	if len(payload.Symbols) == 0 {
		return h.symbols
	}

	tracked := make(map[string]bool, len(h.symbols))
	for _, s := range h.symbols {
		tracked[s] = true
	}

	var out []string
	for _, s := range payload.Symbols {
		sym := strings.ToUpper(strings.TrimSpace(s))
		if tracked[sym] {
			out = append(out, sym)
		}
	}
	return out
}

// joinUserTopic joins a per-user topic; silently ignored when the client
// has not authenticated.
func (h *Handler) joinUserTopic(c Conn, topic func(uint) string) {
	userID, _ := c.Identity()
	if userID == 0 {
		return
	}
	h.hub.Join(c, topic(userID))
}

func (h *Handler) leaveUserTopic(c Conn, topic func(uint) string) {
	userID, _ := c.Identity()
	if userID == 0 {
		return
	}
	h.hub.Leave(c, topic(userID))
}

func (h *Handler) handleSubscribeChat(c Conn, raw json.RawMessage) {
	var payload protocol.ChatRoomPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.RoomID == "" {
		return
	}
	h.hub.Join(c, hub.ChatTopic(payload.RoomID))
}

func (h *Handler) handleUnsubscribeChat(c Conn, raw json.RawMessage) {
	var payload protocol.ChatRoomPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.RoomID == "" {
		return
	}
	h.hub.Leave(c, hub.ChatTopic(payload.RoomID))
}

// handleChatMessage relays to the other room members only, never back to
// the sender.
func (h *Handler) handleChatMessage(c Conn, raw json.RawMessage) {
	var payload protocol.ChatMessagePayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.RoomID == "" {
		return
	}

	kind := payload.Type
	if kind == "" {
		kind = "text"
	}
	userID, _ := c.Identity()

	h.hub.BroadcastExcept(hub.ChatTopic(payload.RoomID), c, protocol.EventChatMessage, map[string]any{
		"from":      userID,
		"message":   payload.Message,
		"timestamp": time.Now().UTC(),
		"type":      kind,
	})
}
