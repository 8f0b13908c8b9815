package protocol

import "encoding/json"

// Client -> server events
const (
	EventAuthenticate             = "authenticate"
	EventSubscribeMarketData      = "subscribe-market-data"
	EventUnsubscribeMarketData    = "unsubscribe-market-data"
	EventSubscribeTrades          = "subscribe-trades"
	EventUnsubscribeTrades        = "unsubscribe-trades"
	EventSubscribeNotifications   = "subscribe-notifications"
	EventUnsubscribeNotifications = "unsubscribe-notifications"
	EventSubscribeChat            = "subscribe-chat"
	EventUnsubscribeChat          = "unsubscribe-chat"
	EventSendChatMessage          = "send-chat-message"
	EventPing                     = "ping"
)

// Server -> client events
const (
	EventAuthenticated       = "authenticated"
	EventAuthenticationError = "authentication_error"
	EventMarketDataInitial   = "market-data-initial"
	EventMarketDataUpdate    = "market-data-update"
	EventPriceUpdate         = "price-update"
	EventOrderUpdate         = "order-update"
	EventTradeUpdate         = "trade-update"
	EventNotification        = "notification"
	EventChatMessage         = "chat-message"
	EventSystemNotification  = "system-notification"
	EventPong                = "pong"
	EventError               = "error"
)

// ClientMessage is the inbound envelope. Data is decoded per event.
type ClientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ServerMessage is the outbound envelope.
type ServerMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type AuthPayload struct {
	UserID uint   `json:"userId"`
	Email  string `json:"email"`
}

type AuthResult struct {
	Success bool `json:"success"`
}

type AuthError struct {
	Error string `json:"error"`
}

type SymbolsPayload struct {
	Symbols []string `json:"symbols,omitempty"`
}

type ChatRoomPayload struct {
	RoomID string `json:"roomId"`
}

type ChatMessagePayload struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
