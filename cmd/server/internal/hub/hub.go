package hub

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Laxmikant2002/trading-demo/cmd/server/internal/protocol"
)

// Client is a live connection handle. The gateway adapter implements it;
// tests substitute mocks.
type Client interface {
	ID() string
	SendJSON(v interface{})
	SendBytes(b []byte)
	Close()
}

// Hub tracks which connected clients belong to which topics and fans
// server events out to them. Join/Leave/Unregister run concurrently with
// Broadcast from many connection goroutines; the mutex plus a member
// snapshot taken before delivery guarantee a broadcast never observes a
// torn membership set.
type Hub struct {
	mu           sync.RWMutex
	topics       map[string]map[Client]bool
	clientTopics map[Client]map[string]bool
	clients      map[Client]bool

	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		topics:       make(map[string]map[Client]bool),
		clientTopics: make(map[Client]map[string]bool),
		clients:      make(map[Client]bool),
		logger:       logger,
	}
}

// Register adds a connection with no topic memberships yet.
func (h *Hub) Register(c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

// Join adds the client to a topic. Idempotent.
func (h *Hub) Join(c Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.topics[topic] == nil {
		h.topics[topic] = make(map[Client]bool)
	}
	h.topics[topic][c] = true

	if h.clientTopics[c] == nil {
		h.clientTopics[c] = make(map[string]bool)
	}
	h.clientTopics[c][topic] = true
}

// Leave removes the client from a topic. No-op if not a member.
func (h *Hub) Leave(c Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeMembership(c, topic)
}

// Unregister removes the client from every topic and closes it. Called on
// disconnect.
func (h *Hub) Unregister(c Client) {
	h.mu.Lock()
	for topic := range h.clientTopics[c] {
		h.removeMembership(c, topic)
	}
	delete(h.clientTopics, c)
	delete(h.clients, c)
	h.mu.Unlock()

	c.Close()
}

// removeMembership must be called with the write lock held.
func (h *Hub) removeMembership(c Client, topic string) {
	if members, ok := h.topics[topic]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.topics, topic)
		}
	}
	if subs, ok := h.clientTopics[c]; ok {
		delete(subs, topic)
	}
}

// MemberCount reports the current topic membership size.
func (h *Hub) MemberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Subscribed reports whether the client currently belongs to the topic.
func (h *Hub) Subscribed(c Client, topic string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clientTopics[c][topic]
}

// ConnectedClients reports the number of live connections.
func (h *Hub) ConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast delivers an event to every member of the topic at call time.
// At-most-once per member; zero members is a successful no-op.
func (h *Hub) Broadcast(topic, event string, data any) {
	h.BroadcastExcept(topic, nil, event, data)
}

// BroadcastExcept is Broadcast with one member excluded (chat relay skips
// the sender).
func (h *Hub) BroadcastExcept(topic string, except Client, event string, data any) {
	payload, err := json.Marshal(protocol.ServerMessage{Event: event, Data: data})
	if err != nil {
		h.logger.Error("Failed to encode broadcast", zap.String("topic", topic), zap.String("event", event), zap.Error(err))
		return
	}

	for _, c := range h.snapshot(topic) {
		if c == except {
			continue
		}
		c.SendBytes(payload)
	}
}

// BroadcastToUser delivers a cross-cutting event to both of the user's
// personal topics.
func (h *Hub) BroadcastToUser(userID uint, event string, data any) {
	h.Broadcast(TradesTopic(userID), event, data)
	h.Broadcast(NotificationsTopic(userID), event, data)
}

// BroadcastTradeUpdate pushes a trade event to the user's trades topic.
func (h *Hub) BroadcastTradeUpdate(userID uint, data any) {
	h.Broadcast(TradesTopic(userID), protocol.EventTradeUpdate, data)
}

// BroadcastOrderUpdate pushes an order event to the user's trades topic.
func (h *Hub) BroadcastOrderUpdate(userID uint, data any) {
	h.Broadcast(TradesTopic(userID), protocol.EventOrderUpdate, data)
}

// BroadcastNotification pushes an in-app notification to the user's
// notifications topic.
func (h *Hub) BroadcastNotification(userID uint, data any) {
	h.Broadcast(NotificationsTopic(userID), protocol.EventNotification, data)
}

// BroadcastSystem delivers a system notice to every connected client,
// subscribed or not.
func (h *Hub) BroadcastSystem(message, kind string) {
	payload, err := json.Marshal(protocol.ServerMessage{
		Event: protocol.EventSystemNotification,
		Data: map[string]any{
			"message":   message,
			"type":      kind,
			"timestamp": time.Now().UTC(),
		},
	})
	if err != nil {
		h.logger.Error("Failed to encode system notification", zap.Error(err))
		return
	}

	h.mu.RLock()
	targets := make([]Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.SendBytes(payload)
	}
}

// snapshot copies the member set under the read lock so delivery happens
// without holding it.
func (h *Hub) snapshot(topic string) []Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members, ok := h.topics[topic]
	if !ok {
		return nil
	}
	out := make([]Client, 0, len(members))
	for c := range members {
		out = append(out, c)
	}
	return out
}
