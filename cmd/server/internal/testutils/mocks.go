package testutils

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/Laxmikant2002/trading-demo/cmd/server/internal/protocol"
	"github.com/Laxmikant2002/trading-demo/pkg/models"
)

// MockConn simulates a connected websocket client, including the
// authentication identity the gateway handler stamps onto it.
type MockConn struct {
	IDVal    string
	Messages []protocol.ServerMessage
	RawBytes []string
	Closed   bool
	UserID   uint
	Email    string
	Mu       sync.Mutex
}

func NewMockConn(id string) *MockConn {
	return &MockConn{IDVal: id, Messages: make([]protocol.ServerMessage, 0)}
}

func (m *MockConn) ID() string { return m.IDVal }

func (m *MockConn) Close() {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
}

func (m *MockConn) SendJSON(v interface{}) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if msg, ok := v.(protocol.ServerMessage); ok {
		m.Messages = append(m.Messages, msg)
	}
}

func (m *MockConn) SendBytes(b []byte) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.RawBytes = append(m.RawBytes, string(b))
}

func (m *MockConn) Identity() (uint, string) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.UserID, m.Email
}

func (m *MockConn) SetIdentity(userID uint, email string) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.UserID = userID
	m.Email = email
}

func (m *MockConn) LastEvent() string {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if len(m.Messages) == 0 {
		return ""
	}
	return m.Messages[len(m.Messages)-1].Event
}

func (m *MockConn) EventCount(event string) int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	n := 0
	for _, msg := range m.Messages {
		if msg.Event == event {
			n++
		}
	}
	return n
}

// MockSnapshotReader simulates the Redis-backed quote cache.
type MockSnapshotReader struct {
	Quotes  []models.Quote
	Err     error
	Calls   int
	Symbols [][]string
	Mu      sync.Mutex
}

func (m *MockSnapshotReader) GetAll(ctx context.Context, symbols []string) ([]models.Quote, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Calls++
	m.Symbols = append(m.Symbols, symbols)
	return m.Quotes, m.Err
}

// MockKafkaWriter records exported messages.
type MockKafkaWriter struct {
	Messages []kafka.Message
	Err      error
	Closed   bool
	Mu       sync.Mutex
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Messages = append(m.Messages, msgs...)
	return nil
}

func (m *MockKafkaWriter) Close() error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
	return nil
}
