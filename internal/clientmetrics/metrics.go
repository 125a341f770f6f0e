// Package clientmetrics counts per-connection traffic for persistent-connection sessions.
package clientmetrics

import (
	"sync"
	"time"
)

// ClientMetrics tracks connection and message statistics for one session's connection.
type ClientMetrics struct {
	mu           sync.Mutex
	connectTime  time.Time
	firstReply   time.Duration
	messagesSent int64
	messagesRecv int64
	bytesSent    int64
	bytesRecv    int64
	errors       int64
}

func New() *ClientMetrics {
	return &ClientMetrics{}
}

// MarkConnected records the connection time.
func (m *ClientMetrics) MarkConnected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectTime = time.Now()
	m.firstReply = 0
}

func (m *ClientMetrics) IncrementSent(bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messagesSent++
	m.bytesSent += bytes
}

// IncrementReceived counts a received message. The first one after
// MarkConnected also fixes the time-to-first-reply.
func (m *ClientMetrics) IncrementReceived(bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.messagesRecv == 0 && !m.connectTime.IsZero() {
		m.firstReply = time.Since(m.connectTime)
	}
	m.messagesRecv++
	m.bytesRecv += bytes
}

func (m *ClientMetrics) IncrementErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors++
}

// Reset clears the connection time (used when disconnecting).
func (m *ClientMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectTime = time.Time{}
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	ConnectionDuration time.Duration
	FirstReply         time.Duration
	MessagesSent       int64
	MessagesReceived   int64
	BytesSent          int64
	BytesReceived      int64
	Errors             int64
}

func (m *ClientMetrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	duration := time.Duration(0)
	if !m.connectTime.IsZero() {
		duration = time.Since(m.connectTime)
	}

	return Snapshot{
		ConnectionDuration: duration,
		FirstReply:         m.firstReply,
		MessagesSent:       m.messagesSent,
		MessagesReceived:   m.messagesRecv,
		BytesSent:          m.bytesSent,
		BytesReceived:      m.bytesRecv,
		Errors:             m.errors,
	}
}
