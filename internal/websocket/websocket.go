// Package websocket wraps a gorilla/websocket connection for one session.
package websocket

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/torosent/sessionswarm/internal/clientmetrics"
)

// Message represents a WebSocket message to send or receive.
type Message struct {
	Type int // websocket.TextMessage or websocket.BinaryMessage
	Data []byte
}

// Client represents a WebSocket client connection.
type Client struct {
	url            string
	headers        http.Header
	dialer         *websocket.Dialer
	readTimeout    time.Duration
	writeTimeout   time.Duration
	maxMessageSize int64

	mu      sync.Mutex
	conn    *websocket.Conn
	metrics *clientmetrics.ClientMetrics
}

// Config configures the WebSocket client behavior.
type Config struct {
	URL              string
	Headers          http.Header
	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	MaxMessageSize   int64
}

// NewClient creates a new WebSocket client with the given configuration.
func NewClient(cfg Config) *Client {
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 30 * time.Second
	}
	if cfg.MaxMessageSize == 0 {
		cfg.MaxMessageSize = 1024 * 1024
	}

	return &Client{
		url:            cfg.URL,
		headers:        cfg.Headers,
		readTimeout:    cfg.ReadTimeout,
		writeTimeout:   cfg.WriteTimeout,
		maxMessageSize: cfg.MaxMessageSize,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
			Proxy:            http.ProxyFromEnvironment,
		},
		metrics: clientmetrics.New(),
	}
}

// Connect performs the handshake and returns the HTTP status the server
// answered with (101 on success). A failed upgrade still reports the
// server's status when one was received.
func (c *Client) Connect(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return 0, fmt.Errorf("already connected")
	}

	conn, resp, err := c.dialer.DialContext(ctx, c.url, c.headers)
	if err != nil {
		c.metrics.IncrementErrors()
		if resp != nil {
			return resp.StatusCode, fmt.Errorf("websocket dial failed with status %d: %w", resp.StatusCode, err)
		}
		return 0, fmt.Errorf("websocket dial failed: %w", err)
	}

	conn.SetReadLimit(c.maxMessageSize)
	c.conn = conn
	c.metrics.MarkConnected()
	return resp.StatusCode, nil
}

// SendMessage sends a message over the WebSocket connection.
func (c *Client) SendMessage(ctx context.Context, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	if deadline, ok := c.deadline(ctx, c.writeTimeout); ok {
		_ = c.conn.SetWriteDeadline(deadline)
	}

	if err := c.conn.WriteMessage(msg.Type, msg.Data); err != nil {
		c.metrics.IncrementErrors()
		return fmt.Errorf("write message: %w", err)
	}
	c.metrics.IncrementSent(int64(len(msg.Data)))
	return nil
}

// ReceiveMessage reads a message from the WebSocket connection. The read is
// bounded by the earlier of ctx's deadline and the configured read timeout.
func (c *Client) ReceiveMessage(ctx context.Context) (Message, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return Message{}, fmt.Errorf("not connected")
	}
	if deadline, ok := c.deadline(ctx, c.readTimeout); ok {
		_ = conn.SetReadDeadline(deadline)
	}

	msgType, data, err := conn.ReadMessage()
	if err != nil {
		c.metrics.IncrementErrors()
		return Message{}, fmt.Errorf("read message: %w", err)
	}
	c.metrics.IncrementReceived(int64(len(data)))
	return Message{Type: msgType, Data: data}, nil
}

// Close closes the WebSocket connection gracefully.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	err := c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(5*time.Second),
	)

	closeErr := c.conn.Close()
	c.conn = nil
	c.metrics.Reset()

	if err != nil {
		return err
	}
	return closeErr
}

// Metrics returns the current counters of this connection.
func (c *Client) Metrics() clientmetrics.Snapshot {
	return c.metrics.Snapshot()
}

func (c *Client) deadline(ctx context.Context, timeout time.Duration) (time.Time, bool) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if ctxDeadline, ok := ctx.Deadline(); ok && (deadline.IsZero() || ctxDeadline.Before(deadline)) {
		deadline = ctxDeadline
	}
	return deadline, !deadline.IsZero()
}
