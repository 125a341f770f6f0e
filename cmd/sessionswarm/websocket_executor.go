package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	gws "github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/sessionswarm/internal/clientmetrics"
	"github.com/torosent/sessionswarm/internal/config"
	"github.com/torosent/sessionswarm/internal/httpclient"
	"github.com/torosent/sessionswarm/internal/session"
	"github.com/torosent/sessionswarm/internal/tracing"
	ws "github.com/torosent/sessionswarm/internal/websocket"
)

const wsWriteTimeout = 5 * time.Second

// websocketExecutor opens one connection per session, optionally exchanges
// a message, and closes the connection on every path.
type websocketExecutor struct {
	builder   *httpclient.RequestBuilder
	cfg       config.WebSocketConfig
	timeout   time.Duration
	propagate bool
}

// Execute implements session.Executor.
func (w *websocketExecutor) Execute(ctx context.Context, item session.WorkItem) (session.Result, error) {
	start := time.Now()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	headers := w.builder.Header()
	if w.propagate {
		tracing.InjectHTTPHeaders(ctx, headers)
	}

	client := ws.NewClient(ws.Config{
		URL:              w.builder.Target(),
		Headers:          headers,
		HandshakeTimeout: w.cfg.HandshakeTimeout,
		ReadTimeout:      w.cfg.ReceiveTimeout,
		WriteTimeout:     wsWriteTimeout,
	})

	status, err := client.Connect(ctx)
	if status > 0 {
		trace.SpanFromContext(ctx).SetAttributes(attribute.Int("websocket.handshake_status", status))
	}
	if err != nil {
		if status > 0 {
			return session.FailedWithStatus(item.ID, session.Status(status), time.Since(start), err.Error()), nil
		}
		return session.Failed(item.ID, time.Since(start), err), nil
	}
	defer client.Close()

	var title string
	if w.cfg.Message != "" {
		if err := client.SendMessage(ctx, ws.Message{Type: gws.TextMessage, Data: []byte(w.cfg.Message)}); err != nil {
			return session.Failed(item.ID, time.Since(start), fmt.Errorf("send message: %w", err)), nil
		}
		reply, err := client.ReceiveMessage(ctx)
		if err != nil {
			return session.Failed(item.ID, time.Since(start), fmt.Errorf("receive message: %w", err)), nil
		}
		title = strings.ToValidUTF8(string(reply.Data), "")
	}

	recordExchange(trace.SpanFromContext(ctx), client.Metrics())

	// A completed exchange is reported like a loaded page.
	return session.Succeeded(item.ID, http.StatusOK, time.Since(start), title, w.builder.Target()), nil
}

func recordExchange(span trace.Span, m clientmetrics.Snapshot) {
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(
		attribute.Int64("websocket.messages_sent", m.MessagesSent),
		attribute.Int64("websocket.messages_received", m.MessagesReceived),
		attribute.Int64("websocket.bytes_sent", m.BytesSent),
		attribute.Int64("websocket.bytes_received", m.BytesReceived),
	)
	if m.MessagesReceived > 0 {
		span.SetAttributes(attribute.Int64("websocket.first_reply_ms", m.FirstReply.Milliseconds()))
	}
}
