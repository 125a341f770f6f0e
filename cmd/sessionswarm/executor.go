package main

import (
	"fmt"

	"github.com/torosent/sessionswarm/internal/config"
	"github.com/torosent/sessionswarm/internal/httpclient"
	"github.com/torosent/sessionswarm/internal/session"
)

// newExecutor builds the session executor for cfg.Protocol. The returned
// func releases the resources shared by every session and must be called
// once the run is over.
func newExecutor(cfg *config.Config, propagate bool) (session.Executor, func(), error) {
	builder, err := httpclient.NewRequestBuilder(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request builder: %w", err)
	}

	switch cfg.Protocol {
	case config.ProtocolHTTP, "":
		transport := httpclient.NewTransport()
		exec := &httpExecutor{
			builder:   builder,
			transport: transport,
			timeout:   cfg.Timeout,
			propagate: propagate,
		}
		return exec, transport.CloseIdleConnections, nil
	case config.ProtocolWebSocket:
		exec := &websocketExecutor{
			builder:   builder,
			cfg:       cfg.WebSocket,
			timeout:   cfg.Timeout,
			propagate: propagate,
		}
		return exec, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported protocol: %s", cfg.Protocol)
	}
}
