package main

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/torosent/sessionswarm/internal/httpclient"
	"github.com/torosent/sessionswarm/internal/session"
	"github.com/torosent/sessionswarm/internal/tracing"
)

// maxDrainBytes bounds how much of an unread body is discarded before the
// connection is given back to the shared transport.
const maxDrainBytes = 1 << 20

// httpExecutor loads the target page once per session. Sessions share the
// transport but each gets its own client and cookie jar.
type httpExecutor struct {
	builder   *httpclient.RequestBuilder
	transport http.RoundTripper
	timeout   time.Duration
	propagate bool
}

// Execute implements session.Executor.
func (e *httpExecutor) Execute(ctx context.Context, item session.WorkItem) (session.Result, error) {
	start := time.Now()

	client, err := httpclient.NewSessionClient(e.transport, e.timeout)
	if err != nil {
		return session.Failed(item.ID, time.Since(start), err), nil
	}
	req, err := e.builder.Build(ctx)
	if err != nil {
		return session.Failed(item.ID, time.Since(start), err), nil
	}
	if e.propagate {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	resp, err := client.Do(req)
	if err != nil {
		return session.Failed(item.ID, time.Since(start), err), nil
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
		resp.Body.Close()
	}()

	// A body that cannot be tokenized still counts as a loaded page.
	title, _ := httpclient.ExtractTitle(resp.Body)
	elapsed := time.Since(start)

	finalURL := e.builder.Target()
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return session.Succeeded(item.ID, session.Status(resp.StatusCode), elapsed, title, finalURL), nil
}
