package tracing_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/sessionswarm/internal/config"
	"github.com/torosent/sessionswarm/internal/session"
	"github.com/torosent/sessionswarm/internal/tracing"
)

func setupTestTracer(t *testing.T) (*tracetest.InMemoryExporter, trace.Tracer) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
	})
	return exporter, tp.Tracer("test")
}

func TestInitDisabledByDefault(t *testing.T) {
	p, err := tracing.Init(context.Background(), config.TracingConfig{})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	if p.ShouldPropagate() {
		t.Error("ShouldPropagate() = true, want false when tracing disabled")
	}

	tracer := p.Tracer()
	_, span := tracer.Start(context.Background(), "test")
	span.End()
	if span.SpanContext().TraceID().IsValid() {
		t.Error("disabled provider produced a recording span")
	}
}

func TestInitWithEndpointEnablesTracing(t *testing.T) {
	// We can't actually connect to an endpoint in unit tests,
	// but we verify the provider is configured correctly.
	p, err := tracing.Init(context.Background(), config.TracingConfig{
		Endpoint:    "localhost:4317",
		Protocol:    "grpc",
		ServiceName: "test-service",
		SampleRate:  1.0,
		Insecure:    true,
	})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	if !p.ShouldPropagate() {
		t.Error("ShouldPropagate() = false, want true when tracing enabled")
	}
}

func TestInitHTTPProtocol(t *testing.T) {
	p, err := tracing.Init(context.Background(), config.TracingConfig{
		Endpoint: "localhost:4318",
		Protocol: "http",
		Insecure: true,
	})
	if err != nil {
		t.Fatalf("Init() with http protocol error = %v", err)
	}
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	if !p.ShouldPropagate() {
		t.Error("ShouldPropagate() = false, want true")
	}
}

func TestInitUnsupportedProtocol(t *testing.T) {
	_, err := tracing.Init(context.Background(), config.TracingConfig{
		Endpoint: "localhost:4317",
		Protocol: "thrift",
		Insecure: true,
	})
	if err == nil {
		t.Fatal("Init() with unsupported protocol should return error")
	}
}

func TestInitInvalidSampleRate(t *testing.T) {
	tests := []struct {
		name string
		rate float64
	}{
		{"negative", -0.5},
		{"above one", 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tracing.Init(context.Background(), config.TracingConfig{
				Endpoint:   "localhost:4317",
				Protocol:   "grpc",
				Insecure:   true,
				SampleRate: tt.rate,
			})
			if err == nil {
				t.Fatalf("Init() with sample_rate=%g should return error", tt.rate)
			}
		})
	}
}

func TestShouldPropagateOverride(t *testing.T) {
	falseVal := false
	p, err := tracing.Init(context.Background(), config.TracingConfig{
		Endpoint:  "localhost:4317",
		Protocol:  "grpc",
		Insecure:  true,
		Propagate: &falseVal,
	})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	if p.ShouldPropagate() {
		t.Error("ShouldPropagate() = true, want false when explicitly disabled")
	}
}

func TestNilProviderSafety(t *testing.T) {
	var p *tracing.Provider
	if p.ShouldPropagate() {
		t.Error("nil provider ShouldPropagate() = true, want false")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("nil provider Shutdown() error = %v", err)
	}
	// Tracer() on nil should return no-op, not panic
	tracer := p.Tracer()
	_, span := tracer.Start(context.Background(), "test")
	span.End()
}

func TestStartSessionSpan(t *testing.T) {
	exporter, tracer := setupTestTracer(t)

	_, span := tracing.StartSessionSpan(context.Background(), tracer, "http", "http://example.com", 7)
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "http session" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "http session")
	}
	attrs := map[string]string{}
	for _, attr := range spans[0].Attributes {
		attrs[string(attr.Key)] = attr.Value.Emit()
	}
	if attrs["session.id"] != "7" {
		t.Errorf("session.id = %q, want 7", attrs["session.id"])
	}
	if attrs["url.full"] != "http://example.com" {
		t.Errorf("url.full = %q", attrs["url.full"])
	}
}

func TestEndSpanRecordsError(t *testing.T) {
	exporter, tracer := setupTestTracer(t)

	_, span := tracer.Start(context.Background(), "test-error")
	tracing.EndSpan(span, context.DeadlineExceeded)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status code = %d, want %d (Error)", spans[0].Status.Code, codes.Error)
	}
}

func TestEndSpanOk(t *testing.T) {
	exporter, tracer := setupTestTracer(t)

	_, span := tracer.Start(context.Background(), "test-ok")
	tracing.EndSpan(span, nil)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Ok {
		t.Errorf("span status code = %d, want %d (Ok)", spans[0].Status.Code, codes.Ok)
	}
}

func TestInjectHTTPHeaders(t *testing.T) {
	_, tracer := setupTestTracer(t)

	ctx, span := tracer.Start(context.Background(), "test-inject")
	defer span.End()

	headers := make(http.Header)
	tracing.InjectHTTPHeaders(ctx, headers)

	got := headers.Get("Traceparent")
	if got == "" {
		t.Error("traceparent header not injected")
	}
	// traceparent format: version-traceid-spanid-flags (e.g., 00-abc123...-def456...-01)
	if len(got) < 55 {
		t.Errorf("traceparent header too short: %q", got)
	}
}

func TestInjectHTTPHeadersNoSpan(t *testing.T) {
	// Without a span in context, injection should not panic and not set traceparent
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
	))
	headers := make(http.Header)
	tracing.InjectHTTPHeaders(context.Background(), headers)

	got := headers.Get("Traceparent")
	if got != "" {
		t.Errorf("traceparent header should be empty without span, got %q", got)
	}
}

func TestWithSpansRecordsFailure(t *testing.T) {
	exporter, tracer := setupTestTracer(t)

	exec := tracing.WithSpans(session.ExecutorFunc(func(ctx context.Context, item session.WorkItem) (session.Result, error) {
		if !trace.SpanFromContext(ctx).SpanContext().IsValid() {
			t.Error("executor context carries no span")
		}
		return session.Succeeded(item.ID, 503, time.Millisecond, "", ""), nil
	}), tracer, "http", "http://example.com")

	res, err := exec.Execute(context.Background(), session.WorkItem{ID: 3})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Success {
		t.Fatal("503 reported as success")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want Error", spans[0].Status.Code)
	}
}

func TestWithSpansPassesThroughErrors(t *testing.T) {
	exporter, tracer := setupTestTracer(t)
	boom := errors.New("boom")

	exec := tracing.WithSpans(session.ExecutorFunc(func(ctx context.Context, item session.WorkItem) (session.Result, error) {
		return session.Result{}, boom
	}), tracer, "websocket", "")

	if _, err := exec.Execute(context.Background(), session.WorkItem{ID: 1}); !errors.Is(err, boom) {
		t.Fatalf("Execute() error = %v, want boom", err)
	}
	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Status.Code != codes.Error {
		t.Fatalf("spans = %+v", spans)
	}
}

func TestWithSpansNilTracer(t *testing.T) {
	inner := session.ExecutorFunc(func(ctx context.Context, item session.WorkItem) (session.Result, error) {
		return session.Result{ID: item.ID}, nil
	})
	exec := tracing.WithSpans(inner, nil, "http", "")
	if _, ok := exec.(session.ExecutorFunc); !ok {
		t.Errorf("WithSpans(nil tracer) = %T, want the original executor", exec)
	}
}
