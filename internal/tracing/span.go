package tracing

import (
	"context"
	"errors"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/sessionswarm/internal/session"
)

// StartSessionSpan starts a client span covering one session.
func StartSessionSpan(ctx context.Context, tracer trace.Tracer, protocol, target string, id int) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, protocol+" session",
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("session.protocol", protocol),
		attribute.Int("session.id", id),
	)
	if target != "" {
		span.SetAttributes(attribute.String("url.full", target))
	}
	return ctx, span
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// InjectHTTPHeaders injects W3C trace context into HTTP headers.
func InjectHTTPHeaders(ctx context.Context, headers http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))
}

// WithSpans wraps exec so that every session runs inside its own span.
// A nil tracer returns exec unchanged.
func WithSpans(exec session.Executor, tracer trace.Tracer, protocol, target string) session.Executor {
	if tracer == nil {
		return exec
	}
	return &spanExecutor{next: exec, tracer: tracer, protocol: protocol, target: target}
}

type spanExecutor struct {
	next     session.Executor
	tracer   trace.Tracer
	protocol string
	target   string
}

func (s *spanExecutor) Execute(ctx context.Context, item session.WorkItem) (session.Result, error) {
	ctx, span := StartSessionSpan(ctx, s.tracer, s.protocol, s.target, item.ID)
	res, err := s.next.Execute(ctx, item)

	spanErr := err
	if spanErr == nil && !res.Success {
		spanErr = errors.New(res.Error)
	}
	attrs := []attribute.KeyValue{attribute.Bool("session.success", err == nil && res.Success)}
	if res.Status > 0 {
		attrs = append(attrs, attribute.Int("http.response.status_code", int(res.Status)))
	}
	if res.Title != "" {
		attrs = append(attrs, attribute.String("session.page_title", res.Title))
	}
	EndSpan(span, spanErr, attrs...)
	return res, err
}
