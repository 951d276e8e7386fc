package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// The global provider is a no-op until observability.InitTracing replaces it.
var tracer = otel.Tracer("promptdir/internal/services")

func startSpan(ctx context.Context, name, promptID string) (context.Context, trace.Span) {
	var opts []trace.SpanStartOption
	if promptID != "" {
		opts = append(opts, trace.WithAttributes(attribute.String("prompt.id", promptID)))
	}
	return tracer.Start(ctx, name, opts...)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
