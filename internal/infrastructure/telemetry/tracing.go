package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationScope = "github.com/shop/backend"

// Span attribute keys set by the application services.
const (
	SpanAttrOrderID    = "order_id"
	SpanAttrOrderState = "order_state"
	SpanAttrUserID     = "user_id"
	SpanAttrFileName   = "file_name"
	SpanAttrFormat     = "format"
	SpanAttrRows       = "rows"
)

// StartServiceSpan opens an internal span called "service.method" on the
// global tracer provider. Callers must End it.
func StartServiceSpan(ctx context.Context, service, method string) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationScope)
	return tracer.Start(ctx, service+"."+method, trace.WithSpanKind(trace.SpanKindInternal))
}

// SetAttributes takes key, value pairs. Non-string keys and a trailing
// unpaired key are ignored.
func SetAttributes(span trace.Span, kv ...any) {
	if span == nil {
		return
	}
	var attrs []attribute.KeyValue
	for i := 1; i < len(kv); i += 2 {
		if key, ok := kv[i-1].(string); ok {
			attrs = append(attrs, attributeOf(key, kv[i]))
		}
	}
	span.SetAttributes(attrs...)
}

func RecordError(span trace.Span, err error) {
	if span != nil && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func SetOK(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}

// GetTraceID is empty when ctx carries no valid span.
func GetTraceID(ctx context.Context) string {
	if id := trace.SpanContextFromContext(ctx).TraceID(); id.IsValid() {
		return id.String()
	}
	return ""
}

func attributeOf(key string, value any) attribute.KeyValue {
	k := attribute.Key(key)
	switch v := value.(type) {
	case string:
		return k.String(v)
	case bool:
		return k.Bool(v)
	case int:
		return k.Int(v)
	case int64:
		return k.Int64(v)
	case float64:
		return k.Float64(v)
	case []string:
		return k.StringSlice(v)
	case []int64:
		return k.Int64Slice(v)
	case fmt.Stringer:
		return k.String(v.String())
	}
	return k.String(fmt.Sprint(value))
}
