package middleware

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shop/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

var responseSizeBuckets = []float64{100, 1000, 10000, 100000, 1000000}

type httpMetrics struct {
	requests metric.Int64Counter
	inflight metric.Int64UpDownCounter
	latency  *telemetry.Histogram
	size     *telemetry.Histogram
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	var m httpMetrics
	var errs []error
	keep := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	var err error
	m.requests, err = meter.Int64Counter("http_server_request_total",
		metric.WithDescription("HTTP requests served"), metric.WithUnit("{request}"))
	keep(err)
	m.inflight, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("HTTP requests in flight"), metric.WithUnit("{request}"))
	keep(err)
	m.latency, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	keep(err)
	m.size, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_response_size_bytes",
		Description: "HTTP response body size",
		Unit:        "By",
		Boundaries:  responseSizeBuckets,
	})
	keep(err)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &m, nil
}

func passThrough(c *gin.Context) { c.Next() }

// HTTPMetrics counts requests and records latency and response size,
// labelled by gin route pattern rather than raw path. It degrades to a
// no-op when meter is nil or the instruments cannot be created.
func HTTPMetrics(meter metric.Meter, log *zap.Logger) gin.HandlerFunc {
	if meter == nil {
		return passThrough
	}
	m, err := newHTTPMetrics(meter)
	if err != nil {
		log.Warn("HTTP metrics disabled", zap.Error(err))
		return passThrough
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		began := time.Now()
		m.inflight.Add(ctx, 1)
		defer m.inflight.Add(ctx, -1)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		labels := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(route),
		}
		m.latency.RecordDuration(ctx, time.Since(began), labels...)
		if n := c.Writer.Size(); n > 0 {
			m.size.Record(ctx, float64(n), labels...)
		}
		labels = append(labels, telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))
		m.requests.Add(ctx, 1, metric.WithAttributes(labels...))
	}
}
