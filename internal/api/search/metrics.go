package search

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const namespace = "search_api"

// APIMetrics defines the metrics recorded by the HTTP layer.
type APIMetrics interface {
	IncRequestsTotal(ctx context.Context, method, path string, status int)
	ObserveRequestDuration(ctx context.Context, method, path string, duration time.Duration)
	IncSearchRequestsTotal(ctx context.Context)
	IncSearchRequestErrors(ctx context.Context, reason string)
}

type apiMetrics struct {
	requestsTotal       metric.Int64Counter
	requestDuration     metric.Float64Histogram
	searchRequestsTotal metric.Int64Counter
	searchRequestErrors metric.Int64Counter
}

// NewAPIMetrics creates the HTTP layer's metrics instruments.
func NewAPIMetrics(mp metric.MeterProvider) (*apiMetrics, error) {
	meter := mp.Meter(namespace, metric.WithInstrumentationVersion("v0.1.0"))

	m := new(apiMetrics)
	var err error

	if m.requestsTotal, err = meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.requestDuration, err = meter.Float64Histogram(
		"request_duration_seconds",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.searchRequestsTotal, err = meter.Int64Counter(
		"search_requests_total",
		metric.WithDescription("Total number of search jobs requested over HTTP"),
	); err != nil {
		return nil, err
	}

	if m.searchRequestErrors, err = meter.Int64Counter(
		"search_request_errors_total",
		metric.WithDescription("Total number of rejected search requests"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *apiMetrics) IncRequestsTotal(ctx context.Context, method, path string, status int) {
	m.requestsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	))
}

func (m *apiMetrics) ObserveRequestDuration(ctx context.Context, method, path string, duration time.Duration) {
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
	))
}

func (m *apiMetrics) IncSearchRequestsTotal(ctx context.Context) {
	m.searchRequestsTotal.Add(ctx, 1)
}

func (m *apiMetrics) IncSearchRequestErrors(ctx context.Context, reason string) {
	m.searchRequestErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// MetricsMiddleware records request counts and latencies per route.
func MetricsMiddleware(metrics APIMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		ctx := c.Request.Context()
		metrics.IncRequestsTotal(ctx, c.Request.Method, path, c.Writer.Status())
		metrics.ObserveRequestDuration(ctx, c.Request.Method, path, time.Since(start))
	}
}
