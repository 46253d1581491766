package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds OTel metric instruments for the workflow catalog.
type Metrics struct {
	Queries      metric.Int64Counter
	QueryLatency metric.Float64Histogram
	Omitted      metric.Int64Counter
	Dispatches   metric.Int64Counter
}

// NewMetrics creates the catalog metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("rhythm")

	queries, err := meter.Int64Counter("rhythm.catalog.queries",
		metric.WithDescription("Number of catalog operations served"),
	)
	if err != nil {
		return nil, err
	}

	queryLatency, err := meter.Float64Histogram("rhythm.catalog.query_latency_seconds",
		metric.WithDescription("Catalog operation latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	omitted, err := meter.Int64Counter("rhythm.projection.omitted",
		metric.WithDescription("Workflows dropped from a page because their view could not be built"),
	)
	if err != nil {
		return nil, err
	}

	dispatches, err := meter.Int64Counter("rhythm.engine.dispatches",
		metric.WithDescription("Workflow start and signal requests sent to the execution layer"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		Queries:      queries,
		QueryLatency: queryLatency,
		Omitted:      omitted,
		Dispatches:   dispatches,
	}, nil
}

// RecordQuery records one catalog operation and its latency. A nil receiver
// is a no-op so callers may run without telemetry.
func (m *Metrics) RecordQuery(ctx context.Context, op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("op", op),
		attribute.Bool("error", err != nil),
	)
	m.Queries.Add(ctx, 1, attrs)
	m.QueryLatency.Record(ctx, d.Seconds(), attrs)
}

// RecordOmitted records workflows dropped from a listing page.
func (m *Metrics) RecordOmitted(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.Omitted.Add(ctx, int64(n))
}

// RecordDispatch records a start or signal sent to the execution layer.
func (m *Metrics) RecordDispatch(ctx context.Context, kind string, err error) {
	if m == nil {
		return
	}
	m.Dispatches.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.Bool("error", err != nil),
		),
	)
}
