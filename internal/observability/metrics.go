package observability

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds OTel metric instruments for parity runs.
type Metrics struct {
	Comparisons  metric.Int64Counter
	FetchLatency metric.Float64Histogram
}

// NewMetrics creates the parity metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return newMetrics(otel.Meter(meterName))
}

const meterName = "api-parity"

func newMetrics(meter metric.Meter) (*Metrics, error) {
	comparisons, err := meter.Int64Counter("parity.comparison.count",
		metric.WithDescription("Number of endpoint comparisons by outcome"),
	)
	if err != nil {
		return nil, err
	}

	fetchLatency, err := meter.Float64Histogram("parity.fetch.latency_seconds",
		metric.WithDescription("Response time of old and new API calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		Comparisons:  comparisons,
		FetchLatency: fetchLatency,
	}, nil
}

// RecordComparison counts a comparison with outcome match, mismatch or error.
func (m *Metrics) RecordComparison(ctx context.Context, outcome string) {
	m.Comparisons.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)),
	)
}

// RecordFetch records the latency of one side of a comparison.
func (m *Metrics) RecordFetch(ctx context.Context, side string, status int, d time.Duration) {
	m.FetchLatency.Record(ctx, d.Seconds(),
		metric.WithAttributes(
			attribute.String("side", side),
			attribute.String("status", strconv.Itoa(status)),
		),
	)
}
