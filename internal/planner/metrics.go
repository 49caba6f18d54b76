// internal/planner/metrics.go
package planner

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics counts provider calls made by planners.
type Metrics struct {
	searches       metric.Int64Counter
	searchFailures metric.Int64Counter
	routes         metric.Int64Counter
	routeFailures  metric.Int64Counter
}

// NewMetrics registers the planner counters on meter, or on the global
// meter provider when meter is nil.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter("heritage/planner")
	}
	var (
		m   Metrics
		err error
	)
	if m.searches, err = meter.Int64Counter("planner.nearby.searches",
		metric.WithDescription("Nearby searches issued, one per category")); err != nil {
		return nil, err
	}
	if m.searchFailures, err = meter.Int64Counter("planner.nearby.failures",
		metric.WithDescription("Nearby searches that failed")); err != nil {
		return nil, err
	}
	if m.routes, err = meter.Int64Counter("planner.route.requests",
		metric.WithDescription("Directions requests issued")); err != nil {
		return nil, err
	}
	if m.routeFailures, err = meter.Int64Counter("planner.route.failures",
		metric.WithDescription("Directions requests that failed")); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Metrics) search(ctx context.Context, category string, failed bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("category", category))
	m.searches.Add(ctx, 1, attrs)
	if failed {
		m.searchFailures.Add(ctx, 1, attrs)
	}
}

func (m *Metrics) route(ctx context.Context, failed bool) {
	if m == nil {
		return
	}
	m.routes.Add(ctx, 1)
	if failed {
		m.routeFailures.Add(ctx, 1)
	}
}
