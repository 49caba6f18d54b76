// internal/chaos/experiments.go
package chaos

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"heritage/internal/planner"
)

// Lab runs planners against fault-wrapped providers. Each experiment
// builds fresh planners so runs do not share state.
type Lab struct {
	Bases      planner.BaseLocator
	BaseID     string
	Places     *FaultyPlaces
	Directions *FaultyDirections
	Options    planner.Options
	Logger     *zap.Logger

	// Duration and Interval apply to every experiment.
	Duration time.Duration
	Interval time.Duration
}

// NewLab wraps places and directions with fault injectors.
func NewLab(bases planner.BaseLocator, baseID string, places planner.PlacesProvider, directions planner.DirectionsProvider, opts planner.Options, logger *zap.Logger) *Lab {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lab{
		Bases:      bases,
		BaseID:     baseID,
		Places:     NewFaultyPlaces(places),
		Directions: NewFaultyDirections(directions),
		Options:    opts,
		Logger:     logger,
		Duration:   30 * time.Second,
		Interval:   time.Second,
	}
}

// Experiments returns the built-in experiments.
func (l *Lab) Experiments() []Experiment {
	return []Experiment{
		l.PartialCategoryOutage(planner.Categories[1], planner.Categories[2]),
		l.DirectionsOutage(),
		l.PlacesLatency(3 * l.searchTimeout()),
	}
}

func (l *Lab) planner() *planner.Planner {
	return planner.New(planner.Deps{
		Bases:      l.Bases,
		Places:     l.Places,
		Directions: l.Directions,
		Logger:     l.Logger,
	}, l.Options)
}

func (l *Lab) searchTimeout() time.Duration {
	if l.Options.SearchTimeout > 0 {
		return l.Options.SearchTimeout
	}
	return 10 * time.Second
}

// selectBase runs one base selection on a fresh planner.
func (l *Lab) selectBase(ctx context.Context) (planner.Snapshot, time.Duration, error) {
	p := l.planner()
	start := time.Now()
	if err := p.SelectBase(ctx, l.BaseID); err != nil {
		return planner.Snapshot{}, 0, err
	}
	return p.Snapshot(), time.Since(start), nil
}

func (l *Lab) candidatesMetric() Metric {
	return Metric{
		Name: "nearby_candidates",
		Query: func(ctx context.Context) (float64, error) {
			snap, _, err := l.selectBase(ctx)
			return float64(len(snap.Candidates)), err
		},
		Threshold: Threshold{Operator: ">", Value: 0},
	}
}

func (l *Lab) searchingMetric() Metric {
	return Metric{
		Name: "searching_stuck",
		Query: func(ctx context.Context) (float64, error) {
			snap, _, err := l.selectBase(ctx)
			if err != nil {
				return 0, err
			}
			if snap.State == planner.StateSearchingNearby {
				return 1, nil
			}
			return 0, nil
		},
		Threshold: Threshold{Operator: "==", Value: 0},
	}
}

func (l *Lab) resetPlaces(target string) Action {
	return Action{
		Type:   "reset",
		Target: target,
		Execute: func(context.Context) error {
			l.Places.Reset()
			return nil
		},
	}
}

// PartialCategoryOutage fails the given place categories. The planner
// should still list candidates from the healthy ones and leave the
// searching state.
func (l *Lab) PartialCategoryOutage(failing ...string) Experiment {
	categories := l.Options.Categories
	if len(categories) == 0 {
		categories = planner.Categories
	}
	return Experiment{
		Name:        "partial-category-outage",
		Hypothesis:  "Candidates still populate from healthy categories when some category searches fail",
		SteadyState: []Metric{l.candidatesMetric(), l.searchingMetric()},
		Method: []Action{{
			Type:       "fail-categories",
			Target:     "places-provider",
			Parameters: map[string]any{"categories": failing},
			Execute: func(context.Context) error {
				l.Places.FailCategories(failing...)
				return nil
			},
		}},
		Rollback: []Action{l.resetPlaces("places-provider")},
		Validation: []Assertion{
			{Metric: "nearby_candidates", Condition: func(v float64) bool { return v > 0 }, Message: "Healthy categories should still yield candidates"},
			{Metric: "searching_stuck", Condition: func(v float64) bool { return v == 0 }, Message: "Searching state should clear after a partial failure"},
		},
		Duration:    l.Duration,
		Interval:    l.Interval,
		BlastRadius: float64(len(failing)) / float64(len(categories)),
	}
}

// routeWatch is a planner with two stops that keeps recomputing its
// route.
type routeWatch struct {
	lab *Lab

	mu sync.Mutex
	p  *planner.Planner
}

func (r *routeWatch) visible(ctx context.Context) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.p == nil {
		base, err := r.lab.Bases.Base(ctx, r.lab.BaseID)
		if err != nil {
			return 0, fmt.Errorf("resolve base: %w", err)
		}
		p := r.lab.planner()
		for i, name := range []string{"Route start", "Route end"} {
			offset := float64(i+1) * 0.02
			cs := planner.CustomStop{Name: name, Lat: base.Location.Lat + offset, Lng: base.Location.Lng + offset}
			if _, err := p.AddCustomStop(ctx, cs); err != nil {
				return 0, err
			}
		}
		r.p = p
	}

	if _, err := r.p.ComputeRoute(ctx); err != nil && !errors.Is(err, planner.ErrRouteUnavailable) {
		return 0, err
	}
	snap := r.p.Snapshot()
	if snap.Route != nil && snap.State == planner.StateRouteReady {
		return 1, nil
	}
	return 0, nil
}

// DirectionsOutage fails every route request. A route computed before
// the outage should stay visible.
func (l *Lab) DirectionsOutage() Experiment {
	watch := &routeWatch{lab: l}
	return Experiment{
		Name:       "directions-outage",
		Hypothesis: "The last route summary stays visible while the directions provider is down",
		SteadyState: []Metric{{
			Name:      "route_visible",
			Query:     watch.visible,
			Threshold: Threshold{Operator: "==", Value: 1},
		}},
		Method: []Action{{
			Type:   "fail-routes",
			Target: "directions-provider",
			Execute: func(context.Context) error {
				l.Directions.Fail(true)
				return nil
			},
		}},
		Rollback: []Action{{
			Type:   "reset",
			Target: "directions-provider",
			Execute: func(context.Context) error {
				l.Directions.Fail(false)
				return nil
			},
		}},
		Validation: []Assertion{
			{Metric: "route_visible", Condition: func(v float64) bool { return v == 1 }, Message: "Stale route summary should remain after failed recalculations"},
		},
		Duration:    l.Duration,
		Interval:    l.Interval,
		BlastRadius: 1,
	}
}

// PlacesLatency delays every places call by latency. Base selection
// should still finish within the search timeout plus slack.
func (l *Lab) PlacesLatency(latency time.Duration) Experiment {
	budget := 2 * l.searchTimeout()
	return Experiment{
		Name:       "places-latency",
		Hypothesis: "Base selection completes within the search timeout when the places provider is slow",
		SteadyState: []Metric{
			{
				Name: "search_seconds",
				Query: func(ctx context.Context) (float64, error) {
					_, took, err := l.selectBase(ctx)
					return took.Seconds(), err
				},
				Threshold: Threshold{Operator: "<", Value: budget.Seconds()},
			},
			l.searchingMetric(),
		},
		Method: []Action{{
			Type:       "inject-latency",
			Target:     "places-provider",
			Parameters: map[string]any{"latency": latency},
			Execute: func(context.Context) error {
				l.Places.SetLatency(latency)
				return nil
			},
		}},
		Rollback: []Action{l.resetPlaces("places-provider")},
		Validation: []Assertion{
			{Metric: "search_seconds", Condition: func(v float64) bool { return v < budget.Seconds() }, Message: "Slow searches should be cut off by the search timeout"},
			{Metric: "searching_stuck", Condition: func(v float64) bool { return v == 0 }, Message: "Searching state should clear after timeouts"},
		},
		Duration:    l.Duration,
		Interval:    l.Interval,
		BlastRadius: 1,
	}
}
