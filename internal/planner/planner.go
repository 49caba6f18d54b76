// internal/planner/planner.go
package planner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	ErrBaseNotFound = errors.New("base location not found")
	// ErrBaseUnavailable means the base lookup failed for a reason other
	// than an unknown id and may succeed on retry.
	ErrBaseUnavailable = errors.New("base location lookup unavailable")
)

// BaseLocatorFunc adapts a function to BaseLocator.
type BaseLocatorFunc func(ctx context.Context, id string) (Base, error)

func (f BaseLocatorFunc) Base(ctx context.Context, id string) (Base, error) { return f(ctx, id) }

// Deps are the collaborators of a Planner. Bases, Places and Directions
// are required.
type Deps struct {
	Bases      BaseLocator
	Places     PlacesProvider
	Directions DirectionsProvider
	Map        MapAdapter
	Ordering   OrderingStrategy
	Store      Store
	Notifier   Notifier
	Metrics    *Metrics
	Logger     *zap.Logger
	Now        func() time.Time
}

type Options struct {
	Categories    []string
	SearchRadius  int
	MaxCandidates int
	StopMinutes   int
	SearchTimeout time.Duration
	RouteTimeout  time.Duration
}

func (o Options) withDefaults() Options {
	if len(o.Categories) == 0 {
		o.Categories = Categories
	}
	if o.SearchRadius <= 0 {
		o.SearchRadius = DefaultSearchRadius
	}
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = DefaultMaxCandidates
	}
	if o.StopMinutes <= 0 {
		o.StopMinutes = DefaultStopMinutes
	}
	if o.SearchTimeout <= 0 {
		o.SearchTimeout = 10 * time.Second
	}
	if o.RouteTimeout <= 0 {
		o.RouteTimeout = 15 * time.Second
	}
	return o
}

// Planner holds one itinerary in progress. It is safe for concurrent use.
type Planner struct {
	deps   Deps
	opts   Options
	tracer trace.Tracer

	mu         sync.Mutex
	base       *Base
	candidates []Candidate
	stops      []Stop
	route      *RouteSummary
	searching  bool
	routing    bool
	searchGen  uint64
	routeGen   uint64
}

func New(deps Deps, opts Options) *Planner {
	if deps.Map == nil {
		deps.Map = NewMapView()
	}
	if deps.Ordering == nil {
		deps.Ordering = ShuffleStrategy{}
	}
	if deps.Store == nil {
		deps.Store = &MemoryStore{}
	}
	if deps.Notifier == nil {
		deps.Notifier = discard{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Planner{
		deps:   deps,
		opts:   opts.withDefaults(),
		tracer: otel.Tracer("heritage/planner"),
		stops:  []Stop{},
	}
}

func (p *Planner) notify(level Level, title, format string, args ...any) {
	p.deps.Notifier.Notify(Notice{
		Level:   level,
		Title:   title,
		Message: fmt.Sprintf(format, args...),
		At:      p.deps.Now().UTC(),
	})
}

// state must be called with p.mu held.
func (p *Planner) state() State {
	switch {
	case p.searching:
		return StateSearchingNearby
	case p.routing:
		return StateRouteComputing
	case p.route != nil:
		return StateRouteReady
	case p.base == nil:
		return StateNoBaseSelected
	default:
		return StateNearbyReady
	}
}

// SelectBase anchors the planner on a monastery and searches every
// category around it. Previous candidates and markers are discarded;
// stops are kept. When another SelectBase starts before this one
// finishes, this one returns ErrSuperseded and its results are dropped.
func (p *Planner) SelectBase(ctx context.Context, id string) error {
	ctx, span := p.tracer.Start(ctx, "planner.select_base", trace.WithAttributes(attribute.String("base.id", id)))
	defer span.End()

	base, err := p.deps.Bases.Base(ctx, id)
	if err != nil {
		span.RecordError(err)
		if !errors.Is(err, ErrBaseNotFound) {
			p.deps.Logger.Warn("base lookup failed", zap.String("base_id", id), zap.Error(err))
			p.notify(LevelError, "Base Lookup Failed", "Could not load the selected monastery. Please try again.")
			if !errors.Is(err, ErrBaseUnavailable) {
				err = fmt.Errorf("%w: %w", ErrBaseUnavailable, err)
			}
		}
		return fmt.Errorf("select base %q: %w", id, err)
	}

	p.mu.Lock()
	p.searchGen++
	gen := p.searchGen
	p.base = &base
	p.candidates = nil
	p.searching = true
	p.deps.Map.ClearMarkers()
	p.deps.Map.Recenter(base.Location, BaseZoom)
	p.deps.Map.AddMarker(Marker{ID: base.ID, Title: base.Name, Position: base.Location, Kind: MarkerBase})
	p.mu.Unlock()

	results, failed := p.searchNearby(ctx, base.Location)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.searchGen {
		p.deps.Logger.Debug("discarding superseded nearby search",
			zap.String("base_id", base.ID),
			zap.Uint64("generation", gen),
		)
		return ErrSuperseded
	}
	p.searching = false
	p.candidates = mergeCandidates(results, p.opts.MaxCandidates)
	for _, c := range p.candidates {
		p.deps.Map.AddMarker(Marker{ID: c.ID, Title: c.Name, Position: c.Location, Kind: MarkerCandidate})
	}
	span.SetAttributes(
		attribute.Int("candidates", len(p.candidates)),
		attribute.Int("categories.failed", failed),
	)
	if failed > 0 {
		p.notify(LevelError, "Nearby Search Incomplete",
			"%d of %d place categories could not be searched", failed, len(p.opts.Categories))
	}
	return nil
}

// AddStop appends the candidate with the given provider id to the
// itinerary.
func (p *Planner) AddStop(ctx context.Context, candidateID string) error {
	p.mu.Lock()
	var (
		c     Candidate
		found bool
	)
	for _, cand := range p.candidates {
		if cand.ID == candidateID {
			c, found = cand, true
			break
		}
	}
	if !found {
		p.mu.Unlock()
		return fmt.Errorf("candidate %q: %w", candidateID, ErrCandidateNotFound)
	}
	if p.indexOf(candidateID) >= 0 {
		p.notify(LevelError, "Already Added", "%s is already in your itinerary", c.Name)
		p.mu.Unlock()
		return fmt.Errorf("candidate %q: %w", candidateID, ErrDuplicateStop)
	}
	p.stops = append(p.stops, stopFromCandidate(c, p.opts.StopMinutes))
	p.notify(LevelInfo, "Added to Itinerary", "%s has been added to your itinerary", c.Name)
	n := len(p.stops)
	p.mu.Unlock()

	if n >= 2 {
		p.recompute(ctx)
	}
	return nil
}

// CustomStop describes a stop that did not come from a nearby search.
type CustomStop struct {
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Type     string  `json:"type,omitempty"`
	Duration int     `json:"duration,omitempty"`
}

// AddCustomStop appends a stop with a generated id.
func (p *Planner) AddCustomStop(ctx context.Context, cs CustomStop) (Stop, error) {
	name := strings.TrimSpace(cs.Name)
	switch {
	case name == "":
		return Stop{}, fmt.Errorf("%w: name is required", ErrInvalidStop)
	case math.IsNaN(cs.Lat) || cs.Lat < -90 || cs.Lat > 90:
		return Stop{}, fmt.Errorf("%w: latitude %v out of range", ErrInvalidStop, cs.Lat)
	case math.IsNaN(cs.Lng) || cs.Lng < -180 || cs.Lng > 180:
		return Stop{}, fmt.Errorf("%w: longitude %v out of range", ErrInvalidStop, cs.Lng)
	case cs.Duration < 0:
		return Stop{}, fmt.Errorf("%w: duration must not be negative", ErrInvalidStop)
	}

	stop := Stop{
		ID:       uuid.NewString(),
		Name:     name,
		Lat:      cs.Lat,
		Lng:      cs.Lng,
		Type:     cs.Type,
		Duration: cs.Duration,
	}
	if stop.Type == "" {
		stop.Type = DefaultStopType
	}
	if stop.Duration == 0 {
		stop.Duration = p.opts.StopMinutes
	}

	p.mu.Lock()
	p.stops = append(p.stops, stop)
	p.notify(LevelInfo, "Added to Itinerary", "%s has been added to your itinerary", stop.Name)
	n := len(p.stops)
	p.mu.Unlock()

	if n >= 2 {
		p.recompute(ctx)
	}
	return stop, nil
}

// RemoveStop drops a stop. With fewer than two stops left the route
// summary is cleared.
func (p *Planner) RemoveStop(ctx context.Context, stopID string) error {
	p.mu.Lock()
	i := p.indexOf(stopID)
	if i < 0 {
		p.mu.Unlock()
		return fmt.Errorf("stop %q: %w", stopID, ErrStopNotFound)
	}
	p.stops = append(p.stops[:i:i], p.stops[i+1:]...)
	p.notify(LevelInfo, "Removed from Itinerary", "Stop has been removed from your itinerary")
	if len(p.stops) < 2 {
		p.clearRoute()
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	p.recompute(ctx)
	return nil
}

// ReorderStops replaces the stop order. ids must be a permutation of the
// current stop ids.
func (p *Planner) ReorderStops(ctx context.Context, ids []string) error {
	p.mu.Lock()
	if err := checkPermutation(p.stops, ids); err != nil {
		p.mu.Unlock()
		return err
	}
	p.stops = p.arrange(ids)
	n := len(p.stops)
	p.mu.Unlock()

	if n >= 2 {
		p.recompute(ctx)
	}
	return nil
}

// Optimize reorders the interior stops with the ordering strategy,
// keeping the first and last stop in place. It does nothing for two
// stops or fewer.
func (p *Planner) Optimize(ctx context.Context) error {
	p.mu.Lock()
	n := len(p.stops)
	if n <= 2 {
		p.mu.Unlock()
		return nil
	}
	interior := append([]Stop{}, p.stops[1:n-1]...)
	ordered := p.deps.Ordering.Order(append([]Stop{}, interior...))
	if err := checkPermutation(interior, stopIDs(ordered)); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("ordering strategy: %w", err)
	}
	ids := make([]string, 0, n)
	ids = append(ids, p.stops[0].ID)
	ids = append(ids, stopIDs(ordered)...)
	ids = append(ids, p.stops[n-1].ID)
	p.stops = p.arrange(ids)
	p.notify(LevelInfo, "Route Optimized", "Your itinerary stops have been reordered")
	p.mu.Unlock()

	p.recompute(ctx)
	return nil
}

// ComputeRoute requests directions through the current stops. On
// failure the previous summary is kept and returned along with an error
// wrapping ErrRouteUnavailable.
func (p *Planner) ComputeRoute(ctx context.Context) (*RouteSummary, error) {
	ctx, span := p.tracer.Start(ctx, "planner.compute_route")
	defer span.End()

	p.mu.Lock()
	if len(p.stops) < 2 {
		p.mu.Unlock()
		return nil, ErrTooFewStops
	}
	stops := append([]Stop{}, p.stops...)
	p.routeGen++
	gen := p.routeGen
	p.routing = true
	p.mu.Unlock()

	span.SetAttributes(attribute.Int("stops", len(stops)))
	route, err := p.directions(ctx, routeRequest(stops))
	p.deps.Metrics.route(ctx, err != nil)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.routeGen {
		p.deps.Logger.Debug("discarding superseded route", zap.Uint64("generation", gen))
		return nil, ErrSuperseded
	}
	p.routing = false
	if err != nil {
		span.RecordError(err)
		p.deps.Logger.Warn("route calculation failed", zap.Int("stops", len(stops)), zap.Error(err))
		p.notify(LevelError, "Route Error", "Failed to calculate route. Please try again.")
		return p.routeCopy(), fmt.Errorf("%w: %v", ErrRouteUnavailable, err)
	}
	summary := Summarize(route)
	p.route = &summary
	span.SetAttributes(
		attribute.Int("distance.meters", summary.DistanceMeters),
		attribute.Int("duration.seconds", summary.DurationSeconds),
	)
	return p.routeCopy(), nil
}

// recompute refreshes the route after a stop change. Failures are
// already logged and reported as notices.
func (p *Planner) recompute(ctx context.Context) {
	_, _ = p.ComputeRoute(ctx)
}

func (p *Planner) directions(ctx context.Context, req RouteRequest) (route Route, err error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.RouteTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("directions provider panic: %v", r)
		}
	}()
	return p.deps.Directions.Route(ctx, req)
}

// Save validates the itinerary and appends a copy of it to the store.
func (p *Planner) Save(ctx context.Context, name string) (Itinerary, error) {
	ctx, span := p.tracer.Start(ctx, "planner.save")
	defer span.End()

	it, err := p.itinerary(name)
	if err != nil {
		return Itinerary{}, err
	}
	if err := p.deps.Store.Append(ctx, it.Clone()); err != nil {
		span.RecordError(err)
		p.deps.Logger.Error("failed to save itinerary", zap.String("name", it.Name), zap.Error(err))
		p.notify(LevelError, "Save Failed", "%q could not be saved", it.Name)
		return Itinerary{}, fmt.Errorf("save itinerary: %w", err)
	}
	p.notify(LevelInfo, "Itinerary Saved", "%q has been saved successfully", it.Name)
	return it, nil
}

// Download validates the itinerary and renders it as a standalone file.
// Nothing is written to the store.
func (p *Planner) Download(name string) (Export, error) {
	it, err := p.itinerary(name)
	if err != nil {
		return Export{}, err
	}
	exp, err := newExport(it)
	if err != nil {
		return Export{}, err
	}
	p.notify(LevelInfo, "Itinerary Downloaded", "%q has been downloaded as a JSON file", it.Name)
	return exp, nil
}

func (p *Planner) itinerary(name string) (Itinerary, error) {
	name = strings.TrimSpace(name)

	p.mu.Lock()
	defer p.mu.Unlock()
	if name == "" {
		p.notify(LevelError, "Name Required", "Please enter a name for your itinerary")
		return Itinerary{}, ErrNameRequired
	}
	if len(p.stops) == 0 {
		p.notify(LevelError, "No Stops", "Add at least one stop before saving")
		return Itinerary{}, ErrNoStops
	}

	it := Itinerary{
		ID:        uuid.NewString(),
		Name:      name,
		Stops:     append([]Stop{}, p.stops...),
		Route:     p.routeCopy(),
		CreatedAt: p.deps.Now().UTC(),
	}
	if p.base != nil {
		b := *p.base
		it.Base = &b
		it.BaseMonastery = b.ID
	}
	if it.Route != nil {
		it.TotalDistance = it.Route.Distance
		it.TotalDuration = it.Route.Duration
	}
	return it, nil
}

// Snapshot returns a copy of the planner state.
func (p *Planner) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Snapshot{
		State:      p.state(),
		Candidates: append([]Candidate{}, p.candidates...),
		Stops:      append([]Stop{}, p.stops...),
		Route:      p.routeCopy(),
	}
	if p.base != nil {
		b := *p.base
		s.Base = &b
	}
	if v, ok := p.deps.Map.(interface{ State() MapState }); ok {
		s.Map = v.State()
	}
	return s
}

// State returns the current lifecycle state.
func (p *Planner) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state()
}

func (p *Planner) indexOf(stopID string) int {
	for i, s := range p.stops {
		if s.ID == stopID {
			return i
		}
	}
	return -1
}

// arrange returns the current stops in the order of ids.
func (p *Planner) arrange(ids []string) []Stop {
	byID := make(map[string]Stop, len(p.stops))
	for _, s := range p.stops {
		byID[s.ID] = s
	}
	out := make([]Stop, len(ids))
	for i, id := range ids {
		out[i] = byID[id]
	}
	return out
}

// clearRoute drops the summary and invalidates any route in flight.
func (p *Planner) clearRoute() {
	p.route = nil
	p.routeGen++
	p.routing = false
}

func (p *Planner) routeCopy() *RouteSummary {
	if p.route == nil {
		return nil
	}
	r := p.route.clone()
	return &r
}
