// internal/catalog/implementation.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"heritage/internal/filter"
	"heritage/internal/panorama"
)

// collection caches one decoded collection. A failed load is not cached
// so the next caller retries.
type collection[T any] struct {
	name   string
	mu     sync.Mutex
	items  []T
	loaded bool
}

func (c *collection[T]) get(ctx context.Context, src Source) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.items, nil
	}
	doc, err := src.Load(ctx, c.name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, c.name, err)
	}
	items, err := decode[T](doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	c.items, c.loaded = items, true
	return items, nil
}

// service implements the Service interface.
type service struct {
	source   Source
	logger   *zap.Logger
	tracer   trace.Tracer
	renderer *Renderer
	now      func() time.Time

	monasteries collection[Monastery]
	archives    collection[ArchiveItem]
	events      collection[Event]
}

// NewService creates a new catalog service instance reading from src.
func NewService(src Source, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		source:      src,
		logger:      logger.Named("catalog"),
		tracer:      otel.Tracer("heritage/catalog"),
		renderer:    NewRenderer(),
		now:         time.Now,
		monasteries: collection[Monastery]{name: CollectionMonasteries},
		archives:    collection[ArchiveItem]{name: CollectionArchives},
		events:      collection[Event]{name: CollectionEvents},
	}
}

func (s *service) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "catalog."+op, trace.WithAttributes(attrs...))
}

func listing[T filter.Record](all []T, c filter.Criteria, noun string) Listing[T] {
	items := filter.Apply(all, c)
	l := Listing[T]{Items: items, Total: len(all)}
	if len(items) == 0 {
		if c.Active() {
			l.Message = fmt.Sprintf("No %s match the current search or filters.", noun)
		} else {
			l.Message = fmt.Sprintf("No %s are available yet.", noun)
		}
	}
	return l
}

func (s *service) loadFailed(span trace.Span, err error, collection string) error {
	span.RecordError(err)
	s.logger.Error("failed to load collection", zap.String("collection", collection), zap.Error(err))
	return err
}

// Monasteries lists monasteries matching c.
func (s *service) Monasteries(ctx context.Context, c filter.Criteria) (Listing[Monastery], error) {
	ctx, span := s.start(ctx, "monasteries")
	defer span.End()

	all, err := s.monasteries.get(ctx, s.source)
	if err != nil {
		return Listing[Monastery]{}, s.loadFailed(span, err, CollectionMonasteries)
	}
	l := listing(all, c, "monasteries")
	span.SetAttributes(attribute.Int("results", len(l.Items)))
	return l, nil
}

// Monastery retrieves a monastery by its ID with its events and
// artifacts. Artifacts are matched on the monastery name.
func (s *service) Monastery(ctx context.Context, id string) (*MonasteryDetail, error) {
	ctx, span := s.start(ctx, "monastery", attribute.String("id", id))
	defer span.End()

	m, err := s.findMonastery(ctx, span, id)
	if err != nil {
		return nil, err
	}
	events, err := s.events.get(ctx, s.source)
	if err != nil {
		return nil, s.loadFailed(span, err, CollectionEvents)
	}
	archives, err := s.archives.get(ctx, s.source)
	if err != nil {
		return nil, s.loadFailed(span, err, CollectionArchives)
	}
	html, err := s.renderer.HTML(m.Description)
	if err != nil {
		return nil, err
	}

	d := &MonasteryDetail{
		Detail:    Detail[Monastery]{Record: m, DescriptionHTML: html},
		Events:    []Event{},
		Artifacts: []ArchiveItem{},
	}
	for _, e := range events {
		if slices.Contains(e.Monasteries, m.ID) {
			d.Events = append(d.Events, e)
		}
	}
	for _, a := range archives {
		if a.Monastery == m.Name {
			d.Artifacts = append(d.Artifacts, a)
		}
	}
	span.SetAttributes(attribute.Int("events", len(d.Events)), attribute.Int("artifacts", len(d.Artifacts)))
	return d, nil
}

func (s *service) findMonastery(ctx context.Context, span trace.Span, id string) (Monastery, error) {
	all, err := s.monasteries.get(ctx, s.source)
	if err != nil {
		return Monastery{}, s.loadFailed(span, err, CollectionMonasteries)
	}
	for _, m := range all {
		if m.ID == id {
			return m, nil
		}
	}
	return Monastery{}, fmt.Errorf("monastery %q: %w", id, ErrNotFound)
}

// Archives lists archive items matching c.
func (s *service) Archives(ctx context.Context, c filter.Criteria) (Listing[ArchiveItem], error) {
	ctx, span := s.start(ctx, "archives")
	defer span.End()

	all, err := s.archives.get(ctx, s.source)
	if err != nil {
		return Listing[ArchiveItem]{}, s.loadFailed(span, err, CollectionArchives)
	}
	return listing(all, c, "archive items"), nil
}

// ArchiveItem retrieves an archive item by its ID.
func (s *service) ArchiveItem(ctx context.Context, id string) (*Detail[ArchiveItem], error) {
	ctx, span := s.start(ctx, "archive_item", attribute.String("id", id))
	defer span.End()

	all, err := s.archives.get(ctx, s.source)
	if err != nil {
		return nil, s.loadFailed(span, err, CollectionArchives)
	}
	for _, a := range all {
		if a.ID != id {
			continue
		}
		html, err := s.renderer.HTML(a.Description)
		if err != nil {
			return nil, err
		}
		return &Detail[ArchiveItem]{Record: a, DescriptionHTML: html}, nil
	}
	return nil, fmt.Errorf("archive item %q: %w", id, ErrNotFound)
}

// Events lists festival events matching c.
func (s *service) Events(ctx context.Context, c filter.Criteria) (Listing[Event], error) {
	ctx, span := s.start(ctx, "events")
	defer span.End()

	all, err := s.events.get(ctx, s.source)
	if err != nil {
		return Listing[Event]{}, s.loadFailed(span, err, CollectionEvents)
	}
	return listing(all, c, "events"), nil
}

// Event retrieves an event by its ID with the names of its monasteries.
func (s *service) Event(ctx context.Context, id string) (*EventDetail, error) {
	ctx, span := s.start(ctx, "event", attribute.String("id", id))
	defer span.End()

	all, err := s.events.get(ctx, s.source)
	if err != nil {
		return nil, s.loadFailed(span, err, CollectionEvents)
	}
	for _, e := range all {
		if e.ID != id {
			continue
		}
		html, err := s.renderer.HTML(e.Description)
		if err != nil {
			return nil, err
		}
		names, err := s.monasteryNames(ctx, span, e.Monasteries)
		if err != nil {
			return nil, err
		}
		return &EventDetail{Detail: Detail[Event]{Record: e, DescriptionHTML: html}, MonasteryNames: names}, nil
	}
	return nil, fmt.Errorf("event %q: %w", id, ErrNotFound)
}

func (s *service) monasteryNames(ctx context.Context, span trace.Span, ids []string) ([]string, error) {
	all, err := s.monasteries.get(ctx, s.source)
	if err != nil {
		return nil, s.loadFailed(span, err, CollectionMonasteries)
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if i := slices.IndexFunc(all, func(m Monastery) bool { return m.ID == id }); i >= 0 {
			names = append(names, all[i].Name)
		}
	}
	return names, nil
}

// Tours lists monasteries that have a panorama, filtered by c.
func (s *service) Tours(ctx context.Context, c filter.Criteria) (Listing[Monastery], error) {
	ctx, span := s.start(ctx, "tours")
	defer span.End()

	all, err := s.monasteries.get(ctx, s.source)
	if err != nil {
		return Listing[Monastery]{}, s.loadFailed(span, err, CollectionMonasteries)
	}
	touring := make([]Monastery, 0, len(all))
	for _, m := range all {
		if m.Touring() {
			touring = append(touring, m)
		}
	}
	return listing(touring, c, "virtual tours"), nil
}

// Tour returns the panorama viewer configuration for a monastery.
func (s *service) Tour(ctx context.Context, id string) (*Tour, error) {
	ctx, span := s.start(ctx, "tour", attribute.String("id", id))
	defer span.End()

	m, err := s.findMonastery(ctx, span, id)
	if err != nil {
		return nil, err
	}
	viewer, err := panorama.New(m.PanoramaURL, m.Name)
	if errors.Is(err, panorama.ErrNoImage) {
		return nil, fmt.Errorf("monastery %q: %w", id, ErrNoVirtualTour)
	}
	if err != nil {
		return nil, err
	}
	return &Tour{Monastery: m, Viewer: viewer}, nil
}

// Calendar exports the events matching c as an iCalendar feed for year.
func (s *service) Calendar(ctx context.Context, year int, c filter.Criteria) ([]byte, error) {
	ctx, span := s.start(ctx, "calendar", attribute.Int("year", year))
	defer span.End()

	all, err := s.events.get(ctx, s.source)
	if err != nil {
		return nil, s.loadFailed(span, err, CollectionEvents)
	}
	return encodeCalendar(filter.Apply(all, c), year, s.now(), s.logger)
}

// Facets returns the distinct values of every filter dimension.
func (s *service) Facets(ctx context.Context) (Facets, error) {
	ctx, span := s.start(ctx, "facets")
	defer span.End()

	monasteries, err := s.monasteries.get(ctx, s.source)
	if err != nil {
		return nil, s.loadFailed(span, err, CollectionMonasteries)
	}
	archives, err := s.archives.get(ctx, s.source)
	if err != nil {
		return nil, s.loadFailed(span, err, CollectionArchives)
	}
	events, err := s.events.get(ctx, s.source)
	if err != nil {
		return nil, s.loadFailed(span, err, CollectionEvents)
	}

	facets := Facets{
		CollectionMonasteries: {},
		CollectionArchives:    {},
		CollectionEvents:      {},
	}
	for _, d := range Dimensions[CollectionMonasteries] {
		facets[CollectionMonasteries][d] = filter.Values(monasteries, d)
	}
	for _, d := range Dimensions[CollectionArchives] {
		facets[CollectionArchives][d] = filter.Values(archives, d)
	}
	for _, d := range Dimensions[CollectionEvents] {
		facets[CollectionEvents][d] = filter.Values(events, d)
	}
	return facets, nil
}

// Base resolves a monastery with coordinates for the itinerary planner.
func (s *service) Base(ctx context.Context, id string) (*Location, error) {
	ctx, span := s.start(ctx, "base", attribute.String("id", id))
	defer span.End()

	m, err := s.findMonastery(ctx, span, id)
	if err != nil {
		return nil, err
	}
	if !m.Located() {
		return nil, fmt.Errorf("monastery %q has no coordinates: %w", id, ErrNotFound)
	}
	loc := toLocation(m)
	return &loc, nil
}

// Bases lists every monastery usable as an itinerary base.
func (s *service) Bases(ctx context.Context) ([]Location, error) {
	ctx, span := s.start(ctx, "bases")
	defer span.End()

	all, err := s.monasteries.get(ctx, s.source)
	if err != nil {
		return nil, s.loadFailed(span, err, CollectionMonasteries)
	}
	out := make([]Location, 0, len(all))
	for _, m := range all {
		if m.Located() {
			out = append(out, toLocation(m))
		}
	}
	if len(out) == 0 {
		s.logger.Warn("no monasteries with coordinates; itinerary planner has no bases")
	}
	return out, nil
}

func toLocation(m Monastery) Location {
	return Location{ID: m.ID, Name: m.Name, Location: m.Location, Lat: *m.Lat, Lng: *m.Lng}
}
