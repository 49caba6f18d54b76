package catalog

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heritage/internal/filter"
)

type flakySource struct {
	inner    Source
	failures atomic.Int32
	calls    atomic.Int32
}

func (f *flakySource) Load(ctx context.Context, collection string) (Document, error) {
	f.calls.Add(1)
	if f.failures.Load() > 0 {
		f.failures.Add(-1)
		return Document{}, errors.New("connection reset")
	}
	return f.inner.Load(ctx, collection)
}

func newSampleService(t *testing.T) Service {
	t.Helper()
	return NewService(SampleSource(), nil)
}

func TestMonasteriesFilter(t *testing.T) {
	svc := newSampleService(t)
	ctx := context.Background()

	all, err := svc.Monasteries(ctx, filter.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, 6, all.Total)
	assert.Len(t, all.Items, 6)
	assert.Empty(t, all.Message)

	kagyu, err := svc.Monasteries(ctx, filter.Criteria{}.With("tradition", "Kagyu"))
	require.NoError(t, err)
	require.Len(t, kagyu.Items, 2)
	assert.Equal(t, "rumtek", kagyu.Items[0].ID)
	assert.Equal(t, "phodong", kagyu.Items[1].ID)

	west, err := svc.Monasteries(ctx, filter.Criteria{Text: "heart-shaped"}.With("location", "West Sikkim"))
	require.NoError(t, err)
	require.Len(t, west.Items, 1)
	assert.Equal(t, "tashiding", west.Items[0].ID)

	north, err := svc.Monasteries(ctx, filter.Criteria{Text: "north sikkim"})
	require.NoError(t, err)
	require.Len(t, north.Items, 1, "text search covers location")
	assert.Equal(t, "phodong", north.Items[0].ID)

	byTradition, err := svc.Monasteries(ctx, filter.Criteria{Text: "KAGYU"})
	require.NoError(t, err)
	assert.Len(t, byTradition.Items, 2, "text search covers tradition")
}

func TestMonasteriesNothingFound(t *testing.T) {
	svc := newSampleService(t)

	l, err := svc.Monasteries(context.Background(), filter.Criteria{Text: "lhasa"})
	require.NoError(t, err)
	assert.NotNil(t, l.Items)
	assert.Empty(t, l.Items)
	assert.Contains(t, l.Message, "No monasteries match")
}

func TestMonasteryDetail(t *testing.T) {
	svc := newSampleService(t)

	d, err := svc.Monastery(context.Background(), "rumtek")
	require.NoError(t, err)
	assert.Equal(t, "Rumtek Monastery", d.Record.Name)
	assert.True(t, strings.HasPrefix(d.DescriptionHTML, "<p>"))

	_, err = svc.Monastery(context.Background(), "lhasa")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMonasteryDetailRelatedRecords(t *testing.T) {
	svc := newSampleService(t)
	ids := func(d *MonasteryDetail) (events, artifacts []string) {
		for _, e := range d.Events {
			events = append(events, e.ID)
		}
		for _, a := range d.Artifacts {
			artifacts = append(artifacts, a.ID)
		}
		return events, artifacts
	}

	d, err := svc.Monastery(context.Background(), "enchey")
	require.NoError(t, err)
	events, artifacts := ids(d)
	assert.Equal(t, []string{"losar", "saga-dawa", "cham-enchey"}, events)
	assert.Equal(t, []string{"enchey-cham-masks"}, artifacts)

	d, err = svc.Monastery(context.Background(), "dubdi")
	require.NoError(t, err)
	assert.NotNil(t, d.Events)
	assert.Empty(t, d.Events)
	assert.Empty(t, d.Artifacts)
}

func TestEventDetailMonasteryNames(t *testing.T) {
	svc := newSampleService(t)

	d, err := svc.Event(context.Background(), "saga-dawa")
	require.NoError(t, err)
	assert.Equal(t, "saga-dawa", d.Record.ID)
	assert.Equal(t, []string{"Rumtek Monastery", "Enchey Monastery", "Pemayangtse Monastery"}, d.MonasteryNames)

	src := FSSource{FS: fstest.MapFS{
		"events.json":      {Data: []byte(`[{"id":"x","name":"X","description":"d","month":"May","season":"Spring","type":"Festival","location":"L","monasteries":["gone","rumtek"]}]`)},
		"monasteries.json": {Data: []byte(`[{"id":"rumtek","name":"Rumtek Monastery","location":"Gangtok","description":"d","tradition":"Kagyu"}]`)},
	}}
	d, err = NewService(src, nil).Event(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"Rumtek Monastery"}, d.MonasteryNames, "unknown ids are skipped")
}

func TestArchiveDescriptionIsSanitizedHTML(t *testing.T) {
	src := FSSource{FS: fstest.MapFS{
		"archives.json": {Data: []byte(`[{"id":"x","title":"T","description":"**bold** <script>alert(1)</script>","century":"18th Century","monastery":"Rumtek Monastery","category":"Manuscript"}]`)},
	}}
	svc := NewService(src, nil)

	d, err := svc.ArchiveItem(context.Background(), "x")
	require.NoError(t, err)
	assert.Contains(t, d.DescriptionHTML, "<strong>bold</strong>")
	assert.NotContains(t, d.DescriptionHTML, "<script>")
}

func TestArchivesByCentury(t *testing.T) {
	svc := newSampleService(t)

	l, err := svc.Archives(context.Background(), filter.Criteria{}.With("century", "20th Century"))
	require.NoError(t, err)
	require.Len(t, l.Items, 2)
	assert.Equal(t, "tashiding-bumchu", l.Items[0].ID)
	assert.Equal(t, 4, l.Total)
}

func TestEventsBySeasonAndText(t *testing.T) {
	svc := newSampleService(t)

	l, err := svc.Events(context.Background(), filter.Criteria{Text: "dance"}.With("season", "Winter"))
	require.NoError(t, err)
	ids := make([]string, 0, len(l.Items))
	for _, e := range l.Items {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"losar", "cham-enchey"}, ids)
}

func TestToursAndTour(t *testing.T) {
	svc := newSampleService(t)
	ctx := context.Background()

	l, err := svc.Tours(ctx, filter.Criteria{})
	require.NoError(t, err)
	assert.Len(t, l.Items, 4)

	tour, err := svc.Tour(ctx, "enchey")
	require.NoError(t, err)
	assert.Equal(t, "Enchey Monastery - Virtual Tour", tour.Viewer.Caption)
	assert.Equal(t, "/panoramas/enchey.jpg", tour.Viewer.Panorama)

	_, err = svc.Tour(ctx, "dubdi")
	assert.ErrorIs(t, err, ErrNoVirtualTour)

	_, err = svc.Tour(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBasesSkipUnlocatedMonasteries(t *testing.T) {
	svc := newSampleService(t)
	ctx := context.Background()

	bases, err := svc.Bases(ctx)
	require.NoError(t, err)
	assert.Len(t, bases, 5)
	for _, b := range bases {
		assert.NotEqual(t, "phodong", b.ID)
	}

	_, err = svc.Base(ctx, "phodong")
	assert.ErrorIs(t, err, ErrNotFound)

	b, err := svc.Base(ctx, "rumtek")
	require.NoError(t, err)
	assert.InDelta(t, 27.2886, b.Lat, 1e-9)
}

func TestFacets(t *testing.T) {
	svc := newSampleService(t)

	f, err := svc.Facets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Kagyu", "Nyingma"}, f[CollectionMonasteries]["tradition"])
	assert.Equal(t, []string{"Monsoon", "Spring", "Winter"}, f[CollectionEvents]["season"])
	assert.Equal(t, []string{"18th Century", "19th Century", "20th Century"}, f[CollectionArchives]["century"])
}

func TestLoadFailureIsRetried(t *testing.T) {
	src := &flakySource{inner: SampleSource()}
	src.failures.Store(1)
	svc := NewService(src, nil)
	ctx := context.Background()

	_, err := svc.Monasteries(ctx, filter.Criteria{})
	require.ErrorIs(t, err, ErrUnavailable)

	l, err := svc.Monasteries(ctx, filter.Criteria{})
	require.NoError(t, err)
	assert.Len(t, l.Items, 6)

	_, err = svc.Monasteries(ctx, filter.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load(), "successful load is cached")
}

func TestMalformedCollectionIsUnavailable(t *testing.T) {
	svc := NewService(FSSource{FS: fstest.MapFS{"events.json": {Data: []byte(`{"not":"a list"}`)}}}, nil)

	_, err := svc.Events(context.Background(), filter.Criteria{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestYAMLCollection(t *testing.T) {
	src := FSSource{FS: fstest.MapFS{
		"events.yaml": {Data: []byte("- id: losar\n  name: Losar\n  month: Feb\n  season: Winter\n  type: Festival\n  location: Rumtek\n")},
	}}
	svc := NewService(src, nil)

	l, err := svc.Events(context.Background(), filter.Criteria{})
	require.NoError(t, err)
	require.Len(t, l.Items, 1)
	assert.Equal(t, "Losar", l.Items[0].Name)
}

func TestCalendarExport(t *testing.T) {
	svc := NewService(SampleSource(), nil).(*service)
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	data, err := svc.Calendar(context.Background(), 2026, filter.Criteria{}.With("type", "Festival"))
	require.NoError(t, err)

	ics := string(data)
	assert.Contains(t, ics, "BEGIN:VCALENDAR")
	assert.Equal(t, 2, strings.Count(ics, "BEGIN:VEVENT"))
	assert.Contains(t, ics, "SUMMARY:Losar Festival")
	assert.Contains(t, ics, "DTSTART;VALUE=DATE:20260201")
	assert.Contains(t, ics, "UID:pang-lhabsol-2026@heritage.local")
	assert.NotContains(t, ics, "Bumchu")
}

func TestCalendarEmpty(t *testing.T) {
	svc := newSampleService(t)

	data, err := svc.Calendar(context.Background(), 2026, filter.Criteria{Text: "nothing-matches"})
	require.NoError(t, err)
	assert.Contains(t, string(data), "BEGIN:VCALENDAR")
	assert.NotContains(t, string(data), "BEGIN:VEVENT")
}

func TestParseMonth(t *testing.T) {
	for in, want := range map[string]time.Month{"February": time.February, "feb": time.February, " DECEMBER ": time.December} {
		got, ok := parseMonth(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "Fe", "Losar month"} {
		_, ok := parseMonth(in)
		assert.False(t, ok, in)
	}
}
