package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heritage/internal/planner"
	"heritage/internal/platform/config"
	"heritage/pkg/eventstore"
)

func itinerary(name string, stops ...string) planner.Itinerary {
	it := planner.Itinerary{
		ID:            "id-" + name,
		Name:          name,
		BaseMonastery: "rumtek",
		Base:          &planner.Base{ID: "rumtek", Name: "Rumtek Monastery", Location: planner.LatLng{Lat: 27.2886, Lng: 88.5615}},
		Stops:         []planner.Stop{},
		TotalDistance: "12.3 km",
		TotalDuration: "30 minutes",
		CreatedAt:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	for i, id := range stops {
		it.Stops = append(it.Stops, planner.Stop{ID: id, Name: "Stop " + id, Lat: 27 + float64(i)/7, Lng: 88.123456789, Type: "restaurant", Duration: 60})
	}
	return it
}

// exerciseStore checks the append-only contract shared by every backend.
func exerciseStore(t *testing.T, s planner.Store) {
	t.Helper()
	ctx := context.Background()

	items, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	first := itinerary("Monastery Trail", "a", "b")
	second := itinerary("Festival Day", "c")
	require.NoError(t, s.Append(ctx, first))
	require.NoError(t, s.Append(ctx, second))

	items, err = s.List(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff([]planner.Itinerary{first, second}, items); diff != "" {
		t.Errorf("stored itineraries mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, &planner.MemoryStore{})
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "monastery_itineraries.json")
	exerciseStore(t, NewFileStore(path))

	reopened, err := NewFileStore(path).List(context.Background())
	require.NoError(t, err)
	assert.Len(t, reopened, 2)

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".itineraries-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestFileStoreConcurrentAppends(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "saved.json"))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Append(ctx, itinerary(fmt.Sprintf("trip-%d", i), "x")))
		}()
	}
	wg.Wait()

	items, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 20)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))
	s := NewFileStore(path)

	_, err := s.List(context.Background())
	assert.Error(t, err)
	assert.Error(t, s.Append(context.Background(), itinerary("x", "a")), "corrupt list is not overwritten")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{broken", string(data))
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	exerciseStore(t, s)
}

func TestSQLiteStoreOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "itineraries.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(context.Background(), itinerary("Monastery Trail", "a")))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	items, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Monastery Trail", items[0].Name)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestEventStore(t *testing.T) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getenv("PGHOST", "localhost"), getenv("PGPORT", "5432"),
		getenv("PGUSER", "user"), getenv("PGPASSWORD", "password"),
		getenv("PGDATABASE", "testdb"))
	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	if err := db.Ping(); err != nil {
		t.Skipf("skipping: could not connect to postgres: %v", err)
	}

	es := eventstore.New(db)
	require.NoError(t, es.Migrate(context.Background()))
	_, err = db.Exec(`DELETE FROM events WHERE stream_id = $1`, savedStream)
	require.NoError(t, err)

	exerciseStore(t, NewEventStore(es))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, closeFn, err := Open(ctx, config.StoreConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &planner.MemoryStore{}, s)
	require.NoError(t, closeFn())

	s, closeFn, err = Open(ctx, config.StoreConfig{Driver: "file", Path: filepath.Join(t.TempDir(), "saved.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)
	require.NoError(t, closeFn())

	s, closeFn, err = Open(ctx, config.StoreConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, closeFn())

	_, closeFn, err = Open(ctx, config.StoreConfig{Driver: "redis"})
	assert.ErrorContains(t, err, `unknown itinerary store "redis"`)
	assert.NotNil(t, closeFn)
}
