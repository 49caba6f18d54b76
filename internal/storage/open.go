// internal/storage/open.go
package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"heritage/internal/planner"
	"heritage/internal/platform/config"
	"heritage/pkg/eventstore"
)

// Open builds the backend selected by cfg.Driver. The returned close
// function releases any database handle and is never nil.
func Open(ctx context.Context, cfg config.StoreConfig) (planner.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case "", "file":
		return NewFileStore(cfg.Path), noop, nil
	case "memory":
		return &planner.MemoryStore{}, noop, nil
	case "sqlite":
		s, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case "postgres":
		db, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, noop, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, noop, fmt.Errorf("ping postgres: %w", err)
		}
		es := eventstore.New(db)
		if err := es.Migrate(ctx); err != nil {
			db.Close()
			return nil, noop, err
		}
		return NewEventStore(es), db.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown itinerary store %q", cfg.Driver)
}
