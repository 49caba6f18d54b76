// internal/catalog/service.go
package catalog

import (
	"context"

	"heritage/internal/filter"
	"heritage/internal/panorama"
)

// Tour is a monastery with its panorama viewer configuration.
type Tour struct {
	Monastery Monastery             `json:"monastery"`
	Viewer    panorama.ViewerConfig `json:"viewer"`
}

// Facets lists the selectable values of every dimension per collection.
type Facets map[string]map[string][]string

// Service defines the interface for the catalog service.
type Service interface {
	Monasteries(ctx context.Context, c filter.Criteria) (Listing[Monastery], error)
	Monastery(ctx context.Context, id string) (*MonasteryDetail, error)
	Archives(ctx context.Context, c filter.Criteria) (Listing[ArchiveItem], error)
	ArchiveItem(ctx context.Context, id string) (*Detail[ArchiveItem], error)
	Events(ctx context.Context, c filter.Criteria) (Listing[Event], error)
	Event(ctx context.Context, id string) (*EventDetail, error)
	Tours(ctx context.Context, c filter.Criteria) (Listing[Monastery], error)
	Tour(ctx context.Context, id string) (*Tour, error)
	Calendar(ctx context.Context, year int, c filter.Criteria) ([]byte, error)
	Facets(ctx context.Context) (Facets, error)
	Base(ctx context.Context, id string) (*Location, error)
	Bases(ctx context.Context) ([]Location, error)
}
