// internal/clients/catalog_client.go
package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"heritage/internal/catalog"
	"heritage/internal/planner"
)

// CatalogClient resolves planner bases from the catalog service.
type CatalogClient struct {
	base
}

func NewCatalogClient(baseURL string, opts Options) *CatalogClient {
	return &CatalogClient{base: newBase(baseURL, "catalog", opts)}
}

// Base looks up a monastery with coordinates. Unknown or unlocated
// monasteries yield planner.ErrBaseNotFound, any other failure
// planner.ErrBaseUnavailable.
func (c *CatalogClient) Base(ctx context.Context, id string) (planner.Base, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.base", trace.WithAttributes(attribute.String("base.id", id)))
	defer span.End()

	var loc catalog.Location
	status, err := c.getJSON(ctx, span, fmt.Sprintf("%s/bases/%s", c.baseURL, url.PathEscape(id)), &loc)
	if status == http.StatusNotFound {
		return planner.Base{}, fmt.Errorf("monastery %q: %w", id, planner.ErrBaseNotFound)
	}
	if err != nil {
		return planner.Base{}, fail(span, fmt.Errorf("catalog base %q: %w: %w", id, planner.ErrBaseUnavailable, err))
	}
	return planner.Base{
		ID:       loc.ID,
		Name:     loc.Name,
		Location: planner.LatLng{Lat: loc.Lat, Lng: loc.Lng},
	}, nil
}

// Bases lists every monastery usable as a planner base.
func (c *CatalogClient) Bases(ctx context.Context) ([]catalog.Location, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.bases")
	defer span.End()

	var body struct {
		Items []catalog.Location `json:"items"`
	}
	if _, err := c.getJSON(ctx, span, c.baseURL+"/bases", &body); err != nil {
		return nil, fail(span, fmt.Errorf("catalog bases: %w", err))
	}
	return body.Items, nil
}
