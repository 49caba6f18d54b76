// internal/clients/places_client.go
package clients

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"heritage/internal/planner"
)

// PlacesClient calls the Google Places Nearby Search API.
type PlacesClient struct {
	base
	apiKey string
}

func NewPlacesClient(baseURL, apiKey string, opts Options) *PlacesClient {
	return &PlacesClient{base: newBase(baseURL, "places", opts), apiKey: apiKey}
}

type placesResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		PlaceID  string `json:"place_id"`
		Name     string `json:"name"`
		Vicinity string `json:"vicinity"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		Types            []string `json:"types"`
		Rating           float64  `json:"rating"`
		UserRatingsTotal int      `json:"user_ratings_total"`
	} `json:"results"`
}

func latLng(p planner.LatLng) string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng, 'f', -1, 64)
}

// NearbySearch returns the places of one type around req.Center.
// ZERO_RESULTS is an empty result, any other non-OK status an error.
func (c *PlacesClient) NearbySearch(ctx context.Context, req planner.NearbyRequest) ([]planner.Candidate, error) {
	ctx, span := c.tracer.Start(ctx, "places.nearby_search", trace.WithAttributes(
		attribute.String("category", req.Category),
		attribute.Int("radius", req.Radius),
	))
	defer span.End()

	q := url.Values{}
	q.Set("location", latLng(req.Center))
	q.Set("radius", strconv.Itoa(req.Radius))
	q.Set("type", req.Category)
	q.Set("key", c.apiKey)

	var body placesResponse
	if _, err := c.getJSON(ctx, span, c.baseURL+"/nearbysearch/json?"+q.Encode(), &body); err != nil {
		return nil, fail(span, fmt.Errorf("nearby search %s: %w", req.Category, err))
	}
	switch body.Status {
	case "OK":
	case "ZERO_RESULTS":
		return []planner.Candidate{}, nil
	default:
		return nil, fail(span, fmt.Errorf("nearby search %s: status %s: %s", req.Category, body.Status, body.ErrorMessage))
	}

	out := make([]planner.Candidate, 0, len(body.Results))
	for _, r := range body.Results {
		out = append(out, planner.Candidate{
			ID:               r.PlaceID,
			Name:             r.Name,
			Vicinity:         r.Vicinity,
			Location:         planner.LatLng{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
			Types:            r.Types,
			Rating:           r.Rating,
			UserRatingsTotal: r.UserRatingsTotal,
		})
	}
	span.SetAttributes(attribute.Int("results", len(out)))
	return out, nil
}
