// internal/clients/directions_client.go
package clients

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"heritage/internal/planner"
)

var ErrNoRoute = errors.New("directions returned no route")

// DirectionsClient calls the Google Directions API.
type DirectionsClient struct {
	base
	apiKey string
}

func NewDirectionsClient(baseURL, apiKey string, opts Options) *DirectionsClient {
	return &DirectionsClient{base: newBase(baseURL, "directions", opts), apiKey: apiKey}
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		Legs []struct {
			Distance struct {
				Value int `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value int `json:"value"`
			} `json:"duration"`
		} `json:"legs"`
		WaypointOrder []int `json:"waypoint_order"`
	} `json:"routes"`
}

// Route requests a route through req and returns the legs of the first
// route offered.
func (c *DirectionsClient) Route(ctx context.Context, req planner.RouteRequest) (planner.Route, error) {
	ctx, span := c.tracer.Start(ctx, "directions.route", trace.WithAttributes(
		attribute.Int("waypoints", len(req.Waypoints)),
		attribute.Bool("optimize", req.OptimizeWaypoints),
	))
	defer span.End()

	q := url.Values{}
	q.Set("origin", latLng(req.Origin))
	q.Set("destination", latLng(req.Destination))
	if len(req.Waypoints) > 0 {
		parts := make([]string, 0, len(req.Waypoints)+1)
		if req.OptimizeWaypoints {
			parts = append(parts, "optimize:true")
		}
		for _, w := range req.Waypoints {
			parts = append(parts, latLng(w))
		}
		q.Set("waypoints", strings.Join(parts, "|"))
	}
	mode := req.TravelMode
	if mode == "" {
		mode = planner.TravelModeDriving
	}
	q.Set("mode", mode)
	q.Set("key", c.apiKey)

	var body directionsResponse
	if _, err := c.getJSON(ctx, span, c.baseURL+"/json?"+q.Encode(), &body); err != nil {
		return planner.Route{}, fail(span, fmt.Errorf("directions: %w", err))
	}
	if body.Status != "OK" {
		return planner.Route{}, fail(span, fmt.Errorf("directions: status %s: %s", body.Status, body.ErrorMessage))
	}
	if len(body.Routes) == 0 {
		return planner.Route{}, fail(span, ErrNoRoute)
	}

	first := body.Routes[0]
	route := planner.Route{
		Legs:          make([]planner.Leg, 0, len(first.Legs)),
		WaypointOrder: first.WaypointOrder,
	}
	for _, leg := range first.Legs {
		route.Legs = append(route.Legs, planner.Leg{
			DistanceMeters:  leg.Distance.Value,
			DurationSeconds: leg.Duration.Value,
		})
	}
	span.SetAttributes(attribute.Int("legs", len(route.Legs)))
	return route, nil
}
