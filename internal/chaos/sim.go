// internal/chaos/sim.go
package chaos

import (
	"context"
	"fmt"
	"math"

	"heritage/internal/planner"
)

// SimPlaces returns PerCategory deterministic places around the search
// center so experiments can run without provider credentials.
type SimPlaces struct {
	PerCategory int
}

func (s SimPlaces) NearbySearch(ctx context.Context, req planner.NearbyRequest) ([]planner.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := s.PerCategory
	if n <= 0 {
		n = 3
	}
	out := make([]planner.Candidate, 0, n)
	for i := 0; i < n; i++ {
		offset := float64(i+1) * 0.01
		out = append(out, planner.Candidate{
			ID:       fmt.Sprintf("sim-%s-%d", req.Category, i),
			Name:     fmt.Sprintf("Simulated %s %d", req.Category, i+1),
			Location: planner.LatLng{Lat: req.Center.Lat + offset, Lng: req.Center.Lng - offset},
			Types:    []string{req.Category},
		})
	}
	return out, nil
}

// SimDirections routes in straight lines at SpeedKMH.
type SimDirections struct {
	SpeedKMH float64
}

func (s SimDirections) Route(ctx context.Context, req planner.RouteRequest) (planner.Route, error) {
	if err := ctx.Err(); err != nil {
		return planner.Route{}, err
	}
	speed := s.SpeedKMH
	if speed <= 0 {
		speed = 30
	}
	points := append([]planner.LatLng{req.Origin}, req.Waypoints...)
	points = append(points, req.Destination)

	route := planner.Route{WaypointOrder: make([]int, len(req.Waypoints))}
	for i := range route.WaypointOrder {
		route.WaypointOrder[i] = i
	}
	for i := 1; i < len(points); i++ {
		meters := haversine(points[i-1], points[i])
		route.Legs = append(route.Legs, planner.Leg{
			DistanceMeters:  int(math.Round(meters)),
			DurationSeconds: int(math.Round(meters / (speed * 1000 / 3600))),
		})
	}
	return route, nil
}

const earthRadiusMeters = 6371000

func haversine(a, b planner.LatLng) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(b.Lat - a.Lat)
	dLng := rad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(a.Lat))*math.Cos(rad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
