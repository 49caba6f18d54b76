// internal/planner/route.go
package planner

import (
	"fmt"
	"math"
	"strconv"
)

// routeRequest builds the directions request for stops: first stop as
// origin, last as destination, the rest as waypoints.
func routeRequest(stops []Stop) RouteRequest {
	req := RouteRequest{
		Origin:            stops[0].Location(),
		Destination:       stops[len(stops)-1].Location(),
		Waypoints:         make([]LatLng, 0, len(stops)-2),
		OptimizeWaypoints: true,
		TravelMode:        TravelModeDriving,
	}
	for _, s := range stops[1 : len(stops)-1] {
		req.Waypoints = append(req.Waypoints, s.Location())
	}
	return req
}

// Summarize sums the legs of r.
func Summarize(r Route) RouteSummary {
	var meters, seconds int
	for _, leg := range r.Legs {
		meters += leg.DistanceMeters
		seconds += leg.DurationSeconds
	}
	km := math.Round(float64(meters)/100) / 10
	minutes := int(math.Round(float64(seconds) / 60))

	s := RouteSummary{
		DistanceMeters:  meters,
		DurationSeconds: seconds,
		DistanceKM:      km,
		DurationMinutes: minutes,
		Distance:        strconv.FormatFloat(km, 'f', 1, 64) + " km",
		Duration:        fmt.Sprintf("%d minutes", minutes),
	}
	if len(r.WaypointOrder) > 0 {
		s.WaypointOrder = append([]int{}, r.WaypointOrder...)
	}
	return s
}
