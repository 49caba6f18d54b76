// internal/planner/ports.go
package planner

import "context"

// BaseLocator resolves a monastery id to a base location.
type BaseLocator interface {
	Base(ctx context.Context, id string) (Base, error)
}

type NearbyRequest struct {
	Center   LatLng
	Radius   int
	Category string
}

// PlacesProvider searches places of one category around a center.
type PlacesProvider interface {
	NearbySearch(ctx context.Context, req NearbyRequest) ([]Candidate, error)
}

type RouteRequest struct {
	Origin            LatLng
	Destination       LatLng
	Waypoints         []LatLng
	OptimizeWaypoints bool
	TravelMode        string
}

// Leg is one origin-to-stop segment of a route.
type Leg struct {
	DistanceMeters  int
	DurationSeconds int
}

type Route struct {
	Legs          []Leg
	WaypointOrder []int
}

// DirectionsProvider computes a single route through ordered waypoints.
type DirectionsProvider interface {
	Route(ctx context.Context, req RouteRequest) (Route, error)
}

// MapAdapter is the map the planner draws on.
type MapAdapter interface {
	Recenter(center LatLng, zoom int)
	ClearMarkers()
	AddMarker(m Marker)
}

// OrderingStrategy reorders the interior stops of an itinerary. The
// result must be a permutation of its input.
type OrderingStrategy interface {
	Order(interior []Stop) []Stop
}

// Store persists saved itineraries as an append-only list.
type Store interface {
	List(ctx context.Context) ([]Itinerary, error)
	Append(ctx context.Context, it Itinerary) error
}

// Notifier delivers user-visible messages. Notify must not block.
type Notifier interface {
	Notify(n Notice)
}
