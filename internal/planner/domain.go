// internal/planner/domain.go
package planner

import (
	"errors"
	"time"
)

var (
	ErrCandidateNotFound = errors.New("candidate not found in current search results")
	ErrDuplicateStop     = errors.New("stop already in itinerary")
	ErrStopNotFound      = errors.New("stop not found")
	ErrInvalidOrder      = errors.New("order must be a permutation of the current stops")
	ErrInvalidStop       = errors.New("invalid stop")
	ErrTooFewStops       = errors.New("a route needs at least two stops")
	ErrNameRequired      = errors.New("itinerary name is required")
	ErrNoStops           = errors.New("itinerary has no stops")
	ErrRouteUnavailable  = errors.New("route could not be calculated")
	// ErrSuperseded is returned when a newer search or route request
	// started while this one was in flight. Its results were discarded.
	ErrSuperseded = errors.New("superseded by a newer request")
)

// Nearby-search categories, searched in this order.
var Categories = []string{
	"tourist_attraction",
	"restaurant",
	"shopping_mall",
	"amusement_park",
	"natural_feature",
	"point_of_interest",
}

const (
	DefaultSearchRadius  = 25000
	DefaultMaxCandidates = 20
	DefaultStopMinutes   = 60
	DefaultStopType      = "point_of_interest"
	TravelModeDriving    = "driving"
	BaseZoom             = 12
)

// State is the planner's position in the search and routing lifecycle.
type State string

const (
	StateNoBaseSelected  State = "no_base_selected"
	StateSearchingNearby State = "searching_nearby"
	StateNearbyReady     State = "nearby_ready"
	StateRouteComputing  State = "route_computing"
	StateRouteReady      State = "route_ready"
)

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Base is the monastery nearby searches are centered on.
type Base struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location LatLng `json:"location"`
}

// Candidate is a nearby place returned by the places provider.
type Candidate struct {
	ID               string   `json:"place_id"`
	Name             string   `json:"name"`
	Vicinity         string   `json:"vicinity,omitempty"`
	Location         LatLng   `json:"location"`
	Types            []string `json:"types,omitempty"`
	Rating           float64  `json:"rating,omitempty"`
	UserRatingsTotal int      `json:"user_ratings_total,omitempty"`
}

// Stop is one waypoint of the itinerary. Duration is in minutes.
type Stop struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Type     string  `json:"type"`
	Duration int     `json:"duration"`
}

func (s Stop) Location() LatLng {
	return LatLng{Lat: s.Lat, Lng: s.Lng}
}

func stopFromCandidate(c Candidate, minutes int) Stop {
	typ := DefaultStopType
	if len(c.Types) > 0 && c.Types[0] != "" {
		typ = c.Types[0]
	}
	return Stop{
		ID:       c.ID,
		Name:     c.Name,
		Lat:      c.Location.Lat,
		Lng:      c.Location.Lng,
		Type:     typ,
		Duration: minutes,
	}
}

// RouteSummary aggregates the legs of a computed route.
type RouteSummary struct {
	DistanceMeters  int     `json:"distance_meters"`
	DurationSeconds int     `json:"duration_seconds"`
	DistanceKM      float64 `json:"distance_km"`
	DurationMinutes int     `json:"duration_minutes"`
	Distance        string  `json:"distance"`
	Duration        string  `json:"duration"`
	// WaypointOrder is the provider's suggested order of the interior
	// stops. The stop list itself is not reordered.
	WaypointOrder []int `json:"waypoint_order,omitempty"`
}

// Itinerary is a saved snapshot of a planning session.
type Itinerary struct {
	ID            string        `json:"id,omitempty"`
	Name          string        `json:"name"`
	BaseMonastery string        `json:"baseMonastery"`
	Base          *Base         `json:"base,omitempty"`
	Stops         []Stop        `json:"stops"`
	TotalDistance string        `json:"totalDistance"`
	TotalDuration string        `json:"totalDuration"`
	Route         *RouteSummary `json:"route,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// Clone returns a deep copy of the itinerary.
func (it Itinerary) Clone() Itinerary {
	cp := it
	cp.Stops = append([]Stop{}, it.Stops...)
	if it.Base != nil {
		b := *it.Base
		cp.Base = &b
	}
	if it.Route != nil {
		r := it.Route.clone()
		cp.Route = &r
	}
	return cp
}

func (r RouteSummary) clone() RouteSummary {
	cp := r
	if r.WaypointOrder != nil {
		cp.WaypointOrder = append([]int{}, r.WaypointOrder...)
	}
	return cp
}

// Snapshot is a read-only view of a planner.
type Snapshot struct {
	State      State         `json:"state"`
	Base       *Base         `json:"base,omitempty"`
	Candidates []Candidate   `json:"candidates"`
	Stops      []Stop        `json:"stops"`
	Route      *RouteSummary `json:"route,omitempty"`
	Map        MapState      `json:"map"`
}
