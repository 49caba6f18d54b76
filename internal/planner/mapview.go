// internal/planner/mapview.go
package planner

import "sync"

type MarkerKind string

const (
	MarkerBase      MarkerKind = "base"
	MarkerCandidate MarkerKind = "candidate"
)

type Marker struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Position LatLng     `json:"position"`
	Kind     MarkerKind `json:"kind"`
}

// MapState is the view model rendered by the client map.
type MapState struct {
	Center  LatLng   `json:"center"`
	Zoom    int      `json:"zoom"`
	Markers []Marker `json:"markers"`
}

// Sikkim overview, shown before a base is selected.
var defaultCenter = LatLng{Lat: 27.325, Lng: 88.612}

const defaultZoom = 10

// MapView is a MapAdapter that records the map state for clients.
type MapView struct {
	mu    sync.Mutex
	state MapState
}

func NewMapView() *MapView {
	return &MapView{state: MapState{Center: defaultCenter, Zoom: defaultZoom, Markers: []Marker{}}}
}

func (v *MapView) Recenter(center LatLng, zoom int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Center, v.state.Zoom = center, zoom
}

func (v *MapView) ClearMarkers() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Markers = []Marker{}
}

func (v *MapView) AddMarker(m Marker) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Markers = append(v.state.Markers, m)
}

// State returns a copy of the current map state.
func (v *MapView) State() MapState {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.state
	s.Markers = append([]Marker{}, v.state.Markers...)
	return s
}
