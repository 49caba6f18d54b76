package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heritage/internal/planner"
)

func TestPlacesNearbySearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nearbysearch/json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "27.2886,88.5615", q.Get("location"))
		assert.Equal(t, "25000", q.Get("radius"))
		assert.Equal(t, "restaurant", q.Get("type"))
		assert.Equal(t, "secret", q.Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","results":[
			{"place_id":"p1","name":"Tashi Delek","vicinity":"MG Marg","geometry":{"location":{"lat":27.33,"lng":88.61}},"types":["restaurant","food"],"rating":4.3,"user_ratings_total":120}
		]}`))
	}))
	defer srv.Close()

	c := NewPlacesClient(srv.URL+"/", "secret", Options{})
	got, err := c.NearbySearch(context.Background(), planner.NearbyRequest{
		Center: planner.LatLng{Lat: 27.2886, Lng: 88.5615}, Radius: 25000, Category: "restaurant",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, planner.Candidate{
		ID: "p1", Name: "Tashi Delek", Vicinity: "MG Marg",
		Location: planner.LatLng{Lat: 27.33, Lng: 88.61},
		Types:    []string{"restaurant", "food"}, Rating: 4.3, UserRatingsTotal: 120,
	}, got[0])
}

func TestPlacesStatuses(t *testing.T) {
	status := "ZERO_RESULTS"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"` + status + `","error_message":"quota","results":[]}`))
	}))
	defer srv.Close()
	c := NewPlacesClient(srv.URL, "k", Options{})
	req := planner.NearbyRequest{Category: "shopping_mall", Radius: 1}

	got, err := c.NearbySearch(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, got)

	status = "OVER_QUERY_LIMIT"
	_, err = c.NearbySearch(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OVER_QUERY_LIMIT")
}

func TestPlacesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewPlacesClient(srv.URL, "k", Options{}).NearbySearch(context.Background(), planner.NearbyRequest{})
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestDirectionsRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "27.1,88.1", q.Get("origin"))
		assert.Equal(t, "27.4,88.4", q.Get("destination"))
		assert.Equal(t, "optimize:true|27.2,88.2|27.3,88.3", q.Get("waypoints"))
		assert.Equal(t, "driving", q.Get("mode"))
		_, _ = w.Write([]byte(`{"status":"OK","routes":[{"waypoint_order":[1,0],"legs":[
			{"distance":{"value":1000},"duration":{"value":60}},
			{"distance":{"value":2000},"duration":{"value":120}},
			{"distance":{"value":3000},"duration":{"value":180}}
		]}]}`))
	}))
	defer srv.Close()

	c := NewDirectionsClient(srv.URL, "k", Options{})
	route, err := c.Route(context.Background(), planner.RouteRequest{
		Origin:            planner.LatLng{Lat: 27.1, Lng: 88.1},
		Destination:       planner.LatLng{Lat: 27.4, Lng: 88.4},
		Waypoints:         []planner.LatLng{{Lat: 27.2, Lng: 88.2}, {Lat: 27.3, Lng: 88.3}},
		OptimizeWaypoints: true,
		TravelMode:        planner.TravelModeDriving,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, route.WaypointOrder)
	require.Len(t, route.Legs, 3)
	assert.Equal(t, "6.0 km", planner.Summarize(route).Distance)
}

func TestDirectionsFailures(t *testing.T) {
	body := `{"status":"NOT_FOUND","routes":[]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("waypoints"))
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()
	c := NewDirectionsClient(srv.URL, "k", Options{})
	req := planner.RouteRequest{Origin: planner.LatLng{Lat: 1, Lng: 1}, Destination: planner.LatLng{Lat: 2, Lng: 2}}

	_, err := c.Route(context.Background(), req)
	assert.ErrorContains(t, err, "NOT_FOUND")

	body = `{"status":"OK","routes":[]}`
	_, err = c.Route(context.Background(), req)
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestCatalogClientBase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bases/rumtek":
			_, _ = w.Write([]byte(`{"id":"rumtek","name":"Rumtek Monastery","location":"East Sikkim","lat":27.2886,"lng":88.5615}`))
		case "/bases":
			_, _ = w.Write([]byte(`{"items":[{"id":"rumtek","name":"Rumtek Monastery","lat":27.2886,"lng":88.5615}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":"not_found"}}`))
		}
	}))
	defer srv.Close()
	c := NewCatalogClient(srv.URL, Options{})

	b, err := c.Base(context.Background(), "rumtek")
	require.NoError(t, err)
	assert.Equal(t, planner.Base{ID: "rumtek", Name: "Rumtek Monastery", Location: planner.LatLng{Lat: 27.2886, Lng: 88.5615}}, b)

	_, err = c.Base(context.Background(), "lhasa")
	assert.ErrorIs(t, err, planner.ErrBaseNotFound)
	assert.NotErrorIs(t, err, planner.ErrBaseUnavailable)

	bases, err := c.Bases(context.Background())
	require.NoError(t, err)
	assert.Len(t, bases, 1)
}

func TestRateLimiterHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS"}`))
	}))
	defer srv.Close()
	c := NewPlacesClient(srv.URL, "k", Options{RateLimit: 0.001, Burst: 1})

	_, err := c.NearbySearch(context.Background(), planner.NearbyRequest{})
	require.NoError(t, err, "burst allows the first call")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.NearbySearch(ctx, planner.NearbyRequest{})
	assert.ErrorContains(t, err, "rate limit")
}

func TestCatalogClientBaseUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"code":"unavailable","retryable":true}}`))
	}))
	c := NewCatalogClient(srv.URL, Options{})

	_, err := c.Base(context.Background(), "rumtek")
	assert.ErrorIs(t, err, planner.ErrBaseUnavailable)
	assert.NotErrorIs(t, err, planner.ErrBaseNotFound)

	srv.Close()
	_, err = c.Base(context.Background(), "rumtek")
	assert.ErrorIs(t, err, planner.ErrBaseUnavailable, "unreachable catalog")
}
