package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"heritage/internal/catalog"
	"heritage/internal/clients"
	"heritage/internal/planner"
	"heritage/internal/platform/config"
)

// fakeMaps serves the places and directions APIs under /place and
// /directions.
func fakeMaps(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/place/nearbysearch/json", func(w http.ResponseWriter, r *http.Request) {
		typ := r.URL.Query().Get("type")
		fmt.Fprintf(w, `{"status":"OK","results":[{"place_id":"%s-1","name":"Nearby %s","geometry":{"location":{"lat":27.3,"lng":88.6}},"types":["%s"]}]}`, typ, typ, typ)
	})
	mux.HandleFunc("/directions/json", func(w http.ResponseWriter, r *http.Request) {
		legs := 1
		if wp := r.URL.Query().Get("waypoints"); wp != "" {
			legs += strings.Count(wp, "|")
		}
		parts := make([]string, legs)
		for i := range parts {
			parts[i] = `{"distance":{"value":1500},"duration":{"value":300}}`
		}
		fmt.Fprintf(w, `{"status":"OK","routes":[{"legs":[%s],"waypoint_order":[]}]}`, strings.Join(parts, ","))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type stack struct {
	gateway *httptest.Server
}

func newStack(t *testing.T) *stack {
	t.Helper()
	logger := zap.NewNop()

	catalogRouter := chi.NewRouter()
	catalog.NewHandler(catalog.NewService(catalog.SampleSource(), logger)).Routes(catalogRouter)
	catalogSrv := httptest.NewServer(catalogRouter)
	t.Cleanup(catalogSrv.Close)

	maps := fakeMaps(t)
	sessions := planner.NewSessions(planner.Deps{
		Bases:      clients.NewCatalogClient(catalogSrv.URL, clients.Options{}),
		Places:     clients.NewPlacesClient(maps.URL+"/place", "test-key", clients.Options{}),
		Directions: clients.NewDirectionsClient(maps.URL+"/directions", "test-key", clients.Options{}),
		Logger:     logger,
	}, planner.Options{}, 0)
	plannerRouter := chi.NewRouter()
	planner.NewHandler(sessions).Routes(plannerRouter)
	plannerSrv := httptest.NewServer(plannerRouter)
	t.Cleanup(plannerSrv.Close)

	h, err := New(config.GatewayConfig{CatalogURL: catalogSrv.URL, PlannerURL: plannerSrv.URL}, logger)
	require.NoError(t, err)
	gw := httptest.NewServer(h)
	t.Cleanup(gw.Close)
	return &stack{gateway: gw}
}

func (s *stack) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.gateway.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestEndToEndItinerary(t *testing.T) {
	s := newStack(t)

	var bases struct {
		Items []catalog.Location `json:"items"`
	}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/catalog/bases", nil, &bases))
	require.NotEmpty(t, bases.Items)

	var sess struct {
		ID         string                `json:"id"`
		State      planner.State         `json:"state"`
		Candidates []planner.Candidate   `json:"candidates"`
		Stops      []planner.Stop        `json:"stops"`
		Route      *planner.RouteSummary `json:"route"`
	}
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/planner/sessions", nil, &sess))
	require.NotEmpty(t, sess.ID)
	prefix := "/api/v1/planner/sessions/" + sess.ID

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, prefix+"/base", map[string]string{"base_id": "rumtek"}, &sess))
	assert.Equal(t, planner.StateNearbyReady, sess.State)
	require.Len(t, sess.Candidates, len(planner.Categories))
	assert.Equal(t, "tourist_attraction-1", sess.Candidates[0].ID)

	for _, id := range []string{"tourist_attraction-1", "restaurant-1", "natural_feature-1"} {
		require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, prefix+"/stops", map[string]string{"candidate_id": id}, &sess))
	}
	require.Len(t, sess.Stops, 3)
	require.NotNil(t, sess.Route)
	assert.Equal(t, "3.0 km", sess.Route.Distance)
	assert.Equal(t, "10 minutes", sess.Route.Duration)

	var saved planner.Itinerary
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, prefix+"/save", map[string]string{"name": "Rumtek day"}, &saved))
	assert.Equal(t, "rumtek", saved.BaseMonastery)
	assert.Equal(t, "3.0 km", saved.TotalDistance)

	var listed struct {
		Items []planner.Itinerary `json:"items"`
	}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/planner/itineraries", nil, &listed))
	require.Len(t, listed.Items, 1)
	assert.Equal(t, "Rumtek day", listed.Items[0].Name)
}

func TestEndToEndUnknownBase(t *testing.T) {
	s := newStack(t)

	var sess struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/planner/sessions", nil, &sess))

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	status := s.do(t, http.MethodPut, "/api/v1/planner/sessions/"+sess.ID+"/base", map[string]string{"base_id": "phodong"}, &body)
	assert.Equal(t, http.StatusNotFound, status, "bases without coordinates are not selectable")
	assert.Equal(t, "base_not_found", body.Error.Code)
}
