package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(svc Service) http.Handler {
	r := chi.NewRouter()
	NewHandler(svc).Routes(r)
	return r
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandleMonasteriesQuery(t *testing.T) {
	h := newTestRouter(NewService(SampleSource(), nil))

	rec := get(t, h, "/monasteries?tradition=Kagyu&q=rumtek")
	require.Equal(t, http.StatusOK, rec.Code)

	var l Listing[Monastery]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &l))
	require.Len(t, l.Items, 1)
	assert.Equal(t, "rumtek", l.Items[0].ID)
	assert.Equal(t, 6, l.Total)
}

func TestHandleMonasteryDetailJoins(t *testing.T) {
	h := newTestRouter(NewService(SampleSource(), nil))

	rec := get(t, h, "/monasteries/rumtek")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Record    Monastery     `json:"record"`
		Events    []Event       `json:"events"`
		Artifacts []ArchiveItem `json:"artifacts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rumtek", body.Record.ID)
	assert.Len(t, body.Events, 2)
	require.Len(t, body.Artifacts, 1)
	assert.Equal(t, "rumtek-kangyur", body.Artifacts[0].ID)

	rec = get(t, h, "/events/bumchu")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"monastery_names":["Tashiding Monastery"]`)
}

func TestHandleEmptyListingRendersItemsArray(t *testing.T) {
	h := newTestRouter(NewService(SampleSource(), nil))

	rec := get(t, h, "/archives?category=Painting")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[],"total":4,"message":"No archive items match the current search or filters."}`, rec.Body.String())
}

func TestHandleNotFoundFallback(t *testing.T) {
	h := newTestRouter(NewService(SampleSource(), nil))

	rec := get(t, h, "/monasteries/lhasa")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body struct {
		Error struct {
			Code     string `json:"code"`
			Fallback string `json:"fallback"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body.Error.Code)
	assert.Equal(t, "/monasteries", body.Error.Fallback)
}

func TestHandleUnavailableIsRetryable(t *testing.T) {
	h := newTestRouter(NewService(FSSource{FS: fstest.MapFS{}}, nil))

	rec := get(t, h, "/events")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"retryable":true`)
}

func TestHandleCalendar(t *testing.T) {
	h := newTestRouter(NewService(SampleSource(), nil))

	rec := get(t, h, "/events.ics?year=2027&season=Spring")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "DTSTART;VALUE=DATE:20270301")

	rec = get(t, h, "/events.ics?year=soon")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleTour(t *testing.T) {
	h := newTestRouter(NewService(SampleSource(), nil))

	rec := get(t, h, "/tours/rumtek")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"caption":"Rumtek Monastery - Virtual Tour"`)

	rec = get(t, h, "/tours/dubdi")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"fallback":"/tours"`)
}

func TestHandleBase(t *testing.T) {
	h := newTestRouter(NewService(SampleSource(), nil))

	rec := get(t, h, "/bases/enchey")
	require.Equal(t, http.StatusOK, rec.Code)

	var loc Location
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loc))
	assert.Equal(t, "Enchey Monastery", loc.Name)
}
