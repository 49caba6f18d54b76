package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeOptionalJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}

	var v body
	r := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	require.Nil(t, DecodeOptionalJSON(r, &v))
	assert.Empty(t, v.Name)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"day one"}`))
	require.Nil(t, DecodeOptionalJSON(r, &v))
	assert.Equal(t, "day one", v.Name)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	e := DecodeOptionalJSON(r, &v)
	require.NotNil(t, e)
	assert.Equal(t, http.StatusBadRequest, e.Status)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"x"}`))
	assert.NotNil(t, DecodeOptionalJSON(r, &v), "unknown fields are rejected")
}

func TestDecodeJSONRequiresBody(t *testing.T) {
	var v struct{}
	r := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	e := DecodeJSON(r, &v)
	require.NotNil(t, e)
	assert.Equal(t, "invalid_request", e.Code)
}
