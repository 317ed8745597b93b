package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neotogether/neotogether/internal/auth"
	"github.com/neotogether/neotogether/internal/monitoring"
)

func testServer() *Server {
	return New("0", true, Deps{
		Health: monitoring.NewHealthChecker("neo-together", "test"),
		TokenOpts: auth.TokenOptions{
			Secret: []byte("test-secret"),
			Alg:    "HS256",
			TTL:    time.Hour,
		},
	})
}

func TestHealthEndpoint(t *testing.T) {
	w := httptest.NewRecorder()
	testServer().Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "neo-together", body["service"])
}

func TestApprovedNamesEndpoint(t *testing.T) {
	w := httptest.NewRecorder()
	testServer().Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/approved-names", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Names []string `json:"names"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Names)
	assert.Contains(t, body.Names, "Alice")
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	server := testServer()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/users/me"},
		{http.MethodPatch, "/users/me/availability"},
		{http.MethodGet, "/availability"},
		{http.MethodGet, "/interests"},
		{http.MethodGet, "/discover/locations"},
		{http.MethodGet, "/discover/matches"},
		{http.MethodGet, "/groups"},
		{http.MethodGet, "/groups/join-requests"},
	}
	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.Router().ServeHTTP(w, httptest.NewRequest(route.method, route.path, nil))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	w := httptest.NewRecorder()
	testServer().Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
