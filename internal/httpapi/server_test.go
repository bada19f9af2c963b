package httpapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"metcm_relay/internal/models"
	"metcm_relay/internal/query"
	"metcm_relay/internal/store"
	"metcm_relay/internal/zones"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, loaded bool) *Server {
	t.Helper()
	s := store.New(0)
	if loaded {
		b := models.Bulletin{Header: models.Header{StationID: "METCM1"}}
		b.Zones[12] = "1245603726230540"
		b.Zones[20] = "20XX003726230540"
		s.Put(b)
	}
	return NewServer(":0", s, query.NewService(zones.Default(), s, nil))
}

func get(t *testing.T, srv *Server, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealthz(t *testing.T) {
	rec, body := get(t, newTestServer(t, false), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyz(t *testing.T) {
	rec, _ := get(t, newTestServer(t, false), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec, body := get(t, newTestServer(t, true), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", body["status"])
}

func TestLatest(t *testing.T) {
	rec, _ := get(t, newTestServer(t, false), "/v1/bulletins/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body := get(t, newTestServer(t, true), "/v1/bulletins/latest")
	require.Equal(t, http.StatusOK, rec.Code)
	header := body["header"].(map[string]any)
	assert.Equal(t, "METCM1", header["station_id"])
}

func TestZoneQuery(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{name: "decoded", path: "/v1/zones?altitude=5000", wantStatus: http.StatusOK},
		{name: "not an integer", path: "/v1/zones?altitude=high", wantStatus: http.StatusBadRequest},
		{name: "missing altitude", path: "/v1/zones", wantStatus: http.StatusBadRequest},
		{name: "out of range", path: "/v1/zones?altitude=30001", wantStatus: http.StatusNotFound},
		{name: "empty zone", path: "/v1/zones?altitude=100", wantStatus: http.StatusNotFound},
		{name: "corrupt zone", path: "/v1/zones?altitude=13500", wantStatus: http.StatusUnprocessableEntity},
	}

	srv := newTestServer(t, true)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := get(t, srv, tt.path)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestZoneQuery_Body(t *testing.T) {
	rec, body := get(t, newTestServer(t, true), "/v1/zones?altitude=5000")
	require.Equal(t, http.StatusOK, rec.Code)

	weather := body["weather"].(map[string]any)
	assert.Equal(t, "12", weather["zone_number"])
	assert.Equal(t, float64(4560), weather["wind_direction_mils"])
	assert.Equal(t, float64(540), weather["pressure_millibar"])
	assert.Equal(t, float64(1200), body["above_datum_m"])
}

func TestServer_BindAndServe(t *testing.T) {
	srv := newTestServer(t, true)
	srv.httpServer.Addr = "127.0.0.1:0"
	require.NoError(t, srv.Bind())

	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()

	resp, err := http.Get("http://" + srv.Addr().String() + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Shutdown(context.Background()))
	assert.ErrorIs(t, <-done, http.ErrServerClosed)
}

func TestServer_BindConflict(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	srv := newTestServer(t, false)
	srv.httpServer.Addr = busy.Addr().String()
	assert.Error(t, srv.Bind())
	assert.Nil(t, srv.Addr())
	assert.Error(t, srv.Serve())
}
