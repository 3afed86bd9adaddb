package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"curve-planner/internal/config"
)

// testConfig creates a test configuration with default values
func testConfig(t *testing.T) *config.Config {
	cfg := &config.Config{}

	cfg.HTTP.Port = 0
	cfg.HTTP.ReadTimeout = 30 * time.Second
	cfg.HTTP.WriteTimeout = 30 * time.Second
	cfg.HTTP.IdleTimeout = 120 * time.Second
	cfg.HTTP.ShutdownTimeout = 30 * time.Second

	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "console"
	cfg.Logging.Output = "stdout"

	cfg.Planner.Margin = 0.02
	cfg.Planner.Search = "astar"

	cfg.Solver.Degree = 5
	cfg.Solver.Basis = "polynomial"
	cfg.Solver.Steps = 50
	cfg.Solver.Method = "gradient"

	return cfg
}

// testLogger creates a test logger
func testLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

const (
	noObstacles = `{"type":"FeatureCollection","features":[]}`
	wall        = `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"width":0.02},
		 "geometry":{"type":"LineString","coordinates":[[0,-0.3],[0,0.3]]}}]}`
	boxedEnd = `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{},
		 "geometry":{"type":"Polygon","coordinates":[[[0.4,-0.1],[0.6,-0.1],[0.6,0.1],[0.4,0.1],[0.4,-0.1]]]}}]}`
	offsetWall = `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"width":0.02},
		 "geometry":{"type":"LineString","coordinates":[[0.2,-0.3],[0.2,0.3]]}}]}`
)

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestNewServer(t *testing.T) {
	srv := NewServer(testConfig(t), testLogger(t))
	assert.NotNil(t, srv, "Server should be created")
	assert.NotNil(t, srv.Handler())
}

func TestRegisterRoutes(t *testing.T) {
	srv := NewServer(testConfig(t), testLogger(t))
	h := srv.Handler()

	tests := []struct {
		method      string
		path        string
		shouldExist bool
	}{
		{"POST", "/api/v1/route", true},
		{"POST", "/api/v1/graph", true},
		{"POST", "/api/v1/fit", true},
		{"GET", "/health", true},
		{"GET", "/metrics", true},
		{"GET", "/nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}"))
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if tt.shouldExist {
				assert.NotEqual(t, http.StatusNotFound, rr.Code)
			} else {
				assert.Equal(t, http.StatusNotFound, rr.Code)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	h := NewServer(testConfig(t), testLogger(t)).Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "ok", decode[map[string]string](t, rr)["status"])
}

func TestCORSPreflight(t *testing.T) {
	h := NewServer(testConfig(t), testLogger(t)).Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/api/v1/route", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestRoute(t *testing.T) {
	h := NewServer(testConfig(t), testLogger(t)).Handler()

	t.Run("obstacle free", func(t *testing.T) {
		rr := post(t, h, "/api/v1/route", `{"obstacles":`+noObstacles+`}`)
		require.Equal(t, http.StatusOK, rr.Code)

		resp := decode[routeResponse](t, rr)
		assert.True(t, resp.Success)
		assert.Equal(t, []int{0, 1}, resp.Path)
		assert.InDelta(t, 1.0, resp.Length, 1e-12)
		require.Len(t, resp.Points, 2)
		assert.Equal(t, -0.5, resp.Points[0].X)
		assert.Equal(t, 0.5, resp.Points[1].X)
	})

	t.Run("around a wall", func(t *testing.T) {
		rr := post(t, h, "/api/v1/route", `{"obstacles":`+wall+`,"margin":0.05}`)
		require.Equal(t, http.StatusOK, rr.Code)

		resp := decode[routeResponse](t, rr)
		assert.True(t, resp.Success)
		assert.Equal(t, 4, resp.Waypoints)
		assert.Greater(t, len(resp.Path), 2)
		assert.Greater(t, resp.Length, 1.0)
	})

	t.Run("breadth first", func(t *testing.T) {
		rr := post(t, h, "/api/v1/route", `{"obstacles":`+wall+`,"margin":0.05,"search":"bfs"}`)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, decode[routeResponse](t, rr).Success)
	})

	t.Run("unreachable", func(t *testing.T) {
		rr := post(t, h, "/api/v1/route", `{"obstacles":`+boxedEnd+`}`)
		require.Equal(t, http.StatusOK, rr.Code)

		resp := decode[routeResponse](t, rr)
		assert.False(t, resp.Success)
		assert.Empty(t, resp.Path)
		assert.Equal(t, "no path found", resp.Message)
	})
}

func TestBadRequests(t *testing.T) {
	h := NewServer(testConfig(t), testLogger(t)).Handler()

	tests := []struct {
		name string
		path string
		body string
	}{
		{"malformed json", "/api/v1/route", `{"obstacles":`},
		{"missing obstacles", "/api/v1/route", `{}`},
		{"unknown search", "/api/v1/route", `{"obstacles":` + noObstacles + `,"search":"dijkstra"}`},
		{"negative margin", "/api/v1/graph", `{"obstacles":` + noObstacles + `,"margin":-1}`},
		{"deep subdivision", "/api/v1/graph", `{"obstacles":` + noObstacles + `,"subdivisionDepth":30}`},
		{"point geometry", "/api/v1/route", `{"obstacles":{"type":"FeatureCollection","features":[
			{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[0,0]}}]}}`},
		{"unknown basis", "/api/v1/fit", `{"obstacles":` + noObstacles + `,"basis":"spline"}`},
		{"unknown method", "/api/v1/fit", `{"obstacles":` + noObstacles + `,"method":"lbfgs"}`},
		{"degree too high", "/api/v1/fit", `{"obstacles":` + noObstacles + `,"degree":99}`},
		{"negative steps", "/api/v1/fit", `{"obstacles":` + noObstacles + `,"steps":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := post(t, h, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)

			resp := decode[errorResponse](t, rr)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestGraph(t *testing.T) {
	h := NewServer(testConfig(t), testLogger(t)).Handler()

	rr := post(t, h, "/api/v1/graph", `{"obstacles":`+noObstacles+`}`)
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode[graphResponse](t, rr)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.NumNodes)
	assert.Equal(t, 1, resp.NumEdges)
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, -0.5, resp.Lines[0][0].X)
	assert.Equal(t, 0.5, resp.Lines[0][1].X)

	rr = post(t, h, "/api/v1/graph", `{"obstacles":`+wall+`,"margin":0.05}`)
	require.Equal(t, http.StatusOK, rr.Code)
	resp = decode[graphResponse](t, rr)
	assert.Equal(t, 6, resp.NumNodes)
	assert.Greater(t, resp.NumEdges, 1)
}

func TestFit(t *testing.T) {
	h := NewServer(testConfig(t), testLogger(t)).Handler()

	t.Run("obstacle free converges immediately", func(t *testing.T) {
		rr := post(t, h, "/api/v1/fit", `{"obstacles":`+noObstacles+`}`)
		require.Equal(t, http.StatusOK, rr.Code)

		resp := decode[fitResponse](t, rr)
		assert.True(t, resp.Success)
		assert.Equal(t, "polynomial", string(resp.Basis))
		assert.Equal(t, "gradient", string(resp.Method))
		assert.True(t, resp.Result.Converged)
		assert.Zero(t, resp.Result.Steps)
		assert.Len(t, resp.Result.Weights, 6)
		require.NotNil(t, resp.Comparison)
		assert.InDelta(t, 1.0, resp.Comparison.Ratio, 1e-9)
	})

	t.Run("step budget exhausted", func(t *testing.T) {
		rr := post(t, h, "/api/v1/fit", `{"obstacles":`+offsetWall+`,"steps":0,"basis":"bump","degree":3}`)
		require.Equal(t, http.StatusOK, rr.Code)

		resp := decode[fitResponse](t, rr)
		assert.False(t, resp.Success)
		assert.Equal(t, "bump", string(resp.Basis))
		assert.False(t, resp.Result.Converged)
		assert.Len(t, resp.Result.Weights, 4)
		assert.Nil(t, resp.Comparison)
		assert.Equal(t, "not converged after 0 steps", resp.Message)
	})
}

func TestMetrics(t *testing.T) {
	h := NewServer(testConfig(t), testLogger(t)).Handler()

	post(t, h, "/api/v1/route", `{"obstacles":`+noObstacles+`}`)
	post(t, h, "/api/v1/fit", `{"obstacles":`+noObstacles+`}`)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, `planner_routes_total{found="true",search="astar"} 1`)
	assert.Contains(t, text, `planner_http_requests_total{code="200",endpoint="route"} 1`)
	assert.Contains(t, text, `planner_fit_sessions_total{outcome="converged"} 1`)
	assert.Contains(t, text, "planner_fit_duration_seconds_count 1")
}

func TestStartShutdown(t *testing.T) {
	srv := NewServer(testConfig(t), testLogger(t))

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
