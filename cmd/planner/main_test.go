package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"curve-planner/internal/config"
)

func TestPlanOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wall.geojson")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"width":0.02},
		 "geometry":{"type":"LineString","coordinates":[[0,-0.3],[0,0.3]]}}]}`), 0o644))

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Planner.Margin = 0.05
	cfg.Solver.Steps = 2

	var buf bytes.Buffer
	require.NoError(t, planOnce(context.Background(), cfg, zaptest.NewLogger(t), path, &buf))

	var out struct {
		Obstacles int `json:"obstacles"`
		Route     struct {
			Found bool  `json:"found"`
			Path  []int `json:"path"`
		} `json:"route"`
		Fit struct {
			Steps int `json:"steps"`
		} `json:"fit"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 1, out.Obstacles)
	assert.True(t, out.Route.Found)
	assert.Greater(t, len(out.Route.Path), 2)
	assert.LessOrEqual(t, out.Fit.Steps, 2)
}

func TestPlanOnceMissingFile(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	err = planOnce(context.Background(), cfg, zaptest.NewLogger(t), filepath.Join(t.TempDir(), "nope.geojson"), &bytes.Buffer{})
	assert.Error(t, err)
}
