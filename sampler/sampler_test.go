package sampler

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curve-planner/geometry"
)

var pointOpts = cmp.Options{
	cmpopts.EquateApprox(0, 1e-9),
	cmpopts.SortSlices(func(a, b geometry.Point) bool {
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	}),
}

func TestSampleCorners(t *testing.T) {
	tests := []struct {
		name     string
		obstacle geometry.Obstacle
		margin   float64
		want     []geometry.Point
	}{
		{
			name:     "horizontal without margin",
			obstacle: geometry.NewLineObstacle(geometry.Pt(-1, 0), geometry.Pt(1, 0), 0.2),
			margin:   0,
			want: []geometry.Point{
				geometry.Pt(-1, -0.1), geometry.Pt(-1, 0.1),
				geometry.Pt(1, -0.1), geometry.Pt(1, 0.1),
			},
		},
		{
			name:     "horizontal with margin",
			obstacle: geometry.NewLineObstacle(geometry.Pt(0, 0), geometry.Pt(1, 0), 0.2),
			margin:   0.1,
			want: []geometry.Point{
				geometry.Pt(-0.1, -0.2), geometry.Pt(-0.1, 0.2),
				geometry.Pt(1.1, -0.2), geometry.Pt(1.1, 0.2),
			},
		},
		{
			name:     "vertical",
			obstacle: geometry.NewLineObstacle(geometry.Pt(0, -0.3), geometry.Pt(0, 0.3), 0.02),
			margin:   0.05,
			want: []geometry.Point{
				geometry.Pt(-0.06, -0.35), geometry.Pt(-0.06, 0.35),
				geometry.Pt(0.06, -0.35), geometry.Pt(0.06, 0.35),
			},
		},
		{
			name:     "polygon is not sampled",
			obstacle: geometry.NewPolygonObstacle(geometry.Pt(0, 0), geometry.Pt(1, 0), geometry.Pt(0, 1)),
			margin:   0.1,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SampleCorners(tt.obstacle, tt.margin)
			if diff := cmp.Diff(tt.want, got, pointOpts, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("corners mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSampleDegenerateLine(t *testing.T) {
	o := geometry.NewLineObstacle(geometry.Pt(0.2, 0.2), geometry.Pt(0.2, 0.2), 0.2)
	got := SampleCorners(o, 0)
	require.Len(t, got, 4)
	for _, p := range got {
		assert.False(t, math.IsNaN(p.X) || math.IsNaN(p.Y))
	}
}

func TestSampleSubdivision(t *testing.T) {
	o := geometry.NewLineObstacle(geometry.Pt(-1, 0), geometry.Pt(1, 0), 0.2)

	assert.Len(t, Sample(o, 0, Options{MaxSubdivisionDepth: 0}), 4)

	got := Sample(o, 0, Options{MaxSubdivisionDepth: 1})
	unique := Decluster(got, 1e-9)
	want := []geometry.Point{
		geometry.Pt(-1, -0.1), geometry.Pt(-1, 0.1),
		geometry.Pt(1, -0.1), geometry.Pt(1, 0.1),
		geometry.Pt(-1, 0), geometry.Pt(1, 0),
		geometry.Pt(0, -0.1), geometry.Pt(0, 0.1),
	}
	if diff := cmp.Diff(want, unique, pointOpts); diff != "" {
		t.Errorf("subdivided points mismatch (-want +got):\n%s", diff)
	}

	deeper := Decluster(Sample(o, 0, Options{MaxSubdivisionDepth: 3}), 1e-9)
	assert.Greater(t, len(deeper), len(unique))
}

func TestSamplePolygonVertices(t *testing.T) {
	ccw := geometry.NewPolygonObstacle(
		geometry.Pt(0, 0), geometry.Pt(1, 0), geometry.Pt(1, 1), geometry.Pt(0, 1),
	)
	cw := geometry.NewPolygonObstacle(
		geometry.Pt(0, 1), geometry.Pt(1, 1), geometry.Pt(1, 0), geometry.Pt(0, 0),
	)

	d := 0.1 / math.Sqrt2
	want := []geometry.Point{
		geometry.Pt(-d, -d), geometry.Pt(1+d, -d),
		geometry.Pt(1+d, 1+d), geometry.Pt(-d, 1+d),
	}

	for name, o := range map[string]geometry.Obstacle{"ccw": ccw, "cw": cw} {
		t.Run(name, func(t *testing.T) {
			got := Sample(o, 0.1, Options{PolygonVertices: true})
			if diff := cmp.Diff(want, got, pointOpts); diff != "" {
				t.Errorf("vertices mismatch (-want +got):\n%s", diff)
			}
			for _, p := range got {
				assert.False(t, o.Contains(p))
			}
		})
	}
}

func TestDecluster(t *testing.T) {
	points := []geometry.Point{
		geometry.Pt(0, 0),
		geometry.Pt(0.01, 0),
		geometry.Pt(0.5, 0.5),
	}
	got := Decluster(points, DefaultEpsilon)
	want := []geometry.Point{geometry.Pt(0.005, 0), geometry.Pt(0.5, 0.5)}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Decluster mismatch (-want +got):\n%s", diff)
	}
}

func TestDeclusterRunningMean(t *testing.T) {
	points := []geometry.Point{
		geometry.Pt(0, 0),
		geometry.Pt(0.01, 0),
		geometry.Pt(0.002, 0.003),
		geometry.Pt(-0.3, 0.1),
	}
	got := Decluster(points, DefaultEpsilon)
	require.Len(t, got, 2)
	assert.InDelta(t, 0.004, got[0].X, 1e-12)
	assert.InDelta(t, 0.001, got[0].Y, 1e-12)
	assert.Equal(t, geometry.Pt(-0.3, 0.1), got[1])
}

func TestDeclusterEmpty(t *testing.T) {
	assert.Empty(t, Decluster(nil, DefaultEpsilon))
}

func TestUnclusteredOptimalPoints(t *testing.T) {
	t.Run("corners clear of the centerline", func(t *testing.T) {
		obstacles := []geometry.Obstacle{
			geometry.NewLineObstacle(geometry.Pt(-1, 0), geometry.Pt(1, 0), 0.2),
		}
		assert.Len(t, UnclusteredOptimalPoints(obstacles, 0), 4)
	})

	t.Run("thin obstacle without margin", func(t *testing.T) {
		obstacles := []geometry.Obstacle{
			geometry.NewLineObstacle(geometry.Pt(-1, 0), geometry.Pt(1, 0), 0.02),
		}
		assert.Empty(t, UnclusteredOptimalPoints(obstacles, 0))
		assert.Len(t, UnclusteredOptimalPoints(obstacles, 0.05), 4)
	})

	t.Run("corner near another centerline", func(t *testing.T) {
		obstacles := []geometry.Obstacle{
			geometry.NewLineObstacle(geometry.Pt(0, -0.3), geometry.Pt(0, 0.3), 0.02),
			// Its centerline passes 0.01 from the (0.06, 0.35) corner above.
			geometry.NewLineObstacle(geometry.Pt(0.07, 0.2), geometry.Pt(0.07, 0.5), 0.3),
		}
		got := UnclusteredOptimalPoints(obstacles, 0.05)
		for _, p := range got {
			assert.GreaterOrEqual(t, geometry.DistanceToSegment(p, obstacles[1].Segments()[0]), CenterlineClearance)
		}
		assert.NotContains(t, got, geometry.Pt(0.06, 0.35))
	})

	t.Run("samples inside a polygon", func(t *testing.T) {
		obstacles := []geometry.Obstacle{
			geometry.NewPolygonObstacle(
				geometry.Pt(0, 0), geometry.Pt(1, 0), geometry.Pt(1, 1), geometry.Pt(0, 1),
			),
			geometry.NewLineObstacle(geometry.Pt(0.4, 0.5), geometry.Pt(0.6, 0.5), 0.1),
		}
		assert.Empty(t, UnclusteredOptimalPoints(obstacles, 0.05))
	})

	t.Run("nearby corners merge", func(t *testing.T) {
		obstacles := []geometry.Obstacle{
			geometry.NewLineObstacle(geometry.Pt(-0.3, 0), geometry.Pt(-0.1, 0), 0.1),
			geometry.NewLineObstacle(geometry.Pt(-0.09, 0), geometry.Pt(0.1, 0), 0.1),
		}
		// The facing corners sit 0.01 apart and merge pairwise.
		assert.Len(t, UnclusteredOptimalPoints(obstacles, 0), 6)
	})
}
