// Package sampler derives candidate waypoints around obstacles for the
// visibility graph.
package sampler

import (
	"math"

	"go.uber.org/zap"

	"curve-planner/geometry"
)

const (
	// DefaultEpsilon is the merge distance used by Decluster callers.
	DefaultEpsilon = 0.02

	// CenterlineClearance is the minimum distance a waypoint keeps from the
	// centerline of every line obstacle.
	CenterlineClearance = 0.02

	// subdivisionLength is the edge length above which a subdividing sampler
	// inserts a midpoint.
	subdivisionLength = 0.1
)

// Options tunes Sample beyond the four inflated corners.
type Options struct {
	// MaxSubdivisionDepth adds edge midpoints recursively, up to this many
	// levels, while an edge of the inflated rectangle is longer than 0.1.
	// Zero disables subdivision.
	MaxSubdivisionDepth int

	// PolygonVertices samples every polygon vertex pushed outward by the
	// margin. Polygons yield no samples otherwise.
	PolygonVertices bool
}

// SampleCorners returns the four corners of a line obstacle inflated by
// margin: both ends extended along the centerline by margin, then offset
// sideways by width/2 + margin. Polygon obstacles yield nothing.
func SampleCorners(o geometry.Obstacle, margin float64) []geometry.Point {
	return Sample(o, margin, Options{})
}

// Sample is SampleCorners with optional subdivision and polygon sampling.
// A line obstacle with more than two centerline points is sampled piece by
// piece.
func Sample(o geometry.Obstacle, margin float64, opts Options) []geometry.Point {
	switch o.Kind {
	case geometry.KindLine:
		var points []geometry.Point
		for _, seg := range o.Segments() {
			corners := lineCorners(seg, o.Width/2+margin, margin)
			if opts.MaxSubdivisionDepth <= 0 {
				points = append(points, corners[:]...)
				continue
			}
			for i := range corners {
				points = append(points, edgePoints(corners[i], corners[(i+1)%4], opts.MaxSubdivisionDepth)...)
			}
		}
		return points
	case geometry.KindPolygon:
		if !opts.PolygonVertices {
			return nil
		}
		return offsetVertices(o.Points, margin)
	}
	return nil
}

func lineCorners(seg geometry.Segment, halfWidth, margin float64) [4]geometry.Point {
	dx := seg.P2.X - seg.P1.X
	dy := seg.P2.Y - seg.P1.Y
	length := math.Sqrt(dx*dx + dy*dy)

	ux, uy := 1.0, 0.0
	if length > 0 {
		ux, uy = dx/length, dy/length
	}
	px, py := -uy, ux

	sx, sy := seg.P1.X-ux*margin, seg.P1.Y-uy*margin
	ex, ey := seg.P2.X+ux*margin, seg.P2.Y+uy*margin

	return [4]geometry.Point{
		geometry.Pt(sx+px*halfWidth, sy+py*halfWidth),
		geometry.Pt(sx-px*halfWidth, sy-py*halfWidth),
		geometry.Pt(ex-px*halfWidth, ey-py*halfWidth),
		geometry.Pt(ex+px*halfWidth, ey+py*halfWidth),
	}
}

// edgePoints returns both endpoints plus, while the edge is long enough and
// depth remains, the midpoint and the points of both halves. The result
// repeats points; Decluster folds them together.
func edgePoints(start, end geometry.Point, depth int) []geometry.Point {
	points := []geometry.Point{start, end}
	if depth <= 0 || start.Distance(end) <= subdivisionLength {
		return points
	}

	mid := start.Midpoint(end)
	points = append(points, mid)
	points = append(points, edgePoints(start, mid, depth-1)...)
	points = append(points, edgePoints(mid, end, depth-1)...)
	return points
}

// offsetVertices moves each ring vertex by margin along the bisector of the
// outward normals of its two edges.
func offsetVertices(ring []geometry.Point, margin float64) []geometry.Point {
	n := len(ring)
	if n < 3 {
		return nil
	}

	// Outward is to the right of travel for a counter-clockwise ring.
	orientation := 1.0
	if signedArea(ring) < 0 {
		orientation = -1
	}

	out := make([]geometry.Point, 0, n)
	for i, v := range ring {
		prev := ring[(i+n-1)%n]
		next := ring[(i+1)%n]

		n1x, n1y := outwardNormal(prev, v, orientation)
		n2x, n2y := outwardNormal(v, next, orientation)
		bx, by := n1x+n2x, n1y+n2y
		l := math.Hypot(bx, by)
		if l == 0 {
			out = append(out, v)
			continue
		}
		out = append(out, geometry.Pt(v.X+bx/l*margin, v.Y+by/l*margin))
	}
	return out
}

func outwardNormal(a, b geometry.Point, orientation float64) (float64, float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return 0, 0
	}
	return orientation * dy / l, -orientation * dx / l
}

func signedArea(ring []geometry.Point) float64 {
	area := 0.0
	for i, p := range ring {
		q := ring[(i+1)%len(ring)]
		area += p.X*q.Y - q.X*p.Y
	}
	return area / 2
}

// Decluster merges points closer than epsilon. Each point joins the first
// existing cluster whose centroid is within epsilon, moving that centroid to
// the running mean of its members; otherwise it starts a new cluster. The
// centroids are returned in the order their clusters were started.
func Decluster(points []geometry.Point, epsilon float64) []geometry.Point {
	type cluster struct {
		centroid geometry.Point
		count    float64
	}

	eps2 := epsilon * epsilon
	var clusters []*cluster
	for _, p := range points {
		var match *cluster
		for _, c := range clusters {
			if p.DistanceSquared(c.centroid) < eps2 {
				match = c
				break
			}
		}
		if match == nil {
			clusters = append(clusters, &cluster{centroid: p, count: 1})
			continue
		}
		match.centroid.X = (match.centroid.X*match.count + p.X) / (match.count + 1)
		match.centroid.Y = (match.centroid.Y*match.count + p.Y) / (match.count + 1)
		match.count++
	}

	out := make([]geometry.Point, len(clusters))
	for i, c := range clusters {
		out[i] = c.centroid
	}
	return out
}

// UnclusteredOptimalPoints samples the corners of every obstacle, drops
// samples lying within CenterlineClearance of any line obstacle's
// centerline or inside any polygon obstacle, and declusters the rest with
// DefaultEpsilon.
func UnclusteredOptimalPoints(obstacles []geometry.Obstacle, margin float64) []geometry.Point {
	return Waypoints(obstacles, margin, Options{})
}

// Waypoints is UnclusteredOptimalPoints with sampling options.
func Waypoints(obstacles []geometry.Obstacle, margin float64, opts Options) []geometry.Point {
	var centerlines []geometry.Segment
	var polygons []geometry.Obstacle
	for _, o := range obstacles {
		switch o.Kind {
		case geometry.KindLine:
			centerlines = append(centerlines, o.Segments()...)
		case geometry.KindPolygon:
			polygons = append(polygons, o)
		}
	}

	var samples []geometry.Point
	dropped := 0
	for _, o := range obstacles {
		for _, p := range Sample(o, margin, opts) {
			if embedded(p, centerlines, polygons) {
				dropped++
				continue
			}
			samples = append(samples, p)
		}
	}

	points := Decluster(samples, DefaultEpsilon)
	zap.L().Debug("sampled waypoints",
		zap.Int("obstacles", len(obstacles)),
		zap.Int("samples", len(samples)+dropped),
		zap.Int("dropped", dropped),
		zap.Int("waypoints", len(points)),
	)
	return points
}

func embedded(p geometry.Point, centerlines []geometry.Segment, polygons []geometry.Obstacle) bool {
	for _, s := range centerlines {
		if geometry.DistanceToSegment(p, s) < CenterlineClearance {
			return true
		}
	}
	for _, o := range polygons {
		if o.Contains(p) {
			return true
		}
	}
	return false
}
