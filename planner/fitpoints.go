package planner

import (
	"sort"

	"curve-planner/curve"
	"curve-planner/geometry"
)

const (
	// fitMinSeparation is the minimum distance between the two points a
	// midpoint is taken from, and between accepted fit points.
	fitMinSeparation = 0.02
	// fitObstacleClearance is the minimum distance from a fit point to any
	// line obstacle centerline.
	fitObstacleClearance = 0.05
	// fitNeighbours is the number of midpoints accepted per cost point
	// towards later cost points.
	fitNeighbours = 5
)

// FitPoints derives least-squares targets from the cost points: midpoints
// between each cost point and up to five of its nearest later cost points,
// then midpoints between every cost point and both anchors, then the anchors
// themselves.
//
// A midpoint is rejected when its two points are closer than 0.02, when the
// middle half of the segment between them crosses an obstacle boundary, when
// it lies within 0.05 of a line obstacle centerline or inside a polygon
// obstacle, or when it lies within 0.02 of a fit point already accepted.
func FitPoints(costPoints []curve.CostPoint, obstacles []geometry.Obstacle) []geometry.Point {
	f := fitter{boundary: geometry.AllSegments(obstacles)}
	for _, o := range obstacles {
		switch o.Kind {
		case geometry.KindLine:
			f.centerlines = append(f.centerlines, o.Segments()...)
		case geometry.KindPolygon:
			f.polygons = append(f.polygons, o)
		}
	}

	type candidate struct {
		p     geometry.Point
		dist2 float64
	}

	for i, cp := range costPoints {
		p1 := cp.Point
		later := make([]candidate, 0, len(costPoints)-i-1)
		for _, other := range costPoints[i+1:] {
			later = append(later, candidate{p: other.Point, dist2: p1.DistanceSquared(other.Point)})
		}
		sort.SliceStable(later, func(a, b int) bool { return later[a].dist2 < later[b].dist2 })

		added := 0
		for _, c := range later {
			if f.attempt(p1, c.p) {
				added++
			}
			if added >= fitNeighbours {
				break
			}
		}
	}

	left := geometry.Pt(curve.AnchorLeft, 0)
	right := geometry.Pt(curve.AnchorRight, 0)
	for _, cp := range costPoints {
		f.attempt(cp.Point, left)
		f.attempt(cp.Point, right)
	}

	return append(f.points, left, right)
}

type fitter struct {
	boundary    []geometry.Segment
	centerlines []geometry.Segment
	polygons    []geometry.Obstacle
	points      []geometry.Point
}

func (f *fitter) attempt(p1, p2 geometry.Point) bool {
	minSep2 := fitMinSeparation * fitMinSeparation
	if p1.DistanceSquared(p2) < minSep2 {
		return false
	}

	mid := p1.Midpoint(p2)
	q1 := p1.Midpoint(mid)
	q2 := p2.Midpoint(mid)

	for _, s := range f.boundary {
		if _, ok := geometry.IntersectSegments(q1, q2, s.P1, s.P2); ok {
			return false
		}
	}
	for _, s := range f.centerlines {
		if geometry.DistanceToSegment(mid, s) < fitObstacleClearance {
			return false
		}
	}
	for _, o := range f.polygons {
		if o.Contains(mid) {
			return false
		}
	}
	for _, p := range f.points {
		if mid.DistanceSquared(p) < minSep2 {
			return false
		}
	}

	f.points = append(f.points, mid)
	return true
}
