package scenario

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"

	"curve-planner/geometry"
)

// SimplifyRing reduces a polygon ring with the Douglas-Peucker algorithm.
// The ring is closed for simplification and reopened afterwards; a result
// with fewer than three vertices returns the ring unchanged.
func SimplifyRing(ring []geometry.Point, epsilon float64) []geometry.Point {
	if len(ring) <= 3 || epsilon <= 0 {
		return ring
	}

	closed := append(toLineString(ring), orb.Point{ring[0].X, ring[0].Y})
	s, ok := simplify.DouglasPeucker(epsilon).Simplify(closed).(orb.LineString)
	if !ok || len(s) < 4 {
		return ring
	}

	s = s[:len(s)-1]
	out := make([]geometry.Point, len(s))
	for i, p := range s {
		out[i] = geometry.Pt(p.X(), p.Y())
	}
	return out
}

// Simplify returns a copy of obstacles with every polygon ring simplified.
// Line obstacles pass through unchanged.
func Simplify(obstacles []geometry.Obstacle, epsilon float64) []geometry.Obstacle {
	out := make([]geometry.Obstacle, len(obstacles))
	for i, o := range obstacles {
		if o.Kind == geometry.KindPolygon {
			o.Points = SimplifyRing(o.Points, epsilon)
		}
		out[i] = o
	}
	return out
}
