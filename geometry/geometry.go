// Package geometry holds the planar primitives shared by the curve solver and
// the visibility graph: points, segments and obstacles.
package geometry

import "math"

// Point is a location in the plane. Color is an optional display tag carried
// through for renderers.
type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color,omitempty"`
}

// Pt returns the untagged point (x, y).
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Distance calculates Euclidean distance between two points
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// DistanceSquared avoids the square root for proximity checks.
func (p Point) DistanceSquared(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return dx*dx + dy*dy
}

// Midpoint returns the point halfway between p and other.
func (p Point) Midpoint(other Point) Point {
	return Point{X: (p.X + other.X) / 2, Y: (p.Y + other.Y) / 2}
}

// Segment represents a line segment between two points
type Segment struct {
	P1, P2 Point
}

// Seg is shorthand for the segment from (x1, y1) to (x2, y2).
func Seg(x1, y1, x2, y2 float64) Segment {
	return Segment{P1: Pt(x1, y1), P2: Pt(x2, y2)}
}

// Length returns the Euclidean length of the segment.
func (s Segment) Length() float64 {
	return s.P1.Distance(s.P2)
}

// IntersectSegments solves the parametric system for the lines through
// p1-p2 and p3-p4 and reports the crossing point when it lies on both
// segments. Parallel segments, collinear ones included, never intersect.
func IntersectSegments(p1, p2, p3, p4 Point) (Point, bool) {
	denom := (p4.Y-p3.Y)*(p2.X-p1.X) - (p4.X-p3.X)*(p2.Y-p1.Y)
	if denom == 0 {
		return Point{}, false
	}

	ua := ((p4.X-p3.X)*(p1.Y-p3.Y) - (p4.Y-p3.Y)*(p1.X-p3.X)) / denom
	ub := ((p2.X-p1.X)*(p1.Y-p3.Y) - (p2.Y-p1.Y)*(p1.X-p3.X)) / denom

	if ua < 0 || ua > 1 || ub < 0 || ub > 1 {
		return Point{}, false
	}

	return Point{X: p1.X + ua*(p2.X-p1.X), Y: p1.Y + ua*(p2.Y-p1.Y)}, true
}

// IntersectSegmentsCollinear is IntersectSegments except that collinear,
// overlapping segments report one endpoint lying inside the overlap. The
// overlap itself is a segment; only a single representative point is
// returned.
func IntersectSegmentsCollinear(p1, p2, p3, p4 Point) (Point, bool) {
	if pt, ok := IntersectSegments(p1, p2, p3, p4); ok {
		return pt, true
	}

	// Not collinear unless p3 and p4 both lie on the line through p1-p2.
	if direction(p1, p2, p3) != 0 || direction(p1, p2, p4) != 0 {
		return Point{}, false
	}

	switch {
	case onSegment(p1, p2, p3):
		return p3, true
	case onSegment(p1, p2, p4):
		return p4, true
	case onSegment(p3, p4, p1):
		return p1, true
	case onSegment(p3, p4, p2):
		return p2, true
	}
	return Point{}, false
}

// DistanceToSegment returns the distance from p to the closest point of s.
// A zero-length segment degrades to point-to-point distance.
func DistanceToSegment(p Point, s Segment) float64 {
	dx := s.P2.X - s.P1.X
	dy := s.P2.Y - s.P1.Y

	lengthSquared := dx*dx + dy*dy
	if lengthSquared == 0 {
		return p.Distance(s.P1)
	}

	t := ((p.X-s.P1.X)*dx + (p.Y-s.P1.Y)*dy) / lengthSquared
	t = math.Max(0, math.Min(1, t))

	proj := Point{X: s.P1.X + t*dx, Y: s.P1.Y + t*dy}
	return p.Distance(proj)
}

// direction calculates the cross product to determine orientation
func direction(p1, p2, p3 Point) float64 {
	return (p3.X-p1.X)*(p2.Y-p1.Y) - (p2.X-p1.X)*(p3.Y-p1.Y)
}

// onSegment checks if point q lies within the bounding box of segment pr
func onSegment(p, r, q Point) bool {
	return q.X <= math.Max(p.X, r.X) && q.X >= math.Min(p.X, r.X) &&
		q.Y <= math.Max(p.Y, r.Y) && q.Y >= math.Min(p.Y, r.Y)
}

// IsPointInPolygon checks if a point is inside a polygon using ray casting
func IsPointInPolygon(point Point, vertices []Point) bool {
	n := len(vertices)
	if n < 3 {
		return false
	}

	count := 0
	for i := 0; i < n; i++ {
		v1 := vertices[i]
		v2 := vertices[(i+1)%n]

		// Does the horizontal ray from point towards -x cross this edge?
		if (v1.Y > point.Y) != (v2.Y > point.Y) {
			slope := (point.X-v1.X)*(v2.Y-v1.Y) - (v2.X-v1.X)*(point.Y-v1.Y)
			if v2.Y > v1.Y {
				if slope > 0 {
					count++
				}
			} else {
				if slope < 0 {
					count++
				}
			}
		}
	}

	return count%2 == 1
}
