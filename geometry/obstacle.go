package geometry

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Kind distinguishes the obstacle variants.
type Kind int

const (
	// KindPolygon is a closed ring of vertices.
	KindPolygon Kind = iota
	// KindLine is a polyline centerline inflated symmetrically by Width.
	KindLine
)

func (k Kind) String() string {
	switch k {
	case KindPolygon:
		return "polygon"
	case KindLine:
		return "line"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Obstacle is an immutable region the path has to avoid.
//
// For KindLine, Points is the centerline (normally two endpoints) and Width
// is the full thickness of the band around it. For KindPolygon, Points is the
// ring without a repeated closing vertex and Width is ignored.
type Obstacle struct {
	Kind   Kind    `json:"kind"`
	Points []Point `json:"points"`
	Width  float64 `json:"width,omitempty"`
}

// NewLineObstacle returns a line obstacle from a to b of the given width.
func NewLineObstacle(a, b Point, width float64) Obstacle {
	return Obstacle{Kind: KindLine, Points: []Point{a, b}, Width: width}
}

// NewPolygonObstacle returns a polygon obstacle over the given ring.
func NewPolygonObstacle(vertices ...Point) Obstacle {
	return Obstacle{Kind: KindPolygon, Points: vertices}
}

// Segments returns the obstacle boundary used for line-of-sight tests: the
// centerline pieces of a line obstacle, or every edge of a polygon ring
// including the closing edge.
func (o Obstacle) Segments() []Segment {
	n := len(o.Points)
	switch o.Kind {
	case KindLine:
		if n < 2 {
			return nil
		}
		segs := make([]Segment, 0, n-1)
		for i := 0; i < n-1; i++ {
			segs = append(segs, Segment{P1: o.Points[i], P2: o.Points[i+1]})
		}
		return segs
	case KindPolygon:
		if n < 2 {
			return nil
		}
		segs := make([]Segment, 0, n)
		for i := 0; i < n; i++ {
			segs = append(segs, Segment{P1: o.Points[i], P2: o.Points[(i+1)%n]})
		}
		return segs
	}
	return nil
}

// Contains reports whether p is inside a polygon obstacle. Line obstacles
// have no interior.
func (o Obstacle) Contains(p Point) bool {
	if o.Kind != KindPolygon {
		return false
	}
	return IsPointInPolygon(p, o.Points)
}

// Bound returns the axis-aligned bounding box of the obstacle's points. The
// inflation band of line obstacles is not included.
func (o Obstacle) Bound() orb.Bound {
	mp := make(orb.MultiPoint, 0, len(o.Points))
	for _, p := range o.Points {
		mp = append(mp, orb.Point{p.X, p.Y})
	}
	return mp.Bound()
}

// AllSegments flattens the boundary segments of every obstacle.
func AllSegments(obstacles []Obstacle) []Segment {
	var segs []Segment
	for _, o := range obstacles {
		segs = append(segs, o.Segments()...)
	}
	return segs
}
