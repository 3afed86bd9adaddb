package graph

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"curve-planner/geometry"
)

// boxPadding grows every bounding box so horizontal and vertical segments
// get a non-degenerate rectangle and boxes that only touch still overlap.
// It is relative to the largest coordinate magnitude once that exceeds one.
const boxPadding = 1e-7

// segmentEntry wraps an obstacle segment for R-tree storage
type segmentEntry struct {
	seg  geometry.Segment
	bbox rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (e *segmentEntry) Bounds() rtreego.Rect {
	return e.bbox
}

// SegmentIndex answers line-of-sight queries against a fixed set of obstacle
// segments. Only segments whose bounding box overlaps the query's are tested
// exactly, which gives the same answer as testing all of them.
type SegmentIndex struct {
	tree  *rtreego.Rtree
	count int

	// unboxed holds segments the tree cannot store; they are always tested.
	unboxed []geometry.Segment
	all     []geometry.Segment
}

// NewSegmentIndex creates a new spatial index
func NewSegmentIndex(segments []geometry.Segment) *SegmentIndex {
	tree := rtreego.NewTree(2, 25, 50) // 2D, min 25, max 50 entries per node

	si := &SegmentIndex{tree: tree, all: segments}
	for _, seg := range segments {
		bbox, err := segmentBox(seg.P1, seg.P2)
		if err != nil {
			si.unboxed = append(si.unboxed, seg)
			continue
		}
		tree.Insert(&segmentEntry{seg: seg, bbox: bbox})
		si.count++
	}

	return si
}

// Len returns the number of segments stored in the tree. Segments without a
// valid bounding box are not counted but are still checked by Blocked.
func (si *SegmentIndex) Len() int {
	return si.count
}

// Query returns a superset of the segments whose bounding box overlaps that
// of a-b. If no box can be built for a-b every segment is returned.
func (si *SegmentIndex) Query(a, b geometry.Point) []geometry.Segment {
	bbox, err := segmentBox(a, b)
	if err != nil {
		return si.all
	}

	results := si.tree.SearchIntersect(bbox)
	segments := make([]geometry.Segment, 0, len(results)+len(si.unboxed))
	for _, item := range results {
		segments = append(segments, item.(*segmentEntry).seg)
	}
	return append(segments, si.unboxed...)
}

// Blocked reports whether the segment a-b intersects any indexed segment.
func (si *SegmentIndex) Blocked(a, b geometry.Point) bool {
	for _, seg := range si.Query(a, b) {
		if _, ok := geometry.IntersectSegments(a, b, seg.P1, seg.P2); ok {
			return true
		}
	}
	return false
}

// segmentBox computes the padded axis-aligned bounding box of a-b.
func segmentBox(a, b geometry.Point) (rtreego.Rect, error) {
	scale := math.Max(1, math.Max(
		math.Max(math.Abs(a.X), math.Abs(b.X)),
		math.Max(math.Abs(a.Y), math.Abs(b.Y)),
	))
	pad := boxPadding * scale

	minX, maxX := math.Min(a.X, b.X)-pad, math.Max(a.X, b.X)+pad
	minY, maxY := math.Min(a.Y, b.Y)-pad, math.Max(a.Y, b.Y)+pad

	return rtreego.NewRect(
		rtreego.Point{minX, minY},
		[]float64{maxX - minX, maxY - minY},
	)
}
