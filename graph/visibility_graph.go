package graph

import (
	"go.uber.org/zap"

	"curve-planner/geometry"
)

// largeGraphEdges is the candidate edge count above which Build warns.
const largeGraphEdges = 100000

// Build constructs a visibility graph over Start, End and the waypoints.
// Every pair of nodes, Start-End included, is joined by an edge weighted by
// Euclidean distance unless the connecting segment intersects a boundary
// segment of some obstacle, or its midpoint lies inside a polygon obstacle.
//
// The worst case is O(n²·m) segment tests for n nodes and m obstacle
// segments; the R-tree skips segments whose boxes are disjoint from the edge.
func Build(waypoints []geometry.Point, obstacles []geometry.Obstacle) *Graph {
	logger := zap.L().Named("graph")

	g := New()
	g.Nodes[StartID] = Start
	g.Nodes[EndID] = End
	for i, p := range waypoints {
		g.Nodes[i+2] = p
	}

	var polygons []geometry.Obstacle
	for _, o := range obstacles {
		if o.Kind == geometry.KindPolygon {
			polygons = append(polygons, o)
		}
	}
	index := NewSegmentIndex(geometry.AllSegments(obstacles))

	totalNodes := len(g.Nodes)
	totalPossibleEdges := totalNodes * (totalNodes - 1) / 2
	logger.Debug("building visibility graph",
		zap.Int("nodes", totalNodes),
		zap.Int("obstacle_segments", index.Len()),
		zap.Int("candidate_edges", totalPossibleEdges),
	)
	if totalPossibleEdges > largeGraphEdges {
		logger.Warn("large visibility graph", zap.Int("candidate_edges", totalPossibleEdges))
	}

	edgesAdded := 0
	for i := 0; i < totalNodes; i++ {
		for j := i + 1; j < totalNodes; j++ {
			a, b := g.Nodes[i], g.Nodes[j]
			if !visible(a, b, index, polygons) {
				continue
			}
			g.AddEdge(i, j, a.Distance(b))
			edgesAdded++
		}
	}

	logger.Debug("visibility graph built", zap.Int("edges", edgesAdded))
	return g
}

func visible(a, b geometry.Point, index *SegmentIndex, polygons []geometry.Obstacle) bool {
	if index.Blocked(a, b) {
		return false
	}
	mid := a.Midpoint(b)
	for _, o := range polygons {
		if o.Contains(mid) {
			return false
		}
	}
	return true
}
