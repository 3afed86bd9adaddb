// Package graph builds visibility graphs over sampled waypoints and searches
// them for a route from Start to End.
package graph

import "curve-planner/geometry"

// Fixed node ids of the two anchors. Waypoints are numbered from 2 in the
// order they were given to Build.
const (
	StartID = 0
	EndID   = 1
)

var (
	// Start is the fixed route origin.
	Start = geometry.Point{X: -0.5, Y: 0, Color: "green"}
	// End is the fixed route destination.
	End = geometry.Point{X: 0.5, Y: 0, Color: "green"}
)

// Graph is an undirected weighted graph. Every edge is stored in the
// adjacency list of both of its nodes.
type Graph struct {
	Nodes map[int]geometry.Point
	Edges map[int][]Edge
}

// Edge represents a connection between two nodes with a cost
type Edge struct {
	To   int     // Index of the destination node
	Cost float64 // Euclidean distance
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		Nodes: make(map[int]geometry.Point),
		Edges: make(map[int][]Edge),
	}
}

// AddEdge connects u and v in both directions with the given cost.
func (g *Graph) AddEdge(u, v int, cost float64) {
	g.Edges[u] = append(g.Edges[u], Edge{To: v, Cost: cost})
	g.Edges[v] = append(g.Edges[v], Edge{To: u, Cost: cost})
}

// EdgeWeight returns the cost of the edge from u to v.
func (g *Graph) EdgeWeight(u, v int) (float64, bool) {
	for _, e := range g.Edges[u] {
		if e.To == v {
			return e.Cost, true
		}
	}
	return 0, false
}

// HasEdge reports whether u and v are connected.
func (g *Graph) HasEdge(u, v int) bool {
	_, ok := g.EdgeWeight(u, v)
	return ok
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, edges := range g.Edges {
		n += len(edges)
	}
	return n / 2
}

// PathLength sums the edge costs along path. It returns false when two
// consecutive nodes are not connected.
func (g *Graph) PathLength(path []int) (float64, bool) {
	length := 0.0
	for i := 1; i < len(path); i++ {
		w, ok := g.EdgeWeight(path[i-1], path[i])
		if !ok {
			return 0, false
		}
		length += w
	}
	return length, true
}

// Points resolves node ids to their positions.
func (g *Graph) Points(path []int) []geometry.Point {
	points := make([]geometry.Point, 0, len(path))
	for _, id := range path {
		points = append(points, g.Nodes[id])
	}
	return points
}
