package graph

import (
	"slices"

	"curve-planner/geometry"
)

// LineStrings returns every undirected edge once as a two-point line, in
// ascending order of the lower node id, for visualization.
func (g *Graph) LineStrings() [][]geometry.Point {
	lines := make([][]geometry.Point, 0)

	type pair struct{ lo, hi int }
	seen := make(map[pair]bool)

	ids := make([]int, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		for _, edge := range g.Edges[id] {
			key := pair{id, edge.To}
			if edge.To < id {
				key = pair{edge.To, id}
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			lines = append(lines, []geometry.Point{g.Nodes[id], g.Nodes[edge.To]})
		}
	}

	return lines
}
