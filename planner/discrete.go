package planner

import (
	"fmt"

	"go.uber.org/zap"

	"curve-planner/curve"
	"curve-planner/geometry"
	"curve-planner/graph"
	"curve-planner/sampler"
)

// Search selects the graph search used by PlanDiscrete.
type Search string

const (
	// SearchAStar finds the shortest route by length.
	SearchAStar Search = "astar"
	// SearchBFS finds the route with the fewest waypoints.
	SearchBFS Search = "bfs"
)

// ParseSearch validates a search name. The empty string selects A*.
func ParseSearch(name string) (Search, error) {
	switch Search(name) {
	case "", SearchAStar:
		return SearchAStar, nil
	case SearchBFS:
		return SearchBFS, nil
	}
	return "", fmt.Errorf("unknown search %q", name)
}

// DiscreteOptions configures PlanDiscrete.
type DiscreteOptions struct {
	// Margin inflates obstacles when sampling waypoints.
	Margin float64
	// Search picks the graph search; empty means A*.
	Search Search
	// Sampler tunes waypoint sampling.
	Sampler sampler.Options
}

// DefaultDiscreteOptions returns a 0.02 margin with A* search.
func DefaultDiscreteOptions() DiscreteOptions {
	return DiscreteOptions{Margin: 0.02, Search: SearchAStar}
}

// Route is the outcome of the discrete pipeline. Found is false when End is
// unreachable from Start; Path and Points are then empty.
type Route struct {
	Path      []int            `json:"path"`
	Points    []geometry.Point `json:"points"`
	Length    float64          `json:"length"`
	Found     bool             `json:"found"`
	Waypoints int              `json:"waypoints"`
	Graph     *graph.Graph     `json:"-"`
}

// PlanDiscrete samples waypoints around the obstacles, connects them into a
// visibility graph and searches it from graph.StartID to graph.EndID.
func PlanDiscrete(obstacles []geometry.Obstacle, opts DiscreteOptions) Route {
	waypoints := sampler.Waypoints(obstacles, opts.Margin, opts.Sampler)
	g := graph.Build(waypoints, obstacles)

	search := graph.ShortestPath
	if opts.Search == SearchBFS {
		search = graph.BreadthFirstPath
	}

	route := Route{Waypoints: len(waypoints), Graph: g}
	path, length, ok := search(g, graph.StartID, graph.EndID)
	if ok {
		route.Path = path
		route.Points = g.Points(path)
		route.Length = length
		route.Found = true
	}

	zap.L().Debug("planned discrete route",
		zap.String("search", string(opts.Search)),
		zap.Int("waypoints", len(waypoints)),
		zap.Int("edges", g.EdgeCount()),
		zap.Bool("found", ok),
		zap.Float64("length", length),
	)
	return route
}

// arcSamples is the number of chords used to measure a curve.
const arcSamples = 200

// CurveLength approximates the arc length of c between the anchors by a
// polyline through arcSamples+1 evenly spaced samples.
func CurveLength(c curve.Curve) float64 {
	step := (curve.AnchorRight - curve.AnchorLeft) / arcSamples
	prev := geometry.Pt(curve.AnchorLeft, c.Evaluate(curve.AnchorLeft))
	length := 0.0
	for i := 1; i <= arcSamples; i++ {
		x := curve.AnchorLeft + float64(i)*step
		p := geometry.Pt(x, c.Evaluate(x))
		length += prev.Distance(p)
		prev = p
	}
	return length
}

// Comparison sets the length of a fitted curve next to a discrete route.
type Comparison struct {
	CurveLength float64 `json:"curveLength"`
	RouteLength float64 `json:"routeLength"`
	// Ratio is CurveLength / RouteLength, 0 without a route.
	Ratio float64 `json:"ratio"`
}

// Compare measures c against route.
func Compare(c curve.Curve, route Route) Comparison {
	cmp := Comparison{CurveLength: CurveLength(c)}
	if route.Found {
		cmp.RouteLength = route.Length
		if route.Length > 0 {
			cmp.Ratio = cmp.CurveLength / route.Length
		}
	}
	return cmp
}
