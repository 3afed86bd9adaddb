package scenario

import (
	"go.uber.org/zap"

	"curve-planner/geometry"
)

// RemoveContained drops polygon obstacles that lie entirely inside another
// polygon obstacle. Line obstacles and the relative order of the kept
// obstacles are preserved. Of two identical polygons the first is kept.
func RemoveContained(obstacles []geometry.Obstacle) []geometry.Obstacle {
	contained := make([]bool, len(obstacles))

	for i := range obstacles {
		if contained[i] || obstacles[i].Kind != geometry.KindPolygon {
			continue
		}
		for j := range obstacles {
			if i == j || contained[j] || obstacles[j].Kind != geometry.KindPolygon {
				continue
			}
			if j > i && isContainedIn(obstacles[j], obstacles[i]) {
				contained[j] = true
				continue
			}
			if isContainedIn(obstacles[i], obstacles[j]) {
				contained[i] = true
				break
			}
		}
	}

	result := make([]geometry.Obstacle, 0, len(obstacles))
	for i, o := range obstacles {
		if !contained[i] {
			result = append(result, o)
		}
	}

	if removed := len(obstacles) - len(result); removed > 0 {
		zap.L().Debug("removed contained polygons", zap.Int("removed", removed))
	}
	return result
}

// isContainedIn reports whether every vertex of a lies inside or on b.
func isContainedIn(a, b geometry.Obstacle) bool {
	if len(a.Points) == 0 || len(b.Points) == 0 {
		return false
	}

	// Quick bounding box check first
	ab, bb := a.Bound(), b.Bound()
	if !bb.Contains(ab.Min) || !bb.Contains(ab.Max) {
		return false
	}

	for _, v := range a.Points {
		if !b.Contains(v) && !onBoundary(v, b) {
			return false
		}
	}
	return true
}

func onBoundary(p geometry.Point, o geometry.Obstacle) bool {
	for _, s := range o.Segments() {
		if geometry.DistanceToSegment(p, s) < 1e-12 {
			return true
		}
	}
	return false
}
