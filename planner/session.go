// Package planner drives the two path planning pipelines over one obstacle
// set: the iterative curve fit (Session) and the discrete visibility graph
// search (PlanDiscrete).
package planner

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"curve-planner/curve"
	"curve-planner/geometry"
)

// Method selects how a Session refits the curve.
type Method string

const (
	MethodGradient Method = "gradient"
	MethodSVD      Method = "svd"
)

// ParseMethod validates a method name. The empty string selects gradient
// descent.
func ParseMethod(name string) (Method, error) {
	switch Method(name) {
	case "", MethodGradient:
		return MethodGradient, nil
	case MethodSVD:
		return MethodSVD, nil
	}
	return "", fmt.Errorf("unknown method %q", name)
}

// SessionOptions configures a Session.
type SessionOptions struct {
	// Method is the fitting method. SVD is only used once MinSVDCostPoints
	// cost points exist; gradient descent runs before that.
	Method Method
	// Gradient configures every gradient fit.
	Gradient curve.GradientOptions
	// Rank is the number of singular values kept by SVD fits, 0 for all.
	Rank int
	// MinSVDCostPoints is the cost point count at which SVD takes over.
	MinSVDCostPoints int
	// History is the number of most recent cost points used by gradient
	// fits. Zero uses all of them.
	History int
	// MinSpacing is the distance below which a new intersection is
	// considered a duplicate of an existing cost point.
	MinSpacing float64
	// AnchorTolerance is the largest |y(±0.5)| that counts as passing
	// through the anchors.
	AnchorTolerance float64
	// Seeds are the cost points the session starts with.
	Seeds []curve.CostPoint
}

// DefaultSessionOptions returns the settings of the interactive optimizer:
// a slow, heavily anchored gradient descent seeded with cost points at the
// origin and half a unit above and below it.
func DefaultSessionOptions() SessionOptions {
	return SessionOptions{
		Method: MethodGradient,
		Gradient: curve.GradientOptions{
			Epochs:            100,
			LearningRate:      0.0001,
			L2Lambda:          0.01,
			TargetWeight:      10,
			OutOfBoundsCost:   10,
			DegreeDecayFactor: 1,
		},
		MinSVDCostPoints: 10,
		History:          400,
		MinSpacing:       0.005,
		AnchorTolerance:  0.01,
		Seeds: []curve.CostPoint{
			curve.NewCostPoint(geometry.Pt(0, 0)),
			curve.NewCostPoint(geometry.Pt(0, -0.5)),
			curve.NewCostPoint(geometry.Pt(0, 0.5)),
		},
	}
}

// Result summarizes a Session.
type Result struct {
	Steps      int               `json:"steps"`
	Converged  bool              `json:"converged"`
	Diverged   bool              `json:"diverged"`
	Weights    []float64         `json:"weights"`
	CostPoints []curve.CostPoint `json:"costPoints"`
	FitPoints  []geometry.Point  `json:"fitPoints"`
}

// Session accumulates cost points where the curve crosses obstacles and
// refits the curve until it passes through both anchors without crossing
// anything. A Session is not safe for concurrent use.
type Session struct {
	solver     *curve.Solver
	obstacles  []geometry.Obstacle
	segments   []geometry.Segment
	opts       SessionOptions
	logger     *zap.Logger
	costPoints []curve.CostPoint
	fitPoints  []geometry.Point
	steps      int
	converged  bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the logger. The session logs under the name "session".
func WithLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession returns a session that refits the solver's curve against the
// obstacles.
func NewSession(solver *curve.Solver, obstacles []geometry.Obstacle, opts SessionOptions, options ...SessionOption) *Session {
	s := &Session{
		solver:     solver,
		obstacles:  obstacles,
		segments:   geometry.AllSegments(obstacles),
		opts:       opts,
		logger:     zap.NewNop(),
		costPoints: append([]curve.CostPoint(nil), opts.Seeds...),
	}
	for _, o := range options {
		o(s)
	}
	s.logger = s.logger.Named("session")
	return s
}

// Step performs one iteration. It reports true once the curve crosses no
// obstacle segment and passes within AnchorTolerance of both anchors; later
// calls return immediately. Otherwise new intersections are recorded as
// cost points and the curve is refit.
//
// Step returns an error wrapping curve.ErrNumericDivergence and does not fit
// when the weights are no longer finite.
func (s *Session) Step() (bool, error) {
	if s.converged {
		return true, nil
	}

	intersections := s.solver.IntersectSegments(s.segments)
	if s.settle(intersections) {
		return true, nil
	}

	s.fitPoints = FitPoints(s.costPoints, s.obstacles)

	added := 0
	for _, in := range intersections {
		if s.nearCostPoint(in.Point) {
			continue
		}
		s.costPoints = append(s.costPoints, in.CostPoint())
		added++
	}

	if s.solver.Diverged() {
		return false, fmt.Errorf("step %d: %w", s.steps, curve.ErrNumericDivergence)
	}

	var err error
	if s.opts.Method == MethodSVD && len(s.costPoints) >= s.opts.MinSVDCostPoints {
		err = s.solver.FitSVD(s.fitPoints, s.opts.Rank)
	} else {
		err = s.solver.FitGradient(s.recentCostPoints(), s.opts.Gradient)
	}
	s.steps++

	s.logger.Debug("step",
		zap.Int("step", s.steps),
		zap.Int("intersections", len(intersections)),
		zap.Int("new_cost_points", added),
		zap.Int("fit_points", len(s.fitPoints)),
	)
	return false, err
}

// Run calls Step until the curve converges, the weights diverge, ctx is
// done or maxSteps fits have run, then checks once more whether the last fit
// converged. Divergence is reported in the result; only a context error is
// returned.
func (s *Session) Run(ctx context.Context, maxSteps int) (Result, error) {
	for !s.converged {
		if err := ctx.Err(); err != nil {
			return s.Result(), err
		}
		if s.steps >= maxSteps {
			s.settle(s.solver.IntersectSegments(s.segments))
			break
		}

		if _, err := s.Step(); err != nil {
			s.logger.Warn("optimization stopped", zap.Int("steps", s.steps), zap.Error(err))
			break
		}
	}
	return s.Result(), nil
}

// Result reports the current state of the session.
func (s *Session) Result() Result {
	return Result{
		Steps:      s.steps,
		Converged:  s.converged,
		Diverged:   s.solver.Diverged(),
		Weights:    s.solver.Curve().Weights(),
		CostPoints: append([]curve.CostPoint(nil), s.costPoints...),
		FitPoints:  append([]geometry.Point(nil), s.fitPoints...),
	}
}

// CostPoints returns the accumulated cost points.
func (s *Session) CostPoints() []curve.CostPoint {
	return append([]curve.CostPoint(nil), s.costPoints...)
}

// settle marks the session converged when the curve crosses nothing and
// passes through both anchors.
func (s *Session) settle(intersections []curve.Intersection) bool {
	if len(intersections) == 0 && s.anchored() {
		s.converged = true
		s.logger.Info("curve converged",
			zap.Int("steps", s.steps),
			zap.Int("cost_points", len(s.costPoints)),
		)
	}
	return s.converged
}

func (s *Session) anchored() bool {
	return math.Abs(s.solver.Evaluate(curve.AnchorLeft)) < s.opts.AnchorTolerance &&
		math.Abs(s.solver.Evaluate(curve.AnchorRight)) < s.opts.AnchorTolerance
}

func (s *Session) nearCostPoint(p geometry.Point) bool {
	for _, cp := range s.costPoints {
		if p.Distance(cp.Point) < s.opts.MinSpacing {
			return true
		}
	}
	return false
}

func (s *Session) recentCostPoints() []curve.CostPoint {
	if s.opts.History <= 0 || len(s.costPoints) <= s.opts.History {
		return s.costPoints
	}
	return s.costPoints[len(s.costPoints)-s.opts.History:]
}
