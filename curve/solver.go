package curve

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"curve-planner/geometry"
	"curve-planner/roots"
)

// The curve is anchored at (AnchorLeft, 0) and (AnchorRight, 0).
const (
	AnchorLeft  = -0.5
	AnchorRight = 0.5
)

// VerticalSlope marks an intersection with a vertical segment, whose slope
// is undefined.
const VerticalSlope = math.MaxFloat64

// boundsSamples is the number of intervals [-0.5, 0.5] is split into when
// penalizing large |y|.
const boundsSamples = 10

// intersectPadding widens the root search interval beyond a segment's x
// range so roots at the segment endpoints are still bracketed.
const intersectPadding = 0.01

// CostPoint is a point the curve is pushed away from, weighted by Cost.
type CostPoint struct {
	geometry.Point
	Cost float64 `json:"cost"`
	// Slope of the obstacle segment the point was found on, when HasSlope.
	Slope    float64 `json:"slope,omitempty"`
	HasSlope bool    `json:"-"`
}

// NewCostPoint returns a cost point at p with the default cost of 1.
func NewCostPoint(p geometry.Point) CostPoint {
	return CostPoint{Point: p, Cost: 1}
}

// Intersection is a point where the curve crosses an obstacle segment,
// together with that segment's slope.
type Intersection struct {
	geometry.Point
	Slope float64 `json:"slope"`
}

// CostPoint converts the intersection into a cost point of cost 1 that
// keeps the slope.
func (in Intersection) CostPoint() CostPoint {
	return CostPoint{Point: in.Point, Cost: 1, Slope: in.Slope, HasSlope: true}
}

// GradientOptions configures FitGradient.
type GradientOptions struct {
	// Epochs is the number of gradient steps.
	Epochs int
	// LearningRate is the step size.
	LearningRate float64
	// L2Lambda is the strength of the weight decay.
	L2Lambda float64
	// TargetWeight scales the pull towards the anchors.
	TargetWeight float64
	// OutOfBoundsCost scales the penalty on large |y| inside [-0.5, 0.5].
	OutOfBoundsCost float64
	// DegreeDecayFactor attenuates the step of weight i by factor^i.
	DegreeDecayFactor float64
}

// DefaultGradientOptions returns the stock optimizer settings.
func DefaultGradientOptions() GradientOptions {
	return GradientOptions{
		Epochs:            1000,
		LearningRate:      0.01,
		L2Lambda:          0.1,
		TargetWeight:      1,
		OutOfBoundsCost:   0.1,
		DegreeDecayFactor: 0.5,
	}
}

// Solver fits the weights of a Curve in place. It is not safe for
// concurrent use; give each goroutine its own Solver over a cloned Curve.
type Solver struct {
	curve     Curve
	findRoots roots.Finder
	logger    *zap.Logger
}

// Option configures a Solver.
type Option func(*Solver)

// WithLogger sets the logger. The solver logs under the name "solver".
func WithLogger(logger *zap.Logger) Option {
	return func(s *Solver) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRootFinder selects the root finder used by IntersectSegments.
func WithRootFinder(f roots.Finder) Option {
	return func(s *Solver) {
		if f != nil {
			s.findRoots = f
		}
	}
}

// NewSolver returns a solver that owns c. Newton-Raphson is the default root
// finder.
func NewSolver(c Curve, opts ...Option) *Solver {
	s := &Solver{
		curve:     c,
		findRoots: roots.NewtonRaphson,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("solver")
	return s
}

// Curve returns the curve being fitted.
func (s *Solver) Curve() Curve {
	return s.curve
}

// Evaluate returns the curve value at x.
func (s *Solver) Evaluate(x float64) float64 {
	return s.curve.Evaluate(x)
}

// Diverged reports whether the weights contain NaN or Inf.
func (s *Solver) Diverged() bool {
	return !Finite(s.curve)
}

// FitGradient runs opts.Epochs steps of gradient descent pushing the curve
// away from points while pulling it through both anchors. Each step sums
//
//   - repulsion: -sign(d)·min(1/d², 1)·b_i(x)·cost per point, d = y(x) - point.y
//   - anchors: 2·y(a)·b_i(a)·TargetWeight for a = ±0.5
//   - bounds: 2·sign(y)·b_i(x)·y²·OutOfBoundsCost/10 at x = -0.5, -0.4, ..., 0.5
//
// scales the sum by LearningRate·DegreeDecayFactor^i, adds the L2 term
// 2·L2Lambda·w_i and moves w_i by -LearningRate times the result.
//
// FitGradient refuses to start on non-finite weights and stops at the first
// epoch that produces them; both cases return ErrNumericDivergence and leave
// the offending weights in place.
func (s *Solver) FitGradient(points []CostPoint, opts GradientOptions) error {
	const op = "Solver.FitGradient"

	if s.Diverged() {
		return &Error{Op: op, Err: ErrNumericDivergence}
	}

	w := s.curve.Weights()
	n := len(w)
	gradients := make([]float64, n)
	decay := make([]float64, n)
	for i := range decay {
		decay[i] = opts.LearningRate * math.Pow(opts.DegreeDecayFactor, float64(i))
	}

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		for i := range gradients {
			gradients[i] = 0
		}

		// Repulsion falls off with the squared distance, capped at 1 for
		// points closer than one unit.
		for _, p := range points {
			dist := s.curve.Evaluate(p.X) - p.Y
			factor := math.Min(1/(dist*dist), 1)
			sg := sign(dist)
			for i := 0; i < n; i++ {
				gradients[i] -= sg * factor * s.curve.Term(i, p.X) * p.Cost
			}
		}

		yLeft := s.curve.Evaluate(AnchorLeft)
		yRight := s.curve.Evaluate(AnchorRight)
		for i := 0; i < n; i++ {
			gradients[i] += 2 * yLeft * s.curve.Term(i, AnchorLeft) * opts.TargetWeight
			gradients[i] += 2 * yRight * s.curve.Term(i, AnchorRight) * opts.TargetWeight
		}

		for j := 0; j <= boundsSamples; j++ {
			x := AnchorLeft + float64(j)/boundsSamples
			y := s.curve.Evaluate(x)
			cost := y * y * opts.OutOfBoundsCost / boundsSamples
			for i := 0; i < n; i++ {
				gradients[i] += 2 * sign(y) * s.curve.Term(i, x) * cost
			}
		}

		for i := 0; i < n; i++ {
			gradients[i] *= decay[i]
			gradients[i] += 2 * opts.L2Lambda * w[i]
			w[i] -= opts.LearningRate * gradients[i]
		}
		s.curve.SetWeights(w)

		if s.Diverged() {
			s.logger.Warn("weights diverged",
				zap.Int("epoch", epoch),
				zap.Float64("learning_rate", opts.LearningRate),
			)
			return &Error{Op: op, Err: fmt.Errorf("epoch %d: %w", epoch, ErrNumericDivergence)}
		}
	}

	s.logger.Debug("gradient fit done",
		zap.Int("epochs", opts.Epochs),
		zap.Int("cost_points", len(points)),
		zap.Float64s("weights", w),
	)
	return nil
}

// FitSVD replaces the weights by the least-squares solution through the fit
// points and both anchors, using a truncated SVD pseudo-inverse that keeps
// the k largest singular values. k <= 0, or k larger than the number of
// singular values, keeps all of them.
//
// The first two rows of the system pin y(-0.5) = 0 and y(0.5) = 0; every fit
// point adds one row. With fewer rows than weights the system is
// underdetermined and FitSVD instead runs a single gradient epoch with the
// fit points as unit cost points.
func (s *Solver) FitSVD(points []geometry.Point, k int) error {
	const op = "Solver.FitSVD"

	if s.Diverged() {
		return &Error{Op: op, Err: ErrNumericDivergence}
	}

	cols := s.curve.Degree() + 1
	rows := len(points) + 2

	if rows < cols {
		s.logger.Debug("underdetermined system, falling back to gradient descent",
			zap.Int("rows", rows),
			zap.Int("cols", cols),
		)
		costPoints := make([]CostPoint, len(points))
		for i, p := range points {
			costPoints[i] = NewCostPoint(p)
		}
		opts := DefaultGradientOptions()
		opts.Epochs = 1
		return s.FitGradient(costPoints, opts)
	}

	X := mat.NewDense(rows, cols, nil)
	y := mat.NewVecDense(rows, nil)
	for i := 0; i < cols; i++ {
		X.Set(0, i, s.curve.Term(i, AnchorLeft))
		X.Set(1, i, s.curve.Term(i, AnchorRight))
	}
	for r, p := range points {
		for i := 0; i < cols; i++ {
			X.Set(r+2, i, s.curve.Term(i, p.X))
		}
		y.SetVec(r+2, p.Y)
	}

	var svd mat.SVD
	if ok := svd.Factorize(X, mat.SVDThin); !ok {
		return &Error{Op: op, Err: ErrFactorization}
	}

	values := svd.Values(nil)
	if k <= 0 || k > len(values) {
		k = len(values)
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// w = V_k · Σ_k⁻¹ · U_kᵀ · y, skipping zero singular values.
	w := mat.NewVecDense(cols, nil)
	for j := 0; j < k; j++ {
		if values[j] == 0 {
			continue
		}
		coef := mat.Dot(u.ColView(j), y) / values[j]
		w.AddScaledVec(w, coef, v.ColView(j))
	}

	weights := make([]float64, cols)
	for i := range weights {
		weights[i] = w.AtVec(i)
	}
	s.curve.SetWeights(weights)

	s.logger.Debug("svd fit done",
		zap.Int("rows", rows),
		zap.Int("cols", cols),
		zap.Int("rank", k),
		zap.Float64s("singular_values", values),
	)
	return nil
}

// IntersectSegments returns every point where the curve crosses one of the
// segments. A vertical segment is crossed when y(x) lies strictly inside its
// y range and reports VerticalSlope. Other segments are intersected by
// finding the roots of y(x) - (m·x + b) slightly beyond the segment's x
// range and keeping those inside it.
func (s *Solver) IntersectSegments(segments []geometry.Segment) []Intersection {
	var out []Intersection

	for _, seg := range segments {
		x1, y1 := seg.P1.X, seg.P1.Y
		x2, y2 := seg.P2.X, seg.P2.Y

		if x1 == x2 {
			y := s.curve.Evaluate(x1)
			if y > math.Min(y1, y2) && y < math.Max(y1, y2) {
				out = append(out, Intersection{Point: geometry.Pt(x1, y), Slope: VerticalSlope})
			}
			continue
		}

		m := (y2 - y1) / (x2 - x1)
		b := y1 - m*x1
		lo, hi := math.Min(x1, x2), math.Max(x1, x2)

		f := func(x float64) float64 {
			return s.curve.Evaluate(x) - (m*x + b)
		}
		for _, x := range s.findRoots(f, lo-intersectPadding, hi+intersectPadding) {
			if x < lo || x > hi {
				continue
			}
			out = append(out, Intersection{Point: geometry.Pt(x, m*x+b), Slope: m})
		}
	}

	return out
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
