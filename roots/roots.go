// Package roots finds the zeros of scalar functions on a closed interval.
package roots

import "math"

const (
	// Epsilon is the residual below which |f(x)| counts as a root. It doubles
	// as the finite-difference step and the duplicate-root distance.
	Epsilon = 1e-6

	newtonSeeds         = 10
	newtonMaxIterations = 20

	bisectionSteps         = 1000
	bisectionMaxIterations = 100
)

// Func is a scalar function of one variable.
type Func func(x float64) float64

// Finder returns the roots of f found within [a, b].
type Finder func(f Func, a, b float64) []float64

// NewtonRaphson runs Newton iterations from 11 evenly spaced seeds across
// [a, b] using a forward-difference derivative. A seed is abandoned when its
// iterate leaves the interval or the derivative vanishes.
//
// Roots lying between seeds whose basins do not reach them are missed. Use
// Bisection when the interval has to be searched exhaustively.
func NewtonRaphson(f Func, a, b float64) []float64 {
	var found []float64

	for i := 0; i <= newtonSeeds; i++ {
		x := a + (b-a)*(float64(i)/newtonSeeds)
		for j := 0; j < newtonMaxIterations; j++ {
			fx := f(x)
			if math.Abs(fx) < Epsilon {
				found = appendUnique(found, x)
				break
			}

			dfx := (f(x+Epsilon) - fx) / Epsilon
			if dfx == 0 || math.IsNaN(dfx) {
				break
			}
			x -= fx / dfx
			if x < a || x > b {
				break
			}
		}
	}

	return found
}

// Bisection scans [a, b] in 1000 equal steps and bisects every step whose
// endpoints do not have the same sign.
func Bisection(f Func, a, b float64) []float64 {
	var found []float64
	step := (b - a) / bisectionSteps
	if step <= 0 {
		return found
	}

	for i := 0; i < bisectionSteps; i++ {
		left := a + float64(i)*step
		right := left + step
		fLeft := f(left)
		fRight := f(right)

		if math.Abs(fLeft) < Epsilon {
			// The bracket starts on a root.
			found = appendUnique(found, left)
			continue
		}
		if fLeft*fRight > 0 || math.IsNaN(fLeft*fRight) {
			continue
		}

		for k := 0; k < bisectionMaxIterations; k++ {
			mid := (left + right) / 2
			fMid := f(mid)

			if math.Abs(fMid) < Epsilon {
				found = appendUnique(found, mid)
				break
			}

			if fLeft*fMid < 0 {
				right = mid
			} else {
				left = mid
				fLeft = fMid
			}
		}
	}

	return found
}

func appendUnique(found []float64, x float64) []float64 {
	for _, r := range found {
		if math.Abs(r-x) < Epsilon {
			return found
		}
	}
	return append(found, x)
}
