// Package curve implements the parametric curves y = f(x) bent around
// obstacles and the solver that fits their weights.
//
// Every curve is a linear combination of basis functions,
//
//	y(x) = W0·b0(x) + W1·b1(x) + ... + Wn·bn(x)
//
// so the solver only needs the value of each basis function (Term) to build
// gradients and least-squares systems. Polynomial uses the monomials x^i,
// Bump uses bell-shaped functions centred across [-0.5, 0.5].
package curve

import (
	"fmt"
	"math"
)

// Curve is a weighted sum of basis functions. Implementations own their
// weight vector; Weights returns a copy and SetWeights copies in.
type Curve interface {
	// Evaluate returns y(x).
	Evaluate(x float64) float64
	// Term returns the i-th basis function at x, which is also the partial
	// derivative of Evaluate with respect to weight i.
	Term(i int, x float64) float64
	// Degree is len(Weights()) - 1.
	Degree() int
	Weights() []float64
	// SetWeights replaces the weights. w must have Degree()+1 entries.
	SetWeights(w []float64)
	// IncreaseDegree appends one basis function with a zero weight.
	IncreaseDegree()
	// Clone returns an independent copy.
	Clone() Curve
}

// Basis names a family of basis functions.
type Basis string

const (
	BasisPolynomial Basis = "polynomial"
	BasisBump       Basis = "bump"
)

// New returns a flat curve of the given basis and degree. The empty basis
// selects BasisPolynomial.
func New(basis Basis, degree int) (Curve, error) {
	switch basis {
	case "", BasisPolynomial:
		return NewPolynomial(degree), nil
	case BasisBump:
		return NewBump(degree), nil
	}
	return nil, fmt.Errorf("unknown basis %q", basis)
}

// Polynomial is y = W0 + W1·x + W2·x² + ... + Wn·xⁿ.
type Polynomial struct {
	w []float64
}

// NewPolynomial returns the zero polynomial of the given degree.
func NewPolynomial(degree int) *Polynomial {
	if degree < 0 {
		degree = 0
	}
	return &Polynomial{w: make([]float64, degree+1)}
}

// PolynomialOf returns a polynomial with a copy of the given coefficients,
// lowest power first.
func PolynomialOf(weights ...float64) *Polynomial {
	if len(weights) == 0 {
		return NewPolynomial(0)
	}
	return &Polynomial{w: append([]float64(nil), weights...)}
}

// Evaluate uses Horner's scheme.
func (p *Polynomial) Evaluate(x float64) float64 {
	y := 0.0
	for i := len(p.w) - 1; i >= 0; i-- {
		y = y*x + p.w[i]
	}
	return y
}

func (p *Polynomial) Term(i int, x float64) float64 {
	return math.Pow(x, float64(i))
}

func (p *Polynomial) Degree() int {
	return len(p.w) - 1
}

func (p *Polynomial) Weights() []float64 {
	return append([]float64(nil), p.w...)
}

func (p *Polynomial) SetWeights(w []float64) {
	if len(w) != len(p.w) {
		panic("curve: weight vector length does not match degree")
	}
	copy(p.w, w)
}

func (p *Polynomial) IncreaseDegree() {
	p.w = append(p.w, 0)
}

func (p *Polynomial) Clone() Curve {
	return PolynomialOf(p.w...)
}

// BumpWidth is the k in k / ((x-c)² + k); it sets how far a bump reaches.
const BumpWidth = 0.01

// Bump is a sum of bumps k / ((x-c)² + k) whose centres c are spread evenly
// over [-0.5, 0.5]. Each weight mostly moves the curve near its own centre,
// unlike polynomial coefficients which act everywhere.
type Bump struct {
	w       []float64
	centres []float64
}

// NewBump returns a flat bump curve with degree+1 centres.
func NewBump(degree int) *Bump {
	if degree < 0 {
		degree = 0
	}
	b := &Bump{w: make([]float64, degree+1)}
	b.placeCentres()
	return b
}

// BumpOf returns a bump curve with a copy of the given weights.
func BumpOf(weights ...float64) *Bump {
	if len(weights) == 0 {
		return NewBump(0)
	}
	b := &Bump{w: append([]float64(nil), weights...)}
	b.placeCentres()
	return b
}

func (b *Bump) placeCentres() {
	n := len(b.w)
	b.centres = make([]float64, n)
	if n == 1 {
		return
	}
	for i := range b.centres {
		b.centres[i] = float64(i)/float64(n-1) - 0.5
	}
}

// Centres returns the bump centres in weight order.
func (b *Bump) Centres() []float64 {
	return append([]float64(nil), b.centres...)
}

func (b *Bump) Evaluate(x float64) float64 {
	y := 0.0
	for i, w := range b.w {
		y += w * b.Term(i, x)
	}
	return y
}

func (b *Bump) Term(i int, x float64) float64 {
	d := x - b.centres[i]
	return BumpWidth / (d*d + BumpWidth)
}

func (b *Bump) Degree() int {
	return len(b.w) - 1
}

func (b *Bump) Weights() []float64 {
	return append([]float64(nil), b.w...)
}

func (b *Bump) SetWeights(w []float64) {
	if len(w) != len(b.w) {
		panic("curve: weight vector length does not match degree")
	}
	copy(b.w, w)
}

// IncreaseDegree adds a centre and spreads all centres evenly again. Existing
// weights keep their index, so the curve shape shifts slightly.
func (b *Bump) IncreaseDegree() {
	b.w = append(b.w, 0)
	b.placeCentres()
}

func (b *Bump) Clone() Curve {
	return BumpOf(b.w...)
}

// Finite reports whether every weight of c is a finite number.
func Finite(c Curve) bool {
	for _, w := range c.Weights() {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return false
		}
	}
	return true
}
