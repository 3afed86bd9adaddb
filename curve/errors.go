package curve

import (
	"errors"
	"fmt"
)

var (
	// ErrNumericDivergence means the weights contain NaN or Inf, usually
	// after a too large learning rate. Fits refuse to run on such weights.
	ErrNumericDivergence = errors.New("weights are not finite")

	// ErrFactorization means the singular value decomposition failed.
	ErrFactorization = errors.New("singular value decomposition failed")
)

// Error records the solver operation that produced an error.
type Error struct {
	// Op is the operation that failed, e.g. "Solver.FitSVD".
	Op string
	// Err is the underlying error, normally one of the sentinels above.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("curve: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
