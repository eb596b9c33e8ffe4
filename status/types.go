package status

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/krylov/mvec"
)

// Sentinel errors returned by the status tests.
var (
	// ErrUnknownNormKind indicates an unparseable residual-norm name.
	ErrUnknownNormKind = errors.New("status: unknown residual norm kind")

	// ErrUnknownScaleKind indicates an unparseable residual-scaling name.
	ErrUnknownScaleKind = errors.New("status: unknown residual scaling kind")

	// ErrBadTolerance indicates a non-positive convergence tolerance.
	ErrBadTolerance = errors.New("status: tolerance must be positive")

	// ErrBadMaxIters indicates a non-positive iteration cap.
	ErrBadMaxIters = errors.New("status: maximum iterations must be positive")
)

// Status is the tri-state outcome of a stopping test.
type Status int

const (
	// Undefined means the test has not been evaluated yet.
	Undefined Status = iota

	// Passed means the test's criterion is satisfied.
	Passed

	// Failed means the test was evaluated and its criterion is not satisfied.
	Failed
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case Passed:
		return "Passed"
	case Failed:
		return "Failed"
	default:
		return "Undefined"
	}
}

// Iteration is the narrow view of an iteration kernel that stopping
// tests consume: how many steps it has taken, and the native residual
// block of the currently active columns.
type Iteration interface {
	// NumIters returns the kernel's step counter.
	NumIters() int

	// NativeResiduals fills norms (when non-nil, length = active block
	// size) with the per-column 2-norms of the native residual and
	// returns the residual block itself.
	NativeResiduals(norms []float64) mvec.MultiVec
}

// Test is a stopping criterion evaluated after every kernel step.
type Test interface {
	// Check evaluates the criterion against the kernel's current state
	// and caches the outcome.
	Check(it Iteration) Status

	// Status returns the outcome of the most recent Check, or Undefined.
	Status() Status

	// Reset forgets any cached outcome and internal counters.
	Reset()
}

// NormKind selects the norm used to measure residual columns.
type NormKind int

const (
	// TwoNorm is the Euclidean norm (default).
	TwoNorm NormKind = iota

	// OneNorm is the sum of absolute values.
	OneNorm

	// InfNorm is the maximum absolute value.
	InfNorm
)

// ParseNormKind converts the conventional parameter strings to a NormKind.
func ParseNormKind(s string) (NormKind, error) {
	switch s {
	case "TwoNorm", "":
		return TwoNorm, nil
	case "OneNorm":
		return OneNorm, nil
	case "InfNorm":
		return InfNorm, nil
	default:
		return TwoNorm, fmt.Errorf("%w: %q", ErrUnknownNormKind, s)
	}
}

// String implements fmt.Stringer.
func (n NormKind) String() string {
	switch n {
	case OneNorm:
		return "OneNorm"
	case InfNorm:
		return "InfNorm"
	default:
		return "TwoNorm"
	}
}

// p returns the norm order for gonum's floats.Norm.
func (n NormKind) p() float64 {
	switch n {
	case OneNorm:
		return 1
	case InfNorm:
		return math.Inf(1)
	default:
		return 2
	}
}

// ScaleKind selects the denominator of the relative residual measure.
type ScaleKind int

const (
	// ScaledByInitResNorm divides by the initial-residual column norm (default).
	ScaledByInitResNorm ScaleKind = iota

	// ScaledByRHSNorm divides by the right-hand-side column norm.
	ScaledByRHSNorm

	// Unscaled compares the raw residual norm against the tolerance.
	Unscaled
)

// ParseScaleKind converts the conventional parameter strings to a ScaleKind.
func ParseScaleKind(s string) (ScaleKind, error) {
	switch s {
	case "Norm of Initial Residual", "":
		return ScaledByInitResNorm, nil
	case "Norm of RHS":
		return ScaledByRHSNorm, nil
	case "None":
		return Unscaled, nil
	default:
		return ScaledByInitResNorm, fmt.Errorf("%w: %q", ErrUnknownScaleKind, s)
	}
}

// String implements fmt.Stringer.
func (s ScaleKind) String() string {
	switch s {
	case ScaledByRHSNorm:
		return "Norm of RHS"
	case Unscaled:
		return "None"
	default:
		return "Norm of Initial Residual"
	}
}
