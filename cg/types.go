package cg

import (
	"errors"

	"github.com/katalvlaran/krylov/mvec"
	"github.com/katalvlaran/krylov/status"
)

// Sentinel errors returned by the iteration kernels.
var (
	// ErrNaN indicates that a NaN surfaced in the recurrence. This is a
	// recognized numerical-breakdown condition: the caller absorbs it
	// (zeroing the solution and reporting non-convergence) rather than
	// treating it as fatal.
	ErrNaN = errors.New("cg: NaN detected in iteration")

	// ErrNotPositiveDefinite indicates a non-positive pᵀAp (or a failed
	// Cholesky factorization of PᵀAP), meaning the operator is not
	// symmetric positive-definite over the current directions.
	ErrNotPositiveDefinite = errors.New("cg: operator is not positive definite")

	// ErrUninitialized indicates that Iterate was called before Initialize.
	ErrUninitialized = errors.New("cg: kernel is not initialized")

	// ErrBadBlockSize indicates a block size the kernel variant cannot
	// serve (scalar variants require exactly 1; block requires ≥ 1).
	ErrBadBlockSize = errors.New("cg: invalid block size for kernel variant")

	// ErrStateMismatch indicates a persisted State whose variant tag does
	// not match the kernel it was handed to. The solver manager replaces
	// the state wholesale instead of ever triggering this.
	ErrStateMismatch = errors.New("cg: state variant does not match kernel")

	// ErrOrthoFailure indicates that the direction block could not be
	// orthonormalized (rank collapse of the search space).
	ErrOrthoFailure = errors.New("cg: direction block orthogonalization failed")

	// ErrNilProblem indicates a kernel constructed without a problem handle.
	ErrNilProblem = errors.New("cg: linear problem handle is nil")

	// ErrNilOrtho indicates a block kernel constructed without an
	// orthogonalization manager.
	ErrNilOrtho = errors.New("cg: orthogonalization manager is nil")
)

// Variant tags the three kernel flavors. The solver manager binds a
// persisted State to a Variant and replaces the state wholesale when the
// selected kernel's tag differs.
type Variant int

const (
	// Scalar is the textbook single-RHS recurrence.
	Scalar Variant = iota

	// SingleRed is the fused-reduction single-RHS recurrence.
	SingleRed

	// Block is the block recurrence over multiple right-hand sides.
	Block
)

// String implements fmt.Stringer.
func (v Variant) String() string {
	switch v {
	case SingleRed:
		return "SingleReductionCG"
	case Block:
		return "BlockCG"
	default:
		return "CG"
	}
}

// State is the variant-tagged recurrence state persisted across groups
// of right-hand sides: residual, direction and operator-image blocks,
// plus the extra blocks the single-reduction variant carries. Blocks are
// (re)allocated lazily by Initialize and reused whenever shapes match.
type State struct {
	variant Variant

	r  *mvec.Dense // residual block
	p  *mvec.Dense // direction block
	ap *mvec.Dense // A·P
	w  *mvec.Dense // SingleRed: A·R; Block: direction scratch
	s  *mvec.Dense // SingleRed: A·P running image
}

// NewState allocates an empty state for the given kernel variant.
func NewState(v Variant) *State { return &State{variant: v} }

// Variant reports the kernel flavor this state belongs to.
func (s *State) Variant() Variant { return s.variant }

// block returns *dst resized to dim×k, reusing the allocation when the
// shape already matches.
func ensureBlock(dst **mvec.Dense, dim, k int) *mvec.Dense {
	b := *dst
	if b == nil || b.Dim() != dim || b.NumVecs() != k {
		b = mvec.NewDense(dim, k)
		*dst = b
	}

	return b
}

// Kernel is the capability surface the solver manager consumes
// uniformly across the three variants. Every kernel also satisfies
// status.Iteration, so stopping tests can interrogate it directly.
//
// A kernel instance is not safe for concurrent use, and Iterate must
// never be invoked while a previous Iterate on the same instance is
// still running.
type Kernel interface {
	status.Iteration

	// Variant reports the kernel flavor.
	Variant() Variant

	// Initialize binds the persisted state and the group's initial
	// residual block and prepares the recurrence. Re-initializing after
	// deflation does NOT reset the step counter.
	Initialize(st *State, r0 mvec.MultiVec) error

	// Iterate advances the recurrence one step at a time until the
	// given stopping test reports Passed. It returns ErrNaN on
	// numerical breakdown, ErrNotPositiveDefinite when the assertion
	// trips, or any operator error unchanged.
	Iterate(test status.Test) error

	// ResetNumIters zeroes the step counter (once per group).
	ResetNumIters()

	// SetBlockSize adjusts the number of columns iterated on; used by
	// deflation to shrink the working set.
	SetBlockSize(n int) error
}

// Options configures kernel behavior. Zero value means defaults.
type Options struct {
	// AssertPositiveDefiniteness makes the scalar kernels fail with
	// ErrNotPositiveDefinite when pᵀAp ≤ 0 instead of letting the
	// recurrence degrade. Default true.
	AssertPositiveDefiniteness bool

	// FoldConvergence folds the residual-norm evaluation into the
	// single-reduction kernel's fused reduction, saving the separate
	// norm pass per step. Only the SingleRed variant negotiates it.
	FoldConvergence bool
}

// Option is a functional option for configuring a kernel.
type Option func(*Options)

// WithAssertPositiveDefiniteness toggles the pᵀAp > 0 assertion.
func WithAssertPositiveDefiniteness(on bool) Option {
	return func(o *Options) { o.AssertPositiveDefiniteness = on }
}

// WithFoldConvergence toggles folding the convergence-norm computation
// into the fused reduction of the single-reduction kernel.
func WithFoldConvergence(on bool) Option {
	return func(o *Options) { o.FoldConvergence = on }
}

// gatherOptions applies functional options over the defaults.
func gatherOptions(opts []Option) Options {
	cfg := Options{AssertPositiveDefiniteness: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}
