package blockcg

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/katalvlaran/krylov/ortho"
	"github.com/katalvlaran/krylov/problem"
	"github.com/katalvlaran/krylov/status"
)

// Sentinel errors returned by the solver manager.
var (
	// ErrProblemNotReady indicates Solve was called before the problem
	// handle was finalized with Setup.
	ErrProblemNotReady = fmt.Errorf("blockcg: %w", problem.ErrNotReady)

	// ErrNilProblem indicates a manager constructed without a problem handle.
	ErrNilProblem = errors.New("blockcg: linear problem handle is nil")

	// ErrNonPositiveBlockSize indicates a configured block size below 1.
	ErrNonPositiveBlockSize = errors.New("blockcg: block size must be at least 1")

	// ErrInvariantViolation indicates that after a kernel step neither the
	// convergence test nor the iteration-cap test was satisfied. This is a
	// logic defect in the stopping-test composite or the kernel, never a
	// property of the input system.
	ErrInvariantViolation = errors.New("blockcg: no status test passed after iteration")
)

// Result is the outcome of a solve.
type Result int

const (
	// Converged means every right-hand side's scaled residual measure
	// dropped below the tolerance.
	Converged Result = iota

	// Unconverged means at least one group exhausted the iteration cap,
	// or a NaN breakdown aborted the solve.
	Unconverged
)

// String implements fmt.Stringer.
func (r Result) String() string {
	if r == Converged {
		return "Converged"
	}

	return "Unconverged"
}

// Configuration defaults.
const (
	// DefaultBlockSize solves one right-hand side at a time.
	DefaultBlockSize = 1

	// DefaultMaxIterations caps each group's iteration count.
	DefaultMaxIterations = 1000

	// DefaultTolerance is the scaled-residual convergence threshold.
	DefaultTolerance = 1e-8

	// DefaultOutputFrequency disables progress logging.
	DefaultOutputFrequency = -1
)

// worstTolerance is the achieved-tolerance sentinel stamped when a NaN
// breakdown aborts the solve.
const worstTolerance = 1.0

// Options configures a SolverManager. The zero value is NOT usable;
// construct through New, which applies the defaults below.
type Options struct {
	// BlockSize is the number of right-hand sides iterated together.
	// Must be at least 1; New fails with ErrNonPositiveBlockSize otherwise.
	BlockSize int

	// AdaptiveBlockSize shrinks the block to the group's actual column
	// count instead of padding the index set with sentinel slots.
	// Default true.
	AdaptiveBlockSize bool

	// SingleReduction selects the fused-reduction kernel for width-1
	// groups. Default false.
	SingleReduction bool

	// MaxIterations caps each group's iteration count. Default 1000.
	MaxIterations int

	// Tolerance is the scaled-residual convergence threshold. Default 1e-8.
	Tolerance float64

	// OrthoKind selects the orthogonalization strategy for block groups.
	// Default ICGS.
	OrthoKind ortho.Kind

	// OrthoKappa overrides the DGKS reorthogonalization constant when
	// positive; zero keeps the strategy default.
	OrthoKappa float64

	// NormKind is the residual norm measured per column. Default TwoNorm.
	NormKind status.NormKind

	// ScaleKind is the per-column denominator applied to the measured
	// norm. Default ScaledByInitResNorm.
	ScaleKind status.ScaleKind

	// AssertPositiveDefiniteness makes the kernels fail on non-positive
	// pᵀAp instead of degrading silently. Default true.
	AssertPositiveDefiniteness bool

	// FoldConvergenceDetection folds the convergence-norm computation
	// into the single-reduction kernel's fused reduction. Default false.
	FoldConvergenceDetection bool

	// Logger receives progress and diagnostic records. Nil discards.
	Logger *slog.Logger

	// OutputFrequency logs solver progress every this many status checks;
	// non-positive disables progress logging. Default -1.
	OutputFrequency int
}

// Option is a functional option for configuring a SolverManager.
type Option func(*Options)

// WithBlockSize sets the number of right-hand sides iterated together.
func WithBlockSize(n int) Option {
	return func(o *Options) { o.BlockSize = n }
}

// WithAdaptiveBlockSize toggles shrinking the block to the group's actual
// column count.
func WithAdaptiveBlockSize(on bool) Option {
	return func(o *Options) { o.AdaptiveBlockSize = on }
}

// WithSingleReduction toggles the fused-reduction kernel for width-1 groups.
func WithSingleReduction(on bool) Option {
	return func(o *Options) { o.SingleReduction = on }
}

// WithMaxIterations sets the per-group iteration cap.
func WithMaxIterations(n int) Option {
	return func(o *Options) { o.MaxIterations = n }
}

// WithTolerance sets the scaled-residual convergence threshold.
func WithTolerance(tol float64) Option {
	return func(o *Options) { o.Tolerance = tol }
}

// WithOrthoKind selects the orthogonalization strategy for block groups.
func WithOrthoKind(k ortho.Kind) Option {
	return func(o *Options) { o.OrthoKind = k }
}

// WithOrthoKappa overrides the DGKS reorthogonalization constant.
func WithOrthoKappa(kappa float64) Option {
	return func(o *Options) { o.OrthoKappa = kappa }
}

// WithNormKind sets the residual norm measured per column.
func WithNormKind(k status.NormKind) Option {
	return func(o *Options) { o.NormKind = k }
}

// WithScaleKind sets the denominator applied to the measured norm.
func WithScaleKind(k status.ScaleKind) Option {
	return func(o *Options) { o.ScaleKind = k }
}

// WithAssertPositiveDefiniteness toggles the kernels' pᵀAp > 0 assertion.
func WithAssertPositiveDefiniteness(on bool) Option {
	return func(o *Options) { o.AssertPositiveDefiniteness = on }
}

// WithFoldConvergenceDetection toggles folding the convergence norm into
// the single-reduction kernel's fused reduction.
func WithFoldConvergenceDetection(on bool) Option {
	return func(o *Options) { o.FoldConvergenceDetection = on }
}

// WithLogger sets the destination for progress and diagnostic records.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithOutputFrequency logs solver progress every n status checks;
// non-positive disables progress logging.
func WithOutputFrequency(n int) Option {
	return func(o *Options) { o.OutputFrequency = n }
}

// gatherOptions applies functional options over the defaults.
func gatherOptions(opts []Option) Options {
	cfg := Options{
		BlockSize:                  DefaultBlockSize,
		AdaptiveBlockSize:          true,
		MaxIterations:              DefaultMaxIterations,
		Tolerance:                  DefaultTolerance,
		OrthoKind:                  ortho.ICGS,
		NormKind:                   status.TwoNorm,
		ScaleKind:                  status.ScaledByInitResNorm,
		AssertPositiveDefiniteness: true,
		OutputFrequency:            DefaultOutputFrequency,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}
