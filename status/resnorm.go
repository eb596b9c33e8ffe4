package status

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/krylov/mvec"
	"github.com/katalvlaran/krylov/problem"
)

// unrecorded marks a column whose residual measure has never been
// evaluated. Residual measures are non-negative, so any negative value is
// safe as the marker.
const unrecorded = -1.0

// ResNorm is the convergence test: per active column it measures the
// native residual in the configured norm, scales it by the configured
// denominator, and compares the result against a single scalar tolerance.
//
// The test passes when AT LEAST one active column converged; the solver
// manager decides between full-group convergence and deflation by
// comparing ConvIndices against the active set.
type ResNorm struct {
	tol       float64
	normKind  NormKind
	scaleKind ScaleKind
	prob      *problem.Problem

	// scale holds the per-global-column denominator, captured on the
	// first Check so that a caller may reconfigure the test before any
	// iteration has run. A zero denominator falls back to 1 (unscaled)
	// for that column.
	scale []float64

	// recorded holds the last measured value per global column
	// (unrecorded for columns never checked). The running maximum over
	// these values across a whole solve is the achieved tolerance.
	recorded []float64

	convIdx []int
	status  Status
}

// NewResNorm builds a convergence test against the given problem handle.
func NewResNorm(p *problem.Problem, tol float64, norm NormKind, scale ScaleKind) (*ResNorm, error) {
	if tol <= 0 {
		return nil, fmt.Errorf("%w: got %g", ErrBadTolerance, tol)
	}
	if p == nil {
		return nil, problem.ErrNilVectors
	}

	return &ResNorm{
		tol:       tol,
		normKind:  norm,
		scaleKind: scale,
		prob:      p,
	}, nil
}

// Tolerance returns the configured scalar tolerance.
func (r *ResNorm) Tolerance() float64 { return r.tol }

// captureScale computes the per-column scale denominators once. It runs
// lazily on the first Check, after the problem has been finalized.
func (r *ResNorm) captureScale() error {
	n := r.prob.NumRHS()
	r.scale = make([]float64, n)
	r.recorded = make([]float64, n)
	for j := range r.recorded {
		r.recorded[j] = unrecorded
	}

	switch r.scaleKind {
	case Unscaled:
		for j := range r.scale {
			r.scale[j] = 1
		}

		return nil
	case ScaledByRHSNorm:
		return r.normsInto(r.prob.RHS())
	default: // ScaledByInitResNorm
		return r.normsInto(r.prob.InitResidual())
	}
}

// normsInto fills r.scale with the configured norm of src's columns,
// substituting 1 for any zero denominator.
func (r *ResNorm) normsInto(src mvec.MultiVec) error {
	if src == nil {
		return problem.ErrNotReady
	}
	for j := 0; j < src.NumVecs(); j++ {
		s := floats.Norm(src.ColView(j), r.normKind.p())
		if s == 0 {
			s = 1
		}
		r.scale[j] = s
	}

	return nil
}

// Check measures every active column and caches which global columns
// converged. It never returns Undefined once called.
func (r *ResNorm) Check(it Iteration) Status {
	// 1) Map active block positions to global columns.
	active := r.prob.CurrentIndices()
	k := len(active)
	if k == 0 {
		r.status = Failed

		return r.status
	}

	// 2) Capture scale denominators on first use.
	if r.scale == nil {
		if err := r.captureScale(); err != nil {
			r.status = Failed

			return r.status
		}
	}

	// 3) Pull the native residual block and its 2-norms in one query.
	norms := make([]float64, k)
	res := it.NativeResiduals(norms)

	// 4) Re-measure in a non-Euclidean norm when configured. The native
	//    2-norms are a by-product of the recurrence; other norms need
	//    the residual columns themselves.
	if r.normKind != TwoNorm && res != nil {
		for i := 0; i < k; i++ {
			norms[i] = floats.Norm(res.ColView(i), r.normKind.p())
		}
	}

	// 5) Scale, record, and collect converged global indices in active
	//    order (order preservation matters for deflation).
	r.convIdx = r.convIdx[:0]
	for i, g := range active {
		v := norms[i] / r.scale[g]
		r.recorded[g] = v
		if v <= r.tol {
			r.convIdx = append(r.convIdx, g)
		}
	}

	if len(r.convIdx) > 0 {
		r.status = Passed
	} else {
		r.status = Failed
	}

	return r.status
}

// Status returns the outcome of the most recent Check.
func (r *ResNorm) Status() Status { return r.status }

// Reset forgets cached outcomes, recorded values and scale denominators.
func (r *ResNorm) Reset() {
	r.status = Undefined
	r.convIdx = nil
	r.scale = nil
	r.recorded = nil
}

// ConvIndices returns the global column indices that passed at the most
// recent Check, in active-set order. The slice is reused across checks;
// callers must copy if they hold on to it.
func (r *ResNorm) ConvIndices() []int { return r.convIdx }

// AllConverged reports whether every one of the active columns passed at
// the most recent Check.
func (r *ResNorm) AllConverged(active int) bool {
	return active > 0 && len(r.convIdx) == active
}

// TestValues returns a copy of the last measured value per global
// column; entries for never-checked columns are negative.
func (r *ResNorm) TestValues() []float64 {
	if r.recorded == nil {
		return nil
	}
	out := make([]float64, len(r.recorded))
	copy(out, r.recorded)

	return out
}
