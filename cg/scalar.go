package cg

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/krylov/mvec"
	"github.com/katalvlaran/krylov/problem"
	"github.com/katalvlaran/krylov/status"
)

// ScalarCG is the textbook Conjugate-Gradient recurrence for a single
// right-hand side: per step, one operator application and two inner
// products (pᵀAp and the refreshed rᵀr).
type ScalarCG struct {
	prob *problem.Problem
	opts Options

	st *State
	x  mvec.MultiVec // active solution column, a view into the global LHS

	rho   float64 // rᵀr carried between steps
	iters int
	ready bool
}

// NewScalar builds the scalar kernel over the given problem handle.
func NewScalar(p *problem.Problem, opts ...Option) (*ScalarCG, error) {
	if p == nil {
		return nil, ErrNilProblem
	}

	return &ScalarCG{prob: p, opts: gatherOptions(opts)}, nil
}

// Variant reports Scalar.
func (k *ScalarCG) Variant() Variant { return Scalar }

// NumIters returns the step counter.
func (k *ScalarCG) NumIters() int { return k.iters }

// ResetNumIters zeroes the step counter.
func (k *ScalarCG) ResetNumIters() { k.iters = 0 }

// SetBlockSize accepts only 1; the scalar recurrence has no block.
func (k *ScalarCG) SetBlockSize(n int) error {
	if n != 1 {
		return fmt.Errorf("%w: scalar CG serves block size 1, got %d", ErrBadBlockSize, n)
	}

	return nil
}

// NativeResiduals returns the recurrence residual and fills its 2-norm.
func (k *ScalarCG) NativeResiduals(norms []float64) mvec.MultiVec {
	if k.st == nil || k.st.r == nil {
		return nil
	}
	if norms != nil {
		_ = k.st.r.Norms(norms)
	}

	return k.st.r
}

// Initialize binds the persisted state and the initial residual, and
// primes the recurrence: p₀ = r₀, ρ₀ = r₀ᵀr₀. The step counter is left
// untouched so deflation re-initialization keeps counting.
func (k *ScalarCG) Initialize(st *State, r0 mvec.MultiVec) error {
	if st == nil || st.Variant() != Scalar {
		return fmt.Errorf("%w: want %v", ErrStateMismatch, Scalar)
	}
	if r0 == nil || r0.NumVecs() != 1 {
		return fmt.Errorf("%w: scalar CG requires a single residual column", ErrBadBlockSize)
	}

	dim := r0.Dim()
	r := ensureBlock(&st.r, dim, 1)
	p := ensureBlock(&st.p, dim, 1)
	ensureBlock(&st.ap, dim, 1)

	copy(r.ColView(0), r0.ColView(0))
	copy(p.ColView(0), r0.ColView(0))

	x, err := k.prob.ActiveLHS()
	if err != nil {
		return err
	}

	k.st = st
	k.x = x
	k.rho = floats.Dot(r.ColView(0), r.ColView(0))
	k.ready = true

	return nil
}

// Iterate advances the recurrence until the stopping test passes.
//
// Per step:
//
//	Ap   = A·p
//	α    = ρ / pᵀAp
//	x   += α·p ;  r −= α·Ap
//	ρ'   = rᵀr ;  β = ρ'/ρ ;  p = r + β·p
func (k *ScalarCG) Iterate(test status.Test) error {
	if !k.ready {
		return ErrUninitialized
	}

	a := k.prob.Operator()
	r := k.st.r.ColView(0)
	p := k.st.p.ColView(0)
	ap := k.st.ap.ColView(0)
	x := k.x.ColView(0)

	for {
		if err := a.Apply(k.st.ap, k.st.p); err != nil {
			return err
		}

		pap := floats.Dot(p, ap)
		if math.IsNaN(pap) {
			return fmt.Errorf("%w: pᵀAp at iteration %d", ErrNaN, k.iters)
		}
		if pap <= 0 && k.opts.AssertPositiveDefiniteness {
			return fmt.Errorf("%w: pᵀAp = %g at iteration %d", ErrNotPositiveDefinite, pap, k.iters)
		}

		alpha := k.rho / pap
		floats.AddScaled(x, alpha, p)
		floats.AddScaled(r, -alpha, ap)
		k.iters++

		rhoOld := k.rho
		k.rho = floats.Dot(r, r)
		if math.IsNaN(k.rho) {
			return fmt.Errorf("%w: rᵀr at iteration %d", ErrNaN, k.iters)
		}

		if test.Check(k) == status.Passed {
			return nil
		}

		beta := k.rho / rhoOld
		floats.Scale(beta, p)
		floats.Add(p, r)
	}
}
