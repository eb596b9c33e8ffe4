package cg

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/krylov/mvec"
	"github.com/katalvlaran/krylov/problem"
	"github.com/katalvlaran/krylov/status"
)

// SingleRedCG is the single-reduction CG reformulation for one
// right-hand side. It carries W = A·R and S = A·P alongside the usual
// residual and direction, so both per-step inner products (γ = rᵀr and
// δ = wᵀr) come out of one fused reduction instead of two.
type SingleRedCG struct {
	prob *problem.Problem
	opts Options

	st *State
	x  mvec.MultiVec

	gamma    float64 // rᵀr
	delta    float64 // wᵀr = rᵀAr
	alphaOld float64
	gammaOld float64
	first    bool

	// foldedNorm caches √γ when FoldConvergence is on, so NativeResiduals
	// does not re-reduce the residual per check.
	foldedNorm float64

	iters int
	ready bool
}

// NewSingleRed builds the single-reduction kernel over the given problem
// handle.
func NewSingleRed(p *problem.Problem, opts ...Option) (*SingleRedCG, error) {
	if p == nil {
		return nil, ErrNilProblem
	}

	return &SingleRedCG{prob: p, opts: gatherOptions(opts)}, nil
}

// Variant reports SingleRed.
func (k *SingleRedCG) Variant() Variant { return SingleRed }

// NumIters returns the step counter.
func (k *SingleRedCG) NumIters() int { return k.iters }

// ResetNumIters zeroes the step counter.
func (k *SingleRedCG) ResetNumIters() { k.iters = 0 }

// SetBlockSize accepts only 1.
func (k *SingleRedCG) SetBlockSize(n int) error {
	if n != 1 {
		return fmt.Errorf("%w: single-reduction CG serves block size 1, got %d", ErrBadBlockSize, n)
	}

	return nil
}

// NativeResiduals returns the recurrence residual. With folded
// convergence the 2-norm is served from the fused reduction's √γ; the
// residual columns are never touched for the norm.
func (k *SingleRedCG) NativeResiduals(norms []float64) mvec.MultiVec {
	if k.st == nil || k.st.r == nil {
		return nil
	}
	if norms != nil {
		if k.opts.FoldConvergence {
			norms[0] = k.foldedNorm
		} else {
			_ = k.st.r.Norms(norms)
		}
	}

	return k.st.r
}

// Initialize binds the persisted state and the initial residual:
// R = r₀, W = A·R, P = R, S = W, then the first fused reduction
// γ = rᵀr, δ = wᵀr. The step counter is left untouched.
func (k *SingleRedCG) Initialize(st *State, r0 mvec.MultiVec) error {
	if st == nil || st.Variant() != SingleRed {
		return fmt.Errorf("%w: want %v", ErrStateMismatch, SingleRed)
	}
	if r0 == nil || r0.NumVecs() != 1 {
		return fmt.Errorf("%w: single-reduction CG requires a single residual column", ErrBadBlockSize)
	}

	dim := r0.Dim()
	r := ensureBlock(&st.r, dim, 1)
	p := ensureBlock(&st.p, dim, 1)
	w := ensureBlock(&st.w, dim, 1)
	s := ensureBlock(&st.s, dim, 1)

	copy(r.ColView(0), r0.ColView(0))
	if err := k.prob.Operator().Apply(w, r); err != nil {
		return err
	}
	copy(p.ColView(0), r.ColView(0))
	copy(s.ColView(0), w.ColView(0))

	x, err := k.prob.ActiveLHS()
	if err != nil {
		return err
	}

	k.st = st
	k.x = x
	k.gamma = floats.Dot(r.ColView(0), r.ColView(0))
	k.delta = floats.Dot(w.ColView(0), r.ColView(0))
	k.foldedNorm = math.Sqrt(k.gamma)
	k.first = true
	k.ready = true

	return nil
}

// Iterate advances the recurrence until the stopping test passes.
//
// Per step (Chronopoulos–Gear form):
//
//	β = γ/γ₋₁ (0 on the first step)
//	α = γ / (δ − β·γ/α₋₁)   (γ/δ on the first step)
//	p = r + β·p ;  s = w + β·s
//	x += α·p    ;  r −= α·s
//	w = A·r
//	γ, δ = rᵀr, wᵀr          (the single fused reduction)
func (k *SingleRedCG) Iterate(test status.Test) error {
	if !k.ready {
		return ErrUninitialized
	}

	a := k.prob.Operator()
	r := k.st.r.ColView(0)
	p := k.st.p.ColView(0)
	w := k.st.w.ColView(0)
	s := k.st.s.ColView(0)
	x := k.x.ColView(0)

	for {
		var alpha float64
		if k.first {
			if k.delta <= 0 && k.opts.AssertPositiveDefiniteness {
				return fmt.Errorf("%w: rᵀAr = %g at iteration %d", ErrNotPositiveDefinite, k.delta, k.iters)
			}
			alpha = k.gamma / k.delta
			k.first = false
		} else {
			beta := k.gamma / k.gammaOld
			den := k.delta - beta*k.gamma/k.alphaOld
			if den <= 0 && k.opts.AssertPositiveDefiniteness {
				return fmt.Errorf("%w: pᵀAp = %g at iteration %d", ErrNotPositiveDefinite, den, k.iters)
			}
			alpha = k.gamma / den

			floats.Scale(beta, p)
			floats.Add(p, r)
			floats.Scale(beta, s)
			floats.Add(s, w)
		}

		floats.AddScaled(x, alpha, p)
		floats.AddScaled(r, -alpha, s)
		k.iters++

		if err := a.Apply(k.st.w, k.st.r); err != nil {
			return err
		}

		k.gammaOld = k.gamma
		k.alphaOld = alpha
		k.gamma = floats.Dot(r, r)
		k.delta = floats.Dot(w, r)
		if math.IsNaN(k.gamma) || math.IsNaN(k.delta) {
			return fmt.Errorf("%w: fused reduction at iteration %d", ErrNaN, k.iters)
		}
		k.foldedNorm = math.Sqrt(k.gamma)

		if test.Check(k) == status.Passed {
			return nil
		}
	}
}
