// Package cg_test exercises the three iteration kernels against small
// dense SPD systems: convergence to the true solution, iteration-count
// bounds from clustered spectra, breakdown reporting, and the state
// reuse contract.
package cg_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/krylov/cg"
	"github.com/katalvlaran/krylov/mvec"
	"github.com/katalvlaran/krylov/ortho"
	"github.com/katalvlaran/krylov/problem"
	"github.com/katalvlaran/krylov/status"
)

// spdMatrix builds a diagonally dominant symmetric matrix, which is
// guaranteed positive definite.
func spdMatrix(n int, seed int64) *mat.SymDense {
	rng := rand.New(rand.NewSource(seed))
	a := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a.SetSym(i, j, rng.Float64()-0.5)
		}
	}
	for i := 0; i < n; i++ {
		a.SetSym(i, i, float64(n)+rng.Float64())
	}

	return a
}

// newProblem wires a ready problem with zero initial guess, random RHS,
// and all columns active.
func newProblem(t *testing.T, op mvec.Operator, n, nrhs int, seed int64) *problem.Problem {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	x := mvec.NewDense(n, nrhs)
	b := mvec.NewDense(n, nrhs)
	for j := 0; j < nrhs; j++ {
		c := b.ColView(j)
		for i := range c {
			c[i] = rng.NormFloat64()
		}
	}

	p := problem.New(op, x, b)
	require.NoError(t, p.Setup())

	idx := make([]int, nrhs)
	for j := range idx {
		idx[j] = j
	}
	require.NoError(t, p.SetActiveColumns(idx))

	return p
}

// newTest builds the usual convergence-or-cap composite.
func newTest(t *testing.T, p *problem.Problem, tol float64, maxIt int) (*status.Combo, *status.ResNorm, *status.MaxIters) {
	t.Helper()
	conv, err := status.NewResNorm(p, tol, status.TwoNorm, status.ScaledByInitResNorm)
	require.NoError(t, err)
	cap, err := status.NewMaxIters(maxIt)
	require.NoError(t, err)

	return status.NewCombo(conv, cap), conv, cap
}

// assertSolved checks the true residual b − A·x column by column.
func assertSolved(t *testing.T, p *problem.Problem, tol float64) {
	t.Helper()
	n, nrhs := p.Dim(), p.NumRHS()
	ax := mvec.NewDense(n, nrhs)
	require.NoError(t, p.Operator().Apply(ax, p.LHS()))
	for j := 0; j < nrhs; j++ {
		r := make([]float64, n)
		copy(r, p.RHS().ColView(j))
		floats.AddScaled(r, -1, ax.ColView(j))
		bnorm := floats.Norm(p.RHS().ColView(j), 2)
		assert.LessOrEqualf(t, floats.Norm(r, 2)/bnorm, tol, "column %d true residual", j)
	}
}

func TestScalarCG_SolvesSPDSystem(t *testing.T) {
	const n, tol = 20, 1e-10
	p := newProblem(t, mvec.NewSymOperator(spdMatrix(n, 1)), n, 1, 2)
	combo, conv, cap := newTest(t, p, tol, 200)

	k, err := cg.NewScalar(p)
	require.NoError(t, err)
	st := cg.NewState(cg.Scalar)

	r0, err := p.ActiveInitResidual()
	require.NoError(t, err)
	require.NoError(t, k.Initialize(st, r0))
	require.NoError(t, k.Iterate(combo))

	assert.Equal(t, status.Passed, conv.Status())
	assert.NotEqual(t, status.Passed, cap.Status())
	assertSolved(t, p, 1e-8)
}

func TestScalarCG_TwoDistinctEigenvaluesConvergeInTwoSteps(t *testing.T) {
	// A spectrum with exactly two distinct eigenvalues means exact
	// convergence at step two; rounding allows one extra step at most.
	const n = 12
	a := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			a.SetSym(i, i, 2)
		} else {
			a.SetSym(i, i, 5)
		}
	}

	p := newProblem(t, mvec.NewSymOperator(a), n, 1, 3)
	combo, conv, _ := newTest(t, p, 1e-12, 50)

	k, err := cg.NewScalar(p)
	require.NoError(t, err)
	r0, err := p.ActiveInitResidual()
	require.NoError(t, err)
	require.NoError(t, k.Initialize(cg.NewState(cg.Scalar), r0))
	require.NoError(t, k.Iterate(combo))

	assert.Equal(t, status.Passed, conv.Status())
	assert.LessOrEqual(t, k.NumIters(), 3)
}

func TestSingleRedCG_MatchesScalar(t *testing.T) {
	const n, tol = 25, 1e-11
	a := spdMatrix(n, 5)

	solve := func(mk func(*problem.Problem) (cg.Kernel, error), v cg.Variant) []float64 {
		p := newProblem(t, mvec.NewSymOperator(a), n, 1, 6)
		combo, conv, _ := newTest(t, p, tol, 300)
		k, err := mk(p)
		require.NoError(t, err)
		r0, err := p.ActiveInitResidual()
		require.NoError(t, err)
		require.NoError(t, k.Initialize(cg.NewState(v), r0))
		require.NoError(t, k.Iterate(combo))
		require.Equal(t, status.Passed, conv.Status())

		out := make([]float64, n)
		copy(out, p.LHS().ColView(0))

		return out
	}

	xs := solve(func(p *problem.Problem) (cg.Kernel, error) { return cg.NewScalar(p) }, cg.Scalar)
	xf := solve(func(p *problem.Problem) (cg.Kernel, error) { return cg.NewSingleRed(p) }, cg.SingleRed)
	for i := range xs {
		assert.InDelta(t, xs[i], xf[i], 1e-8)
	}
}

func TestSingleRedCG_FoldedConvergence(t *testing.T) {
	const n, tol = 25, 1e-10
	p := newProblem(t, mvec.NewSymOperator(spdMatrix(n, 7)), n, 1, 8)
	combo, conv, _ := newTest(t, p, tol, 300)

	k, err := cg.NewSingleRed(p, cg.WithFoldConvergence(true))
	require.NoError(t, err)
	r0, err := p.ActiveInitResidual()
	require.NoError(t, err)
	require.NoError(t, k.Initialize(cg.NewState(cg.SingleRed), r0))
	require.NoError(t, k.Iterate(combo))

	assert.Equal(t, status.Passed, conv.Status())
	assertSolved(t, p, 1e-8)
}

func TestBlockCG_SolvesMultipleRHS(t *testing.T) {
	const n, nrhs, tol = 30, 3, 1e-10
	p := newProblem(t, mvec.NewSymOperator(spdMatrix(n, 9)), n, nrhs, 10)

	conv, err := status.NewResNorm(p, tol, status.TwoNorm, status.ScaledByInitResNorm)
	require.NoError(t, err)
	cap, err := status.NewMaxIters(200)
	require.NoError(t, err)
	combo := status.NewCombo(conv, cap)

	om, err := ortho.New(ortho.ICGS)
	require.NoError(t, err)
	k, err := cg.NewBlock(p, om)
	require.NoError(t, err)

	st := cg.NewState(cg.Block)
	r0, err := p.ActiveInitResidual()
	require.NoError(t, err)
	require.NoError(t, k.Initialize(st, r0))

	// Block CG declares Passed as soon as one column converges; drive the
	// whole block down by deflating converged columns out, the way the
	// solver manager does.
	active := []int{0, 1, 2}
	for len(active) > 0 {
		require.NoError(t, k.Iterate(combo))
		require.NotEqual(t, status.Passed, cap.Status(), "iteration cap must not trip")

		done := map[int]bool{}
		for _, g := range conv.ConvIndices() {
			done[g] = true
		}
		var survivors []int // global indices
		var local []int     // their positions inside the current block
		for pos, g := range active {
			if !done[g] {
				survivors = append(survivors, g)
				local = append(local, pos)
			}
		}
		if len(survivors) == 0 {
			break
		}

		// Restart the shrunken block from its current native residuals.
		rNow, cerr := k.NativeResiduals(nil).CloneCopy(local)
		require.NoError(t, cerr)
		require.NoError(t, p.SetActiveColumns(survivors))
		require.NoError(t, k.SetBlockSize(len(survivors)))
		require.NoError(t, k.Initialize(st, rNow))
		active = survivors
	}

	assertSolved(t, p, 1e-7)
}

func TestBlockCG_CounterSurvivesReinitialize(t *testing.T) {
	const n = 16
	p := newProblem(t, mvec.NewSymOperator(spdMatrix(n, 11)), n, 2, 12)

	conv, err := status.NewResNorm(p, 1e-30, status.TwoNorm, status.Unscaled)
	require.NoError(t, err)
	cap, err := status.NewMaxIters(4)
	require.NoError(t, err)
	combo := status.NewCombo(conv, cap)

	om, err := ortho.New(ortho.ICGS)
	require.NoError(t, err)
	k, err := cg.NewBlock(p, om)
	require.NoError(t, err)

	st := cg.NewState(cg.Block)
	r0, err := p.ActiveInitResidual()
	require.NoError(t, err)
	require.NoError(t, k.Initialize(st, r0))
	require.NoError(t, k.Iterate(combo))
	require.Equal(t, 4, k.NumIters())

	// Re-initializing (as deflation does) must not reset the counter;
	// only ResetNumIters does.
	require.NoError(t, k.Initialize(st, r0))
	assert.Equal(t, 4, k.NumIters())
	k.ResetNumIters()
	assert.Equal(t, 0, k.NumIters())
}

func TestScalarCG_NotPositiveDefinite(t *testing.T) {
	const n = 8
	a := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		a.SetSym(i, i, -1)
	}

	p := newProblem(t, mvec.NewSymOperator(a), n, 1, 13)
	combo, _, _ := newTest(t, p, 1e-10, 50)

	k, err := cg.NewScalar(p)
	require.NoError(t, err)
	r0, err := p.ActiveInitResidual()
	require.NoError(t, err)
	require.NoError(t, k.Initialize(cg.NewState(cg.Scalar), r0))

	err = k.Iterate(combo)
	require.ErrorIs(t, err, cg.ErrNotPositiveDefinite)
}

func TestScalarCG_AssertionOff_IndefiniteDoesNotTrip(t *testing.T) {
	const n = 8
	a := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		a.SetSym(i, i, -1)
	}

	p := newProblem(t, mvec.NewSymOperator(a), n, 1, 13)
	combo, _, _ := newTest(t, p, 1e-10, 5)

	k, err := cg.NewScalar(p, cg.WithAssertPositiveDefiniteness(false))
	require.NoError(t, err)
	r0, err := p.ActiveInitResidual()
	require.NoError(t, err)
	require.NoError(t, k.Initialize(cg.NewState(cg.Scalar), r0))

	// With the assertion off, the recurrence runs to the iteration cap.
	require.NoError(t, k.Iterate(combo))
	assert.Equal(t, 5, k.NumIters())
}

func TestScalarCG_NaNDetected(t *testing.T) {
	const n = 6
	nan := mvec.MatFree{N: n, MatVec: func(dst, x []float64) {
		for i := range dst {
			dst[i] = math.NaN()
		}
	}}

	x := mvec.NewDense(n, 1)
	b := mvec.NewDense(n, 1)
	b.Fill(1)
	p := problem.New(nan, x, b)
	require.NoError(t, p.Setup())
	require.NoError(t, p.SetActiveColumns([]int{0}))

	combo, _, _ := newTest(t, p, 1e-10, 50)
	k, err := cg.NewScalar(p)
	require.NoError(t, err)
	r0, err := p.ActiveInitResidual()
	require.NoError(t, err)
	require.NoError(t, k.Initialize(cg.NewState(cg.Scalar), r0))

	err = k.Iterate(combo)
	require.ErrorIs(t, err, cg.ErrNaN)
}

func TestIterate_Uninitialized(t *testing.T) {
	p := newProblem(t, mvec.NewSymOperator(spdMatrix(4, 14)), 4, 1, 15)
	combo, _, _ := newTest(t, p, 1e-10, 10)

	ks, err := cg.NewScalar(p)
	require.NoError(t, err)
	require.ErrorIs(t, ks.Iterate(combo), cg.ErrUninitialized)

	kf, err := cg.NewSingleRed(p)
	require.NoError(t, err)
	require.ErrorIs(t, kf.Iterate(combo), cg.ErrUninitialized)

	om, err := ortho.New(ortho.ICGS)
	require.NoError(t, err)
	kb, err := cg.NewBlock(p, om)
	require.NoError(t, err)
	require.ErrorIs(t, kb.Iterate(combo), cg.ErrUninitialized)
}

func TestSetBlockSize_Validation(t *testing.T) {
	p := newProblem(t, mvec.NewSymOperator(spdMatrix(4, 16)), 4, 2, 17)

	ks, err := cg.NewScalar(p)
	require.NoError(t, err)
	assert.NoError(t, ks.SetBlockSize(1))
	assert.ErrorIs(t, ks.SetBlockSize(2), cg.ErrBadBlockSize)

	om, err := ortho.New(ortho.ICGS)
	require.NoError(t, err)
	kb, err := cg.NewBlock(p, om)
	require.NoError(t, err)
	assert.NoError(t, kb.SetBlockSize(2))
	assert.ErrorIs(t, kb.SetBlockSize(0), cg.ErrBadBlockSize)
}

func TestInitialize_VariantMismatch(t *testing.T) {
	p := newProblem(t, mvec.NewSymOperator(spdMatrix(4, 18)), 4, 1, 19)
	r0, err := p.ActiveInitResidual()
	require.NoError(t, err)

	k, err := cg.NewScalar(p)
	require.NoError(t, err)
	err = k.Initialize(cg.NewState(cg.Block), r0)
	require.ErrorIs(t, err, cg.ErrStateMismatch)
}

func TestVariantString(t *testing.T) {
	assert.Equal(t, "CG", cg.Scalar.String())
	assert.Equal(t, "SingleReductionCG", cg.SingleRed.String())
	assert.Equal(t, "BlockCG", cg.Block.String())
}

func TestNewKernel_NilArguments(t *testing.T) {
	_, err := cg.NewScalar(nil)
	require.ErrorIs(t, err, cg.ErrNilProblem)

	_, err = cg.NewSingleRed(nil)
	require.ErrorIs(t, err, cg.ErrNilProblem)

	p := newProblem(t, mvec.NewSymOperator(spdMatrix(4, 20)), 4, 1, 21)
	_, err = cg.NewBlock(p, nil)
	require.ErrorIs(t, err, cg.ErrNilOrtho)
}
