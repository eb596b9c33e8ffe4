// Package status_test contains unit tests for the stopping-decision
// unit: the residual-norm test, the iteration-cap test, the OR combo,
// and the output decorator.
package status_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/krylov/mvec"
	"github.com/katalvlaran/krylov/problem"
	"github.com/katalvlaran/krylov/status"
)

// fakeIter is a canned Iteration: a fixed step counter and a fixed
// native-residual block.
type fakeIter struct {
	iters int
	res   *mvec.Dense
}

func (f *fakeIter) NumIters() int { return f.iters }

func (f *fakeIter) NativeResiduals(norms []float64) mvec.MultiVec {
	if norms != nil {
		_ = f.res.Norms(norms)
	}

	return f.res
}

// newProblem builds a ready 2-dimensional problem with the given number
// of right-hand sides, B filled with ones and X0 = 0, so every initial
// residual column has 2-norm √2.
func newProblem(t *testing.T, nrhs int) *problem.Problem {
	t.Helper()
	op := mvec.NewSymOperator(mat.NewSymDense(2, []float64{1, 0, 0, 1}))
	x := mvec.NewDense(2, nrhs)
	b := mvec.NewDense(2, nrhs)
	b.Fill(1)
	p := problem.New(op, x, b)
	require.NoError(t, p.Setup())

	return p
}

// ------------------------------------------------------------------------
// 1. Enum parsing.
// ------------------------------------------------------------------------

func TestParseNormKind(t *testing.T) {
	k, err := status.ParseNormKind("TwoNorm")
	require.NoError(t, err)
	assert.Equal(t, status.TwoNorm, k)

	k, err = status.ParseNormKind("InfNorm")
	require.NoError(t, err)
	assert.Equal(t, status.InfNorm, k)

	_, err = status.ParseNormKind("ThreeNorm")
	require.ErrorIs(t, err, status.ErrUnknownNormKind)
}

func TestParseScaleKind(t *testing.T) {
	k, err := status.ParseScaleKind("Norm of RHS")
	require.NoError(t, err)
	assert.Equal(t, status.ScaledByRHSNorm, k)

	_, err = status.ParseScaleKind("Norm of Vibes")
	require.ErrorIs(t, err, status.ErrUnknownScaleKind)
}

// ------------------------------------------------------------------------
// 2. Residual-norm convergence test.
// ------------------------------------------------------------------------

func TestResNorm_Validation(t *testing.T) {
	p := newProblem(t, 1)
	_, err := status.NewResNorm(p, 0, status.TwoNorm, status.Unscaled)
	require.ErrorIs(t, err, status.ErrBadTolerance)
}

func TestResNorm_PartialConvergence(t *testing.T) {
	p := newProblem(t, 2)
	require.NoError(t, p.SetActiveColumns([]int{0, 1}))

	// Unscaled tolerance 0.1: column 0 has tiny residual, column 1 not.
	conv, err := status.NewResNorm(p, 0.1, status.TwoNorm, status.Unscaled)
	require.NoError(t, err)
	assert.Equal(t, status.Undefined, conv.Status())

	res, _ := mvec.FromColumns([]float64{1e-3, 0}, []float64{1, 1})
	it := &fakeIter{iters: 3, res: res}

	assert.Equal(t, status.Passed, conv.Check(it))
	assert.Equal(t, []int{0}, conv.ConvIndices())
	assert.False(t, conv.AllConverged(2))

	vals := conv.TestValues()
	require.Len(t, vals, 2)
	assert.InDelta(t, 1e-3, vals[0], 1e-12)
	assert.Greater(t, vals[1], 0.1)
}

func TestResNorm_ScaledByInitResidual(t *testing.T) {
	// Initial residual columns have norm √2; a residual of norm √2/100
	// is a relative measure of 1e-2.
	p := newProblem(t, 1)
	require.NoError(t, p.SetActiveColumns([]int{0}))

	conv, err := status.NewResNorm(p, 1e-1, status.TwoNorm, status.ScaledByInitResNorm)
	require.NoError(t, err)

	res, _ := mvec.FromColumns([]float64{0.01, 0.01})
	assert.Equal(t, status.Passed, conv.Check(&fakeIter{res: res}))
	assert.True(t, conv.AllConverged(1))

	vals := conv.TestValues()
	assert.InDelta(t, 0.01, vals[0], 1e-12)
}

func TestResNorm_NoColumnConverged(t *testing.T) {
	p := newProblem(t, 1)
	require.NoError(t, p.SetActiveColumns([]int{0}))

	conv, err := status.NewResNorm(p, 1e-8, status.TwoNorm, status.Unscaled)
	require.NoError(t, err)

	res, _ := mvec.FromColumns([]float64{1, 1})
	assert.Equal(t, status.Failed, conv.Check(&fakeIter{res: res}))
	assert.Empty(t, conv.ConvIndices())
}

func TestResNorm_InfNormRemeasures(t *testing.T) {
	p := newProblem(t, 1)
	require.NoError(t, p.SetActiveColumns([]int{0}))

	conv, err := status.NewResNorm(p, 0.5, status.InfNorm, status.Unscaled)
	require.NoError(t, err)

	// 2-norm is 0.5·√2 ≈ 0.707 > 0.5, but the ∞-norm is exactly 0.5.
	res, _ := mvec.FromColumns([]float64{0.5, 0.5})
	assert.Equal(t, status.Passed, conv.Check(&fakeIter{res: res}))
}

// ------------------------------------------------------------------------
// 3. Iteration-cap test and the OR combo.
// ------------------------------------------------------------------------

func TestMaxIters(t *testing.T) {
	_, err := status.NewMaxIters(0)
	require.ErrorIs(t, err, status.ErrBadMaxIters)

	m, err := status.NewMaxIters(5)
	require.NoError(t, err)

	assert.Equal(t, status.Failed, m.Check(&fakeIter{iters: 4}))
	assert.Equal(t, 4, m.NumIters())
	assert.Equal(t, status.Passed, m.Check(&fakeIter{iters: 5}))
	assert.Equal(t, 5, m.NumIters())

	m.Reset()
	assert.Equal(t, status.Undefined, m.Status())
	assert.Equal(t, 0, m.NumIters())
}

func TestCombo_ShortCircuits(t *testing.T) {
	p := newProblem(t, 1)
	require.NoError(t, p.SetActiveColumns([]int{0}))

	conv, err := status.NewResNorm(p, 10, status.TwoNorm, status.Unscaled)
	require.NoError(t, err)
	maxIt, err := status.NewMaxIters(1)
	require.NoError(t, err)
	combo := status.NewCombo(conv, maxIt)

	// Convergence passes immediately (huge tolerance), so the cap test
	// must never have been consulted even though iters >= cap.
	res, _ := mvec.FromColumns([]float64{0, 0})
	assert.Equal(t, status.Passed, combo.Check(&fakeIter{iters: 9, res: res}))
	assert.Equal(t, status.Undefined, maxIt.Status())
}

func TestCombo_FallsThroughToMaxIters(t *testing.T) {
	p := newProblem(t, 1)
	require.NoError(t, p.SetActiveColumns([]int{0}))

	conv, err := status.NewResNorm(p, 1e-12, status.TwoNorm, status.Unscaled)
	require.NoError(t, err)
	maxIt, err := status.NewMaxIters(3)
	require.NoError(t, err)
	combo := status.NewCombo(conv, maxIt)

	res, _ := mvec.FromColumns([]float64{1, 1})
	assert.Equal(t, status.Failed, combo.Check(&fakeIter{iters: 2, res: res}))
	assert.Equal(t, status.Passed, combo.Check(&fakeIter{iters: 3, res: res}))
	assert.Equal(t, status.Passed, maxIt.Status())
}

// ------------------------------------------------------------------------
// 4. Output decorator: pure pass-through plus call counting.
// ------------------------------------------------------------------------

func TestOutput_ForwardsAndCounts(t *testing.T) {
	m, err := status.NewMaxIters(2)
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	out := status.NewOutput(m, logger, 1)
	out.SetSolverDesc("Block CG")

	assert.Equal(t, status.Failed, out.Check(&fakeIter{iters: 1}))
	assert.Equal(t, status.Passed, out.Check(&fakeIter{iters: 2}))
	assert.Equal(t, 2, out.NumCalls())
	assert.Contains(t, buf.String(), "solver progress")
	assert.Contains(t, buf.String(), "Block CG")

	out.ResetCallCount()
	assert.Equal(t, 0, out.NumCalls())

	// Status is forwarded from the child.
	assert.Equal(t, m.Status(), out.Status())
}

func TestOutput_SilentWhenFreqNonPositive(t *testing.T) {
	m, err := status.NewMaxIters(2)
	require.NoError(t, err)

	var buf bytes.Buffer
	out := status.NewOutput(m, slog.New(slog.NewTextHandler(&buf, nil)), -1)
	out.Check(&fakeIter{iters: 1})
	assert.Empty(t, buf.String())
}
