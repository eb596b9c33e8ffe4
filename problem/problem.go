package problem

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/krylov/mvec"
)

// Sentinel errors returned by the linear-problem handle.
var (
	// ErrNotReady indicates that Setup was not called (or failed) before
	// a solver tried to use the handle.
	ErrNotReady = errors.New("problem: linear problem is not ready, Setup has not been called")

	// ErrNilOperator indicates that the handle was built without an operator.
	ErrNilOperator = errors.New("problem: operator is nil")

	// ErrNilVectors indicates that the handle was built without LHS or RHS blocks.
	ErrNilVectors = errors.New("problem: solution or right-hand-side block is nil")

	// ErrShapeMismatch indicates that operator, LHS and RHS disagree on shape.
	ErrShapeMismatch = errors.New("problem: operator, LHS and RHS shapes disagree")

	// ErrBadIndex indicates an invalid active-column index set.
	ErrBadIndex = errors.New("problem: invalid active column index")
)

// AugmentedSlot is the sentinel index marking an unused block slot when a
// fixed (non-adaptive) block size exceeds the number of remaining
// right-hand sides. Index sets may contain it; it is always skipped.
const AugmentedSlot = -1

// Problem is the handle for a block linear system A·X = B. It owns the
// initial residual and the active-column bookkeeping; operator and vector
// blocks are caller-owned and merely referenced.
//
// A Problem is not safe for concurrent use.
type Problem struct {
	a  mvec.Operator
	x  mvec.MultiVec // solution block, updated in place by solvers
	b  mvec.MultiVec // right-hand sides, read-only here
	r0 mvec.MultiVec // initial residual B − A·X₀, computed by Setup

	active []int // currently active global column indices, no sentinels
	ready  bool
}

// New wires a linear problem from its parts. Setup must be called before
// any solver touches the handle.
func New(a mvec.Operator, x, b mvec.MultiVec) *Problem {
	return &Problem{a: a, x: x, b: b}
}

// Setup validates shapes, computes the initial residual R₀ = B − A·X₀,
// and marks the handle ready. Calling Setup again recomputes R₀, which is
// how a caller re-finalizes the problem after changing X or B.
func (p *Problem) Setup() error {
	// 1) Fail fast on missing collaborators.
	if p.a == nil {
		return ErrNilOperator
	}
	if p.x == nil || p.b == nil {
		return ErrNilVectors
	}

	// 2) All three parties must agree on the dimensions.
	n := p.a.Dim()
	if p.x.Dim() != n || p.b.Dim() != n {
		return fmt.Errorf("%w: operator dim %d, LHS dim %d, RHS dim %d",
			ErrShapeMismatch, n, p.x.Dim(), p.b.Dim())
	}
	if p.x.NumVecs() != p.b.NumVecs() {
		return fmt.Errorf("%w: LHS has %d columns, RHS has %d",
			ErrShapeMismatch, p.x.NumVecs(), p.b.NumVecs())
	}

	// 3) R₀ = B − A·X₀. A fresh buffer: the handle owns its residual.
	r0 := mvec.NewDense(n, p.b.NumVecs())
	if err := p.a.Apply(r0, p.x); err != nil {
		return fmt.Errorf("problem: computing initial residual: %w", err)
	}
	for j := 0; j < r0.NumVecs(); j++ {
		rj, bj := r0.ColView(j), p.b.ColView(j)
		for i := range rj {
			rj[i] = bj[i] - rj[i]
		}
	}

	p.r0 = r0
	p.active = nil
	p.ready = true

	return nil
}

// IsReady reports whether Setup completed successfully.
func (p *Problem) IsReady() bool { return p.ready }

// Dim returns the system dimension n.
func (p *Problem) Dim() int { return p.a.Dim() }

// NumRHS returns the total number of right-hand sides N.
func (p *Problem) NumRHS() int { return p.b.NumVecs() }

// Operator returns the system operator A.
func (p *Problem) Operator() mvec.Operator { return p.a }

// RHS returns the full right-hand-side block B.
func (p *Problem) RHS() mvec.MultiVec { return p.b }

// LHS returns the full solution block X.
func (p *Problem) LHS() mvec.MultiVec { return p.x }

// InitResidual returns the full initial residual R₀ computed by Setup.
func (p *Problem) InitResidual() mvec.MultiVec {
	if !p.ready {
		return nil
	}

	return p.r0
}

// SetActiveColumns restricts the handle to the given global column
// subset, in order. AugmentedSlot entries are skipped. The handle copies
// the filtered set; the caller keeps ownership of idx.
func (p *Problem) SetActiveColumns(idx []int) error {
	if !p.ready {
		return ErrNotReady
	}

	active := make([]int, 0, len(idx))
	for _, j := range idx {
		if j == AugmentedSlot {
			continue
		}
		if j < 0 || j >= p.b.NumVecs() {
			return fmt.Errorf("%w: %d not in [0,%d)", ErrBadIndex, j, p.b.NumVecs())
		}
		active = append(active, j)
	}
	if len(active) == 0 {
		return fmt.Errorf("%w: index set has no usable columns", ErrBadIndex)
	}

	p.active = active

	return nil
}

// CurrentIndices returns the active global column indices in order, or
// nil when no subset is active. The returned slice is the caller's to read
// only.
func (p *Problem) CurrentIndices() []int { return p.active }

// ActiveLHS returns a view of the solution block restricted to the active
// columns. Writes through the view land in the global solution.
func (p *Problem) ActiveLHS() (mvec.MultiVec, error) {
	if !p.ready {
		return nil, ErrNotReady
	}
	if len(p.active) == 0 {
		return nil, fmt.Errorf("%w: no active columns", ErrBadIndex)
	}

	return p.x.CloneView(p.active)
}

// ActiveRHS returns a view of the right-hand-side block restricted to the
// active columns.
func (p *Problem) ActiveRHS() (mvec.MultiVec, error) {
	if !p.ready {
		return nil, ErrNotReady
	}
	if len(p.active) == 0 {
		return nil, fmt.Errorf("%w: no active columns", ErrBadIndex)
	}

	return p.b.CloneView(p.active)
}

// UpdateSolution accumulates update into the active columns of the
// solution block: X[:, active] += update.
func (p *Problem) UpdateSolution(update mvec.MultiVec) error {
	x, err := p.ActiveLHS()
	if err != nil {
		return err
	}

	return mvec.AddScaled(x, 1, update)
}

// ActiveInitResidual returns a view of R₀ restricted to the active columns.
func (p *Problem) ActiveInitResidual() (mvec.MultiVec, error) {
	if !p.ready {
		return nil, ErrNotReady
	}
	if len(p.active) == 0 {
		return nil, fmt.Errorf("%w: no active columns", ErrBadIndex)
	}

	return p.r0.CloneView(p.active)
}

// FinishCurrent commits the current block: kernels write solutions
// through ActiveLHS views, so the data is already in place; this clears
// the active subset so stale views cannot be handed out afterwards.
func (p *Problem) FinishCurrent() { p.active = nil }
