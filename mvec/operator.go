package mvec

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// MatFree adapts a plain matrix-vector function to the Operator
// interface. It is the lightest way to plug a custom (sparse,
// matrix-free, or distributed) operator into the solvers.
type MatFree struct {
	// N is the operator's square dimension.
	N int

	// MatVec computes dst = A·x for a single column. It must be non-nil.
	MatVec func(dst, x []float64)
}

// Dim returns the operator's dimension.
func (m MatFree) Dim() int { return m.N }

// Apply computes dst = A·x one column at a time.
func (m MatFree) Apply(dst, x MultiVec) error {
	if m.MatVec == nil {
		return ErrNilOperator
	}
	if dst.Dim() != m.N || x.Dim() != m.N {
		return fmt.Errorf("%w: operator dim %d, dst dim %d, x dim %d",
			ErrDimensionMismatch, m.N, dst.Dim(), x.Dim())
	}
	if dst.NumVecs() != x.NumVecs() {
		return fmt.Errorf("%w: dst has %d columns, x has %d",
			ErrDimensionMismatch, dst.NumVecs(), x.NumVecs())
	}

	for j := 0; j < x.NumVecs(); j++ {
		m.MatVec(dst.ColView(j), x.ColView(j))
	}

	return nil
}

// SymOperator wraps a gonum symmetric matrix as an Operator. It is the
// convenient choice for dense SPD systems and for tests.
type SymOperator struct {
	a *mat.SymDense
}

// NewSymOperator returns an Operator over the given symmetric matrix.
func NewSymOperator(a *mat.SymDense) *SymOperator {
	if a == nil {
		panic("mvec: NewSymOperator: nil matrix")
	}

	return &SymOperator{a: a}
}

// Dim returns the matrix dimension.
func (s *SymOperator) Dim() int { return s.a.SymmetricDim() }

// Apply computes dst = A·x column by column via gonum's symmetric
// matrix-vector product.
func (s *SymOperator) Apply(dst, x MultiVec) error {
	n := s.Dim()
	if dst.Dim() != n || x.Dim() != n {
		return fmt.Errorf("%w: operator dim %d, dst dim %d, x dim %d",
			ErrDimensionMismatch, n, dst.Dim(), x.Dim())
	}
	if dst.NumVecs() != x.NumVecs() {
		return fmt.Errorf("%w: dst has %d columns, x has %d",
			ErrDimensionMismatch, dst.NumVecs(), x.NumVecs())
	}

	for j := 0; j < x.NumVecs(); j++ {
		xv := mat.NewVecDense(n, x.ColView(j))
		dv := mat.NewVecDense(n, dst.ColView(j))
		dv.MulVec(s.a, xv)
	}

	return nil
}
