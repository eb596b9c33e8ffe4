package mvec

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Block arithmetic helpers shared by the iteration kernels. All helpers
// operate through ColView, so any MultiVec implementation participates.

// Copy overwrites dst with src. Shapes must match exactly.
func Copy(dst, src MultiVec) error {
	if dst.Dim() != src.Dim() || dst.NumVecs() != src.NumVecs() {
		return fmt.Errorf("%w: dst %dx%d, src %dx%d",
			ErrDimensionMismatch, dst.Dim(), dst.NumVecs(), src.Dim(), src.NumVecs())
	}

	for j := 0; j < dst.NumVecs(); j++ {
		copy(dst.ColView(j), src.ColView(j))
	}

	return nil
}

// AddScaled computes dst += alpha·x column by column.
func AddScaled(dst MultiVec, alpha float64, x MultiVec) error {
	if dst.Dim() != x.Dim() || dst.NumVecs() != x.NumVecs() {
		return fmt.Errorf("%w: dst %dx%d, x %dx%d",
			ErrDimensionMismatch, dst.Dim(), dst.NumVecs(), x.Dim(), x.NumVecs())
	}

	for j := 0; j < dst.NumVecs(); j++ {
		floats.AddScaled(dst.ColView(j), alpha, x.ColView(j))
	}

	return nil
}

// TransMul computes dst = xᵀ·y, the k×m block of column inner products
// between an n×k and an n×m multivector. dst is resized to k×m.
//
// In a distributed setting this is the operation that maps to a single
// all-reduce over k·m partial sums; kernels therefore batch every inner
// product they need into one TransMul call per step.
func TransMul(dst *mat.Dense, x, y MultiVec) error {
	if x.Dim() != y.Dim() {
		return fmt.Errorf("%w: x dim %d, y dim %d", ErrDimensionMismatch, x.Dim(), y.Dim())
	}

	k, m := x.NumVecs(), y.NumVecs()
	dst.Reset()
	dst.ReuseAs(k, m)
	for i := 0; i < k; i++ {
		xi := x.ColView(i)
		for j := 0; j < m; j++ {
			dst.Set(i, j, floats.Dot(xi, y.ColView(j)))
		}
	}

	return nil
}

// MulAdd computes dst += x·c, where x is n×k and c is a small k×m dense
// coefficient matrix; dst must be n×m. This is the block generalization
// of the axpy updates in scalar CG.
func MulAdd(dst MultiVec, x MultiVec, c mat.Matrix) error {
	k, m := c.Dims()
	if x.NumVecs() != k || dst.NumVecs() != m || dst.Dim() != x.Dim() {
		return fmt.Errorf("%w: dst %dx%d, x %dx%d, c %dx%d",
			ErrDimensionMismatch, dst.Dim(), dst.NumVecs(), x.Dim(), x.NumVecs(), k, m)
	}

	for j := 0; j < m; j++ {
		dj := dst.ColView(j)
		for i := 0; i < k; i++ {
			if cij := c.At(i, j); cij != 0 {
				floats.AddScaled(dj, cij, x.ColView(i))
			}
		}
	}

	return nil
}
