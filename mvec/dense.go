package mvec

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Dense is the reference MultiVec implementation: an n×k column block.
// NewDense allocates all columns from one contiguous backing array;
// views produced by CloneView alias the parent's column slices.
type Dense struct {
	dim  int
	cols [][]float64
}

// NewDense allocates a zeroed n×k multivector backed by a single
// contiguous allocation.
func NewDense(dim, numVecs int) *Dense {
	// 1) Guard against nonsensical shapes early (programmer error).
	if dim <= 0 || numVecs <= 0 {
		panic(fmt.Sprintf("mvec: NewDense(%d, %d): dimensions must be positive", dim, numVecs))
	}

	// 2) One backing array, sliced per column, keeps cache behavior
	//    predictable and lets a full-block Fill touch contiguous memory.
	backing := make([]float64, dim*numVecs)
	cols := make([][]float64, numVecs)
	for j := 0; j < numVecs; j++ {
		cols[j] = backing[j*dim : (j+1)*dim : (j+1)*dim]
	}

	return &Dense{dim: dim, cols: cols}
}

// FromColumns builds a Dense that aliases the given column slices.
// Every column must have the same nonzero length.
func FromColumns(cols ...[]float64) (*Dense, error) {
	if len(cols) == 0 {
		return nil, ErrEmptyIndexSet
	}
	dim := len(cols[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero-length column", ErrDimensionMismatch)
	}
	for j, c := range cols {
		if len(c) != dim {
			return nil, fmt.Errorf("%w: column %d has length %d, want %d", ErrDimensionMismatch, j, len(c), dim)
		}
	}

	return &Dense{dim: dim, cols: cols}, nil
}

// Dim returns the vector dimension n.
func (d *Dense) Dim() int { return d.dim }

// NumVecs returns the number of columns k.
func (d *Dense) NumVecs() int { return len(d.cols) }

// ColView returns the j-th column, sharing storage with the receiver.
func (d *Dense) ColView(j int) []float64 {
	if j < 0 || j >= len(d.cols) {
		panic(fmt.Sprintf("mvec: ColView(%d): index out of range [0,%d)", j, len(d.cols)))
	}

	return d.cols[j]
}

// checkIdx validates a column index set against the receiver's width.
func (d *Dense) checkIdx(idx []int) error {
	if len(idx) == 0 {
		return ErrEmptyIndexSet
	}
	for _, j := range idx {
		if j < 0 || j >= len(d.cols) {
			return fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, j, len(d.cols))
		}
	}

	return nil
}

// CloneCopy returns a fresh Dense holding deep copies of the selected
// columns, in the given order.
func (d *Dense) CloneCopy(idx []int) (MultiVec, error) {
	if err := d.checkIdx(idx); err != nil {
		return nil, err
	}

	out := NewDense(d.dim, len(idx))
	for i, j := range idx {
		copy(out.cols[i], d.cols[j])
	}

	return out, nil
}

// CloneView returns a Dense whose columns alias the selected columns of
// the receiver, in the given order.
func (d *Dense) CloneView(idx []int) (MultiVec, error) {
	if err := d.checkIdx(idx); err != nil {
		return nil, err
	}

	cols := make([][]float64, len(idx))
	for i, j := range idx {
		cols[i] = d.cols[j]
	}

	return &Dense{dim: d.dim, cols: cols}, nil
}

// CopyAt overwrites the selected columns of the receiver with the
// columns of src (src column i goes to receiver column idx[i]).
func (d *Dense) CopyAt(src MultiVec, idx []int) error {
	if err := d.checkIdx(idx); err != nil {
		return err
	}
	if src.Dim() != d.dim {
		return fmt.Errorf("%w: src dim %d, dst dim %d", ErrDimensionMismatch, src.Dim(), d.dim)
	}
	if src.NumVecs() != len(idx) {
		return fmt.Errorf("%w: src has %d columns, index set has %d", ErrDimensionMismatch, src.NumVecs(), len(idx))
	}

	for i, j := range idx {
		copy(d.cols[j], src.ColView(i))
	}

	return nil
}

// Fill sets every entry of every column to alpha.
func (d *Dense) Fill(alpha float64) {
	for _, c := range d.cols {
		for i := range c {
			c[i] = alpha
		}
	}
}

// Norms stores the Euclidean norm of each column into dst.
// NaN entries propagate: a column containing NaN reports a NaN norm.
func (d *Dense) Norms(dst []float64) error {
	if len(dst) != len(d.cols) {
		return fmt.Errorf("%w: dst has length %d, want %d", ErrDimensionMismatch, len(dst), len(d.cols))
	}

	for j, c := range d.cols {
		dst[j] = floats.Norm(c, 2)
	}

	return nil
}

// HasNaN reports whether any entry of any column is NaN.
func (d *Dense) HasNaN() bool {
	for _, c := range d.cols {
		for _, v := range c {
			if math.IsNaN(v) {
				return true
			}
		}
	}

	return false
}
