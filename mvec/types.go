// Package mvec: core interfaces and sentinel errors for the multivector
// and operator trait layer.
package mvec

import "errors"

// Sentinel errors returned by the mvec trait layer.
var (
	// ErrDimensionMismatch indicates that two multivectors (or a
	// multivector and an operator) disagree on the vector dimension or
	// on the number of columns involved in an operation.
	ErrDimensionMismatch = errors.New("mvec: dimension mismatch")

	// ErrIndexOutOfRange indicates that a column index is negative or
	// not smaller than the number of columns.
	ErrIndexOutOfRange = errors.New("mvec: column index out of range")

	// ErrEmptyIndexSet indicates that an empty index set was passed to a
	// clone or copy operation that requires at least one column.
	ErrEmptyIndexSet = errors.New("mvec: empty column index set")

	// ErrNilOperator indicates that a nil operator (or a MatFree with a
	// nil MatVec field) was asked to apply itself.
	ErrNilOperator = errors.New("mvec: nil operator")
)

// MultiVec is an n×k block of column vectors. It is the unit of work for
// all block solvers: kernels iterate on whole blocks, stopping tests read
// per-column norms, and the solver manager clones and compacts column
// subsets during deflation.
//
// Implementations must keep columns independently addressable via ColView
// so that scalar kernels and per-column tests can operate without copies.
type MultiVec interface {
	// Dim returns the vector dimension n.
	Dim() int

	// NumVecs returns the number of columns k.
	NumVecs() int

	// ColView returns the j-th column as a slice sharing storage with
	// the multivector. Mutating the slice mutates the column.
	ColView(j int) []float64

	// CloneCopy returns a fresh multivector holding deep copies of the
	// selected columns, in the given order.
	CloneCopy(idx []int) (MultiVec, error)

	// CloneView returns a multivector whose columns alias the selected
	// columns of the receiver, in the given order. Writes through the
	// view are visible in the parent.
	CloneView(idx []int) (MultiVec, error)

	// CopyAt overwrites the selected columns of the receiver with the
	// columns of src (src column i goes to receiver column idx[i]).
	CopyAt(src MultiVec, idx []int) error

	// Fill sets every entry of every column to alpha.
	Fill(alpha float64)

	// Norms stores the Euclidean norm of each column into dst, which
	// must have length NumVecs. NaN entries propagate into the norms.
	Norms(dst []float64) error
}

// Operator applies a linear operator to a multivector, column by column.
// Implementations may execute locally or across a distributed process
// group; the solvers only require that Apply blocks until dst is complete.
type Operator interface {
	// Dim returns the operator's (square) dimension.
	Dim() int

	// Apply computes dst = A·x. dst and x must not alias.
	Apply(dst, x MultiVec) error
}
