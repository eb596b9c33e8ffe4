// Package mvec provides the multivector and operator trait layer used by
// every solver component in krylov.
//
// A multivector is an n×k column block: k vectors of dimension n handled
// as one unit. Iterative block methods constantly clone, view, compact
// and re-normalize column subsets of such blocks, so the package exposes
// exactly those primitives:
//
//   - CloneCopy / CloneView — duplicate or alias a column subset by index
//   - CopyAt / Fill         — write columns in place
//   - Norms / ColView       — read access for stopping tests and kernels
//
// The MultiVec interface is storage-agnostic: any implementation that can
// hand out column slices participates in the solvers. Dense is the
// reference implementation, one contiguous allocation sliced per column.
//
// Operators are equally minimal: Apply(dst, x) computes A·x column by
// column. MatFree adapts a plain matrix-vector function; SymOperator
// adapts a gonum *mat.SymDense.
//
// Numeric policy:
//
//   - No silent NaN laundering: Norms propagates NaN so that iteration
//     kernels can detect numerical breakdown.
//   - All index and shape validation is fail-fast with sentinel errors
//     (ErrDimensionMismatch, ErrIndexOutOfRange, ErrEmptyIndexSet).
package mvec
