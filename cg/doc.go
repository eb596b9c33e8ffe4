// Package cg implements the three Conjugate-Gradient iteration kernels
// consumed by the solver manager:
//
//   - Scalar    — the textbook CG recurrence for a single right-hand
//     side: one matrix-vector product and two inner products per step.
//   - SingleRed — a single-reduction reformulation for one right-hand
//     side: both per-step inner products are evaluated in one fused
//     reduction, trading a little extra local arithmetic for one fewer
//     synchronization point per step. Worth it when collectives cost
//     more than vector updates.
//   - Block     — CG over an n×k block of right-hand sides; direction
//     blocks are kept orthonormal by an ortho.Manager and the k×k
//     coefficient systems are solved by Cholesky factorization.
//
// All kernels present one Kernel interface: Initialize with a persisted
// State and an initial residual block, Iterate until the supplied
// stopping test passes, and report native residuals and the step
// counter. The State is variant-tagged and owned by the caller, who
// reuses it across groups of right-hand sides whenever the tag matches
// the selected kernel and replaces it wholesale otherwise.
//
// Breakdown policy: a NaN surfacing in the recurrence yields ErrNaN (a
// recognized, absorbable condition); a non-positive pᵀAp under the
// positive-definiteness assertion yields ErrNotPositiveDefinite; both
// carry the failing iteration index.
package cg
