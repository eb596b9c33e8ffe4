// Package status implements the stopping-decision unit for the CG
// solvers: a residual-norm convergence test, a maximum-iterations test,
// a short-circuited OR combination of the two, and a pass-through output
// decorator that reports progress through log/slog.
//
// Tests consume kernels through the small Iteration interface (iteration
// counter plus native residuals), which keeps the package independent of
// any particular kernel variant.
//
// Contract enforced by the composite: after every kernel step exactly one
// of {some columns converged, iteration cap reached, neither} holds.
// The convergence test is consulted first; the max-iterations test is
// only consulted when no column converged. "Neither" after a completed
// step is an internal invariant violation that the solver manager turns
// into a hard error.
//
// Residual measures are native: they come from the iteration recurrence,
// not from an explicit B − A·X recomputation. The convergence test can
// re-measure them in a different norm (one, two, infinity) and scale them
// by the initial-residual norm, the right-hand-side norm, or not at all.
package status
