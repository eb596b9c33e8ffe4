// Package blockcg is the solver manager for symmetric positive-definite
// systems with one or many right-hand sides.
//
// A SolverManager partitions the right-hand-side columns into sequential
// groups sized by the configured block size, selects a Conjugate-Gradient
// kernel per group (scalar, single-reduction, or block), and drives each
// group through an iterate/check/deflate loop: columns whose scaled
// residual measure drops below the tolerance are deflated out of the
// active set, the kernel shrinks to the survivors, and iteration
// continues until the group converges or hits the iteration cap.
//
// Numerical breakdown is absorbed, not fatal: a NaN surfacing in any
// kernel step zeroes the whole solution block, stamps the achieved
// tolerance with the worst-case sentinel 1.0, and returns Unconverged.
// Reaching the iteration cap is likewise a normal Unconverged outcome.
//
// Minimal use:
//
//	p := problem.New(op, x, b)
//	if err := p.Setup(); err != nil { ... }
//	sm, err := blockcg.New(p, blockcg.WithBlockSize(4), blockcg.WithTolerance(1e-10))
//	if err != nil { ... }
//	res, err := sm.Solve()
package blockcg
