// Package problem defines the linear-problem handle shared by every
// solver component: the operator A, the block of right-hand sides B, the
// block of unknowns X, and the initial residual R₀ = B − A·X₀.
//
// The handle's one nontrivial responsibility is active-column
// bookkeeping. A solver manager works through the right-hand sides in
// groups and, within a group, deflates converged columns away; the handle
// tracks which global columns are currently active and hands out views
// (ActiveLHS, ActiveInitResidual) restricted to that subset. A −1 entry
// in an index set is the augmented-slot sentinel used by fixed-block-size
// solves and is skipped.
//
// Lifecycle:
//
//	p := problem.New(op, x, b)   // wire the pieces
//	err := p.Setup()             // validate, compute R₀, mark ready
//	... solver iterates ...      // SetActiveColumns / FinishCurrent
//
// Solvers must refuse to run on a handle whose Setup has not been called;
// they detect that via IsReady and surface ErrNotReady.
package problem
