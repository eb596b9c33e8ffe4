// Package krylov is an in-memory toolkit for solving symmetric
// positive-definite linear systems with one or many simultaneous
// right-hand sides, using scalar and block Conjugate-Gradient methods.
//
// 🚀 What is krylov?
//
//	A modern, dependency-light library that brings together:
//		• Multivector primitives: clone, view and compact column blocks safely
//		• Linear-problem handles: operators, right-hand sides, active subsets
//		• Stopping criteria: residual-norm and max-iteration tests, composable
//		• Orthogonalization: DGKS, ICGS and IMGS block Gram–Schmidt managers
//		• Iteration kernels: scalar CG, single-reduction CG and block CG
//		• Solver management: grouping, deflation, breakdown handling
//
// ✨ Why choose krylov?
//
//   - Beginner-friendly – minimal API, clear, intuitive naming
//   - Rock-solid guarantees – fail-fast validation, named sentinel errors
//   - Pure Go – no cgo, numeric kernels built on gonum
//   - Extensible – storage-agnostic multivector and operator interfaces
//
// Under the hood, everything is organized under six subpackages:
//
//	mvec/    — multivector and operator trait layer + dense implementation
//	problem/ — the linear-problem handle (operator, RHS, LHS, residuals)
//	status/  — stopping-decision tests and the progress output decorator
//	ortho/   — block orthogonalization managers (DGKS, ICGS, IMGS)
//	cg/      — the three Conjugate-Gradient iteration kernels
//	blockcg/ — the solver manager orchestrating groups and deflation
//
// Quick sketch of a solve:
//
//	A·X = B,  X, B ∈ ℝ^{n×k}
//
//	prob := problem.New(op, x, b)
//	_ = prob.Setup()
//	mgr, _ := blockcg.New(prob, blockcg.WithBlockSize(2))
//	res, err := mgr.Solve()
//
// Dive into the package docs for full examples and the exact contracts of
// every stopping test and kernel variant.
//
//	go get github.com/katalvlaran/krylov
package krylov
