// Package ortho provides block Gram–Schmidt orthogonalization managers
// for the block Conjugate-Gradient kernel. Three classic strategies are
// available, selected by Kind:
//
//   - DGKS — classical Gram–Schmidt with a conditional second pass,
//     triggered when a column loses more than a kappa fraction of its
//     norm during projection (the Daniel–Gragg–Kaufman–Stewart test).
//   - ICGS — iterated classical Gram–Schmidt: a fixed number of full
//     classical sweeps (two), trading a little arithmetic for
//     unconditional robustness. The default.
//   - IMGS — iterated modified Gram–Schmidt: column-by-column
//     projections, two sweeps; the most cache-unfriendly but the most
//     numerically careful of the three.
//
// All managers implement the same two operations: Normalize turns a
// block's columns into an orthonormal set in place and reports the rank
// found; ProjectAndNormalize additionally projects the block against
// previously fixed bases first. A block whose columns are linearly
// dependent (to within the singularity tolerance) yields
// ErrRankDeficient together with the rank reached.
package ortho
