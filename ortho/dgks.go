package ortho

import (
	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/krylov/mvec"
)

// dgksManager implements classical Gram–Schmidt with the
// Daniel–Gragg–Kaufman–Stewart reorthogonalization test: a second
// projection pass runs only when a column retained less than a kappa
// fraction of its pre-projection norm.
type dgksManager struct {
	opts Options
}

// Kind reports DGKS.
func (m *dgksManager) Kind() Kind { return DGKS }

// Normalize orthonormalizes x in place, reorthogonalizing columns that
// fail the kappa test, and returns the rank found.
func (m *dgksManager) Normalize(x mvec.MultiVec) (int, error) {
	k := x.NumVecs()
	for j := 0; j < k; j++ {
		xj := x.ColView(j)
		orig := floats.Norm(xj, 2)

		// First classical pass against the already-fixed columns.
		projectColClassical(xj, x, j)

		// DGKS test: a large norm drop means cancellation ate the
		// column; run exactly one more pass.
		if floats.Norm(xj, 2) < m.opts.Kappa*orig {
			projectColClassical(xj, x, j)
		}

		if err := finishColumn(xj, orig, j, m.opts.SingularityTol); err != nil {
			return j, err
		}
	}

	return k, nil
}

// ProjectAndNormalize projects x against the fixed bases (with the same
// conditional second pass, applied blockwise) and then orthonormalizes.
func (m *dgksManager) ProjectAndNormalize(x mvec.MultiVec, against ...mvec.MultiVec) (int, error) {
	k := x.NumVecs()
	pre := make([]float64, k)
	if err := x.Norms(pre); err != nil {
		return 0, err
	}

	if err := blockProject(x, against); err != nil {
		return 0, err
	}

	// Re-run the block projection when any column tripped the kappa test.
	post := make([]float64, k)
	if err := x.Norms(post); err != nil {
		return 0, err
	}
	for j := 0; j < k; j++ {
		if post[j] < m.opts.Kappa*pre[j] {
			if err := blockProject(x, against); err != nil {
				return 0, err
			}

			break
		}
	}

	return m.Normalize(x)
}
