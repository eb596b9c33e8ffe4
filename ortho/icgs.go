package ortho

import (
	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/krylov/mvec"
)

// icgsManager implements iterated classical Gram–Schmidt: a fixed two
// full sweeps, unconditionally. The second sweep restores orthogonality
// lost to cancellation in the first. This is the default manager.
type icgsManager struct {
	opts Options
}

// Kind reports ICGS.
func (m *icgsManager) Kind() Kind { return ICGS }

// Normalize orthonormalizes x in place with two classical sweeps per
// column and returns the rank found.
func (m *icgsManager) Normalize(x mvec.MultiVec) (int, error) {
	k := x.NumVecs()
	for j := 0; j < k; j++ {
		xj := x.ColView(j)
		orig := floats.Norm(xj, 2)

		for s := 0; s < numSweeps; s++ {
			projectColClassical(xj, x, j)
		}

		if err := finishColumn(xj, orig, j, m.opts.SingularityTol); err != nil {
			return j, err
		}
	}

	return k, nil
}

// ProjectAndNormalize runs two blockwise classical sweeps against the
// fixed bases, then orthonormalizes the remainder.
func (m *icgsManager) ProjectAndNormalize(x mvec.MultiVec, against ...mvec.MultiVec) (int, error) {
	for s := 0; s < numSweeps; s++ {
		if err := blockProject(x, against); err != nil {
			return 0, err
		}
	}

	return m.Normalize(x)
}
