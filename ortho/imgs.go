package ortho

import (
	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/krylov/mvec"
)

// imgsManager implements iterated modified Gram–Schmidt: two sweeps of
// column-by-column projections, each coefficient re-measured after the
// previous subtraction. The most careful of the three strategies.
type imgsManager struct {
	opts Options
}

// Kind reports IMGS.
func (m *imgsManager) Kind() Kind { return IMGS }

// Normalize orthonormalizes x in place with two modified sweeps per
// column and returns the rank found.
func (m *imgsManager) Normalize(x mvec.MultiVec) (int, error) {
	k := x.NumVecs()
	for j := 0; j < k; j++ {
		xj := x.ColView(j)
		orig := floats.Norm(xj, 2)

		for s := 0; s < numSweeps; s++ {
			projectColModified(xj, x, j)
		}

		if err := finishColumn(xj, orig, j, m.opts.SingularityTol); err != nil {
			return j, err
		}
	}

	return k, nil
}

// ProjectAndNormalize runs two column-wise modified sweeps against the
// fixed bases, then orthonormalizes the remainder.
func (m *imgsManager) ProjectAndNormalize(x mvec.MultiVec, against ...mvec.MultiVec) (int, error) {
	for s := 0; s < numSweeps; s++ {
		columnProject(x, against)
	}

	return m.Normalize(x)
}
