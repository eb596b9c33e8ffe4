package ortho

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/krylov/mvec"
)

// Shared Gram–Schmidt building blocks. Every manager is a thin policy
// over these three primitives.

// blockProject removes from x its components along the fixed orthonormal
// bases: x −= Q·(Qᵀx), one block operation per basis. This is the
// classical (BLAS-3 friendly) formulation.
func blockProject(x mvec.MultiVec, against []mvec.MultiVec) error {
	var c mat.Dense
	for _, q := range against {
		if q == nil || q.NumVecs() == 0 {
			continue
		}
		if err := mvec.TransMul(&c, q, x); err != nil {
			return err
		}
		c.Scale(-1, &c)
		if err := mvec.MulAdd(x, q, &c); err != nil {
			return err
		}
	}

	return nil
}

// columnProject removes from x, column by column, its components along
// the fixed bases, re-measuring after every subtraction. This is the
// modified formulation.
func columnProject(x mvec.MultiVec, against []mvec.MultiVec) {
	for _, q := range against {
		if q == nil {
			continue
		}
		for i := 0; i < q.NumVecs(); i++ {
			qi := q.ColView(i)
			for j := 0; j < x.NumVecs(); j++ {
				xj := x.ColView(j)
				floats.AddScaled(xj, -floats.Dot(qi, xj), qi)
			}
		}
	}
}

// projectColClassical orthogonalizes xj against the first upTo columns
// of basis: all coefficients are measured against the incoming xj, then
// subtracted together.
func projectColClassical(xj []float64, basis mvec.MultiVec, upTo int) {
	if upTo == 0 {
		return
	}

	coeffs := make([]float64, upTo)
	for i := 0; i < upTo; i++ {
		coeffs[i] = floats.Dot(basis.ColView(i), xj)
	}
	for i := 0; i < upTo; i++ {
		floats.AddScaled(xj, -coeffs[i], basis.ColView(i))
	}
}

// projectColModified orthogonalizes xj against the first upTo columns of
// basis, re-measuring the coefficient after each subtraction.
func projectColModified(xj []float64, basis mvec.MultiVec, upTo int) {
	for i := 0; i < upTo; i++ {
		qi := basis.ColView(i)
		floats.AddScaled(xj, -floats.Dot(qi, xj), qi)
	}
}

// finishColumn checks a projected column against the singularity
// tolerance and normalizes it. origNorm is the column's pre-projection
// norm; j is the column index for error context.
func finishColumn(xj []float64, origNorm float64, j int, singTol float64) error {
	nrm := floats.Norm(xj, 2)
	if origNorm == 0 || nrm <= singTol*origNorm {
		return fmt.Errorf("%w: column %d collapsed during orthogonalization", ErrRankDeficient, j)
	}
	floats.Scale(1/nrm, xj)

	return nil
}

// gatherOptions applies functional options over the defaults and
// resolves the negative-kappa "use default" sentinel.
func gatherOptions(opts []Option) Options {
	cfg := Options{
		Kappa:          DefaultKappa,
		SingularityTol: DefaultSingularityTol,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Kappa < 0 {
		cfg.Kappa = DefaultKappa
	}

	return cfg
}
