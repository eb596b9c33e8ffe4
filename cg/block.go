package cg

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/krylov/mvec"
	"github.com/katalvlaran/krylov/ortho"
	"github.com/katalvlaran/krylov/problem"
	"github.com/katalvlaran/krylov/status"
)

// BlockCG iterates on an n×k block of right-hand sides at once. The
// direction block is kept orthonormal by an ortho.Manager, and the k×k
// coefficient systems against PᵀAP are solved by Cholesky factorization,
// so a failed factorization doubles as the positive-definiteness check.
type BlockCG struct {
	prob *problem.Problem
	om   ortho.Manager
	opts Options

	st *State
	x  mvec.MultiVec

	blockSize int // 0 until SetBlockSize; Initialize adopts r0's width then

	// small k×k work matrices, reused across steps
	pap   mat.Dense
	rhs   mat.Dense
	coeff mat.Dense
	sym   *mat.SymDense
	chol  mat.Cholesky

	iters int
	ready bool
}

// NewBlock builds the block kernel over the given problem handle and
// orthogonalization manager.
func NewBlock(p *problem.Problem, om ortho.Manager, opts ...Option) (*BlockCG, error) {
	if p == nil {
		return nil, ErrNilProblem
	}
	if om == nil {
		return nil, ErrNilOrtho
	}

	return &BlockCG{prob: p, om: om, opts: gatherOptions(opts)}, nil
}

// Variant reports Block.
func (k *BlockCG) Variant() Variant { return Block }

// NumIters returns the step counter.
func (k *BlockCG) NumIters() int { return k.iters }

// ResetNumIters zeroes the step counter.
func (k *BlockCG) ResetNumIters() { k.iters = 0 }

// SetBlockSize records the working block width; the next Initialize
// reshapes the state to match. Deflation calls this with the shrunken
// count before re-initializing.
func (k *BlockCG) SetBlockSize(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: block CG requires at least 1 column, got %d", ErrBadBlockSize, n)
	}
	k.blockSize = n

	return nil
}

// NativeResiduals returns the recurrence residual block and fills its
// column 2-norms.
func (k *BlockCG) NativeResiduals(norms []float64) mvec.MultiVec {
	if k.st == nil || k.st.r == nil {
		return nil
	}
	if norms != nil {
		_ = k.st.r.Norms(norms)
	}

	return k.st.r
}

// Initialize binds the persisted state and the group's initial residual
// block: R = r₀, P = R orthonormalized. The step counter is left
// untouched so deflation re-initialization keeps counting.
func (k *BlockCG) Initialize(st *State, r0 mvec.MultiVec) error {
	if st == nil || st.Variant() != Block {
		return fmt.Errorf("%w: want %v", ErrStateMismatch, Block)
	}
	if r0 == nil || r0.NumVecs() < 1 {
		return fmt.Errorf("%w: empty residual block", ErrBadBlockSize)
	}
	nb := r0.NumVecs()
	if k.blockSize > 0 && nb != k.blockSize {
		return fmt.Errorf("%w: residual block has %d columns, block size is %d",
			ErrBadBlockSize, nb, k.blockSize)
	}
	k.blockSize = nb

	dim := r0.Dim()
	r := ensureBlock(&st.r, dim, nb)
	p := ensureBlock(&st.p, dim, nb)
	ensureBlock(&st.ap, dim, nb)
	ensureBlock(&st.w, dim, nb)

	if err := mvec.Copy(r, r0); err != nil {
		return err
	}
	if err := mvec.Copy(p, r); err != nil {
		return err
	}
	if _, err := k.om.Normalize(p); err != nil {
		return fmt.Errorf("%w: initial directions: %w", ErrOrthoFailure, err)
	}

	x, err := k.prob.ActiveLHS()
	if err != nil {
		return err
	}

	if k.sym == nil || k.sym.SymmetricDim() != nb {
		k.sym = mat.NewSymDense(nb, nil)
	}

	k.st = st
	k.x = x
	k.ready = true

	return nil
}

// Iterate advances the block recurrence until the stopping test passes.
//
// Per step:
//
//	AP = A·P
//	α  = (PᵀAP)⁻¹ PᵀR           (Cholesky solve)
//	X += P·α ;  R −= AP·α
//	β  = −(PᵀAP)⁻¹ APᵀR
//	P  = orthonormalize(R + P·β)
func (k *BlockCG) Iterate(test status.Test) error {
	if !k.ready {
		return ErrUninitialized
	}

	a := k.prob.Operator()
	r, p, ap, scratch := k.st.r, k.st.p, k.st.ap, k.st.w
	nb := k.blockSize

	for {
		if err := a.Apply(ap, p); err != nil {
			return err
		}

		// PᵀAP, symmetrized before factorization: TransMul evaluates the
		// two triangles independently and rounding makes them disagree.
		if err := mvec.TransMul(&k.pap, p, ap); err != nil {
			return err
		}
		for i := 0; i < nb; i++ {
			for j := i; j < nb; j++ {
				k.sym.SetSym(i, j, 0.5*(k.pap.At(i, j)+k.pap.At(j, i)))
			}
		}
		if ok := k.chol.Factorize(k.sym); !ok {
			return fmt.Errorf("%w: Cholesky of PᵀAP failed at iteration %d",
				ErrNotPositiveDefinite, k.iters)
		}

		if err := mvec.TransMul(&k.rhs, p, r); err != nil {
			return err
		}
		k.coeff.Reset()
		if err := k.chol.SolveTo(&k.coeff, &k.rhs); err != nil {
			return fmt.Errorf("%w: solving for α at iteration %d", ErrNotPositiveDefinite, k.iters)
		}

		if err := mvec.MulAdd(k.x, p, &k.coeff); err != nil {
			return err
		}
		k.coeff.Scale(-1, &k.coeff)
		if err := mvec.MulAdd(r, ap, &k.coeff); err != nil {
			return err
		}
		k.iters++

		if r.HasNaN() {
			return fmt.Errorf("%w: residual block at iteration %d", ErrNaN, k.iters)
		}

		if test.Check(k) == status.Passed {
			return nil
		}

		if err := mvec.TransMul(&k.rhs, ap, r); err != nil {
			return err
		}
		k.coeff.Reset()
		if err := k.chol.SolveTo(&k.coeff, &k.rhs); err != nil {
			return fmt.Errorf("%w: solving for β at iteration %d", ErrNotPositiveDefinite, k.iters)
		}
		k.coeff.Scale(-1, &k.coeff)

		// P ← R + P·β, then restore orthonormality.
		if err := mvec.Copy(scratch, r); err != nil {
			return err
		}
		if err := mvec.MulAdd(scratch, p, &k.coeff); err != nil {
			return err
		}
		if err := mvec.Copy(p, scratch); err != nil {
			return err
		}
		if _, err := k.om.Normalize(p); err != nil {
			return fmt.Errorf("%w: at iteration %d: %w", ErrOrthoFailure, k.iters, err)
		}
	}
}
