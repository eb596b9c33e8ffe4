package ortho

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/krylov/mvec"
)

// Sentinel errors returned by the orthogonalization managers.
var (
	// ErrUnknownKind indicates an unparseable orthogonalization name.
	ErrUnknownKind = errors.New("ortho: unknown orthogonalization kind")

	// ErrRankDeficient indicates that a block's columns are linearly
	// dependent to within the singularity tolerance; the accompanying
	// rank is the number of orthonormal columns produced before the
	// failure.
	ErrRankDeficient = errors.New("ortho: block is rank deficient")

	// ErrBadKappa indicates a DGKS reorthogonalization constant outside (0,1).
	ErrBadKappa = errors.New("ortho: kappa must lie in (0,1)")

	// ErrBadSingularityTol indicates a non-positive singularity tolerance.
	ErrBadSingularityTol = errors.New("ortho: singularity tolerance must be positive")
)

// Kind selects the orthogonalization strategy.
type Kind int

const (
	// ICGS is iterated classical Gram–Schmidt (the default).
	ICGS Kind = iota

	// DGKS is classical Gram–Schmidt with the conditional second pass.
	DGKS

	// IMGS is iterated modified Gram–Schmidt.
	IMGS
)

// ParseKind converts the conventional parameter strings to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "ICGS", "":
		return ICGS, nil
	case "DGKS":
		return DGKS, nil
	case "IMGS":
		return IMGS, nil
	default:
		return ICGS, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case DGKS:
		return "DGKS"
	case IMGS:
		return "IMGS"
	default:
		return "ICGS"
	}
}

// Defaults for the orthogonalization managers.
const (
	// DefaultKappa is the DGKS reorthogonalization constant: a second
	// classical pass runs when a column retains less than this fraction
	// of its pre-projection norm.
	DefaultKappa = 0.36

	// DefaultSingularityTol is the relative norm drop below which a
	// column is declared linearly dependent on its predecessors.
	DefaultSingularityTol = 1e-14

	// numSweeps is the fixed sweep count for the iterated strategies.
	numSweeps = 2
)

// Options configures a manager. Zero value means defaults.
type Options struct {
	// Kappa is the DGKS reorthogonalization constant; ignored by ICGS
	// and IMGS. A negative value means "use the default", matching the
	// conventional −1 sentinel of solver parameter lists.
	Kappa float64

	// SingularityTol is the relative tolerance for rank detection.
	SingularityTol float64
}

// Option is a functional option for configuring a manager.
type Option func(*Options)

// WithKappa sets the DGKS reorthogonalization constant. Values must lie
// in (0,1); a negative value restores the default.
func WithKappa(kappa float64) Option {
	return func(o *Options) {
		if kappa >= 1 || kappa == 0 {
			panic(ErrBadKappa.Error())
		}
		o.Kappa = kappa
	}
}

// WithSingularityTol sets the relative rank-detection tolerance.
func WithSingularityTol(tol float64) Option {
	return func(o *Options) {
		if tol <= 0 {
			panic(ErrBadSingularityTol.Error())
		}
		o.SingularityTol = tol
	}
}

// Manager maintains orthonormality of direction blocks for the block CG
// kernel. Implementations mutate blocks in place.
type Manager interface {
	// Kind reports the strategy implemented by this manager.
	Kind() Kind

	// Normalize orthonormalizes x's columns in place and returns the
	// rank found. A rank smaller than x.NumVecs() is reported together
	// with ErrRankDeficient.
	Normalize(x mvec.MultiVec) (int, error)

	// ProjectAndNormalize first projects x against the given fixed
	// orthonormal bases, then orthonormalizes what remains.
	ProjectAndNormalize(x mvec.MultiVec, against ...mvec.MultiVec) (int, error)
}
