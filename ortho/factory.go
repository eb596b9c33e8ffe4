package ortho

import "fmt"

// New builds the orthogonalization manager for the given kind.
//
// Example:
//
//	om, err := ortho.New(ortho.DGKS, ortho.WithKappa(0.5))
func New(kind Kind, opts ...Option) (Manager, error) {
	cfg := gatherOptions(opts)

	switch kind {
	case ICGS:
		return &icgsManager{opts: cfg}, nil
	case DGKS:
		return &dgksManager{opts: cfg}, nil
	case IMGS:
		return &imgsManager{opts: cfg}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
}
