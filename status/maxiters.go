package status

import "fmt"

// MaxIters passes once the kernel's step counter reaches the configured
// cap. Reaching the cap is the normal Unconverged outcome, not an error.
type MaxIters struct {
	max    int
	seen   int
	status Status
}

// NewMaxIters builds the iteration-cap test.
func NewMaxIters(max int) (*MaxIters, error) {
	if max <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrBadMaxIters, max)
	}

	return &MaxIters{max: max}, nil
}

// MaxIters returns the configured cap.
func (m *MaxIters) MaxIters() int { return m.max }

// Check records the kernel's counter and passes once it reaches the cap.
func (m *MaxIters) Check(it Iteration) Status {
	m.seen = it.NumIters()
	if m.seen >= m.max {
		m.status = Passed
	} else {
		m.status = Failed
	}

	return m.status
}

// Status returns the outcome of the most recent Check.
func (m *MaxIters) Status() Status { return m.status }

// NumIters returns the kernel step counter as last observed by Check.
// When groups are solved sequentially this reflects the most recently
// run kernel instance, not a cumulative sum.
func (m *MaxIters) NumIters() int { return m.seen }

// Reset forgets the observed counter and cached outcome.
func (m *MaxIters) Reset() {
	m.seen = 0
	m.status = Undefined
}
