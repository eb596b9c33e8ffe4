package status

// Combo is the short-circuited OR of a convergence test and an
// iteration-cap test. The convergence test is always consulted first;
// the cap test is only consulted when no column converged, so a passing
// convergence check leaves the cap test's cached status untouched.
type Combo struct {
	conv   Test
	maxIt  Test
	status Status
}

// NewCombo builds the composite. conv is checked first, maxIt second.
func NewCombo(conv, maxIt Test) *Combo {
	if conv == nil || maxIt == nil {
		panic("status: NewCombo: nil component test")
	}

	return &Combo{conv: conv, maxIt: maxIt}
}

// Check evaluates the OR with short-circuiting.
func (c *Combo) Check(it Iteration) Status {
	if c.conv.Check(it) == Passed {
		c.status = Passed

		return c.status
	}

	c.status = c.maxIt.Check(it)

	return c.status
}

// Status returns the outcome of the most recent Check.
func (c *Combo) Status() Status { return c.status }

// Reset resets the composite and both components.
func (c *Combo) Reset() {
	c.status = Undefined
	c.conv.Reset()
	c.maxIt.Reset()
}
