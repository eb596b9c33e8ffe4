package status

import "log/slog"

// Output is a pass-through decorator around a stopping test. It carries
// no algorithmic weight: it resets a per-group call counter at group
// start, forwards every query to the wrapped test, and emits a progress
// record every freq calls.
//
// A freq of zero or less means "never log", matching the convention of
// an output frequency of −1 in classic solver packages.
type Output struct {
	child  Test
	logger *slog.Logger
	freq   int
	desc   string

	calls int
}

// NewOutput wraps child with progress logging. A nil logger disables
// logging regardless of freq.
func NewOutput(child Test, logger *slog.Logger, freq int) *Output {
	if child == nil {
		panic("status: NewOutput: nil child test")
	}

	return &Output{child: child, logger: logger, freq: freq}
}

// SetSolverDesc attaches a human-readable solver description to every
// progress record.
func (o *Output) SetSolverDesc(desc string) { o.desc = desc }

// ResetCallCount zeroes the per-group call counter. The solver manager
// calls this once at the start of every right-hand-side group.
func (o *Output) ResetCallCount() { o.calls = 0 }

// NumCalls returns the number of Check calls since the last reset.
func (o *Output) NumCalls() int { return o.calls }

// Check forwards to the wrapped test and logs progress every freq calls.
func (o *Output) Check(it Iteration) Status {
	o.calls++
	s := o.child.Check(it)

	if o.logger != nil && o.freq > 0 && o.calls%o.freq == 0 {
		o.logger.Info("solver progress",
			slog.String("solver", o.desc),
			slog.Int("iter", it.NumIters()),
			slog.String("status", s.String()),
		)
	}

	return s
}

// Status returns the wrapped test's cached status.
func (o *Output) Status() Status { return o.child.Status() }

// Reset resets the wrapped test and the call counter.
func (o *Output) Reset() {
	o.calls = 0
	o.child.Reset()
}
