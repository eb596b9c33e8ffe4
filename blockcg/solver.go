package blockcg

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/katalvlaran/krylov/cg"
	"github.com/katalvlaran/krylov/ortho"
	"github.com/katalvlaran/krylov/problem"
	"github.com/katalvlaran/krylov/status"
)

// discardLogger backs the nil-logger default.
var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// SolverManager orchestrates block Conjugate-Gradient solves over a
// linear problem handle: group partitioning, kernel selection, the inner
// iterate/check/deflate loop, and result aggregation.
//
// A SolverManager is not safe for concurrent use.
type SolverManager struct {
	prob *problem.Problem
	cfg  Options

	conv  *status.ResNorm
	maxIt *status.MaxIters
	out   *status.Output

	om ortho.Manager // built lazily, only block groups need it

	st *cg.State // variant-tagged, persisted across groups and solves

	achievedTol float64
	numIters    int
}

// New builds a solver manager over a problem handle. Configuration is
// validated here; the handle itself is only validated at Solve, so a
// manager may be constructed before the problem is finalized.
func New(p *problem.Problem, opts ...Option) (*SolverManager, error) {
	if p == nil {
		return nil, ErrNilProblem
	}

	cfg := gatherOptions(opts)
	if cfg.BlockSize < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrNonPositiveBlockSize, cfg.BlockSize)
	}

	conv, err := status.NewResNorm(p, cfg.Tolerance, cfg.NormKind, cfg.ScaleKind)
	if err != nil {
		return nil, err
	}
	maxIt, err := status.NewMaxIters(cfg.MaxIterations)
	if err != nil {
		return nil, err
	}

	out := status.NewOutput(status.NewCombo(conv, maxIt), cfg.Logger, cfg.OutputFrequency)

	sm := &SolverManager{
		prob:  p,
		cfg:   cfg,
		conv:  conv,
		maxIt: maxIt,
		out:   out,
	}
	out.SetSolverDesc(sm.Description())

	return sm, nil
}

// Description returns a human-readable summary of the configuration.
func (s *SolverManager) Description() string {
	return fmt.Sprintf("BlockCGSolver{Ortho=%q, BlockSize=%d}", s.cfg.OrthoKind, s.cfg.BlockSize)
}

// String implements fmt.Stringer.
func (s *SolverManager) String() string { return s.Description() }

// AchievedTolerance returns the largest per-column scaled residual value
// recorded over the most recent Solve, or 0 before any solve. After a
// NaN abort it holds the worst-case sentinel 1.0.
func (s *SolverManager) AchievedTolerance() float64 { return s.achievedTol }

// NumIterations returns the step counter of the most recently run kernel
// instance. When several groups are solved sequentially this is the last
// group's count, not a cumulative sum across groups.
func (s *SolverManager) NumIterations() int { return s.numIters }

// logger returns the configured logger or a discarding fallback.
func (s *SolverManager) logger() *slog.Logger {
	if s.cfg.Logger != nil {
		return s.cfg.Logger
	}

	return discardLogger
}

// orthoManager builds the orthogonalization manager on first use.
func (s *SolverManager) orthoManager() (ortho.Manager, error) {
	if s.om != nil {
		return s.om, nil
	}

	var opts []ortho.Option
	if s.cfg.OrthoKappa > 0 {
		opts = append(opts, ortho.WithKappa(s.cfg.OrthoKappa))
	}
	om, err := ortho.New(s.cfg.OrthoKind, opts...)
	if err != nil {
		return nil, err
	}
	s.om = om

	return om, nil
}

// kernelFor selects and constructs the iteration kernel for a group of
// the given width, and binds the persisted state to the matching variant.
// Selection is deterministic: width 1 with single-reduction off yields
// the scalar kernel, width 1 with it on yields the fused-reduction
// kernel, width above 1 yields the block kernel.
func (s *SolverManager) kernelFor(width int) (cg.Kernel, error) {
	kopts := []cg.Option{
		cg.WithAssertPositiveDefiniteness(s.cfg.AssertPositiveDefiniteness),
		cg.WithFoldConvergence(s.cfg.FoldConvergenceDetection),
	}

	var (
		k   cg.Kernel
		err error
	)
	switch {
	case width == 1 && !s.cfg.SingleReduction:
		k, err = cg.NewScalar(s.prob, kopts...)
	case width == 1:
		k, err = cg.NewSingleRed(s.prob, kopts...)
	default:
		var om ortho.Manager
		if om, err = s.orthoManager(); err != nil {
			return nil, err
		}
		k, err = cg.NewBlock(s.prob, om, kopts...)
	}
	if err != nil {
		return nil, err
	}

	if s.st == nil || s.st.Variant() != k.Variant() {
		s.st = cg.NewState(k.Variant())
	}

	return k, nil
}

// groupIndices builds the index set handed to the problem for the group
// starting at cursor. In adaptive mode the set holds exactly the real
// columns; otherwise it is padded to the configured block size with
// AugmentedSlot sentinels, which the handle skips.
func (s *SolverManager) groupIndices(cursor, numCurr, blockSize int) []int {
	width := numCurr
	if !s.cfg.AdaptiveBlockSize {
		width = blockSize
	}
	idx := make([]int, width)
	for i := range idx {
		if i < numCurr {
			idx[i] = cursor + i
		} else {
			idx[i] = problem.AugmentedSlot
		}
	}

	return idx
}

// Solve drives every right-hand side's scaled residual measure below the
// configured tolerance, or reports Unconverged for the groups that
// exhaust the iteration cap.
//
// The returned Result and error are independent axes: an iteration-cap
// exit and a NaN abort are both (Unconverged, nil); a non-nil error
// means the solve could not run to completion.
func (s *SolverManager) Solve() (Result, error) {
	// 1) Precondition: the handle must be finalized.
	if !s.prob.IsReady() {
		return Unconverged, ErrProblemNotReady
	}

	numRHS := s.prob.NumRHS()
	blockSize := s.cfg.BlockSize
	if blockSize > numRHS {
		blockSize = numRHS
	}

	s.conv.Reset()
	s.maxIt.Reset()
	s.achievedTol = 0
	s.numIters = 0

	// 2) Walk the groups.
	allConverged := true
	for cursor := 0; cursor < numRHS; cursor += blockSize {
		numCurr := numRHS - cursor
		if numCurr > blockSize {
			numCurr = blockSize
		}

		if err := s.prob.SetActiveColumns(s.groupIndices(cursor, numCurr, blockSize)); err != nil {
			return Unconverged, err
		}

		// 3) Select the kernel by the group's real width and prime it.
		kernel, err := s.kernelFor(numCurr)
		if err != nil {
			return Unconverged, err
		}
		kernel.ResetNumIters()
		s.out.ResetCallCount()

		r0, err := s.prob.ActiveInitResidual()
		if err != nil {
			return Unconverged, err
		}
		if err = kernel.Initialize(s.st, r0); err != nil {
			return Unconverged, err
		}

		// 4) Inner iterate/check/deflate loop.
		converged, err := s.iterateGroup(kernel)
		if err != nil {
			if errors.Is(err, cg.ErrNaN) {
				return s.abortOnNaN(kernel, err), nil
			}

			return Unconverged, err
		}
		if !converged {
			allConverged = false
		}

		// 5) Commit the group and advance.
		s.prob.FinishCurrent()
		s.numIters = kernel.NumIters()
	}

	// 6) Aggregate the achieved tolerance over every recorded column.
	for _, v := range s.conv.TestValues() {
		if v > s.achievedTol {
			s.achievedTol = v
		}
	}

	if allConverged {
		return Converged, nil
	}

	return Unconverged, nil
}

// iterateGroup runs one group to resolution: true when every column of
// the group converged, false when the iteration cap was reached. Kernel
// errors come back unchanged except for logging.
func (s *SolverManager) iterateGroup(kernel cg.Kernel) (bool, error) {
	active := append([]int(nil), s.prob.CurrentIndices()...)

	for {
		if err := kernel.Iterate(s.out); err != nil {
			if !errors.Is(err, cg.ErrNaN) {
				s.logger().Error("kernel failure",
					slog.String("solver", s.Description()),
					slog.Int("iter", kernel.NumIters()),
					slog.Any("err", err),
				)
			}

			return false, err
		}

		// Iterate returns only when the composite passed; decide which
		// component fired.
		switch {
		case s.conv.Status() == status.Passed:
			if s.conv.AllConverged(len(active)) {
				return true, nil
			}
			convSet := s.conv.ConvIndices()

			// Deflate: keep the unconverged columns in order, restart the
			// shrunken kernel from a compacted copy of their current
			// native residuals. The step counter is deliberately kept.
			survivors, local := splitSurvivors(active, convSet)
			rNow, err := kernel.NativeResiduals(nil).CloneCopy(local)
			if err != nil {
				return false, err
			}
			if err = s.prob.SetActiveColumns(survivors); err != nil {
				return false, err
			}
			if err = kernel.SetBlockSize(len(survivors)); err != nil {
				return false, err
			}
			if err = kernel.Initialize(s.st, rNow); err != nil {
				return false, err
			}
			active = survivors

		case s.maxIt.Status() == status.Passed:
			return false, nil

		default:
			return false, fmt.Errorf("%w: iteration %d", ErrInvariantViolation, kernel.NumIters())
		}
	}
}

// abortOnNaN implements the breakdown branch: the entire solution block
// is zeroed (all right-hand sides, previously resolved groups included)
// and the achieved tolerance is stamped with the worst-case sentinel.
func (s *SolverManager) abortOnNaN(kernel cg.Kernel, cause error) Result {
	s.logger().Warn("NaN breakdown, zeroing solution",
		slog.String("solver", s.Description()),
		slog.Int("iter", kernel.NumIters()),
		slog.Any("err", cause),
	)

	s.prob.LHS().Fill(0)
	s.prob.FinishCurrent()
	s.achievedTol = worstTolerance
	s.numIters = kernel.NumIters()

	return Unconverged
}

// splitSurvivors partitions the active global indices into the ones not
// in convSet (order-preserving) and their local block positions.
func splitSurvivors(active, convSet []int) (survivors, local []int) {
	done := make(map[int]struct{}, len(convSet))
	for _, g := range convSet {
		done[g] = struct{}{}
	}
	for pos, g := range active {
		if _, ok := done[g]; !ok {
			survivors = append(survivors, g)
			local = append(local, pos)
		}
	}

	return survivors, local
}
