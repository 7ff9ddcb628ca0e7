package solver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudarb/allocation-optimizer/internal/logger"
	"github.com/cloudarb/allocation-optimizer/pkg/config"
	"github.com/cloudarb/allocation-optimizer/pkg/core"
	"github.com/cloudarb/allocation-optimizer/pkg/cost"
	"github.com/cloudarb/allocation-optimizer/pkg/lp"
	"github.com/cloudarb/allocation-optimizer/pkg/performance"
	"github.com/cloudarb/allocation-optimizer/pkg/risk"
)

var (
	ErrInfeasible   = errors.New("problem is infeasible - no solution exists")
	ErrUnbounded    = errors.New("problem is unbounded")
	ErrLimitReached = errors.New("no feasible solution found within the solver limits")
	ErrPanic        = errors.New("solver panic")
)

const suboptimalMessage = "Solver found feasible but not optimal solution: limit reached before optimality was proven"

// Solver runs one optimization problem through model building, the MILP
// engine and solution processing. A Solver holds no per-solve state and may
// be used by concurrent goroutines; each call gets its own engine.
type Solver struct {
	spec      *config.OptimizerSpec
	factory   lp.Factory
	builder   *ModelBuilder
	processor *SolutionProcessor
}

type SolverOption func(*solverOptions)

type solverOptions struct {
	factory lp.Factory
	cost    *cost.Calculator
	perf    *performance.Analyzer
	risk    *risk.Manager
}

// WithEngineFactory replaces the default branch-and-bound engine.
func WithEngineFactory(f lp.Factory) SolverOption {
	return func(o *solverOptions) { o.factory = f }
}

func WithCostCalculator(c *cost.Calculator) SolverOption {
	return func(o *solverOptions) { o.cost = c }
}

func WithPerformanceAnalyzer(a *performance.Analyzer) SolverOption {
	return func(o *solverOptions) { o.perf = a }
}

func WithRiskManager(m *risk.Manager) SolverOption {
	return func(o *solverOptions) { o.risk = m }
}

func NewSolver(optimizerSpec *config.OptimizerSpec, opts ...SolverOption) *Solver {
	if optimizerSpec == nil {
		d := config.DefaultOptimizerSpec()
		optimizerSpec = &d
	}
	o := &solverOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.factory == nil {
		o.factory = lp.NewFactory(optimizerSpec.Threads, optimizerSpec.Tolerance, optimizerSpec.IntegralityTolerance)
	}
	if o.cost == nil {
		o.cost = cost.NewCalculator()
	}
	if o.perf == nil {
		o.perf = performance.NewAnalyzer()
	}
	if o.risk == nil {
		o.risk = risk.NewManager()
	}
	return &Solver{
		spec:      optimizerSpec,
		factory:   o.factory,
		builder:   NewModelBuilder(optimizerSpec, o.cost, o.perf, o.risk),
		processor: NewSolutionProcessor(optimizerSpec, o.cost, o.perf, o.risk),
	}
}

func (s *Solver) Builder() *ModelBuilder {
	return s.builder
}

// Solve never returns an error: every outcome, including validation failures
// and engine panics, is reported on the terminal result.
func (s *Solver) Solve(ctx context.Context, problem *core.OptimizationProblem) (result *core.OptimizationResult) {
	id := ""
	if problem != nil {
		id = problem.ID
	}
	result = core.NewResult(id)
	result.Start()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrPanic, r)
			logger.Log.Errorw("solver panic", "problem", id, "panic", r)
			result.Fail(core.SolverError, core.CodeSolver, err, time.Since(start))
		}
	}()

	logger.Log.Infow("optimization started", "problem", id)

	engine := s.factory()
	model, err := s.builder.Build(problem, engine)
	if err != nil {
		if errors.Is(err, core.ErrValidation) {
			logger.Log.Warnw("problem rejected", "problem", id, "error", err)
			result.Fail("", core.CodeValidation, err, time.Since(start))
			return result
		}
		logger.Log.Errorw("model building failed", "problem", id, "error", err)
		result.Fail(core.SolverError, core.CodeSolver, err, time.Since(start))
		return result
	}

	status, err := engine.Solve(ctx, s.limits(problem))
	elapsed := time.Since(start)
	if err != nil {
		logger.Log.Errorw("engine failed", "problem", id, "error", err)
		result.Fail(core.SolverError, core.CodeSolver, err, elapsed)
		return result
	}

	switch status {
	case lp.Optimal:
		s.processor.Process(problem, model, result, true, elapsed)
		result.Complete(core.SolverOptimal, elapsed)
	case lp.Feasible:
		s.processor.Process(problem, model, result, false, elapsed)
		result.Message = suboptimalMessage
		result.Complete(core.SolverFeasibleSuboptimal, elapsed)
	case lp.Infeasible:
		result.Fail(core.SolverInfeasible, core.CodeInfeasible, ErrInfeasible, elapsed)
	case lp.Unbounded:
		result.Fail(core.SolverUnbounded, core.CodeUnbounded, ErrUnbounded, elapsed)
	case lp.LimitReached:
		result.Fail(core.SolverError, core.CodeSolver,
			fmt.Errorf("%w (timeout %v, node limit %d)", ErrLimitReached, problem.Timeout(), s.limits(problem).NodeLimit), elapsed)
	default:
		result.Fail(core.SolverError, core.CodeSolver, fmt.Errorf("solver failed with status: %s", status), elapsed)
	}

	logger.Log.Infow("optimization finished",
		"problem", id,
		"status", result.Status,
		"solverStatus", result.SolverStatus,
		"objective", result.ObjectiveValue,
		"nodes", engine.Nodes(),
		"seconds", result.SolveTimeSeconds)
	return result
}

// limits converts the problem knobs to engine limits. A problem without an
// iteration limit uses the optimizer one.
func (s *Solver) limits(problem *core.OptimizationProblem) lp.Limits {
	nodes := problem.MaxIterations
	if nodes <= 0 {
		nodes = s.spec.MaxIterations
	}
	return lp.Limits{TimeLimit: problem.Timeout(), NodeLimit: nodes}
}
