package optimizer

import (
	"context"

	"github.com/cloudarb/allocation-optimizer/internal/forecast"
	"github.com/cloudarb/allocation-optimizer/internal/interfaces"
	"github.com/cloudarb/allocation-optimizer/internal/logger"
	"github.com/cloudarb/allocation-optimizer/internal/metrics"
	"github.com/cloudarb/allocation-optimizer/internal/utils"
	"github.com/cloudarb/allocation-optimizer/pkg/core"
	"github.com/cloudarb/allocation-optimizer/pkg/manager"
	"github.com/cloudarb/allocation-optimizer/pkg/solver"
)

// Service runs one optimization end to end: price forecast blending, solving,
// metrics, persistence and execution of the plan. Only the solver is required.
// Like solver.Optimizer it is not safe for concurrent use.
type Service struct {
	optimizer  *solver.Optimizer
	forecaster interfaces.PriceForecaster
	alpha      float64
	store      interfaces.ResultStore
	executor   interfaces.AllocationExecutor
	emitter    *metrics.MetricsEmitter
}

type ServiceOption func(*Service)

// WithForecaster blends forecasted prices into the catalog with weight alpha.
func WithForecaster(f interfaces.PriceForecaster, alpha float64) ServiceOption {
	return func(s *Service) { s.forecaster, s.alpha = f, alpha }
}

func WithStore(st interfaces.ResultStore) ServiceOption {
	return func(s *Service) { s.store = st }
}

func WithExecutor(e interfaces.AllocationExecutor) ServiceOption {
	return func(s *Service) { s.executor = e }
}

func WithMetricsEmitter(e *metrics.MetricsEmitter) ServiceOption {
	return func(s *Service) { s.emitter = e }
}

func NewService(optimizer *solver.Optimizer, opts ...ServiceOption) *Service {
	s := &Service{optimizer: optimizer, alpha: forecast.DefaultAlpha}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Optimize solves the problem. Forecast and store failures are logged and do
// not fail the run; execution failures are returned with the result.
func (s *Service) Optimize(ctx context.Context, problem *core.OptimizationProblem) (*core.OptimizationResult, error) {
	problem = s.blendForecast(ctx, problem)

	result := s.optimizer.Optimize(ctx, problem)
	logger.Log.Infow("optimization finished",
		"problem", result.ProblemID, "status", result.Status, "solverStatus", result.SolverStatus,
		"costPerHour", result.TotalCostPerHour, "msec", s.optimizer.GetSolutionTimeMsec())

	return result, s.record(ctx, problem, result)
}

// OptimizeBatch solves independent problems concurrently through the batch
// manager and records every result. The first execution error is returned
// after all results are recorded.
func (s *Service) OptimizeBatch(ctx context.Context, problems []*core.OptimizationProblem) ([]*core.OptimizationResult, error) {
	blended := make([]*core.OptimizationProblem, len(problems))
	for i, p := range problems {
		blended[i] = s.blendForecast(ctx, p)
	}
	results := manager.NewManager(s.optimizer).SolveAll(ctx, blended)
	var firstErr error
	for i, r := range results {
		if err := s.record(ctx, blended[i], r); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return results, firstErr
}

// record emits metrics, persists the result and executes completed plans.
func (s *Service) record(ctx context.Context, problem *core.OptimizationProblem, result *core.OptimizationResult) error {
	if s.emitter != nil {
		s.emitter.EmitResultMetrics(ctx, problem, result)
	}
	if s.store != nil {
		storeCtx, cancel := context.WithTimeout(ctx, utils.DefaultStoreTimeout)
		err := s.store.SaveResult(storeCtx, problem, result)
		cancel()
		if err != nil {
			logger.Log.Errorw("failed to persist result", "result", result.ResultID, "error", err)
		}
	}
	if s.executor != nil && result.Succeeded() {
		return s.executor.Execute(ctx, result)
	}
	return nil
}

// blendForecast returns a shallow copy of the problem with a blended catalog,
// or the problem itself when no forecast applies.
func (s *Service) blendForecast(ctx context.Context, problem *core.OptimizationProblem) *core.OptimizationProblem {
	if s.forecaster == nil || problem == nil {
		return problem
	}
	forecasts, err := s.forecaster.Forecast(ctx, problem.Options)
	if err != nil {
		logger.Log.Warnw("price forecast unavailable, using current prices", "problem", problem.ID, "error", err)
		return problem
	}
	if len(forecasts) == 0 {
		return problem
	}
	blended := *problem
	blended.Options = forecast.Blend(problem.Options, forecasts, s.alpha)
	logger.Log.Debugw("blended price forecasts", "problem", problem.ID, "forecasts", len(forecasts), "alpha", s.alpha)
	return &blended
}
