package manager

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/cloudarb/allocation-optimizer/internal/logger"
	"github.com/cloudarb/allocation-optimizer/pkg/core"
	"github.com/cloudarb/allocation-optimizer/pkg/solver"
)

// Manager solves batches of independent problems with a shared solver.
// Every solve builds its own engine, so solves do not share mutable state.
type Manager struct {
	optimizer *solver.Optimizer
	limit     int
}

func NewManager(optimizer *solver.Optimizer) *Manager {
	limit := 1
	if optimizer != nil && optimizer.Spec().MaxConcurrentSolves > 0 {
		limit = optimizer.Spec().MaxConcurrentSolves
	}
	return &Manager{
		optimizer: optimizer,
		limit:     limit,
	}
}

// Optimize solves a single problem.
func (m *Manager) Optimize(ctx context.Context, problem *core.OptimizationProblem) *core.OptimizationResult {
	return m.optimizer.Solver().Solve(ctx, problem)
}

// SolveAll solves the problems concurrently, at most limit at a time.
// Results are returned in the order of the problems. A canceled context
// makes the remaining solves report their limit outcome.
func (m *Manager) SolveAll(ctx context.Context, problems []*core.OptimizationProblem) []*core.OptimizationResult {
	results := make([]*core.OptimizationResult, len(problems))
	var g errgroup.Group
	g.SetLimit(m.limit)
	for i, p := range problems {
		g.Go(func() error {
			results[i] = m.optimizer.Solver().Solve(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	completed := 0
	for _, r := range results {
		if r.Succeeded() {
			completed++
		}
	}
	logger.Log.Infow("batch solved", "problems", len(problems), "completed", completed, "concurrency", m.limit)
	return results
}
