package interfaces

import (
	"context"

	"github.com/cloudarb/allocation-optimizer/pkg/core"
)

// ResultStore persists optimization results.
type ResultStore interface {
	SaveResult(ctx context.Context, problem *core.OptimizationProblem, result *core.OptimizationResult) error
	GetResult(ctx context.Context, resultID string) (*StoredResult, error)
	ListResults(ctx context.Context, status core.Status, limit int) ([]*StoredResult, error)
}

// PriceForecaster predicts near term prices for catalog options.
type PriceForecaster interface {
	// Forecast returns forecasts keyed by option key; options without a
	// forecast are absent from the map.
	Forecast(ctx context.Context, options []*core.InstanceOption) (map[string]*PriceForecast, error)
}

// AllocationExecutor provisions the instances of a completed plan.
type AllocationExecutor interface {
	Execute(ctx context.Context, result *core.OptimizationResult) error
}
