// Package constants provides centralized constant definitions for the optimizer.
package constants

// Optimizer Output Metrics
// These metric names are used to emit optimization outcomes to Prometheus.
const (
	// OptimizationRunsTotal is a counter of finished optimization runs.
	// Labels: objective, status
	OptimizationRunsTotal = "cloudarb_optimization_runs_total"

	// OptimizationSolveSeconds is a histogram of the wall clock time of a solve.
	// Labels: objective
	OptimizationSolveSeconds = "cloudarb_optimization_solve_seconds"

	// OptimizationCostPerHour is a gauge holding the hourly cost of the latest plan.
	// Labels: problem
	OptimizationCostPerHour = "cloudarb_optimization_cost_per_hour"

	// OptimizationErrorsTotal is a counter of failed runs.
	// Labels: error_code
	OptimizationErrorsTotal = "cloudarb_optimization_errors_total"

	// OptimizationCyclesTotal counts periodic re-optimization cycles.
	// Labels: outcome (success/error)
	OptimizationCyclesTotal = "cloudarb_optimization_cycles_total"
)

// Metric Label Names
const (
	LabelObjective = "objective"
	LabelStatus    = "status"
	LabelProblem   = "problem"
	LabelErrorCode = "error_code"
	LabelOutcome   = "outcome"
)

// UnknownErrorCode labels failures that carry no error code.
const UnknownErrorCode = "UNKNOWN"
