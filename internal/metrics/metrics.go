package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cloudarb/allocation-optimizer/internal/constants"
	"github.com/cloudarb/allocation-optimizer/pkg/core"
)

var (
	optimizationRuns   *prometheus.CounterVec
	solveSeconds       *prometheus.HistogramVec
	costPerHour        *prometheus.GaugeVec
	optimizationErrors *prometheus.CounterVec
	optimizationCycles *prometheus.CounterVec
)

// InitMetrics registers all custom metrics with the provided registry
func InitMetrics(registry prometheus.Registerer) {
	optimizationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: constants.OptimizationRunsTotal,
			Help: "Total number of optimization runs",
		},
		[]string{constants.LabelObjective, constants.LabelStatus},
	)
	solveSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    constants.OptimizationSolveSeconds,
			Help:    "Wall clock time spent solving an optimization problem",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{constants.LabelObjective},
	)
	costPerHour = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: constants.OptimizationCostPerHour,
			Help: "Hourly cost of the latest allocation plan of a problem",
		},
		[]string{constants.LabelProblem},
	)
	optimizationErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: constants.OptimizationErrorsTotal,
			Help: "Total number of failed optimization runs",
		},
		[]string{constants.LabelErrorCode},
	)
	optimizationCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: constants.OptimizationCyclesTotal,
			Help: "Total number of periodic re-optimization cycles",
		},
		[]string{constants.LabelOutcome},
	)

	registry.MustRegister(optimizationRuns)
	registry.MustRegister(solveSeconds)
	registry.MustRegister(costPerHour)
	registry.MustRegister(optimizationErrors)
	registry.MustRegister(optimizationCycles)
}

// InitMetricsAndEmitter registers metrics with Prometheus and creates a metrics emitter
func InitMetricsAndEmitter(registry prometheus.Registerer) *MetricsEmitter {
	InitMetrics(registry)
	return NewMetricsEmitter()
}

// MetricsEmitter handles emission of custom metrics
type MetricsEmitter struct{}

func NewMetricsEmitter() *MetricsEmitter {
	return &MetricsEmitter{}
}

// EmitResultMetrics records the outcome of one optimization run.
func (m *MetricsEmitter) EmitResultMetrics(ctx context.Context, problem *core.OptimizationProblem, result *core.OptimizationResult) {
	if problem == nil || result == nil || optimizationRuns == nil {
		return
	}
	objective := string(problem.Objective)
	optimizationRuns.With(prometheus.Labels{
		constants.LabelObjective: objective,
		constants.LabelStatus:    string(result.Status),
	}).Inc()
	solveSeconds.With(prometheus.Labels{constants.LabelObjective: objective}).Observe(result.SolveTimeSeconds)

	if result.Succeeded() {
		costPerHour.With(prometheus.Labels{constants.LabelProblem: problem.Name}).Set(result.TotalCostPerHour)
		return
	}
	m.EmitErrorMetrics(ctx, result.ErrorCode)
}

// EmitErrorMetrics emits error-related metrics
func (m *MetricsEmitter) EmitErrorMetrics(ctx context.Context, errorCode string) {
	if optimizationErrors == nil {
		return
	}
	if errorCode == "" {
		errorCode = constants.UnknownErrorCode
	}
	optimizationErrors.With(prometheus.Labels{constants.LabelErrorCode: errorCode}).Inc()
}

// EmitCycleMetrics counts one periodic re-optimization cycle.
func (m *MetricsEmitter) EmitCycleMetrics(ctx context.Context, err error) {
	if optimizationCycles == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	optimizationCycles.With(prometheus.Labels{constants.LabelOutcome: outcome}).Inc()
}
