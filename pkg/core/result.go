package core

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OptimizationResult is the outcome of one solve. Once it reaches a terminal
// status the lifecycle methods leave it untouched.
type OptimizationResult struct {
	ProblemID    string       `json:"problemId"`
	ResultID     string       `json:"resultId"`
	Status       Status       `json:"status"`
	SolverStatus SolverStatus `json:"solverStatus,omitempty"`
	IsOptimal    bool         `json:"isOptimal"`

	SolveTimeSeconds float64 `json:"solveTimeSeconds"`
	IterationCount   int     `json:"iterationCount"`

	ObjectiveValue    float64 `json:"objectiveValue"`
	SolutionQuality   float64 `json:"solutionQuality"`
	ConfidenceScore   float64 `json:"confidenceScore"`
	DiversityScore    float64 `json:"diversificationScore"`
	ConcentrationRisk float64 `json:"concentrationRisk"`

	Allocations []*AllocationDecision `json:"allocations"`

	TotalCostPerHour      float64            `json:"totalCostPerHour"`
	CostBreakdown         map[string]float64 `json:"costBreakdown,omitempty"`
	CostSavingsAmount     *float64           `json:"costSavingsAmount,omitempty"`
	CostSavingsPercentage *float64           `json:"costSavingsPercentage,omitempty"`

	TotalPerformanceScore float64            `json:"totalPerformanceScore"`
	PerformanceBreakdown  map[string]float64 `json:"performanceBreakdown,omitempty"`
	TotalRiskScore        float64            `json:"totalRiskScore"`
	RiskFactors           map[string]float64 `json:"riskFactors,omitempty"`

	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	Message      string `json:"message,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	err error
}

func NewResult(problemID string) *OptimizationResult {
	return &OptimizationResult{
		ProblemID: problemID,
		ResultID:  uuid.NewString(),
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// Start moves a pending result to running.
func (r *OptimizationResult) Start() {
	if r.Status == StatusPending {
		r.Status = StatusRunning
	}
}

// Complete marks the result successful with the given solver status.
func (r *OptimizationResult) Complete(status SolverStatus, solveTime time.Duration) {
	if r.Status.Terminal() {
		return
	}
	r.Status = StatusCompleted
	r.SolverStatus = status
	r.IsOptimal = status == SolverOptimal
	r.finish(solveTime)
}

// Fail marks the result failed with an error code and message.
func (r *OptimizationResult) Fail(status SolverStatus, code string, err error, solveTime time.Duration) {
	if r.Status.Terminal() {
		return
	}
	r.Status = StatusFailed
	r.SolverStatus = status
	r.IsOptimal = false
	r.ErrorCode = code
	if err != nil {
		r.ErrorMessage = err.Error()
	}
	r.err = err
	r.finish(solveTime)
}

func (r *OptimizationResult) finish(solveTime time.Duration) {
	r.SolveTimeSeconds = solveTime.Seconds()
	now := time.Now().UTC()
	r.CompletedAt = &now
}

// Err returns the error behind a failed result, nil otherwise.
func (r *OptimizationResult) Err() error {
	return r.err
}

func (r *OptimizationResult) Succeeded() bool {
	return r.Status == StatusCompleted
}

func (r *OptimizationResult) TotalInstances() int {
	n := 0
	for _, a := range r.Allocations {
		n += a.Count
	}
	return n
}

func (r *OptimizationResult) TotalGPUs() int {
	n := 0
	for _, a := range r.Allocations {
		n += a.TotalGPUCount()
	}
	return n
}

// GPUsByType sums allocated GPUs per GPU type.
func (r *OptimizationResult) GPUsByType() map[GPUType]int {
	out := make(map[GPUType]int)
	for _, a := range r.Allocations {
		out[a.Option.GPUType] += a.TotalGPUCount()
	}
	return out
}

// ProviderBreakdown counts instances per provider.
func (r *OptimizationResult) ProviderBreakdown() map[string]int {
	out := make(map[string]int)
	for _, a := range r.Allocations {
		out[a.Option.ProviderName] += a.Count
	}
	return out
}

func (r *OptimizationResult) CostByProvider() map[string]float64 {
	out := make(map[string]float64)
	for _, a := range r.Allocations {
		out[a.Option.ProviderName] += a.TotalCostPerHour()
	}
	return out
}

func (r *OptimizationResult) CostByGPUType() map[string]float64 {
	out := make(map[string]float64)
	for _, a := range r.Allocations {
		out[string(a.Option.GPUType)] += a.TotalCostPerHour()
	}
	return out
}

func (r *OptimizationResult) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Result: id=%s; problem=%s; status=%s; solver=%s; objective=%v; cost=%v/hr; time=%.3fs\n",
		r.ResultID, r.ProblemID, r.Status, r.SolverStatus, r.ObjectiveValue, r.TotalCostPerHour, r.SolveTimeSeconds)
	for _, a := range r.Allocations {
		fmt.Fprintf(&b, "  %s\n", a)
	}
	if r.ErrorCode != "" {
		fmt.Fprintf(&b, "  error=%s: %s\n", r.ErrorCode, r.ErrorMessage)
	}
	return b.String()
}
