package interfaces

import (
	"time"

	"github.com/cloudarb/allocation-optimizer/pkg/core"
)

// PriceForecast holds forecasted hourly prices per pricing mode.
type PriceForecast struct {
	Prices     map[core.PricingMode]float64
	Confidence float64 // 0-1
	Horizon    time.Duration
}

// StoredResult is a persisted summary of an optimization result.
type StoredResult struct {
	ResultID         string
	ProblemID        string
	ProblemName      string
	Objective        core.Objective
	Status           core.Status
	SolverStatus     core.SolverStatus
	ObjectiveValue   float64
	TotalCostPerHour float64
	SolveTimeSeconds float64
	SolutionQuality  float64
	ConfidenceScore  float64
	ErrorCode        string
	ErrorMessage     string
	CreatedAt        time.Time
	Allocations      []StoredAllocation
}

// StoredAllocation is a persisted allocation line.
type StoredAllocation struct {
	ProviderID     string
	InstanceTypeID string
	Region         string
	PricingMode    core.PricingMode
	Count          int
	CostPerHour    float64
}
