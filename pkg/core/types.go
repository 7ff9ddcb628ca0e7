package core

import "strings"

// GPU type of an instance option or a requirement, normalized to lower case.
// Names outside the benchmarked set (e.g. "t4") are kept as given and
// classify as GPUOther.
type GPUType string

const (
	GPUV100    GPUType = "v100"
	GPUA100    GPUType = "a100"
	GPUH100    GPUType = "h100"
	GPURTX4090 GPUType = "rtx4090"
	GPURTX3090 GPUType = "rtx3090"
	GPUOther   GPUType = "other"
)

var knownGPUTypes = map[GPUType]bool{
	GPUV100:    true,
	GPUA100:    true,
	GPUH100:    true,
	GPURTX4090: true,
	GPURTX3090: true,
}

func ParseGPUType(name string) GPUType {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimPrefix(s, "nvidia")
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return GPUOther
	}
	return GPUType(s)
}

// Class maps the type onto the benchmarked enumeration.
func (g GPUType) Class() GPUType {
	if knownGPUTypes[g] {
		return g
	}
	return GPUOther
}

// Pricing mode of a purchasable instance
type PricingMode string

const (
	OnDemand   PricingMode = "on_demand"
	Spot       PricingMode = "spot"
	Reserved1Y PricingMode = "reserved_1y"
	Reserved3Y PricingMode = "reserved_3y"
)

// PricingModes lists all modes in variable creation order.
var PricingModes = []PricingMode{OnDemand, Spot, Reserved1Y, Reserved3Y}

func (m PricingMode) IsReserved() bool {
	return m == Reserved1Y || m == Reserved3Y
}

func (m PricingMode) Valid() bool {
	switch m {
	case OnDemand, Spot, Reserved1Y, Reserved3Y:
		return true
	}
	return false
}

// Optimization objective
type Objective string

const (
	MinimizeCost           Objective = "minimize_cost"
	MaximizePerformance    Objective = "maximize_performance"
	BalanceCostPerformance Objective = "balance_cost_performance"
	MinimizeRisk           Objective = "minimize_risk"
	MaximizeAvailability   Objective = "maximize_availability"
)

func (o Objective) Valid() bool {
	switch o {
	case MinimizeCost, MaximizePerformance, BalanceCostPerformance, MinimizeRisk, MaximizeAvailability:
		return true
	}
	return false
}

type ConstraintType string

const (
	BudgetConstraint        ConstraintType = "budget"
	PerformanceConstraint   ConstraintType = "performance"
	RiskConstraint          ConstraintType = "risk"
	AvailabilityConstraint  ConstraintType = "availability"
	ProviderLimitConstraint ConstraintType = "provider_limit"
	CustomConstraint        ConstraintType = "custom"
)

func (c ConstraintType) Valid() bool {
	switch c {
	case BudgetConstraint, PerformanceConstraint, RiskConstraint, AvailabilityConstraint,
		ProviderLimitConstraint, CustomConstraint:
		return true
	}
	return false
}

// Comparison operator of a constraint
type Operator string

const (
	LessEqual    Operator = "<="
	GreaterEqual Operator = ">="
	Equal        Operator = "=="
	NotEqual     Operator = "!="
)

func (o Operator) Valid() bool {
	switch o {
	case LessEqual, GreaterEqual, Equal, NotEqual:
		return true
	}
	return false
}

// Workload class used when deriving performance scores
type WorkloadClass string

const (
	Training       WorkloadClass = "training"
	Inference      WorkloadClass = "inference"
	DataProcessing WorkloadClass = "data_processing"
)

// Lifecycle status of an optimization result
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Terminal outcome reported by the solver
type SolverStatus string

const (
	SolverOptimal            SolverStatus = "OPTIMAL"
	SolverFeasibleSuboptimal SolverStatus = "FEASIBLE_SUBOPTIMAL"
	SolverInfeasible         SolverStatus = "INFEASIBLE"
	SolverUnbounded          SolverStatus = "UNBOUNDED"
	SolverError              SolverStatus = "SOLVER_ERROR"
)

// Error codes carried on failed results
const (
	CodeInfeasible = "INFEASIBLE"
	CodeUnbounded  = "UNBOUNDED"
	CodeSolver     = "SOLVER_ERROR"
	CodeValidation = "VALIDATION_ERROR"
)

// normalized provider key used by lookup tables
func ProviderKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
