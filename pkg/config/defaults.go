package config

/**
 * Parameters
 */

// default risk tolerance of a problem (0-1)
var DefaultRiskTolerance = 0.1

// default time horizon of a problem (hours)
var DefaultTimeHorizonHours = 24.0

// default solver wall-clock limit (seconds)
var DefaultTimeoutSeconds = 30.0

// default branch-and-bound node limit
var DefaultMaxIterations = 10000

// default name given to problems without one
const DefaultProblemName = "GPU Optimization Problem"

// default penalty weight of a constraint
const DefaultConstraintWeight = 1.0

// weights of the balance-cost-performance objective
var DefaultCostWeight = 0.6
var DefaultPerformanceWeight = 0.3
var DefaultRiskWeight = 0.1

// hourly cost mapped to 1 in the balance objective ($/hr)
var DefaultCostNormalizer = 10.0

// hourly cost regarded as good when grading a solution ($/hr)
var DefaultQualityCostCap = 50.0

// numerical tolerances
var DefaultTolerance = 1e-6
var DefaultIntegralityTolerance = 1e-6

// risk-tolerance row formulations
const (
	RiskConstraintAverage = "average" // count-weighted mean risk bounded by the tolerance
	RiskConstraintSum     = "sum"     // summed per-instance risk bounded by the tolerance
)

const DefaultRiskConstraintMode = RiskConstraintAverage

const DefaultWorkloadClass = "training"

// number of problems solved concurrently by a manager
var DefaultMaxConcurrentSolves = 4
