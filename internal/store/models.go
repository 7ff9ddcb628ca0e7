package store

import "time"

// Row of the optimization_results table.
type resultRow struct {
	ResultID         string    `db:"result_id"`
	ProblemID        string    `db:"problem_id"`
	ProblemName      string    `db:"problem_name"`
	Objective        string    `db:"objective"`
	Status           string    `db:"status"`
	SolverStatus     string    `db:"solver_status"`
	ObjectiveValue   float64   `db:"objective_value"`
	TotalCostPerHour float64   `db:"total_cost_per_hour"`
	SolveTimeSeconds float64   `db:"solve_time_seconds"`
	SolutionQuality  float64   `db:"solution_quality"`
	ConfidenceScore  float64   `db:"confidence_score"`
	ErrorCode        string    `db:"error_code"`
	ErrorMessage     string    `db:"error_message"`
	CreatedAt        time.Time `db:"created_at"`
}

func (resultRow) TableName() string { return "optimization_results" }

// Row of the allocation_decisions table.
type allocationRow struct {
	ID             int64   `db:"id"`
	ResultID       string  `db:"result_id"`
	ProviderID     string  `db:"provider_id"`
	InstanceTypeID string  `db:"instance_type_id"`
	Region         string  `db:"region"`
	PricingMode    string  `db:"pricing_mode"`
	Count          int     `db:"count"`
	CostPerHour    float64 `db:"cost_per_hour"`
}

func (allocationRow) TableName() string { return "allocation_decisions" }
