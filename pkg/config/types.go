package config

// Data related to the Optimizer
type OptimizerData struct {
	Spec OptimizerSpec `json:"spec" yaml:"spec"`
}

// Specifications for the optimizer engine and model builder
type OptimizerSpec struct {
	Threads              int     `json:"threads" yaml:"threads"`                           // branch-and-bound worker goroutines
	TimeoutSeconds       float64 `json:"timeoutSeconds" yaml:"timeoutSeconds"`             // used when a problem gives none
	MaxIterations        int     `json:"maxIterations" yaml:"maxIterations"`               // branch-and-bound node limit
	Tolerance            float64 `json:"tolerance" yaml:"tolerance"`                       // LP feasibility tolerance
	IntegralityTolerance float64 `json:"integralityTolerance" yaml:"integralityTolerance"` // distance to an integer accepted as integral
	MaxConcurrentSolves  int     `json:"maxConcurrentSolves" yaml:"maxConcurrentSolves"`   // independent problems solved at once

	CostWeight        float64 `json:"costWeight" yaml:"costWeight"`               // balance objective weight of cost
	PerformanceWeight float64 `json:"performanceWeight" yaml:"performanceWeight"` // balance objective weight of performance
	RiskWeight        float64 `json:"riskWeight" yaml:"riskWeight"`               // weight of risk in risk-adjusted cost
	CostNormalizer    float64 `json:"costNormalizer" yaml:"costNormalizer"`       // $/hr mapped to 1 in the balance objective
	QualityCostCap    float64 `json:"qualityCostCap" yaml:"qualityCostCap"`       // $/hr regarded as good when grading solutions

	EnableSpot     *bool `json:"enableSpot,omitempty" yaml:"enableSpot,omitempty"`         // create spot variables
	EnableReserved *bool `json:"enableReserved,omitempty" yaml:"enableReserved,omitempty"` // create reserved variables

	RiskConstraintMode   string `json:"riskConstraintMode" yaml:"riskConstraintMode"`     // average or sum
	DefaultWorkloadClass string `json:"defaultWorkloadClass" yaml:"defaultWorkloadClass"` // training, inference or data_processing
}

// Data related to an optimization problem
type ProblemData struct {
	Spec ProblemSpec `json:"spec" yaml:"spec"`
}

// Specifications of an optimization problem
type ProblemSpec struct {
	ID                  string            `json:"id,omitempty" yaml:"id,omitempty"`
	Name                string            `json:"name" yaml:"name"`
	Description         string            `json:"description,omitempty" yaml:"description,omitempty"`
	Objective           string            `json:"objective" yaml:"objective"` // minimize_cost, maximize_performance, ...
	Requirements        []RequirementSpec `json:"requirements" yaml:"requirements"`
	Instances           []InstanceSpec    `json:"instances" yaml:"instances"`
	Constraints         []ConstraintSpec  `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	RiskTolerance       *float64          `json:"riskTolerance,omitempty" yaml:"riskTolerance,omitempty"`       // 0-1
	TimeHorizonHours    *float64          `json:"timeHorizonHours,omitempty" yaml:"timeHorizonHours,omitempty"` // hours
	TimeoutSeconds      *float64          `json:"timeoutSeconds,omitempty" yaml:"timeoutSeconds,omitempty"`
	MaxIterations       int               `json:"maxIterations,omitempty" yaml:"maxIterations,omitempty"`
	WorkloadClass       string            `json:"workloadClass,omitempty" yaml:"workloadClass,omitempty"`
	BaselineCostPerHour *float64          `json:"baselineCostPerHour,omitempty" yaml:"baselineCostPerHour,omitempty"` // $/hr
}

// Specifications of aggregated resource demand
type RequirementSpec struct {
	CPUCores             int                  `json:"cpuCores" yaml:"cpuCores"`
	MemoryGB             float64              `json:"memoryGB" yaml:"memoryGB"`
	StorageGB            float64              `json:"storageGB" yaml:"storageGB"`
	NetworkBandwidthGbps *float64             `json:"networkBandwidthGbps,omitempty" yaml:"networkBandwidthGbps,omitempty"`
	GPUs                 []GPURequirementSpec `json:"gpus" yaml:"gpus"`
}

// Specifications of demand for a GPU type
type GPURequirementSpec struct {
	GPUType     string  `json:"gpuType" yaml:"gpuType"`
	MinCount    int     `json:"minCount" yaml:"minCount"`
	MaxCount    int     `json:"maxCount" yaml:"maxCount"`
	MinMemoryGB float64 `json:"minMemoryGB" yaml:"minMemoryGB"` // per GPU
	Priority    int     `json:"priority" yaml:"priority"`       // lower is more important
}

// Specifications of a purchasable instance
type InstanceSpec struct {
	Provider         string  `json:"provider" yaml:"provider"`                             // provider id
	ProviderName     string  `json:"providerName,omitempty" yaml:"providerName,omitempty"` // display name, defaults to provider
	InstanceType     string  `json:"instanceType" yaml:"instanceType"`                     // instance type id
	InstanceTypeName string  `json:"instanceTypeName,omitempty" yaml:"instanceTypeName,omitempty"`
	Region           string  `json:"region" yaml:"region"`
	Zone             string  `json:"zone,omitempty" yaml:"zone,omitempty"`
	CPUCores         int     `json:"cpuCores" yaml:"cpuCores"`
	MemoryGB         float64 `json:"memoryGB" yaml:"memoryGB"`
	GPUCount         int     `json:"gpuCount" yaml:"gpuCount"`
	GPUType          string  `json:"gpuType" yaml:"gpuType"`
	GPUMemoryGB      float64 `json:"gpuMemoryGB" yaml:"gpuMemoryGB"` // per GPU
	StorageGB        float64 `json:"storageGB" yaml:"storageGB"`

	NetworkBandwidthGbps *float64    `json:"networkBandwidthGbps,omitempty" yaml:"networkBandwidthGbps,omitempty"`
	Pricing              PricingSpec `json:"pricing" yaml:"pricing"`

	SpotAvailability            *float64 `json:"spotAvailability,omitempty" yaml:"spotAvailability,omitempty"`
	OnDemandAvailability        *float64 `json:"onDemandAvailability,omitempty" yaml:"onDemandAvailability,omitempty"`
	SpotInterruptionProbability *float64 `json:"spotInterruptionProbability,omitempty" yaml:"spotInterruptionProbability,omitempty"`
	PerformanceScore            *float64 `json:"performanceScore,omitempty" yaml:"performanceScore,omitempty"`
	LatencyMs                   *float64 `json:"latencyMs,omitempty" yaml:"latencyMs,omitempty"`
}

// Hourly prices of an instance; absent modes are not offered
type PricingSpec struct {
	OnDemand   *float64 `json:"onDemand,omitempty" yaml:"onDemand,omitempty"`
	Spot       *float64 `json:"spot,omitempty" yaml:"spot,omitempty"`
	Reserved1Y *float64 `json:"reserved1y,omitempty" yaml:"reserved1y,omitempty"`
	Reserved3Y *float64 `json:"reserved3y,omitempty" yaml:"reserved3y,omitempty"`
}

// Specifications of a constraint
type ConstraintSpec struct {
	Name        string   `json:"name" yaml:"name"`
	Type        string   `json:"type" yaml:"type"`         // budget, performance, risk, availability, provider_limit, custom
	Operator    string   `json:"operator" yaml:"operator"` // <=, >=, ==, !=
	Value       float64  `json:"value" yaml:"value"`
	Weight      *float64 `json:"weight,omitempty" yaml:"weight,omitempty"` // penalty per unit violation of a soft constraint
	Hard        *bool    `json:"hard,omitempty" yaml:"hard,omitempty"`     // defaults to true
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}
