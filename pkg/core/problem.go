package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cloudarb/allocation-optimizer/pkg/config"
)

// OptimizationProblem is the full input of one optimization run.
// It is read only while solving.
type OptimizationProblem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	Requirements []*ResourceRequirement    `json:"requirements"`
	Options      []*InstanceOption         `json:"options"`
	Objective    Objective                 `json:"objective"`
	Constraints  []*OptimizationConstraint `json:"constraints,omitempty"`

	RiskTolerance    float64 `json:"riskTolerance"`    // 0-1
	TimeHorizonHours float64 `json:"timeHorizonHours"` // hours
	TimeoutSeconds   float64 `json:"timeoutSeconds"`
	MaxIterations    int     `json:"maxIterations"`

	WorkloadClass       WorkloadClass `json:"workloadClass"`
	BaselineCostPerHour *float64      `json:"baselineCostPerHour,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// NewProblem creates a problem with default settings and a fresh id.
func NewProblem(name string) *OptimizationProblem {
	return &OptimizationProblem{
		ID:               uuid.NewString(),
		Name:             name,
		Objective:        MinimizeCost,
		RiskTolerance:    config.DefaultRiskTolerance,
		TimeHorizonHours: config.DefaultTimeHorizonHours,
		TimeoutSeconds:   config.DefaultTimeoutSeconds,
		MaxIterations:    config.DefaultMaxIterations,
		WorkloadClass:    Training,
		CreatedAt:        time.Now().UTC(),
	}
}

// NewProblemFromSpec builds a problem from its serialized form, filling defaults.
func NewProblemFromSpec(spec *config.ProblemSpec) *OptimizationProblem {
	p := NewProblem(spec.Name)
	if spec.ID != "" {
		p.ID = spec.ID
	}
	if p.Name == "" {
		p.Name = config.DefaultProblemName
	}
	p.Description = spec.Description
	if spec.Objective != "" {
		p.Objective = Objective(spec.Objective)
	}
	if spec.RiskTolerance != nil {
		p.RiskTolerance = *spec.RiskTolerance
	}
	if spec.TimeHorizonHours != nil {
		p.TimeHorizonHours = *spec.TimeHorizonHours
	}
	if spec.TimeoutSeconds != nil {
		p.TimeoutSeconds = *spec.TimeoutSeconds
	}
	if spec.MaxIterations > 0 {
		p.MaxIterations = spec.MaxIterations
	}
	if spec.WorkloadClass != "" {
		p.WorkloadClass = WorkloadClass(spec.WorkloadClass)
	}
	p.BaselineCostPerHour = spec.BaselineCostPerHour
	for i := range spec.Requirements {
		p.Requirements = append(p.Requirements, NewResourceRequirementFromSpec(&spec.Requirements[i]))
	}
	for i := range spec.Instances {
		p.Options = append(p.Options, NewInstanceOptionFromSpec(&spec.Instances[i]))
	}
	for i := range spec.Constraints {
		p.Constraints = append(p.Constraints, NewConstraintFromSpec(&spec.Constraints[i]))
	}
	return p
}

func (p *OptimizationProblem) AddConstraint(c *OptimizationConstraint) {
	p.Constraints = append(p.Constraints, c)
}

func (p *OptimizationProblem) AddInstanceOption(o *InstanceOption) {
	p.Options = append(p.Options, o)
}

// Validate checks the problem invariants. It does not look at GPU supply,
// which is checked by ValidateSupply.
func (p *OptimizationProblem) Validate() error {
	if len(p.Options) == 0 {
		return &ValidationError{Field: "options", Reason: "catalog is empty", Err: ErrEmptyCatalog}
	}
	if len(p.Requirements) == 0 {
		return &ValidationError{Field: "requirements", Reason: "no requirements given", Err: ErrNoRequirement}
	}
	if !p.Objective.Valid() {
		return NewValidationError("objective", fmt.Sprintf("unknown objective %q", p.Objective))
	}
	if p.RiskTolerance < 0 || p.RiskTolerance > 1 {
		return NewValidationError("riskTolerance", "must be between 0 and 1")
	}
	if p.TimeHorizonHours <= 0 {
		return NewValidationError("timeHorizonHours", "must be positive")
	}
	if p.TimeoutSeconds <= 0 {
		return NewValidationError("timeoutSeconds", "must be positive")
	}
	if p.MaxIterations < 0 {
		return NewValidationError("maxIterations", "must be non-negative")
	}
	for i, o := range p.Options {
		if o == nil {
			return NewValidationError(fmt.Sprintf("options[%d]", i), "nil option")
		}
		if o.GPUCount < 0 || o.CPUCores < 0 || o.MemoryGB < 0 {
			return NewValidationError(fmt.Sprintf("options[%d]", i), "resource sizes must be non-negative")
		}
		for _, m := range PricingModes {
			if price, ok := o.Price(m); ok && price < 0 {
				return NewValidationError(fmt.Sprintf("options[%d].%s", i, m), "price cannot be negative")
			}
		}
	}
	for _, r := range p.Requirements {
		if r == nil {
			return NewValidationError("requirements", "nil requirement")
		}
		if err := r.Validate(); err != nil {
			return err
		}
	}
	for _, c := range p.Constraints {
		if c == nil {
			return NewValidationError("constraints", "nil constraint")
		}
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSupply compares the catalog GPU supply per type with the aggregate
// minimum demand. Only options accepted by buyable count toward supply; a nil
// buyable accepts every option with at least one price.
func (p *OptimizationProblem) ValidateSupply(buyable func(*InstanceOption) bool) error {
	available := p.GPUSupply(buyable)
	for _, g := range p.TotalRequirements().GPURequirements {
		if g.MinCount == 0 {
			continue
		}
		if available[g.GPUType] < g.MinCount {
			return &ValidationError{
				Field:  "gpuRequirements." + string(g.GPUType),
				Reason: fmt.Sprintf("insufficient %s GPUs: need %d, catalog offers %d", g.GPUType, g.MinCount, available[g.GPUType]),
				Err:    ErrGPUSupply,
			}
		}
	}
	return nil
}

// GPUSupply sums the GPU count per GPU type over the options that can serve
// demand: priced, accepted by buyable and meeting the aggregate memory floor
// of their type.
func (p *OptimizationProblem) GPUSupply(buyable func(*InstanceOption) bool) map[GPUType]int {
	floors := make(map[GPUType]float64)
	for _, g := range p.TotalRequirements().GPURequirements {
		floors[g.GPUType] = g.MinMemoryGB
	}
	available := make(map[GPUType]int)
	for _, o := range p.Options {
		if o == nil || o.GPUCount == 0 || len(o.Modes()) == 0 {
			continue
		}
		if buyable != nil && !buyable(o) {
			continue
		}
		if floor := floors[o.GPUType]; floor > 0 && o.GPUMemoryGB < floor {
			continue
		}
		available[o.GPUType] += o.GPUCount
	}
	return available
}

// TotalRequirements aggregates all requirements into one. GPU requirements of
// the same type have their counts summed, the largest memory floor and the
// most important priority kept.
func (p *OptimizationProblem) TotalRequirements() *ResourceRequirement {
	total := &ResourceRequirement{}
	byType := make(map[GPUType]*GPURequirement)
	var bandwidth float64
	var hasBandwidth bool
	for _, r := range p.Requirements {
		total.CPUCores += r.CPUCores
		total.MemoryGB += r.MemoryGB
		total.StorageGB += r.StorageGB
		if r.NetworkBandwidthGbps != nil {
			bandwidth += *r.NetworkBandwidthGbps
			hasBandwidth = true
		}
		for _, g := range r.GPURequirements {
			agg, exists := byType[g.GPUType]
			if !exists {
				agg = &GPURequirement{GPUType: g.GPUType, Priority: g.Priority}
				byType[g.GPUType] = agg
				total.GPURequirements = append(total.GPURequirements, agg)
			}
			agg.MinCount += g.MinCount
			agg.MaxCount += g.MaxCount
			agg.MinMemoryGB = max(agg.MinMemoryGB, g.MinMemoryGB)
			agg.Priority = min(agg.Priority, g.Priority)
		}
	}
	if hasBandwidth {
		total.NetworkBandwidthGbps = &bandwidth
	}
	return total
}

// Size is the number of candidate by requirement products, used to grade confidence.
func (p *OptimizationProblem) Size() int {
	return len(p.Options) * len(p.Requirements)
}

// Timeout converts the timeout in seconds to a duration.
func (p *OptimizationProblem) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds * float64(time.Second))
}

// ConstraintsOfType returns the constraints of the given type in input order.
func (p *OptimizationProblem) ConstraintsOfType(t ConstraintType) []*OptimizationConstraint {
	var out []*OptimizationConstraint
	for _, c := range p.Constraints {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}
