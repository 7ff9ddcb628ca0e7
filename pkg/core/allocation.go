package core

import "fmt"

// AllocationDecision is one line of an allocation plan: a number of instances
// of an option bought under a pricing mode.
type AllocationDecision struct {
	Option           *InstanceOption `json:"option"`
	Count            int             `json:"count"`
	PricingMode      PricingMode     `json:"pricingMode"`
	CostPerHour      float64         `json:"costPerHour"` // per instance
	PerformanceScore float64         `json:"performanceScore"`
	RiskScore        float64         `json:"riskScore"`
}

func (a *AllocationDecision) TotalCostPerHour() float64 {
	return a.CostPerHour * float64(a.Count)
}

func (a *AllocationDecision) TotalGPUCount() int {
	if a.Option == nil {
		return 0
	}
	return a.Option.GPUCount * a.Count
}

func (a *AllocationDecision) Validate() error {
	if a.Count < 0 {
		return NewValidationError("count", "instance count cannot be negative")
	}
	if a.CostPerHour < 0 {
		return NewValidationError("costPerHour", "cost cannot be negative")
	}
	return nil
}

func (a *AllocationDecision) String() string {
	name, provider, region := "", "", ""
	if a.Option != nil {
		name, provider, region = a.Option.InstanceTypeName, a.Option.ProviderName, a.Option.Region
	}
	return fmt.Sprintf("Allocation: provider=%s; type=%s; region=%s; mode=%s; count=%d; cost=%v; perf=%v; risk=%v",
		provider, name, region, a.PricingMode, a.Count, a.CostPerHour, a.PerformanceScore, a.RiskScore)
}
