package cost

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cloudarb/allocation-optimizer/pkg/core"
)

var (
	ErrNoInstances        = errors.New("no instances provided")
	ErrInvalidCurrentCost = errors.New("invalid current cost")
)

// assumed one-off cost of moving to an optimized allocation ($)
const setupCost = 1000.0

// Entry is the hourly cost of one instance in a comparison.
type Entry struct {
	Provider             string           `json:"provider"`
	InstanceType         string           `json:"instanceType"`
	GPUType              core.GPUType     `json:"gpuType"`
	GPUCount             int              `json:"gpuCount"`
	Region               string           `json:"region"`
	PricingMode          core.PricingMode `json:"pricingMode"`
	TotalCostPerHour     float64          `json:"totalCostPerHour"`
	CostPerGPUHour       float64          `json:"costPerGPUHour"`
	CostPerformanceRatio float64          `json:"costPerformanceRatio"`
	PerformanceScore     float64          `json:"performanceScore"`
	Breakdown            *Breakdown       `json:"breakdown"`
}

type Range struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Comparison of hourly costs across instances
type Comparison struct {
	Entries         []*Entry `json:"entries"`
	Best            *Entry   `json:"best"`
	Worst           *Entry   `json:"worst"`
	CostPerGPURange Range    `json:"costPerGPURange"`
	Recommendations []string `json:"recommendations"`
}

// CompareCosts ranks instances by cost per GPU hour under a pricing mode.
func (c *Calculator) CompareCosts(options []*core.InstanceOption, mode core.PricingMode) (*Comparison, error) {
	if len(options) == 0 {
		return nil, ErrNoInstances
	}
	cmp := &Comparison{Entries: make([]*Entry, len(options))}
	perGPU := make([]float64, len(options))
	for i, o := range options {
		b := c.CalculateTotalCost(o, mode, 1)
		cmp.Entries[i] = &Entry{
			Provider:             o.ProviderName,
			InstanceType:         o.InstanceTypeName,
			GPUType:              o.GPUType,
			GPUCount:             o.GPUCount,
			Region:               o.Region,
			PricingMode:          mode,
			TotalCostPerHour:     b.Total,
			CostPerGPUHour:       b.CostPerGPUHour,
			CostPerformanceRatio: b.CostPerformanceRatio,
			PerformanceScore:     c.tables.performance(o),
			Breakdown:            b,
		}
		perGPU[i] = b.CostPerGPUHour
	}
	cmp.Best = cmp.Entries[floats.MinIdx(perGPU)]
	cmp.Worst = cmp.Entries[floats.MaxIdx(perGPU)]
	mean, std := stat.PopMeanStdDev(perGPU, nil)
	cmp.CostPerGPURange = Range{
		Min:  floats.Min(perGPU),
		Max:  floats.Max(perGPU),
		Mean: mean,
		Std:  std,
	}
	cmp.Recommendations = recommendations(cmp.Entries)
	return cmp, nil
}

func recommendations(entries []*Entry) []string {
	var recs []string
	minCost, maxCost := math.Inf(1), math.Inf(-1)
	for _, e := range entries {
		minCost = math.Min(minCost, e.CostPerGPUHour)
		maxCost = math.Max(maxCost, e.CostPerGPUHour)
	}
	if maxCost > minCost*1.5 {
		recs = append(recs, fmt.Sprintf("Cost varies significantly ($%.2f - $%.2f per GPU hour). Consider cheaper alternatives.",
			minCost, maxCost))
	}

	var bestSpot *Entry
	for _, e := range entries {
		if e.PricingMode == core.Spot && (bestSpot == nil || e.CostPerGPUHour < bestSpot.CostPerGPUHour) {
			bestSpot = e
		}
	}
	if bestSpot != nil {
		recs = append(recs, fmt.Sprintf("Spot instances available from %s at $%.2f/GPU hour.",
			bestSpot.Provider, bestSpot.CostPerGPUHour))
	}

	best := entries[0]
	for _, e := range entries[1:] {
		if e.CostPerformanceRatio < best.CostPerformanceRatio {
			best = e
		}
	}
	recs = append(recs, fmt.Sprintf("Best cost-performance ratio: %s %s", best.Provider, best.InstanceType))
	return recs
}

// Savings between a current and an optimized hourly cost
type Savings struct {
	CurrentCostPerHour   float64 `json:"currentCostPerHour"`
	OptimizedCostPerHour float64 `json:"optimizedCostPerHour"`
	AbsolutePerHour      float64 `json:"absoluteSavingsPerHour"`
	Percentage           float64 `json:"percentageSavings"`
	Annual               float64 `json:"annualSavings"`
	ROIMultiplier        float64 `json:"roiMultiplier"`
}

func (c *Calculator) SavingsPotential(currentCostPerHour, optimizedCostPerHour float64) (*Savings, error) {
	if currentCostPerHour <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCurrentCost, currentCostPerHour)
	}
	abs := currentCostPerHour - optimizedCostPerHour
	s := &Savings{
		CurrentCostPerHour:   currentCostPerHour,
		OptimizedCostPerHour: optimizedCostPerHour,
		AbsolutePerHour:      abs,
		Percentage:           abs / currentCostPerHour * 100,
		Annual:               abs * 24 * 365,
	}
	if s.Annual > 0 {
		s.ROIMultiplier = s.Annual / setupCost
	}
	return s, nil
}

// Hourly cost of an item included in a monthly estimate. Breakdown is optional.
type HourlyCost struct {
	TotalCostPerHour float64
	Breakdown        *Breakdown
}

type MonthlyEstimate struct {
	TotalMonthly float64            `json:"totalMonthlyCost"`
	Breakdown    map[string]float64 `json:"breakdown"`
	Daily        float64            `json:"dailyCost"`
	Hourly       float64            `json:"hourlyCost"`
}

// EstimateMonthlyCost projects hourly costs over a 30 day month.
func (c *Calculator) EstimateMonthlyCost(items []HourlyCost) *MonthlyEstimate {
	const hoursPerMonth = 24 * 30
	est := &MonthlyEstimate{
		Breakdown: map[string]float64{"compute": 0, "storage": 0, "network": 0, "data_transfer": 0},
	}
	for _, it := range items {
		est.TotalMonthly += it.TotalCostPerHour * hoursPerMonth
		if it.Breakdown != nil {
			est.Breakdown["compute"] += it.Breakdown.Compute * hoursPerMonth
			est.Breakdown["storage"] += it.Breakdown.Storage * hoursPerMonth
			est.Breakdown["network"] += it.Breakdown.Network * hoursPerMonth
			est.Breakdown["data_transfer"] += it.Breakdown.DataTransfer * hoursPerMonth
		}
	}
	est.Daily = est.TotalMonthly / 30
	est.Hourly = est.TotalMonthly / hoursPerMonth
	return est
}

// EstimateAllocationsMonthlyCost projects the compute cost of an allocation plan.
func (c *Calculator) EstimateAllocationsMonthlyCost(allocations []*core.AllocationDecision) *MonthlyEstimate {
	items := make([]HourlyCost, 0, len(allocations))
	for _, a := range allocations {
		total := a.TotalCostPerHour()
		items = append(items, HourlyCost{TotalCostPerHour: total, Breakdown: &Breakdown{Compute: total, Total: total}})
	}
	return c.EstimateMonthlyCost(items)
}

// OptimizationTips returns advice for a compared entry.
func (c *Calculator) OptimizationTips(e *Entry) []string {
	var tips []string
	if e.CostPerGPUHour > 2.0 {
		tips = append(tips, "High GPU cost detected. Consider spot instances or different providers.")
	}
	if e.CostPerGPUHour > 1.5 {
		tips = append(tips, "Consider reserved instances for long-running workloads.")
	}
	switch core.ProviderKey(e.Provider) {
	case "aws":
		tips = append(tips, "AWS offers Spot Fleet for better spot instance management.")
	case "gcp":
		tips = append(tips, "GCP preemptible instances can provide significant savings.")
	case "azure":
		tips = append(tips, "Azure Spot instances offer up to 90% savings vs on-demand.")
	}
	if class := e.GPUType.Class(); class == core.GPUH100 || class == core.GPUA100 {
		tips = append(tips, "Premium GPUs are expensive. Consider if your workload requires this performance.")
	}
	tips = append(tips,
		"Monitor utilization to ensure you're not over-provisioning.",
		"Use auto-scaling to match demand and reduce costs.")
	return tips
}
