package solver

import (
	"math"
	"time"

	"github.com/cloudarb/allocation-optimizer/pkg/config"
	"github.com/cloudarb/allocation-optimizer/pkg/core"
	"github.com/cloudarb/allocation-optimizer/pkg/cost"
	"github.com/cloudarb/allocation-optimizer/pkg/performance"
	"github.com/cloudarb/allocation-optimizer/pkg/risk"
)

// SolutionProcessor turns solved variable values into allocation decisions
// and the summary scores of a result.
type SolutionProcessor struct {
	spec *config.OptimizerSpec
	cost *cost.Calculator
	perf *performance.Analyzer
	risk *risk.Manager
}

func NewSolutionProcessor(spec *config.OptimizerSpec, calc *cost.Calculator, perf *performance.Analyzer,
	riskMgr *risk.Manager) *SolutionProcessor {
	if spec == nil {
		d := config.DefaultOptimizerSpec()
		spec = &d
	}
	return &SolutionProcessor{spec: spec, cost: calc, perf: perf, risk: riskMgr}
}

// Process fills the result from the engine solution of the model.
func (p *SolutionProcessor) Process(problem *core.OptimizationProblem, m *Model, result *core.OptimizationResult,
	optimal bool, solveTime time.Duration) {
	result.ObjectiveValue = m.Engine.ObjectiveValue()
	result.IterationCount = m.Engine.Nodes()
	result.Allocations = p.Allocations(m)

	var totalCost, perfSum, riskSum float64
	instances := 0
	for _, a := range result.Allocations {
		totalCost += a.TotalCostPerHour()
		perfSum += a.PerformanceScore * float64(a.Count)
		riskSum += a.RiskScore * float64(a.Count)
		instances += a.Count
	}
	result.TotalCostPerHour = totalCost
	if instances > 0 {
		result.TotalPerformanceScore = perfSum / float64(instances)
		result.TotalRiskScore = riskSum / float64(instances)
	}

	if problem.BaselineCostPerHour != nil && *problem.BaselineCostPerHour > 0 {
		base := *problem.BaselineCostPerHour
		amount := base - totalCost
		pct := amount / base * 100
		result.CostSavingsAmount = &amount
		result.CostSavingsPercentage = &pct
	}

	portfolio := p.risk.AssessPortfolio(risk.HoldingsOf(result.Allocations))
	result.DiversityScore = portfolio.Diversification
	result.ConcentrationRisk = portfolio.Concentration

	result.CostBreakdown = p.costBreakdown(result.Allocations, problem.TimeHorizonHours)
	result.PerformanceBreakdown = p.performanceBreakdown(result.Allocations, m.Class)
	result.RiskFactors = p.riskFactors(result.Allocations)

	result.SolutionQuality = p.SolutionQuality(result)
	result.ConfidenceScore = p.ConfidenceScore(problem, result, optimal, solveTime)
}

// Allocations materializes every variable whose value rounds to at least one
// instance. Scores are derived again from the analyzers.
func (p *SolutionProcessor) Allocations(m *Model) []*core.AllocationDecision {
	var out []*core.AllocationDecision
	for _, v := range m.Vars {
		value := m.Engine.Value(v.Var)
		if value <= 0.5 {
			continue
		}
		price, _ := v.Option.Price(v.Mode)
		out = append(out, &core.AllocationDecision{
			Option:           v.Option,
			Count:            int(math.Round(value)),
			PricingMode:      v.Mode,
			CostPerHour:      price,
			PerformanceScore: p.perf.EffectiveScore(v.Option, m.Class),
			RiskScore:        p.risk.InstanceRisk(v.Option, v.Mode),
		})
	}
	return out
}

// costBreakdown projects the plan over the time horizon.
func (p *SolutionProcessor) costBreakdown(allocs []*core.AllocationDecision, hours float64) map[string]float64 {
	if len(allocs) == 0 {
		return nil
	}
	out := map[string]float64{"compute": 0, "storage": 0, "network": 0, "total": 0}
	for _, a := range allocs {
		b := p.cost.CalculateTotalCost(a.Option, a.PricingMode, hours)
		n := float64(a.Count)
		out["compute"] += b.Compute * n
		out["storage"] += b.Storage * n
		out["network"] += b.Network * n
		out["total"] += b.Total * n
	}
	return out
}

func (p *SolutionProcessor) performanceBreakdown(allocs []*core.AllocationDecision, class core.WorkloadClass) map[string]float64 {
	instances := 0
	var c performance.Components
	for _, a := range allocs {
		ac := p.perf.Components(a.Option, class)
		n := float64(a.Count)
		c.Compute += ac.Compute * n
		c.Memory += ac.Memory * n
		c.Network += ac.Network * n
		c.Efficiency += ac.Efficiency * n
		instances += a.Count
	}
	if instances == 0 {
		return nil
	}
	n := float64(instances)
	return map[string]float64{
		"compute":    c.Compute / n,
		"memory":     c.Memory / n,
		"network":    c.Network / n,
		"efficiency": c.Efficiency / n,
	}
}

// riskFactors averages each factor over the instances it was evaluated for.
func (p *SolutionProcessor) riskFactors(allocs []*core.AllocationDecision) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, a := range allocs {
		for _, f := range p.risk.Factors(a.Option, a.PricingMode) {
			sums[f.Name] += f.Score * float64(a.Count)
			counts[f.Name] += a.Count
		}
	}
	if len(sums) == 0 {
		return nil
	}
	out := make(map[string]float64, len(sums))
	for name, s := range sums {
		if counts[name] > 0 {
			out[name] = s / float64(counts[name])
		}
	}
	return out
}

// SolutionQuality blends cost, performance and risk efficiency into [0,1].
func (p *SolutionProcessor) SolutionQuality(result *core.OptimizationResult) float64 {
	if len(result.Allocations) == 0 {
		return 0
	}
	costEff := 1.0
	if result.TotalCostPerHour > 0 {
		costEff = math.Min(1, p.spec.QualityCostCap/result.TotalCostPerHour)
	}
	perfEff := result.TotalPerformanceScore / 100
	riskEff := 1 - result.TotalRiskScore
	return clamp01(0.4*costEff + 0.4*perfEff + 0.2*riskEff)
}

// ConfidenceScore grades how much the solution can be trusted from its
// optimality, the problem size and the solve time.
func (p *SolutionProcessor) ConfidenceScore(problem *core.OptimizationProblem, result *core.OptimizationResult,
	optimal bool, solveTime time.Duration) float64 {
	if len(result.Allocations) == 0 {
		return 0
	}
	factors := []float64{0.7, 0.8, 0.8, 0.8}
	if optimal {
		factors[0] = 1
	}
	switch size := problem.Size(); {
	case size < 100:
		factors[1] = 1
	case size < 500:
		factors[1] = 0.9
	}
	switch secs := solveTime.Seconds(); {
	case secs < 5:
		factors[2] = 1
	case secs < 15:
		factors[2] = 0.9
	}
	var sum float64
	for _, f := range factors {
		sum += f
	}
	return clamp01(sum / float64(len(factors)))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
