package risk

import "github.com/cloudarb/allocation-optimizer/pkg/core"

// Holding is a number of instances of an option under a pricing mode.
type Holding struct {
	Option *core.InstanceOption
	Count  int
	Mode   core.PricingMode
}

// HoldingsOf converts allocation decisions to holdings.
func HoldingsOf(allocations []*core.AllocationDecision) []Holding {
	out := make([]Holding, 0, len(allocations))
	for _, a := range allocations {
		out = append(out, Holding{Option: a.Option, Count: a.Count, Mode: a.PricingMode})
	}
	return out
}

// IndividualRisk is the risk and hourly cost of one holding.
type IndividualRisk struct {
	Risk float64 `json:"risk"`
	Cost float64 `json:"cost"`
}

type Portfolio struct {
	TotalRisk       float64          `json:"totalRisk"` // cost weighted
	Diversification float64          `json:"diversificationScore"`
	Concentration   float64          `json:"concentrationRisk"`
	Individual      []IndividualRisk `json:"individualRisks,omitempty"`
}

// AssessPortfolio scores a set of holdings. Empty and zero cost portfolios
// score zero throughout.
func (m *Manager) AssessPortfolio(holdings []Holding) *Portfolio {
	p := &Portfolio{}
	if len(holdings) == 0 {
		return p
	}
	var totalCost, weighted float64
	p.Individual = make([]IndividualRisk, len(holdings))
	for i, h := range holdings {
		r := m.InstanceRisk(h.Option, h.Mode)
		c := holdingCost(h)
		p.Individual[i] = IndividualRisk{Risk: r, Cost: c}
		totalCost += c
		weighted += r * c
	}
	if totalCost == 0 {
		return &Portfolio{Individual: p.Individual}
	}
	p.TotalRisk = weighted / totalCost
	p.Diversification = diversification(holdings)
	p.Concentration = concentration(p.Individual, totalCost)
	return p
}

func holdingCost(h Holding) float64 {
	price, ok := h.Option.Price(h.Mode)
	if !ok {
		return 0
	}
	return price * float64(h.Count)
}

func diversification(holdings []Holding) float64 {
	if len(holdings) <= 1 {
		return 0
	}
	providers := make(map[string]bool)
	regions := make(map[string]bool)
	gpus := make(map[core.GPUType]bool)
	modes := make(map[core.PricingMode]bool)
	for _, h := range holdings {
		providers[h.Option.ProviderName] = true
		regions[h.Option.Region] = true
		gpus[h.Option.GPUType] = true
		modes[h.Mode] = true
	}
	d := 0.3*float64(len(providers))/5 +
		0.2*float64(len(regions))/10 +
		0.2*float64(len(gpus))/5 +
		0.3*float64(len(modes))/4
	return min(1.0, d)
}

// concentration rescales the Herfindahl-Hirschman index of cost shares so
// that an even split maps to 0 and a single holding to 1.
func concentration(individual []IndividualRisk, totalCost float64) float64 {
	n := len(individual)
	if n <= 1 {
		return 1
	}
	var hhi float64
	for _, ir := range individual {
		share := ir.Cost / totalCost
		hhi += share * share
	}
	minHHI := 1 / float64(n)
	return clamp01((hhi - minHHI) / (1 - minHHI))
}

// Recommendations returns mitigation advice for a portfolio.
func (m *Manager) Recommendations(p *Portfolio) []string {
	var recs []string
	if p.TotalRisk > 0.7 {
		recs = append(recs, "High overall risk detected. Consider reducing spot instance usage.")
	}
	if p.TotalRisk > 0.5 {
		recs = append(recs, "Moderate risk level. Consider adding on-demand instances for critical workloads.")
	}
	if p.Diversification < 0.3 {
		recs = append(recs, "Low diversification. Consider spreading allocations across multiple providers.")
	}
	if p.Concentration > 0.7 {
		recs = append(recs, "High concentration risk. Consider distributing allocations more evenly.")
	}
	if p.Diversification < 0.5 {
		recs = append(recs, "Medium diversification. Consider adding more regions or GPU types.")
	}
	return recs
}

type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

func LevelOf(score float64) Level {
	switch {
	case score < 0.3:
		return LevelLow
	case score < 0.6:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// Metrics summarizes the risk of a portfolio for reporting.
type Metrics struct {
	Portfolio
	Recommendations []string `json:"recommendations"`
	TotalInstances  int      `json:"totalInstances"`
	SpotInstances   int      `json:"spotInstances"`
	SpotShare       float64  `json:"spotPercentage"`
	Level           Level    `json:"riskLevel"`
}

func (m *Manager) Metrics(holdings []Holding) *Metrics {
	p := m.AssessPortfolio(holdings)
	out := &Metrics{Portfolio: *p, Recommendations: m.Recommendations(p), Level: LevelOf(p.TotalRisk)}
	for _, h := range holdings {
		out.TotalInstances += h.Count
		if h.Mode == core.Spot {
			out.SpotInstances += h.Count
		}
	}
	if out.TotalInstances > 0 {
		out.SpotShare = float64(out.SpotInstances) / float64(out.TotalInstances)
	}
	return out
}
