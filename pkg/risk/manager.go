package risk

import (
	"math"

	"github.com/cloudarb/allocation-optimizer/pkg/core"
)

// Factor is one weighted contribution to an instance risk score.
type Factor struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Score  float64 `json:"score"`
}

// Manager scores the risk of instances and portfolios on a 0-1 scale.
// It holds no mutable state and is safe for concurrent use.
type Manager struct {
	tables Tables
}

type Option func(*Manager)

func WithTables(t Tables) Option {
	return func(m *Manager) {
		m.tables = t
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{tables: DefaultTables()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Tables() Tables {
	return m.tables
}

// InstanceRisk is the weighted average of the factors evaluated for the
// option under the pricing mode.
func (m *Manager) InstanceRisk(option *core.InstanceOption, mode core.PricingMode) float64 {
	var weighted, total float64
	for _, f := range m.Factors(option, mode) {
		weighted += f.Score * f.Weight
		total += f.Weight
	}
	if total <= 0 {
		return 0
	}
	return clamp01(weighted / total)
}

// Factors lists the evaluated risk factors. Spot interruption is only
// evaluated for spot capacity.
func (m *Manager) Factors(option *core.InstanceOption, mode core.PricingMode) []Factor {
	w := m.tables.Weights
	factors := make([]Factor, 0, 5)
	if mode == core.Spot {
		factors = append(factors, Factor{FactorSpotInterruption, w[FactorSpotInterruption], m.SpotInterruptionRisk(option)})
	}
	factors = append(factors,
		Factor{FactorProviderReliability, w[FactorProviderReliability], 1 - m.tables.providerReliability(option.ProviderName)},
		Factor{FactorRegionAvailability, w[FactorRegionAvailability], 1 - m.tables.RegionAvailabilityOf(option.Region)},
		Factor{FactorPriceVolatility, w[FactorPriceVolatility], m.priceVolatility(mode)},
		Factor{FactorPerformanceVariance, w[FactorPerformanceVariance], m.performanceVariance(option)},
	)
	return factors
}

// SpotInterruptionRisk uses the explicit probability, then the spot
// availability, then a GPU scaled base risk.
func (m *Manager) SpotInterruptionRisk(option *core.InstanceOption) float64 {
	if option.SpotInterruptionProbability != nil {
		return clamp01(*option.SpotInterruptionProbability)
	}
	if option.SpotAvailability != nil {
		return clamp01(1 - *option.SpotAvailability)
	}
	mult, ok := m.tables.SpotGPUMultiplier[option.GPUType.Class()]
	if !ok {
		mult = m.tables.DefaultSpotMultiplier
	}
	return math.Min(1, m.tables.SpotBaseRisk*mult)
}

func (m *Manager) priceVolatility(mode core.PricingMode) float64 {
	if v, ok := m.tables.Volatility[mode]; ok {
		return v
	}
	return m.tables.DefaultVolatility
}

func (m *Manager) performanceVariance(option *core.InstanceOption) float64 {
	if option.PerformanceScore != nil {
		return clamp01((100 - *option.PerformanceScore) / 100)
	}
	if v, ok := m.tables.PerformanceVariance[option.GPUType.Class()]; ok {
		return v
	}
	return m.tables.DefaultPerformanceVariance
}

// Availability estimates the probability that capacity stays up: the explicit
// value, else one minus the spot interruption risk for spot, else the region
// availability.
func (m *Manager) Availability(option *core.InstanceOption, mode core.PricingMode) float64 {
	if a, ok := option.Availability(mode); ok {
		return clamp01(a)
	}
	if mode == core.Spot {
		return 1 - m.SpotInterruptionRisk(option)
	}
	return m.tables.RegionAvailabilityOf(option.Region)
}

// RiskAdjustedCost inflates the hourly price by the risk not covered by the
// tolerance; +Inf when the mode is not offered.
func (m *Manager) RiskAdjustedCost(option *core.InstanceOption, mode core.PricingMode, tolerance float64) float64 {
	price, ok := option.Price(mode)
	if !ok {
		return math.Inf(1)
	}
	r := m.InstanceRisk(option, mode)
	return price * (1 + r*(1-tolerance))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
