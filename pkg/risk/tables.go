package risk

import "github.com/cloudarb/allocation-optimizer/pkg/core"

// Names of the risk factors
const (
	FactorSpotInterruption    = "spot_interruption"
	FactorProviderReliability = "provider_reliability"
	FactorRegionAvailability  = "region_availability"
	FactorPriceVolatility     = "price_volatility"
	FactorPerformanceVariance = "performance_variance"
)

// Tables holds the static data used by the risk manager. Provider keys are lower case.
type Tables struct {
	Weights map[string]float64

	ProviderReliability        map[string]float64
	DefaultProviderReliability float64
	RegionAvailability         map[string]float64
	DefaultRegionAvailability  float64

	Volatility        map[core.PricingMode]float64
	DefaultVolatility float64

	PerformanceVariance        map[core.GPUType]float64
	DefaultPerformanceVariance float64

	SpotBaseRisk          float64
	SpotGPUMultiplier     map[core.GPUType]float64
	DefaultSpotMultiplier float64
}

// DefaultTables returns a fresh copy of the built-in risk data.
func DefaultTables() Tables {
	return Tables{
		Weights: map[string]float64{
			FactorSpotInterruption:    0.4,
			FactorProviderReliability: 0.2,
			FactorRegionAvailability:  0.15,
			FactorPriceVolatility:     0.15,
			FactorPerformanceVariance: 0.1,
		},
		ProviderReliability: map[string]float64{
			"aws":         0.95,
			"gcp":         0.93,
			"azure":       0.91,
			"lambda labs": 0.88,
			"runpod":      0.85,
		},
		DefaultProviderReliability: 0.85,
		RegionAvailability: map[string]float64{
			"us-east-1":      0.98,
			"us-west-2":      0.97,
			"eu-west-1":      0.96,
			"ap-southeast-1": 0.94,
			"us-central1":    0.97,
			"europe-west1":   0.96,
			"asia-east1":     0.94,
		},
		DefaultRegionAvailability: 0.90,
		Volatility: map[core.PricingMode]float64{
			core.Spot:       0.6,
			core.OnDemand:   0.1,
			core.Reserved1Y: 0.05,
			core.Reserved3Y: 0.05,
		},
		DefaultVolatility: 0.2,
		PerformanceVariance: map[core.GPUType]float64{
			core.GPUV100:    0.2,
			core.GPUA100:    0.15,
			core.GPUH100:    0.1,
			core.GPURTX4090: 0.25,
			core.GPURTX3090: 0.3,
		},
		DefaultPerformanceVariance: 0.25,
		SpotBaseRisk:               0.3,
		SpotGPUMultiplier: map[core.GPUType]float64{
			core.GPUV100:    0.8,
			core.GPUA100:    1.2,
			core.GPUH100:    1.5,
			core.GPURTX4090: 0.9,
			core.GPURTX3090: 0.7,
		},
		DefaultSpotMultiplier: 1.0,
	}
}

// RegionAvailabilityOf returns the availability of a region or the default.
func (t *Tables) RegionAvailabilityOf(region string) float64 {
	if a, ok := t.RegionAvailability[region]; ok {
		return a
	}
	return t.DefaultRegionAvailability
}

func (t *Tables) providerReliability(provider string) float64 {
	if r, ok := t.ProviderReliability[core.ProviderKey(provider)]; ok {
		return r
	}
	return t.DefaultProviderReliability
}
