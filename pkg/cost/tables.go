package cost

import "github.com/cloudarb/allocation-optimizer/pkg/core"

// Tables holds the static rates used by the calculator. Provider keys are
// lower case.
type Tables struct {
	StorageRates       map[string]float64 // $/GB/month
	DefaultStorageRate float64
	NetworkRates       map[string]float64 // $/GB
	DefaultNetworkRate float64

	SpotOverhead         float64 // multiplier on spot compute cost
	DefaultStorageGB     float64
	DefaultBandwidthGbps float64

	GPUPerformance     map[core.GPUType]float64 // fallback score per GPU
	DefaultPerformance float64
}

// DefaultTables returns a fresh copy of the built-in rates.
func DefaultTables() Tables {
	return Tables{
		StorageRates: map[string]float64{
			"aws":         0.08,
			"gcp":         0.04,
			"azure":       0.05,
			"lambda labs": 0.05,
			"runpod":      0.05,
		},
		DefaultStorageRate: 0.05,
		NetworkRates: map[string]float64{
			"aws":         0.09,
			"gcp":         0.12,
			"azure":       0.087,
			"lambda labs": 0.10,
			"runpod":      0.10,
		},
		DefaultNetworkRate:   0.10,
		SpotOverhead:         1.05,
		DefaultStorageGB:     100,
		DefaultBandwidthGbps: 10,
		GPUPerformance: map[core.GPUType]float64{
			core.GPUV100:    70,
			core.GPUA100:    90,
			core.GPUH100:    95,
			core.GPURTX4090: 85,
			core.GPURTX3090: 75,
		},
		DefaultPerformance: 60,
	}
}

func (t *Tables) storageRate(provider string) float64 {
	if r, ok := t.StorageRates[core.ProviderKey(provider)]; ok {
		return r
	}
	return t.DefaultStorageRate
}

func (t *Tables) networkRate(provider string) float64 {
	if r, ok := t.NetworkRates[core.ProviderKey(provider)]; ok {
		return r
	}
	return t.DefaultNetworkRate
}

func (t *Tables) performance(option *core.InstanceOption) float64 {
	if option.PerformanceScore != nil && *option.PerformanceScore > 0 {
		return *option.PerformanceScore
	}
	if p, ok := t.GPUPerformance[option.GPUType.Class()]; ok {
		return p
	}
	return t.DefaultPerformance
}
