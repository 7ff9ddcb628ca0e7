package core

import (
	"fmt"

	"github.com/cloudarb/allocation-optimizer/pkg/config"
)

// InstanceOption is a purchasable SKU in the candidate catalog.
// Optional data is carried as nil pointers and never mutated by the solver.
type InstanceOption struct {
	ProviderID       string  `json:"providerId"`
	ProviderName     string  `json:"providerName"`
	InstanceTypeID   string  `json:"instanceTypeId"`
	InstanceTypeName string  `json:"instanceTypeName"`
	Region           string  `json:"region"`
	Zone             string  `json:"zone,omitempty"`
	CPUCores         int     `json:"cpuCores"`
	MemoryGB         float64 `json:"memoryGB"`
	GPUCount         int     `json:"gpuCount"`
	GPUType          GPUType `json:"gpuType"`
	GPUMemoryGB      float64 `json:"gpuMemoryGB"` // per GPU
	StorageGB        float64 `json:"storageGB"`

	NetworkBandwidthGbps *float64 `json:"networkBandwidthGbps,omitempty"`

	OnDemandPrice   *float64 `json:"onDemandPrice,omitempty"` // $/hr
	SpotPrice       *float64 `json:"spotPrice,omitempty"`
	Reserved1YPrice *float64 `json:"reserved1yPrice,omitempty"`
	Reserved3YPrice *float64 `json:"reserved3yPrice,omitempty"`

	SpotAvailability            *float64 `json:"spotAvailability,omitempty"` // 0-1
	OnDemandAvailability        *float64 `json:"onDemandAvailability,omitempty"`
	SpotInterruptionProbability *float64 `json:"spotInterruptionProbability,omitempty"`

	PerformanceScore *float64 `json:"performanceScore,omitempty"` // 0-100
	LatencyMs        *float64 `json:"latencyMs,omitempty"`
}

func NewInstanceOptionFromSpec(spec *config.InstanceSpec) *InstanceOption {
	provider := spec.ProviderName
	if provider == "" {
		provider = spec.Provider
	}
	typeName := spec.InstanceTypeName
	if typeName == "" {
		typeName = spec.InstanceType
	}
	return &InstanceOption{
		ProviderID:                  spec.Provider,
		ProviderName:                provider,
		InstanceTypeID:              spec.InstanceType,
		InstanceTypeName:            typeName,
		Region:                      spec.Region,
		Zone:                        spec.Zone,
		CPUCores:                    spec.CPUCores,
		MemoryGB:                    spec.MemoryGB,
		GPUCount:                    spec.GPUCount,
		GPUType:                     ParseGPUType(spec.GPUType),
		GPUMemoryGB:                 spec.GPUMemoryGB,
		StorageGB:                   spec.StorageGB,
		NetworkBandwidthGbps:        spec.NetworkBandwidthGbps,
		OnDemandPrice:               spec.Pricing.OnDemand,
		SpotPrice:                   spec.Pricing.Spot,
		Reserved1YPrice:             spec.Pricing.Reserved1Y,
		Reserved3YPrice:             spec.Pricing.Reserved3Y,
		SpotAvailability:            spec.SpotAvailability,
		OnDemandAvailability:        spec.OnDemandAvailability,
		SpotInterruptionProbability: spec.SpotInterruptionProbability,
		PerformanceScore:            spec.PerformanceScore,
		LatencyMs:                   spec.LatencyMs,
	}
}

// Key identifies the option within a catalog snapshot.
func (o *InstanceOption) Key() string {
	return fmt.Sprintf("%s/%s/%s/%s", o.ProviderID, o.InstanceTypeID, o.Region, o.Zone)
}

// Price per hour for a pricing mode; ok is false when the mode is not offered.
func (o *InstanceOption) Price(mode PricingMode) (float64, bool) {
	var p *float64
	switch mode {
	case OnDemand:
		p = o.OnDemandPrice
	case Spot:
		p = o.SpotPrice
	case Reserved1Y:
		p = o.Reserved1YPrice
	case Reserved3Y:
		p = o.Reserved3YPrice
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Modes returns the offered pricing modes in canonical order.
func (o *InstanceOption) Modes() []PricingMode {
	modes := make([]PricingMode, 0, len(PricingModes))
	for _, m := range PricingModes {
		if _, ok := o.Price(m); ok {
			modes = append(modes, m)
		}
	}
	return modes
}

// Availability for a pricing mode. Reserved capacity is always available;
// ok is false when no value is known for spot or on-demand.
func (o *InstanceOption) Availability(mode PricingMode) (float64, bool) {
	switch mode {
	case Spot:
		if o.SpotAvailability != nil {
			return *o.SpotAvailability, true
		}
	case OnDemand:
		if o.OnDemandAvailability != nil {
			return *o.OnDemandAvailability, true
		}
	default:
		return 1.0, true
	}
	return 0, false
}

func (o *InstanceOption) TotalGPUMemoryGB() float64 {
	return float64(o.GPUCount) * o.GPUMemoryGB
}

func (o *InstanceOption) String() string {
	return fmt.Sprintf("InstanceOption: provider=%s; type=%s; region=%s; cpu=%d; mem=%v; gpus=%d x %s",
		o.ProviderName, o.InstanceTypeName, o.Region, o.CPUCores, o.MemoryGB, o.GPUCount, o.GPUType)
}

// Extras holds provider specific attributes keyed by InstanceOption.Key.
type Extras map[string]map[string]string

func (e Extras) Get(option *InstanceOption, name string) (string, bool) {
	attrs, ok := e[option.Key()]
	if !ok {
		return "", false
	}
	v, ok := attrs[name]
	return v, ok
}

func (e Extras) Set(option *InstanceOption, name, value string) {
	key := option.Key()
	if e[key] == nil {
		e[key] = make(map[string]string)
	}
	e[key][name] = value
}
