package cost

import (
	"fmt"
	"math"

	"github.com/cloudarb/allocation-optimizer/pkg/core"
)

// Breakdown of the cost of running one instance for a duration
type Breakdown struct {
	Compute              float64 `json:"compute"`
	Storage              float64 `json:"storage"`
	Network              float64 `json:"network"`
	DataTransfer         float64 `json:"dataTransfer"`
	Total                float64 `json:"total"`
	CostPerGPUHour       float64 `json:"costPerGPUHour"`
	CostPerformanceRatio float64 `json:"costPerformanceRatio"` // $ per performance point hour, +Inf when undefined
}

func (b *Breakdown) String() string {
	return fmt.Sprintf("Cost: compute=%v; storage=%v; network=%v; transfer=%v; total=%v; perGPUHour=%v",
		b.Compute, b.Storage, b.Network, b.DataTransfer, b.Total, b.CostPerGPUHour)
}

// Calculator computes instance costs from catalog data. It holds no mutable
// state and is safe for concurrent use.
type Calculator struct {
	tables Tables
}

type Option func(*Calculator)

// WithTables replaces the built-in rate tables.
func WithTables(t Tables) Option {
	return func(c *Calculator) {
		c.tables = t
	}
}

func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{tables: DefaultTables()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Calculator) Tables() Tables {
	return c.tables
}

// usage overrides for a cost calculation
type usage struct {
	storageGB        *float64
	dataTransferGB   *float64
	networkBandwidth *float64
}

type UsageOption func(*usage)

func WithStorageGB(gb float64) UsageOption {
	return func(u *usage) { u.storageGB = &gb }
}

func WithDataTransferGB(gb float64) UsageOption {
	return func(u *usage) { u.dataTransferGB = &gb }
}

func WithNetworkBandwidthGbps(gbps float64) UsageOption {
	return func(u *usage) { u.networkBandwidth = &gbps }
}

// CalculateTotalCost computes the cost breakdown of one instance under a
// pricing mode. A mode without a price contributes zero compute cost.
func (c *Calculator) CalculateTotalCost(option *core.InstanceOption, mode core.PricingMode,
	durationHours float64, opts ...UsageOption) *Breakdown {
	u := &usage{}
	for _, opt := range opts {
		opt(u)
	}

	b := &Breakdown{}
	if option == nil || durationHours <= 0 {
		return b
	}
	price, ok := option.Price(mode)
	if !ok {
		return b
	}

	b.Compute = c.computeCost(price, mode, durationHours)
	b.Storage = c.storageCost(option, u.storageGB, durationHours)
	b.Network = c.networkCost(option, u.networkBandwidth, durationHours)
	b.DataTransfer = c.dataTransferCost(option, u.dataTransferGB)
	b.Total = b.Compute + b.Storage + b.Network + b.DataTransfer

	if option.GPUCount > 0 {
		b.CostPerGPUHour = b.Total / (float64(option.GPUCount) * durationHours)
	}
	b.CostPerformanceRatio = c.costPerformanceRatio(option, b.Total, durationHours)
	return b
}

// ComputeCost is the price of the mode over the duration, including the spot
// overhead; zero when the mode is not offered.
func (c *Calculator) ComputeCost(option *core.InstanceOption, mode core.PricingMode, durationHours float64) float64 {
	price, ok := option.Price(mode)
	if !ok {
		return 0
	}
	return c.computeCost(price, mode, durationHours)
}

func (c *Calculator) computeCost(price float64, mode core.PricingMode, hours float64) float64 {
	multiplier := 1.0
	if mode == core.Spot {
		multiplier = c.tables.SpotOverhead
	}
	return price * hours * multiplier
}

func (c *Calculator) storageCost(option *core.InstanceOption, storageGB *float64, hours float64) float64 {
	gb := c.tables.DefaultStorageGB
	if storageGB != nil {
		gb = *storageGB
	} else if option.StorageGB > 0 {
		gb = option.StorageGB
	}
	perGBHour := c.tables.storageRate(option.ProviderName) / (30 * 24)
	return gb * perGBHour * hours
}

func (c *Calculator) networkCost(option *core.InstanceOption, bandwidth *float64, hours float64) float64 {
	gbps := c.tables.DefaultBandwidthGbps
	if bandwidth != nil {
		gbps = *bandwidth
	} else if option.NetworkBandwidthGbps != nil && *option.NetworkBandwidthGbps > 0 {
		gbps = *option.NetworkBandwidthGbps
	}
	gb := gbps * 3600 * hours
	return gb * c.tables.networkRate(option.ProviderName)
}

func (c *Calculator) dataTransferCost(option *core.InstanceOption, gb *float64) float64 {
	if gb == nil {
		return 0
	}
	return *gb * c.tables.networkRate(option.ProviderName)
}

func (c *Calculator) costPerformanceRatio(option *core.InstanceOption, total, hours float64) float64 {
	if total <= 0 {
		return math.Inf(1)
	}
	perf := c.tables.performance(option) * float64(option.GPUCount) * hours
	if perf <= 0 {
		return math.Inf(1)
	}
	return total / perf
}
