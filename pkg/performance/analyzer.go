package performance

import (
	"math"

	"github.com/cloudarb/allocation-optimizer/pkg/core"
)

// Component scores behind an overall score
type Components struct {
	Compute    float64 `json:"compute"`
	Memory     float64 `json:"memory"`
	Network    float64 `json:"network"`
	Efficiency float64 `json:"efficiency"`
}

// Analyzer derives 0-100 performance scores from benchmark tables.
// It holds no mutable state and is safe for concurrent use.
type Analyzer struct {
	tables Tables
}

type Option func(*Analyzer)

func WithTables(t Tables) Option {
	return func(a *Analyzer) {
		a.tables = t
	}
}

func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{tables: DefaultTables()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Analyzer) Tables() Tables {
	return a.tables
}

// Score returns the derived performance score of an option for a workload class.
func (a *Analyzer) Score(option *core.InstanceOption, class core.WorkloadClass) float64 {
	if option == nil || option.GPUCount <= 0 {
		return 0
	}
	if _, ok := a.tables.Benchmarks[option.GPUType.Class()]; !ok {
		return a.tables.UnknownGPUScore
	}
	c := a.Components(option, class)
	w := a.tables.weights(class)
	total := c.Compute*w.Compute + c.Memory*w.Memory + c.Network*w.Network + c.Efficiency*w.Efficiency
	return clamp(total)
}

// EffectiveScore prefers the externally supplied score of the option.
func (a *Analyzer) EffectiveScore(option *core.InstanceOption, class core.WorkloadClass) float64 {
	if option != nil && option.PerformanceScore != nil {
		return clamp(*option.PerformanceScore)
	}
	return a.Score(option, class)
}

// Components returns the component scores; unknown GPUs score zero on
// compute and efficiency.
func (a *Analyzer) Components(option *core.InstanceOption, class core.WorkloadClass) Components {
	b := a.tables.Benchmarks[option.GPUType.Class()]
	ch := a.tables.characteristics(class)
	return Components{
		Compute:    a.computeScore(b, ch, option.GPUCount),
		Memory:     a.memoryScore(b, ch, option.GPUCount),
		Network:    a.networkScore(option, ch),
		Efficiency: a.efficiencyScore(b, option.GPUCount),
	}
}

func (a *Analyzer) reference() Benchmark {
	return a.tables.Benchmarks[a.tables.Reference]
}

// throughput is normalized against the reference fp32 figure for both precisions
func (a *Analyzer) computeScore(b Benchmark, ch Characteristics, gpus int) float64 {
	perf := b.FP32TFLOPS
	if ch.FP16Heavy {
		perf = b.FP16TFLOPS
	}
	ref := a.reference().FP32TFLOPS
	if ref <= 0 {
		return 0
	}
	return math.Min(100, perf*float64(gpus)/ref*100)
}

func (a *Analyzer) memoryScore(b Benchmark, ch Characteristics, gpus int) float64 {
	if !ch.MemoryIntensive {
		return a.tables.BaselineScore
	}
	if gpus <= 0 {
		return 0
	}
	ref := a.reference()
	n := float64(gpus)
	var size, bandwidth float64
	if ref.MemoryGB > 0 {
		size = math.Min(100, b.MemoryGB*n/(ref.MemoryGB*n)*100)
	}
	if ref.MemoryBandwidthGB > 0 {
		bandwidth = math.Min(100, b.MemoryBandwidthGB*n/(ref.MemoryBandwidthGB*n)*100)
	}
	return size*0.6 + bandwidth*0.4
}

func (a *Analyzer) networkScore(option *core.InstanceOption, ch Characteristics) float64 {
	if !ch.NetworkBound {
		return a.tables.BaselineScore
	}
	if option.NetworkBandwidthGbps != nil && *option.NetworkBandwidthGbps > 0 {
		return math.Min(100, *option.NetworkBandwidthGbps/a.tables.ExcellentBandwidthGbps*100)
	}
	if s, ok := a.tables.ProviderNetwork[core.ProviderKey(option.ProviderName)]; ok {
		return s
	}
	return a.tables.DefaultNetworkScore
}

func (a *Analyzer) efficiencyScore(b Benchmark, gpus int) float64 {
	power := b.PowerWatts * float64(gpus)
	if power <= 0 {
		return 0
	}
	perWatt := b.FP32TFLOPS * float64(gpus) / power
	ref := a.reference()
	if ref.PowerWatts <= 0 || ref.FP32TFLOPS <= 0 {
		return 0
	}
	return math.Min(100, perWatt/(ref.FP32TFLOPS/ref.PowerWatts)*100)
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
