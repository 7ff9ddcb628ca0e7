package performance

import "github.com/cloudarb/allocation-optimizer/pkg/core"

// Benchmark figures of one GPU
type Benchmark struct {
	FP32TFLOPS        float64 `json:"fp32Tflops"`
	FP16TFLOPS        float64 `json:"fp16Tflops"`
	MemoryBandwidthGB float64 `json:"memoryBandwidthGBps"`
	MemoryGB          float64 `json:"memoryGB"`
	PowerWatts        float64 `json:"powerWatts"`
}

// Characteristics of a workload class
type Characteristics struct {
	FP16Heavy       bool
	MemoryIntensive bool
	NetworkBound    bool
	IOBound         bool
}

// Weights of the component scores
type Weights struct {
	Compute    float64
	Memory     float64
	Network    float64
	Efficiency float64
}

// Tables holds the static data used by the analyzer. Provider keys are lower case.
type Tables struct {
	Benchmarks      map[core.GPUType]Benchmark
	Reference       core.GPUType // normalization reference GPU
	Workloads       map[core.WorkloadClass]Characteristics
	ClassWeights    map[core.WorkloadClass]Weights
	FallbackWeights Weights // weights of classes not in ClassWeights

	ProviderNetwork        map[string]float64
	DefaultNetworkScore    float64
	BaselineScore          float64 // memory/network score when the aspect is irrelevant
	UnknownGPUScore        float64
	ExcellentBandwidthGbps float64

	SizeMultipliers map[string]float64
	BaselineSeconds map[core.WorkloadClass]map[string]float64
}

// DefaultTables returns a fresh copy of the built-in benchmark data.
func DefaultTables() Tables {
	return Tables{
		Benchmarks: map[core.GPUType]Benchmark{
			core.GPUV100:    {FP32TFLOPS: 112, FP16TFLOPS: 224, MemoryBandwidthGB: 900, MemoryGB: 32, PowerWatts: 300},
			core.GPUA100:    {FP32TFLOPS: 312, FP16TFLOPS: 624, MemoryBandwidthGB: 1555, MemoryGB: 80, PowerWatts: 400},
			core.GPUH100:    {FP32TFLOPS: 989, FP16TFLOPS: 1979, MemoryBandwidthGB: 3350, MemoryGB: 80, PowerWatts: 700},
			core.GPURTX4090: {FP32TFLOPS: 83, FP16TFLOPS: 166, MemoryBandwidthGB: 1008, MemoryGB: 24, PowerWatts: 450},
			core.GPURTX3090: {FP32TFLOPS: 36, FP16TFLOPS: 72, MemoryBandwidthGB: 936, MemoryGB: 24, PowerWatts: 350},
		},
		Reference: core.GPUH100,
		Workloads: map[core.WorkloadClass]Characteristics{
			core.Training:       {FP16Heavy: true, MemoryIntensive: true},
			core.Inference:      {NetworkBound: true},
			core.DataProcessing: {MemoryIntensive: true, IOBound: true},
		},
		ClassWeights: map[core.WorkloadClass]Weights{
			core.Training:  {Compute: 0.4, Memory: 0.3, Network: 0.2, Efficiency: 0.1},
			core.Inference: {Compute: 0.3, Memory: 0.2, Network: 0.4, Efficiency: 0.1},
		},
		FallbackWeights: Weights{Compute: 0.2, Memory: 0.4, Network: 0.1, Efficiency: 0.3},
		ProviderNetwork: map[string]float64{
			"aws":         85,
			"gcp":         80,
			"azure":       75,
			"lambda labs": 70,
			"runpod":      65,
		},
		DefaultNetworkScore:    70,
		BaselineScore:          80,
		UnknownGPUScore:        50,
		ExcellentBandwidthGbps: 100,
		SizeMultipliers: map[string]float64{
			"small":  1.0,
			"medium": 0.9,
			"large":  0.8,
		},
		BaselineSeconds: map[core.WorkloadClass]map[string]float64{
			core.Training:       {"small": 3600, "medium": 7200, "large": 14400},
			core.Inference:      {"small": 60, "medium": 300, "large": 900},
			core.DataProcessing: {"small": 1800, "medium": 3600, "large": 7200},
		},
	}
}

func (t *Tables) characteristics(class core.WorkloadClass) Characteristics {
	if c, ok := t.Workloads[class]; ok {
		return c
	}
	return t.Workloads[core.Training]
}

func (t *Tables) weights(class core.WorkloadClass) Weights {
	if w, ok := t.ClassWeights[class]; ok {
		return w
	}
	return t.FallbackWeights
}
