package performance

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cloudarb/allocation-optimizer/pkg/core"
)

var ErrNoInstances = errors.New("no instances provided")

// Entry is the performance of one instance in a comparison.
type Entry struct {
	Provider     string       `json:"provider"`
	InstanceType string       `json:"instanceType"`
	GPUType      core.GPUType `json:"gpuType"`
	GPUCount     int          `json:"gpuCount"`
	Region       string       `json:"region"`
	Score        float64      `json:"performanceScore"`
	Components   Components   `json:"components"`
}

type Range struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

type Comparison struct {
	Entries         []*Entry `json:"entries"`
	Best            *Entry   `json:"best"`
	Worst           *Entry   `json:"worst"`
	ScoreRange      Range    `json:"scoreRange"`
	Recommendations []string `json:"recommendations"`
}

// ComparePerformance scores every instance for a workload class.
func (a *Analyzer) ComparePerformance(options []*core.InstanceOption, class core.WorkloadClass) (*Comparison, error) {
	if len(options) == 0 {
		return nil, ErrNoInstances
	}
	cmp := &Comparison{Entries: make([]*Entry, len(options))}
	scores := make([]float64, len(options))
	for i, o := range options {
		s := a.Score(o, class)
		cmp.Entries[i] = &Entry{
			Provider:     o.ProviderName,
			InstanceType: o.InstanceTypeName,
			GPUType:      o.GPUType,
			GPUCount:     o.GPUCount,
			Region:       o.Region,
			Score:        s,
			Components:   a.Components(o, class),
		}
		scores[i] = s
	}
	cmp.Best = cmp.Entries[floats.MaxIdx(scores)]
	cmp.Worst = cmp.Entries[floats.MinIdx(scores)]
	mean, std := stat.PopMeanStdDev(scores, nil)
	cmp.ScoreRange = Range{Min: floats.Min(scores), Max: floats.Max(scores), Mean: mean, Std: std}
	cmp.Recommendations = comparisonRecommendations(cmp.Entries, class)
	return cmp, nil
}

func comparisonRecommendations(entries []*Entry, class core.WorkloadClass) []string {
	var recs []string
	best := func(metric func(*Entry) float64) *Entry {
		top := entries[0]
		for _, e := range entries[1:] {
			if metric(e) > metric(top) {
				top = e
			}
		}
		return top
	}

	minScore, maxScore := math.Inf(1), math.Inf(-1)
	for _, e := range entries {
		minScore = math.Min(minScore, e.Score)
		maxScore = math.Max(maxScore, e.Score)
	}
	if maxScore > minScore*1.3 {
		recs = append(recs, fmt.Sprintf("Performance varies significantly (%.1f - %.1f). Consider higher-performing options.",
			minScore, maxScore))
	}

	switch class {
	case core.Training:
		top := best(func(e *Entry) float64 { return e.Components.Compute })
		recs = append(recs, fmt.Sprintf("Best compute performance: %s %s", top.Provider, top.InstanceType))
		for _, e := range entries {
			if e.Components.Memory < 60 {
				recs = append(recs, "Some instances have low memory scores. Consider instances with more GPU memory.")
				break
			}
		}
	case core.Inference:
		top := best(func(e *Entry) float64 { return e.Components.Network })
		recs = append(recs, fmt.Sprintf("Best network performance: %s %s", top.Provider, top.InstanceType))
	}

	top := best(func(e *Entry) float64 { return e.Components.Efficiency })
	recs = append(recs, fmt.Sprintf("Most power efficient: %s %s", top.Provider, top.InstanceType))
	return recs
}

// Estimate of a workload running on one instance
type WorkloadEstimate struct {
	Score                float64  `json:"performanceScore"`
	ExecutionTimeSeconds float64  `json:"estimatedExecutionTimeSeconds"`
	ExecutionTimeHours   float64  `json:"estimatedExecutionTimeHours"`
	NormalizedThroughput float64  `json:"throughputEstimate"`
	Recommendations      []string `json:"recommendations"`
}

// EstimateWorkload scales the score by workload size (small, medium, large)
// and projects execution time from a per-class baseline.
func (a *Analyzer) EstimateWorkload(option *core.InstanceOption, class core.WorkloadClass, size string) *WorkloadEstimate {
	mult, ok := a.tables.SizeMultipliers[size]
	if !ok {
		mult = a.tables.SizeMultipliers["medium"]
	}
	score := a.Score(option, class) * mult

	base := 3600.0
	if byClass, ok := a.tables.BaselineSeconds[class]; ok {
		if s, ok := byClass[size]; ok {
			base = s
		}
	}
	est := &WorkloadEstimate{
		Score:                score,
		ExecutionTimeSeconds: math.Inf(1),
		ExecutionTimeHours:   math.Inf(1),
		NormalizedThroughput: score / 100,
	}
	if score > 0 {
		est.ExecutionTimeSeconds = base * 100 / score
		est.ExecutionTimeHours = est.ExecutionTimeSeconds / 3600
	}
	est.Recommendations = a.workloadRecommendations(option, class, score)
	return est
}

func (a *Analyzer) workloadRecommendations(option *core.InstanceOption, class core.WorkloadClass, score float64) []string {
	var recs []string
	if score < 50 {
		recs = append(recs, "Low performance score. Consider upgrading to a more powerful GPU.")
	}
	if class == core.Training && option.GPUCount < 2 {
		recs = append(recs, "Training workloads benefit from multiple GPUs. Consider multi-GPU instances.")
	}
	if class == core.Inference && option.NetworkBandwidthGbps != nil && *option.NetworkBandwidthGbps > 0 &&
		*option.NetworkBandwidthGbps < 10 {
		recs = append(recs, "Inference workloads benefit from high network bandwidth. Consider instances with faster networking.")
	}
	if class == core.Training && a.tables.Benchmarks[option.GPUType.Class()].MemoryGB < 32 {
		recs = append(recs, "Training workloads benefit from more GPU memory. Consider instances with larger GPU memory.")
	}
	return recs
}

// Benchmarks returns the benchmark of a GPU type; ok is false for unknown types.
func (a *Analyzer) Benchmarks(gpuType core.GPUType) (Benchmark, bool) {
	b, ok := a.tables.Benchmarks[gpuType.Class()]
	return b, ok
}

// PerformanceCostRatio is score points per $/hr, zero for non-positive cost.
func (a *Analyzer) PerformanceCostRatio(option *core.InstanceOption, costPerHour float64, class core.WorkloadClass) float64 {
	if costPerHour <= 0 {
		return 0
	}
	return a.Score(option, class) / costPerHour
}
