package core

import (
	"fmt"

	"github.com/cloudarb/allocation-optimizer/pkg/config"
)

// GPU demand for one GPU type
type GPURequirement struct {
	GPUType     GPUType `json:"gpuType"`
	MinCount    int     `json:"minCount"`
	MaxCount    int     `json:"maxCount"`
	MinMemoryGB float64 `json:"minMemoryGB"` // per GPU
	Priority    int     `json:"priority"`    // lower is more important
}

func (r *GPURequirement) Validate() error {
	if r.MinCount < 0 || r.MaxCount < 0 {
		return NewValidationError("gpuRequirements."+string(r.GPUType), "counts must be non-negative")
	}
	if r.MinCount > r.MaxCount {
		return NewValidationError("gpuRequirements."+string(r.GPUType),
			fmt.Sprintf("minCount %d exceeds maxCount %d", r.MinCount, r.MaxCount))
	}
	if r.MinMemoryGB < 0 {
		return NewValidationError("gpuRequirements."+string(r.GPUType), "minMemoryGB must be non-negative")
	}
	return nil
}

// Aggregated resource demand of a workload
type ResourceRequirement struct {
	CPUCores             int               `json:"cpuCores"`
	MemoryGB             float64           `json:"memoryGB"`
	StorageGB            float64           `json:"storageGB"`
	NetworkBandwidthGbps *float64          `json:"networkBandwidthGbps,omitempty"`
	GPURequirements      []*GPURequirement `json:"gpuRequirements"`
}

func NewResourceRequirementFromSpec(spec *config.RequirementSpec) *ResourceRequirement {
	r := &ResourceRequirement{
		CPUCores:             spec.CPUCores,
		MemoryGB:             spec.MemoryGB,
		StorageGB:            spec.StorageGB,
		NetworkBandwidthGbps: spec.NetworkBandwidthGbps,
		GPURequirements:      make([]*GPURequirement, len(spec.GPUs)),
	}
	for i, g := range spec.GPUs {
		r.GPURequirements[i] = &GPURequirement{
			GPUType:     ParseGPUType(g.GPUType),
			MinCount:    g.MinCount,
			MaxCount:    g.MaxCount,
			MinMemoryGB: g.MinMemoryGB,
			Priority:    g.Priority,
		}
	}
	return r
}

func (r *ResourceRequirement) Validate() error {
	if r.CPUCores < 0 {
		return NewValidationError("cpuCores", "must be non-negative")
	}
	if r.MemoryGB < 0 {
		return NewValidationError("memoryGB", "must be non-negative")
	}
	if r.StorageGB < 0 {
		return NewValidationError("storageGB", "must be non-negative")
	}
	for _, g := range r.GPURequirements {
		if g == nil {
			return NewValidationError("gpuRequirements", "nil entry")
		}
		if err := g.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// GPURequirement returns the requirement for a GPU type, if any.
func (r *ResourceRequirement) GPURequirement(gpuType GPUType) *GPURequirement {
	for _, g := range r.GPURequirements {
		if g.GPUType == gpuType {
			return g
		}
	}
	return nil
}
