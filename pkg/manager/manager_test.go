package manager

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"

	"github.com/cloudarb/allocation-optimizer/pkg/config"
	"github.com/cloudarb/allocation-optimizer/pkg/core"
	"github.com/cloudarb/allocation-optimizer/pkg/solver"
)

func t4Option(provider, instanceType, region string, price float64) *core.InstanceOption {
	return &core.InstanceOption{
		ProviderID:       provider,
		ProviderName:     provider,
		InstanceTypeID:   instanceType,
		InstanceTypeName: instanceType,
		Region:           region,
		CPUCores:         4,
		MemoryGB:         16,
		GPUCount:         1,
		GPUType:          core.ParseGPUType("T4"),
		GPUMemoryGB:      16,
		OnDemandPrice:    ptr.To(price),
	}
}

// problem demands gpus T4s; the catalog holds one AWS option and enough
// single GPU GCP options to cover the demand.
func problem(name string, gpus int) *core.OptimizationProblem {
	p := core.NewProblem(name)
	p.Options = []*core.InstanceOption{t4Option("aws", "g4dn.xlarge", "us-east-1", 0.526)}
	for i := 0; i < gpus; i++ {
		p.AddInstanceOption(t4Option("gcp", fmt.Sprintf("n1-t4-%d", i), "us-central1", 0.19))
	}
	p.Requirements = []*core.ResourceRequirement{{
		CPUCores: 4 * gpus,
		MemoryGB: 16,
		GPURequirements: []*core.GPURequirement{
			{GPUType: core.ParseGPUType("T4"), MinCount: gpus, MaxCount: gpus, Priority: 1},
		},
	}}
	return p
}

func newOptimizer(concurrency int) *solver.Optimizer {
	spec := config.DefaultOptimizerSpec()
	spec.Threads = 1
	spec.MaxConcurrentSolves = concurrency
	return solver.NewOptimizer(&spec)
}

func TestNewManager(t *testing.T) {
	tests := []struct {
		name      string
		optimizer *solver.Optimizer
		wantLimit int
	}{
		{name: "limit from settings", optimizer: newOptimizer(3), wantLimit: 3},
		{name: "non positive limit falls back to one", optimizer: newOptimizer(0), wantLimit: 1},
		{name: "nil optimizer", optimizer: nil, wantLimit: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewManager(tt.optimizer)
			require.NotNil(t, got)
			assert.Equal(t, tt.optimizer, got.optimizer)
			assert.Equal(t, tt.wantLimit, got.limit)
		})
	}
}

func TestManager_SolveAllKeepsOrder(t *testing.T) {
	m := NewManager(newOptimizer(4))
	var problems []*core.OptimizationProblem
	for i := 1; i <= 6; i++ {
		problems = append(problems, problem(fmt.Sprintf("p%d", i), i))
	}
	// infeasible: no catalog entry has an A100
	bad := problem("bad", 1)
	bad.Requirements[0].GPURequirements[0].GPUType = core.GPUA100
	problems = append(problems, bad)

	results := m.SolveAll(context.Background(), problems)
	require.Len(t, results, len(problems))
	for i, r := range results[:6] {
		assert.Equal(t, problems[i].ID, r.ProblemID)
		assert.True(t, r.Succeeded(), r.ErrorMessage)
		assert.Equal(t, i+1, r.TotalGPUs())
		assert.InDelta(t, 0.19*float64(i+1), r.TotalCostPerHour, 1e-9)
	}
	assert.Equal(t, core.StatusFailed, results[6].Status)
	assert.Equal(t, core.CodeValidation, results[6].ErrorCode)
}

func TestManager_SolveAllMatchesSequential(t *testing.T) {
	parallel := NewManager(newOptimizer(3))
	sequential := NewManager(newOptimizer(1))
	problems := []*core.OptimizationProblem{problem("a", 2), problem("b", 3), problem("c", 1)}

	got := parallel.SolveAll(context.Background(), problems)
	want := sequential.SolveAll(context.Background(), problems)
	for i := range problems {
		assert.Equal(t, want[i].SolverStatus, got[i].SolverStatus)
		assert.InDelta(t, want[i].ObjectiveValue, got[i].ObjectiveValue, 1e-9)
		assert.Equal(t, want[i].TotalInstances(), got[i].TotalInstances())
	}
}

func TestManager_Optimize(t *testing.T) {
	m := NewManager(newOptimizer(1))
	r := m.Optimize(context.Background(), problem("single", 1))
	assert.Equal(t, core.SolverOptimal, r.SolverStatus)
	assert.Equal(t, map[string]int{"gcp": 1}, r.ProviderBreakdown())
}

func TestManager_SolveAllEmpty(t *testing.T) {
	assert.Empty(t, NewManager(newOptimizer(2)).SolveAll(context.Background(), nil))
}
