package config

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"
)

func TestDefaultOptimizerSpec(t *testing.T) {
	spec := DefaultOptimizerSpec()
	assert.Equal(t, runtime.NumCPU(), spec.Threads)
	assert.Equal(t, 30.0, spec.TimeoutSeconds)
	assert.Equal(t, 10000, spec.MaxIterations)
	assert.Equal(t, 4, spec.MaxConcurrentSolves)
	assert.Equal(t, RiskConstraintAverage, spec.RiskConstraintMode)
	assert.True(t, spec.SpotEnabled())
	assert.True(t, spec.ReservedEnabled())
	assert.NoError(t, spec.Validate())
}

func TestOptimizerSpec_Merge(t *testing.T) {
	spec := DefaultOptimizerSpec()
	spec.Merge(OptimizerSpec{
		Threads:            2,
		CostWeight:         0.8,
		EnableSpot:         ptr.To(false),
		RiskConstraintMode: RiskConstraintSum,
	})
	assert.Equal(t, 2, spec.Threads)
	assert.Equal(t, 0.8, spec.CostWeight)
	assert.Equal(t, DefaultPerformanceWeight, spec.PerformanceWeight)
	assert.Equal(t, DefaultTimeoutSeconds, spec.TimeoutSeconds)
	assert.False(t, spec.SpotEnabled())
	assert.True(t, spec.ReservedEnabled())
	assert.Equal(t, RiskConstraintSum, spec.RiskConstraintMode)
}

func TestOptimizerSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*OptimizerSpec)
		wantErr string
	}{
		{"defaults", func(*OptimizerSpec) {}, ""},
		{"no threads", func(s *OptimizerSpec) { s.Threads = 0 }, "threads"},
		{"zero timeout", func(s *OptimizerSpec) { s.TimeoutSeconds = 0 }, "timeoutSeconds"},
		{"negative iterations", func(s *OptimizerSpec) { s.MaxIterations = -1 }, "maxIterations"},
		{"tolerance too large", func(s *OptimizerSpec) { s.Tolerance = 1 }, "tolerance"},
		{"integrality tolerance", func(s *OptimizerSpec) { s.IntegralityTolerance = 0.5 }, "integralityTolerance"},
		{"no concurrency", func(s *OptimizerSpec) { s.MaxConcurrentSolves = 0 }, "maxConcurrentSolves"},
		{"negative weight", func(s *OptimizerSpec) { s.RiskWeight = -0.1 }, "objective weights"},
		{"cost normalizer", func(s *OptimizerSpec) { s.CostNormalizer = 0 }, "costNormalizer"},
		{"quality cap", func(s *OptimizerSpec) { s.QualityCostCap = -5 }, "qualityCostCap"},
		{"risk mode", func(s *OptimizerSpec) { s.RiskConstraintMode = "max" }, "riskConstraintMode"},
		{"workload class", func(s *OptimizerSpec) { s.DefaultWorkloadClass = "rendering" }, "defaultWorkloadClass"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := DefaultOptimizerSpec()
			tt.mutate(&spec)
			err := spec.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOptimizerSpec_ApplyEnv(t *testing.T) {
	t.Setenv(EnvThreads, "3")
	t.Setenv(EnvTimeoutSeconds, "12.5")
	spec := DefaultOptimizerSpec()
	require.NoError(t, spec.ApplyEnv())
	assert.Equal(t, 3, spec.Threads)
	assert.Equal(t, 12.5, spec.TimeoutSeconds)

	t.Setenv(EnvThreads, "many")
	assert.Error(t, spec.ApplyEnv())
}

func TestParseOptimizerData(t *testing.T) {
	spec, err := ParseOptimizerData([]byte(`
spec:
  threads: 2
  timeoutSeconds: 5
  enableReserved: false
`))
	require.NoError(t, err)
	assert.Equal(t, 2, spec.Threads)
	assert.Equal(t, 5.0, spec.TimeoutSeconds)
	assert.False(t, spec.ReservedEnabled())
	assert.Equal(t, DefaultMaxIterations, spec.MaxIterations)

	// JSON is a subset of YAML
	spec, err = ParseOptimizerData([]byte(`{"spec": {"maxConcurrentSolves": 8}}`))
	require.NoError(t, err)
	assert.Equal(t, 8, spec.MaxConcurrentSolves)

	_, err = ParseOptimizerData([]byte(`spec: {riskConstraintMode: max}`))
	assert.ErrorContains(t, err, "invalid optimizer data")

	_, err = ParseOptimizerData([]byte(`spec: [`))
	assert.ErrorContains(t, err, "failed to parse optimizer data")
}

func TestParseProblemData(t *testing.T) {
	p, err := ParseProblemData([]byte(`
spec:
  name: inference-fleet
  objective: minimize_cost
  riskTolerance: 0.2
  requirements:
    - cpuCores: 8
      memoryGB: 32
      gpus:
        - gpuType: A100
          minCount: 2
          maxCount: 4
  instances:
    - provider: aws
      instanceType: p4d.24xlarge
      region: us-east-1
      gpuCount: 8
      gpuType: A100
`))
	require.NoError(t, err)
	assert.Equal(t, "inference-fleet", p.Name)
	require.NotNil(t, p.RiskTolerance)
	assert.Equal(t, 0.2, *p.RiskTolerance)
	require.Len(t, p.Requirements, 1)
	require.Len(t, p.Requirements[0].GPUs, 1)
	assert.Equal(t, 4, p.Requirements[0].GPUs[0].MaxCount)
	require.Len(t, p.Instances, 1)
	assert.Equal(t, "p4d.24xlarge", p.Instances[0].InstanceType)
	assert.Nil(t, p.TimeHorizonHours)

	_, err = ParseProblemData([]byte("spec:\n  instances: {"))
	assert.Error(t, err)
}
