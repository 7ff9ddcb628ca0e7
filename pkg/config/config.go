package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Environment variables overriding optimizer settings
const (
	EnvThreads        = "OPTIMIZER_THREADS"
	EnvTimeoutSeconds = "OPTIMIZER_TIMEOUT_SECONDS"
)

// DefaultOptimizerSpec returns the built-in optimizer settings.
func DefaultOptimizerSpec() OptimizerSpec {
	return OptimizerSpec{
		Threads:              runtime.NumCPU(),
		TimeoutSeconds:       DefaultTimeoutSeconds,
		MaxIterations:        DefaultMaxIterations,
		Tolerance:            DefaultTolerance,
		IntegralityTolerance: DefaultIntegralityTolerance,
		MaxConcurrentSolves:  DefaultMaxConcurrentSolves,
		CostWeight:           DefaultCostWeight,
		PerformanceWeight:    DefaultPerformanceWeight,
		RiskWeight:           DefaultRiskWeight,
		CostNormalizer:       DefaultCostNormalizer,
		QualityCostCap:       DefaultQualityCostCap,
		RiskConstraintMode:   DefaultRiskConstraintMode,
		DefaultWorkloadClass: DefaultWorkloadClass,
	}
}

// Merge applies non-zero values from override on top of base.
func (base *OptimizerSpec) Merge(override OptimizerSpec) {
	if override.Threads != 0 {
		base.Threads = override.Threads
	}
	if override.TimeoutSeconds != 0 {
		base.TimeoutSeconds = override.TimeoutSeconds
	}
	if override.MaxIterations != 0 {
		base.MaxIterations = override.MaxIterations
	}
	if override.Tolerance != 0 {
		base.Tolerance = override.Tolerance
	}
	if override.IntegralityTolerance != 0 {
		base.IntegralityTolerance = override.IntegralityTolerance
	}
	if override.MaxConcurrentSolves != 0 {
		base.MaxConcurrentSolves = override.MaxConcurrentSolves
	}
	if override.CostWeight != 0 {
		base.CostWeight = override.CostWeight
	}
	if override.PerformanceWeight != 0 {
		base.PerformanceWeight = override.PerformanceWeight
	}
	if override.RiskWeight != 0 {
		base.RiskWeight = override.RiskWeight
	}
	if override.CostNormalizer != 0 {
		base.CostNormalizer = override.CostNormalizer
	}
	if override.QualityCostCap != 0 {
		base.QualityCostCap = override.QualityCostCap
	}
	if override.EnableSpot != nil {
		base.EnableSpot = override.EnableSpot
	}
	if override.EnableReserved != nil {
		base.EnableReserved = override.EnableReserved
	}
	if override.RiskConstraintMode != "" {
		base.RiskConstraintMode = override.RiskConstraintMode
	}
	if override.DefaultWorkloadClass != "" {
		base.DefaultWorkloadClass = override.DefaultWorkloadClass
	}
}

// Validate checks for invalid settings.
func (c *OptimizerSpec) Validate() error {
	if c.Threads < 1 {
		return fmt.Errorf("threads must be >= 1, got %d", c.Threads)
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeoutSeconds must be > 0, got %.2f", c.TimeoutSeconds)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("maxIterations must be >= 0, got %d", c.MaxIterations)
	}
	if c.Tolerance <= 0 || c.Tolerance >= 1 {
		return fmt.Errorf("tolerance must be between 0 and 1, got %g", c.Tolerance)
	}
	if c.IntegralityTolerance <= 0 || c.IntegralityTolerance >= 0.5 {
		return fmt.Errorf("integralityTolerance must be between 0 and 0.5, got %g", c.IntegralityTolerance)
	}
	if c.MaxConcurrentSolves < 1 {
		return fmt.Errorf("maxConcurrentSolves must be >= 1, got %d", c.MaxConcurrentSolves)
	}
	if c.CostWeight < 0 || c.PerformanceWeight < 0 || c.RiskWeight < 0 {
		return fmt.Errorf("objective weights must be >= 0, got cost=%.2f performance=%.2f risk=%.2f",
			c.CostWeight, c.PerformanceWeight, c.RiskWeight)
	}
	if c.CostNormalizer <= 0 {
		return fmt.Errorf("costNormalizer must be > 0, got %.2f", c.CostNormalizer)
	}
	if c.QualityCostCap <= 0 {
		return fmt.Errorf("qualityCostCap must be > 0, got %.2f", c.QualityCostCap)
	}
	switch c.RiskConstraintMode {
	case RiskConstraintAverage, RiskConstraintSum:
	default:
		return fmt.Errorf("riskConstraintMode must be %q or %q, got %q",
			RiskConstraintAverage, RiskConstraintSum, c.RiskConstraintMode)
	}
	switch c.DefaultWorkloadClass {
	case "training", "inference", "data_processing":
	default:
		return fmt.Errorf("unknown defaultWorkloadClass %q", c.DefaultWorkloadClass)
	}
	return nil
}

// SpotEnabled reports whether spot variables are created (default true).
func (c *OptimizerSpec) SpotEnabled() bool {
	return c.EnableSpot == nil || *c.EnableSpot
}

// ReservedEnabled reports whether reserved variables are created (default true).
func (c *OptimizerSpec) ReservedEnabled() bool {
	return c.EnableReserved == nil || *c.EnableReserved
}

// ApplyEnv overrides settings from the environment.
func (c *OptimizerSpec) ApplyEnv() error {
	if v := os.Getenv(EnvThreads); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvThreads, v, err)
		}
		c.Threads = n
	}
	if v := os.Getenv(EnvTimeoutSeconds); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvTimeoutSeconds, v, err)
		}
		c.TimeoutSeconds = f
	}
	return nil
}

// ParseOptimizerData reads optimizer settings in YAML or JSON form and
// merges them over the defaults.
func ParseOptimizerData(data []byte) (*OptimizerSpec, error) {
	var d OptimizerData
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse optimizer data: %w", err)
	}
	spec := DefaultOptimizerSpec()
	spec.Merge(d.Spec)
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid optimizer data: %w", err)
	}
	return &spec, nil
}

// ParseProblemData reads a problem in YAML or JSON form.
func ParseProblemData(data []byte) (*ProblemSpec, error) {
	var d ProblemData
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse problem data: %w", err)
	}
	return &d.Spec, nil
}
