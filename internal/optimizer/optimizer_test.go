/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package optimizer

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"k8s.io/utils/ptr"

	"github.com/cloudarb/allocation-optimizer/internal/actuator"
	"github.com/cloudarb/allocation-optimizer/internal/interfaces"
	"github.com/cloudarb/allocation-optimizer/internal/metrics"
	"github.com/cloudarb/allocation-optimizer/internal/store"
	"github.com/cloudarb/allocation-optimizer/pkg/config"
	"github.com/cloudarb/allocation-optimizer/pkg/core"
	"github.com/cloudarb/allocation-optimizer/pkg/solver"
)

// memoryStore records saved results.
type memoryStore struct {
	mu      sync.Mutex
	saved   []*core.OptimizationResult
	saveErr error
}

func (m *memoryStore) SaveResult(ctx context.Context, problem *core.OptimizationProblem, result *core.OptimizationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, result)
	return nil
}

func (m *memoryStore) GetResult(ctx context.Context, resultID string) (*interfaces.StoredResult, error) {
	return nil, errors.New("not implemented")
}

func (m *memoryStore) ListResults(ctx context.Context, status core.Status, limit int) ([]*interfaces.StoredResult, error) {
	return nil, errors.New("not implemented")
}

type failingExecutor struct{}

func (failingExecutor) Execute(ctx context.Context, result *core.OptimizationResult) error {
	return errors.New("provisioning quota exceeded")
}

func t4Option(provider, region string, price float64) *core.InstanceOption {
	return &core.InstanceOption{
		ProviderID:       provider,
		ProviderName:     provider,
		InstanceTypeID:   provider + "-t4",
		InstanceTypeName: provider + "-t4",
		Region:           region,
		CPUCores:         4,
		MemoryGB:         16,
		GPUCount:         1,
		GPUType:          core.ParseGPUType("T4"),
		GPUMemoryGB:      16,
		OnDemandPrice:    ptr.To(price),
	}
}

func t4Problem() *core.OptimizationProblem {
	p := core.NewProblem("service-test")
	p.Options = []*core.InstanceOption{t4Option("aws", "us-east-1", 0.526), t4Option("gcp", "us-central1", 0.19)}
	p.Requirements = []*core.ResourceRequirement{{
		CPUCores: 4,
		MemoryGB: 15,
		GPURequirements: []*core.GPURequirement{
			{GPUType: core.ParseGPUType("T4"), MinCount: 1, MaxCount: 1, Priority: 1},
		},
	}}
	return p
}

func newSolverOptimizer() *solver.Optimizer {
	spec := config.DefaultOptimizerSpec()
	spec.Threads = 1
	return solver.NewOptimizer(&spec)
}

var _ = Describe("Service", func() {
	var (
		ctx      context.Context
		mem      *memoryStore
		executor *actuator.Actuator
		registry *prometheus.Registry
		emitter  *metrics.MetricsEmitter
	)

	BeforeEach(func() {
		ctx = context.Background()
		mem = &memoryStore{}
		executor = actuator.NewActuator()
		registry = prometheus.NewRegistry()
		emitter = metrics.InitMetricsAndEmitter(registry)
	})

	Context("without a forecaster", func() {
		It("solves, records metrics, persists and executes the plan", func() {
			svc := NewService(newSolverOptimizer(), WithStore(mem), WithExecutor(executor), WithMetricsEmitter(emitter))
			result, err := svc.Optimize(ctx, t4Problem())
			Expect(err).NotTo(HaveOccurred())
			Expect(result.SolverStatus).To(Equal(core.SolverOptimal))
			Expect(result.ProviderBreakdown()).To(Equal(map[string]int{"gcp": 1}))
			Expect(result.TotalCostPerHour).To(BeNumerically("~", 0.19, 1e-9))

			Expect(mem.saved).To(HaveLen(1))
			Expect(executor.Applied).To(ConsistOf(result.ResultID))
			Expect(testutil.GatherAndCount(registry, "cloudarb_optimization_runs_total")).To(Equal(1))
		})

		It("does not execute failed results", func() {
			p := t4Problem()
			p.AddConstraint(&core.OptimizationConstraint{
				Name: "budget", Type: core.BudgetConstraint, Operator: core.LessEqual, Value: 0.1, IsHard: true,
			})
			svc := NewService(newSolverOptimizer(), WithStore(mem), WithExecutor(executor), WithMetricsEmitter(emitter))
			result, err := svc.Optimize(ctx, p)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.SolverStatus).To(Equal(core.SolverInfeasible))
			Expect(mem.saved).To(HaveLen(1))
			Expect(executor.Applied).To(BeEmpty())
			Expect(testutil.GatherAndCount(registry, "cloudarb_optimization_errors_total")).To(Equal(1))
		})
	})

	Context("in batch mode", func() {
		It("solves every problem and records each result", func() {
			svc := NewService(newSolverOptimizer(), WithStore(mem), WithExecutor(executor), WithMetricsEmitter(emitter))
			infeasible := t4Problem()
			infeasible.AddConstraint(&core.OptimizationConstraint{
				Name: "budget", Type: core.BudgetConstraint, Operator: core.LessEqual, Value: 0.1, IsHard: true,
			})
			problems := []*core.OptimizationProblem{t4Problem(), infeasible, t4Problem()}

			results, err := svc.OptimizeBatch(ctx, problems)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			for i, r := range results {
				Expect(r.ProblemID).To(Equal(problems[i].ID))
			}
			Expect(results[1].SolverStatus).To(Equal(core.SolverInfeasible))
			Expect(mem.saved).To(HaveLen(3))
			Expect(executor.Applied).To(ConsistOf(results[0].ResultID, results[2].ResultID))
		})

		It("reports the first execution error", func() {
			svc := NewService(newSolverOptimizer(), WithExecutor(failingExecutor{}))
			results, err := svc.OptimizeBatch(ctx, []*core.OptimizationProblem{t4Problem(), t4Problem()})
			Expect(err).To(HaveOccurred())
			Expect(results).To(HaveLen(2))
		})
	})

	Context("with a forecaster", func() {
		It("solves on blended prices without touching the input catalog", func() {
			// GCP forecast to triple in price: 0.5*0.19 + 0.5*0.57 = 0.38 < 0.526
			// AWS forecast to drop by half: 0.5*0.526 + 0.5*0.263 = 0.3945
			forecaster := NewDummyForecaster(map[string]float64{"gcp": 3, "aws": 0.5})
			svc := NewService(newSolverOptimizer(), WithForecaster(forecaster, 0.5))
			p := t4Problem()
			result, err := svc.Optimize(ctx, p)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.TotalCostPerHour).To(BeNumerically("~", 0.38, 1e-9))
			Expect(*p.Options[1].OnDemandPrice).To(Equal(0.19))
		})

		It("switches provider when the forecast flips the ranking", func() {
			forecaster := NewDummyForecaster(map[string]float64{"gcp": 5})
			svc := NewService(newSolverOptimizer(), WithForecaster(forecaster, 0.5))
			result, err := svc.Optimize(ctx, t4Problem())
			Expect(err).NotTo(HaveOccurred())
			// gcp blends to 0.57 which is above aws at 0.526
			Expect(result.ProviderBreakdown()).To(Equal(map[string]int{"aws": 1}))
		})

		It("falls back to current prices when the forecast fails", func() {
			forecaster := &DummyForecaster{Err: errors.New("forecast service down")}
			svc := NewService(newSolverOptimizer(), WithForecaster(forecaster, 0.5))
			result, err := svc.Optimize(ctx, t4Problem())
			Expect(err).NotTo(HaveOccurred())
			Expect(result.TotalCostPerHour).To(BeNumerically("~", 0.19, 1e-9))
		})
	})

	Context("with failing collaborators", func() {
		It("keeps the result when the store fails", func() {
			mem.saveErr = errors.New("disk full")
			svc := NewService(newSolverOptimizer(), WithStore(mem))
			result, err := svc.Optimize(ctx, t4Problem())
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Succeeded()).To(BeTrue())
		})

		It("returns execution errors with the result", func() {
			svc := NewService(newSolverOptimizer(), WithExecutor(failingExecutor{}))
			result, err := svc.Optimize(ctx, t4Problem())
			Expect(err).To(MatchError(ContainSubstring("quota")))
			Expect(result).NotTo(BeNil())
			Expect(result.Succeeded()).To(BeTrue())
		})
	})

	Context("with the sqlite store", func() {
		It("persists results that can be read back", func() {
			st, err := store.Open(filepath.Join(GinkgoT().TempDir(), "results.db"))
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(st.Close)

			svc := NewService(newSolverOptimizer(), WithStore(st))
			result, err := svc.Optimize(ctx, t4Problem())
			Expect(err).NotTo(HaveOccurred())

			stored, err := st.GetResult(ctx, result.ResultID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.ProblemName).To(Equal("service-test"))
			Expect(stored.Allocations).To(HaveLen(1))
			Expect(stored.Allocations[0].ProviderID).To(Equal("gcp"))
		})
	})
})
