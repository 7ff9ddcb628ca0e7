package solver

import (
	"context"
	"testing"

	"k8s.io/utils/ptr"

	"github.com/cloudarb/allocation-optimizer/pkg/config"
	"github.com/cloudarb/allocation-optimizer/pkg/core"
	"github.com/cloudarb/allocation-optimizer/pkg/lp"
)

func awsT4() *core.InstanceOption {
	return &core.InstanceOption{
		ProviderID:       "aws",
		ProviderName:     "AWS",
		InstanceTypeID:   "g4dn.xlarge",
		InstanceTypeName: "g4dn.xlarge",
		Region:           "us-east-1",
		CPUCores:         4,
		MemoryGB:         16,
		GPUCount:         1,
		GPUType:          core.ParseGPUType("T4"),
		GPUMemoryGB:      16,
		StorageGB:        125,
		OnDemandPrice:    ptr.To(0.526),
	}
}

func gcpT4() *core.InstanceOption {
	return &core.InstanceOption{
		ProviderID:       "gcp",
		ProviderName:     "GCP",
		InstanceTypeID:   "n1-standard-4",
		InstanceTypeName: "n1-standard-4",
		Region:           "us-central1",
		CPUCores:         4,
		MemoryGB:         15,
		GPUCount:         1,
		GPUType:          core.ParseGPUType("T4"),
		GPUMemoryGB:      16,
		OnDemandPrice:    ptr.To(0.19),
	}
}

func t4Requirement(min, max int) *core.ResourceRequirement {
	return &core.ResourceRequirement{
		CPUCores: 4,
		MemoryGB: 15,
		GPURequirements: []*core.GPURequirement{
			{GPUType: core.ParseGPUType("T4"), MinCount: min, MaxCount: max, Priority: 1},
		},
	}
}

// t4Problem is the two option T4 catalog with a single T4 demand.
func t4Problem() *core.OptimizationProblem {
	p := core.NewProblem("t4-training")
	p.Options = []*core.InstanceOption{awsT4(), gcpT4()}
	p.Requirements = []*core.ResourceRequirement{t4Requirement(1, 1)}
	return p
}

func testSpec() *config.OptimizerSpec {
	spec := config.DefaultOptimizerSpec()
	spec.Threads = 1
	return &spec
}

func newTestSolver(opts ...SolverOption) *Solver {
	return NewSolver(testSpec(), opts...)
}

func solve(t *testing.T, p *core.OptimizationProblem) *core.OptimizationResult {
	t.Helper()
	return newTestSolver().Solve(context.Background(), p)
}

// fakeEngine records the model and returns a scripted outcome.
type fakeEngine struct {
	status lp.Status
	err    error
	panics bool
	values map[lp.Var]float64
	obj    float64

	vars     []string
	rows     int
	rowNames []string
}

func (f *fakeEngine) NewIntVar(lo, hi float64, name string) lp.Var {
	f.vars = append(f.vars, name)
	return lp.Var(len(f.vars) - 1)
}

func (f *fakeEngine) NewVar(lo, hi float64, name string) lp.Var {
	return f.NewIntVar(lo, hi, name)
}

func (f *fakeEngine) AddConstraint(lo, hi float64, terms []lp.Term, name string) error {
	f.rows++
	f.rowNames = append(f.rowNames, name)
	return nil
}

func (f *fakeEngine) SetObjective(terms []lp.Term) error { return nil }
func (f *fakeEngine) Minimize()                          {}
func (f *fakeEngine) Maximize()                          {}

func (f *fakeEngine) Solve(ctx context.Context, limits lp.Limits) (lp.Status, error) {
	if f.panics {
		panic("engine exploded")
	}
	return f.status, f.err
}

func (f *fakeEngine) Value(v lp.Var) float64  { return f.values[v] }
func (f *fakeEngine) ObjectiveValue() float64 { return f.obj }
func (f *fakeEngine) Nodes() int              { return 7 }
func (f *fakeEngine) NumVars() int            { return len(f.vars) }
func (f *fakeEngine) NumConstraints() int     { return f.rows }

func fakeFactory(f *fakeEngine) lp.Factory {
	return func() lp.Engine { return f }
}
