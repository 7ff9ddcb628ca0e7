package solver

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/cloudarb/allocation-optimizer/pkg/config"
	"github.com/cloudarb/allocation-optimizer/pkg/core"
)

// Optimizer is the entry point: it owns the optimizer settings and a solver.
type Optimizer struct {
	spec             *config.OptimizerSpec
	solver           *Solver
	solutionTimeMsec int64
	last             *core.OptimizationResult
}

// Create optimizer from spec
func NewOptimizerFromSpec(byteValue []byte) (*Optimizer, error) {
	spec, err := config.ParseOptimizerData(byteValue)
	if err != nil {
		return nil, err
	}
	return NewOptimizer(spec), nil
}

func NewOptimizer(spec *config.OptimizerSpec, opts ...SolverOption) *Optimizer {
	if spec == nil {
		d := config.DefaultOptimizerSpec()
		spec = &d
	}
	return &Optimizer{
		spec:   spec,
		solver: NewSolver(spec, opts...),
	}
}

func (o *Optimizer) Spec() *config.OptimizerSpec {
	return o.spec
}

func (o *Optimizer) Solver() *Solver {
	return o.solver
}

// ProblemFromSpec builds a problem, taking the timeout and workload class
// from the optimizer settings when the spec leaves them out.
func (o *Optimizer) ProblemFromSpec(spec *config.ProblemSpec) *core.OptimizationProblem {
	p := core.NewProblemFromSpec(spec)
	if spec.TimeoutSeconds == nil {
		p.TimeoutSeconds = o.spec.TimeoutSeconds
	}
	if spec.WorkloadClass == "" {
		p.WorkloadClass = core.WorkloadClass(o.spec.DefaultWorkloadClass)
	}
	if spec.MaxIterations == 0 {
		p.MaxIterations = o.spec.MaxIterations
	}
	return p
}

// Optimize solves the problem. It is not safe for concurrent use because it
// records the last solution time; use the Solver directly for that.
func (o *Optimizer) Optimize(ctx context.Context, problem *core.OptimizationProblem) *core.OptimizationResult {
	startTime := time.Now()
	result := o.solver.Solve(ctx, problem)
	o.solutionTimeMsec = time.Since(startTime).Milliseconds()
	o.last = result
	return result
}

func (o *Optimizer) GetSolutionTimeMsec() int64 {
	return o.solutionTimeMsec
}

func (o *Optimizer) String() string {
	var b bytes.Buffer
	if o.last != nil {
		b.WriteString(o.last.String())
	}
	fmt.Fprintf(&b, "Solution time: %d msec\n", o.solutionTimeMsec)
	return b.String()
}
