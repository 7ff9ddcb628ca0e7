package solver

import (
	"fmt"
	"math"

	"github.com/cloudarb/allocation-optimizer/internal/logger"
	"github.com/cloudarb/allocation-optimizer/pkg/config"
	"github.com/cloudarb/allocation-optimizer/pkg/core"
	"github.com/cloudarb/allocation-optimizer/pkg/cost"
	"github.com/cloudarb/allocation-optimizer/pkg/lp"
	"github.com/cloudarb/allocation-optimizer/pkg/performance"
	"github.com/cloudarb/allocation-optimizer/pkg/risk"
)

// Variable is the decision variable of one (instance option, pricing mode)
// pair together with the coefficients derived for it.
type Variable struct {
	Option       *core.InstanceOption
	Mode         core.PricingMode
	Var          lp.Var
	Price        float64 // $/hr
	Performance  float64 // 0-100
	Risk         float64 // 0-1
	Availability float64 // 0-1
}

func (v *Variable) Name() string {
	return fmt.Sprintf("x_%s_%s", v.Option.Key(), v.Mode)
}

// ElasticVar absorbs the violation of a soft constraint.
type ElasticVar struct {
	Constraint *core.OptimizationConstraint
	Var        lp.Var
}

// Model is a problem translated into an engine.
type Model struct {
	Engine  lp.Engine
	Vars    []*Variable
	Elastic []*ElasticVar
	Class   core.WorkloadClass
}

// ModelBuilder translates optimization problems into MILP models.
type ModelBuilder struct {
	spec *config.OptimizerSpec
	cost *cost.Calculator
	perf *performance.Analyzer
	risk *risk.Manager
}

func NewModelBuilder(spec *config.OptimizerSpec, calc *cost.Calculator, perf *performance.Analyzer,
	riskMgr *risk.Manager) *ModelBuilder {
	if spec == nil {
		d := config.DefaultOptimizerSpec()
		spec = &d
	}
	return &ModelBuilder{spec: spec, cost: calc, perf: perf, risk: riskMgr}
}

// WorkloadClass resolves the class a problem is scored for.
func (b *ModelBuilder) WorkloadClass(problem *core.OptimizationProblem) core.WorkloadClass {
	if problem.WorkloadClass != "" {
		return problem.WorkloadClass
	}
	return core.WorkloadClass(b.spec.DefaultWorkloadClass)
}

// Build validates the problem and fills the engine with its variables, rows
// and objective. Validation failures are returned as core.ValidationError
// before anything is added to the engine.
func (b *ModelBuilder) Build(problem *core.OptimizationProblem, engine lp.Engine) (*Model, error) {
	if err := b.Validate(problem); err != nil {
		return nil, err
	}

	m := &Model{Engine: engine, Class: b.WorkloadClass(problem)}
	b.addVariables(problem, m)

	total := problem.TotalRequirements()
	if err := b.addResourceRows(m, total); err != nil {
		return nil, err
	}
	if err := b.addRiskRow(m, problem.RiskTolerance); err != nil {
		return nil, err
	}
	if err := b.addConstraintRows(problem, m); err != nil {
		return nil, err
	}
	if err := b.setObjective(problem, m); err != nil {
		return nil, err
	}

	logger.Log.Debugw("model built",
		"problem", problem.ID,
		"variables", engine.NumVars(),
		"constraints", engine.NumConstraints(),
		"elastic", len(m.Elastic))
	return m, nil
}

// Validate runs the pre-solve checks: problem invariants, GPU supply and
// operators that cannot be expressed linearly.
func (b *ModelBuilder) Validate(problem *core.OptimizationProblem) error {
	if problem == nil {
		return core.NewValidationError("problem", "nil problem")
	}
	if err := problem.Validate(); err != nil {
		return err
	}
	if err := problem.ValidateSupply(b.buyable); err != nil {
		return err
	}
	for _, c := range problem.Constraints {
		if c.Operator == core.NotEqual && (c.Type == core.CustomConstraint || c.Type == core.RiskConstraint) {
			return core.NewValidationError("constraints."+c.Name, "operator != cannot be expressed as a linear row")
		}
	}
	return nil
}

// buyable reports whether the option has a price in at least one enabled mode.
func (b *ModelBuilder) buyable(option *core.InstanceOption) bool {
	for _, mode := range option.Modes() {
		if b.modeEnabled(mode) {
			return true
		}
	}
	return false
}

func (b *ModelBuilder) modeEnabled(mode core.PricingMode) bool {
	switch {
	case mode == core.Spot:
		return b.spec.SpotEnabled()
	case mode.IsReserved():
		return b.spec.ReservedEnabled()
	}
	return true
}

func (b *ModelBuilder) addVariables(problem *core.OptimizationProblem, m *Model) {
	for _, option := range problem.Options {
		for _, mode := range option.Modes() {
			if !b.modeEnabled(mode) {
				continue
			}
			price, _ := option.Price(mode)
			v := &Variable{
				Option:       option,
				Mode:         mode,
				Price:        price,
				Performance:  b.perf.EffectiveScore(option, m.Class),
				Risk:         b.risk.InstanceRisk(option, mode),
				Availability: b.risk.Availability(option, mode),
			}
			v.Var = m.Engine.NewIntVar(0, math.Inf(1), v.Name())
			m.Vars = append(m.Vars, v)
		}
	}
}

func (b *ModelBuilder) addResourceRows(m *Model, total *core.ResourceRequirement) error {
	for _, g := range total.GPURequirements {
		var all, floored []lp.Term
		for _, v := range m.Vars {
			if v.Option.GPUType != g.GPUType || v.Option.GPUCount == 0 {
				continue
			}
			term := lp.Term{Var: v.Var, Coef: float64(v.Option.GPUCount)}
			all = append(all, term)
			if g.MinMemoryGB == 0 || v.Option.GPUMemoryGB >= g.MinMemoryGB {
				floored = append(floored, term)
			}
		}
		name := "gpu_" + string(g.GPUType)
		if len(floored) == len(all) {
			if err := m.Engine.AddConstraint(float64(g.MinCount), float64(g.MaxCount), all, name); err != nil {
				return fmt.Errorf("failed to add %s row: %w", name, err)
			}
			continue
		}
		// Only GPUs meeting the memory floor serve the minimum, but every GPU
		// of the type counts toward the maximum.
		if err := m.Engine.AddConstraint(float64(g.MinCount), math.Inf(1), floored, name); err != nil {
			return fmt.Errorf("failed to add %s row: %w", name, err)
		}
		if err := m.Engine.AddConstraint(0, float64(g.MaxCount), all, name+"_max"); err != nil {
			return fmt.Errorf("failed to add %s_max row: %w", name, err)
		}
	}

	cpu := make([]lp.Term, 0, len(m.Vars))
	mem := make([]lp.Term, 0, len(m.Vars))
	for _, v := range m.Vars {
		cpu = append(cpu, lp.Term{Var: v.Var, Coef: float64(v.Option.CPUCores)})
		mem = append(mem, lp.Term{Var: v.Var, Coef: v.Option.MemoryGB})
	}
	if err := m.Engine.AddConstraint(float64(total.CPUCores), math.Inf(1), cpu, "cpu"); err != nil {
		return fmt.Errorf("failed to add cpu row: %w", err)
	}
	if err := m.Engine.AddConstraint(total.MemoryGB, math.Inf(1), mem, "memory"); err != nil {
		return fmt.Errorf("failed to add memory row: %w", err)
	}
	return nil
}

// addRiskRow bounds the count weighted mean instance risk by the tolerance,
// or the summed risk in sum mode.
func (b *ModelBuilder) addRiskRow(m *Model, tolerance float64) error {
	terms := make([]lp.Term, 0, len(m.Vars))
	var err error
	switch b.spec.RiskConstraintMode {
	case config.RiskConstraintSum:
		for _, v := range m.Vars {
			terms = append(terms, lp.Term{Var: v.Var, Coef: v.Risk})
		}
		err = m.Engine.AddConstraint(0, tolerance, terms, "risk_tolerance")
	default:
		for _, v := range m.Vars {
			terms = append(terms, lp.Term{Var: v.Var, Coef: v.Risk - tolerance})
		}
		err = m.Engine.AddConstraint(math.Inf(-1), 0, terms, "risk_tolerance")
	}
	if err != nil {
		return fmt.Errorf("failed to add risk row: %w", err)
	}
	return nil
}

func (b *ModelBuilder) addConstraintRows(problem *core.OptimizationProblem, m *Model) error {
	if cs := problem.ConstraintsOfType(core.BudgetConstraint); len(cs) > 0 {
		c := cs[0]
		terms := b.terms(m, func(v *Variable) float64 { return v.Price })
		if err := b.addUserRow(m, c, 0, c.Value, terms); err != nil {
			return err
		}
	}
	if cs := problem.ConstraintsOfType(core.PerformanceConstraint); len(cs) > 0 {
		c := cs[0]
		terms := b.terms(m, func(v *Variable) float64 { return v.Performance })
		if err := b.addUserRow(m, c, c.Value, math.Inf(1), terms); err != nil {
			return err
		}
	}
	if cs := problem.ConstraintsOfType(core.AvailabilityConstraint); len(cs) > 0 {
		c := cs[0]
		terms := b.terms(m, func(v *Variable) float64 { return v.Availability - c.Value })
		if err := b.addUserRow(m, c, 0, math.Inf(1), terms); err != nil {
			return err
		}
	}
	for _, c := range problem.ConstraintsOfType(core.RiskConstraint) {
		terms := b.terms(m, func(v *Variable) float64 { return v.Risk - c.Value })
		lo, hi := bounds(c.Operator, 0)
		if err := b.addUserRow(m, c, lo, hi, terms); err != nil {
			return err
		}
	}
	for _, c := range problem.ConstraintsOfType(core.ProviderLimitConstraint) {
		provider := core.ProviderKey(c.Name)
		terms := b.terms(m, func(v *Variable) float64 {
			if core.ProviderKey(v.Option.ProviderName) == provider || core.ProviderKey(v.Option.ProviderID) == provider {
				return 1
			}
			return 0
		})
		if err := b.addUserRow(m, c, 0, c.Value, terms); err != nil {
			return err
		}
	}
	for _, c := range problem.ConstraintsOfType(core.CustomConstraint) {
		terms := b.terms(m, func(*Variable) float64 { return 1 })
		lo, hi := bounds(c.Operator, c.Value)
		if err := b.addUserRow(m, c, lo, hi, terms); err != nil {
			return err
		}
	}
	return nil
}

func bounds(op core.Operator, value float64) (float64, float64) {
	switch op {
	case core.GreaterEqual:
		return value, math.Inf(1)
	case core.Equal:
		return value, value
	default:
		return math.Inf(-1), value
	}
}

func (b *ModelBuilder) terms(m *Model, coef func(*Variable) float64) []lp.Term {
	terms := make([]lp.Term, 0, len(m.Vars))
	for _, v := range m.Vars {
		if c := coef(v); c != 0 {
			terms = append(terms, lp.Term{Var: v.Var, Coef: c})
		}
	}
	return terms
}

// addUserRow adds a row for a problem constraint. A soft constraint gets an
// elastic variable that relaxes each finite side of the row.
func (b *ModelBuilder) addUserRow(m *Model, c *core.OptimizationConstraint, lo, hi float64, terms []lp.Term) error {
	name := fmt.Sprintf("%s_%s", c.Type, c.Name)
	if c.IsHard {
		if err := m.Engine.AddConstraint(lo, hi, terms, name); err != nil {
			return fmt.Errorf("failed to add %s row: %w", name, err)
		}
		return nil
	}

	e := m.Engine.NewVar(0, math.Inf(1), "elastic_"+name)
	m.Elastic = append(m.Elastic, &ElasticVar{Constraint: c, Var: e})
	if !math.IsInf(hi, 1) {
		upper := append(append([]lp.Term{}, terms...), lp.Term{Var: e, Coef: -1})
		if err := m.Engine.AddConstraint(math.Inf(-1), hi, upper, name+"_upper"); err != nil {
			return fmt.Errorf("failed to add %s row: %w", name, err)
		}
	}
	if !math.IsInf(lo, -1) {
		lower := append(append([]lp.Term{}, terms...), lp.Term{Var: e, Coef: 1})
		if err := m.Engine.AddConstraint(lo, math.Inf(1), lower, name+"_lower"); err != nil {
			return fmt.Errorf("failed to add %s row: %w", name, err)
		}
	}
	return nil
}

// Coefficient is the objective coefficient of a variable for an objective.
func (b *ModelBuilder) Coefficient(objective core.Objective, v *Variable) float64 {
	switch objective {
	case core.MaximizePerformance:
		return -v.Performance
	case core.BalanceCostPerformance:
		return b.spec.CostWeight*(v.Price/b.spec.CostNormalizer) +
			b.spec.PerformanceWeight*((100-v.Performance)/100)
	case core.MinimizeRisk:
		return v.Risk
	case core.MaximizeAvailability:
		return 1 - v.Availability
	default:
		return v.Price
	}
}

func (b *ModelBuilder) setObjective(problem *core.OptimizationProblem, m *Model) error {
	terms := make([]lp.Term, 0, len(m.Vars)+len(m.Elastic))
	for _, v := range m.Vars {
		terms = append(terms, lp.Term{Var: v.Var, Coef: b.Coefficient(problem.Objective, v)})
	}
	for _, e := range m.Elastic {
		terms = append(terms, lp.Term{Var: e.Var, Coef: e.Constraint.Weight})
	}
	if err := m.Engine.SetObjective(terms); err != nil {
		return fmt.Errorf("failed to set objective: %w", err)
	}
	m.Engine.Minimize()
	return nil
}
