// Package lp provides the mixed integer linear programming engine used by the
// model builder. The Engine interface is the only contract the rest of the
// module relies on; BranchAndBound is the default implementation.
package lp

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Var is a handle to a decision variable of one engine.
type Var int

// Term is a coefficient applied to a variable in a linear expression.
type Term struct {
	Var  Var
	Coef float64
}

type Status int

const (
	NotSolved Status = iota
	Optimal
	Feasible // a limit was reached with an incumbent
	Infeasible
	Unbounded
	LimitReached // a limit was reached without an incumbent
)

func (s Status) String() string {
	switch s {
	case NotSolved:
		return "NOT_SOLVED"
	case Optimal:
		return "OPTIMAL"
	case Feasible:
		return "FEASIBLE"
	case Infeasible:
		return "INFEASIBLE"
	case Unbounded:
		return "UNBOUNDED"
	case LimitReached:
		return "LIMIT_REACHED"
	default:
		return "UNKNOWN"
	}
}

// HasSolution reports whether variable values are available.
func (s Status) HasSolution() bool {
	return s == Optimal || s == Feasible
}

// Limits bound the work of one solve. Zero values mean no limit.
type Limits struct {
	TimeLimit time.Duration
	NodeLimit int
}

var (
	ErrNoObjective    = errors.New("lp: objective not set")
	ErrUnknownVar     = errors.New("lp: unknown variable")
	ErrInvalidBounds  = errors.New("lp: invalid bounds")
	ErrAlreadySolved  = errors.New("lp: engine already solved")
	ErrNumericFailure = errors.New("lp: numeric failure in relaxation")
)

// Engine is a MILP backend. An engine instance holds one model and must not
// be shared across concurrent solves.
type Engine interface {
	NewIntVar(lo, hi float64, name string) Var
	NewVar(lo, hi float64, name string) Var
	AddConstraint(lo, hi float64, terms []Term, name string) error
	SetObjective(terms []Term) error
	Minimize()
	Maximize()
	Solve(ctx context.Context, limits Limits) (Status, error)
	Value(v Var) float64
	ObjectiveValue() float64
	Nodes() int
	NumVars() int
	NumConstraints() int
}

// Factory creates a fresh engine for each solve.
type Factory func() Engine

// NewFactory returns a factory of branch-and-bound engines with the given
// worker count and tolerances.
func NewFactory(threads int, tol, intTol float64) Factory {
	return func() Engine {
		return NewBranchAndBound(WithThreads(threads), WithTolerance(tol), WithIntegralityTolerance(intTol))
	}
}

// SolveError wraps a failure of the engine itself, as opposed to a model
// outcome such as infeasibility.
type SolveError struct {
	Op  string
	Err error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("lp: %s: %v", e.Op, e.Err)
}

func (e *SolveError) Unwrap() error {
	return e.Err
}
