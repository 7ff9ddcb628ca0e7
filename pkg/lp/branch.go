package lp

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// BranchAndBound is a depth-first branch-and-bound MILP engine over LP
// relaxations. Nodes are processed by a pool of worker goroutines sharing one
// stack and one incumbent.
type BranchAndBound struct {
	threads int
	tol     float64
	intTol  float64

	model    model
	maximize bool
	hasObj   bool
	solved   bool

	values    []float64
	objective float64
	nodes     int
}

type BranchOption func(*BranchAndBound)

// WithThreads sets the number of worker goroutines; values below 1 use
// the number of CPUs.
func WithThreads(n int) BranchOption {
	return func(b *BranchAndBound) {
		b.threads = n
	}
}

func WithTolerance(tol float64) BranchOption {
	return func(b *BranchAndBound) {
		if tol > 0 {
			b.tol = tol
		}
	}
}

func WithIntegralityTolerance(tol float64) BranchOption {
	return func(b *BranchAndBound) {
		if tol > 0 {
			b.intTol = tol
		}
	}
}

func NewBranchAndBound(opts ...BranchOption) *BranchAndBound {
	b := &BranchAndBound{
		threads: 1,
		tol:     1e-9,
		intTol:  1e-6,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.threads < 1 {
		b.threads = runtime.NumCPU()
	}
	return b
}

func (b *BranchAndBound) NewIntVar(lo, hi float64, name string) Var {
	return b.newVar(lo, hi, true, name)
}

func (b *BranchAndBound) NewVar(lo, hi float64, name string) Var {
	return b.newVar(lo, hi, false, name)
}

func (b *BranchAndBound) newVar(lo, hi float64, integer bool, name string) Var {
	b.model.vars = append(b.model.vars, variable{lo: lo, hi: hi, integer: integer, name: name})
	b.model.obj = append(b.model.obj, 0)
	return Var(len(b.model.vars) - 1)
}

func (b *BranchAndBound) AddConstraint(lo, hi float64, terms []Term, name string) error {
	if math.IsNaN(lo) || math.IsNaN(hi) || lo > hi {
		return fmt.Errorf("%w: constraint %s [%v, %v]", ErrInvalidBounds, name, lo, hi)
	}
	coefs := make(map[int]float64, len(terms))
	for _, t := range terms {
		if int(t.Var) < 0 || int(t.Var) >= len(b.model.vars) {
			return fmt.Errorf("%w: %d in constraint %s", ErrUnknownVar, t.Var, name)
		}
		if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
			return fmt.Errorf("lp: non-finite coefficient for variable %d in constraint %s", t.Var, name)
		}
		coefs[int(t.Var)] += t.Coef
	}
	b.model.rows = append(b.model.rows, row{lo: lo, hi: hi, coefs: coefs, name: name})
	return nil
}

func (b *BranchAndBound) SetObjective(terms []Term) error {
	obj := make([]float64, len(b.model.vars))
	for _, t := range terms {
		if int(t.Var) < 0 || int(t.Var) >= len(b.model.vars) {
			return fmt.Errorf("%w: %d in objective", ErrUnknownVar, t.Var)
		}
		if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
			return fmt.Errorf("lp: non-finite objective coefficient for variable %d", t.Var)
		}
		obj[t.Var] += t.Coef
	}
	b.model.obj = obj
	b.hasObj = true
	return nil
}

func (b *BranchAndBound) Minimize() { b.maximize = false }

func (b *BranchAndBound) Maximize() { b.maximize = true }

func (b *BranchAndBound) Value(v Var) float64 {
	if int(v) < 0 || int(v) >= len(b.values) {
		return 0
	}
	return b.values[v]
}

func (b *BranchAndBound) ObjectiveValue() float64 {
	if b.maximize {
		return -b.objective
	}
	return b.objective
}

func (b *BranchAndBound) Nodes() int { return b.nodes }

func (b *BranchAndBound) NumVars() int { return len(b.model.vars) }

func (b *BranchAndBound) NumConstraints() int { return len(b.model.rows) }

type node struct {
	lo, hi []float64
	depth  int
}

// search state shared by the workers
type search struct {
	m      *model
	tol    float64
	intTol float64

	mu        sync.Mutex
	incumbent []float64
	incObj    float64

	nodes     atomic.Int64
	nodeLimit int64
	limitHit  atomic.Bool
	numeric   atomic.Int64
	unbounded atomic.Bool
}

// Solve runs branch and bound until optimality is proven or a limit is hit.
// The returned error is non-nil only for engine failures.
func (b *BranchAndBound) Solve(ctx context.Context, limits Limits) (Status, error) {
	if b.solved {
		return NotSolved, ErrAlreadySolved
	}
	if !b.hasObj {
		return NotSolved, ErrNoObjective
	}
	b.solved = true

	m := b.model
	if b.maximize {
		m.obj = make([]float64, len(b.model.obj))
		for j, c := range b.model.obj {
			m.obj[j] = -c
		}
	}
	for _, v := range m.vars {
		if math.IsInf(v.lo, -1) || math.IsNaN(v.lo) || math.IsNaN(v.hi) {
			return NotSolved, &SolveError{Op: "solve", Err: fmt.Errorf("%w: variable %s", ErrInvalidBounds, v.name)}
		}
	}

	if limits.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limits.TimeLimit)
		defer cancel()
	}

	s := &search{
		m:         &m,
		tol:       b.tol,
		intTol:    b.intTol,
		incObj:    math.Inf(1),
		nodeLimit: int64(limits.NodeLimit),
	}

	root := &node{lo: make([]float64, len(m.vars)), hi: make([]float64, len(m.vars))}
	for j, v := range m.vars {
		root.lo[j], root.hi[j] = v.lo, v.hi
		if v.integer {
			root.lo[j] = math.Ceil(v.lo - b.intTol)
			if !math.IsInf(v.hi, 1) {
				root.hi[j] = math.Floor(v.hi + b.intTol)
			}
		}
	}

	// the root relaxation decides unboundedness and numeric failure up front
	rootRelax := m.solveRelaxation(root.lo, root.hi, b.tol)
	s.nodes.Add(1)
	switch rootRelax.status {
	case relaxInfeasible:
		b.nodes = 1
		return Infeasible, nil
	case relaxUnbounded:
		b.nodes = 1
		return Unbounded, nil
	case relaxFailed:
		b.nodes = 1
		return NotSolved, &SolveError{Op: "root relaxation", Err: rootRelax.err}
	}

	q := newStack()
	stop := context.AfterFunc(ctx, q.close)
	defer stop()
	q.push(s.expand(root, rootRelax)...)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < b.threads; w++ {
		g.Go(func() error {
			for {
				nd, ok := q.pop()
				if !ok {
					return nil
				}
				if gctx.Err() != nil || s.limitReached() {
					q.done(nil)
					continue
				}
				q.done(s.process(nd))
			}
		})
	}
	if err := g.Wait(); err != nil {
		return NotSolved, &SolveError{Op: "branch and bound", Err: err}
	}

	b.nodes = int(s.nodes.Load())
	interrupted := ctx.Err() != nil || s.limitHit.Load()
	if s.unbounded.Load() {
		return Unbounded, nil
	}
	if s.incumbent == nil {
		if interrupted {
			return LimitReached, nil
		}
		if s.numeric.Load() > 0 {
			return NotSolved, &SolveError{Op: "branch and bound", Err: ErrNumericFailure}
		}
		return Infeasible, nil
	}
	b.values = s.incumbent
	b.objective = s.incObj
	if interrupted || s.numeric.Load() > 0 {
		return Feasible, nil
	}
	return Optimal, nil
}

func (s *search) limitReached() bool {
	if s.nodeLimit > 0 && s.nodes.Load() >= s.nodeLimit {
		s.limitHit.Store(true)
		return true
	}
	return false
}

// process solves the relaxation of a node and returns its children.
func (s *search) process(nd *node) []*node {
	s.nodes.Add(1)
	r := s.m.solveRelaxation(nd.lo, nd.hi, s.tol)
	switch r.status {
	case relaxInfeasible:
		return nil
	case relaxUnbounded:
		s.unbounded.Store(true)
		return nil
	case relaxFailed:
		s.numeric.Add(1)
		return nil
	}
	return s.expand(nd, r)
}

// expand prunes by bound, records integral solutions and branches on the most
// fractional integer variable.
func (s *search) expand(nd *node, r relaxation) []*node {
	if s.pruned(r.obj) {
		return nil
	}
	branch := -1
	bestFrac := 0.0
	for j, v := range s.m.vars {
		if !v.integer {
			continue
		}
		f := r.x[j] - math.Floor(r.x[j])
		dist := math.Min(f, 1-f)
		if dist <= s.intTol {
			continue
		}
		if dist > bestFrac+1e-12 {
			branch, bestFrac = j, dist
		}
	}
	if branch < 0 {
		s.offer(r.x)
		return nil
	}

	down := &node{lo: clone(nd.lo), hi: clone(nd.hi), depth: nd.depth + 1}
	down.hi[branch] = math.Floor(r.x[branch])
	up := &node{lo: clone(nd.lo), hi: clone(nd.hi), depth: nd.depth + 1}
	up.lo[branch] = math.Ceil(r.x[branch])
	// down is pushed last so it is explored first
	return []*node{up, down}
}

func (s *search) pruned(bound float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.incumbent == nil {
		return false
	}
	return bound >= s.incObj-s.gap(s.incObj)
}

func (s *search) gap(obj float64) float64 {
	return 1e-9 * (1 + math.Abs(obj))
}

// offer rounds an integral relaxation solution and keeps it when it improves
// the incumbent. Equal objectives keep the lexicographically smaller vector.
func (s *search) offer(x []float64) {
	sol := clone(x)
	for j, v := range s.m.vars {
		if v.integer {
			sol[j] = math.Round(sol[j])
		}
	}
	if !s.m.feasible(sol, math.Max(s.tol, 1e-7)) {
		return
	}
	obj := 0.0
	for j, c := range s.m.obj {
		obj += c * sol[j]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	gap := s.gap(obj)
	switch {
	case s.incumbent == nil, obj < s.incObj-gap:
	case math.Abs(obj-s.incObj) <= gap && lexLess(sol, s.incumbent):
	default:
		return
	}
	s.incumbent = sol
	s.incObj = obj
}

func lexLess(a, b []float64) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func clone(x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	return out
}
