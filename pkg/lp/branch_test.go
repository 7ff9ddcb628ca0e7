package lp

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var inf = math.Inf(1)

// knapsack: maximize 5a + 4b + 3c subject to 2a + 3b + c <= 5, 4a + b + 2c <= 11,
// 3a + 4b + 2c <= 8, binaries. The relaxation is fractional (b=2/3, c=1) and the
// integer optimum is a=1, b=1, c=0.
func knapsack(e Engine) []Var {
	a := e.NewIntVar(0, 1, "a")
	b := e.NewIntVar(0, 1, "b")
	c := e.NewIntVar(0, 1, "c")
	_ = e.AddConstraint(math.Inf(-1), 5, []Term{{a, 2}, {b, 3}, {c, 1}}, "r1")
	_ = e.AddConstraint(math.Inf(-1), 11, []Term{{a, 4}, {b, 1}, {c, 2}}, "r2")
	_ = e.AddConstraint(math.Inf(-1), 8, []Term{{a, 3}, {b, 4}, {c, 2}}, "r3")
	_ = e.SetObjective([]Term{{a, 5}, {b, 4}, {c, 3}})
	e.Maximize()
	return []Var{a, b, c}
}

func TestBranchAndBound_Knapsack(t *testing.T) {
	for _, threads := range []int{1, 4} {
		e := NewBranchAndBound(WithThreads(threads))
		vars := knapsack(e)
		status, err := e.Solve(context.Background(), Limits{})
		require.NoError(t, err)
		assert.Equal(t, Optimal, status, "threads=%d", threads)
		assert.InDelta(t, 9, e.ObjectiveValue(), 1e-9)
		assert.InDelta(t, 1, e.Value(vars[0]), 1e-9)
		assert.InDelta(t, 1, e.Value(vars[1]), 1e-9)
		assert.InDelta(t, 0, e.Value(vars[2]), 1e-9)
		assert.GreaterOrEqual(t, e.Nodes(), 1)
	}
}

func TestBranchAndBound_IntegerRounding(t *testing.T) {
	// min x + y, 2x + 2y >= 3: relaxation gives 1.5, integers give 2
	e := NewBranchAndBound()
	x := e.NewIntVar(0, inf, "x")
	y := e.NewIntVar(0, inf, "y")
	require.NoError(t, e.AddConstraint(3, inf, []Term{{x, 2}, {y, 2}}, "cover"))
	require.NoError(t, e.SetObjective([]Term{{x, 1}, {y, 1}}))
	e.Minimize()

	status, err := e.Solve(context.Background(), Limits{})
	require.NoError(t, err)
	assert.Equal(t, Optimal, status)
	assert.InDelta(t, 2, e.ObjectiveValue(), 1e-9)
	assert.InDelta(t, 2, e.Value(x)+e.Value(y), 1e-9)
	assert.Equal(t, math.Round(e.Value(x)), e.Value(x))
}

func TestBranchAndBound_RepeatedSolvesAgree(t *testing.T) {
	// x + y == 1 with equal costs: both unit vectors are optimal
	var first []float64
	for i := 0; i < 5; i++ {
		e := NewBranchAndBound(WithThreads(2))
		x := e.NewIntVar(0, inf, "x")
		y := e.NewIntVar(0, inf, "y")
		require.NoError(t, e.AddConstraint(1, 1, []Term{{x, 1}, {y, 1}}, "one"))
		require.NoError(t, e.SetObjective([]Term{{x, 1}, {y, 1}}))
		status, err := e.Solve(context.Background(), Limits{})
		require.NoError(t, err)
		require.Equal(t, Optimal, status)
		assert.InDelta(t, 1, e.ObjectiveValue(), 1e-9)
		got := []float64{e.Value(x), e.Value(y)}
		if first == nil {
			first = got
		}
		assert.Equal(t, first, got)
	}
}

func TestLexLess(t *testing.T) {
	assert.True(t, lexLess([]float64{0, 1}, []float64{1, 0}))
	assert.False(t, lexLess([]float64{1, 0}, []float64{0, 1}))
	assert.False(t, lexLess([]float64{1, 1}, []float64{1, 1}))
}

func TestBranchAndBound_Statuses(t *testing.T) {
	tests := []struct {
		name  string
		build func(e *BranchAndBound)
		want  Status
	}{
		{
			name: "infeasible row",
			build: func(e *BranchAndBound) {
				x := e.NewIntVar(0, inf, "x")
				_ = e.AddConstraint(math.Inf(-1), -1, []Term{{x, 1}}, "neg")
				_ = e.SetObjective([]Term{{x, 1}})
			},
			want: Infeasible,
		},
		{
			name: "infeasible only for integers",
			build: func(e *BranchAndBound) {
				x := e.NewIntVar(0, inf, "x")
				_ = e.AddConstraint(0.2, 0.8, []Term{{x, 1}}, "gap")
				_ = e.SetObjective([]Term{{x, 1}})
			},
			want: Infeasible,
		},
		{
			name: "unbounded",
			build: func(e *BranchAndBound) {
				x := e.NewIntVar(0, inf, "x")
				y := e.NewIntVar(0, inf, "y")
				_ = e.AddConstraint(1, inf, []Term{{x, 1}, {y, 1}}, "floor")
				_ = e.SetObjective([]Term{{x, 1}})
				e.Maximize()
			},
			want: Unbounded,
		},
		{
			name: "unbounded free column",
			build: func(e *BranchAndBound) {
				x := e.NewVar(0, inf, "x")
				_ = e.SetObjective([]Term{{x, -1}})
			},
			want: Unbounded,
		},
		{
			name: "bounded by variable bounds only",
			build: func(e *BranchAndBound) {
				x := e.NewIntVar(0, 3, "x")
				_ = e.SetObjective([]Term{{x, 1}})
				e.Maximize()
			},
			want: Optimal,
		},
		{
			name: "empty row satisfied",
			build: func(e *BranchAndBound) {
				x := e.NewIntVar(0, inf, "x")
				_ = e.AddConstraint(0, 5, nil, "empty")
				_ = e.SetObjective([]Term{{x, 1}})
			},
			want: Optimal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewBranchAndBound()
			tt.build(e)
			status, err := e.Solve(context.Background(), Limits{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestBranchAndBound_NodeLimit(t *testing.T) {
	e := NewBranchAndBound()
	knapsack(e)
	status, err := e.Solve(context.Background(), Limits{NodeLimit: 1})
	require.NoError(t, err)
	assert.Equal(t, LimitReached, status)
	assert.False(t, status.HasSolution())
}

func TestBranchAndBound_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := NewBranchAndBound(WithThreads(3))
	knapsack(e)
	status, err := e.Solve(ctx, Limits{TimeLimit: time.Second})
	require.NoError(t, err)
	assert.Equal(t, LimitReached, status)
}

func TestBranchAndBound_Errors(t *testing.T) {
	e := NewBranchAndBound()
	x := e.NewIntVar(0, inf, "x")

	err := e.AddConstraint(2, 1, []Term{{x, 1}}, "inverted")
	assert.True(t, errors.Is(err, ErrInvalidBounds))
	err = e.AddConstraint(0, 1, []Term{{Var(5), 1}}, "unknown")
	assert.True(t, errors.Is(err, ErrUnknownVar))
	err = e.SetObjective([]Term{{Var(-1), 1}})
	assert.True(t, errors.Is(err, ErrUnknownVar))

	_, err = e.Solve(context.Background(), Limits{})
	assert.True(t, errors.Is(err, ErrNoObjective))

	require.NoError(t, e.SetObjective([]Term{{x, 1}}))
	_, err = e.Solve(context.Background(), Limits{})
	require.NoError(t, err)
	_, err = e.Solve(context.Background(), Limits{})
	assert.True(t, errors.Is(err, ErrAlreadySolved))
}

func TestBranchAndBound_ContinuousAndShiftedBounds(t *testing.T) {
	// min 3x + y with x integer in [2, 10], y continuous >= 0.5, x + y >= 4.25
	e := NewBranchAndBound()
	x := e.NewIntVar(2, 10, "x")
	y := e.NewVar(0.5, inf, "y")
	require.NoError(t, e.AddConstraint(4.25, inf, []Term{{x, 1}, {y, 1}}, "sum"))
	require.NoError(t, e.SetObjective([]Term{{x, 3}, {y, 1}}))
	status, err := e.Solve(context.Background(), Limits{})
	require.NoError(t, err)
	assert.Equal(t, Optimal, status)
	assert.InDelta(t, 2, e.Value(x), 1e-9)
	assert.InDelta(t, 2.25, e.Value(y), 1e-7)
	assert.InDelta(t, 8.25, e.ObjectiveValue(), 1e-7)
	assert.Equal(t, 2, e.NumVars())
	assert.Equal(t, 1, e.NumConstraints())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "OPTIMAL", Optimal.String())
	assert.Equal(t, "LIMIT_REACHED", LimitReached.String())
	assert.Equal(t, "UNKNOWN", Status(42).String())
	assert.True(t, Feasible.HasSolution())
	assert.False(t, Infeasible.HasSolution())
}
