package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"

	"github.com/cloudarb/allocation-optimizer/pkg/core"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func completedResult(problem *core.OptimizationProblem, created time.Time) *core.OptimizationResult {
	r := core.NewResult(problem.ID)
	r.CreatedAt = created
	r.Allocations = []*core.AllocationDecision{{
		Option: &core.InstanceOption{
			ProviderID: "gcp", InstanceTypeID: "n1-standard-4", Region: "us-central1",
			GPUType: core.ParseGPUType("T4"), GPUCount: 1, OnDemandPrice: ptr.To(0.19),
		},
		Count:       2,
		PricingMode: core.OnDemand,
		CostPerHour: 0.19,
	}}
	r.TotalCostPerHour = 0.38
	r.ObjectiveValue = 0.38
	r.SolutionQuality = 0.78
	r.Complete(core.SolverOptimal, 15*time.Millisecond)
	return r
}

func TestSQLStore_SaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	problem := core.NewProblem("training")
	result := completedResult(problem, time.Now().UTC())

	require.NoError(t, s.SaveResult(ctx, problem, result))

	got, err := s.GetResult(ctx, result.ResultID)
	require.NoError(t, err)
	assert.Equal(t, problem.ID, got.ProblemID)
	assert.Equal(t, "training", got.ProblemName)
	assert.Equal(t, core.MinimizeCost, got.Objective)
	assert.Equal(t, core.StatusCompleted, got.Status)
	assert.Equal(t, core.SolverOptimal, got.SolverStatus)
	assert.InDelta(t, 0.38, got.TotalCostPerHour, 1e-12)
	assert.InDelta(t, 0.78, got.SolutionQuality, 1e-12)
	require.Len(t, got.Allocations, 1)
	assert.Equal(t, "n1-standard-4", got.Allocations[0].InstanceTypeID)
	assert.Equal(t, 2, got.Allocations[0].Count)
	assert.Equal(t, core.OnDemand, got.Allocations[0].PricingMode)

	// result ids are primary keys
	assert.Error(t, s.SaveResult(ctx, problem, result))
}

func TestSQLStore_GetMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetResult(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLStore_ListResults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	problem := core.NewProblem("batch")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.SaveResult(ctx, problem, completedResult(problem, base.Add(time.Duration(i)*time.Hour))))
	}
	failed := core.NewResult(problem.ID)
	failed.Fail(core.SolverInfeasible, core.CodeInfeasible, fmt.Errorf("no plan"), time.Millisecond)
	require.NoError(t, s.SaveResult(ctx, problem, failed))

	tests := []struct {
		name   string
		status core.Status
		limit  int
		want   int
	}{
		{name: "all", want: 4},
		{name: "completed only", status: core.StatusCompleted, want: 3},
		{name: "failed only", status: core.StatusFailed, want: 1},
		{name: "limited", status: core.StatusCompleted, limit: 2, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListResults(ctx, tt.status, tt.limit)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}

	latest, err := s.ListResults(ctx, core.StatusCompleted, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.True(t, latest[0].CreatedAt.Equal(base.Add(2*time.Hour)))

	failures, err := s.ListResults(ctx, core.StatusFailed, 0)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, core.CodeInfeasible, failures[0].ErrorCode)
	assert.Empty(t, failures[0].Allocations)
}

func TestSQLStore_SaveNil(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.SaveResult(context.Background(), nil, nil))
}

func TestIsLocked(t *testing.T) {
	assert.True(t, isLocked(errors.New("database is locked")))
	assert.True(t, isLocked(fmt.Errorf("insert: %w", errors.New("database table is locked: optimization_results"))))
	assert.False(t, isLocked(errors.New("UNIQUE constraint failed")))
}
