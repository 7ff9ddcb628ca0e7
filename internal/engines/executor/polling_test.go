package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollingExecutor_RunsEveryInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	var mu sync.Mutex
	var numbers []int
	e := NewPollingExecutor(PollingConfig{
		Config: Config{
			ProblemIDs: []string{"t4-training"},
			OptimizeFunc: func(ctx context.Context, cycle *Cycle) error {
				if calls.Add(1) == 3 {
					cancel()
				}
				return nil
			},
			OnCycle: func(ctx context.Context, cycle Cycle) {
				mu.Lock()
				defer mu.Unlock()
				numbers = append(numbers, cycle.Number)
			},
		},
		Interval: time.Millisecond,
	})

	done := make(chan struct{})
	go func() {
		e.Start(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("executor did not stop after cancellation")
	}
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
	assert.GreaterOrEqual(t, e.Cycles(), 3)

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(numbers), 3)
	assert.Equal(t, []int{1, 2, 3}, numbers[:3])
}

func TestPollingExecutor_RetriesFailedCycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var cycles []Cycle
	e := NewPollingExecutor(PollingConfig{
		Config: Config{
			ProblemIDs: []string{"train", "serve"},
			OptimizeFunc: func(ctx context.Context, cycle *Cycle) error {
				if cycle.Attempt < 3 {
					cycle.Unsolved = 2
					return errors.New("solver busy")
				}
				return nil
			},
			OnCycle: func(ctx context.Context, cycle Cycle) {
				cycles = append(cycles, cycle)
			},
		},
		RetryBackoff:    time.Millisecond,
		MaxRetryBackoff: 2 * time.Millisecond,
	})

	e.runCycle(ctx)

	require.Len(t, cycles, 3)
	for i, c := range cycles {
		assert.Equal(t, 1, c.Number)
		assert.Equal(t, i+1, c.Attempt)
		assert.Equal(t, []string{"train", "serve"}, c.ProblemIDs)
	}
	assert.Error(t, cycles[0].Err)
	assert.Equal(t, 2, cycles[1].Unsolved)
	assert.NoError(t, cycles[2].Err)
	assert.Zero(t, cycles[2].Unsolved)
	assert.Equal(t, 1, e.Cycles())
}

func TestPollingExecutor_RetryBackoffIsCapped(t *testing.T) {
	e := NewPollingExecutor(PollingConfig{
		RetryBackoff:    time.Second,
		MaxRetryBackoff: 3 * time.Second,
	})
	b := e.retry
	var delays []time.Duration
	for range 4 {
		delays = append(delays, b.Step())
	}
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second}, delays)
	assert.Equal(t, time.Second, e.retry.Duration, "each cycle starts from the initial delay")
}

func TestPollingExecutor_StopsRetryingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	e := NewPollingExecutor(PollingConfig{
		Config: Config{OptimizeFunc: func(ctx context.Context, cycle *Cycle) error {
			attempts++
			cancel()
			return errors.New("store locked")
		}},
		RetryBackoff: time.Hour,
	})

	e.runCycle(ctx)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, DefaultMaxRetryBackoff, e.retry.Cap)
}
