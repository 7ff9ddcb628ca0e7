/*
Copyright 2025 The llm-d Authors

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

package executor

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/cloudarb/allocation-optimizer/internal/logger"
)

// DefaultMaxRetryBackoff caps the delay between retries of a failed cycle.
const DefaultMaxRetryBackoff = 4 * time.Second

// PollingExecutor re-solves a fixed set of problems at a fixed interval.
type PollingExecutor struct {
	config   Config
	interval time.Duration
	retry    wait.Backoff
	cycles   atomic.Int64
}

// PollingConfig holds polling-specific configuration.
type PollingConfig struct {
	Config
	Interval        time.Duration
	RetryBackoff    time.Duration // delay before the first retry
	MaxRetryBackoff time.Duration // DefaultMaxRetryBackoff when zero
}

// NewPollingExecutor creates a new polling executor.
func NewPollingExecutor(config PollingConfig) *PollingExecutor {
	maxBackoff := config.MaxRetryBackoff
	if maxBackoff <= 0 {
		maxBackoff = DefaultMaxRetryBackoff
	}
	return &PollingExecutor{
		config:   config.Config,
		interval: config.Interval,
		retry: wait.Backoff{
			Duration: config.RetryBackoff,
			Factor:   2,
			Steps:    math.MaxInt32,
			Cap:      maxBackoff,
		},
	}
}

// Start runs one cycle per interval until ctx is cancelled.
func (e *PollingExecutor) Start(ctx context.Context) {
	logger.Log.Infow("Starting re-optimization loop", "interval", e.interval, "problems", e.config.ProblemIDs)
	wait.UntilWithContext(ctx, e.runCycle, e.interval)
}

// Cycles returns the number of cycles started so far.
func (e *PollingExecutor) Cycles() int {
	return int(e.cycles.Load())
}

// runCycle solves the problems once, retrying failed attempts with a doubling
// backoff capped at the configured maximum.
func (e *PollingExecutor) runCycle(ctx context.Context) {
	number := int(e.cycles.Add(1))
	backoff := e.retry
	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			logger.Log.Infow("Context cancelled, stopping re-optimization", "cycle", number)
			return
		}

		cycle := Cycle{Number: number, Attempt: attempt, ProblemIDs: e.config.ProblemIDs}
		start := time.Now()
		cycle.Err = e.config.OptimizeFunc(ctx, &cycle)
		cycle.Duration = time.Since(start)
		if e.config.OnCycle != nil {
			e.config.OnCycle(ctx, cycle)
		}
		if cycle.Err == nil {
			logger.Log.Debugw("Optimization cycle completed",
				"cycle", number, "attempt", attempt, "problems", cycle.ProblemIDs,
				"unsolved", cycle.Unsolved, "duration", cycle.Duration)
			return
		}

		delay := backoff.Step()
		logger.Log.Errorw("Optimization cycle failed",
			"cycle", number, "attempt", attempt, "problems", cycle.ProblemIDs,
			"error", cycle.Err, "retryIn", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Log.Infow("Context cancelled during retry delay", "cycle", number)
			return
		case <-timer.C:
		}
	}
}
