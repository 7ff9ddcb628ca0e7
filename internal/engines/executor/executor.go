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
	"time"
)

// Executor defines how optimization cycles are executed.
type Executor interface {
	// Start begins execution and blocks until context is cancelled.
	Start(ctx context.Context)
}

// Cycle describes one attempt at re-solving the configured problems.
type Cycle struct {
	Number     int      // scheduled cycle, starting at 1
	Attempt    int      // 1 for the first try of a cycle
	ProblemIDs []string // problems solved by the cycle
	Unsolved   int      // problems left without a successful result
	Duration   time.Duration
	Err        error
}

// OptimizeFunc solves the cycle's problems once. It may record how many
// problems stayed unsolved on the cycle.
type OptimizeFunc func(ctx context.Context, cycle *Cycle) error

// Config holds common executor configuration.
type Config struct {
	OptimizeFunc OptimizeFunc
	ProblemIDs   []string
	// OnCycle, if set, observes every finished attempt.
	OnCycle func(ctx context.Context, cycle Cycle)
}
