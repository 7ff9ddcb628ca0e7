package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/cloudarb/allocation-optimizer/internal/logger"
	"github.com/cloudarb/allocation-optimizer/pkg/config"
)

// Backoff for result store writes contending for the sqlite lock
var StoreBackoff = wait.Backoff{
	Duration: 50 * time.Millisecond,
	Factor:   2.0,
	Jitter:   0.1,
	Steps:    6, // 50ms, 100ms, 200ms, 400ms, 800ms = ~1.5s total
}

// RetryWithBackoff runs op until it succeeds, fails with an error that
// retryable rejects, or the backoff steps are exhausted. On exhaustion the
// last error of op is returned.
func RetryWithBackoff(ctx context.Context, backoff wait.Backoff, operation string, op func(ctx context.Context) error, retryable func(error) bool) error {
	var lastErr error
	err := wait.ExponentialBackoffWithContext(ctx, backoff, func(ctx context.Context) (bool, error) {
		lastErr = op(ctx)
		if lastErr == nil {
			return true, nil
		}
		if retryable != nil && !retryable(lastErr) {
			return false, lastErr // Don't retry on permanent errors
		}
		logger.Log.Warnw("transient error, retrying", "operation", operation, "error", lastErr)
		return false, nil
	})
	if err != nil && lastErr != nil {
		return lastErr
	}
	return err
}

// LoadOptimizerSpec reads optimizer settings from a YAML or JSON file. An
// empty path yields the defaults.
func LoadOptimizerSpec(path string) (*config.OptimizerSpec, error) {
	if path == "" {
		spec := config.DefaultOptimizerSpec()
		return &spec, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read optimizer config %s: %w", path, err)
	}
	return config.ParseOptimizerData(data)
}

// LoadProblemSpec reads a problem from a YAML or JSON file.
func LoadProblemSpec(path string) (*config.ProblemSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read problem %s: %w", path, err)
	}
	return config.ParseProblemData(data)
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
