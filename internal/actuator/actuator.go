package actuator

import (
	"context"
	"fmt"

	"github.com/cloudarb/allocation-optimizer/internal/interfaces"
	"github.com/cloudarb/allocation-optimizer/internal/logger"
	"github.com/cloudarb/allocation-optimizer/pkg/core"
)

// Actuator hands completed plans to provisioning. Provisioning itself lives
// outside this repository, so the actuator validates the plan and logs the
// instances it would request.
type Actuator struct {
	// Applied collects the ids of executed results.
	Applied []string
}

var _ interfaces.AllocationExecutor = (*Actuator)(nil)

func NewActuator() *Actuator {
	return &Actuator{}
}

func (a *Actuator) Execute(ctx context.Context, result *core.OptimizationResult) error {
	if result == nil || !result.Succeeded() {
		return fmt.Errorf("refusing to execute a result that did not complete")
	}
	for _, alloc := range result.Allocations {
		if err := alloc.Validate(); err != nil {
			return fmt.Errorf("invalid allocation in result %s: %w", result.ResultID, err)
		}
		if alloc.Option == nil {
			return fmt.Errorf("allocation without instance option in result %s", result.ResultID)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.Log.Infow("requesting instances",
			"result", result.ResultID,
			"provider", alloc.Option.ProviderID,
			"instanceType", alloc.Option.InstanceTypeID,
			"region", alloc.Option.Region,
			"pricingMode", alloc.PricingMode,
			"count", alloc.Count)
	}
	a.Applied = append(a.Applied, result.ResultID)
	logger.Log.Infow("plan executed", "result", result.ResultID,
		"instances", result.TotalInstances(), "costPerHour", result.TotalCostPerHour)
	return nil
}
