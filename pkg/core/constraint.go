package core

import (
	"fmt"
	"math"

	"github.com/cloudarb/allocation-optimizer/pkg/config"
)

// OptimizationConstraint is a user supplied restriction on the allocation.
// Soft constraints (IsHard false) may be violated at a penalty of Weight per unit.
type OptimizationConstraint struct {
	Name        string         `json:"name"`
	Type        ConstraintType `json:"type"`
	Operator    Operator       `json:"operator"`
	Value       float64        `json:"value"`
	Weight      float64        `json:"weight"`
	IsHard      bool           `json:"isHard"`
	Description string         `json:"description,omitempty"`
}

func NewConstraintFromSpec(spec *config.ConstraintSpec) *OptimizationConstraint {
	c := &OptimizationConstraint{
		Name:        spec.Name,
		Type:        ConstraintType(spec.Type),
		Operator:    Operator(spec.Operator),
		Value:       spec.Value,
		Weight:      config.DefaultConstraintWeight,
		IsHard:      true,
		Description: spec.Description,
	}
	if spec.Weight != nil {
		c.Weight = *spec.Weight
	}
	if spec.Hard != nil {
		c.IsHard = *spec.Hard
	}
	return c
}

func (c *OptimizationConstraint) Validate() error {
	field := "constraints." + c.Name
	if !c.Type.Valid() {
		return NewValidationError(field, fmt.Sprintf("unknown constraint type %q", c.Type))
	}
	if !c.Operator.Valid() {
		return NewValidationError(field, fmt.Sprintf("invalid operator %q, must be one of <=, >=, ==, !=", c.Operator))
	}
	if c.Weight < 0 {
		return NewValidationError(field, "weight cannot be negative")
	}
	if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) {
		return NewValidationError(field, "value must be finite")
	}
	return nil
}

func (c *OptimizationConstraint) String() string {
	return fmt.Sprintf("Constraint: name=%s; type=%s; %s %v; weight=%v; hard=%t",
		c.Name, c.Type, c.Operator, c.Value, c.Weight, c.IsHard)
}
