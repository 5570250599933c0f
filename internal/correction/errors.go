package correction

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is matched by every *InvalidInputError.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConvergence is matched by every *ConvergenceError.
	ErrConvergence = errors.New("solver did not converge")

	// ErrUnknownCommodity is returned for a commodity with no coefficient set.
	ErrUnknownCommodity = errors.New("unknown commodity")
)

// InvalidInputError describes the input field that was rejected.
type InvalidInputError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s %s (got %v)", e.Field, e.Reason, e.Value)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConvergenceError reports that the fixed-point iteration ran out of budget.
// Residual is |ρobs − ρcalc| in kg/m³ after the last iteration.
type ConvergenceError struct {
	Iterations int
	Residual   float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("solver did not converge after %d iterations (residual %g kg/m3)", e.Iterations, e.Residual)
}

func (e *ConvergenceError) Is(target error) bool {
	return target == ErrConvergence
}
