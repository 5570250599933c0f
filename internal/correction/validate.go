package correction

import "math"

// Validate rejects inputs the solver cannot work with. Only finiteness and a
// positive density are required; no operating range is imposed here.
func Validate(in Input) error {
	if !isFinite(in.FluidTemperatureC) {
		return &InvalidInputError{Field: "fluidTemperatureC", Value: in.FluidTemperatureC, Reason: "must be a finite number"}
	}
	if !isFinite(in.ObservedDensityGcc) {
		return &InvalidInputError{Field: "observedDensityGcc", Value: in.ObservedDensityGcc, Reason: "must be a finite number"}
	}
	if in.ObservedDensityGcc <= 0 {
		return &InvalidInputError{Field: "observedDensityGcc", Value: in.ObservedDensityGcc, Reason: "must be greater than zero"}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
