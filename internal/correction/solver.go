package correction

import "math"

// Iteration budget and convergence tolerance (kg/m³) of the ρ60 solver.
const (
	MaxIterations = 50
	Tolerance     = 1e-6
)

// Solution is the converged 60 °F base density and how many iterations it took.
type Solution struct {
	Rho60Kgm3  float64
	Iterations int
}

// Solve finds the 60 °F base density consistent with the observed density at
// the observed temperature by successive substitution. Inputs are assumed to
// have passed [Validate].
func Solve(k Coefficients, in Input) (Solution, error) {
	rhoObs := in.ObservedDensityGcc * 1000
	rho60 := rhoObs
	residual := math.Inf(1)

	for i := 1; i <= MaxIterations; i++ {
		alpha := Alpha60(k, rho60)
		ratio := VCF20(in.FluidTemperatureC, alpha) / VCF20(Base60FC, alpha)

		residual = math.Abs(rhoObs - rho60*ratio)
		if residual < Tolerance {
			return Solution{Rho60Kgm3: rho60, Iterations: i}, nil
		}
		rho60 = rhoObs / ratio
	}

	return Solution{}, &ConvergenceError{Iterations: MaxIterations, Residual: residual}
}
