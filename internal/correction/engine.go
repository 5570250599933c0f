package correction

// AlgorithmVersion identifies the coefficient set, iteration scheme and output
// rounding. It changes only when computed numbers change, and golden values in
// tests must be regenerated together with it.
const AlgorithmVersion = "api11_1_crude_v1.0.0"

// Input is an observed density reading.
type Input struct {
	FluidTemperatureC  float64 `json:"fluidTemperatureC"`
	ObservedDensityGcc float64 `json:"observedDensityGcc"`
}

// Output is the corrected result, rounded to the published precision.
type Output struct {
	Density20Gcc float64 `json:"density20Gcc"`
	FCV20        float64 `json:"fcv20"`
	Rho60Kgm3    float64 `json:"rho60Kgm3"`
	CTL6020      float64 `json:"ctl6020"`
	Alpha60      float64 `json:"alpha60"`
}

// Engine computes corrections with a fixed coefficient set. The zero value is
// not usable; construct with [New] or [NewForCommodity].
type Engine struct {
	coeffs Coefficients
}

// New returns an Engine for Crude Oil, Group A.
func New() *Engine {
	return &Engine{coeffs: DefaultCoefficients()}
}

// NewForCommodity returns an Engine using the coefficient set registered for c.
func NewForCommodity(c Commodity) (*Engine, error) {
	k, err := CoefficientsFor(c)
	if err != nil {
		return nil, err
	}
	return &Engine{coeffs: k}, nil
}

// Coefficients returns the coefficient set captured by the engine.
func (e *Engine) Coefficients() Coefficients {
	return e.coeffs
}

// Compute validates in, solves for the 60 °F base density and derives the
// 20 °C outputs. Errors match [ErrInvalidInput] or [ErrConvergence].
func (e *Engine) Compute(in Input) (Output, error) {
	out, _, err := e.ComputeWithIterations(in)
	return out, err
}

// ComputeWithIterations is Compute that also reports the solver iteration count.
func (e *Engine) ComputeWithIterations(in Input) (Output, int, error) {
	if err := Validate(in); err != nil {
		return Output{}, 0, err
	}
	sol, err := Solve(e.coeffs, in)
	if err != nil {
		return Output{}, 0, err
	}
	return assemble(e.coeffs, in, sol.Rho60Kgm3), sol.Iterations, nil
}

// Compute runs the Crude Oil, Group A engine.
func Compute(in Input) (Output, error) {
	return New().Compute(in)
}

func assemble(k Coefficients, in Input, rho60 float64) Output {
	alpha := Alpha60(k, rho60)
	vcf60 := VCF20(Base60FC, alpha)
	vcfObs := VCF20(in.FluidTemperatureC, alpha)
	rho20 := rho60 / vcf60

	return Output{
		Density20Gcc: RoundTo(rho20/1000, 6),
		FCV20:        RoundTo(vcfObs, 6),
		Rho60Kgm3:    RoundTo(rho60, 6),
		CTL6020:      RoundTo(vcf60, 6),
		Alpha60:      RoundTo(alpha, 7),
	}
}
