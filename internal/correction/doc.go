// Package correction converts an observed crude-oil density to the 20 °C
// reference base using the API MPMS Chapter 11.1 temperature correction for
// Crude Oil, Group A.
//
// # Reference Bases
//
// Two base temperatures are involved:
//
//	60 °F  = 15.555556 °C   the base the API coefficients are defined against
//	20 °C                   the base used for volume accounting
//
// The thermal expansion coefficient alpha60 is a function of the 60 °F base
// density only:
//
//	alpha60 = K0/ρ60² + K1/ρ60 + K2        (ρ60 in kg/m³)
//
// For Group A crude, K0 = 341.0957 and K1 = K2 = 0.
//
// The ratio of density at any temperature to density at 20 °C is
//
//	x     = 1.8 · alpha60 · (t − 20)
//	y     = 1.8 · alpha60 · 2 · (20 − 15.555556)
//	VCF20 = exp(−x · (1 + 0.8x + y))
//
// # Solving for ρ60
//
// An observed density only fixes ρ60 implicitly, because alpha60 depends on
// ρ60. The solver starts from ρ60 = ρobs and applies successive substitution
//
//	ρ60 ← ρobs · VCF20(60 °F) / VCF20(tobs)
//
// until the density predicted from ρ60 matches ρobs within 1e-6 kg/m³. The
// budget is 50 iterations; typical inputs converge in under ten. Running out
// of budget is reported as a [ConvergenceError] rather than returning an
// unconverged value.
//
// # Output Contract
//
// [Output] fields are rounded to fixed precision: densities, correction
// factors and ρ60 to 6 decimals, alpha60 to 7 decimals. Remote callers compare
// these numbers with local computations, so the rounding is part of the
// contract and is versioned together with the coefficients by
// [AlgorithmVersion].
//
// The engine is a pure function. It keeps no state between calls, performs no
// I/O and does not log, so an [Engine] may be shared freely between goroutines.
package correction
