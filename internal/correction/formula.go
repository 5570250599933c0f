package correction

import "math"

// Alpha60 returns the thermal expansion coefficient for a 60 °F base density
// in kg/m³. rho60 must be positive.
func Alpha60(k Coefficients, rho60 float64) float64 {
	return k.K0/(rho60*rho60) + k.K1/rho60 + k.K2
}

// VCF20 returns the ratio of density at tempC to density at 20 °C for a fluid
// with the given alpha60.
func VCF20(tempC, alpha60 float64) float64 {
	x := CT * alpha60 * (tempC - Base20C)
	deltaT := 2 * (Base20C - Base60FC)
	y := CT * alpha60 * deltaT
	return math.Exp(-x * (1 + 0.8*x + y))
}

// RoundTo rounds v to the given number of decimal places, halves away from zero.
// Magnitudes at or above 2^53 once scaled have no fractional part left to
// round, so v is returned unchanged rather than overflowing to ±Inf.
func RoundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	scaled := v * scale
	if math.IsInf(scaled, 0) || math.Abs(scaled) >= 1<<53 {
		return v
	}
	return math.Round(scaled) / scale
}
