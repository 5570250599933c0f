package correction

import "fmt"

// Reference temperatures and the Celsius-to-Fahrenheit interval factor used
// by the correction formula.
const (
	Base20C  = 20.0
	Base60FC = (60.0 - 32.0) / 1.8
	CT       = 1.8
)

// Commodity identifies a coefficient set.
type Commodity string

// CrudeOilGroupA is the API 11.1 commodity group for generalized crude oils.
const CrudeOilGroupA Commodity = "crude_oil_group_a"

// Coefficients are the K0, K1, K2 terms of the alpha60 expression for one
// commodity group.
type Coefficients struct {
	Commodity Commodity `json:"commodity"`
	K0        float64   `json:"k0"`
	K1        float64   `json:"k1"`
	K2        float64   `json:"k2"`
}

var coefficientSets = map[Commodity]Coefficients{
	CrudeOilGroupA: {Commodity: CrudeOilGroupA, K0: 341.0957, K1: 0, K2: 0},
}

// CoefficientsFor returns the coefficient set registered for c.
func CoefficientsFor(c Commodity) (Coefficients, error) {
	k, ok := coefficientSets[c]
	if !ok {
		return Coefficients{}, fmt.Errorf("%w: %q", ErrUnknownCommodity, c)
	}
	return k, nil
}

// DefaultCoefficients returns the Crude Oil, Group A coefficients.
func DefaultCoefficients() Coefficients {
	return coefficientSets[CrudeOilGroupA]
}
