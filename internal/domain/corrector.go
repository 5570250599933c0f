package domain

import "github.com/couchcryptid/tank-correction-service/internal/correction"

// Corrector converts an observed density to the 20 °C base. Implemented by
// *correction.Engine and by caching decorators around it.
type Corrector interface {
	Compute(in correction.Input) (correction.Output, error)
}
