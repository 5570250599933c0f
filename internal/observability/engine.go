package observability

import (
	"github.com/couchcryptid/tank-correction-service/internal/correction"
)

// IterationCounter computes a correction and reports how many solver
// iterations it took.
type IterationCounter interface {
	ComputeWithIterations(in correction.Input) (correction.Output, int, error)
}

// MeasuredEngine records solver iteration counts for every successful
// computation of the wrapped engine.
type MeasuredEngine struct {
	engine  IterationCounter
	metrics *Metrics
}

// NewMeasuredEngine wraps engine so each converged solve is observed on
// the solver_iterations histogram.
func NewMeasuredEngine(engine IterationCounter, metrics *Metrics) *MeasuredEngine {
	return &MeasuredEngine{engine: engine, metrics: metrics}
}

// Compute implements the corrector contract used by the pipeline and API.
func (m *MeasuredEngine) Compute(in correction.Input) (correction.Output, error) {
	out, iterations, err := m.engine.ComputeWithIterations(in)
	if err != nil {
		return correction.Output{}, err
	}
	m.metrics.SolverIterations.Observe(float64(iterations))
	return out, nil
}
