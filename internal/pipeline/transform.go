package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/tank-correction-service/internal/correction"
	"github.com/couchcryptid/tank-correction-service/internal/domain"
)

// ReadingTransformer implements Transformer by parsing a raw reading and
// running it through the correction engine.
type ReadingTransformer struct {
	corrector domain.Corrector
	logger    *slog.Logger
}

// NewTransformer creates a ReadingTransformer backed by corrector.
func NewTransformer(corrector domain.Corrector, logger *slog.Logger) *ReadingTransformer {
	return &ReadingTransformer{
		corrector: corrector,
		logger:    logger,
	}
}

func (t *ReadingTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.CorrectedReading, error) {
	reading, err := domain.ParseRawReading(raw)
	if err != nil {
		return domain.CorrectedReading{}, err
	}

	corrected, err := domain.CorrectReading(reading, t.corrector)
	if err != nil {
		return domain.CorrectedReading{}, err
	}

	t.logger.Debug("reading corrected",
		"id", corrected.ID,
		"tank_id", corrected.TankID,
		"density_20_gcc", corrected.Correction.Density20Gcc,
	)
	return corrected, nil
}

// Error reasons reported on the correction_errors_total metric.
const (
	ReasonMalformed    = "malformed"
	ReasonInvalidInput = "invalid_input"
	ReasonConvergence  = "convergence"
	ReasonOther        = "other"
)

// ErrorReason classifies a transform error for metrics and logs.
func ErrorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMalformedReading):
		return ReasonMalformed
	case errors.Is(err, correction.ErrInvalidInput):
		return ReasonInvalidInput
	case errors.Is(err, correction.ErrConvergence):
		return ReasonConvergence
	default:
		return ReasonOther
	}
}
