package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/tank-correction-service/internal/correction"
)

// ErrMalformedReading is returned when a message cannot be decoded into a reading.
var ErrMalformedReading = errors.New("malformed tank reading")

// ParseRawReading deserializes a RawEvent's value into a TankReading.
// Missing temperature or density is reported as correction.ErrInvalidInput so
// callers treat it the same as an out-of-domain value.
func ParseRawReading(raw RawEvent) (TankReading, error) {
	var rec RawReading
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return TankReading{}, fmt.Errorf("parse tank reading: %w: %w", ErrMalformedReading, err)
	}

	tankID := strings.TrimSpace(rec.TankID)
	if tankID == "" {
		return TankReading{}, fmt.Errorf("parse tank reading: %w: tank_id is required", ErrMalformedReading)
	}
	if rec.FluidTemperatureC == nil {
		return TankReading{}, fmt.Errorf("parse tank reading: %w: fluid_temperature_c is required", correction.ErrInvalidInput)
	}
	if rec.ObservedDensityGcc == nil {
		return TankReading{}, fmt.Errorf("parse tank reading: %w: observed_density_gcc is required", correction.ErrInvalidInput)
	}

	measuredAt, err := parseMeasuredAt(raw.Timestamp, rec.MeasuredAt)
	if err != nil {
		return TankReading{}, fmt.Errorf("parse tank reading: %w: %w", ErrMalformedReading, err)
	}

	obs := Observation{
		FluidTemperatureC:  *rec.FluidTemperatureC,
		ObservedDensityGcc: *rec.ObservedDensityGcc,
		ObservedVolumeM3:   rec.ObservedVolumeM3,
	}

	id := strings.TrimSpace(rec.ReadingID)
	if id == "" {
		id = generateID(tankID, measuredAt, obs.FluidTemperatureC, obs.ObservedDensityGcc)
	}

	return TankReading{
		ID:         id,
		TankID:     tankID,
		ProjectID:  strings.TrimSpace(rec.ProjectID),
		Observed:   obs,
		MeasuredAt: measuredAt,
		RawPayload: raw.Value,
	}, nil
}

// parseMeasuredAt prefers the collector's RFC3339 timestamp and falls back to
// the message time when the field is absent.
func parseMeasuredAt(fallback time.Time, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("measured_at: %w", err)
	}
	return t.UTC(), nil
}

// generateID produces a deterministic ID from the reading's key fields so a
// replayed message maps to the same downstream row.
func generateID(tankID string, measuredAt time.Time, tempC, densityGcc float64) string {
	input := fmt.Sprintf("%s|%s|%g|%g", tankID, measuredAt.UTC().Format(time.RFC3339), tempC, densityGcc)
	hash := sha256.Sum256([]byte(input))
	return tankID + "-" + hex.EncodeToString(hash[:8])
}

// CorrectReading refers a reading to the 20 °C base. Engine errors are
// returned unchanged (wrapped) so callers can match ErrInvalidInput and
// ErrConvergence.
func CorrectReading(reading TankReading, corrector Corrector) (CorrectedReading, error) {
	out, err := corrector.Compute(correction.Input{
		FluidTemperatureC:  reading.Observed.FluidTemperatureC,
		ObservedDensityGcc: reading.Observed.ObservedDensityGcc,
	})
	if err != nil {
		return CorrectedReading{}, fmt.Errorf("correct reading %s: %w", reading.ID, err)
	}

	return CorrectedReading{
		ID:                 reading.ID,
		TankID:             reading.TankID,
		ProjectID:          reading.ProjectID,
		Observed:           reading.Observed,
		Correction:         out,
		StandardVolume20M3: StandardVolume(reading.Observed.ObservedVolumeM3, out.FCV20),
		AlgorithmVersion:   correction.AlgorithmVersion,
		MeasuredAt:         reading.MeasuredAt,
		ProcessedAt:        clock.Now().UTC(),
	}, nil
}

// StandardVolume converts an observed volume to 20 °C, rounded to 6 decimals.
// Since mass is conserved, V20 = Vobs · ρobs/ρ20 = Vobs · fcv20.
func StandardVolume(observedM3 *float64, fcv20 float64) *float64 {
	if observedM3 == nil {
		return nil
	}
	v := correction.RoundTo(*observedM3*fcv20, 6)
	return &v
}

// SerializeCorrectedReading marshals a CorrectedReading into an OutputEvent
// keyed by reading ID.
func SerializeCorrectedReading(r CorrectedReading) (OutputEvent, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize corrected reading: %w", err)
	}
	return OutputEvent{
		Key:   []byte(r.ID),
		Value: data,
		Headers: map[string]string{
			"tank_id":           r.TankID,
			"algorithm_version": r.AlgorithmVersion,
			"processed_at":      r.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}
