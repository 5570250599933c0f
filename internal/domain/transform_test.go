package domain

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/tank-correction-service/internal/correction"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTankID    = "TK-101"
	testReadingID = "r-0001"
)

func TestParseRawReading(t *testing.T) {
	msgTime := time.Date(2024, 4, 26, 8, 0, 0, 0, time.UTC)

	t.Run("full reading", func(t *testing.T) {
		data := []byte(`{"reading_id":"r-0001","tank_id":"TK-101","project_id":"field-north","fluid_temperature_c":42,"observed_density_gcc":0.92,"observed_volume_m3":1000,"measured_at":"2024-04-26T15:10:00Z"}`)
		result, err := ParseRawReading(RawEvent{Value: data, Timestamp: msgTime})

		require.NoError(t, err)
		assert.Equal(t, testReadingID, result.ID)
		assert.Equal(t, testTankID, result.TankID)
		assert.Equal(t, "field-north", result.ProjectID)
		assert.Equal(t, 42.0, result.Observed.FluidTemperatureC)
		assert.Equal(t, 0.92, result.Observed.ObservedDensityGcc)
		require.NotNil(t, result.Observed.ObservedVolumeM3)
		assert.Equal(t, 1000.0, *result.Observed.ObservedVolumeM3)
		assert.Equal(t, time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC), result.MeasuredAt)
		assert.Equal(t, data, result.RawPayload)
	})

	t.Run("measured_at falls back to message time", func(t *testing.T) {
		data := []byte(`{"tank_id":"TK-101","fluid_temperature_c":30.5,"observed_density_gcc":0.88}`)
		result, err := ParseRawReading(RawEvent{Value: data, Timestamp: msgTime})

		require.NoError(t, err)
		assert.Equal(t, msgTime, result.MeasuredAt)
		assert.Nil(t, result.Observed.ObservedVolumeM3)
	})

	t.Run("zero temperature is a value, not missing", func(t *testing.T) {
		data := []byte(`{"tank_id":"TK-101","fluid_temperature_c":0,"observed_density_gcc":0.88}`)
		result, err := ParseRawReading(RawEvent{Value: data, Timestamp: msgTime})

		require.NoError(t, err)
		assert.Equal(t, 0.0, result.Observed.FluidTemperatureC)
	})

	t.Run("generated ID when reading_id absent", func(t *testing.T) {
		data := []byte(`{"tank_id":"TK-101","fluid_temperature_c":30.5,"observed_density_gcc":0.88}`)
		result, err := ParseRawReading(RawEvent{Value: data, Timestamp: msgTime})

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(result.ID, testTankID+"-"))
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseRawReading(RawEvent{Value: []byte("{invalid json")})

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedReading)
		assert.Contains(t, err.Error(), "parse tank reading")
	})

	t.Run("non-numeric density", func(t *testing.T) {
		data := []byte(`{"tank_id":"TK-101","fluid_temperature_c":20,"observed_density_gcc":"heavy"}`)
		_, err := ParseRawReading(RawEvent{Value: data})

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedReading)
	})

	t.Run("missing tank", func(t *testing.T) {
		data := []byte(`{"fluid_temperature_c":20,"observed_density_gcc":0.9}`)
		_, err := ParseRawReading(RawEvent{Value: data})

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedReading)
		assert.Contains(t, err.Error(), "tank_id")
	})

	t.Run("missing temperature", func(t *testing.T) {
		data := []byte(`{"tank_id":"TK-101","observed_density_gcc":0.9}`)
		_, err := ParseRawReading(RawEvent{Value: data})

		require.Error(t, err)
		assert.ErrorIs(t, err, correction.ErrInvalidInput)
		assert.Contains(t, err.Error(), "fluid_temperature_c")
	})

	t.Run("missing density", func(t *testing.T) {
		data := []byte(`{"tank_id":"TK-101","fluid_temperature_c":20}`)
		_, err := ParseRawReading(RawEvent{Value: data})

		require.Error(t, err)
		assert.ErrorIs(t, err, correction.ErrInvalidInput)
		assert.Contains(t, err.Error(), "observed_density_gcc")
	})

	t.Run("bad measured_at", func(t *testing.T) {
		data := []byte(`{"tank_id":"TK-101","fluid_temperature_c":20,"observed_density_gcc":0.9,"measured_at":"yesterday"}`)
		_, err := ParseRawReading(RawEvent{Value: data})

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedReading)
		assert.Contains(t, err.Error(), "measured_at")
	})
}

func TestGenerateID(t *testing.T) {
	at := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)

	t.Run("prefixed with tank", func(t *testing.T) {
		id := generateID(testTankID, at, 42, 0.92)
		assert.True(t, strings.HasPrefix(id, "TK-101-"))
		assert.Len(t, id, len("TK-101-")+16)
	})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, generateID(testTankID, at, 42, 0.92), generateID(testTankID, at, 42, 0.92))
	})

	t.Run("different inputs produce different IDs", func(t *testing.T) {
		assert.NotEqual(t, generateID(testTankID, at, 42, 0.92), generateID(testTankID, at, 42, 0.93))
		assert.NotEqual(t, generateID(testTankID, at, 42, 0.92), generateID("TK-102", at, 42, 0.92))
		assert.NotEqual(t, generateID(testTankID, at, 42, 0.92), generateID(testTankID, at.Add(time.Minute), 42, 0.92))
	})
}

type stubCorrector struct {
	out   correction.Output
	err   error
	calls int
	last  correction.Input
}

func (s *stubCorrector) Compute(in correction.Input) (correction.Output, error) {
	s.calls++
	s.last = in
	return s.out, s.err
}

func TestCorrectReading(t *testing.T) {
	fixedTime := time.Date(2024, 4, 27, 6, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixedTime))
	defer SetClock(nil)

	volume := 1000.0
	reading := TankReading{
		ID:         testReadingID,
		TankID:     testTankID,
		ProjectID:  "field-north",
		Observed:   Observation{FluidTemperatureC: 42, ObservedDensityGcc: 0.92, ObservedVolumeM3: &volume},
		MeasuredAt: time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC),
	}

	t.Run("with engine", func(t *testing.T) {
		result, err := CorrectReading(reading, correction.New())
		require.NoError(t, err)

		assert.Equal(t, testReadingID, result.ID)
		assert.Equal(t, testTankID, result.TankID)
		assert.Equal(t, "field-north", result.ProjectID)
		assert.Equal(t, 0.934516, result.Correction.Density20Gcc)
		assert.Equal(t, 0.984467, result.Correction.FCV20)
		assert.Equal(t, 937.433172, result.Correction.Rho60Kgm3)
		assert.Equal(t, 1.003122, result.Correction.CTL6020)
		assert.Equal(t, 0.0003881, result.Correction.Alpha60)
		require.NotNil(t, result.StandardVolume20M3)
		assert.InDelta(t, 984.467, *result.StandardVolume20M3, 1e-9)
		assert.Equal(t, correction.AlgorithmVersion, result.AlgorithmVersion)
		assert.Equal(t, reading.MeasuredAt, result.MeasuredAt)
		assert.Equal(t, fixedTime, result.ProcessedAt)
	})

	t.Run("passes observation to corrector", func(t *testing.T) {
		stub := &stubCorrector{out: correction.Output{FCV20: 1}}
		_, err := CorrectReading(reading, stub)
		require.NoError(t, err)

		assert.Equal(t, 1, stub.calls)
		assert.Equal(t, correction.Input{FluidTemperatureC: 42, ObservedDensityGcc: 0.92}, stub.last)
	})

	t.Run("no volume means no standard volume", func(t *testing.T) {
		noVolume := reading
		noVolume.Observed.ObservedVolumeM3 = nil

		result, err := CorrectReading(noVolume, correction.New())
		require.NoError(t, err)
		assert.Nil(t, result.StandardVolume20M3)
	})

	t.Run("engine errors stay matchable", func(t *testing.T) {
		bad := reading
		bad.Observed.ObservedDensityGcc = -1

		_, err := CorrectReading(bad, correction.New())
		require.Error(t, err)
		assert.ErrorIs(t, err, correction.ErrInvalidInput)
		assert.Contains(t, err.Error(), testReadingID)

		stub := &stubCorrector{err: &correction.ConvergenceError{Iterations: 50}}
		_, err = CorrectReading(reading, stub)
		require.Error(t, err)
		assert.ErrorIs(t, err, correction.ErrConvergence)

		var convErr *correction.ConvergenceError
		assert.True(t, errors.As(err, &convErr))
	})
}

func TestStandardVolume(t *testing.T) {
	assert.Nil(t, StandardVolume(nil, 0.98))

	v := 2500.0
	got := StandardVolume(&v, 1.018848)
	require.NotNil(t, got)
	assert.InDelta(t, 2547.12, *got, 1e-9)

	huge := 1e305
	got = StandardVolume(&huge, 1.0)
	require.NotNil(t, got)
	assert.False(t, math.IsInf(*got, 0))
}

func TestSerializeCorrectedReading(t *testing.T) {
	processed := time.Date(2024, 4, 27, 6, 0, 0, 0, time.UTC)
	r := CorrectedReading{
		ID:               testReadingID,
		TankID:           testTankID,
		Correction:       correction.Output{Density20Gcc: 0.934516, FCV20: 0.984467},
		AlgorithmVersion: correction.AlgorithmVersion,
		ProcessedAt:      processed,
	}

	out, err := SerializeCorrectedReading(r)
	require.NoError(t, err)

	assert.Equal(t, []byte(testReadingID), out.Key)
	assert.Equal(t, testTankID, out.Headers["tank_id"])
	assert.Equal(t, correction.AlgorithmVersion, out.Headers["algorithm_version"])
	assert.Equal(t, "2024-04-27T06:00:00Z", out.Headers["processed_at"])
	assert.Contains(t, string(out.Value), `"density20Gcc":0.934516`)
	assert.Contains(t, string(out.Value), `"algorithm_version":"api11_1_crude_v1.0.0"`)
	assert.NotContains(t, string(out.Value), "standard_volume_20_m3")
}
