package pipeline_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/tank-correction-service/internal/correction"
	"github.com/couchcryptid/tank-correction-service/internal/domain"
	"github.com/couchcryptid/tank-correction-service/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureProcessedAt matches the frozen clock used by cmd/genmock.
var fixtureProcessedAt = time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC)

func TestReadingTransformer_WithMockJSONData(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(fixtureProcessedAt))
	t.Cleanup(func() { domain.SetClock(nil) })

	raws := readFixture[json.RawMessage](t, "tank_readings_raw.json")
	expected := readFixture[domain.CorrectedReading](t, "tank_readings_corrected.json")
	require.Len(t, raws, 26)
	require.Len(t, expected, 24)

	expectedByID := make(map[string]domain.CorrectedReading, len(expected))
	for _, r := range expected {
		expectedByID[r.ID] = r
	}

	transformer := pipeline.NewTransformer(correction.New(), slog.Default())

	var corrected int
	reasons := map[string]int{}
	for _, raw := range raws {
		out, err := transformer.Transform(context.Background(), domain.RawEvent{
			Value: raw,
			Topic: "raw-tank-readings",
		})
		if err != nil {
			reasons[pipeline.ErrorReason(err)]++
			continue
		}
		corrected++

		want, ok := expectedByID[out.ID]
		require.True(t, ok, "unexpected reading %s", out.ID)
		if diff := cmp.Diff(want, out); diff != "" {
			t.Fatalf("reading %s mismatch (-want +got):\n%s", out.ID, diff)
		}
	}

	assert.Equal(t, 24, corrected)
	assert.Equal(t, map[string]int{pipeline.ReasonInvalidInput: 2}, reasons)
}

func TestMockData_StandardVolumeFollowsFCV(t *testing.T) {
	for _, r := range readFixture[domain.CorrectedReading](t, "tank_readings_corrected.json") {
		if r.Observed.ObservedVolumeM3 == nil {
			assert.Nil(t, r.StandardVolume20M3, r.ID)
			continue
		}
		require.NotNil(t, r.StandardVolume20M3, r.ID)
		assert.InDelta(t, *r.Observed.ObservedVolumeM3*r.Correction.FCV20, *r.StandardVolume20M3, 1e-6, r.ID)

		// Mass balance: observed density times observed volume equals the
		// 20 °C density times the standard volume, to rounding.
		massObs := r.Observed.ObservedDensityGcc * *r.Observed.ObservedVolumeM3
		mass20 := r.Correction.Density20Gcc * *r.StandardVolume20M3
		assert.InEpsilon(t, massObs, mass20, 1e-5, r.ID)
	}
}

func readFixture[T any](t *testing.T, name string) []T {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("..", "..", "data", "mock", name))
	require.NoError(t, err)

	var rows []T
	require.NoError(t, json.Unmarshal(data, &rows))
	return rows
}
