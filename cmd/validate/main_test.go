package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/tank-correction-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	rawFixture       = filepath.Join("..", "..", "data", "mock", "tank_readings_raw.json")
	correctedFixture = filepath.Join("..", "..", "data", "mock", "tank_readings_corrected.json")
)

func TestRun_FixturesPass(t *testing.T) {
	assert.Equal(t, 0, run(rawFixture, correctedFixture))
}

func TestRun_DetectsDrift(t *testing.T) {
	corrected, err := loadJSON[domain.CorrectedReading](correctedFixture)
	require.NoError(t, err)
	require.NotEmpty(t, corrected)

	corrected[0].Correction.FCV20 += 1e-6
	corrected[1].AlgorithmVersion = "api11_1_crude_v0.9.0"

	p1 := validateCoverage(mustLoadRaw(t), corrected)
	assert.Len(t, p1.errors, 1)

	p2 := validateRecompute(mustLoadRaw(t), corrected)
	assert.Len(t, p2.errors, 1)
	assert.Contains(t, p2.errors[0], corrected[0].ID)
}

func TestRun_MissingFile(t *testing.T) {
	assert.Equal(t, 1, run(filepath.Join(t.TempDir(), "missing.json"), correctedFixture))
}

func TestValidateRecompute_MissingRow(t *testing.T) {
	corrected, err := loadJSON[domain.CorrectedReading](correctedFixture)
	require.NoError(t, err)

	p := validateRecompute(mustLoadRaw(t), corrected[1:])
	require.Len(t, p.errors, 1)
	assert.Contains(t, p.errors[0], "missing from the fixture")
}

func mustLoadRaw(t *testing.T) []domain.RawReading {
	t.Helper()
	_, err := os.Stat(rawFixture)
	require.NoError(t, err)
	raws, err := loadJSON[domain.RawReading](rawFixture)
	require.NoError(t, err)
	return raws
}
