// Command validate performs integrity checks on the tank reading fixtures:
// raw JSON against corrected JSON, corrected values against the current
// engine, and the physical relationships between the published fields.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -raw-json data/mock/tank_readings_raw.json \
//	  -corrected-json data/mock/tank_readings_corrected.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/tank-correction-service/internal/correction"
	"github.com/couchcryptid/tank-correction-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// processedAt matches the frozen clock used by genmock.
var processedAt = time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	rawJSON := flag.String("raw-json", "", "path to raw reading JSON fixture")
	correctedJSON := flag.String("corrected-json", "", "path to corrected reading JSON fixture")
	flag.Parse()

	if *rawJSON == "" || *correctedJSON == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*rawJSON, *correctedJSON))
}

func run(rawPath, correctedPath string) int {
	domain.SetClock(clockwork.NewFakeClockAt(processedAt))
	defer domain.SetClock(nil)

	fmt.Println("=== Tank Reading Fixture Validation ===")
	fmt.Println()

	raws, err := loadJSON[domain.RawReading](rawPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load raw JSON: %v\n", err)
		return 1
	}

	corrected, err := loadJSON[domain.CorrectedReading](correctedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load corrected JSON: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateCoverage(raws, corrected),
		validateRecompute(raws, corrected),
		validateRelationships(corrected),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d raw, %d corrected, algorithm %s\n", len(raws), len(corrected), correction.AlgorithmVersion)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ── Phase 1: Coverage ──
// Every corrected row comes from a raw row, IDs are unique, and the version
// stamped on each row is the current one.

func validateCoverage(raws []domain.RawReading, corrected []domain.CorrectedReading) *phase {
	p := &phase{name: "Phase 1: Coverage (raw vs corrected)"}

	rawIDs := map[string]bool{}
	for i := range raws {
		if raws[i].ReadingID == "" {
			p.errorf("raw record %d: missing reading_id", i)
			continue
		}
		if rawIDs[raws[i].ReadingID] {
			p.errorf("raw record %d: duplicate reading_id %q", i, raws[i].ReadingID)
		}
		rawIDs[raws[i].ReadingID] = true
	}

	seen := map[string]bool{}
	for i := range corrected {
		r := &corrected[i]
		if seen[r.ID] {
			p.errorf("corrected record %d: duplicate id %q", i, r.ID)
		}
		seen[r.ID] = true
		if !rawIDs[r.ID] {
			p.errorf("corrected record %d: id %q not in raw fixture", i, r.ID)
		}
		if r.AlgorithmVersion != correction.AlgorithmVersion {
			p.errorf("ID %s: algorithm_version %q, current is %q", r.ID, r.AlgorithmVersion, correction.AlgorithmVersion)
		}
		if !r.ProcessedAt.Equal(processedAt) {
			p.errorf("ID %s: processed_at %s, expected frozen %s", r.ID, r.ProcessedAt.Format(time.RFC3339), processedAt.Format(time.RFC3339))
		}
	}
	return p
}

// ── Phase 2: Recompute ──
// Re-run every raw row through the engine. Accepted rows must reproduce the
// corrected fixture exactly; rows absent from the fixture must still fail.

func validateRecompute(raws []domain.RawReading, corrected []domain.CorrectedReading) *phase {
	p := &phase{name: "Phase 2: Recompute (engine vs fixture)"}

	byID := make(map[string]*domain.CorrectedReading, len(corrected))
	for i := range corrected {
		byID[corrected[i].ID] = &corrected[i]
	}

	engine := correction.New()
	for i := range raws {
		value, err := json.Marshal(raws[i])
		if err != nil {
			p.errorf("raw record %d: marshal: %v", i, err)
			continue
		}

		got, err := recompute(engine, value)
		want, inFixture := byID[raws[i].ReadingID]

		switch {
		case err != nil && inFixture:
			p.errorf("ID %s: in fixture but engine rejects it: %v", raws[i].ReadingID, err)
		case err == nil && !inFixture:
			p.errorf("ID %s: engine accepts it but it is missing from the fixture", raws[i].ReadingID)
		case err == nil:
			compareReadings(p, *want, got)
		}
	}
	return p
}

func recompute(engine domain.Corrector, value []byte) (domain.CorrectedReading, error) {
	reading, err := domain.ParseRawReading(domain.RawEvent{Value: value})
	if err != nil {
		return domain.CorrectedReading{}, err
	}
	return domain.CorrectReading(reading, engine)
}

func compareReadings(p *phase, want, got domain.CorrectedReading) {
	id := want.ID
	if want.Correction != got.Correction {
		p.errorf("ID %s: correction: fixture %+v, engine %+v", id, want.Correction, got.Correction)
	}
	if !ptrFloatEq(want.StandardVolume20M3, got.StandardVolume20M3) {
		p.errorf("ID %s: standard_volume_20_m3: fixture %s, engine %s", id, ptrStr(want.StandardVolume20M3), ptrStr(got.StandardVolume20M3))
	}
	if want.TankID != got.TankID {
		p.errorf("ID %s: tank_id: fixture %q, engine %q", id, want.TankID, got.TankID)
	}
	if !want.MeasuredAt.Equal(got.MeasuredAt) {
		p.errorf("ID %s: measured_at: fixture %s, engine %s", id, want.MeasuredAt.Format(time.RFC3339), got.MeasuredAt.Format(time.RFC3339))
	}
}

// ── Phase 3: Relationships ──
// The published fields are rounded views of one solution, so they must agree
// with each other to within rounding.

func validateRelationships(corrected []domain.CorrectedReading) *phase {
	p := &phase{name: "Phase 3: Relationships (round trip)"}

	for i := range corrected {
		r := &corrected[i]
		c := r.Correction

		// ρobs = ρ20 · fcv20
		if rel := relDiff(c.Density20Gcc*c.FCV20, r.Observed.ObservedDensityGcc); rel > 2e-6 {
			p.errorf("ID %s: density20*fcv20 differs from observed density by %.2e", r.ID, rel)
		}
		// ρ60 = ρ20 · ctl6020
		if rel := relDiff(c.Density20Gcc*1000*c.CTL6020, c.Rho60Kgm3); rel > 2e-6 {
			p.errorf("ID %s: density20*ctl6020 differs from rho60 by %.2e", r.ID, rel)
		}
		if alpha := correction.Alpha60(correction.DefaultCoefficients(), c.Rho60Kgm3); math.Abs(alpha-c.Alpha60) > 6e-8 {
			p.errorf("ID %s: alpha60 %g does not match rho60 (%g)", r.ID, c.Alpha60, alpha)
		}
		if c.FCV20 <= 0 || c.CTL6020 <= 0 || c.Alpha60 <= 0 {
			p.errorf("ID %s: non-positive factor in %+v", r.ID, c)
		}
		if r.Observed.ObservedVolumeM3 != nil && r.StandardVolume20M3 != nil {
			if math.Abs(*r.Observed.ObservedVolumeM3*c.FCV20-*r.StandardVolume20M3) > 1e-6 {
				p.errorf("ID %s: standard volume is not observed volume * fcv20", r.ID)
			}
		}
	}
	return p
}

// ── Helpers ──

func relDiff(a, b float64) float64 {
	return math.Abs(a-b) / math.Abs(b)
}

func ptrFloatEq(a, b *float64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

func ptrStr(f *float64) string {
	if f == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%g", *f)
}
