// Command genmock reads a tank gauge CSV and generates the mock data fixtures
// used by the pipeline tests. It runs the real domain and correction packages
// so the corrected fixture matches pipeline behavior exactly.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -csv data/mock/tank_readings.csv \
//	  -raw-out data/mock/tank_readings_raw.json \
//	  -corrected-out data/mock/tank_readings_corrected.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/tank-correction-service/internal/correction"
	"github.com/couchcryptid/tank-correction-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// processedAt is the frozen ProcessedAt stamped on every corrected fixture row.
var processedAt = time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "", "tank gauge CSV file")
	rawOut := flag.String("raw-out", "", "output path for raw reading JSON fixture")
	correctedOut := flag.String("corrected-out", "", "output path for corrected reading JSON fixture")
	flag.Parse()

	if *csvPath == "" || *rawOut == "" || *correctedOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv, -raw-out, -corrected-out")
	}

	// Set a fixed clock for reproducible ProcessedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(processedAt))
	defer domain.SetClock(nil)

	raws, err := readCSV(*csvPath)
	if err != nil {
		return fmt.Errorf("processing %s: %w", *csvPath, err)
	}

	engine := correction.New()
	var corrected []domain.CorrectedReading //nolint:prealloc // rejected rows are skipped
	rejected := map[string]int{}

	for _, rec := range raws {
		value, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal reading %s: %w", rec.ReadingID, err)
		}
		reading, err := domain.ParseRawReading(domain.RawEvent{Value: value})
		if err == nil {
			var out domain.CorrectedReading
			out, err = domain.CorrectReading(reading, engine)
			if err == nil {
				corrected = append(corrected, out)
				continue
			}
		}
		rejected[rejectReason(err)]++
		log.Printf("skipping %s: %v", rec.ReadingID, err)
	}

	if err := writeJSON(*rawOut, raws); err != nil {
		return fmt.Errorf("writing raw fixture: %w", err)
	}
	log.Printf("wrote raw fixture: %s (%d readings)", *rawOut, len(raws))

	if err := writeJSON(*correctedOut, corrected); err != nil {
		return fmt.Errorf("writing corrected fixture: %w", err)
	}
	log.Printf("wrote corrected fixture: %s (%d readings)", *correctedOut, len(corrected))

	printStats(corrected, rejected)
	return nil
}

func readCSV(path string) ([]domain.RawReading, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	colIdx := map[string]int{}
	for i, h := range rows[0] {
		colIdx[h] = i
	}

	recs := make([]domain.RawReading, 0, len(rows)-1)
	for line, row := range rows[1:] {
		rec := domain.RawReading{
			ReadingID:  get(row, colIdx, "reading_id"),
			TankID:     get(row, colIdx, "tank_id"),
			ProjectID:  get(row, colIdx, "project_id"),
			MeasuredAt: get(row, colIdx, "measured_at"),
		}
		for col, dst := range map[string]**float64{
			"fluid_temperature_c":  &rec.FluidTemperatureC,
			"observed_density_gcc": &rec.ObservedDensityGcc,
			"observed_volume_m3":   &rec.ObservedVolumeM3,
		} {
			v, err := optionalFloat(get(row, colIdx, col))
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line+2, col, err)
			}
			*dst = v
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func get(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func optionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMalformedReading):
		return "malformed"
	case errors.Is(err, correction.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, correction.ErrConvergence):
		return "convergence"
	default:
		return "other"
	}
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

type tankStats struct {
	tankID   string
	count    int
	minD20   float64
	maxD20   float64
	volume20 float64
}

func printStats(corrected []domain.CorrectedReading, rejected map[string]int) {
	byTank := map[string]*tankStats{}
	for i := range corrected {
		r := &corrected[i]
		s, ok := byTank[r.TankID]
		if !ok {
			s = &tankStats{tankID: r.TankID, minD20: r.Correction.Density20Gcc, maxD20: r.Correction.Density20Gcc}
			byTank[r.TankID] = s
		}
		s.count++
		s.minD20 = min(s.minD20, r.Correction.Density20Gcc)
		s.maxD20 = max(s.maxD20, r.Correction.Density20Gcc)
		if r.StandardVolume20M3 != nil {
			s.volume20 += *r.StandardVolume20M3
		}
	}

	tanks := make([]*tankStats, 0, len(byTank))
	for _, s := range byTank {
		tanks = append(tanks, s)
	}
	sort.Slice(tanks, func(i, j int) bool { return tanks[i].tankID < tanks[j].tankID })

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Corrected: %d\n", len(corrected))
	fmt.Printf("Rejected: malformed=%d, invalid_input=%d, convergence=%d, other=%d\n",
		rejected["malformed"], rejected["invalid_input"], rejected["convergence"], rejected["other"])
	fmt.Printf("Algorithm: %s\n", correction.AlgorithmVersion)
	for _, s := range tanks {
		fmt.Printf("  %s: %d readings, density20 %.6f..%.6f g/cm3, standard volume %.3f m3\n",
			s.tankID, s.count, s.minD20, s.maxD20, s.volume20)
	}
}
