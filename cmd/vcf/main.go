// Command vcf computes a single 20 °C density correction and prints it as JSON.
//
// Usage:
//
//	go run ./cmd/vcf -temp 42 -density 0.92 [-volume 1500]
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/couchcryptid/tank-correction-service/internal/correction"
	"github.com/couchcryptid/tank-correction-service/internal/domain"
)

type result struct {
	correction.Output
	StandardVolume20M3 *float64 `json:"standardVolume20M3,omitempty"`
	Iterations         int      `json:"iterations"`
	Version            string   `json:"version"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("vcf", flag.ContinueOnError)
	fs.SetOutput(stderr)
	temp := fs.Float64("temp", math.NaN(), "observed fluid temperature in °C (required)")
	density := fs.Float64("density", math.NaN(), "observed density in g/cm³ (required)")
	volume := fs.Float64("volume", math.NaN(), "observed volume in m³, converted to 20 °C when set")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if math.IsNaN(*temp) || math.IsNaN(*density) {
		fmt.Fprintln(stderr, "vcf: -temp and -density are required")
		fs.Usage()
		return 2
	}

	out, iterations, err := correction.New().ComputeWithIterations(correction.Input{
		FluidTemperatureC:  *temp,
		ObservedDensityGcc: *density,
	})
	if err != nil {
		fmt.Fprintf(stderr, "vcf: %v\n", err)
		if errors.Is(err, correction.ErrInvalidInput) {
			return 2
		}
		return 1
	}

	res := result{Output: out, Iterations: iterations, Version: correction.AlgorithmVersion}
	if !math.IsNaN(*volume) {
		res.StandardVolume20M3 = domain.StandardVolume(volume, out.FCV20)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		fmt.Fprintf(stderr, "vcf: %v\n", err)
		return 1
	}
	return 0
}
