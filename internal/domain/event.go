package domain

import (
	"context"
	"time"

	"github.com/couchcryptid/tank-correction-service/internal/correction"
)

// RawReading is the flat JSON produced by the tank gauging collector.
// Numeric fields are pointers so a missing value can be told apart from zero.
type RawReading struct {
	ReadingID          string   `json:"reading_id,omitempty"`
	TankID             string   `json:"tank_id"`
	ProjectID          string   `json:"project_id,omitempty"`
	FluidTemperatureC  *float64 `json:"fluid_temperature_c"`
	ObservedDensityGcc *float64 `json:"observed_density_gcc"`
	ObservedVolumeM3   *float64 `json:"observed_volume_m3,omitempty"`
	MeasuredAt         string   `json:"measured_at,omitempty"` // RFC3339
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Observation holds the gauge values as measured at the tank.
type Observation struct {
	FluidTemperatureC  float64  `json:"fluid_temperature_c"`
	ObservedDensityGcc float64  `json:"observed_density_gcc"`
	ObservedVolumeM3   *float64 `json:"observed_volume_m3,omitempty"`
}

// TankReading is a parsed gauge reading awaiting correction.
type TankReading struct {
	ID         string
	TankID     string
	ProjectID  string
	Observed   Observation
	MeasuredAt time.Time
	RawPayload []byte
}

// CorrectedReading is a tank reading referred to the 20 °C base.
type CorrectedReading struct {
	ID                 string            `json:"id"`
	TankID             string            `json:"tank_id"`
	ProjectID          string            `json:"project_id,omitempty"`
	Observed           Observation       `json:"observed"`
	Correction         correction.Output `json:"correction"`
	StandardVolume20M3 *float64          `json:"standard_volume_20_m3,omitempty"`
	AlgorithmVersion   string            `json:"algorithm_version"`
	MeasuredAt         time.Time         `json:"measured_at"`
	ProcessedAt        time.Time         `json:"processed_at"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
