// Package domain models tank gauge readings and their correction to the 20 °C
// volume accounting base.
//
// # Data Source
//
// Readings come from the tank gauging collector, which publishes one flat JSON
// object per gauge to the Kafka source topic:
//
//	{
//	  "reading_id": "r-0001",              optional, generated when absent
//	  "tank_id": "TK-101",                 required
//	  "project_id": "field-north",         optional
//	  "fluid_temperature_c": 42.0,         required, °C
//	  "observed_density_gcc": 0.92,        required, g/cm³ at the fluid temperature
//	  "observed_volume_m3": 1250.5,        optional, gross observed volume
//	  "measured_at": "2024-04-26T15:10:00Z" optional, RFC3339
//	}
//
// When measured_at is absent, the Kafka message timestamp is used.
//
// # Corrections
//
// Density correction is delegated to a [Corrector], normally the API 11.1
// engine in package correction. When an observed volume is present, the
// standard volume at 20 °C is derived from the volume correction factor:
//
//	V20 = Vobs · fcv20
//
// Every corrected reading carries the engine's algorithm version so
// downstream consumers can detect when the coefficient set or iteration
// scheme changes.
//
// # ID Generation
//
// Readings without a reading_id get a deterministic ID: the tank ID followed
// by a truncated SHA-256 of tank|measured_at|temperature|density. Replaying
// the same message yields the same ID, which keeps downstream upserts
// idempotent.
package domain
