// internal/store/types.go
package store

import "github.com/tamzrod/modbus-thermolog/internal/convert"

// Channel bounds.
const (
	MinChannel = 1
	MaxChannel = 16
)

// Reading is one converted sample. Values are immutable once appended.
type Reading struct {
	Timestamp   int64 // unix ms
	Channel     int
	Temperature float64
	RawValue    uint16

	// CalibratedTemperature is set only by collaborators that apply a
	// per-channel offset; the acquisition path leaves it nil.
	CalibratedTemperature *float64
}

// RawTrace records where a Reading came from.
type RawTrace struct {
	Timestamp            int64
	Channel              int
	RegisterAddress      uint16
	RawValue             uint16
	ConvertedTemperature float64
	ConversionMethod     convert.Method
}

// Batch is everything one tick produced. All entries share Timestamp.
type Batch struct {
	Timestamp int64
	Readings  []Reading
	Traces    []RawTrace
}
