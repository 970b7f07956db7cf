// internal/config/validate.go
package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/tamzrod/modbus-thermolog/internal/convert"
	"github.com/tamzrod/modbus-thermolog/internal/frame"
	"github.com/tamzrod/modbus-thermolog/internal/store"
)

const maxChannels = 16

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration. Zero values that Normalize fills
// in are accepted.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}

	// ------------------------------------------------------------
	// SOURCE
	// ------------------------------------------------------------

	src := cfg.Source
	if !cfg.TestMode.Enabled && src.Port == "" {
		return fmt.Errorf("source.port is required unless test_mode is enabled")
	}
	if src.SlaveID > 247 {
		return fmt.Errorf("source.slave_id %d out of range 0..247", src.SlaveID)
	}
	if src.TimeoutMs < 0 {
		return fmt.Errorf("source.timeout_ms must be >= 0")
	}
	if src.QuietMs < 0 {
		return fmt.Errorf("source.quiet_ms must be >= 0")
	}
	switch strings.ToUpper(src.Parity) {
	case "", "N", "E", "O":
	default:
		return fmt.Errorf("source.parity %q must be N, E or O", src.Parity)
	}

	// ------------------------------------------------------------
	// POLL GEOMETRY
	// ------------------------------------------------------------

	poll := cfg.Poll
	if poll.IntervalSeconds < 0 || math.IsNaN(poll.IntervalSeconds) || math.IsInf(poll.IntervalSeconds, 0) {
		return fmt.Errorf("poll.interval_seconds must be > 0")
	}
	if poll.ChannelCount < 0 || poll.ChannelCount > maxChannels {
		return fmt.Errorf("poll.channel_count must be 0..%d", maxChannels)
	}

	regs := poll.Registers
	if len(regs.List) > 0 && regs.Count != 0 {
		return fmt.Errorf("poll.registers: set either count or list, not both")
	}
	size := int(regs.Count)
	if len(regs.List) > 0 {
		size = len(regs.List)
	}
	if size > maxChannels {
		return fmt.Errorf("poll.registers: %d entries, at most %d channels", size, maxChannels)
	}
	if len(regs.List) == 0 && int(regs.Start)+int(regs.Count) > 65536 {
		return fmt.Errorf("poll.registers: range %d+%d exceeds address space", regs.Start, regs.Count)
	}
	seen := make(map[uint16]bool, len(regs.List))
	for _, a := range regs.List {
		if seen[a] {
			return fmt.Errorf("poll.registers.list: duplicate address %d", a)
		}
		seen[a] = true
	}
	if len(regs.List) > 0 {
		if _, _, err := frame.Span(regs.List); err != nil {
			return fmt.Errorf("poll.registers.list: %w", err)
		}
	}

	for _, ch := range poll.Channels {
		if ch < 1 || ch > maxChannels {
			return fmt.Errorf("poll.channels: channel %d out of range 1..%d", ch, maxChannels)
		}
	}

	// ------------------------------------------------------------
	// CONVERSION
	// ------------------------------------------------------------

	conv := cfg.Conversion
	switch convert.Method(conv.Mode) {
	case "", convert.MethodBuiltin:
	case convert.MethodCustom:
		if _, err := convert.Preview(convert.Config{
			Mode:      convert.MethodCustom,
			Formula:   conv.Formula,
			TestValue: conv.TestValue,
		}); err != nil {
			return fmt.Errorf("conversion.formula: %w", err)
		}
	default:
		return fmt.Errorf("conversion.mode %q must be builtin or custom", conv.Mode)
	}

	// ------------------------------------------------------------
	// TEST MODE
	// ------------------------------------------------------------

	tm := cfg.TestMode
	if tm.Min > tm.Max {
		return fmt.Errorf("test_mode: min %v greater than max %v", tm.Min, tm.Max)
	}
	if tm.Min < convert.MinTemperature || tm.Max > convert.MaxTemperature {
		return fmt.Errorf("test_mode: range must lie within %v..%v", convert.MinTemperature, convert.MaxTemperature)
	}
	if tm.NoiseLevel < 0 {
		return fmt.Errorf("test_mode.noise_level must be >= 0")
	}

	// ------------------------------------------------------------
	// STORE
	// ------------------------------------------------------------

	st := cfg.Store
	if st.HighWater < 0 || st.LowWater < 0 || st.HardCap < 0 {
		return fmt.Errorf("store: limits must be >= 0")
	}
	// compare the limits Normalize will produce, not the raw fields
	high, low, hardCap := st.HighWater, st.LowWater, st.HardCap
	if high == 0 {
		high = store.DefaultHighWater
	}
	if low == 0 {
		low = high * 3 / 4
	}
	if hardCap == 0 {
		hardCap = high
	}
	if low <= 0 || low >= high {
		return fmt.Errorf("store: low_water %d must be > 0 and below high_water %d", low, high)
	}
	if hardCap < high {
		return fmt.Errorf("store: hard_cap %d must be >= high_water %d", hardCap, high)
	}

	// ------------------------------------------------------------
	// OUTPUTS
	// ------------------------------------------------------------

	if cfg.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2")
	}
	if cfg.Metrics.DiagnosticsIntervalMs < 0 {
		return fmt.Errorf("metrics.diagnostics_interval_ms must be >= 0")
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("log.format %q must be console or json", cfg.Log.Format)
	}

	return nil
}
