// internal/config/normalize.go
package config

import (
	"strings"

	"github.com/tamzrod/modbus-thermolog/internal/store"
)

// Defaults applied by Normalize.
const (
	DefaultBaudRate        = 9600
	DefaultDataBits        = 8
	DefaultStopBits        = 1
	DefaultParity          = "N"
	DefaultSlaveID         = 1
	DefaultTimeoutMs       = 2000
	DefaultIntervalSeconds = 1.0
	DefaultTestMin         = 15.0
	DefaultTestMax         = 35.0
	DefaultTopic           = "thermolog/readings"
	DefaultDiagnosticsMs   = 30000
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "console"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	src := &cfg.Source
	if src.BaudRate == 0 {
		src.BaudRate = DefaultBaudRate
	}
	if src.DataBits == 0 {
		src.DataBits = DefaultDataBits
	}
	if src.StopBits == 0 {
		src.StopBits = DefaultStopBits
	}
	src.Parity = strings.ToUpper(src.Parity)
	if src.Parity == "" {
		src.Parity = DefaultParity
	}
	if src.SlaveID == 0 {
		src.SlaveID = DefaultSlaveID
	}
	if src.TimeoutMs == 0 {
		src.TimeoutMs = DefaultTimeoutMs
	}
	if src.VerifyCRC == nil {
		on := true
		src.VerifyCRC = &on
	}

	poll := &cfg.Poll
	if poll.IntervalSeconds == 0 {
		poll.IntervalSeconds = DefaultIntervalSeconds
	}

	// No register plan: one register per channel starting at 0.
	if poll.Registers.Count == 0 && len(poll.Registers.List) == 0 {
		n := poll.ChannelCount
		if n == 0 {
			n = maxChannels
		}
		poll.Registers.Count = uint16(n)
	}

	// No explicit selection: every channel the plan addresses.
	if len(poll.Channels) == 0 {
		n := int(poll.Registers.Count)
		if len(poll.Registers.List) > 0 {
			n = len(poll.Registers.List)
		}
		if poll.ChannelCount > 0 && poll.ChannelCount < n {
			n = poll.ChannelCount
		}
		for ch := 1; ch <= n; ch++ {
			poll.Channels = append(poll.Channels, ch)
		}
	}

	if cfg.Conversion.Mode == "" {
		cfg.Conversion.Mode = "builtin"
	}

	tm := &cfg.TestMode
	if tm.Min == 0 && tm.Max == 0 {
		tm.Min, tm.Max = DefaultTestMin, DefaultTestMax
	}

	st := &cfg.Store
	if st.HighWater == 0 {
		st.HighWater = store.DefaultHighWater
	}
	if st.LowWater == 0 {
		st.LowWater = st.HighWater * 3 / 4
	}
	if st.HardCap == 0 {
		st.HardCap = st.HighWater
	}

	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = DefaultTopic
	}
	if cfg.Metrics.DiagnosticsIntervalMs == 0 {
		cfg.Metrics.DiagnosticsIntervalMs = DefaultDiagnosticsMs
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
