// internal/config/validate_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tamzrod/modbus-thermolog/internal/store"
)

// helper to build a minimal valid config quickly
func valid() *Config {
	return &Config{
		Source: SourceConfig{Port: "/dev/ttyUSB0", SlaveID: 1},
		Poll: PollConfig{
			IntervalSeconds: 1,
			Channels:        []int{1, 2},
			Registers:       RegistersConfig{Start: 100, Count: 4},
		},
	}
}

// ---- tests ----

func TestValidate_MinimalConfig(t *testing.T) {
	if err := Validate(valid()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_PortOptionalInTestMode(t *testing.T) {
	cfg := valid()
	cfg.Source.Port = ""
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected missing port error, got nil")
	}

	cfg.TestMode.Enabled = true
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative interval", func(c *Config) { c.Poll.IntervalSeconds = -1 }},
		{"channel 17", func(c *Config) { c.Poll.Channels = []int{17} }},
		{"channel 0", func(c *Config) { c.Poll.Channels = []int{0} }},
		{"count and list", func(c *Config) { c.Poll.Registers.List = []uint16{1, 2} }},
		{"too many registers", func(c *Config) { c.Poll.Registers.Count = 17 }},
		{"duplicate list entry", func(c *Config) {
			c.Poll.Registers = RegistersConfig{List: []uint16{3, 3}}
		}},
		{"list span too wide", func(c *Config) {
			c.Poll.Registers = RegistersConfig{List: []uint16{0, 500}}
		}},
		{"bad parity", func(c *Config) { c.Source.Parity = "X" }},
		{"slave id 248", func(c *Config) { c.Source.SlaveID = 248 }},
		{"negative diagnostics interval", func(c *Config) { c.Metrics.DiagnosticsIntervalMs = -1 }},
		{"unknown conversion", func(c *Config) { c.Conversion.Mode = "table" }},
		{"broken formula", func(c *Config) {
			c.Conversion = ConversionConfig{Mode: "custom", Formula: "rawValue *"}
		}},
		{"formula out of range on test value", func(c *Config) {
			c.Conversion = ConversionConfig{Mode: "custom", Formula: "rawValue * 10", TestValue: 500}
		}},
		{"test min above max", func(c *Config) { c.TestMode.Min, c.TestMode.Max = 30, 10 }},
		{"test range beyond physical", func(c *Config) { c.TestMode.Max = 5000 }},
		{"negative noise", func(c *Config) { c.TestMode.NoiseLevel = -0.5 }},
		{"low above high", func(c *Config) { c.Store = StoreConfig{HighWater: 10, LowWater: 10} }},
		{"cap below high", func(c *Config) { c.Store = StoreConfig{HighWater: 10, LowWater: 5, HardCap: 8} }},
		{"cap below default high", func(c *Config) { c.Store = StoreConfig{HardCap: 100} }},
		{"low above default high", func(c *Config) { c.Store = StoreConfig{LowWater: store.DefaultHighWater} }},
		{"high too small for derived low", func(c *Config) { c.Store = StoreConfig{HighWater: 1} }},
		{"cap below explicit high", func(c *Config) { c.Store = StoreConfig{HighWater: 100, HardCap: 50} }},
		{"negative quiet", func(c *Config) { c.Source.QuietMs = -1 }},
		{"qos 3", func(c *Config) { c.MQTT.QoS = 3 }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := valid()
			c.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Fatalf("expected error, got nil")
			}
		})
	}
}

func TestValidate_CustomFormulaAccepted(t *testing.T) {
	cfg := valid()
	cfg.Conversion = ConversionConfig{Mode: "custom", Formula: "rawValue * 0.1", TestValue: 250}
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNormalize_Defaults(t *testing.T) {
	cfg := &Config{Source: SourceConfig{Port: "loopback"}}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	Normalize(cfg)

	if cfg.Source.BaudRate != DefaultBaudRate || cfg.Source.Parity != "N" || cfg.Source.SlaveID != 1 {
		t.Fatalf("serial defaults not applied: %+v", cfg.Source)
	}
	if cfg.Source.VerifyCRC == nil || !*cfg.Source.VerifyCRC {
		t.Fatalf("verify_crc should default to true")
	}
	if cfg.Poll.IntervalSeconds != 1 {
		t.Fatalf("interval=%v", cfg.Poll.IntervalSeconds)
	}
	if cfg.Poll.Registers.Count != 16 || len(cfg.Poll.Channels) != 16 {
		t.Fatalf("plan=%+v channels=%v", cfg.Poll.Registers, cfg.Poll.Channels)
	}
	if cfg.Store.LowWater >= cfg.Store.HighWater || cfg.Store.HardCap < cfg.Store.HighWater {
		t.Fatalf("store defaults inconsistent: %+v", cfg.Store)
	}
	if cfg.TestMode.Min != DefaultTestMin || cfg.TestMode.Max != DefaultTestMax {
		t.Fatalf("test mode defaults: %+v", cfg.TestMode)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("normalized config no longer validates: %v", err)
	}
}

func TestNormalize_ChannelCountLimitsSelection(t *testing.T) {
	cfg := &Config{Poll: PollConfig{ChannelCount: 4, Registers: RegistersConfig{List: []uint16{9, 3, 7, 1, 5, 11}}}}
	Normalize(cfg)

	if len(cfg.Poll.Channels) != 4 {
		t.Fatalf("channels=%v, want 1..4", cfg.Poll.Channels)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thermolog.yaml")
	doc := `
source:
  port: /dev/ttyUSB1
  slave_id: 3
  verify_crc: false
poll:
  interval_seconds: 0.5
  channels: [1, 3]
  registers:
    list: [40, 42, 41]
conversion:
  mode: custom
  formula: "rawValue / 100"
  test_value: 2500
test_mode:
  min: -10
  max: 50
  noise_level: 0.5
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source.SlaveID != 3 || cfg.Source.VerifyCRC == nil || *cfg.Source.VerifyCRC {
		t.Fatalf("source=%+v", cfg.Source)
	}
	if cfg.Poll.IntervalSeconds != 0.5 || len(cfg.Poll.Registers.List) != 3 {
		t.Fatalf("poll=%+v", cfg.Poll)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestParse_UnknownKeyRejected(t *testing.T) {
	if _, err := Parse([]byte("source:\n  prot: /dev/ttyS0\n")); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil): %v", err)
	}
	if cfg == nil {
		t.Fatalf("nil config")
	}
}

func TestDurations(t *testing.T) {
	cfg := valid()
	cfg.Poll.IntervalSeconds = 0.25
	cfg.Source.TimeoutMs = 150
	cfg.Metrics.DiagnosticsIntervalMs = 2000

	if got := cfg.Poll.Interval(); got != 250*time.Millisecond {
		t.Fatalf("Interval()=%v", got)
	}
	if got := cfg.Source.Timeout(); got != 150*time.Millisecond {
		t.Fatalf("Timeout()=%v", got)
	}
	if got := cfg.Metrics.DiagnosticsInterval(); got != 2*time.Second {
		t.Fatalf("DiagnosticsInterval()=%v", got)
	}
}

func TestValidate_PartialStoreLimitsBuildAStore(t *testing.T) {
	cases := []StoreConfig{
		{},
		{HighWater: 100},
		{HighWater: 100, HardCap: 150},
		{LowWater: 10},
		{HardCap: store.DefaultHighWater + 1},
	}

	for _, sc := range cases {
		cfg := valid()
		cfg.Store = sc
		if err := Validate(cfg); err != nil {
			t.Fatalf("%+v: Validate() err=%v", sc, err)
		}
		Normalize(cfg)
		if _, err := store.New(store.Config{
			HighWater: cfg.Store.HighWater,
			LowWater:  cfg.Store.LowWater,
			HardCap:   cfg.Store.HardCap,
		}); err != nil {
			t.Fatalf("%+v: accepted limits rejected by store: %v", sc, err)
		}
	}
}
