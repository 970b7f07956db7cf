// internal/config/config.go
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Source     SourceConfig     `yaml:"source"`
	Poll       PollConfig       `yaml:"poll"`
	Conversion ConversionConfig `yaml:"conversion"`
	TestMode   TestModeConfig   `yaml:"test_mode"`
	Store      StoreConfig      `yaml:"store"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Log        LogConfig        `yaml:"log"`
}

// ---- SOURCE ----

// SourcePortLoopback selects the in-process simulated slave.
const SourcePortLoopback = "loopback"

type SourceConfig struct {
	Port      string `yaml:"port"`
	BaudRate  int    `yaml:"baud_rate"`
	DataBits  int    `yaml:"data_bits"`
	Parity    string `yaml:"parity"`
	StopBits  int    `yaml:"stop_bits"`
	SlaveID   uint8  `yaml:"slave_id"`
	TimeoutMs int    `yaml:"timeout_ms"`

	// QuietMs is the silence required on the line before the request
	// that follows a lost transaction. 0 means the poller default.
	QuietMs int `yaml:"quiet_ms"`

	// VerifyCRC rejects responses whose checksum does not match.
	// nil means enabled.
	VerifyCRC *bool `yaml:"verify_crc"`
}

// Timeout is the transaction deadline.
func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

func (s SourceConfig) Quiet() time.Duration {
	return time.Duration(s.QuietMs) * time.Millisecond
}

// ---- POLL GEOMETRY ----

type PollConfig struct {
	IntervalSeconds float64         `yaml:"interval_seconds"`
	Channels        []int           `yaml:"channels"`
	ChannelCount    int             `yaml:"channel_count"`
	Registers       RegistersConfig `yaml:"registers"`
}

// Interval is the poll period, rounded to the nearest nanosecond.
func (p PollConfig) Interval() time.Duration {
	return time.Duration(math.Round(p.IntervalSeconds * float64(time.Second)))
}

// RegistersConfig is either start+count or an explicit list.
type RegistersConfig struct {
	Start uint16   `yaml:"start"`
	Count uint16   `yaml:"count"`
	List  []uint16 `yaml:"list"`
}

// ---- CONVERSION ----

type ConversionConfig struct {
	Mode      string `yaml:"mode"` // builtin | custom
	Formula   string `yaml:"formula"`
	TestValue uint16 `yaml:"test_value"`
}

// ---- TEST MODE ----

type TestModeConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Min        float64 `yaml:"min"`
	Max        float64 `yaml:"max"`
	NoiseLevel float64 `yaml:"noise_level"`
	Seed       uint64  `yaml:"seed"`
}

// ---- STORE ----

type StoreConfig struct {
	HighWater int `yaml:"high_water"`
	LowWater  int `yaml:"low_water"`
	HardCap   int `yaml:"hard_cap"`
}

// ---- OUTPUTS ----

type MQTTConfig struct {
	Broker   string `yaml:"broker"` // empty disables publishing
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	QoS      byte   `yaml:"qos"`
}

type MetricsConfig struct {
	Listen                string `yaml:"listen"` // empty disables /metrics
	DiagnosticsIntervalMs int    `yaml:"diagnostics_interval_ms"`
}

func (m MetricsConfig) DiagnosticsInterval() time.Duration {
	return time.Duration(m.DiagnosticsIntervalMs) * time.Millisecond
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console | json
}

// Load reads a YAML file. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes YAML bytes into a Config.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
