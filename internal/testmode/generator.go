// internal/testmode/generator.go
package testmode

import (
	"errors"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/tamzrod/modbus-thermolog/internal/store"
)

// Channels is the fixed number of synthetic channels.
const Channels = 10

// Config bounds the synthetic signal.
type Config struct {
	Min        float64
	Max        float64
	NoiseLevel float64
	Seed       uint64
}

// Generator produces sine-plus-noise readings for Channels channels.
// Temperatures are ground truth; RawValue is derived from them so it agrees
// with the builtin conversion.
type Generator struct {
	cfg Config

	mu  sync.Mutex
	rng *rand.Rand
}

// New validates cfg and seeds the noise source.
func New(cfg Config) (*Generator, error) {
	if math.IsNaN(cfg.Min) || math.IsNaN(cfg.Max) || cfg.Min > cfg.Max {
		return nil, errors.New("testmode: min must be <= max")
	}
	if cfg.NoiseLevel < 0 || math.IsNaN(cfg.NoiseLevel) {
		return nil, errors.New("testmode: noise level must be >= 0")
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9E3779B97F4A7C15)),
	}, nil
}

// Generate returns one reading per channel for time nowMs.
// Channel selection is the caller's business.
func (g *Generator) Generate(nowMs int64) []store.Reading {
	spread := g.cfg.Max - g.cfg.Min
	amp := g.cfg.NoiseLevel * spread * 0.1

	out := make([]store.Reading, 0, Channels)

	g.mu.Lock()
	defer g.mu.Unlock()

	for ch := 1; ch <= Channels; ch++ {
		base := g.cfg.Min + spread*float64(ch-1)/float64(Channels-1)
		wave := math.Sin(float64(nowMs)/30000+float64(ch)) * spread * 0.2
		noise := (g.rng.Float64()*2 - 1) * amp

		t := clamp(base+wave+noise, g.cfg.Min, g.cfg.Max)

		out = append(out, store.Reading{
			Timestamp:   nowMs,
			Channel:     ch,
			Temperature: t,
			RawValue:    RawFor(t),
		})
	}
	return out
}

// RawFor encodes t as the register value the builtin conversion would read
// back: round(t*10) in 16-bit two's complement.
func RawFor(t float64) uint16 {
	return uint16(int64(math.Round(t * 10)))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
