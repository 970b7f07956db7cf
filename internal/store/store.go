// internal/store/store.go
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// Default retention limits.
const (
	DefaultHighWater = 2_000_000
	DefaultLowWater  = 1_500_000
	DefaultHardCap   = 2_000_000
)

// ErrInvalidChannel rejects a batch containing a channel outside [1,16].
var ErrInvalidChannel = errors.New("store: channel out of range")

// Config holds retention limits. Zero fields take defaults.
type Config struct {
	HighWater int
	LowWater  int
	HardCap   int
}

// Store is an append-only, size-bounded series of readings and their traces.
//
// Whenever an append pushes the count above HighWater, only the newest
// LowWater entries are kept. Eviction and append happen under one lock, so
// readers never see a half-trimmed store.
type Store struct {
	cfg Config

	mu       sync.RWMutex
	readings ring[Reading]
	traces   ring[RawTrace]
	lastTS   int64

	size atomic.Int64
}

// New validates cfg and returns an empty store.
func New(cfg Config) (*Store, error) {
	if cfg.HighWater == 0 {
		cfg.HighWater = DefaultHighWater
	}
	if cfg.LowWater == 0 {
		cfg.LowWater = DefaultLowWater
	}
	if cfg.HardCap == 0 {
		cfg.HardCap = DefaultHardCap
	}
	if cfg.LowWater <= 0 || cfg.LowWater >= cfg.HighWater {
		return nil, errors.New("store: low water mark must be > 0 and below high water mark")
	}
	if cfg.HardCap < cfg.HighWater {
		return nil, errors.New("store: hard cap must be >= high water mark")
	}
	return &Store{cfg: cfg}, nil
}

// Config returns the effective limits.
func (s *Store) Config() Config { return s.cfg }

// Append adds one tick's batch. Every reading and trace is stamped with
// b.Timestamp. The batch is rejected as a whole if any channel is invalid.
func (s *Store) Append(b Batch) error {
	for _, r := range b.Readings {
		if r.Channel < MinChannel || r.Channel > MaxChannel {
			return fmt.Errorf("%w: %d", ErrInvalidChannel, r.Channel)
		}
	}
	for _, t := range b.Traces {
		if t.Channel < MinChannel || t.Channel > MaxChannel {
			return fmt.Errorf("%w: %d", ErrInvalidChannel, t.Channel)
		}
	}
	if len(b.Readings) == 0 && len(b.Traces) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	outOfOrder := b.Timestamp < s.lastTS

	for _, r := range b.Readings {
		r.Timestamp = b.Timestamp
		s.readings.push(r)
	}
	for _, t := range b.Traces {
		t.Timestamp = b.Timestamp
		s.traces.push(t)
	}

	if outOfOrder {
		// Clock went backwards; restore timestamp order so eviction
		// still keeps the newest entries.
		reorder(&s.readings, func(r Reading) int64 { return r.Timestamp })
		reorder(&s.traces, func(t RawTrace) int64 { return t.Timestamp })
	} else {
		s.lastTS = b.Timestamp
	}

	s.evict()
	s.size.Store(int64(s.readings.len()))
	return nil
}

// evict applies the high/low water policy to both series.
// Caller holds mu.
func (s *Store) evict() {
	if s.readings.len() > s.cfg.HighWater {
		s.readings.keepNewest(s.cfg.LowWater)
	}
	if s.traces.len() > s.cfg.HighWater {
		s.traces.keepNewest(s.cfg.LowWater)
	}
}

func reorder[T any](r *ring[T], ts func(T) int64) {
	items := r.items()
	sort.SliceStable(items, func(i, j int) bool { return ts(items[i]) < ts(items[j]) })
	r.load(items)
}

// Replace swaps the whole series for readings (import). Input is ordered by
// timestamp and trimmed to the newest HardCap entries. Trace history is
// cleared since imported data has no provenance.
func (s *Store) Replace(readings []Reading) error {
	items := make([]Reading, 0, len(readings))
	for _, r := range readings {
		if r.Channel < MinChannel || r.Channel > MaxChannel {
			return fmt.Errorf("%w: %d", ErrInvalidChannel, r.Channel)
		}
		items = append(items, r)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Timestamp < items[j].Timestamp })
	if len(items) > s.cfg.HardCap {
		items = items[len(items)-s.cfg.HardCap:]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.readings.reset()
	s.readings.load(items)
	s.traces.reset()
	s.lastTS = 0
	if len(items) > 0 {
		s.lastTS = items[len(items)-1].Timestamp
	}
	s.size.Store(int64(len(items)))
	return nil
}

// Clear empties the store and resets last-sample bookkeeping.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.readings.reset()
	s.traces.reset()
	s.lastTS = 0
	s.size.Store(0)
}

// Len returns the number of readings. Lock-free; safe for diagnostics timers.
func (s *Store) Len() int { return int(s.size.Load()) }

// TraceLen returns the number of raw traces.
func (s *Store) TraceLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.traces.len()
}

// LastSampleAt returns the timestamp of the newest appended batch, or 0.
func (s *Store) LastSampleAt() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastTS
}

// Snapshot returns all readings, oldest first.
func (s *Store) Snapshot() []Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readings.items()
}

// Traces returns all raw traces, oldest first.
func (s *Store) Traces() []RawTrace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.traces.items()
}

// Since returns readings with Timestamp > ts, oldest first.
func (s *Store) Since(ts int64) []Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.readings.len()
	i := sort.Search(n, func(i int) bool { return s.readings.at(i).Timestamp > ts })
	out := make([]Reading, 0, n-i)
	for ; i < n; i++ {
		out = append(out, s.readings.at(i))
	}
	return out
}
