// internal/status/tracker.go
package status

import (
	"sync"
	"time"

	"github.com/tamzrod/modbus-thermolog/internal/poller"
)

// Sizer reports the number of stored readings without blocking writers.
type Sizer interface {
	Len() int
}

// Tracker folds poll results and the 1 Hz clock into a Snapshot.
// Seconds in error advance on Tick only, never on Observe.
type Tracker struct {
	mu         sync.Mutex
	snap       Snapshot
	staleAfter time.Duration
	lastSample time.Time
	started    time.Time

	store Sizer
	now   func() time.Time
}

// NewTracker returns a tracker in HealthUnknown. interval is the poll
// interval; store may be nil.
func NewTracker(interval time.Duration, store Sizer, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		snap:       Snapshot{Health: HealthUnknown},
		staleAfter: StaleIntervals * interval,
		started:    now(),
		store:      store,
		now:        now,
	}
}

// Observe applies one tick. Skipped and cancelled ticks say nothing
// about the device. Reports whether the published state changed.
func (t *Tracker) Observe(res poller.PollResult) bool {
	if res.Outcome == poller.OutcomeSkipped || res.Outcome == poller.OutcomeCancelled {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	changed := false
	if res.Mode.String() != t.snap.Mode {
		t.snap.Mode = res.Mode.String()
		changed = true
	}

	if res.Err == nil {
		if len(res.Batch.Readings) > 0 {
			t.lastSample = res.At
			t.snap.LastSampleAt = res.Batch.Timestamp
		}

		// Recovery / OK. A tick with nothing stored does not cure staleness.
		next := HealthOK
		if t.snap.Health == HealthStale && len(res.Batch.Readings) == 0 {
			next = HealthStale
		}
		if t.snap.Health != next {
			t.snap.Health = next
			changed = true
		}
		if next == HealthOK {
			if t.snap.LastErrorCode != 0 {
				t.snap.LastErrorCode = 0
				changed = true
			}
			if t.snap.SecondsInError != 0 {
				t.snap.SecondsInError = 0
				changed = true
			}
		}
		return changed
	}

	if t.snap.Health != HealthError {
		t.snap.Health = HealthError
		changed = true
	}
	if code := ErrorCode(res.Err); t.snap.LastErrorCode != code {
		t.snap.LastErrorCode = code
		changed = true
	}
	return changed
}

// Tick advances the status clock: seconds in error while not OK, and
// OK turns Stale once no sample arrived for StaleIntervals intervals.
func (t *Tracker) Tick() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	changed := false
	if t.snap.Health == HealthOK && t.staleAfter > 0 {
		ref := t.lastSample
		if ref.IsZero() {
			ref = t.started
		}
		if t.now().Sub(ref) > t.staleAfter {
			t.snap.Health = HealthStale
			changed = true
		}
	}

	if t.snap.Health != HealthOK && t.snap.SecondsInError < MaxSecondsInError {
		t.snap.SecondsInError++
		changed = true
	}
	return changed
}

// Snapshot returns the current state with the live store size.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	s := t.snap
	t.mu.Unlock()

	s.HealthName = HealthName(s.Health)
	if t.store != nil {
		s.StoreSize = t.store.Len()
	}
	return s
}

// SetSkipped records the poller's skipped-tick counter.
func (t *Tracker) SetSkipped(n uint64) {
	t.mu.Lock()
	t.snap.Skipped = n
	t.mu.Unlock()
}
