// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/modbus-thermolog/internal/store"
)

// RegisterPlan maps channels to holding registers.
// Either a contiguous range (channel i -> Start+i-1) or, when List is
// non-empty, an explicit ordered list (channel i -> List[i-1]).
type RegisterPlan struct {
	Start uint16
	Count uint16
	List  []uint16
}

// Size is the number of channels the plan can address.
func (p RegisterPlan) Size() int {
	if len(p.List) > 0 {
		return len(p.List)
	}
	return int(p.Count)
}

// Address returns the register for channel ch (1-based).
func (p RegisterPlan) Address(ch int) (uint16, bool) {
	if ch < 1 || ch > p.Size() {
		return 0, false
	}
	if len(p.List) > 0 {
		return p.List[ch-1], true
	}
	return p.Start + uint16(ch-1), true
}

// Schedule is the polling cadence and channel geometry.
type Schedule struct {
	Interval time.Duration

	// Channels lists the enabled channel ids.
	Channels []int

	// ChannelCount caps how many plan entries are treated as channels.
	// Zero means the plan size. Never more than 16.
	ChannelCount int

	Plan RegisterPlan
}

// Mode selects where samples come from.
type Mode int

const (
	DeviceMode Mode = iota
	TestMode
)

func (m Mode) String() string {
	switch m {
	case DeviceMode:
		return "device"
	case TestMode:
		return "test"
	default:
		return "unknown"
	}
}

// State is the transaction state of the device loop.
type State int32

const (
	StateIdle State = iota
	StatePolling
	StateAwaitingResponse
	StateParsing
	StateTimedOut
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateParsing:
		return "parsing"
	case StateTimedOut:
		return "timed_out"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Outcome summarises one tick.
type Outcome int

const (
	OutcomeCommitted Outcome = iota
	OutcomeSkipped
	OutcomeTimedOut
	OutcomeFaulted
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCommitted:
		return "committed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeFaulted:
		return "faulted"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// PollResult is a snapshot produced by one poll cycle.
type PollResult struct {
	At      time.Time
	Mode    Mode
	Outcome Outcome

	// Batch is what was appended to the store. Empty unless committed.
	Batch store.Batch

	// Dropped counts samples rejected by conversion or validation.
	Dropped int

	Err error // non-nil when the tick was lost
}
