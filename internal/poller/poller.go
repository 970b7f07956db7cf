// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-thermolog/internal/convert"
	"github.com/tamzrod/modbus-thermolog/internal/frame"
	"github.com/tamzrod/modbus-thermolog/internal/store"
	"github.com/tamzrod/modbus-thermolog/internal/testmode"
	"github.com/tamzrod/modbus-thermolog/internal/transport"
)

// DefaultTimeout bounds one request/response round trip.
const DefaultTimeout = 2 * time.Second

// DefaultQuiet is how long the line must stay silent after a lost
// transaction before the next request goes out.
const DefaultQuiet = 50 * time.Millisecond

// Config is the runtime config the poller needs.
type Config struct {
	SlaveID   byte
	Schedule  Schedule
	Timeout   time.Duration
	// Quiet is the silence required before a request that follows a
	// lost transaction.
	Quiet     time.Duration
	VerifyCRC bool
	Mode      Mode
}

// Deps are the collaborators the poller is handed. Transport may be nil
// when only test mode is used; Generator may be nil when it never is.
type Deps struct {
	Transport transport.Transport
	Converter convert.Converter
	Generator *testmode.Generator
	Store     *store.Store
	Logger    zerolog.Logger
	Now       func() time.Time
}

// Poller runs one transaction at a time against one slave, or drives the
// synthetic generator, and commits each tick's batch to the store.
type Poller struct {
	cfg  Config
	tr   transport.Transport
	gen  *testmode.Generator
	st   *store.Store
	log  zerolog.Logger
	now  func() time.Time

	// guarded by mu: reconfigurable between ticks
	mu       sync.Mutex
	conv     convert.Converter
	selected map[int]bool
	start    uint16
	qty      uint16

	state    atomic.Int32
	inFlight atomic.Bool
	skipped  atomic.Uint64
	// set when a transaction was abandoned and its reply may still arrive
	dirty    atomic.Bool

	// mode loop ownership
	loopMu sync.Mutex
	mode   Mode
	parent context.Context
	out    chan<- PollResult
	active *modeLoop
}

// New validates cfg and builds a poller in the Idle state.
func New(cfg Config, d Deps) (*Poller, error) {
	if cfg.Schedule.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if d.Store == nil {
		return nil, errors.New("poller: store required")
	}
	if cfg.Schedule.Plan.Size() == 0 {
		return nil, errors.New("poller: register plan is empty")
	}
	if cfg.Schedule.ChannelCount < 0 || cfg.Schedule.ChannelCount > store.MaxChannel {
		return nil, fmt.Errorf("poller: channel count must be 0..%d", store.MaxChannel)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Quiet <= 0 {
		cfg.Quiet = DefaultQuiet
	}
	if d.Converter == nil {
		c, err := convert.New(convert.Config{Mode: convert.MethodBuiltin})
		if err != nil {
			return nil, err
		}
		d.Converter = c
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	p := &Poller{
		cfg:  cfg,
		tr:   d.Transport,
		gen:  d.Generator,
		st:   d.Store,
		log:  d.Logger.With().Str("component", "poller").Logger(),
		now:  d.Now,
		conv: d.Converter,
	}
	if err := p.checkMode(cfg.Mode); err != nil {
		return nil, err
	}
	p.mode = cfg.Mode

	if err := p.SetChannels(cfg.Schedule.Channels); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Poller) checkMode(m Mode) error {
	switch m {
	case DeviceMode:
		if p.tr == nil {
			return errors.New("poller: device mode requires a transport")
		}
	case TestMode:
		if p.gen == nil {
			return errors.New("poller: test mode requires a generator")
		}
	default:
		return fmt.Errorf("poller: unknown mode %d", m)
	}
	return nil
}

// channelCount is the number of plan entries treated as channels.
func (p *Poller) channelCount() int {
	n := p.cfg.Schedule.Plan.Size()
	if c := p.cfg.Schedule.ChannelCount; c > 0 && c < n {
		n = c
	}
	if n > store.MaxChannel {
		n = store.MaxChannel
	}
	return n
}

// SetChannels replaces the enabled channel set and recomputes the request
// span. Channels beyond the configured count are rejected.
func (p *Poller) SetChannels(chs []int) error {
	limit := p.channelCount()
	selected := make(map[int]bool, len(chs))
	var addrs []uint16

	sorted := append([]int(nil), chs...)
	sort.Ints(sorted)
	for _, ch := range sorted {
		if ch < store.MinChannel || ch > store.MaxChannel {
			return fmt.Errorf("poller: channel %d out of range", ch)
		}
		if selected[ch] {
			continue
		}
		selected[ch] = true
		if ch > limit {
			continue
		}
		addr, _ := p.cfg.Schedule.Plan.Address(ch)
		addrs = append(addrs, addr)
	}
	if len(selected) == 0 {
		return errors.New("poller: at least one channel must be enabled")
	}

	var start, qty uint16
	if len(addrs) > 0 {
		var err error
		if start, qty, err = frame.Span(addrs); err != nil {
			return fmt.Errorf("poller: %w", err)
		}
	}

	p.mu.Lock()
	p.selected = selected
	p.start, p.qty = start, qty
	p.mu.Unlock()
	return nil
}

// SetConverter swaps the conversion strategy used from the next tick on.
func (p *Poller) SetConverter(c convert.Converter) {
	if c == nil {
		return
	}
	p.mu.Lock()
	p.conv = c
	p.mu.Unlock()
}

// State reports the current transaction state.
func (p *Poller) State() State { return State(p.state.Load()) }

// Skipped reports how many ticks found a transaction still in flight.
func (p *Poller) Skipped() uint64 { return p.skipped.Load() }

// Mode reports the active mode.
func (p *Poller) Mode() Mode {
	p.loopMu.Lock()
	defer p.loopMu.Unlock()
	return p.mode
}

func (p *Poller) setState(s State) { p.state.Store(int32(s)) }

// PollOnce performs exactly one tick in the current mode.
// All-or-nothing: a tick either commits its whole batch or nothing.
func (p *Poller) PollOnce(ctx context.Context) PollResult {
	return p.pollOnce(ctx, p.Mode())
}

func (p *Poller) pollOnce(ctx context.Context, mode Mode) PollResult {
	res := PollResult{At: p.now(), Mode: mode}

	if !p.inFlight.CompareAndSwap(false, true) {
		p.skipped.Add(1)
		res.Outcome = OutcomeSkipped
		return res
	}
	defer p.inFlight.Store(false)

	if mode == TestMode {
		return p.pollTest(res)
	}
	return p.pollDevice(ctx, res)
}

// tickPlan is the per-tick copy of the reconfigurable fields.
type tickPlan struct {
	conv     convert.Converter
	selected map[int]bool
	start    uint16
	qty      uint16
}

func (p *Poller) snapshotPlan() tickPlan {
	p.mu.Lock()
	defer p.mu.Unlock()
	return tickPlan{conv: p.conv, selected: p.selected, start: p.start, qty: p.qty}
}

func (p *Poller) pollDevice(ctx context.Context, res PollResult) PollResult {
	plan := p.snapshotPlan()
	if plan.qty == 0 {
		// every enabled channel is beyond the configured count
		res.Outcome = OutcomeCommitted
		return res
	}

	// Idle -> Polling
	p.setState(StatePolling)
	defer p.setState(StateIdle)

	req := frame.BuildReadRequest(p.cfg.SlaveID, plan.start, plan.qty)

	if p.dirty.Swap(false) {
		if err := p.settle(ctx); err != nil {
			return p.lost(ctx, res, err)
		}
	}
	if f, ok := p.tr.(transport.Flusher); ok {
		f.Flush()
	}

	tctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	// Polling -> AwaitingResponse
	if err := p.tr.Write(tctx, req); err != nil {
		return p.lost(ctx, res, fmt.Errorf("%w: write: %v", ErrTransportIO, err))
	}
	p.setState(StateAwaitingResponse)

	adu, err := p.await(tctx)
	if err != nil {
		return p.lost(ctx, res, err)
	}

	// AwaitingResponse -> Parsing
	p.setState(StateParsing)

	values, err := frame.ParseReadResponse(adu, p.cfg.SlaveID, frame.FuncReadHoldingRegisters)
	if err != nil {
		return p.lost(ctx, res, err)
	}
	if p.cfg.VerifyCRC {
		if err := frame.VerifyCRC(adu); err != nil {
			return p.lost(ctx, res, err)
		}
	}
	if len(values) != int(plan.qty) {
		return p.lost(ctx, res, fmt.Errorf("%w: got=%d want=%d", ErrRegisterCount, len(values), plan.qty))
	}

	ts := res.At.UnixMilli()
	b := store.Batch{Timestamp: ts}
	limit := p.channelCount()

	for ch := 1; ch <= limit; ch++ {
		if !plan.selected[ch] {
			continue
		}
		addr, _ := p.cfg.Schedule.Plan.Address(ch)
		raw := values[addr-plan.start]

		t, err := convert.Apply(plan.conv, raw)
		if err != nil {
			res.Dropped++
			p.log.Debug().Err(err).Int("channel", ch).Uint16("raw", raw).Msg("sample dropped")
			continue
		}

		b.Readings = append(b.Readings, store.Reading{
			Timestamp:   ts,
			Channel:     ch,
			Temperature: t,
			RawValue:    raw,
		})
		b.Traces = append(b.Traces, store.RawTrace{
			Timestamp:            ts,
			Channel:              ch,
			RegisterAddress:      addr,
			RawValue:             raw,
			ConvertedTemperature: t,
			ConversionMethod:     plan.conv.Method(),
		})
	}

	return p.commit(res, b)
}

// await collects bytes until a complete response is buffered or ctx ends.
// A partial frame at the deadline is returned for the parser to reject.
func (p *Poller) await(ctx context.Context) ([]byte, error) {
	var buf []byte
	for {
		chunk, err := p.tr.Read(ctx)
		if err != nil {
			if ctx.Err() == nil {
				return nil, fmt.Errorf("%w: read: %v", ErrTransportIO, err)
			}
			if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ctx.Err()
			}
			if len(buf) > 0 {
				return buf, nil
			}
			return nil, ErrTransportTimeout
		}

		buf = append(buf, chunk...)
		if size, ok := frame.ResponseSize(buf); ok && len(buf) >= size {
			return buf[:size], nil
		}
	}
}

// settle reads and discards input until the line has been silent for
// cfg.Quiet. A line that keeps talking for cfg.Timeout past the first
// quiet window is an I/O fault.
func (p *Poller) settle(ctx context.Context) error {
	sctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout+p.cfg.Quiet)
	defer cancel()

	discarded := 0
	for {
		qctx, qcancel := context.WithTimeout(sctx, p.cfg.Quiet)
		chunk, err := p.tr.Read(qctx)
		quiet := qctx.Err() != nil
		qcancel()

		if err == nil {
			discarded += len(chunk)
			continue
		}
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case sctx.Err() != nil:
			return fmt.Errorf("%w: line never went quiet (%d bytes discarded)", ErrTransportIO, discarded)
		case quiet:
			if discarded > 0 {
				p.log.Debug().Int("bytes", discarded).Msg("discarded stale input")
			}
			return nil
		default:
			return fmt.Errorf("%w: read: %v", ErrTransportIO, err)
		}
	}
}

// lost ends a tick without committing anything. The abandoned request
// may still be answered, so the next one waits for a quiet line.
func (p *Poller) lost(ctx context.Context, res PollResult, err error) PollResult {
	p.dirty.Store(true)
	res.Err = err
	switch {
	case ctx.Err() != nil:
		res.Outcome = OutcomeCancelled
		return res
	case errors.Is(err, ErrTransportTimeout):
		p.setState(StateTimedOut)
		res.Outcome = OutcomeTimedOut
		p.log.Debug().Msg("transaction timed out")
	default:
		p.setState(StateFaulted)
		res.Outcome = OutcomeFaulted
		p.log.Warn().Err(err).Msg("transaction faulted")
	}
	return res
}

func (p *Poller) pollTest(res PollResult) PollResult {
	plan := p.snapshotPlan()
	ts := res.At.UnixMilli()
	b := store.Batch{Timestamp: ts}

	for _, r := range p.gen.Generate(ts) {
		if !plan.selected[r.Channel] {
			continue
		}
		if !convert.IsValidTemperature(r.Temperature) {
			res.Dropped++
			continue
		}

		addr, ok := p.cfg.Schedule.Plan.Address(r.Channel)
		if !ok {
			addr = uint16(r.Channel - 1)
		}

		r.Timestamp = ts
		b.Readings = append(b.Readings, r)
		b.Traces = append(b.Traces, store.RawTrace{
			Timestamp:            ts,
			Channel:              r.Channel,
			RegisterAddress:      addr,
			RawValue:             r.RawValue,
			ConvertedTemperature: r.Temperature,
			ConversionMethod:     convert.MethodBuiltin,
		})
	}

	return p.commit(res, b)
}

func (p *Poller) commit(res PollResult, b store.Batch) PollResult {
	if err := p.st.Append(b); err != nil {
		res.Err = fmt.Errorf("%w: %v", ErrStore, err)
		res.Outcome = OutcomeFaulted
		p.log.Error().Err(err).Msg("store append failed")
		return res
	}
	res.Batch = b
	res.Outcome = OutcomeCommitted
	return res
}
