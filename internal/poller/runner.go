// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// modeLoop is the ticker goroutine owned by one mode.
type modeLoop struct {
	mode   Mode
	cancel context.CancelFunc
	done   chan struct{}
}

// Run starts the loop for the current mode, emits a PollResult per tick on
// out, and blocks until ctx is done. One loop at a time; no overlap.
func (p *Poller) Run(ctx context.Context, out chan<- PollResult) {
	p.Start(ctx, out)
	<-ctx.Done()
	p.Stop()
}

// Start launches the loop for the current mode. out may be nil.
func (p *Poller) Start(ctx context.Context, out chan<- PollResult) {
	p.loopMu.Lock()
	defer p.loopMu.Unlock()

	p.stopLocked()
	p.parent = ctx
	p.out = out
	p.startLocked()
}

// Stop halts the running loop and waits for it. Any in-flight transaction
// is cancelled; nothing it read afterwards is applied.
func (p *Poller) Stop() {
	p.loopMu.Lock()
	defer p.loopMu.Unlock()

	p.stopLocked()
	p.parent = nil
}

// SetMode switches between device and test mode. The old loop is fully
// stopped before the new one starts, so the modes never interleave.
func (p *Poller) SetMode(m Mode) error {
	if err := p.checkMode(m); err != nil {
		return err
	}

	p.loopMu.Lock()
	defer p.loopMu.Unlock()

	if m == p.mode {
		return nil
	}
	running := p.active != nil
	p.stopLocked()
	p.mode = m
	p.log.Info().Stringer("mode", m).Msg("mode switched")
	if running {
		p.startLocked()
	}
	return nil
}

func (p *Poller) startLocked() {
	if p.parent == nil {
		return
	}
	ctx, cancel := context.WithCancel(p.parent)
	l := &modeLoop{mode: p.mode, cancel: cancel, done: make(chan struct{})}
	p.active = l

	go func() {
		defer close(l.done)
		p.loop(ctx, l.mode, p.out)
	}()
}

func (p *Poller) stopLocked() {
	if p.active == nil {
		return
	}
	p.active.cancel()
	<-p.active.done
	p.active = nil
}

func (p *Poller) loop(ctx context.Context, mode Mode, out chan<- PollResult) {
	ticker := time.NewTicker(p.cfg.Schedule.Interval)
	defer ticker.Stop()

	p.log.Debug().Stringer("mode", mode).Dur("interval", p.cfg.Schedule.Interval).Msg("loop started")
	defer func() {
		p.log.Debug().Stringer("mode", mode).Msg("loop stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res := p.pollOnce(ctx, mode)
			if out == nil || res.Outcome == OutcomeCancelled {
				continue
			}
			select {
			case out <- res:
			case <-ctx.Done():
				return
			}
		}
	}
}
