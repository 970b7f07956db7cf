// cmd/thermolog/app.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/modbus-thermolog/internal/config"
	"github.com/tamzrod/modbus-thermolog/internal/poller"
	"github.com/tamzrod/modbus-thermolog/internal/status"
	"github.com/tamzrod/modbus-thermolog/internal/store"
)

// app owns the running pipeline: poller -> orchestrator -> writers.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	store   *store.Store
	poller  *poller.Poller
	tracker *status.Tracker
	metrics *status.Metrics
	out     outputs
}

func newApp(
	c *config.Config,
	log zerolog.Logger,
	st *store.Store,
	p *poller.Poller,
	tr *status.Tracker,
	m *status.Metrics,
	out outputs,
) *app {
	return &app{cfg: c, log: log, store: st, poller: p, tracker: tr, metrics: m, out: out}
}

// run blocks until ctx is done or a component fails.
func (a *app) run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	results := make(chan poller.PollResult, 16)

	g.Go(func() error {
		a.poller.Run(ctx, results)
		return nil
	})
	g.Go(func() error {
		return a.orchestrate(ctx, results)
	})
	g.Go(func() error {
		status.RunDiagnostics(ctx, a.cfg.Metrics.DiagnosticsInterval(), a.store, a.metrics, a.log)
		return nil
	})
	g.Go(func() error {
		a.watchModeSignal(ctx)
		return nil
	})

	if a.cfg.Metrics.Listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		srv := &http.Server{
			Addr:              a.cfg.Metrics.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			a.log.Info().Str("listen", srv.Addr).Msg("metrics listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	return g.Wait()
}

// orchestrate is the single owner of status state: it consumes poll
// results, delivers data, and drives the 1 Hz status clock.
func (a *app) orchestrate(ctx context.Context, in <-chan poller.PollResult) error {
	log := a.log.With().Str("component", "orchestrator").Logger()

	secTicker := time.NewTicker(status.TickPeriod)
	defer secTicker.Stop()

	// Full status write on start (identity re-assert).
	a.publishStatus(log)

	for {
		select {
		case <-ctx.Done():
			return nil

		case res := <-in:
			a.metrics.ObserveResult(res)

			// --- data delivery ---
			if err := a.out.data.Write(res); err != nil {
				log.Warn().Err(err).Msg("writer error")
			}

			// --- status update ---
			if res.Outcome == poller.OutcomeSkipped {
				a.tracker.SetSkipped(a.poller.Skipped())
			}
			if a.tracker.Observe(res) {
				a.publishStatus(log)
			}

		case <-secTicker.C:
			// NOTE: seconds_in_error increments on this ticker only.
			if a.tracker.Tick() {
				a.publishStatus(log)
			}
		}
	}
}

func (a *app) publishStatus(log zerolog.Logger) {
	s := a.tracker.Snapshot()
	a.metrics.ObserveSnapshot(s)
	if err := a.out.status.WriteStatus(s); err != nil {
		log.Warn().Err(err).Msg("status write failed")
	}
}

// watchModeSignal toggles between device and test mode on SIGUSR1.
func (a *app) watchModeSignal(ctx context.Context) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGUSR1)
	defer signal.Stop(sig)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			next := poller.TestMode
			if a.poller.Mode() == poller.TestMode {
				next = poller.DeviceMode
			}
			if err := a.poller.SetMode(next); err != nil {
				a.log.Warn().Err(err).Stringer("mode", next).Msg("mode switch refused")
			}
		}
	}
}
