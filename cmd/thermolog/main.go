// cmd/thermolog/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-thermolog/internal/config"
	"github.com/tamzrod/modbus-thermolog/internal/logging"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: thermolog <config.yaml>")
		os.Exit(2)
	}

	cfgPath := os.Args[1]
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfgPath).Msg("config load failed")
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("config validation failed")
	}
	config.Normalize(cfg)

	root, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		log.Fatal().Err(err).Msg("logger setup failed")
	}
	log = root

	// --------------------
	// Build + run
	// --------------------

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, cleanup, err := initApp(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}

	log.Info().
		Str("port", cfg.Source.Port).
		Uint8("slave_id", cfg.Source.SlaveID).
		Dur("interval", cfg.Poll.Interval()).
		Ints("channels", cfg.Poll.Channels).
		Stringer("mode", a.poller.Mode()).
		Msg("thermolog started")

	err = a.run(ctx)
	cleanup()
	if err != nil {
		log.Error().Err(err).Msg("stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("shutdown complete")
}
