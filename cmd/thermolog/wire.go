//go:build wireinject
// +build wireinject

// cmd/thermolog/wire.go
package main

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-thermolog/internal/config"
	"github.com/tamzrod/modbus-thermolog/internal/status"
)

func initApp(c *config.Config, log zerolog.Logger) (*app, func(), error) {
	wire.Build(
		provideTransport,
		provideStore,
		providePoller,
		provideTracker,
		provideOutputs,
		status.NewMetrics,
		newApp,
	)
	return nil, nil, nil // wire will generate the result
}
