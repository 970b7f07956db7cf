// cmd/thermolog/providers.go
package main

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-thermolog/internal/config"
	"github.com/tamzrod/modbus-thermolog/internal/poller"
	"github.com/tamzrod/modbus-thermolog/internal/status"
	"github.com/tamzrod/modbus-thermolog/internal/store"
	"github.com/tamzrod/modbus-thermolog/internal/testmode"
	"github.com/tamzrod/modbus-thermolog/internal/transport"
	"github.com/tamzrod/modbus-thermolog/internal/writer"
)

// outputs groups the data and status writers sharing one broker client.
type outputs struct {
	data   writer.Writer
	status writer.StatusWriter
}

// provideTransport opens the configured line. With no port (test mode
// only) the transport is nil and device mode stays unavailable.
func provideTransport(c *config.Config, log zerolog.Logger) (transport.Transport, func(), error) {
	src := c.Source
	switch src.Port {
	case "":
		return nil, func() {}, nil

	case config.SourcePortLoopback:
		gen, err := testmode.New(testmode.Config{
			Min:        c.TestMode.Min,
			Max:        c.TestMode.Max,
			NoiseLevel: c.TestMode.NoiseLevel,
			Seed:       c.TestMode.Seed + 1,
		})
		if err != nil {
			return nil, nil, err
		}
		lb := transport.NewLoopback(src.SlaveID, loopbackSource(gen, c.Poll.Registers, time.Now))
		log.Info().Uint8("slave_id", src.SlaveID).Msg("using loopback slave")
		return lb, func() { _ = lb.Close() }, nil
	}

	s, err := transport.OpenSerial(transport.SerialConfig{
		Port:     src.Port,
		BaudRate: src.BaudRate,
		DataBits: src.DataBits,
		StopBits: src.StopBits,
		Parity:   src.Parity,
	})
	if err != nil {
		return nil, nil, err
	}
	return s, func() {
		if err := s.Close(); err != nil {
			log.Warn().Err(err).Msg("serial close failed")
		}
	}, nil
}

// loopbackSource answers register reads with synthetic raw values, one
// generator channel per plan entry.
func loopbackSource(gen *testmode.Generator, regs config.RegistersConfig, now func() time.Time) transport.RegisterSource {
	index := make(map[uint16]int, len(regs.List))
	for i, a := range regs.List {
		index[a] = i
	}

	return func(addr uint16) uint16 {
		i, ok := index[addr]
		if !ok {
			if len(regs.List) > 0 || addr < regs.Start {
				return 0
			}
			i = int(addr - regs.Start)
		}
		readings := gen.Generate(now().UnixMilli())
		return readings[i%len(readings)].RawValue
	}
}

func provideStore(c *config.Config) (*store.Store, error) {
	return store.New(store.Config{
		HighWater: c.Store.HighWater,
		LowWater:  c.Store.LowWater,
		HardCap:   c.Store.HardCap,
	})
}

func providePoller(c *config.Config, tr transport.Transport, st *store.Store, log zerolog.Logger) (*poller.Poller, error) {
	return poller.Build(c, tr, st, log)
}

func provideTracker(c *config.Config, st *store.Store) *status.Tracker {
	return status.NewTracker(c.Poll.Interval(), st, time.Now)
}

func provideOutputs(c *config.Config, log zerolog.Logger) (outputs, func(), error) {
	data, st, closeFn, err := writer.Build(c.MQTT, c.Source.Timeout())
	if err != nil {
		return outputs{}, nil, err
	}
	if c.MQTT.Broker != "" {
		log.Info().Str("broker", c.MQTT.Broker).Str("topic", c.MQTT.Topic).Msg("mqtt publishing enabled")
	}
	return outputs{data: data, status: st}, func() {
		if err := closeFn(); err != nil {
			log.Warn().Err(err).Msg("mqtt close failed")
		}
	}, nil
}
