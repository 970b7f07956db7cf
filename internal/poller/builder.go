// internal/poller/builder.go
package poller

import (
	"github.com/rs/zerolog"

	cfg "github.com/tamzrod/modbus-thermolog/internal/config"
	"github.com/tamzrod/modbus-thermolog/internal/convert"
	"github.com/tamzrod/modbus-thermolog/internal/store"
	"github.com/tamzrod/modbus-thermolog/internal/testmode"
	"github.com/tamzrod/modbus-thermolog/internal/transport"
)

// Build constructs a Poller from a validated, normalized config.
// The transport is owned by the caller; tr may be nil when test mode is
// enabled and no port is configured.
func Build(c *cfg.Config, tr transport.Transport, st *store.Store, log zerolog.Logger) (*Poller, error) {
	conv, err := convert.New(convert.Config{
		Mode:      convert.Method(c.Conversion.Mode),
		Formula:   c.Conversion.Formula,
		TestValue: c.Conversion.TestValue,
	})
	if err != nil {
		return nil, err
	}

	gen, err := testmode.New(testmode.Config{
		Min:        c.TestMode.Min,
		Max:        c.TestMode.Max,
		NoiseLevel: c.TestMode.NoiseLevel,
		Seed:       c.TestMode.Seed,
	})
	if err != nil {
		return nil, err
	}

	mode := DeviceMode
	if c.TestMode.Enabled {
		mode = TestMode
	}

	verify := true
	if c.Source.VerifyCRC != nil {
		verify = *c.Source.VerifyCRC
	}

	return New(
		Config{
			SlaveID: c.Source.SlaveID,
			Schedule: Schedule{
				Interval:     c.Poll.Interval(),
				Channels:     c.Poll.Channels,
				ChannelCount: c.Poll.ChannelCount,
				Plan: RegisterPlan{
					Start: c.Poll.Registers.Start,
					Count: c.Poll.Registers.Count,
					List:  c.Poll.Registers.List,
				},
			},
			Timeout:   c.Source.Timeout(),
			Quiet:     c.Source.Quiet(),
			VerifyCRC: verify,
			Mode:      mode,
		},
		Deps{
			Transport: tr,
			Converter: conv,
			Generator: gen,
			Store:     st,
			Logger:    log,
		},
	)
}
