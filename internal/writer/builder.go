// internal/writer/builder.go
package writer

import (
	"time"

	"github.com/google/uuid"

	cfg "github.com/tamzrod/modbus-thermolog/internal/config"
	wmqtt "github.com/tamzrod/modbus-thermolog/internal/writer/mqtt"
)

// BuildPlan converts the mqtt config section into a Plan with a fresh
// session id. Assumes config has already been normalized.
func BuildPlan(c cfg.MQTTConfig) Plan {
	return Plan{
		Topic:       c.Topic,
		StatusTopic: c.Topic + "/status",
		QoS:         c.QoS,
		Session:     uuid.NewString(),
	}
}

// Build connects to the broker and returns the data and status writers
// sharing one client. With no broker configured both writers are no-ops.
func Build(c cfg.MQTTConfig, timeout time.Duration) (Writer, StatusWriter, func() error, error) {
	if c.Broker == "" {
		return nopWriter{}, nopStatusWriter{}, func() error { return nil }, nil
	}

	plan := BuildPlan(c)

	clientID := c.ClientID
	if clientID == "" {
		clientID = "thermolog-" + plan.Session
	}

	cli, err := wmqtt.NewClient(wmqtt.Config{
		Broker:   c.Broker,
		ClientID: clientID,
		Username: c.Username,
		Password: c.Password,
		Timeout:  timeout,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	return New(plan, cli), NewStatusWriter(plan, cli), cli.Close, nil
}
