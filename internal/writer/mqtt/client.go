// internal/writer/mqtt/client.go
package mqtt

import (
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Client is one broker connection shared by the data and status writers.
type Client struct {
	c       paho.Client
	timeout time.Duration
}

type Config struct {
	Broker   string // e.g. "tcp://localhost:1883"
	ClientID string
	Username string
	Password string
	Timeout  time.Duration
}

// NewClient connects to the broker and waits up to cfg.Timeout.
// Reconnects after a lost connection are left to paho.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Broker == "" {
		return nil, errors.New("writer mqtt: broker required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetKeepAlive(30 * time.Second).
		SetConnectTimeout(cfg.Timeout).
		SetPingTimeout(3 * time.Second).
		SetAutoReconnect(true).
		SetOrderMatters(false)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	c := paho.NewClient(opts)
	t := c.Connect()
	if ok := t.WaitTimeout(cfg.Timeout); !ok {
		return nil, fmt.Errorf("writer mqtt: connect to %s timed out", cfg.Broker)
	}
	if err := t.Error(); err != nil {
		return nil, fmt.Errorf("writer mqtt: connect to %s: %w", cfg.Broker, err)
	}

	return &Client{c: c, timeout: cfg.Timeout}, nil
}

// Publish sends one message and waits for the broker's acknowledgement
// (QoS 1/2) or the local hand-off (QoS 0).
func (c *Client) Publish(topic string, qos byte, retain bool, payload []byte) error {
	t := c.c.Publish(topic, qos, retain, payload)
	if !t.WaitTimeout(c.timeout) {
		return fmt.Errorf("writer mqtt: publish to %s timed out", topic)
	}
	return t.Error()
}

func (c *Client) Close() error {
	if c.c.IsConnectionOpen() {
		c.c.Disconnect(250)
	}
	return nil
}
