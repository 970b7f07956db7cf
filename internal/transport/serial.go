// internal/transport/serial.go
package transport

import (
	"errors"
	"time"

	"github.com/goburrow/serial"
)

// SerialConfig describes a physical RTU line.
type SerialConfig struct {
	Port     string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string // "N", "E", "O"

	// ReadTimeout bounds a single read on the port; it is an idle-line
	// poll interval, not the transaction deadline.
	ReadTimeout time.Duration
}

// OpenSerial opens the port and wraps it in a Stream.
func OpenSerial(cfg SerialConfig) (*Stream, error) {
	if cfg.Port == "" {
		return nil, errors.New("transport: serial port required")
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 100 * time.Millisecond
	}

	port, err := serial.Open(&serial.Config{
		Address:  cfg.Port,
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		StopBits: cfg.StopBits,
		Parity:   cfg.Parity,
		Timeout:  cfg.ReadTimeout,
	})
	if err != nil {
		return nil, err
	}
	return NewStream(port), nil
}
