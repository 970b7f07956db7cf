// internal/writer/types.go
package writer

import (
	"github.com/tamzrod/modbus-thermolog/internal/poller"
	"github.com/tamzrod/modbus-thermolog/internal/status"
)

// Writer delivers committed poll batches.
type Writer interface {
	Write(res poller.PollResult) error
}

// StatusWriter is the delivery-only contract for logger status.
// It receives a snapshot and writes it verbatim.
// No logic, no state, no interpretation.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// Plan is where and how batches are published.
type Plan struct {
	Topic       string
	StatusTopic string
	QoS         byte
	Session     string // stamped on every message; new per process
}

// BatchMessage is the JSON document published per committed tick.
type BatchMessage struct {
	Session   string           `json:"session"`
	Seq       uint64           `json:"seq"`
	Timestamp int64            `json:"timestamp"`
	Mode      string           `json:"mode"`
	Readings  []ReadingMessage `json:"readings"`
}

type ReadingMessage struct {
	Channel     int     `json:"channel"`
	Temperature float64 `json:"temperature"`
	Raw         uint16  `json:"raw"`
}

// publisher is the exact contract the writers use.
type publisher interface {
	Publish(topic string, qos byte, retain bool, payload []byte) error
}
