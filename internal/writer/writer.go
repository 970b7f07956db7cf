// internal/writer/writer.go
package writer

import (
	"encoding/json"
	"fmt"

	"github.com/tamzrod/modbus-thermolog/internal/poller"
)

type mqttWriter struct {
	plan Plan
	pub  publisher
	seq  uint64
}

func New(plan Plan, pub publisher) Writer {
	return &mqttWriter{plan: plan, pub: pub}
}

// Write publishes a committed batch. Failed, skipped and empty ticks
// publish nothing; their effect shows up in the status document.
func (w *mqttWriter) Write(res poller.PollResult) error {
	if res.Outcome != poller.OutcomeCommitted || len(res.Batch.Readings) == 0 {
		return nil
	}

	w.seq++
	msg := BatchMessage{
		Session:   w.plan.Session,
		Seq:       w.seq,
		Timestamp: res.Batch.Timestamp,
		Mode:      res.Mode.String(),
		Readings:  make([]ReadingMessage, 0, len(res.Batch.Readings)),
	}
	for _, r := range res.Batch.Readings {
		msg.Readings = append(msg.Readings, ReadingMessage{
			Channel:     r.Channel,
			Temperature: r.Temperature,
			Raw:         r.RawValue,
		})
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("writer: encode batch: %w", err)
	}
	if err := w.pub.Publish(w.plan.Topic, w.plan.QoS, false, payload); err != nil {
		return fmt.Errorf("writer: topic=%s seq=%d err=%w", w.plan.Topic, w.seq, err)
	}
	return nil
}

// nopWriter is used when no broker is configured.
type nopWriter struct{}

func (nopWriter) Write(poller.PollResult) error { return nil }
