// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"

	"github.com/tamzrod/modbus-thermolog/internal/status"
)

// statusWriter publishes the status document as a retained message.
type statusWriter struct {
	plan Plan
	pub  publisher

	needFull bool
	last     status.Snapshot
}

// NewStatusWriter builds a status writer. The first call always publishes.
func NewStatusWriter(plan Plan, pub publisher) StatusWriter {
	return &statusWriter{
		plan:     plan,
		pub:      pub,
		needFull: true,
	}
}

// WriteStatus delivers a snapshot if it differs from the last one the
// broker accepted. On any failure, the next call re-publishes.
func (sw *statusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil || sw.pub == nil {
		return errors.New("status writer: disabled")
	}

	// ------------------------------------------------------------
	// HARD INVARIANT: seconds_in_error MUST NOT wrap
	// ------------------------------------------------------------
	if s.SecondsInError > status.MaxSecondsInError {
		s.SecondsInError = status.MaxSecondsInError
	}

	if !sw.needFull && s == sw.last {
		return nil
	}

	payload, err := status.Encode(s)
	if err != nil {
		return fmt.Errorf("status writer: encode: %w", err)
	}
	if err := sw.pub.Publish(sw.plan.StatusTopic, sw.plan.QoS, true, payload); err != nil {
		sw.needFull = true
		return fmt.Errorf("status writer: topic=%s err=%w", sw.plan.StatusTopic, err)
	}

	sw.needFull = false
	sw.last = s
	return nil
}

type nopStatusWriter struct{}

func (nopStatusWriter) WriteStatus(status.Snapshot) error { return nil }
