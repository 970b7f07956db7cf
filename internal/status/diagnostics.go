// internal/status/diagnostics.go
package status

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RunDiagnostics reports the store size every interval until ctx ends.
// It only reads Len, which never takes the store lock, so it cannot
// stall a commit. m may be nil.
func RunDiagnostics(ctx context.Context, interval time.Duration, st Sizer, m *Metrics, log zerolog.Logger) {
	if interval <= 0 || st == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log = log.With().Str("component", "diagnostics").Logger()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := st.Len()
			if m != nil {
				m.SetStoreSize(n)
			}
			log.Info().Int("store_size", n).Msg("diagnostics")
		}
	}
}
