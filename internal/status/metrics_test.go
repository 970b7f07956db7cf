// internal/status/metrics_test.go
package status

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-thermolog/internal/poller"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics err=%v", err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body err=%v", err)
	}
	return string(b)
}

func TestMetrics_ObserveResult(t *testing.T) {
	m := NewMetrics()

	res := committed(time.Now(), 2)
	res.Dropped = 1
	m.ObserveResult(res)
	m.ObserveResult(poller.PollResult{Mode: poller.DeviceMode, Outcome: poller.OutcomeTimedOut})
	m.ObserveSnapshot(Snapshot{Health: HealthError, SecondsInError: 7, StoreSize: 12})

	body := scrape(t, m)
	for _, want := range []string{
		`thermolog_ticks_total{mode="device",outcome="committed"} 1`,
		`thermolog_ticks_total{mode="device",outcome="timed_out"} 1`,
		`thermolog_samples_dropped_total 1`,
		`thermolog_readings_total 2`,
		`thermolog_temperature_celsius{channel="2"} 20`,
		`thermolog_health 2`,
		`thermolog_seconds_in_error 7`,
		`thermolog_store_readings 12`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestEncode(t *testing.T) {
	b, err := Encode(Snapshot{Health: HealthStale, LastErrorCode: 0x0200, Mode: "device", StoreSize: 3})
	if err != nil {
		t.Fatalf("Encode() err=%v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal err=%v", err)
	}
	if got["health_name"] != "stale" || got["last_error_code"] != float64(0x0200) || got["store_size"] != float64(3) {
		t.Fatalf("encoded=%s", b)
	}
}

type countingSizer struct{ calls atomic.Int32 }

func (c *countingSizer) Len() int {
	c.calls.Add(1)
	return 5
}

func TestRunDiagnostics(t *testing.T) {
	m := NewMetrics()
	st := &countingSizer{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunDiagnostics(ctx, 5*time.Millisecond, st, m, zerolog.Nop())
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for st.calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("diagnostics never ran")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	if !strings.Contains(scrape(t, m), "thermolog_store_readings 5") {
		t.Fatalf("store gauge not updated")
	}
}
