// internal/status/metrics.go
package status

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tamzrod/modbus-thermolog/internal/poller"
)

// ------------------ Prometheus metrics ------------------

// Metrics exports tick outcomes, health and the store size.
type Metrics struct {
	reg *prometheus.Registry

	ticks          *prometheus.CounterVec
	dropped        prometheus.Counter
	readings       prometheus.Counter
	lastTemp       *prometheus.GaugeVec
	health         prometheus.Gauge
	secondsInError prometheus.Gauge
	storeSize      prometheus.Gauge
}

// NewMetrics registers every collector on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thermolog_ticks_total",
			Help: "Poll ticks by mode and outcome.",
		}, []string{"mode", "outcome"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "thermolog_samples_dropped_total",
			Help: "Samples discarded by conversion or range checks.",
		}),
		readings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "thermolog_readings_total",
			Help: "Readings committed to the store.",
		}),
		lastTemp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "thermolog_temperature_celsius",
			Help: "Last committed temperature per channel (°C).",
		}, []string{"channel"}),
		health: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "thermolog_health",
			Help: "Health code: 0 unknown, 1 ok, 2 error, 3 stale.",
		}),
		secondsInError: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "thermolog_seconds_in_error",
			Help: "Seconds since the logger left the OK state.",
		}),
		storeSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "thermolog_store_readings",
			Help: "Readings currently held in memory.",
		}),
	}

	m.reg.MustRegister(m.ticks, m.dropped, m.readings, m.lastTemp, m.health, m.secondsInError, m.storeSize)
	return m
}

// ObserveResult counts one tick.
func (m *Metrics) ObserveResult(res poller.PollResult) {
	m.ticks.WithLabelValues(res.Mode.String(), res.Outcome.String()).Inc()
	m.dropped.Add(float64(res.Dropped))
	if res.Outcome != poller.OutcomeCommitted {
		return
	}
	m.readings.Add(float64(len(res.Batch.Readings)))
	for _, r := range res.Batch.Readings {
		m.lastTemp.WithLabelValues(strconv.Itoa(r.Channel)).Set(r.Temperature)
	}
}

// ObserveSnapshot mirrors the status snapshot.
func (m *Metrics) ObserveSnapshot(s Snapshot) {
	m.health.Set(float64(s.Health))
	m.secondsInError.Set(float64(s.SecondsInError))
	m.storeSize.Set(float64(s.StoreSize))
}

// SetStoreSize updates the store gauge.
func (m *Metrics) SetStoreSize(n int) { m.storeSize.Set(float64(n)) }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
