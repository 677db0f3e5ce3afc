// Package metrics exposes Prometheus instruments for the signal pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline instruments. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal        *prometheus.CounterVec // labels: job, status
	RunDuration      *prometheus.HistogramVec
	FetchErrorsTotal *prometheus.CounterVec // labels: source, reason
	RetriesTotal     *prometheus.CounterVec // labels: source
	CandlesFetched   prometheus.Counter
	TransitionsTotal *prometheus.CounterVec // labels: action
	HeldCoins        prometheus.Gauge
	TrackedCoins     prometheus.Gauge
	LastSuccess      prometheus.Gauge
	NotifyFailures   prometheus.Counter
}

// NewMetrics creates the instruments on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coinsentinel_runs_total",
			Help: "Pipeline runs by job and outcome",
		}, []string{"job", "status"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coinsentinel_run_duration_seconds",
			Help:    "Wall time of a pipeline run",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"job"}),
		FetchErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coinsentinel_fetch_errors_total",
			Help: "Candle fetches that failed after retries",
		}, []string{"source", "reason"}),
		RetriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coinsentinel_rate_limit_retries_total",
			Help: "Requests retried after a rate-limit response",
		}, []string{"source"}),
		CandlesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coinsentinel_candles_fetched_total",
			Help: "Daily candles received from the exchange",
		}),
		TransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coinsentinel_transitions_total",
			Help: "Position changes applied by the reconciler",
		}, []string{"action"}),
		HeldCoins: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coinsentinel_held_coins",
			Help: "Coins currently marked as bought",
		}),
		TrackedCoins: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coinsentinel_tracked_coins",
			Help: "Coins in the tracked universe",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coinsentinel_last_success_timestamp_seconds",
			Help: "Unix time of the last successful daily run",
		}),
		NotifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coinsentinel_notify_failures_total",
			Help: "Notifications that could not be delivered",
		}),
	}

	m.registry.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.FetchErrorsTotal,
		m.RetriesTotal,
		m.CandlesFetched,
		m.TransitionsTotal,
		m.HeldCoins,
		m.TrackedCoins,
		m.LastSuccess,
		m.NotifyFailures,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRun(job, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(job, status).Inc()
	m.RunDuration.WithLabelValues(job).Observe(seconds)
}

func (m *Metrics) FetchError(source, reason string) {
	if m == nil {
		return
	}
	m.FetchErrorsTotal.WithLabelValues(source, reason).Inc()
}

func (m *Metrics) Retry(source string) {
	if m == nil {
		return
	}
	m.RetriesTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) Candles(n int) {
	if m == nil {
		return
	}
	m.CandlesFetched.Add(float64(n))
}

func (m *Metrics) Transition(action string) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(action).Inc()
}

// SetHoldings updates the coin gauges.
func (m *Metrics) SetHoldings(tracked, held int) {
	if m == nil {
		return
	}
	m.TrackedCoins.Set(float64(tracked))
	m.HeldCoins.Set(float64(held))
}

func (m *Metrics) MarkSuccess(unix int64) {
	if m == nil {
		return
	}
	m.LastSuccess.Set(float64(unix))
}

func (m *Metrics) NotifyFailed() {
	if m == nil {
		return
	}
	m.NotifyFailures.Inc()
}
