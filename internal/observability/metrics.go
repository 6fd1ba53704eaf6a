package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for checks, deliveries and the scheduler.
type Metrics struct {
	ChecksTotal          *prometheus.CounterVec   // labels: status
	CheckDuration        prometheus.Histogram     // seconds per RunCheck
	WeatherFetchDuration *prometheus.HistogramVec // labels: outcome={success,error}
	DeliveriesTotal      *prometheus.CounterVec   // labels: outcome={sent,auth,transport,rejected}
	Retries              *prometheus.CounterVec   // labels: stage={fetch,send}
	Subscriptions        prometheus.Gauge
	SchedulerTicks       prometheus.Counter
	DispatchedChecks     prometheus.Counter
	EventsPublishErrors  prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		ChecksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "umbrella_agent",
			Name:      "checks_total",
			Help:      "Weather checks by outcome status.",
		}, []string{"status"}),
		CheckDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "umbrella_agent",
			Name:      "check_duration_seconds",
			Help:      "Duration of a complete check (fetch, decide, notify).",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		WeatherFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "umbrella_agent",
			Name:      "weather_fetch_duration_seconds",
			Help:      "Weather provider request duration.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"outcome"}),
		DeliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "umbrella_agent",
			Name:      "deliveries_total",
			Help:      "Email deliveries by outcome.",
		}, []string{"outcome"}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "umbrella_agent",
			Name:      "retries_total",
			Help:      "Retried transient failures by stage.",
		}, []string{"stage"}),
		Subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "umbrella_agent",
			Name:      "subscriptions",
			Help:      "Scheduled subscriptions.",
		}),
		SchedulerTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "umbrella_agent",
			Name:      "scheduler_ticks_total",
			Help:      "Scheduler clock ticks evaluated.",
		}),
		DispatchedChecks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "umbrella_agent",
			Name:      "scheduler_dispatched_total",
			Help:      "Checks dispatched by the scheduler.",
		}),
		EventsPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "umbrella_agent",
			Name:      "events_publish_errors_total",
			Help:      "Check events that could not be published.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ChecksTotal,
		m.CheckDuration,
		m.WeatherFetchDuration,
		m.DeliveriesTotal,
		m.Retries,
		m.Subscriptions,
		m.SchedulerTicks,
		m.DispatchedChecks,
		m.EventsPublishErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
