package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	refreshTotal    *prometheus.CounterVec
	refreshDuration *prometheus.HistogramVec
	refreshInFlight prometheus.Gauge
	staleAge        *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	refreshTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trip",
			Subsystem: "worker",
			Name:      "itinerary_refresh_total",
			Help:      "Total itinerary refreshes by status.",
		},
		[]string{"service", "status"},
	)
	refreshDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trip",
			Subsystem: "worker",
			Name:      "itinerary_refresh_duration_seconds",
			Help:      "Itinerary refresh duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	refreshInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "trip",
			Subsystem: "worker",
			Name:      "itinerary_refresh_in_flight",
			Help:      "Number of in-flight itinerary refreshes.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	staleAge := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trip",
			Subsystem: "worker",
			Name:      "refreshed_itinerary_age_seconds",
			Help:      "Age of the itinerary at refresh time.",
			Buckets:   []float64{3600, 10800, 21600, 43200, 86400, 172800, 345600},
		},
		[]string{"service"},
	)

	registry.MustRegister(refreshTotal, refreshDuration, refreshInFlight, staleAge)

	return &WorkerMetrics{
		registry:        registry,
		refreshTotal:    refreshTotal,
		refreshDuration: refreshDuration,
		refreshInFlight: refreshInFlight,
		staleAge:        staleAge,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartRefresh() {
	m.refreshInFlight.Inc()
}

func (m *WorkerMetrics) FinishRefresh(service string, duration time.Duration, err error) {
	m.refreshInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.refreshTotal.WithLabelValues(service, status).Inc()
	m.refreshDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveItineraryAge(service string, age time.Duration) {
	if age < 0 {
		return
	}
	m.staleAge.WithLabelValues(service).Observe(age.Seconds())
}
