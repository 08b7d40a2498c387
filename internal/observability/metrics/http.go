package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	plansTotal          *prometheus.CounterVec
	parseConfidence     *prometheus.HistogramVec
	parseMethodTotal    *prometheus.CounterVec
	cacheLookupsTotal   *prometheus.CounterVec
	limiterBlockedTotal *prometheus.CounterVec
	fallbackTotal       *prometheus.CounterVec
	retryAttempts       *prometheus.HistogramVec
	llmTokensTotal      *prometheus.CounterVec
	refreshPublished    *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trip",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trip",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "trip",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	plansTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trip",
			Subsystem: "pipeline",
			Name:      "plans_total",
			Help:      "Total plan requests by outcome (generated, cached, fallback, error).",
		},
		[]string{"service", "outcome"},
	)
	parseConfidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trip",
			Subsystem: "pipeline",
			Name:      "parse_confidence",
			Help:      "Distribution of parse confidence scores.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"service"},
	)
	parseMethodTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trip",
			Subsystem: "pipeline",
			Name:      "parse_method_total",
			Help:      "Total accepted parses by extraction strategy.",
		},
		[]string{"service", "method"},
	)
	cacheLookupsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trip",
			Subsystem: "pipeline",
			Name:      "cache_lookups_total",
			Help:      "Total plan cache lookups by result.",
		},
		[]string{"service", "result"},
	)
	limiterBlockedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trip",
			Subsystem: "pipeline",
			Name:      "limiter_blocked_total",
			Help:      "Total plan requests blocked by the rate limiter.",
		},
		[]string{"service"},
	)
	fallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trip",
			Subsystem: "pipeline",
			Name:      "fallback_total",
			Help:      "Total fallback results served by strategy.",
		},
		[]string{"service", "strategy"},
	)
	retryAttempts := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trip",
			Subsystem: "pipeline",
			Name:      "retry_attempts",
			Help:      "Distribution of failed attempts per generation call.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		},
		[]string{"service"},
	)
	llmTokensTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trip",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Token usage by direction.",
		},
		[]string{"service", "direction", "model"},
	)
	refreshPublished := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trip",
			Subsystem: "pipeline",
			Name:      "refresh_published_total",
			Help:      "Total refresh events published by trigger.",
		},
		[]string{"service", "trigger"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		plansTotal,
		parseConfidence,
		parseMethodTotal,
		cacheLookupsTotal,
		limiterBlockedTotal,
		fallbackTotal,
		retryAttempts,
		llmTokensTotal,
		refreshPublished,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		plansTotal:          plansTotal,
		parseConfidence:     parseConfidence,
		parseMethodTotal:    parseMethodTotal,
		cacheLookupsTotal:   cacheLookupsTotal,
		limiterBlockedTotal: limiterBlockedTotal,
		fallbackTotal:       fallbackTotal,
		retryAttempts:       retryAttempts,
		llmTokensTotal:      llmTokensTotal,
		refreshPublished:    refreshPublished,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/v1/itineraries/") {
		return path
	}
	switch {
	case strings.HasSuffix(path, "/refresh"):
		return "/v1/itineraries/{itinerary_id}/refresh"
	case strings.HasSuffix(path, "/export"):
		return "/v1/itineraries/{itinerary_id}/export"
	default:
		return "/v1/itineraries/{itinerary_id}"
	}
}

func (m *HTTPServerMetrics) RecordPlanOutcome(service, outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.plansTotal.WithLabelValues(service, outcome).Inc()
}

func (m *HTTPServerMetrics) RecordParse(service, method string, confidence float64) {
	if method == "" {
		method = "unknown"
	}
	m.parseMethodTotal.WithLabelValues(service, method).Inc()
	m.parseConfidence.WithLabelValues(service).Observe(confidence)
}

func (m *HTTPServerMetrics) RecordCacheLookup(service string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookupsTotal.WithLabelValues(service, result).Inc()
}

func (m *HTTPServerMetrics) RecordLimiterBlocked(service string) {
	m.limiterBlockedTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordFallback(service, strategy string) {
	if strategy == "" {
		strategy = "unknown"
	}
	m.fallbackTotal.WithLabelValues(service, strategy).Inc()
}

func (m *HTTPServerMetrics) RecordRetryAttempts(service string, attempts int) {
	m.retryAttempts.WithLabelValues(service).Observe(float64(attempts))
}

func (m *HTTPServerMetrics) RecordTokenUsage(service, model string, promptTokens, completionTokens int) {
	if model == "" {
		model = "unknown"
	}
	if promptTokens > 0 {
		m.llmTokensTotal.WithLabelValues(service, "in", model).Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.llmTokensTotal.WithLabelValues(service, "out", model).Add(float64(completionTokens))
	}
}

func (m *HTTPServerMetrics) RecordRefreshPublished(service, trigger string) {
	if trigger == "" {
		trigger = "unknown"
	}
	m.refreshPublished.WithLabelValues(service, trigger).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
