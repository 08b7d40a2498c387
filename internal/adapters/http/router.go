package httpadapter

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tripforge/itinerary-ai/internal/core/domain"
	"github.com/tripforge/itinerary-ai/internal/core/ports"
	"github.com/tripforge/itinerary-ai/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	planner  ports.ItineraryPlanner
	reader   ports.ItineraryReader
	exporter ports.ItineraryExportService
	queue    ports.RefreshQueue
	metrics  *metrics.HTTPServerMetrics

	rateLimitRPS   float64
	rateLimitBurst int
	maxInFlight    int
}

type RouterOption func(*Router)

// WithTrafficControl enables the outer rate-limit and backpressure gates.
func WithTrafficControl(rps float64, burst, maxInFlight int) RouterOption {
	return func(rt *Router) {
		rt.rateLimitRPS = rps
		rt.rateLimitBurst = burst
		rt.maxInFlight = maxInFlight
	}
}

func NewRouter(
	planner ports.ItineraryPlanner,
	reader ports.ItineraryReader,
	exporter ports.ItineraryExportService,
	queue ports.RefreshQueue,
	httpMetrics *metrics.HTTPServerMetrics,
	opts ...RouterOption,
) *Router {
	rt := &Router{
		planner:  planner,
		reader:   reader,
		exporter: exporter,
		queue:    queue,
		metrics:  httpMetrics,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/itineraries", rt.planItinerary)
	mux.HandleFunc("/v1/itineraries/", rt.itineraryByID)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.maxInFlight > 0 {
		handler = backpressureMiddleware(handler, rt.maxInFlight, backpressureWait)
	}
	if rt.rateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) planItinerary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req domain.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	outcome, err := rt.planner.Plan(r.Context(), clientID(r), req)
	if err != nil {
		rt.recordPlanError(err)
		writeError(w, err)
		return
	}

	rt.recordPlanOutcome(outcome)
	writeJSON(w, http.StatusOK, outcome)
}

func (rt *Router) itineraryByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/itineraries/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "itinerary id is required"})
		return
	}

	switch action {
	case "":
		rt.getItinerary(w, r, id)
	case "refresh":
		rt.scheduleRefresh(w, r, id)
	case "export":
		rt.exportItinerary(w, r, id)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown resource"})
	}
}

func (rt *Router) getItinerary(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	itinerary, freshness, err := rt.reader.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"itinerary": itinerary,
		"freshness": freshness,
	})
}

func (rt *Router) scheduleRefresh(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	// Existence check first so a bogus id gets a 404 instead of queueing
	// work the worker can never complete.
	if _, _, err := rt.reader.Get(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	if err := rt.queue.PublishRefreshRequested(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordRefreshPublished(serviceName, "manual")
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":       "refresh scheduled",
		"itinerary_id": id,
	})
}

func (rt *Router) exportItinerary(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	// Buffer the workbook so a mid-render failure can still produce a
	// clean JSON error response.
	var buf bytes.Buffer
	filename, err := rt.exporter.ExportXLSX(r.Context(), id, &buf)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (rt *Router) recordPlanOutcome(outcome *domain.PlanOutcome) {
	if rt.metrics == nil || outcome == nil {
		return
	}
	switch {
	case outcome.FromCache:
		rt.metrics.RecordCacheLookup(serviceName, true)
		rt.metrics.RecordPlanOutcome(serviceName, "cache_hit")
	case outcome.Fallback != nil:
		rt.metrics.RecordCacheLookup(serviceName, false)
		rt.metrics.RecordPlanOutcome(serviceName, "fallback")
		rt.metrics.RecordFallback(serviceName, outcome.Fallback.Strategy)
	default:
		rt.metrics.RecordCacheLookup(serviceName, false)
		rt.metrics.RecordPlanOutcome(serviceName, "success")
		rt.metrics.RecordParse(serviceName, string(outcome.Parse.ParseMethod), outcome.Parse.Confidence)
	}
	if outcome.Usage != nil && outcome.Itinerary != nil {
		rt.metrics.RecordTokenUsage(serviceName, outcome.Itinerary.Metadata.Model,
			outcome.Usage.PromptTokens, outcome.Usage.CompletionTokens)
	}
	rt.metrics.RecordRetryAttempts(serviceName, len(outcome.Attempts))
}

func (rt *Router) recordPlanError(err error) {
	if rt.metrics == nil {
		return
	}
	if domain.IsKind(err, domain.ErrRateLimited) {
		rt.metrics.RecordLimiterBlocked(serviceName)
		rt.metrics.RecordPlanOutcome(serviceName, "rate_limited")
		return
	}
	rt.metrics.RecordPlanOutcome(serviceName, "error")
}

// clientID identifies the caller for per-client admission control. An
// explicit header wins so gateway deployments can pass through the real
// client identity.
func clientID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Client-Id")); id != "" {
		return id
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
