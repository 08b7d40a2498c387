package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tripforge/itinerary-ai/internal/core/domain"
	"github.com/tripforge/itinerary-ai/internal/observability/metrics"
)

type plannerFake struct {
	outcome    *domain.PlanOutcome
	err        error
	lastClient string
	lastReq    domain.PlanRequest
}

func (f *plannerFake) Plan(_ context.Context, clientID string, req domain.PlanRequest) (*domain.PlanOutcome, error) {
	f.lastClient = clientID
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.outcome, nil
}

type readerFake struct {
	itinerary *domain.Itinerary
	freshness *domain.ItineraryFreshness
	err       error
}

func (f *readerFake) Get(context.Context, string) (*domain.Itinerary, *domain.ItineraryFreshness, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.itinerary, f.freshness, nil
}

type exporterFake struct {
	filename string
	payload  []byte
	err      error
}

func (f *exporterFake) ExportXLSX(_ context.Context, _ string, w io.Writer) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	_, _ = w.Write(f.payload)
	return f.filename, nil
}

type refreshQueueFake struct {
	published []string
	err       error
}

func (f *refreshQueueFake) PublishRefreshRequested(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, id)
	return nil
}

func (f *refreshQueueFake) SubscribeRefreshRequested(context.Context, func(context.Context, string) error) error {
	return nil
}

func sampleOutcome() *domain.PlanOutcome {
	return &domain.PlanOutcome{
		Itinerary: &domain.Itinerary{
			ID:          "itin-1",
			Title:       "Tokyo in Spring",
			Destination: "Tokyo",
			StartDate:   "2026-04-10",
			EndDate:     "2026-04-12",
			TotalDays:   3,
			Metadata:    domain.ItineraryMetadata{Model: "sonar-pro"},
		},
		Parse: domain.ParseMetadata{ParseMethod: domain.ParseJSONExtraction, Confidence: 0.95},
		Usage: &domain.TokenUsage{PromptTokens: 100, CompletionTokens: 850, TotalTokens: 950},
	}
}

func newTestRouter(planner *plannerFake, reader *readerFake, exporter *exporterFake, queue *refreshQueueFake, opts ...RouterOption) http.Handler {
	return NewRouter(planner, reader, exporter, queue, metrics.NewHTTPServerMetrics("api"), opts...).Handler()
}

func TestPlanEndpointReturnsOutcome(t *testing.T) {
	planner := &plannerFake{outcome: sampleOutcome()}
	handler := newTestRouter(planner, &readerFake{}, &exporterFake{}, &refreshQueueFake{})

	body := `{"destination":"Tokyo","start_date":"2026-04-10","end_date":"2026-04-12","travelers":{"adults":2}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/itineraries", strings.NewReader(body))
	req.Header.Set("X-Client-Id", "client-a")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", res.Code, res.Body.String())
	}
	if planner.lastClient != "client-a" {
		t.Errorf("client id = %q", planner.lastClient)
	}
	if planner.lastReq.Destination != "Tokyo" {
		t.Errorf("destination = %q", planner.lastReq.Destination)
	}

	var outcome domain.PlanOutcome
	if err := json.NewDecoder(res.Body).Decode(&outcome); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if outcome.Itinerary == nil || outcome.Itinerary.ID != "itin-1" {
		t.Errorf("itinerary = %+v", outcome.Itinerary)
	}
	if res.Header().Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id header")
	}
}

func TestPlanEndpointRecordsTokenUsage(t *testing.T) {
	planner := &plannerFake{outcome: sampleOutcome()}
	handler := newTestRouter(planner, &readerFake{}, &exporterFake{}, &refreshQueueFake{})

	body := `{"destination":"Tokyo","start_date":"2026-04-10","end_date":"2026-04-12","travelers":{"adults":2}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/itineraries", strings.NewReader(body))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("status = %d", res.Code)
	}

	scrape := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	scraped := httptest.NewRecorder()
	handler.ServeHTTP(scraped, scrape)

	exposition := scraped.Body.String()
	if !strings.Contains(exposition, "trip_llm_tokens_total") {
		t.Error("token usage counter missing from the exposition")
	}
	if !strings.Contains(exposition, `model="sonar-pro"`) {
		t.Error("token usage counter missing the model label")
	}
}

func TestPlanEndpointRejectsBadJSON(t *testing.T) {
	handler := newTestRouter(&plannerFake{}, &readerFake{}, &exporterFake{}, &refreshQueueFake{})

	req := httptest.NewRequest(http.MethodPost, "/v1/itineraries", strings.NewReader("{nope"))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", res.Code)
	}
}

func TestPlanEndpointMapsRateLimitWithRetryAfter(t *testing.T) {
	planner := &plannerFake{err: domain.WrapError(domain.ErrRateLimited, "plan itinerary",
		&domain.RateLimitError{RetryAfter: 30 * time.Second})}
	handler := newTestRouter(planner, &readerFake{}, &exporterFake{}, &refreshQueueFake{})

	body := `{"destination":"Tokyo","start_date":"2026-04-10","end_date":"2026-04-12","travelers":{"adults":1}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/itineraries", strings.NewReader(body))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", res.Code)
	}
	if got := res.Header().Get("Retry-After"); got != "30" {
		t.Errorf("Retry-After = %q, want 30", got)
	}
}

func TestPlanEndpointMapsDomainErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", domain.WrapError(domain.ErrInvalidInput, "plan itinerary", errors.New("missing fields")), http.StatusBadRequest},
		{"temporary", domain.WrapError(domain.ErrTemporary, "plan itinerary", errors.New("circuit open")), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestRouter(&plannerFake{err: tc.err}, &readerFake{}, &exporterFake{}, &refreshQueueFake{})

			body := `{"destination":"Tokyo","start_date":"2026-04-10","end_date":"2026-04-12","travelers":{"adults":1}}`
			req := httptest.NewRequest(http.MethodPost, "/v1/itineraries", strings.NewReader(body))
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, req)

			if res.Code != tc.want {
				t.Fatalf("status = %d, want %d", res.Code, tc.want)
			}
		})
	}
}

func TestGetEndpointReturnsItineraryWithFreshness(t *testing.T) {
	reader := &readerFake{
		itinerary: sampleOutcome().Itinerary,
		freshness: &domain.ItineraryFreshness{OverallScore: 0.8, Recommendation: domain.RefreshLow},
	}
	handler := newTestRouter(&plannerFake{}, reader, &exporterFake{}, &refreshQueueFake{})

	req := httptest.NewRequest(http.MethodGet, "/v1/itineraries/itin-1", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", res.Code, res.Body.String())
	}
	var payload struct {
		Itinerary *domain.Itinerary          `json:"itinerary"`
		Freshness *domain.ItineraryFreshness `json:"freshness"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Itinerary == nil || payload.Itinerary.ID != "itin-1" {
		t.Errorf("itinerary = %+v", payload.Itinerary)
	}
	if payload.Freshness == nil || payload.Freshness.OverallScore != 0.8 {
		t.Errorf("freshness = %+v", payload.Freshness)
	}
}

func TestGetEndpointMapsNotFound(t *testing.T) {
	reader := &readerFake{err: domain.WrapError(domain.ErrItineraryNotFound, "get itinerary", errors.New("itin-x"))}
	handler := newTestRouter(&plannerFake{}, reader, &exporterFake{}, &refreshQueueFake{})

	req := httptest.NewRequest(http.MethodGet, "/v1/itineraries/itin-x", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("status = %d", res.Code)
	}
}

func TestRefreshEndpointPublishesAndAccepts(t *testing.T) {
	reader := &readerFake{itinerary: sampleOutcome().Itinerary, freshness: &domain.ItineraryFreshness{}}
	queue := &refreshQueueFake{}
	handler := newTestRouter(&plannerFake{}, reader, &exporterFake{}, queue)

	req := httptest.NewRequest(http.MethodPost, "/v1/itineraries/itin-1/refresh", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", res.Code, res.Body.String())
	}
	if len(queue.published) != 1 || queue.published[0] != "itin-1" {
		t.Errorf("published = %v", queue.published)
	}
}

func TestRefreshEndpointRejectsUnknownItinerary(t *testing.T) {
	reader := &readerFake{err: domain.WrapError(domain.ErrItineraryNotFound, "get itinerary", errors.New("itin-x"))}
	queue := &refreshQueueFake{}
	handler := newTestRouter(&plannerFake{}, reader, &exporterFake{}, queue)

	req := httptest.NewRequest(http.MethodPost, "/v1/itineraries/itin-x/refresh", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("status = %d", res.Code)
	}
	if len(queue.published) != 0 {
		t.Errorf("nothing should be published for an unknown id, got %v", queue.published)
	}
}

func TestExportEndpointStreamsWorkbook(t *testing.T) {
	exporter := &exporterFake{filename: "itinerary-itin-1.xlsx", payload: []byte("xlsx-bytes")}
	handler := newTestRouter(&plannerFake{}, &readerFake{}, exporter, &refreshQueueFake{})

	req := httptest.NewRequest(http.MethodGet, "/v1/itineraries/itin-1/export", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d", res.Code)
	}
	if ct := res.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := res.Header().Get("Content-Disposition"); !strings.Contains(cd, "itinerary-itin-1.xlsx") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !bytes.Equal(res.Body.Bytes(), []byte("xlsx-bytes")) {
		t.Errorf("body = %q", res.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestRouter(&plannerFake{}, &readerFake{}, &exporterFake{}, &refreshQueueFake{})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/v1/itineraries"},
		{http.MethodDelete, "/v1/itineraries/itin-1"},
		{http.MethodGet, "/v1/itineraries/itin-1/refresh"},
		{http.MethodPost, "/v1/itineraries/itin-1/export"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		if res.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: status = %d", tc.method, tc.path, res.Code)
		}
	}
}
