package perplexity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tripforge/itinerary-ai/internal/core/domain"
	"github.com/tripforge/itinerary-ai/internal/infrastructure/resilience"
)

func planRequest() domain.PlanRequest {
	return domain.PlanRequest{
		Destination: "Tokyo, Japan",
		StartDate:   "2026-04-10",
		EndDate:     "2026-04-12",
		Travelers:   domain.Travelers{Adults: 2, Children: 1},
		Interests:   []string{"food", "temples"},
		Budget:      "medium",
	}
}

func TestGenerateItineraryRequestShape(t *testing.T) {
	var captured chatRequest
	var authHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		authHeader = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{
			"model": "sonar-pro",
			"choices": [{"message": {"content": "{\"title\":\"Tokyo Adventure\"}"}}],
			"citations": ["https://www.japan.travel/en/tokyo/"],
			"related_questions": ["Best time to visit Tokyo?"],
			"usage": {"prompt_tokens": 100, "completion_tokens": 400, "total_tokens": 500}
		}`))
	}))
	defer server.Close()

	client := New(server.URL, "test-key", "sonar-pro")
	resp, err := client.GenerateItinerary(context.Background(), planRequest())
	if err != nil {
		t.Fatalf("GenerateItinerary() error = %v", err)
	}

	if authHeader != "Bearer test-key" {
		t.Fatalf("authorization header = %q", authHeader)
	}
	if captured.Model != "sonar-pro" {
		t.Fatalf("model = %q", captured.Model)
	}
	if !captured.ReturnCitations || !captured.ReturnRelatedQuestions {
		t.Fatalf("search flags not set: %+v", captured)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Fatalf("messages: %+v", captured.Messages)
	}
	prompt := captured.Messages[1].Content
	for _, want := range []string{"Tokyo, Japan", "2026-04-10", "2 adults", "1 children", "food, temples", "medium"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}

	if resp.Content != `{"title":"Tokyo Adventure"}` {
		t.Fatalf("content = %q", resp.Content)
	}
	if len(resp.Citations) != 1 || resp.Usage.TotalTokens != 500 {
		t.Fatalf("metadata not carried: %+v", resp)
	}
}

func TestGenerateItineraryStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limit exceeded, retry-after: 30", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(server.URL, "test-key", "sonar-pro")
	_, err := client.GenerateItinerary(context.Background(), planRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected HTTPStatusError, got %T: %v", err, err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d", statusErr.StatusCode)
	}
	if !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Fatalf("body missing from error: %v", err)
	}
}

func TestGenerateItineraryEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model": "sonar-pro", "choices": []}`))
	}))
	defer server.Close()

	client := New(server.URL, "test-key", "sonar-pro")
	_, err := client.GenerateItinerary(context.Background(), planRequest())
	if err == nil || !strings.Contains(err.Error(), "empty choices") {
		t.Fatalf("expected empty choices error, got %v", err)
	}
}

func TestClassifyFuncUsesHTTPStatus(t *testing.T) {
	classify := NewClassifyFunc(resilience.NewClassifier())

	class := classify(&HTTPStatusError{
		Operation:  "plan_itinerary",
		StatusCode: http.StatusTooManyRequests,
		Status:     "429 Too Many Requests",
		Body:       "rate limit exceeded, retry-after: 30",
	})
	if class.Kind != resilience.KindRateLimit {
		t.Fatalf("kind = %s", class.Kind)
	}
	if !class.Retryable {
		t.Fatal("429 must be retryable")
	}
	if class.RetryAfter <= 0 {
		t.Fatalf("retry-after not extracted: %v", class.RetryAfter)
	}

	class = classify(&HTTPStatusError{StatusCode: http.StatusUnauthorized, Status: "401 Unauthorized"})
	if class.Kind != resilience.KindAuthentication || class.Retryable {
		t.Fatalf("401 classification: %+v", class)
	}
}
