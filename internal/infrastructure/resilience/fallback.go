package resilience

import (
	"fmt"
	"sync"
	"time"

	"github.com/tripforge/itinerary-ai/internal/core/domain"
)

type FallbackStrategy string

const (
	FallbackCachedResponse   FallbackStrategy = "cached_response"
	FallbackBasicTemplate    FallbackStrategy = "basic_template"
	FallbackAlternativeModel FallbackStrategy = "alternative_model"
	FallbackSimplifiedPrompt FallbackStrategy = "simplified_prompt"
	FallbackUserNotification FallbackStrategy = "user_notification"
)

type FallbackResult struct {
	Strategy   FallbackStrategy  `json:"strategy"`
	Success    bool              `json:"success"`
	Itinerary  *domain.Itinerary `json:"itinerary,omitempty"`
	Message    string            `json:"message"`
	Confidence float64           `json:"confidence"`
}

const fallbackCacheLimit = 100

// FallbackEngine converts exhausted retries into degraded results. Successful
// generations are remembered in a small oldest-first cache so a later failure
// for the same destination can serve a possibly stale but real itinerary.
type FallbackEngine struct {
	mu      sync.Mutex
	entries map[string]*domain.Itinerary
	order   []string
}

func NewFallbackEngine() *FallbackEngine {
	return &FallbackEngine{entries: make(map[string]*domain.Itinerary)}
}

func (f *FallbackEngine) Remember(key string, itinerary *domain.Itinerary) {
	if key == "" || itinerary == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.entries[key]; !exists {
		f.order = append(f.order, key)
	}
	f.entries[key] = itinerary

	for len(f.order) > fallbackCacheLimit {
		oldest := f.order[0]
		f.order = f.order[1:]
		delete(f.entries, oldest)
	}
}

// Recover tries each strategy in order and returns the first that succeeds.
// When none does, the last attempted result is returned so the caller still
// gets a message and suggested action. The bool reports whether any strategy
// produced usable data.
func (f *FallbackEngine) Recover(
	req domain.PlanRequest,
	cause ClassifiedError,
	strategies []FallbackStrategy,
) (FallbackResult, bool) {
	last := FallbackResult{
		Strategy: FallbackUserNotification,
		Message:  "itinerary generation failed and no fallback strategies were configured",
	}
	for _, strategy := range strategies {
		result := f.apply(strategy, req, cause)
		if result.Success {
			return result, true
		}
		last = result
	}
	return last, false
}

func (f *FallbackEngine) apply(strategy FallbackStrategy, req domain.PlanRequest, cause ClassifiedError) FallbackResult {
	switch strategy {
	case FallbackCachedResponse:
		return f.cachedResponse(req)
	case FallbackBasicTemplate:
		return f.basicTemplate(req)
	case FallbackUserNotification:
		return FallbackResult{
			Strategy:   FallbackUserNotification,
			Success:    false,
			Message:    fmt.Sprintf("itinerary generation failed (%s): %s", cause.Kind, cause.SuggestedAction),
			Confidence: 0,
		}
	default:
		// alternative_model and simplified_prompt are declared but not
		// implemented; an explicit failure beats a silent no-op.
		return FallbackResult{
			Strategy:   strategy,
			Success:    false,
			Message:    fmt.Sprintf("fallback strategy %q is not implemented", strategy),
			Confidence: 0,
		}
	}
}

func (f *FallbackEngine) cachedResponse(req domain.PlanRequest) FallbackResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	itinerary, ok := f.entries[FallbackCacheKey(req)]
	if !ok && len(f.order) > 0 {
		itinerary = f.entries[f.order[len(f.order)-1]]
		ok = itinerary != nil
	}
	if !ok {
		return FallbackResult{
			Strategy: FallbackCachedResponse,
			Success:  false,
			Message:  "no cached itinerary available",
		}
	}
	return FallbackResult{
		Strategy:   FallbackCachedResponse,
		Success:    true,
		Itinerary:  itinerary,
		Message:    "serving a previously generated itinerary; it may be out of date",
		Confidence: 0.6,
	}
}

func (f *FallbackEngine) basicTemplate(req domain.PlanRequest) FallbackResult {
	now := time.Now().UTC()
	itinerary := &domain.Itinerary{
		Title:       fmt.Sprintf("Trip to %s", req.Destination),
		Destination: req.Destination,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		TotalDays:   1,
		TotalCost:   domain.Cost{Currency: "USD"},
		Travelers:   req.Travelers,
		Days: []domain.ItineraryDay{
			{
				Day:  1,
				Date: req.StartDate,
				Title: "Arrival",
				Activities: []domain.Activity{
					{
						Title:       "Arrive and check in",
						Description: "Settle in and explore the area around your accommodation.",
						Category:    "logistics",
					},
				},
			},
		},
		Metadata: domain.ItineraryMetadata{GeneratedAt: now},
	}
	return FallbackResult{
		Strategy:   FallbackBasicTemplate,
		Success:    true,
		Itinerary:  itinerary,
		Message:    "generated a minimal placeholder itinerary; retry later for a full plan",
		Confidence: 0.3,
	}
}

// FallbackCacheKey derives the lookup key used by Remember and the
// cached_response strategy.
func FallbackCacheKey(req domain.PlanRequest) string {
	return fmt.Sprintf("%s|%s|%s", req.Destination, req.StartDate, req.EndDate)
}
