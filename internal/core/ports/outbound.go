package ports

import (
	"context"
	"io"

	"github.com/tripforge/itinerary-ai/internal/core/domain"
)

// ItineraryRepository persists and reads generated itineraries.
type ItineraryRepository interface {
	Create(ctx context.Context, itinerary *domain.Itinerary) error
	GetByID(ctx context.Context, id string) (*domain.Itinerary, error)
	Update(ctx context.Context, itinerary *domain.Itinerary) error
}

// ItineraryGenerator produces raw model output for a plan request.
type ItineraryGenerator interface {
	GenerateItinerary(ctx context.Context, req domain.PlanRequest) (*domain.GenerationResult, error)
}

// ResponseParser turns raw model output into a validated itinerary.
type ResponseParser interface {
	Parse(content string, citations, relatedQuestions []string) domain.ParseResult
}

// FreshnessAssessor tags itineraries with staleness assessments.
type FreshnessAssessor interface {
	ValidateItinerary(itinerary *domain.Itinerary) domain.ItineraryFreshness
}

// RefreshQueue publishes/consumes itinerary refresh events.
type RefreshQueue interface {
	PublishRefreshRequested(ctx context.Context, itineraryID string) error
	SubscribeRefreshRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// SpreadsheetWriter renders an itinerary as a workbook.
type SpreadsheetWriter interface {
	Write(itinerary *domain.Itinerary, w io.Writer) error
}
