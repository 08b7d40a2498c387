package ports

import (
	"context"
	"io"

	"github.com/tripforge/itinerary-ai/internal/core/domain"
)

// ItineraryPlanner is the inbound contract for the full generation
// pipeline: admission, cache, generation with retries, parsing, freshness
// tagging, persistence.
type ItineraryPlanner interface {
	Plan(ctx context.Context, clientID string, req domain.PlanRequest) (*domain.PlanOutcome, error)
}

// ItineraryReader is the inbound read model for stored itineraries.
type ItineraryReader interface {
	Get(ctx context.Context, id string) (*domain.Itinerary, *domain.ItineraryFreshness, error)
}

// ItineraryRefresher regenerates a stored itinerary in place. Implemented
// by the worker-side use case, triggered via the refresh queue.
type ItineraryRefresher interface {
	RefreshByID(ctx context.Context, id string) error
}

// ItineraryExportService renders a stored itinerary to a spreadsheet.
type ItineraryExportService interface {
	ExportXLSX(ctx context.Context, id string, w io.Writer) (filename string, err error)
}
