package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tripforge/itinerary-ai/internal/core/domain"
	"github.com/tripforge/itinerary-ai/internal/core/ports"
)

// GetItineraryUseCase reads a stored itinerary and tags it with a freshness
// assessment. Stale reads schedule a background refresh instead of blocking
// the caller.
type GetItineraryUseCase struct {
	repo      ports.ItineraryRepository
	freshness ports.FreshnessAssessor
	queue     ports.RefreshQueue
}

func NewGetItineraryUseCase(repo ports.ItineraryRepository, freshness ports.FreshnessAssessor, queue ports.RefreshQueue) *GetItineraryUseCase {
	return &GetItineraryUseCase{repo: repo, freshness: freshness, queue: queue}
}

func (uc *GetItineraryUseCase) Get(ctx context.Context, id string) (*domain.Itinerary, *domain.ItineraryFreshness, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil, domain.WrapError(domain.ErrInvalidInput, "get itinerary",
			fmt.Errorf("itinerary id is required"))
	}

	itinerary, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	freshness := uc.freshness.ValidateItinerary(itinerary)
	if needsRefresh(freshness.Recommendation) && uc.queue != nil {
		// A failed publish degrades freshness, not the read itself.
		if pubErr := uc.queue.PublishRefreshRequested(ctx, id); pubErr != nil {
			slog.Warn("refresh_publish_failed",
				"itinerary_id", id,
				"urgency", string(freshness.Recommendation),
				"error", pubErr,
			)
		} else {
			slog.Info("refresh_requested",
				"itinerary_id", id,
				"urgency", string(freshness.Recommendation),
			)
		}
	}
	return itinerary, &freshness, nil
}

func needsRefresh(urgency domain.RefreshUrgency) bool {
	return urgency == domain.RefreshImmediate || urgency == domain.RefreshHigh
}
