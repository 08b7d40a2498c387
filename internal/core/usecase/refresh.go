package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tripforge/itinerary-ai/internal/core/domain"
	"github.com/tripforge/itinerary-ai/internal/core/ports"
	"github.com/tripforge/itinerary-ai/internal/infrastructure/resilience"
)

// RefreshItineraryUseCase regenerates a stored itinerary in place. The worker
// drives it from queue events; the itinerary keeps its identity so stored
// links stay valid.
type RefreshItineraryUseCase struct {
	executor *resilience.Executor
	classify resilience.ClassifyFunc

	generator ports.ItineraryGenerator
	parser    ports.ResponseParser
	repo      ports.ItineraryRepository
}

func NewRefreshItineraryUseCase(
	executor *resilience.Executor,
	classify resilience.ClassifyFunc,
	generator ports.ItineraryGenerator,
	parser ports.ResponseParser,
	repo ports.ItineraryRepository,
) *RefreshItineraryUseCase {
	return &RefreshItineraryUseCase{
		executor:  executor,
		classify:  classify,
		generator: generator,
		parser:    parser,
		repo:      repo,
	}
}

func (uc *RefreshItineraryUseCase) RefreshByID(ctx context.Context, id string) error {
	stale, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	req := domain.PlanRequest{
		Destination: stale.Destination,
		StartDate:   stale.StartDate,
		EndDate:     stale.EndDate,
		Travelers:   stale.Travelers,
	}

	var generated *domain.GenerationResult
	attempts, err := uc.executor.Execute(ctx, "perplexity.refresh_itinerary", func(callCtx context.Context) error {
		result, genErr := uc.generator.GenerateItinerary(callCtx, req)
		if genErr != nil {
			return genErr
		}
		generated = result
		return nil
	}, uc.classify)
	if err != nil {
		if class := uc.classify(err); class.Retryable || resilience.IsCircuitOpen(err) {
			return domain.WrapError(domain.ErrTemporary, "refresh itinerary", err)
		}
		return fmt.Errorf("refresh itinerary %s: %w", id, err)
	}

	parsed := uc.parser.Parse(generated.Content, generated.Citations, generated.RelatedQuestions)
	if !parsed.Success {
		return fmt.Errorf("refresh itinerary %s: parse failed: %s", id, firstIssue(parsed.Errors))
	}
	if parsed.Metadata.ParseMethod == domain.ParseReconstruction {
		// A reconstructed skeleton must never replace a real stored itinerary.
		return fmt.Errorf("refresh itinerary %s: regenerated response was unparseable beyond reconstruction", id)
	}

	fresh := parsed.Data
	fresh.ID = stale.ID
	fresh.Metadata.Model = generated.Model

	if err := uc.repo.Update(ctx, fresh); err != nil {
		return fmt.Errorf("persist refreshed itinerary: %w", err)
	}

	slog.Info("itinerary_refreshed",
		"itinerary_id", id,
		"destination", fresh.Destination,
		"attempts", len(attempts),
		"confidence", parsed.Metadata.Confidence,
	)
	return nil
}
