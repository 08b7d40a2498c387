package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/tripforge/itinerary-ai/internal/core/domain"
	"github.com/tripforge/itinerary-ai/internal/core/ports"
	"github.com/tripforge/itinerary-ai/internal/infrastructure/cache"
	"github.com/tripforge/itinerary-ai/internal/infrastructure/ratelimit"
	"github.com/tripforge/itinerary-ai/internal/infrastructure/resilience"
)

// defaultFallbackOrder is tried after retries are exhausted: a remembered
// real itinerary first, then a synthetic skeleton, then a plain failure
// notification.
var defaultFallbackOrder = []resilience.FallbackStrategy{
	resilience.FallbackCachedResponse,
	resilience.FallbackBasicTemplate,
	resilience.FallbackUserNotification,
}

// PlanItineraryUseCase runs the full generation pipeline: admission control,
// cache short-circuit, generation under retry/breaker, parsing, freshness
// tagging, persistence.
type PlanItineraryUseCase struct {
	limiter   *ratelimit.Limiter
	planCache *cache.Cache[*domain.Itinerary]
	executor  *resilience.Executor
	classify  resilience.ClassifyFunc
	fallback  *resilience.FallbackEngine

	generator ports.ItineraryGenerator
	parser    ports.ResponseParser
	freshness ports.FreshnessAssessor
	repo      ports.ItineraryRepository

	strategies []resilience.FallbackStrategy
}

func NewPlanItineraryUseCase(
	limiter *ratelimit.Limiter,
	planCache *cache.Cache[*domain.Itinerary],
	executor *resilience.Executor,
	classify resilience.ClassifyFunc,
	fallback *resilience.FallbackEngine,
	generator ports.ItineraryGenerator,
	parser ports.ResponseParser,
	freshness ports.FreshnessAssessor,
	repo ports.ItineraryRepository,
) *PlanItineraryUseCase {
	return &PlanItineraryUseCase{
		limiter:    limiter,
		planCache:  planCache,
		executor:   executor,
		classify:   classify,
		fallback:   fallback,
		generator:  generator,
		parser:     parser,
		freshness:  freshness,
		repo:       repo,
		strategies: defaultFallbackOrder,
	}
}

func (uc *PlanItineraryUseCase) Plan(ctx context.Context, clientID string, req domain.PlanRequest) (*domain.PlanOutcome, error) {
	if err := validatePlanRequest(req); err != nil {
		return nil, err
	}

	if admission := uc.limiter.Check(clientID); !admission.Allowed {
		return nil, domain.WrapError(domain.ErrRateLimited, "plan itinerary",
			&domain.RateLimitError{RetryAfter: admission.RetryAfter})
	}

	key := planCacheKey(req)
	if cached, ok := uc.planCache.Get(key); ok {
		uc.limiter.RecordResult(clientID, true)
		freshness := uc.freshness.ValidateItinerary(cached)
		return &domain.PlanOutcome{
			Itinerary: cached,
			FromCache: true,
			Freshness: &freshness,
		}, nil
	}

	var generated *domain.GenerationResult
	attempts, err := uc.executor.Execute(ctx, "perplexity.plan_itinerary", func(callCtx context.Context) error {
		result, genErr := uc.generator.GenerateItinerary(callCtx, req)
		if genErr != nil {
			return genErr
		}
		generated = result
		return nil
	}, uc.classify)
	if err != nil {
		uc.limiter.RecordResult(clientID, false)
		return uc.recover(req, attempts, err)
	}

	parsed := uc.parser.Parse(generated.Content, generated.Citations, generated.RelatedQuestions)
	if !parsed.Success {
		uc.limiter.RecordResult(clientID, false)
		parseErr := fmt.Errorf("parse itinerary response: %s", firstIssue(parsed.Errors))
		return uc.recover(req, attempts, parseErr)
	}

	itinerary := parsed.Data
	itinerary.Metadata.Model = generated.Model

	if err := uc.repo.Create(ctx, itinerary); err != nil {
		uc.limiter.RecordResult(clientID, false)
		return nil, fmt.Errorf("persist itinerary: %w", err)
	}

	uc.planCache.Set(key, itinerary)
	uc.fallback.Remember(resilience.FallbackCacheKey(req), itinerary)
	uc.limiter.RecordResult(clientID, true)

	freshness := uc.freshness.ValidateItinerary(itinerary)
	usage := generated.Usage
	return &domain.PlanOutcome{
		Itinerary: itinerary,
		Parse:     parsed.Metadata,
		Warnings:  parsed.Warnings,
		Attempts:  attemptReports(attempts),
		Freshness: &freshness,
		Usage:     &usage,
	}, nil
}

// recover converts an exhausted generation into a degraded result where a
// fallback strategy applies, and a typed error otherwise.
func (uc *PlanItineraryUseCase) recover(req domain.PlanRequest, attempts []resilience.RetryAttempt, cause error) (*domain.PlanOutcome, error) {
	class := uc.classify(cause)
	result, ok := uc.fallback.Recover(req, class, uc.strategies)
	if !ok {
		slog.Warn("plan_fallback_exhausted",
			"destination", req.Destination,
			"kind", string(class.Kind),
			"message", result.Message,
		)
		if class.Retryable || resilience.IsCircuitOpen(cause) {
			return nil, domain.WrapError(domain.ErrTemporary, "plan itinerary", cause)
		}
		return nil, fmt.Errorf("plan itinerary: %w", cause)
	}

	itinerary := result.Itinerary
	if itinerary.ID == "" {
		itinerary.ID = uuid.NewString()
	}
	freshness := uc.freshness.ValidateItinerary(itinerary)

	slog.Info("plan_fallback_served",
		"destination", req.Destination,
		"strategy", string(result.Strategy),
		"confidence", result.Confidence,
	)
	return &domain.PlanOutcome{
		Itinerary: itinerary,
		Attempts:  attemptReports(attempts),
		Fallback: &domain.FallbackReport{
			Strategy:   string(result.Strategy),
			Message:    result.Message,
			Confidence: result.Confidence,
		},
		Freshness: &freshness,
	}, nil
}

func validatePlanRequest(req domain.PlanRequest) error {
	var missing []string
	if strings.TrimSpace(req.Destination) == "" {
		missing = append(missing, "destination")
	}
	if strings.TrimSpace(req.StartDate) == "" {
		missing = append(missing, "start_date")
	}
	if strings.TrimSpace(req.EndDate) == "" {
		missing = append(missing, "end_date")
	}
	if len(missing) > 0 {
		return domain.WrapError(domain.ErrInvalidInput, "plan itinerary",
			fmt.Errorf("missing fields: %s", strings.Join(missing, ", ")))
	}
	if req.Travelers.Adults <= 0 {
		return domain.WrapError(domain.ErrInvalidInput, "plan itinerary",
			fmt.Errorf("at least one adult traveler is required"))
	}
	return nil
}

func planCacheKey(req domain.PlanRequest) string {
	return fmt.Sprintf("%s|%s|%s|%d-%d-%d|%s|%s",
		strings.ToLower(strings.TrimSpace(req.Destination)),
		req.StartDate, req.EndDate,
		req.Travelers.Adults, req.Travelers.Children, req.Travelers.Infants,
		strings.ToLower(strings.Join(req.Interests, ",")),
		strings.ToLower(req.Budget),
	)
}

func attemptReports(attempts []resilience.RetryAttempt) []domain.AttemptReport {
	if len(attempts) == 0 {
		return nil
	}
	reports := make([]domain.AttemptReport, 0, len(attempts))
	for _, attempt := range attempts {
		reports = append(reports, domain.AttemptReport{
			Attempt:   attempt.Attempt,
			Timestamp: attempt.Timestamp,
			Kind:      string(attempt.Error.Kind),
			Message:   attempt.Error.Message,
			DelayMs:   attempt.Delay.Milliseconds(),
		})
	}
	return reports
}

func firstIssue(issues []domain.ValidationIssue) string {
	if len(issues) == 0 {
		return "no extractable itinerary"
	}
	return issues[0].Message
}
