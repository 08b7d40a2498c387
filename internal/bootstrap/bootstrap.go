package bootstrap

import (
	"context"
	"fmt"

	"github.com/tripforge/itinerary-ai/internal/config"
	"github.com/tripforge/itinerary-ai/internal/core/domain"
	"github.com/tripforge/itinerary-ai/internal/core/ports"
	"github.com/tripforge/itinerary-ai/internal/core/usecase"
	"github.com/tripforge/itinerary-ai/internal/infrastructure/cache"
	"github.com/tripforge/itinerary-ai/internal/infrastructure/citations"
	"github.com/tripforge/itinerary-ai/internal/infrastructure/export/excel"
	"github.com/tripforge/itinerary-ai/internal/infrastructure/freshness"
	"github.com/tripforge/itinerary-ai/internal/infrastructure/llm/perplexity"
	"github.com/tripforge/itinerary-ai/internal/infrastructure/parsing"
	natsqueue "github.com/tripforge/itinerary-ai/internal/infrastructure/queue/nats"
	"github.com/tripforge/itinerary-ai/internal/infrastructure/ratelimit"
	"github.com/tripforge/itinerary-ai/internal/infrastructure/repository/postgres"
	"github.com/tripforge/itinerary-ai/internal/infrastructure/resilience"
)

// App wires the pipeline once at startup; everything downstream receives its
// dependencies explicitly.
type App struct {
	Config config.Config

	Queue     ports.RefreshQueue
	Repo      ports.ItineraryRepository
	PlanUC    ports.ItineraryPlanner
	GetUC     ports.ItineraryReader
	RefreshUC ports.ItineraryRefresher
	ExportUC  ports.ItineraryExportService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewItineraryRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	classifier, err := buildClassifier(cfg)
	if err != nil {
		return nil, fmt.Errorf("load classification rules: %w", err)
	}
	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    cfg.RetryMaxAttempts,
		RetryInitialBackoff: cfg.RetryInitialBackoff,
		RetryMaxBackoff:     cfg.RetryMaxBackoff,
		RetryMultiplier:     cfg.RetryMultiplier,
		RetryJitter:         cfg.RetryJitter,
		AttemptTimeout:      cfg.AttemptTimeout,
		BreakerEnabled:      cfg.BreakerEnabled,
		BreakerMinRequests:  uint32(cfg.BreakerMinRequests),
		BreakerFailureRatio: cfg.BreakerFailureRatio,
		BreakerOpenTimeout:  cfg.BreakerOpenTimeout,
	}, classifier)
	classify := perplexity.NewClassifyFunc(classifier)
	fallbackEngine := resilience.NewFallbackEngine()

	queue, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
		ResilienceExecutor: executor,
		Classifier:         classifier,
	})
	if err != nil {
		return nil, fmt.Errorf("init refresh queue: %w", err)
	}

	limiter := ratelimit.New(ratelimit.Config{
		Strategy:           ratelimit.Strategy(cfg.RateLimitStrategy),
		MaxRequests:        cfg.RateLimitMaxRequests,
		Window:             cfg.RateLimitWindow,
		BurstLimit:         cfg.RateLimitBurst,
		ErrorRateThreshold: cfg.RateLimitErrorRate,
		BackoffMultiplier:  cfg.RateLimitBackoff,
		AdjustInterval:     cfg.RateLimitAdjustEvery,
	})
	planCache := cache.New[*domain.Itinerary](cache.Config{
		Policy:     cache.Policy(cfg.CachePolicy),
		MaxEntries: cfg.CacheMaxEntries,
		DefaultTTL: cfg.CacheTTL,
	})

	generator := perplexity.New(cfg.PerplexityURL, cfg.PerplexityAPIKey, cfg.PerplexityModel)
	parser, err := parsing.NewParser(citations.NewManager())
	if err != nil {
		return nil, fmt.Errorf("init parser: %w", err)
	}
	validator := freshness.NewValidator(freshness.Config{
		WarningAge:  cfg.FreshnessWarningAge,
		CriticalAge: cfg.FreshnessCriticalAge,
	})

	planUC := usecase.NewPlanItineraryUseCase(
		limiter, planCache, executor, classify, fallbackEngine,
		generator, parser, validator, repo,
	)
	getUC := usecase.NewGetItineraryUseCase(repo, validator, queue)
	refreshUC := usecase.NewRefreshItineraryUseCase(executor, classify, generator, parser, repo)
	exportUC := usecase.NewExportItineraryUseCase(repo, excel.NewWriter())

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		PlanUC:    planUC,
		GetUC:     getUC,
		RefreshUC: refreshUC,
		ExportUC:  exportUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func buildClassifier(cfg config.Config) (*resilience.Classifier, error) {
	if cfg.ClassifierRulesPath != "" {
		return resilience.NewClassifierFromFile(cfg.ClassifierRulesPath)
	}
	return resilience.NewClassifier(), nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
