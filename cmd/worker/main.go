package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tripforge/itinerary-ai/internal/bootstrap"
	"github.com/tripforge/itinerary-ai/internal/config"
	"github.com/tripforge/itinerary-ai/internal/observability/logging"
	"github.com/tripforge/itinerary-ai/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", workerMetrics.Handler())
		slog.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := http.ListenAndServe(":"+cfg.WorkerMetricsPort, mux); err != nil && err != http.ErrServerClosed {
			slog.Error("worker_metrics_failed", "error", err)
		}
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeRefreshRequested(ctx, func(handlerCtx context.Context, itineraryID string) error {
		refreshCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		if stale, getErr := app.Repo.GetByID(refreshCtx, itineraryID); getErr == nil {
			workerMetrics.ObserveItineraryAge("worker", time.Since(stale.Metadata.GeneratedAt))
		}

		workerMetrics.StartRefresh()
		start := time.Now()
		refreshErr := app.RefreshUC.RefreshByID(refreshCtx, itineraryID)
		workerMetrics.FinishRefresh("worker", time.Since(start), refreshErr)
		if refreshErr != nil {
			slog.Error("refresh_failed", "itinerary_id", itineraryID, "error", refreshErr)
		}
		return refreshErr
	})
	if err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
