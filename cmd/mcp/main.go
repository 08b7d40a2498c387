package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/tripforge/itinerary-ai/internal/adapters/mcp"
	"github.com/tripforge/itinerary-ai/internal/bootstrap"
	"github.com/tripforge/itinerary-ai/internal/config"
	"github.com/tripforge/itinerary-ai/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	// Stdout carries the MCP protocol; route logs to stderr.
	logger := logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := mcpadapter.NewServer(app.PlanUC, app.GetUC, app.Queue).Build()
	slog.Info("mcp_listening", "transport", "stdio")
	if err := server.ServeStdio(srv); err != nil {
		slog.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
