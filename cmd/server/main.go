// Package main implements the entry point for the TrackStudio API server,
// which orchestrates asynchronous music generation requests against an
// external provider.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/trackstudio/trackstudio-api/internal/config"
	"github.com/trackstudio/trackstudio-api/internal/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if _, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel}); err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	slog.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"history_enabled", cfg.Database.URL != "",
		"lyrics_enabled", cfg.LLM.GeminiAPIKey != "")

	app, err := newApplication(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app.start()

	// Block until asked to stop, then shut everything down in order.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	slog.Info("shutdown signal received", "signal", sig.String())
	app.shutdown()
}
