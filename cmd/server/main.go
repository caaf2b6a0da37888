package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/thyroid-lit-analyzer/internal/app"
	"github.com/thyroid-lit-analyzer/internal/config"
	"github.com/thyroid-lit-analyzer/internal/logging"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(ctx, configManager, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialise analyzer")
	}
	defer application.Close()

	logger.Infof("Starting thyroid analyzer on %s:%d", cfg.Server.Host, cfg.Server.Port)

	if err := application.Run(ctx); err != nil {
		application.Close()
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}
