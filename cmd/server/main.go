package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/emirozbir/monitor-agent/internal/api"
	"github.com/emirozbir/monitor-agent/internal/collectors"
	"github.com/emirozbir/monitor-agent/internal/config"
	"github.com/emirozbir/monitor-agent/internal/database"
	"github.com/emirozbir/monitor-agent/internal/service"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Starting monitor-agent server",
		zap.String("version", api.ServiceVersion),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("alert_policy", cfg.Alert.Policy),
	)

	// Initialize database
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Database initialized", zap.String("path", cfg.Database.Path))

	orch, err := service.NewFromConfig(cfg, db, nil, logger)
	if err != nil {
		logger.Fatal("Failed to build pipeline", zap.Error(err))
	}

	pollCtx, stopPolling := context.WithCancel(context.Background())
	defer stopPolling()
	if cfg.AlertManager.URL != "" && cfg.AlertManager.PollInterval > 0 {
		collector := collectors.NewAlertManagerCollector(cfg.AlertManager.URL, logger)
		go collector.Poll(pollCtx, cfg.AlertManager.PollInterval, orch.State())
	}

	// Setup HTTP server
	handler := api.NewHandler(orch, orch.State(), db, cfg.Batch, logger)
	router := api.SetupRoutes(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("Server listening", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")
	stopPolling()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shut down", zap.Error(err))
	}
	orch.Wait()

	logger.Info("Server stopped")
}
