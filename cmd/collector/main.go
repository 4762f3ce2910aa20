package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"beacon_collector/internal/config"
	"beacon_collector/internal/httpapi"
	"beacon_collector/internal/storage"
	"beacon_collector/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level, err := utils.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Invalid LOG_LEVEL: %v", err)
	}
	if cfg.Local {
		level = utils.Debug
	}
	utils.SetDefaultLogLevel(level)
	logger := utils.NewLogger("collector")

	if !cfg.FlushEnabled() {
		logger.Warn("No flush password configured, /flush will reject every request")
	}

	// Create router with all dependencies
	handler, deps, err := httpapi.NewRouter(cfg)
	if err != nil {
		log.Fatalf("Failed to build router: %v", err)
	}

	// Create HTTP server
	addr := ":" + cfg.HTTPPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Beacon collector listening", "addr", addr, "backend", cfg.Store.Backend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	if redisStore, ok := deps.Store.(*storage.RedisStore); ok {
		stats := redisStore.GetStats()
		logger.Info("Redis pool stats",
			"hits", stats.Hits,
			"misses", stats.Misses,
			"timeouts", stats.Timeouts,
			"total_conns", stats.TotalConns,
			"idle_conns", stats.IdleConns,
		)
	}

	if err := deps.Close(); err != nil {
		logger.Error("Failed to close store", "error", err)
	}

	logger.Info("Server exited")
}
