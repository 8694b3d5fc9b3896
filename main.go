package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mike-mirabal/barback/catalog"
	"github.com/mike-mirabal/barback/config"
	"github.com/mike-mirabal/barback/dialogue"
	"github.com/mike-mirabal/barback/gemini"
	"github.com/mike-mirabal/barback/server"
	"github.com/mike-mirabal/barback/session"
	"github.com/mike-mirabal/barback/transcript"
)

func main() {
	zlog, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zlog.Sync()
	logger := zlog.Sugar()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Load the catalog. A missing or malformed file is recoverable: the
	// engine runs with an empty catalog and answers through the fallback.
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Warnf("⚠️ Catalog unavailable (%v), starting with an empty one", err)
	} else {
		logger.Infof("📒 Catalog loaded: %d cocktails, %d spirits",
			len(cat.CocktailNames()), len(cat.SpiritNames()))
	}

	// Redis backs the session mirror and the transcript log; both are
	// optional and the service runs fine without them.
	redisClient := session.ConnectRedis(cfg.RedisURL, cfg.RedisPassword, logger)
	registry := session.NewMemory(cfg.SessionTTL, logger).WithRedis(redisClient)

	var oracle dialogue.Oracle
	if cfg.GeminiAPIKey != "" {
		o, err := gemini.NewOracle(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, cfg.OracleTimeout)
		if err != nil {
			logger.Fatalf("Failed to create oracle: %v", err)
		}
		defer o.Close()
		oracle = o
	} else {
		logger.Warn("⚠️ GEMINI_API_KEY not set, fallback oracle disabled")
	}

	engine := dialogue.NewEngine(cat, registry, oracle, logger).
		WithTranscript(transcript.NewLogger(redisClient, cfg.TranscriptKey, logger))

	srv := server.New(cfg, engine, registry, logger)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Received shutdown signal...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Server shutdown error: %v", err)
		}
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}()

	if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Info("Server stopped")
}
