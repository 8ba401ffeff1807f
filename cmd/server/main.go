package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/lab-clarity-engine/internal/api"
	"github.com/lab-clarity-engine/internal/config"
	"github.com/lab-clarity-engine/internal/database"
	"github.com/lab-clarity-engine/internal/external"
	"github.com/lab-clarity-engine/internal/reference"
	"github.com/lab-clarity-engine/internal/repository"
	"github.com/lab-clarity-engine/internal/service"
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
	logger := newLogger(cfg.Logging)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage backend
	store, err := newStore(ctx, configManager, logger)
	if err != nil {
		log.Fatalf("Failed to initialize report store: %v", err)
	}
	defer store.Close()

	// Explanation cache, with Redis as an optional second tier
	var redisClient *redis.Client
	if cfg.Cache.RedisEnabled {
		opts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			log.Fatalf("Invalid Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}

	cache, err := external.NewExplanationCache(cfg.Cache.LocalSize, redisClient, cfg.Cache.DefaultTTL, logger)
	if err != nil {
		log.Fatalf("Failed to initialize explanation cache: %v", err)
	}

	explainer := external.NewExplainClient(external.ExplainConfig{
		BaseURL:     cfg.Explain.BaseURL,
		APIKey:      cfg.Explain.APIKey,
		Timeout:     cfg.Explain.Timeout,
		RateLimit:   cfg.Explain.RateLimit,
		RateBurst:   cfg.Explain.RateBurst,
		MaxFailures: cfg.Explain.MaxFailures,
		OpenTimeout: cfg.Explain.OpenTimeout,
	}, cache, logger)

	// Analysis pipeline
	catalog := reference.NewDefaultCatalog()
	pipeline := service.NewDemoFallbackAnalyzer(service.NewReportAnalyzer(catalog, logger), logger)

	// Create server
	server := api.NewServer(cfg, api.Deps{
		Store:     store,
		Pipeline:  pipeline,
		Trends:    service.NewTrendEngine(logger),
		Explainer: explainer,
		OCR:       api.NewHTTPOCRClient(cfg.OCR.BaseURL, cfg.OCR.Timeout, logger),
	}, logger)

	logger.WithFields(logrus.Fields{
		"host":    cfg.Server.Host,
		"port":    cfg.Server.Port,
		"backend": cfg.Storage.Backend,
	}).Info("Starting Lab Clarity Engine")

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Start server
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}

	logger.Info("Server stopped")
}

func newLogger(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}

// newStore builds the report store selected by storage.backend. The
// postgres backend runs pending migrations before serving.
func newStore(ctx context.Context, configManager *config.Manager, logger *logrus.Logger) (repository.ReportStore, error) {
	cfg := configManager.GetConfig()

	switch cfg.Storage.Backend {
	case "postgres":
		runner, err := database.NewMigrationRunner(configManager.GetDatabaseURL(), "migrations", logger)
		if err != nil {
			return nil, err
		}
		if err := runner.Up(); err != nil {
			runner.Close()
			return nil, err
		}
		runner.Close()

		db, err := database.NewConnection(ctx, database.Config{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			Database:    cfg.Database.Database,
			Username:    cfg.Database.Username,
			Password:    cfg.Database.Password,
			SSLMode:     cfg.Database.SSLMode,
			MaxConns:    int32(cfg.Database.MaxOpenConns),
			MinConns:    2,
			MaxConnLife: cfg.Database.ConnMaxLifetime,
		}, logger)
		if err != nil {
			return nil, err
		}
		return repository.NewPostgresReportStore(db.Pool, logger), nil

	default:
		return repository.NewSQLiteReportStore(cfg.Storage.SQLitePath, logger)
	}
}
