package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pepsafe/pepsafe-backend-go/internal/api"
	"github.com/pepsafe/pepsafe-backend-go/internal/busyness"
	"github.com/pepsafe/pepsafe-backend-go/internal/cache"
	"github.com/pepsafe/pepsafe-backend-go/internal/config"
	"github.com/pepsafe/pepsafe-backend-go/internal/database"
	"github.com/pepsafe/pepsafe-backend-go/internal/handler"
	"github.com/pepsafe/pepsafe-backend-go/internal/health"
	"github.com/pepsafe/pepsafe-backend-go/internal/ingest"
	"github.com/pepsafe/pepsafe-backend-go/internal/logging"
	"github.com/pepsafe/pepsafe-backend-go/internal/metrics"
	"github.com/pepsafe/pepsafe-backend-go/internal/middleware"
	"github.com/pepsafe/pepsafe-backend-go/internal/privacy"
	"github.com/pepsafe/pepsafe-backend-go/internal/repository"
	"github.com/pepsafe/pepsafe-backend-go/internal/risk"
	"github.com/pepsafe/pepsafe-backend-go/internal/service"
	"github.com/pepsafe/pepsafe-backend-go/internal/weather"
)

const (
	version         = "0.1.0"
	shutdownTimeout = 10 * time.Second
	dbStatsInterval = 15 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	if !strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	if cfg.DBDriver == database.SQLite && cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := database.Open(ctx, database.Config{Driver: cfg.DBDriver, Path: cfg.DBPath, URL: cfg.DatabaseURL}, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, logger); err != nil {
		return err
	}
	go metrics.StartDBStatsCollector(ctx, db.DB, dbStatsInterval)

	store := cache.Open(ctx, cfg.RedisURL, logger)
	defer store.Close()

	subjects := repository.NewSubjectRepository(db)
	pings := repository.NewPingRepository(db)
	chokePoints := repository.NewChokePointRepository(db)

	subjectService := service.NewSubjectService(subjects)
	err = subjectService.EnsureDefault(ctx, service.DefaultSubject{
		ID:      cfg.DefaultSubjectID,
		Name:    cfg.DefaultSubjectName,
		HomeLat: cfg.DefaultHomeLat,
		HomeLon: cfg.DefaultHomeLon,
	}, logger)
	if err != nil {
		return err
	}

	// Enrichment
	provider := weather.NewOpenWeatherMap(cfg.WeatherBaseURL, cfg.WeatherAPIKey, &http.Client{Timeout: cfg.WeatherTimeout})
	weatherService := weather.NewService(provider, store, cfg.WeatherCacheTTL, cfg.WeatherTimeout, logger)
	defer weatherService.Stop()
	busynessService := busyness.NewService(busyness.Model{}, store, cfg.BusynessCacheTTL, logger)

	ingestService := service.NewIngestService(
		subjects, pings, chokePoints, weatherService, busynessService,
		privacy.NewGateway(cfg.HomeZoneRadiusM, logger),
		service.IngestConfig{
			ShortWindow: cfg.ShortWindow,
			LongWindow:  cfg.LongWindow,
			Lookback:    cfg.HistoryLookback,
		},
		logger,
	)
	dashboardService := service.NewDashboardService(pings, risk.DefaultWeights, cfg.PetName, nil)

	if cfg.MQTTURL != "" {
		subscriber := ingest.NewSubscriber(ingest.Config{
			BrokerURL: cfg.MQTTURL,
			Topic:     cfg.MQTTTopic,
			ClientID:  cfg.MQTTClientID,
			SubjectID: cfg.DefaultSubjectID,
		}, ingestService, logger)
		if err := subscriber.Start(ctx); err != nil {
			return err
		}
		defer subscriber.Stop()
	}

	registry := health.NewRegistry(0)
	registry.Register("database", true, db.PingContext)
	registry.Register(handler.CacheCheckName, false, store.Ping)

	healthHandler := handler.NewHealthHandler(registry, handler.CacheStats{
		Weather:  weatherService.Stats,
		Busyness: busynessService.Stats,
	}, version)

	router := api.SetupRouter(api.Handlers{
		Ping:        handler.NewPingHandler(ingestService, cfg.DefaultSubjectID),
		Subjects:    handler.NewSubjectHandler(subjectService),
		ChokePoints: handler.NewChokePointHandler(service.NewChokePointService(chokePoints)),
		Dashboard:   handler.NewDashboardHandler(dashboardService),
		Stats:       handler.NewStatsHandler(service.NewStatsService(repository.NewStatsRepository(db), subjects)),
		Health:      healthHandler,
	}, api.Options{
		APIKey:             cfg.APIKey,
		JWTSecret:          cfg.JWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        middleware.NewRateLimiter(ctx, cfg.RateLimitPerMinute, time.Minute),
		Logger:             logger,
	})

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Port, "version", version, "db_driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
