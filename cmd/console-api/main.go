package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	_ "github.com/noah-isme/bus-console-api/api/swagger"
	"github.com/noah-isme/bus-console-api/internal/handler"
	"github.com/noah-isme/bus-console-api/internal/models"
	"github.com/noah-isme/bus-console-api/internal/repository"
	"github.com/noah-isme/bus-console-api/internal/service"
	"github.com/noah-isme/bus-console-api/internal/upstream"
	"github.com/noah-isme/bus-console-api/pkg/cache"
	"github.com/noah-isme/bus-console-api/pkg/config"
	"github.com/noah-isme/bus-console-api/pkg/database"
	"github.com/noah-isme/bus-console-api/pkg/events"
	"github.com/noah-isme/bus-console-api/pkg/logger"
)

// @title Bus Console API
// @version 0.1.0
// @description Backend for the admin and operator bus scheduling consoles
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()
	checks := map[string]handler.ReadinessCheck{}

	defaultRole, _ := models.ParseConsoleRole(cfg.Upstream.DefaultRole)
	manager := upstream.NewRequestManager()
	metricsSvc.TrackInFlight(manager.InFlight)
	client := upstream.NewClient(upstream.Options{
		BaseURL:     cfg.Upstream.BaseURL,
		Timeout:     cfg.Upstream.Timeout,
		DefaultRole: defaultRole,
		Manager:     manager,
		Observer:    metricsSvc,
		Logger:      logr,
	})

	var cacheRepo service.CacheRepository
	if cfg.Tariff.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, tariff cache disabled", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(redisClient, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
			checks["redis"] = repo.Ping
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Tariff.CacheTTL, logr, cacheRepo != nil)

	var db *sqlx.DB
	auditSvc := service.NewAuditService(nil, metricsSvc, logr)
	if cfg.Audit.Enabled {
		db, err = database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Warn("postgres unavailable, audit entries will only be logged", zap.Error(err))
		} else {
			defer db.Close() //nolint:errcheck
			auditSvc = service.NewAuditService(repository.NewAuditRepository(db), metricsSvc, logr)
			checks["postgres"] = db.PingContext
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventSvc, dispatcher := buildEvents(ctx, cfg.Events, metricsSvc, logr)

	catalogRepo := repository.NewCatalogRepository(client)
	tariffSvc := service.NewTariffService(repository.NewTariffRateRepository(client), cacheSvc, validate, logr, service.TariffSettings{
		DefaultMinimumFare:      cfg.Tariff.DefaultMinimumFare,
		DiscountReasonThreshold: cfg.Tariff.DiscountReasonAbove,
		CacheTTL:                cfg.Tariff.CacheTTL,
	})
	catalogSvc := service.NewCatalogService(catalogRepo, logr)
	scheduleSvc := service.NewScheduleService(repository.NewScheduleRepository(client), catalogRepo, tariffSvc, eventSvc, metricsSvc, validate, logr)

	router := handler.NewRouter(handler.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Logger:         logr,
		Metrics:        metricsSvc,
		Audit:          auditSvc,
		Schedules:      handler.NewScheduleHandler(scheduleSvc),
		Catalog:        handler.NewCatalogHandler(catalogSvc),
		Tariffs:        handler.NewTariffHandler(tariffSvc),
		Requests:       handler.NewRequestHandler(manager, logr),
		System:         handler.NewSystemHandler(metricsSvc, auditSvc, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "upstream", cfg.Upstream.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if cancelled := manager.CancelAll(); cancelled > 0 {
		logr.Info("cancelled in-flight upstream calls", zap.Int("count", cancelled))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if dispatcher != nil {
		if err := dispatcher.Stop(); err != nil {
			logr.Error("failed to stop event dispatcher", zap.Error(err))
		}
	}
}

// buildEvents wires the Kafka dispatcher. When events are disabled or the writer cannot be
// configured the returned service is a no-op.
func buildEvents(ctx context.Context, cfg config.EventsConfig, metrics *service.MetricsService, logr *zap.Logger) (*service.EventService, *events.Dispatcher) {
	if !cfg.Enabled {
		return service.NewEventService(nil, metrics, logr), nil
	}
	publisher, err := events.NewKafkaPublisher(events.KafkaConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.ScheduleTopic,
		Logger:  logr,
	})
	if err != nil {
		logr.Warn("schedule events disabled", zap.Error(err))
		return service.NewEventService(nil, metrics, logr), nil
	}

	var eventSvc *service.EventService
	dispatcher := events.NewDispatcher(publisher, events.DispatcherConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logr,
		OnOutcome: func(msg events.Message, err error) {
			eventSvc.Outcome(msg, err)
		},
	})
	eventSvc = service.NewEventService(dispatcher, metrics, logr)
	dispatcher.Start(ctx)
	return eventSvc, dispatcher
}
