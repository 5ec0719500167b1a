package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmboard/internal/config"
	"github.com/mamadbah2/farmboard/internal/fixtures"
	"github.com/mamadbah2/farmboard/internal/repository"
	"github.com/mamadbah2/farmboard/internal/repository/memory"
	"github.com/mamadbah2/farmboard/internal/repository/mongodb"
	"github.com/mamadbah2/farmboard/internal/repository/remote"
	"github.com/mamadbah2/farmboard/internal/repository/sheets"
	"github.com/mamadbah2/farmboard/internal/scheduler"
	"github.com/mamadbah2/farmboard/internal/server/handlers"
	"github.com/mamadbah2/farmboard/internal/server/router"
	commandsvc "github.com/mamadbah2/farmboard/internal/service/commands"
	"github.com/mamadbah2/farmboard/internal/service/pages"
	reportingsvc "github.com/mamadbah2/farmboard/internal/service/reporting"
	weathersvc "github.com/mamadbah2/farmboard/internal/service/weather"
	whatsappsvc "github.com/mamadbah2/farmboard/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/farmboard/pkg/clients/whatsapp"
	"github.com/mamadbah2/farmboard/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level, cfg.Log.Format))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	var mongoRepo *mongodb.MongoDBRepository
	if cfg.MongoDB.Enabled() {
		mongoRepo, err = mongodb.NewMongoDBRepository(startupCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
	}

	stores, err := openStores(cfg, mongoRepo, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to open stores", zap.Error(err))
	}

	forecast, err := fixtures.Forecast()
	if err != nil {
		baseLogger.Fatal("failed to load forecast", zap.Error(err))
	}
	weatherSvc := weathersvc.NewService(weathersvc.StaticProvider{Days: forecast}, baseLogger.Named("svc.weather"))
	reportingSvc := reportingsvc.NewService(stores, baseLogger.Named("svc.reporting"))

	deps := pages.Deps{
		Stores:    stores,
		Weather:   weatherSvc,
		Reporting: reportingSvc,
		Logger:    baseLogger,
	}
	apiHandler := handlers.NewAPIHandler(deps, baseLogger.Named("handlers.api"))

	var sinks scheduler.Sinks
	if mongoRepo != nil {
		sinks.Archive = mongoRepo
	}

	var webhookHandler *handlers.WebhookHandler
	if cfg.WhatsApp.Enabled() {
		dispatcher := commandsvc.NewService(stores, reportingSvc, baseLogger.Named("svc.commands"))
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp, baseLogger.Named("client.whatsapp"))
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, dispatcher, baseLogger.Named("svc.whatsapp"))
		webhookHandler = handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp"))
		sinks.Messaging = messagingSvc
	} else {
		baseLogger.Warn("whatsapp credentials missing, quick entry disabled")
	}

	if cfg.Sheets.Enabled() {
		exporter, err := sheets.NewGoogleSheetExporter(startupCtx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets exporter", zap.Error(err))
		}
		sinks.Exporter = exporter
	}

	engine := router.New(apiHandler, webhookHandler, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(*cfg, reportingSvc, sinks, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openStores builds the entity stores for the configured backend.
func openStores(cfg *config.Config, mongoRepo *mongodb.MongoDBRepository, baseLogger *zap.Logger) (repository.Stores, error) {
	switch cfg.Store.Backend {
	case config.BackendRemote:
		client := remote.NewClient(cfg.RecordAPI, baseLogger.Named("client.records"))
		return remote.NewStores(client, baseLogger.Named("repo.remote")), nil
	case config.BackendMongoDB:
		if mongoRepo == nil {
			return repository.Stores{}, errors.New("mongodb backend selected without a connection")
		}
		return mongoRepo.Stores(), nil
	case config.BackendMemory:
		seed, err := fixtures.Seed()
		if err != nil {
			return repository.Stores{}, fmt.Errorf("load fixtures: %w", err)
		}
		latency := memory.NoLatency
		if cfg.Store.SimulatedLatency {
			latency = memory.DefaultLatency
		}
		return memory.NewStores(seed, memory.WithLatency(latency), memory.WithLogger(baseLogger.Named("repo.memory"))), nil
	default:
		return repository.Stores{}, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
