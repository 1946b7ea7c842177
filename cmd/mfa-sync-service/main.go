package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medunigraz/mfa-sync-service/internal/config"
	"github.com/medunigraz/mfa-sync-service/internal/delivery/http/handlers"
	"github.com/medunigraz/mfa-sync-service/internal/infrastructure/duo"
	"github.com/medunigraz/mfa-sync-service/internal/infrastructure/kafka"
	ldapclient "github.com/medunigraz/mfa-sync-service/internal/infrastructure/ldap"
	"github.com/medunigraz/mfa-sync-service/internal/infrastructure/metrics"
	"github.com/medunigraz/mfa-sync-service/internal/infrastructure/migrate"
	"github.com/medunigraz/mfa-sync-service/internal/infrastructure/postgres"
	"github.com/medunigraz/mfa-sync-service/internal/infrastructure/postgres/repository"
	"github.com/medunigraz/mfa-sync-service/internal/retry"
	"github.com/medunigraz/mfa-sync-service/internal/usecase/enrollment"
	"github.com/medunigraz/mfa-sync-service/internal/worker"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()
	logger := mustSetupLogger(cfg.LogConfig)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init database
	db := postgres.MustInitDB(cfg)
	if cfg.SyncDB.MigrationsPath != "" {
		if err := migrate.RunMigrations(db, cfg.SyncDB.MigrationsPath); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	// External systems
	directory, err := ldapclient.NewDirectoryClient(cfg.LDAPService)
	if err != nil {
		log.Fatalf("failed to init directory client: %v", err)
	}
	defer directory.Close()

	provider := duo.NewProviderClient(cfg.DuoService)

	// Job queue
	brokers := []string{fmt.Sprintf("%s:%s", cfg.KafkaService.Host, cfg.KafkaService.Port)}
	jobPublisher, err := kafka.NewJobPublisher(brokers, cfg.KafkaService.Topic)
	if err != nil {
		log.Fatalf("failed to init job publisher: %v", err)
	}
	defer jobPublisher.Close()
	jobSubscriber := kafka.NewJobSubscriber(brokers, cfg.KafkaService.Topic, cfg.KafkaService.GroupID, logger)

	// Repositories
	lockedRepo := repository.NewDefaultLockedUserRepository(db)
	localRepo := repository.NewDefaultLocalUserRepository(db)
	txManager := postgres.NewGormTxManager(db)

	syncMetrics := metrics.NewSyncMetrics(prometheus.DefaultRegisterer)

	// Reconciliation engine
	uc := enrollment.NewUsecase(
		directory,
		provider,
		lockedRepo,
		localRepo,
		txManager,
		jobPublisher,
		syncMetrics,
		logger,
		enrollment.Config{
			Base:            cfg.LDAPService.Base,
			UsersGroupDN:    cfg.LDAPService.UsersGroupDN,
			LockedGroupDN:   cfg.LDAPService.LockedGroupDN,
			ActivationRetry: retry.DefaultPolicy(),
		},
	)

	// Job worker
	jobWorker := worker.NewWorker(jobSubscriber, jobPublisher, uc, syncMetrics, logger, worker.Config{
		Base:     cfg.LDAPService.Base,
		Interval: cfg.Enrollment.Window,
		DryRun:   cfg.Enrollment.DryRun,
	})
	go func() {
		if err := jobWorker.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("job worker stopped", "error", err)
		}
	}()

	// Periodic reconciliation
	scheduler := worker.NewScheduler(jobPublisher, logger, worker.SchedulerConfig{
		Base:       cfg.LDAPService.Base,
		Interval:   cfg.Enrollment.Window,
		SyncEvery:  cfg.Enrollment.SyncInterval,
		SweepEvery: cfg.Enrollment.SweepInterval,
		DryRun:     cfg.Enrollment.DryRun,
	})
	scheduler.StartAll(ctx)

	// Admin and observability endpoints
	adminHandler := handlers.NewAdminHandler(lockedRepo, jobPublisher, logger, handlers.Config{
		ReadToken:   cfg.AdminAPI.ReadToken,
		UnlockToken: cfg.AdminAPI.UnlockToken,
		Base:        cfg.LDAPService.Base,
		Interval:    cfg.Enrollment.Window,
		DryRun:      cfg.Enrollment.DryRun,
	})

	router := chi.NewRouter()
	router.Mount("/api/v1", adminHandler.Routes())
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()

	logger.Info("mfa-sync-service started", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("failed to serve: %v\n", err)
	}
}

func mustSetupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	out := os.Stderr
	if cfg.LogOutput == "stdout" {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
