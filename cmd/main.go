package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"pulse/internal/adapters/config"
	"pulse/internal/adapters/errors/noop"
	"pulse/internal/adapters/errors/sentry"
	"pulse/internal/adapters/kafka"
	"pulse/internal/adapters/postgres"
	"pulse/internal/adapters/prices"
	"pulse/internal/adapters/redis"
	"pulse/internal/metrics"
	pgrepo "pulse/internal/repository/postgres"
	rollupsvc "pulse/internal/services/rollup"
	"pulse/internal/workers"
	"pulse/internal/workers/pipeline"
	"pulse/pkg/errors"
	"pulse/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	// Postgres
	pg, err := postgres.NewClient(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer pg.Close()

	// Optional run-lock backend
	var locks pipeline.Locker
	if cfg.Redis.Enabled() {
		rc, err := redis.NewClient(cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rc.Close()
		locks = rc
		log.Info("Run lock enabled (Redis)")
	} else {
		log.Info("Run lock disabled, relying on scheduler to not overlap runs")
	}

	// Optional run-summary publisher
	var producer pipeline.Publisher
	if cfg.Kafka.Enabled() {
		kp := kafka.NewProducer(cfg.Kafka.Brokers)
		defer kp.Close()
		producer = kp
		log.Info("Run summary publishing enabled (Kafka)")
	}

	// Repositories, gateways, pipeline
	eventRepo := pgrepo.NewEventRepository(pg.DB())
	rollupRepo := pgrepo.NewRollupRepository(pg.DB())
	priceClient := prices.NewClient(cfg.Prices)
	svc := rollupsvc.NewService(eventRepo, rollupRepo, priceClient, log)

	// Metrics
	if cfg.Metrics.Enabled {
		metrics.Register()
		metrics.StartServer(cfg.Metrics.Port)
		log.Infof("Metrics server listening on :%d", cfg.Metrics.Port)
	}

	// Workers
	scheduler := workers.NewScheduler()
	scheduler.RegisterWorker(pipeline.NewRollupWorker(
		svc,
		locks,
		producer,
		cfg.Workers.RollupInterval,
		cfg.Workers.RunLockTTL,
		cfg.Workers.RollupEnabled,
	))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	waitForShutdown(cancel, scheduler, errorTracker, log)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// waitForShutdown blocks until SIGINT/SIGTERM, then stops workers and
// flushes the error tracker
func waitForShutdown(cancel context.CancelFunc, scheduler *workers.Scheduler, tracker errors.Tracker, log *logger.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Infof("Received signal %s, shutting down...", sig)

	cancel()
	if err := scheduler.Stop(); err != nil {
		log.Warnf("Scheduler stop: %v", err)
	}

	_ = tracker.Flush(context.Background())
	log.Info("Shutdown complete")
}
