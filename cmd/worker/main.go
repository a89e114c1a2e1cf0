package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/app"
	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/internal/worker"
	"github.com/jwalitptl/clinic-api/pkg/messaging/redis"
	outbox "github.com/jwalitptl/clinic-api/pkg/worker"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func healthServer(port int, a *app.App, broker pinger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.DB.PingContext(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		if err := broker.Ping(ctx); err != nil {
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func main() {
	configPath := flag.String("config", "", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	base := app.SetupLogging(cfg.Log)
	l := base.Component("worker")

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	a, err := app.New(cfg, db)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize services")
	}
	defer a.Close()

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:           cfg.Redis.URL,
		MaxRetries:    cfg.Redis.MaxRetries,
		RetryBackoff:  cfg.Redis.RetryBackoff,
		PoolSize:      cfg.Redis.PoolSize,
		MinIdleConns:  cfg.Redis.MinIdleConns,
		ChannelPrefix: cfg.Redis.ChannelPrefix,
	}, l.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Redis broker")
	}
	defer broker.Close()

	processor, err := outbox.NewOutboxProcessor(a.Outbox, broker, outbox.OutboxProcessorConfig{
		BatchSize:     cfg.Outbox.BatchSize,
		PollInterval:  cfg.Outbox.PollInterval,
		RetryAttempts: cfg.Outbox.RetryAttempts,
		RetryDelay:    cfg.Outbox.RetryDelay,
		MaxDeliveries: cfg.Outbox.MaxDeliveries,
	}, base.Component("outbox"), a.Metrics)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create outbox processor")
	}

	scheduler, err := worker.NewScheduler(worker.Config{
		ExpirySchedule:     cfg.Worker.ExpirySchedule,
		ReminderSchedule:   cfg.Worker.ReminderSchedule,
		CleanupSchedule:    cfg.Worker.CleanupSchedule,
		PendingTTL:         cfg.Payments.PendingTTL,
		OfflinePendingTTL:  cfg.Payments.OfflinePendingTTL,
		AuditRetentionDays: cfg.Audit.RetentionDays,
		OutboxRetention:    time.Duration(cfg.Outbox.RetentionDays) * 24 * time.Hour,
		Location:           a.Location,
	}, worker.Dependencies{
		Payments:  a.Payments,
		Reminders: a.Reservations,
		Audit:     a.Audit,
		Outbox:    a.Outbox,
		Email:     a.Email,
		SMS:       a.SMS,
	}, a.Metrics)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	health := healthServer(cfg.Worker.HealthPort, a, broker)
	go func() {
		if err := health.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health check server failed")
			cancel()
		}
	}()

	scheduler.Start(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	log.Info().Int("health_port", cfg.Worker.HealthPort).Msg("worker started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	scheduler.Stop(shutdownCtx)
	wg.Wait()
	_ = health.Shutdown(shutdownCtx)
}

