package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"daily-habits-tracker/internal/config"
	"daily-habits-tracker/internal/daybound"
	"daily-habits-tracker/internal/domain/repository"
	"daily-habits-tracker/internal/domain/service"
	"daily-habits-tracker/internal/handler"
	cronpkg "daily-habits-tracker/internal/infrastructure/cron"
	infradb "daily-habits-tracker/internal/infrastructure/db"
	"daily-habits-tracker/internal/infrastructure/kafka"
	"daily-habits-tracker/internal/infrastructure/memory"
	"daily-habits-tracker/internal/infrastructure/postgres"
	infraredis "daily-habits-tracker/internal/infrastructure/redis"
	"daily-habits-tracker/internal/infrastructure/slack"
	"daily-habits-tracker/internal/infrastructure/sqlite"
	"daily-habits-tracker/internal/logger"
	"daily-habits-tracker/internal/middleware"
	habitservice "daily-habits-tracker/internal/service"
	"daily-habits-tracker/internal/transport/grpc"

	"go.uber.org/multierr"
)

// App represents the application
type App struct {
	config       *config.Config
	habitRepo    repository.HabitRepository
	habitService service.HabitService
	notifier     service.Notifier
	gateway      *slack.Client
	location     *time.Location
	closers      []func() error
}

// New wires the store, lock, event publisher and services described by cfg.
// cfg must already be validated.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{config: cfg}

	loc, err := cfg.Habits.Location()
	if err != nil {
		return nil, err
	}
	a.location = loc

	days, err := daybound.NewCalculator(cfg.Habits.CutoffHour, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to create day boundary calculator: %w", err)
	}

	if err := a.initStore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	locker, err := a.initLocker(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	var publisher service.EventPublisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(&cfg.Kafka)
		a.closers = append(a.closers, producer.Close)
		publisher = producer
		logger.Info("publishing habit events to kafka", "topic", cfg.Kafka.Topic)
	}

	a.gateway = slack.NewClient(&cfg.Slack)
	a.habitService = habitservice.NewHabitService(a.habitRepo, days, locker, publisher)
	a.notifier = habitservice.NewNotifier(a.habitService, a.gateway, publisher)

	logger.Debug("services initialized", "cutoff_hour", cfg.Habits.CutoffHour, "timezone", loc.String())
	return a, nil
}

func (a *App) initStore(ctx context.Context) error {
	switch a.config.Storage.Driver {
	case config.DriverPostgres:
		pool, err := infradb.NewPostgresPool(ctx, &a.config.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })

		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		a.habitRepo = postgres.NewHabitRepository(pool)

	case config.DriverSQLite:
		if dir := filepath.Dir(a.config.Storage.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		repo, err := sqlite.NewHabitRepository(ctx, a.config.Storage.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open SQLite store: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
		a.habitRepo = repo

	case config.DriverMemory:
		a.habitRepo = memory.NewHabitRepository()

	default:
		return fmt.Errorf("unknown storage driver %q", a.config.Storage.Driver)
	}

	logger.Info("habit store ready", "driver", a.config.Storage.Driver)
	return nil
}

func (a *App) initLocker(ctx context.Context) (service.Locker, error) {
	if !a.config.Redis.Enabled {
		return memory.NewLocker(), nil
	}

	client, err := infraredis.NewRedisClient(ctx, &a.config.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	a.closers = append(a.closers, client.Close)

	logger.Info("using redis table lock", "addr", a.config.Redis.Addr)
	return infraredis.NewTableLock(client, a.config.Redis.LockTTL), nil
}

// HabitService returns the habit service
func (a *App) HabitService() service.HabitService {
	return a.habitService
}

// Notifier returns the summary notifier
func (a *App) Notifier() service.Notifier {
	return a.notifier
}

// NotifyScheduler builds the scheduler configured for this app
func (a *App) NotifyScheduler() *cronpkg.NotifyScheduler {
	return cronpkg.NewNotifyScheduler(a.notifier, a.config.Scheduler.Spec, a.location, a.config.Scheduler.Timeout)
}

// Run serves the Slack endpoints, the gRPC health service and the notify
// scheduler until SIGINT or SIGTERM
func (a *App) Run() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	var scheduler *cronpkg.NotifyScheduler
	if a.config.Scheduler.Enabled {
		scheduler = a.NotifyScheduler()
		if err := scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start notify scheduler: %w", err)
		}
	} else {
		logger.Info("notify scheduler is disabled in configuration")
	}

	limiter := middleware.NewRateLimiter(a.config.HTTP.RequestsPerSecond, a.config.HTTP.Burst)
	slackHandler := handler.NewSlackHandler(a.habitService, a.gateway, a.config.Slack.SigningSecret, a.config.Slack.Timeout)
	router := handler.NewRouter(slackHandler, a.habitRepo, limiter)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.HTTP.Port),
		Handler:      router.Setup(),
		ReadTimeout:  a.config.HTTP.ReadTimeout,
		WriteTimeout: a.config.HTTP.WriteTimeout,
	}

	grpcServer := grpc.NewServer(a.config.GRPC.Port)

	errCh := make(chan error, 2)

	go func() {
		logger.Info("starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := a.habitRepo.Ping(pingCtx); err != nil {
		logger.Warn("habit store not reachable yet", "error", err)
	} else {
		grpcServer.SetServing(true)
	}
	cancel()

	done := make(chan struct{})
	defer close(done)
	go cleanupVisitors(limiter, done)

	logger.Info("service started", "name", a.config.Service.Name, "http_port", a.config.HTTP.Port, "grpc_port", a.config.GRPC.Port)

	var runErr error
	select {
	case <-quit:
	case runErr = <-errCh:
		logger.Error("server failed", "error", runErr)
	}

	logger.Info("shutting down")

	grpcServer.SetServing(false)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("HTTP server shutdown error", "error", err)
	}

	grpcServer.Stop()

	if scheduler != nil {
		scheduler.Stop()
	}

	logger.Info("server shutdown complete")
	return runErr
}

func cleanupVisitors(limiter *middleware.RateLimiter, done <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			limiter.Cleanup(5 * time.Minute)
		}
	}
}

// Close releases every connection opened by New
func (a *App) Close() error {
	var errs error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, a.closers[i]())
	}
	a.closers = nil
	return errs
}
