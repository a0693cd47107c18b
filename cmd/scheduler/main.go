package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/class-scheduler/internal/application"
	"github.com/example/class-scheduler/internal/availability"
	"github.com/example/class-scheduler/internal/config"
	httptransport "github.com/example/class-scheduler/internal/http"
	"github.com/example/class-scheduler/internal/jobs"
	"github.com/example/class-scheduler/internal/logging"
	"github.com/example/class-scheduler/internal/persistence"
	"github.com/example/class-scheduler/internal/persistence/gormstore"
	"github.com/example/class-scheduler/internal/persistence/sqlite"
	"github.com/example/class-scheduler/internal/recurrence"
)

// store is what the service needs from a storage backend.
type store interface {
	persistence.Store
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
}

type services struct {
	series  *application.SeriesService
	classes *application.ClassService
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Default().Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel)

	storage, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open storage", "storage", cfg.Storage, "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	svc := newServices(storage, cfg.Location, uuid.NewString, time.Now, logger)

	var sweeper *jobs.StatusSweeper
	if cfg.SweepSchedule != "" {
		sweeper, err = jobs.NewStatusSweeper(svc.classes, cfg.SweepSchedule, logger)
		if err != nil {
			logger.Error("failed to schedule status sweep", "error", err)
			os.Exit(1)
		}
		sweeper.Start()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           newHandler(svc, storage, cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
		if sweeper != nil {
			if err := sweeper.Stop(shutdownCtx); err != nil {
				logger.Error("status sweep did not stop in time", "error", err)
			}
		}
	}()

	logger.Info("class scheduler listening",
		"addr", server.Addr,
		"storage", cfg.Storage,
		"timezone", cfg.Location.String(),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// openStore connects to the configured backend and brings its schema up to date.
func openStore(ctx context.Context, cfg config.Config) (store, error) {
	var (
		s   store
		err error
	)
	switch cfg.Storage {
	case config.StoragePostgres:
		s, err = gormstore.OpenPostgres(cfg.PostgresDSN)
	case config.StorageSQLite, "":
		s, err = sqlite.Open(ctx, cfg.SQLiteDSN)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return s, nil
}

func newServices(s persistence.Store, loc *time.Location, idGenerator func() string, now func() time.Time, logger *slog.Logger) services {
	checker := availability.NewChecker(s)
	engine := recurrence.NewEngine(loc)
	return services{
		series:  application.NewSeriesServiceWithLogger(s, s, checker, engine, idGenerator, now, logger),
		classes: application.NewClassServiceWithLogger(s, checker, idGenerator, now, logger),
	}
}

func newHandler(svc services, health httptransport.Pinger, cfg config.Config, logger *slog.Logger) http.Handler {
	return httptransport.NewRouter(httptransport.RouterConfig{
		Series:     httptransport.NewSeriesHandler(svc.series, cfg.Location, logger),
		Classes:    httptransport.NewClassHandler(svc.classes, svc.series, cfg.Location, logger),
		Health:     health,
		APIKeyHash: cfg.APIKeyHash,
		Logger:     logger,
	})
}
