// Package jobs holds the background work the scheduler service runs on a timer.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule runs the status sweep every five minutes.
const DefaultSweepSchedule = "*/5 * * * *"

const sweepTimeout = 4 * time.Minute

// Completer marks classes that have already ended as completed.
type Completer interface {
	CompletePastClasses(ctx context.Context) (int64, error)
}

// StatusSweeper periodically moves ended classes from scheduled to completed.
type StatusSweeper struct {
	completer Completer
	cron      *cron.Cron
	logger    *slog.Logger
}

// NewStatusSweeper registers the sweep under a standard five-field cron schedule.
func NewStatusSweeper(completer Completer, schedule string, logger *slog.Logger) (*StatusSweeper, error) {
	if completer == nil {
		return nil, fmt.Errorf("jobs: completer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("job", "status_sweep")

	s := &StatusSweeper{completer: completer, logger: logger}
	cronLog := cronLogger{logger: logger}
	s.cron = cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("jobs: invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins running the schedule in the background.
func (s *StatusSweeper) Start() {
	s.cron.Start()
	s.logger.Info("status sweep started")
}

// Stop halts the schedule and waits for a running sweep to finish or ctx to end.
func (s *StatusSweeper) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("status sweep stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sweep runs one pass immediately.
func (s *StatusSweeper) Sweep(ctx context.Context) (int64, error) {
	return s.completer.CompletePastClasses(ctx)
}

func (s *StatusSweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	completed, err := s.Sweep(ctx)
	if err != nil {
		s.logger.Error("status sweep failed", "error", err)
		return
	}
	s.logger.Debug("status sweep finished", "completed", completed)
}

// cronLogger routes cron's own diagnostics through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
