package poll

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler fires poll cycles on a fixed interval. SkipIfStillRunning
// guarantees two cycles never overlap: the store is read-then-written without
// a transaction, so a second concurrent cycle could lose updates.
type Scheduler struct {
	cron    *cron.Cron
	monitor *Monitor
	logger  *slog.Logger
}

// NewScheduler wires the monitor into a cron schedule at the given interval.
func NewScheduler(monitor *Monitor, interval time.Duration, logger *slog.Logger) (*Scheduler, error) {
	cronLogger := &slogCronLogger{logger: logger}
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cronLogger),
		cron.Recover(cronLogger),
	))

	job := func() {
		if err := monitor.CheckAll(context.Background()); err != nil {
			// The cycle is self-healing: log and wait for the next tick.
			logger.Error("Poll cycle failed", "error", err)
		}
	}

	if _, err := c.AddFunc(fmt.Sprintf("@every %s", interval), job); err != nil {
		return nil, fmt.Errorf("add poll schedule: %w", err)
	}

	return &Scheduler{
		cron:    c,
		monitor: monitor,
		logger:  logger,
	}, nil
}

// Start begins firing poll cycles.
func (s *Scheduler) Start() {
	s.logger.Info("Poll scheduler started")
	s.cron.Start()
}

// Stop halts scheduling and returns a context that is done once any in-flight
// cycle has finished, so shutdown never interrupts a store write.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("Poll scheduler stopping")
	return s.cron.Stop()
}

// slogCronLogger adapts slog to cron's logger interface.
type slogCronLogger struct {
	logger *slog.Logger
}

func (l *slogCronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Info(msg, keysAndValues...)
}

func (l *slogCronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
