// Package scheduler runs the weekly balance snapshot on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"jobflow/service"
	"jobflow/timetracking"

	"github.com/robfig/cron/v3"
)

// SnapshotRunner stores weekly balances.
type SnapshotRunner interface {
	SnapshotWeek(ctx context.Context, week timetracking.Period) (service.SnapshotResult, error)
	PreviousWeek() timetracking.Period
}

type Scheduler struct {
	runner   SnapshotRunner
	cron     *cron.Cron
	schedule string
	logger   *slog.Logger

	mu      sync.Mutex
	rootCtx context.Context
	started bool
}

// New validates the schedule and prepares the cron engine. Overlapping runs
// are skipped.
func New(runner SnapshotRunner, opts ...Option) (*Scheduler, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(o.schedule); err != nil {
		return nil, fmt.Errorf("invalid snapshot schedule %q: %w", o.schedule, err)
	}

	logger := cronLogger{log: o.logger}
	s := &Scheduler{
		runner:   runner,
		schedule: o.schedule,
		logger:   o.logger,
		rootCtx:  context.Background(),
		cron: cron.New(
			cron.WithLocation(o.location),
			cron.WithParser(parser),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
	if _, err := s.cron.AddFunc(o.schedule, s.runScheduled); err != nil {
		return nil, fmt.Errorf("scheduling snapshot job: %w", err)
	}
	return s, nil
}

// Start runs the cron engine in the background. Jobs receive ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.rootCtx = ctx
	s.started = true
	s.cron.Start()
	s.logger.Info("scheduler started", "schedule", s.schedule)
}

// Stop halts the cron engine and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// Run starts the scheduler and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.Start(ctx)
	<-ctx.Done()
	s.Stop()
	return nil
}

// Next returns the next scheduled run, or the zero time when stopped.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunNow snapshots the previous week immediately.
func (s *Scheduler) RunNow(ctx context.Context) (service.SnapshotResult, error) {
	week := s.runner.PreviousWeek()
	start := time.Now()
	res, err := s.runner.SnapshotWeek(ctx, week)
	if err != nil {
		s.logger.Error("weekly snapshot failed",
			"period_start", week.Start,
			"duration", time.Since(start),
			"error", err)
		return res, err
	}
	s.logger.Info("weekly snapshot finished",
		"period_start", week.Start,
		"snapshots", res.Snapshots,
		"alerts", len(res.Alerts),
		"duration", time.Since(start))
	return res, nil
}

func (s *Scheduler) runScheduled() {
	s.mu.Lock()
	ctx := s.rootCtx
	s.mu.Unlock()
	_, _ = s.RunNow(ctx)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
