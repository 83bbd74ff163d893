package tuning

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler re-runs a refresh function on a cron schedule.
type Scheduler struct {
	schedule string
	refresh  func(ctx context.Context)
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// ValidateSchedule reports whether expr is a valid standard cron expression
// (five fields, or a descriptor such as "@every 10m").
func ValidateSchedule(expr string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", expr, err)
	}
	return nil
}

// NewScheduler creates a scheduler. It does nothing until Start.
func NewScheduler(schedule string, refresh func(ctx context.Context), logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		schedule: schedule,
		refresh:  refresh,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start registers the refresh job and starts the cron runner. The scheduler
// stops when ctx is cancelled. An empty schedule is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		return nil
	}
	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if err := ValidateSchedule(s.schedule); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.logger.Debug("scheduled tuning refresh")
		s.refresh(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule tuning refresh: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("tuning refresh scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the runner and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("tuning refresh scheduler stopped")
}

// IsRunning reports whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled refresh, or nil when idle.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if !s.running || len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
