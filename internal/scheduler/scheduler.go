package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-reconciler/internal/service"
)

// Runner performs one reconciliation pass
type Runner interface {
	Run(ctx context.Context) (*service.RunSummary, error)
}

// Scheduler manages the scheduled reconciliation job
type Scheduler struct {
	cron            *cron.Cron
	runner          Runner
	logger          *logrus.Entry
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	runTimeout      time.Duration
	inFlight        atomic.Bool
	lastSummary     atomic.Pointer[service.RunSummary]
	gracefulTimeout time.Duration
}

// NewScheduler creates a new scheduler
func NewScheduler(runner Runner, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
	}
	entry := logger.WithField("component", "scheduler")

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cron.PrintfLogger(entry))),
		),
		runner:          runner,
		logger:          entry,
		jobIDs:          make([]cron.EntryID, 0),
		runTimeout:      2 * time.Hour,
		gracefulTimeout: 30 * time.Second,
	}
}

// ScheduleReconcile schedules reconciliation runs on a five-field cron expression
func (s *Scheduler) ScheduleReconcile(cronExpression string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
		defer cancel()
		s.RunNow(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("cron", cronExpression).Info("Scheduled reconciliation job")

	return nil
}

// RunNow runs one reconciliation unless another is still in flight. It reports
// whether a run took place.
func (s *Scheduler) RunNow(ctx context.Context) bool {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Warn("Previous reconciliation still running; skipping this tick")
		return false
	}
	defer s.inFlight.Store(false)

	summary, err := s.runner.Run(ctx)
	if summary != nil {
		s.lastSummary.Store(summary)
	}
	if err != nil {
		s.logger.WithError(err).Error("Scheduled reconciliation failed")
		return true
	}

	s.logger.WithField("summary", summary.String()).Info("Scheduled reconciliation completed")
	return true
}

// LastSummary returns the summary of the most recent run, or nil
func (s *Scheduler) LastSummary() *service.RunSummary {
	return s.lastSummary.Load()
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop stops the scheduler, waiting up to the graceful timeout for a running job
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.isRunning = false
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduler stop timed out after %v", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			nextTime := entry.Next
			if nextRun.IsZero() || nextTime.Before(nextRun) {
				nextRun = nextTime
			}
		}
	}

	return nextRun
}
