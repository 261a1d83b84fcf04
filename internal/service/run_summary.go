package service

import (
	"fmt"
	"sync"
	"time"
)

// Summary count names
const (
	CountProcessed = "processed"
	CountSettled   = "settled"
	CountUpdated   = "updated"
	CountUnmatched = "unmatched"
	CountSkipped   = "skipped"
	CountMalformed = "malformed"
	CountErrored   = "errored"
)

// RunSummary tracks the outcome counts of one reconciliation run
type RunSummary struct {
	mu        sync.RWMutex
	RunID     string
	DryRun    bool
	StartTime time.Time
	Duration  time.Duration
	Processed int // bets loaded from the store
	Settled   int // bets with a computed settlement
	Updated   int // settlements written to the store
	Unmatched int // bets with result data but no matched leg
	Skipped   int // bets with no result data for any leg
	Malformed int // bets failing validation
	Errored   int // settlements the store rejected
}

// NewRunSummary creates a summary for runID starting now
func NewRunSummary(runID string, dryRun bool) *RunSummary {
	return &RunSummary{
		RunID:     runID,
		DryRun:    dryRun,
		StartTime: time.Now(),
	}
}

func (s *RunSummary) add(field string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch field {
	case CountProcessed:
		s.Processed += n
	case CountSettled:
		s.Settled += n
	case CountUpdated:
		s.Updated += n
	case CountUnmatched:
		s.Unmatched += n
	case CountSkipped:
		s.Skipped += n
	case CountMalformed:
		s.Malformed += n
	case CountErrored:
		s.Errored += n
	}
}

func (s *RunSummary) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Duration = time.Since(s.StartTime)
}

// Counts returns the summary counts keyed by name
func (s *RunSummary) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]int{
		CountProcessed: s.Processed,
		CountSettled:   s.Settled,
		CountUpdated:   s.Updated,
		CountUnmatched: s.Unmatched,
		CountSkipped:   s.Skipped,
		CountMalformed: s.Malformed,
		CountErrored:   s.Errored,
	}
}

// String returns a formatted string representation of the summary
func (s *RunSummary) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fmt.Sprintf(
		"RunSummary{ID=%s, Processed=%d, Settled=%d, Updated=%d, Unmatched=%d, Skipped=%d, Malformed=%d, Errored=%d, DryRun=%t, Duration=%v}",
		s.RunID,
		s.Processed,
		s.Settled,
		s.Updated,
		s.Unmatched,
		s.Skipped,
		s.Malformed,
		s.Errored,
		s.DryRun,
		s.Duration,
	)
}
