package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/race-reconciler/internal/service"
)

type blockingRunner struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	started chan struct{}
	err     error
}

func (r *blockingRunner) Run(ctx context.Context) (*service.RunSummary, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()

	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.release != nil {
		<-r.release
	}
	return service.NewRunSummary("run", false), r.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestRunNowSkipsOverlappingRuns(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{}), started: make(chan struct{}, 1)}
	s := NewScheduler(runner, quietLogger())

	done := make(chan bool)
	go func() { done <- s.RunNow(context.Background()) }()
	<-runner.started

	assert.False(t, s.RunNow(context.Background()))

	close(runner.release)
	assert.True(t, <-done)
	assert.Equal(t, 1, runner.calls)
	require.NotNil(t, s.LastSummary())
	assert.Equal(t, "run", s.LastSummary().RunID)
}

func TestRunNowRecordsFailedRun(t *testing.T) {
	runner := &blockingRunner{err: errors.New("store unavailable")}
	s := NewScheduler(runner, quietLogger())

	assert.True(t, s.RunNow(context.Background()))
	assert.NotNil(t, s.LastSummary())
	assert.True(t, s.RunNow(context.Background()))
	assert.Equal(t, 2, runner.calls)
}

func TestScheduleReconcile(t *testing.T) {
	s := NewScheduler(&blockingRunner{}, quietLogger())

	assert.Error(t, s.Start(), "no jobs scheduled")
	assert.Error(t, s.ScheduleReconcile("not a cron"))
	require.NoError(t, s.ScheduleReconcile("*/15 * * * *"))

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start())
	assert.Error(t, s.ScheduleReconcile("0 * * * *"))

	next := s.GetNextRun()
	assert.False(t, next.IsZero())
	assert.True(t, next.After(time.Now().Add(-time.Minute)))

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.True(t, s.GetNextRun().IsZero())
}
