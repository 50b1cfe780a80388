//go:build !integration

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"telegram-storefront/internal/infra/logging"
)

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Refresh(context.Context) (int, error) {
	j.runs.Add(1)
	return 3, j.err
}

func TestSchedulerRunsImmediatelyAndOnTick(t *testing.T) {
	job := &countingJob{}
	s := NewScheduler("catalog", 10*time.Millisecond, job, logging.Nop())

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return job.runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	after := job.runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, job.runs.Load(), "no runs after Stop")
}

func TestSchedulerKeepsRunningAfterErrors(t *testing.T) {
	job := &countingJob{err: errors.New("backend down")}
	s := NewScheduler("catalog", 10*time.Millisecond, job, logging.Nop())

	s.Start(context.Background())
	defer s.Stop()
	assert.Eventually(t, func() bool { return job.runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	s := NewScheduler("catalog", time.Hour, &countingJob{}, logging.Nop())
	s.Stop()
	s.Start(context.Background())
	s.Start(context.Background())
	s.Stop()
	s.Stop()
}

func TestSchedulerStopsWithParentContext(t *testing.T) {
	job := &countingJob{}
	s := NewScheduler("catalog", time.Hour, job, logging.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	s.Start(ctx)
	assert.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	s.Stop()
}
