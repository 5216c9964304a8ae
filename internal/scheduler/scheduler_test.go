package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingJob struct {
	ticks atomic.Int64
	err   error
}

func (j *countingJob) Tick(ctx context.Context) error {
	j.ticks.Add(1)
	return j.err
}

func TestScheduler_TicksUntilCancelled(t *testing.T) {
	job := &countingJob{}
	s := New(20*time.Millisecond, job, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		return job.ticks.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	// no further ticks after shutdown
	settled := job.ticks.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, settled, job.ticks.Load())
}

func TestScheduler_JobErrorsDoNotStopTheLoop(t *testing.T) {
	job := &countingJob{err: errors.New("feed down")}
	s := New(20*time.Millisecond, job, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		return job.ticks.Load() >= 3
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
