package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPool_RunsSubmittedTasks(t *testing.T) {
	p := NewPool(3, 10, zap.NewNop())
	p.Start()

	var ran int32
	for i := 0; i < 10; i++ {
		ok := p.Submit(Task{Name: "count", Run: func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		}})
		require.True(t, ok)
	}

	require.NoError(t, p.Stop(context.Background()))
	assert.EqualValues(t, 10, atomic.LoadInt32(&ran))
}

func TestPool_FailuresAndPanicsAreContained(t *testing.T) {
	p := NewPool(1, 10, zap.NewNop())
	p.Start()

	var after int32
	p.Submit(Task{Name: "fails", Run: func(ctx context.Context) error { return errors.New("boom") }})
	p.Submit(Task{Name: "panics", Run: func(ctx context.Context) error { panic("bad") }})
	p.Submit(Task{Name: "after", Run: func(ctx context.Context) error {
		atomic.AddInt32(&after, 1)
		return nil
	}})

	require.NoError(t, p.Stop(context.Background()))
	assert.EqualValues(t, 1, atomic.LoadInt32(&after))
}

func TestPool_RejectsAfterStop(t *testing.T) {
	p := NewPool(1, 1, zap.NewNop())
	p.Start()
	require.NoError(t, p.Stop(context.Background()))

	assert.False(t, p.Submit(Task{Name: "late", Run: func(ctx context.Context) error { return nil }}))
	assert.NoError(t, p.Stop(context.Background()))
}

func TestPool_DropsWhenQueueFull(t *testing.T) {
	p := NewPool(1, 1, zap.NewNop())
	// not started: the single slot fills and the next submit is dropped
	assert.True(t, p.Submit(Task{Name: "a", Run: func(ctx context.Context) error { return nil }}))
	assert.False(t, p.Submit(Task{Name: "b", Run: func(ctx context.Context) error { return nil }}))

	p.Start()
	require.NoError(t, p.Stop(context.Background()))
}

func TestPool_StopTimeoutCancelsRunningTasks(t *testing.T) {
	p := NewPool(1, 1, zap.NewNop())
	p.Start()

	started := make(chan struct{})
	p.Submit(Task{Name: "slow", Run: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.Stop(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScheduler_RunsUntilStopped(t *testing.T) {
	s := NewScheduler(zap.NewNop())

	var runs int32
	s.Every("tick", 5*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	})
	s.Every("disabled", 0, func(ctx context.Context) error {
		t.Error("disabled job must not run")
		return nil
	})

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()

	stopped := atomic.LoadInt32(&runs)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, atomic.LoadInt32(&runs))
}
