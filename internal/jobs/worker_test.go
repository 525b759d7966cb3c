package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorker_EnqueueRunsJobs(t *testing.T) {
	w := NewWorker(2)
	defer w.Shutdown()

	var wg sync.WaitGroup
	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		wg.Add(1)
		w.Enqueue("count", func(ctx context.Context) error {
			defer wg.Done()
			ran.Add(1)
			return nil
		})
	}
	wg.Wait()
	assert.Equal(t, int32(5), ran.Load())
}

func TestWorker_AsyncFailuresAndPanicsAreCounted(t *testing.T) {
	w := NewWorker(1)

	var mu sync.Mutex
	observed := map[string]error{}
	w.SetObserver(func(name string, elapsed time.Duration, err error) {
		mu.Lock()
		defer mu.Unlock()
		observed[name] = err
	})

	w.EnqueueAsync("ok", func(ctx context.Context) error { return nil })
	w.EnqueueAsync("fails", func(ctx context.Context) error { return errors.New("boom") })
	w.EnqueueAsync("panics", func(ctx context.Context) error { panic("kaboom") })

	require.Eventually(t, func() bool {
		return w.GetStats().CompletedJobs == 3
	}, time.Second, 5*time.Millisecond)
	w.Shutdown()

	stats := w.GetStats()
	assert.Equal(t, int64(2), stats.FailedJobs)
	assert.Zero(t, stats.ActiveJobs)

	mu.Lock()
	defer mu.Unlock()
	assert.NoError(t, observed["ok"])
	assert.EqualError(t, observed["fails"], "boom")
	assert.ErrorContains(t, observed["panics"], "kaboom")
}

func TestWorker_ScheduleEveryImmediate(t *testing.T) {
	w := NewWorker(1)

	var runs atomic.Int32
	w.ScheduleEveryImmediate("tick", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	w.Shutdown()

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, runs.Load(), "no runs after shutdown")
}

func TestWorker_EnqueueAfterShutdownIsDropped(t *testing.T) {
	w := NewWorker(1)
	w.Shutdown()
	w.Shutdown()

	called := false
	w.Enqueue("late", func(ctx context.Context) error { called = true; return nil })
	w.EnqueueAsync("late-async", func(ctx context.Context) error { called = true; return nil })
	assert.False(t, called)
}
