package worker_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiadopay/worker"
)

func TestPoolRunsAllTasks(t *testing.T) {
	t.Parallel()

	p := worker.New("test", 4)
	var done atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		p.Submit(func() {
			defer wg.Done()
			done.Add(1)
		})
	}
	wg.Wait()
	p.Stop()

	assert.Equal(t, int64(100), done.Load())
}

func TestPoolSurvivesPanickingTask(t *testing.T) {
	t.Parallel()

	p := worker.New("test", 1)
	defer p.Stop()

	p.Submit(func() { panic("boom") })

	ran := make(chan struct{})
	p.Submit(func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("worker died after task panic")
	}
}

func TestStopWaitsForInFlightTasks(t *testing.T) {
	t.Parallel()

	p := worker.New("test", 2)
	var done atomic.Bool
	p.Submit(func() {
		time.Sleep(50 * time.Millisecond)
		done.Store(true)
	})

	p.Stop()
	require.True(t, done.Load())
}

func TestZeroSizeStillWorks(t *testing.T) {
	t.Parallel()

	p := worker.New("test", 0)
	defer p.Stop()

	ran := make(chan struct{})
	p.Submit(func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("pool with clamped size ran nothing")
	}
}
