package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExpiryScheduler_FiresOnce(t *testing.T) {
	clock := &fakeClock{}
	s := NewExpirySchedulerWithTimer(clock.AfterFunc)

	var runs int32
	var got *ExpiryTask
	task := s.Schedule("m1", 5*time.Second, func(ctx context.Context, tk *ExpiryTask) {
		atomic.AddInt32(&runs, 1)
		got = tk
	})

	require.NotNil(t, task)
	require.NotEmpty(t, task.ID)
	require.Equal(t, "m1", task.Key)
	require.Equal(t, 1, s.Pending())
	require.Equal(t, []time.Duration{5 * time.Second}, clock.delays())

	found, ok := s.TaskFor("m1")
	require.True(t, ok)
	require.Equal(t, task.ID, found.ID)

	clock.FireAll()
	clock.FireAll()

	require.Equal(t, int32(1), atomic.LoadInt32(&runs))
	require.Same(t, task, got)
	require.Zero(t, s.Pending())
	_, ok = s.TaskFor("m1")
	require.False(t, ok)
}

func TestExpiryScheduler_IndependentTasks(t *testing.T) {
	clock := &fakeClock{}
	s := NewExpirySchedulerWithTimer(clock.AfterFunc)

	var runs int32
	for _, key := range []string{"a", "b", "c"} {
		s.Schedule(key, time.Minute, func(ctx context.Context, tk *ExpiryTask) {
			atomic.AddInt32(&runs, 1)
		})
	}
	require.Equal(t, 3, s.Pending())

	clock.FireAll()
	require.Equal(t, int32(3), atomic.LoadInt32(&runs))
}

func TestExpiryScheduler_TasksSoonestFirst(t *testing.T) {
	clock := &fakeClock{}
	s := NewExpirySchedulerWithTimer(clock.AfterFunc)
	defer s.Stop()

	noop := func(ctx context.Context, tk *ExpiryTask) {}
	s.Schedule("late", time.Hour, noop)
	s.Schedule("soon", time.Second, noop)
	s.Schedule("mid", time.Minute, noop)

	var keys []string
	for _, task := range s.Tasks() {
		keys = append(keys, task.Key)
	}
	require.Equal(t, []string{"soon", "mid", "late"}, keys)
}

func TestExpiryScheduler_PanicIsRecovered(t *testing.T) {
	clock := &fakeClock{}
	s := NewExpirySchedulerWithTimer(clock.AfterFunc)

	s.Schedule("m1", time.Second, func(ctx context.Context, tk *ExpiryTask) {
		panic("delete exploded")
	})

	require.NotPanics(t, clock.FireAll)
	require.Zero(t, s.Pending())
	require.Zero(t, s.Stop())
}

func TestExpiryScheduler_StopDropsPending(t *testing.T) {
	clock := &fakeClock{}
	s := NewExpirySchedulerWithTimer(clock.AfterFunc)

	var runs int32
	s.Schedule("m1", time.Hour, func(ctx context.Context, tk *ExpiryTask) {
		atomic.AddInt32(&runs, 1)
	})
	s.Schedule("m2", time.Hour, func(ctx context.Context, tk *ExpiryTask) {
		atomic.AddInt32(&runs, 1)
	})

	require.Equal(t, 2, s.Stop())
	require.Zero(t, s.Pending())

	clock.FireAll()
	require.Zero(t, atomic.LoadInt32(&runs))

	// Nothing new after stop
	require.Nil(t, s.Schedule("m3", time.Second, func(ctx context.Context, tk *ExpiryTask) {}))
}

func TestExpiryScheduler_RealTimer(t *testing.T) {
	s := NewExpiryScheduler()
	defer s.Stop()

	done := make(chan struct{})
	s.Schedule("m1", 10*time.Millisecond, func(ctx context.Context, tk *ExpiryTask) {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not fire")
	}
}

func TestExpiryScheduler_StopWaitsForInFlightSchedule(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	slowAfter := func(d time.Duration, f func()) Timer {
		close(entered)
		<-release
		return time.AfterFunc(d, f)
	}
	s := NewExpirySchedulerWithTimer(slowAfter)

	go s.Schedule("m1", time.Hour, func(ctx context.Context, tk *ExpiryTask) {})
	<-entered

	stopped := make(chan int, 1)
	go func() { stopped <- s.Stop() }()

	time.Sleep(20 * time.Millisecond)
	close(release)

	select {
	case n := <-stopped:
		require.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("Stop waited for the dropped task's timer")
	}
	require.Zero(t, s.Pending())
}

func TestExpiryScheduler_ConcurrentScheduleAndStop(t *testing.T) {
	s := NewExpiryScheduler()

	var scheduled int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Schedule("m", time.Hour, func(ctx context.Context, tk *ExpiryTask) {}) != nil {
				atomic.AddInt32(&scheduled, 1)
			}
		}()
	}

	done := make(chan int, 1)
	go func() { done <- s.Stop() }()

	select {
	case dropped := <-done:
		wg.Wait()
		require.LessOrEqual(t, dropped, int(atomic.LoadInt32(&scheduled)))
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on pending timers")
	}
	require.Zero(t, s.Pending())
}
