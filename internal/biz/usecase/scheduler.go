package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync"
)

// Timer is the subset of *time.Timer the scheduler needs
type Timer interface {
	Stop() bool
}

// AfterFunc starts a timer that calls f after d. time.AfterFunc in production.
type AfterFunc func(d time.Duration, f func()) Timer

func defaultAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ExpiryTask is one scheduled delayed action
type ExpiryTask struct {
	ID          string
	Key         string // Target message ID
	Delay       time.Duration
	ScheduledAt time.Time

	timer Timer
}

// DueAt returns when the task fires
func (t *ExpiryTask) DueAt() time.Time {
	return t.ScheduledAt.Add(t.Delay)
}

// ExpiryScheduler runs delayed actions, each targeting one message.
// Tasks cannot be cancelled individually; Stop drops all of them.
type ExpiryScheduler struct {
	tasks     *xsync.MapOf[string, *ExpiryTask]
	afterFunc AfterFunc

	// mu orders Schedule against Stop
	mu      sync.Mutex
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewExpiryScheduler creates a scheduler backed by time.AfterFunc
func NewExpiryScheduler() *ExpiryScheduler {
	return NewExpirySchedulerWithTimer(defaultAfterFunc)
}

// NewExpirySchedulerWithTimer creates a scheduler with a custom timer source
func NewExpirySchedulerWithTimer(afterFunc AfterFunc) *ExpiryScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &ExpiryScheduler{
		tasks:     xsync.NewMapOf[*ExpiryTask](),
		afterFunc: afterFunc,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Action is the work a task performs when it fires
type Action func(ctx context.Context, task *ExpiryTask)

// Schedule runs action once after delay. The key is the message the action targets.
// Returns nil once the scheduler is stopped.
func (s *ExpiryScheduler) Schedule(key string, delay time.Duration, action Action) *ExpiryTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		fmt.Printf("[Scheduler] Stopped, not scheduling %s\n", key)
		return nil
	}

	task := &ExpiryTask{
		ID:          uuid.NewString(),
		Key:         key,
		Delay:       delay,
		ScheduledAt: time.Now(),
	}

	s.wg.Add(1)
	s.tasks.Store(task.ID, task)
	task.timer = s.afterFunc(delay, func() {
		defer s.wg.Done()
		s.fire(task, action)
	})

	fmt.Printf("[Scheduler] Task %s scheduled for %s in %v\n", task.ID, key, delay)
	return task
}

func (s *ExpiryScheduler) fire(task *ExpiryTask, action Action) {
	s.tasks.Delete(task.ID)

	if s.ctx.Err() != nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("[Scheduler] Task %s panicked: %v\n", task.ID, r)
		}
	}()

	fmt.Printf("[Scheduler] Task %s firing for %s\n", task.ID, task.Key)
	action(s.ctx, task)
}

// Pending returns the number of tasks that have not fired yet
func (s *ExpiryScheduler) Pending() int {
	return s.tasks.Size()
}

// TaskFor returns the pending task targeting a message, if any
func (s *ExpiryScheduler) TaskFor(key string) (*ExpiryTask, bool) {
	var found *ExpiryTask
	s.tasks.Range(func(_ string, task *ExpiryTask) bool {
		if task.Key == key {
			found = task
			return false
		}
		return true
	})
	return found, found != nil
}

// Tasks returns the pending tasks, soonest first
func (s *ExpiryScheduler) Tasks() []*ExpiryTask {
	var tasks []*ExpiryTask
	s.tasks.Range(func(_ string, task *ExpiryTask) bool {
		tasks = append(tasks, task)
		return true
	})
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].DueAt().Before(tasks[j].DueAt())
	})
	return tasks
}

// Stop drops every pending task without running it and waits for running
// actions to finish. Returns the number of dropped tasks.
func (s *ExpiryScheduler) Stop() int {
	s.mu.Lock()
	s.stopped = true
	s.cancel()

	dropped := 0
	s.tasks.Range(func(id string, task *ExpiryTask) bool {
		if task.timer != nil && task.timer.Stop() {
			dropped++
			s.wg.Done()
		}
		s.tasks.Delete(id)
		return true
	})
	s.mu.Unlock()

	s.wg.Wait()
	if dropped > 0 {
		fmt.Printf("[Scheduler] Stopped, %d pending expiries dropped\n", dropped)
	} else {
		fmt.Println("[Scheduler] Stopped")
	}
	return dropped
}
