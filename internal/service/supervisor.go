package service

import (
	"context"
	"fmt"
	"time"
)

// RunFunc runs one platform session until ctx is done or the session fails
type RunFunc func(ctx context.Context) error

// Supervisor restarts a platform session after every failure with a fixed backoff.
// Anything in flight inside a failed session, such as pending expiries, is lost.
type Supervisor struct {
	run     RunFunc
	backoff time.Duration
	after   func(d time.Duration) <-chan time.Time
}

// NewSupervisor creates a new supervisor
func NewSupervisor(run RunFunc, backoff time.Duration) *Supervisor {
	return &Supervisor{
		run:     run,
		backoff: backoff,
		after:   time.After,
	}
}

// Run runs the session until ctx is done, restarting it indefinitely.
// Returns the number of restarts.
func (s *Supervisor) Run(ctx context.Context) int {
	restarts := 0
	for {
		err := s.runOnce(ctx)
		if ctx.Err() != nil {
			return restarts
		}

		if err != nil {
			fmt.Printf("[Supervisor] Bot crashed: %v\n", err)
		} else {
			fmt.Println("[Supervisor] Session ended unexpectedly")
		}
		fmt.Printf("[Supervisor] Restarting in %v...\n", s.backoff)

		select {
		case <-ctx.Done():
			return restarts
		case <-s.after(s.backoff):
		}
		restarts++
	}
}

// runOnce converts a panic in the session into an error
func (s *Supervisor) runOnce(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.run(ctx)
}
