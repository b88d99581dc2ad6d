package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/peekabot/peekabot/internal/biz/repo"
	"github.com/peekabot/peekabot/internal/biz/usecase"
)

// ReactionSweeper periodically drops stale reaction records and,
// when history is enabled, old history entries
type ReactionSweeper struct {
	tracker     *usecase.ReactionTracker
	historyRepo repo.HistoryRepo // Optional

	interval  time.Duration
	maxAge    time.Duration
	retention time.Duration // 0 keeps history forever
	now       func() time.Time

	once   sync.Once
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewReactionSweeper creates a new sweeper
func NewReactionSweeper(
	tracker *usecase.ReactionTracker,
	historyRepo repo.HistoryRepo,
	interval time.Duration,
	maxAge time.Duration,
	retention time.Duration,
) *ReactionSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if maxAge <= 0 {
		maxAge = usecase.DefaultReactionMaxAge
	}
	return &ReactionSweeper{
		tracker:     tracker,
		historyRepo: historyRepo,
		interval:    interval,
		maxAge:      maxAge,
		retention:   retention,
		now:         time.Now,
	}
}

// Start starts the sweep loop. Only the first call has any effect, so it is
// safe to call on every gateway ready event.
func (s *ReactionSweeper) Start(ctx context.Context) {
	s.once.Do(func() {
		s.ctx, s.cancel = context.WithCancel(ctx)

		s.wg.Add(1)
		go s.loop()

		fmt.Printf("[Sweeper] Started with interval %v, max age %v\n", s.interval, s.maxAge)
	})
}

// Stop stops the sweeper
func (s *ReactionSweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	fmt.Println("[Sweeper] Stopped")
}

// loop sweeps once immediately, then on every tick
func (s *ReactionSweeper) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(s.ctx)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(s.ctx)
		}
	}
}

// Sweep runs one pass and returns the number of reaction records removed
func (s *ReactionSweeper) Sweep(ctx context.Context) int {
	now := s.now()

	removed := s.tracker.Sweep(now, s.maxAge)
	if removed > 0 {
		fmt.Printf("[Sweeper] Dropped %d stale reaction record(s)\n", removed)
	}

	if s.historyRepo != nil && s.retention > 0 {
		count, err := s.historyRepo.CleanupOld(ctx, now.Add(-s.retention))
		if err != nil {
			fmt.Printf("[Sweeper] History cleanup error: %v\n", err)
		} else if count > 0 {
			fmt.Printf("[Sweeper] Cleaned up %d old history entries\n", count)
		}
	}
	return removed
}
