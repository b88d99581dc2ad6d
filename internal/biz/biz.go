package biz

import (
	"github.com/peekabot/peekabot/internal/biz/repo"
	"github.com/peekabot/peekabot/internal/biz/usecase"
)

// Core contains the usecases and in-memory state of one platform session
type Core struct {
	Tracker   *usecase.ReactionTracker
	Scheduler *usecase.ExpiryScheduler
	Expire    *usecase.ExpireUsecase
}

// NewCore creates a fresh core. historyRepo may be nil.
func NewCore(messageRepo repo.MessageRepo, historyRepo repo.HistoryRepo, cfg usecase.ExpireConfig) *Core {
	tracker := usecase.NewReactionTracker()
	scheduler := usecase.NewExpiryScheduler()
	return &Core{
		Tracker:   tracker,
		Scheduler: scheduler,
		Expire:    usecase.NewExpireUsecase(messageRepo, historyRepo, tracker, scheduler, cfg),
	}
}

// Stop drops pending expiries. Returns how many were dropped.
func (c *Core) Stop() int {
	return c.Scheduler.Stop()
}
