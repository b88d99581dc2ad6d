package domain

import "time"

// HistoryEntry records one fired expiry
type HistoryEntry struct {
	ID           int64
	TaskID       string
	ChannelID    string
	MessageID    string
	UserID       string
	DelaySeconds int64
	DelayText    string
	Deleted      bool // False when the message was already gone
	Reactions    ReactionTally
	ScheduledAt  time.Time
	FiredAt      time.Time
}

// Late returns how far past its due time the expiry fired
func (e *HistoryEntry) Late() time.Duration {
	due := e.ScheduledAt.Add(time.Duration(e.DelaySeconds) * time.Second)
	if e.FiredAt.Before(due) {
		return 0
	}
	return e.FiredAt.Sub(due)
}
