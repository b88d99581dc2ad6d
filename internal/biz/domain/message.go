package domain

import "time"

// PostedMessage is a message the bot created in a chat
type PostedMessage struct {
	ID        string
	ChannelID string
	CreatedAt time.Time
}

// Age returns how long ago the message was posted
func (m *PostedMessage) Age(now time.Time) time.Duration {
	return now.Sub(m.CreatedAt)
}
