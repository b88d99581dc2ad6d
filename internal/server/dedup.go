package server

import (
	"sync"
	"time"
)

// seenCache remembers recently handled event IDs.
// Feishu redelivers an event when the ack is late.
type seenCache struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
}

func newSeenCache(ttl time.Duration) *seenCache {
	return &seenCache{
		seen: make(map[string]time.Time),
		ttl:  ttl,
	}
}

// checkAndMark reports whether id was already seen, marking it if not
func (c *seenCache) checkAndMark(id string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ts, exists := c.seen[id]; exists && now.Sub(ts) <= c.ttl {
		return true
	}
	c.seen[id] = now

	// Clean up expired records when marking new ones
	cutoff := now.Add(-c.ttl)
	for k, ts := range c.seen {
		if ts.Before(cutoff) {
			delete(c.seen, k)
		}
	}
	return false
}

func (c *seenCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
