package usecase

import (
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync"

	"github.com/peekabot/peekabot/internal/biz/domain"
)

// DefaultReactionMaxAge is how long an unconsumed record may live before the sweep drops it
const DefaultReactionMaxAge = 48 * time.Hour

type reactionRecord struct {
	mu        sync.Mutex
	createdAt time.Time
	counts    map[string]int
	consumed  bool // Set once the record leaves the map; later increments are dropped
}

// ReactionTracker counts reactions on messages posted by the upload flow.
// A record exists for a message only while that message is tracked.
type ReactionTracker struct {
	records *xsync.MapOf[string, *reactionRecord]
}

// NewReactionTracker creates an empty tracker
func NewReactionTracker() *ReactionTracker {
	return &ReactionTracker{
		records: xsync.NewMapOf[*reactionRecord](),
	}
}

// Register starts tracking a message. An existing record is replaced.
func (t *ReactionTracker) Register(messageID string, now time.Time) {
	old, loaded := t.records.LoadAndStore(messageID, &reactionRecord{
		createdAt: now,
		counts:    make(map[string]int),
	})
	if loaded {
		old.close()
	}
}

// RecordReaction counts one reaction of the given kind.
// Reactions on untracked messages are ignored and never create a record.
func (t *ReactionTracker) RecordReaction(messageID, kind string) bool {
	rec, ok := t.records.Load(messageID)
	if !ok {
		return false
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.consumed {
		return false
	}
	rec.counts[kind]++
	return true
}

// Consume removes the record and returns its counts.
// An untracked message yields an empty tally.
func (t *ReactionTracker) Consume(messageID string) domain.ReactionTally {
	rec, ok := t.records.LoadAndDelete(messageID)
	if !ok {
		return domain.ReactionTally{}
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.consumed = true

	tally := make(domain.ReactionTally, len(rec.counts))
	for kind, n := range rec.counts {
		tally[kind] = n
	}
	return tally
}

// Sweep drops every record older than maxAge and returns how many were removed
func (t *ReactionTracker) Sweep(now time.Time, maxAge time.Duration) int {
	removed := 0
	t.records.Range(func(messageID string, rec *reactionRecord) bool {
		if now.Sub(rec.createdAt) <= maxAge || !rec.close() {
			return true
		}
		removed++

		// The id may have been registered again since Range read it
		if cur, ok := t.records.LoadAndDelete(messageID); ok && cur != rec {
			t.records.LoadOrStore(messageID, cur)
		}
		return true
	})
	return removed
}

// close marks the record consumed. Returns false if it already was.
func (r *reactionRecord) close() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.consumed {
		return false
	}
	r.consumed = true
	return true
}

// Tracked reports whether a record exists for the message
func (t *ReactionTracker) Tracked(messageID string) bool {
	_, ok := t.records.Load(messageID)
	return ok
}

// Len returns the number of tracked messages
func (t *ReactionTracker) Len() int {
	return t.records.Size()
}
