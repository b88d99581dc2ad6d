package usecase

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peekabot/peekabot/internal/biz/domain"
)

func TestReactionTracker_RecordOnUntrackedIsIgnored(t *testing.T) {
	tracker := NewReactionTracker()

	require.False(t, tracker.RecordReaction("unknown", "👍"))
	require.False(t, tracker.Tracked("unknown"))
	require.Zero(t, tracker.Len())
}

func TestReactionTracker_RegisterRecordConsume(t *testing.T) {
	tracker := NewReactionTracker()
	now := time.Now()

	tracker.Register("m1", now)
	tracker.Register("m2", now)

	require.True(t, tracker.RecordReaction("m1", "👍"))
	require.True(t, tracker.RecordReaction("m1", "👍"))
	require.True(t, tracker.RecordReaction("m1", "🎉"))
	require.Equal(t, 2, tracker.Len())

	tally := tracker.Consume("m1")
	require.Equal(t, domain.ReactionTally{"👍": 2, "🎉": 1}, tally)

	// Second consume is empty, never panics
	require.Empty(t, tracker.Consume("m1"))
	require.False(t, tracker.Tracked("m1"))

	// Untouched record is empty but present
	require.True(t, tracker.Tracked("m2"))
	require.Empty(t, tracker.Consume("m2"))
	require.Zero(t, tracker.Len())
}

func TestReactionTracker_ConsumeUnknown(t *testing.T) {
	tracker := NewReactionTracker()
	tally := tracker.Consume("nope")
	require.NotNil(t, tally)
	require.Empty(t, tally)
}

func TestReactionTracker_ReactionAfterConsumeIgnored(t *testing.T) {
	tracker := NewReactionTracker()
	tracker.Register("m1", time.Now())
	tracker.Consume("m1")

	require.False(t, tracker.RecordReaction("m1", "👍"))
	require.False(t, tracker.Tracked("m1"))
}

func TestReactionTracker_Sweep(t *testing.T) {
	tracker := NewReactionTracker()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tracker.Register("fresh", now.Add(-1*time.Hour))
	tracker.Register("boundary", now.Add(-DefaultReactionMaxAge))
	tracker.Register("stale", now.Add(-DefaultReactionMaxAge-time.Second))
	tracker.Register("ancient", now.Add(-30*24*time.Hour))

	removed := tracker.Sweep(now, DefaultReactionMaxAge)
	require.Equal(t, 2, removed)
	require.True(t, tracker.Tracked("fresh"))
	require.True(t, tracker.Tracked("boundary"))
	require.False(t, tracker.Tracked("stale"))
	require.False(t, tracker.Tracked("ancient"))

	require.Zero(t, tracker.Sweep(now, DefaultReactionMaxAge))
}

func TestReactionTracker_ConcurrentReactions(t *testing.T) {
	tracker := NewReactionTracker()
	tracker.Register("m1", time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.RecordReaction("m1", "👍")
			tracker.RecordReaction("other", "👍")
		}()
	}
	wg.Wait()

	require.Equal(t, domain.ReactionTally{"👍": 50}, tracker.Consume("m1"))
	require.False(t, tracker.Tracked("other"))
}

func TestReactionTracker_ReactionsRacingConsume(t *testing.T) {
	for round := 0; round < 20; round++ {
		tracker := NewReactionTracker()
		tracker.Register("m1", time.Now())

		var counted int64
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					if tracker.RecordReaction("m1", "👍") {
						atomic.AddInt64(&counted, 1)
					}
				}
			}()
		}

		tally := tracker.Consume("m1")
		wg.Wait()

		// Every increment that reported success is in the tally, none after
		require.Equal(t, int(atomic.LoadInt64(&counted)), tally["👍"])
		require.False(t, tracker.Tracked("m1"))
		require.False(t, tracker.RecordReaction("m1", "👍"))
	}
}

func TestReactionTracker_SweepKeepsReRegisteredRecord(t *testing.T) {
	tracker := NewReactionTracker()
	now := time.Now()

	tracker.Register("m1", now.Add(-time.Hour))
	tracker.Register("m1", now)

	require.Zero(t, tracker.Sweep(now, time.Minute))
	require.True(t, tracker.RecordReaction("m1", "🎉"))
	require.Equal(t, domain.ReactionTally{"🎉": 1}, tracker.Consume("m1"))
}

func TestReactionTracker_SweptRecordRejectsReactions(t *testing.T) {
	tracker := NewReactionTracker()
	now := time.Now()
	tracker.Register("old", now.Add(-time.Hour))

	require.Equal(t, 1, tracker.Sweep(now, time.Minute))
	require.False(t, tracker.RecordReaction("old", "👍"))
	require.Zero(t, tracker.Len())
}
