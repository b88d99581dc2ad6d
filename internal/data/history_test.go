package data

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peekabot/peekabot/internal/biz/domain"
)

func newTestHistoryRepo(t *testing.T) *historyRepo {
	t.Helper()
	r, err := NewHistoryRepo(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r.(*historyRepo)
}

func TestHistoryRepo_AppendAndRecent(t *testing.T) {
	r := newTestHistoryRepo(t)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	first := &domain.HistoryEntry{
		TaskID:       "task-1",
		ChannelID:    "chan",
		MessageID:    "msg-1",
		UserID:       "42",
		DelaySeconds: 60,
		DelayText:    "1 minute",
		Deleted:      true,
		Reactions:    domain.ReactionTally{"🎉": 2, "👍": 1},
		ScheduledAt:  base,
		FiredAt:      base.Add(61 * time.Second),
	}
	second := &domain.HistoryEntry{
		TaskID:       "task-2",
		ChannelID:    "chan",
		MessageID:    "msg-2",
		DelaySeconds: 5,
		DelayText:    "5 seconds",
		Deleted:      false,
		ScheduledAt:  base.Add(time.Minute),
		FiredAt:      base.Add(2 * time.Minute),
	}

	require.NoError(t, r.Append(ctx, first))
	require.NoError(t, r.Append(ctx, second))
	require.NotZero(t, first.ID)
	require.NotEqual(t, first.ID, second.ID)

	entries, err := r.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first
	require.Equal(t, "msg-2", entries[0].MessageID)
	require.False(t, entries[0].Deleted)
	require.Empty(t, entries[0].Reactions)

	got := entries[1]
	require.Equal(t, "task-1", got.TaskID)
	require.Equal(t, "42", got.UserID)
	require.Equal(t, int64(60), got.DelaySeconds)
	require.Equal(t, "1 minute", got.DelayText)
	require.True(t, got.Deleted)
	require.Equal(t, domain.ReactionTally{"🎉": 2, "👍": 1}, got.Reactions)
	require.True(t, got.ScheduledAt.Equal(base))
	require.Equal(t, time.Second, got.Late())
}

func TestHistoryRepo_RecentLimit(t *testing.T) {
	r := newTestHistoryRepo(t)
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 5; i++ {
		require.NoError(t, r.Append(ctx, &domain.HistoryEntry{
			TaskID:      "task",
			ChannelID:   "chan",
			MessageID:   "msg",
			DelayText:   "1 second",
			ScheduledAt: base,
			FiredAt:     base.Add(time.Duration(i) * time.Second),
		}))
	}

	entries, err := r.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
}

func TestHistoryRepo_CleanupOld(t *testing.T) {
	r := newTestHistoryRepo(t)
	ctx := context.Background()
	now := time.Now()

	old := &domain.HistoryEntry{TaskID: "old", ChannelID: "c", MessageID: "m1", DelayText: "1 hour",
		ScheduledAt: now.Add(-40 * 24 * time.Hour), FiredAt: now.Add(-40 * 24 * time.Hour)}
	fresh := &domain.HistoryEntry{TaskID: "fresh", ChannelID: "c", MessageID: "m2", DelayText: "1 hour",
		ScheduledAt: now.Add(-time.Hour), FiredAt: now}
	require.NoError(t, r.Append(ctx, old))
	require.NoError(t, r.Append(ctx, fresh))

	removed, err := r.CleanupOld(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	entries, err := r.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "fresh", entries[0].TaskID)
}

func TestNewRepositories_HistoryDisabled(t *testing.T) {
	repos, err := NewRepositories("")
	require.NoError(t, err)
	require.Nil(t, repos.History)
	require.NoError(t, repos.Close())
}

func TestNewRepositories_HistoryEnabled(t *testing.T) {
	repos, err := NewRepositories(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	require.NotNil(t, repos.History)

	bound := repos.WithMessage(nil)
	require.Equal(t, repos.History, bound.History)
	require.NoError(t, repos.Close())
}
