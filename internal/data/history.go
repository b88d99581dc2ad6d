package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/peekabot/peekabot/internal/biz/domain"
	"github.com/peekabot/peekabot/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// historyRepo implements the expiry history repository
type historyRepo struct {
	db *sql.DB
}

// NewHistoryRepo opens (or creates) the history database
func NewHistoryRepo(dbPath string) (repo.HistoryRepo, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS expiry_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			message_id TEXT NOT NULL,
			user_id TEXT NOT NULL DEFAULT '',
			delay_seconds INTEGER NOT NULL,
			delay_text TEXT NOT NULL,
			deleted INTEGER NOT NULL,
			reactions TEXT NOT NULL DEFAULT '{}',
			scheduled_at INTEGER NOT NULL,
			fired_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_expiry_history_fired_at ON expiry_history(fired_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &historyRepo{db: db}, nil
}

// Append records a fired expiry
func (r *historyRepo) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	reactions := entry.Reactions
	if reactions == nil {
		reactions = domain.ReactionTally{}
	}
	reactionsJSON, err := json.Marshal(reactions)
	if err != nil {
		return fmt.Errorf("marshal reactions: %w", err)
	}

	deleted := 0
	if entry.Deleted {
		deleted = 1
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO expiry_history
			(task_id, channel_id, message_id, user_id, delay_seconds, delay_text, deleted, reactions, scheduled_at, fired_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.TaskID, entry.ChannelID, entry.MessageID, entry.UserID,
		entry.DelaySeconds, entry.DelayText, deleted, string(reactionsJSON),
		entry.ScheduledAt.UnixMilli(), entry.FiredAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// Recent lists the newest entries first
func (r *historyRepo) Recent(ctx context.Context, limit int) ([]*domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, task_id, channel_id, message_id, user_id, delay_seconds, delay_text, deleted, reactions, scheduled_at, fired_at
		FROM expiry_history
		ORDER BY fired_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.HistoryEntry
	for rows.Next() {
		var entry domain.HistoryEntry
		var deleted int
		var reactionsJSON string
		var scheduledAt, firedAt int64
		if err := rows.Scan(&entry.ID, &entry.TaskID, &entry.ChannelID, &entry.MessageID, &entry.UserID,
			&entry.DelaySeconds, &entry.DelayText, &deleted, &reactionsJSON, &scheduledAt, &firedAt); err != nil {
			return nil, err
		}

		entry.Deleted = deleted != 0
		entry.ScheduledAt = time.UnixMilli(scheduledAt)
		entry.FiredAt = time.UnixMilli(firedAt)
		entry.Reactions = domain.ReactionTally{}
		if err := json.Unmarshal([]byte(reactionsJSON), &entry.Reactions); err != nil {
			fmt.Printf("[History] Bad reactions for entry %d: %v\n", entry.ID, err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// CleanupOld removes entries fired before the given time
func (r *historyRepo) CleanupOld(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM expiry_history WHERE fired_at < ?
	`, before.UnixMilli())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Close closes the database connection
func (r *historyRepo) Close() error {
	return r.db.Close()
}
