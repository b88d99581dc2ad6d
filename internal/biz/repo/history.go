package repo

import (
	"context"
	"time"

	"github.com/peekabot/peekabot/internal/biz/domain"
)

// HistoryRepo stores a log of fired expiries (SQLite)
type HistoryRepo interface {
	// Append records a fired expiry
	Append(ctx context.Context, entry *domain.HistoryEntry) error

	// Recent lists the newest entries first
	Recent(ctx context.Context, limit int) ([]*domain.HistoryEntry, error)

	// CleanupOld removes entries fired before the given time
	CleanupOld(ctx context.Context, before time.Time) (int64, error)

	Close() error
}
