package sqlconfig

import (
	"context"
	"database/sql"
	"time"
)

// ISyncCursorTable defines the interface for sync cursor storage operations.
// Cursors are observability only; every poll re-requests a fixed trailing
// window and never resumes from the cursor.
//
//go:generate mockery --name ISyncCursorTable --output mock_ISyncCursorTable.go
type ISyncCursorTable interface {
	Upsert(ctx context.Context, accountID int64, windowStart, windowEnd time.Time) error
}

// SyncCursorsTable provides access to the teller_sync table.
type SyncCursorsTable struct {
	db *sql.DB
}

var _ ISyncCursorTable = (*SyncCursorsTable)(nil)

func NewSyncCursorsTable(db *sql.DB) *SyncCursorsTable {
	return &SyncCursorsTable{db: db}
}

// Upsert records the latest poll time and window for an account.
func (t *SyncCursorsTable) Upsert(ctx context.Context, accountID int64, windowStart, windowEnd time.Time) error {
	_, err := t.db.ExecContext(ctx, `
		INSERT INTO teller_sync (account_id, last_polled_at, last_window_start, last_window_end)
		VALUES ($1, now(), $2, $3)
		ON CONFLICT (account_id) DO UPDATE SET
			last_polled_at    = excluded.last_polled_at,
			last_window_start = excluded.last_window_start,
			last_window_end   = excluded.last_window_end`,
		accountID, windowStart, windowEnd,
	)
	return err
}
