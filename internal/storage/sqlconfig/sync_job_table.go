package sqlconfig

import (
	"context"
	"database/sql"
	"time"
)

// SyncJob is one pending poll of a provider account. Jobs are deleted on
// success and rescheduled with an incremented attempt count on failure;
// there is no maximum-attempts cutoff.
type SyncJob struct {
	ID                int64
	ProviderAccountID sql.NullInt64
	AccountAPIID      string
	StartDate         sql.NullTime
	EndDate           sql.NullTime
	RunAfter          time.Time
	Attempts          int
	LastError         sql.NullString
	EnqueueReason     sql.NullString
	CreatedAt         time.Time
}

// ISyncJobTable defines the interface for sync job storage operations.
//
//go:generate mockery --name ISyncJobTable --output mock_ISyncJobTable.go
type ISyncJobTable interface {
	ClaimDue(ctx context.Context, limit int) ([]*SyncJob, error)
	Delete(ctx context.Context, id int64) error
	Reschedule(ctx context.Context, id int64, lastError string, backoff time.Duration) error
	Enqueue(ctx context.Context, accountAPIID, reason string) (bool, error)
	Seed(ctx context.Context, providerAccountID int64, accountAPIID string, startDate, endDate time.Time) error
}

// SyncJobsTable provides access to the teller_jobs table.
type SyncJobsTable struct {
	db *sql.DB
}

var _ ISyncJobTable = (*SyncJobsTable)(nil)

func NewSyncJobsTable(db *sql.DB) *SyncJobsTable {
	return &SyncJobsTable{db: db}
}

// ClaimDue returns up to limit jobs whose run_after has elapsed, in creation
// order. At-least-once, roughly FIFO; not a strict scheduler.
func (t *SyncJobsTable) ClaimDue(ctx context.Context, limit int) ([]*SyncJob, error) {
	rows, err := t.db.QueryContext(ctx, `
		SELECT id, provider_account_id, account_api_id, start_date, end_date,
		       run_after, attempts, last_error, enqueue_reason, created_at
		FROM teller_jobs
		WHERE run_after <= now()
		ORDER BY id
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*SyncJob
	for rows.Next() {
		j := &SyncJob{}
		err := rows.Scan(&j.ID, &j.ProviderAccountID, &j.AccountAPIID, &j.StartDate,
			&j.EndDate, &j.RunAfter, &j.Attempts, &j.LastError, &j.EnqueueReason, &j.CreatedAt)
		if err != nil {
			return nil, err
		}
		result = append(result, j)
	}
	return result, rows.Err()
}

// Delete consumes a job after a successful poll.
func (t *SyncJobsTable) Delete(ctx context.Context, id int64) error {
	_, err := t.db.ExecContext(ctx, `DELETE FROM teller_jobs WHERE id = $1`, id)
	return err
}

// Reschedule pushes a failed job back into the queue with the error recorded.
func (t *SyncJobsTable) Reschedule(ctx context.Context, id int64, lastError string, backoff time.Duration) error {
	if len(lastError) > 500 {
		lastError = lastError[:500]
	}
	_, err := t.db.ExecContext(ctx, `
		UPDATE teller_jobs
		SET attempts = attempts + 1,
		    last_error = $2,
		    run_after = now() + make_interval(secs => $3)
		WHERE id = $1`,
		id, lastError, backoff.Seconds(),
	)
	return err
}

// Enqueue inserts a webhook-triggered job. Concurrent duplicate events for
// the same provider account collapse into a single pending job.
func (t *SyncJobsTable) Enqueue(ctx context.Context, accountAPIID, reason string) (bool, error) {
	var id int64
	err := t.db.QueryRowContext(ctx, `
		INSERT INTO teller_jobs (account_api_id, enqueue_reason)
		VALUES ($1, $2)
		ON CONFLICT (account_api_id) DO NOTHING
		RETURNING id`,
		accountAPIID, reason,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Seed inserts the initial poll job for a newly enrolled provider account.
// Safe to repeat; any conflicting unique key makes it a no-op.
func (t *SyncJobsTable) Seed(ctx context.Context, providerAccountID int64, accountAPIID string, startDate, endDate time.Time) error {
	_, err := t.db.ExecContext(ctx, `
		INSERT INTO teller_jobs (provider_account_id, account_api_id, start_date, end_date, run_after)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT DO NOTHING`,
		providerAccountID, accountAPIID, startDate, endDate,
	)
	return err
}
