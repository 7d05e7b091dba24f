package sqlconfig

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Ingest file status values. A file transitions exactly once from received
// to processed or error.
const (
	IngestStatusReceived  = "received"
	IngestStatusProcessed = "processed"
	IngestStatusError     = "error"
)

// IngestFile represents one registered statement file.
type IngestFile struct {
	ID            uuid.UUID
	Source        string
	Bank          string
	Filename      string
	ContentSHA256 string
	SizeBytes     int64
	MimeType      string
	Status        string
	Error         sql.NullString
	CreatedAt     time.Time
}

// IngestFileCreate is the input for registering a statement file.
type IngestFileCreate struct {
	Source        string
	Bank          string
	Filename      string
	ContentSHA256 string
	SizeBytes     int64
	MimeType      string
}

// IIngestFileTable defines the interface for ingest file storage operations.
//
//go:generate mockery --name IIngestFileTable --output mock_IIngestFileTable.go
type IIngestFileTable interface {
	Register(ctx context.Context, create *IngestFileCreate) (bool, error)
	ListReceived(ctx context.Context) ([]*IngestFile, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkError(ctx context.Context, id uuid.UUID, message string) error
}

// IngestFilesTable provides access to the ingest_files table.
type IngestFilesTable struct {
	db *sql.DB
}

var _ IIngestFileTable = (*IngestFilesTable)(nil)

func NewIngestFilesTable(db *sql.DB) *IngestFilesTable {
	return &IngestFilesTable{db: db}
}

// Register records a statement file keyed by its content hash. Re-registering
// identical bytes is a no-op; the return reports whether the row is new.
func (t *IngestFilesTable) Register(ctx context.Context, create *IngestFileCreate) (bool, error) {
	var id uuid.UUID
	err := t.db.QueryRowContext(ctx, `
		INSERT INTO ingest_files (id, source, bank, filename, content_sha256, size_bytes, mime_type, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'received')
		ON CONFLICT (content_sha256) DO NOTHING
		RETURNING id`,
		uuid.Must(uuid.NewV4()), create.Source, create.Bank, create.Filename,
		create.ContentSHA256, create.SizeBytes, create.MimeType,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListReceived returns unprocessed files, oldest first.
func (t *IngestFilesTable) ListReceived(ctx context.Context) ([]*IngestFile, error) {
	rows, err := t.db.QueryContext(ctx, `
		SELECT id, source, bank, filename, content_sha256, size_bytes, mime_type, status, error, created_at
		FROM ingest_files
		WHERE status = 'received'
		ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*IngestFile
	for rows.Next() {
		f := &IngestFile{}
		err := rows.Scan(&f.ID, &f.Source, &f.Bank, &f.Filename, &f.ContentSHA256,
			&f.SizeBytes, &f.MimeType, &f.Status, &f.Error, &f.CreatedAt)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

// MarkProcessed transitions a file out of received. The status guard makes
// the transition happen at most once even under overlapping runs.
func (t *IngestFilesTable) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	_, err := t.db.ExecContext(ctx, `
		UPDATE ingest_files
		SET status = 'processed', processed_at = now()
		WHERE id = $1 AND status = 'received'`,
		id,
	)
	return err
}

// MarkError records a terminal failure for a file, at most once.
func (t *IngestFilesTable) MarkError(ctx context.Context, id uuid.UUID, message string) error {
	_, err := t.db.ExecContext(ctx, `
		UPDATE ingest_files
		SET status = 'error', error = $2
		WHERE id = $1 AND status = 'received'`,
		id, message,
	)
	return err
}
