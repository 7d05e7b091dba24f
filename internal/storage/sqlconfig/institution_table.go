package sqlconfig

import (
	"context"
	"database/sql"
	"time"
)

// Institution represents a financial institution record.
type Institution struct {
	ID         int64
	Name       string
	ExternalID sql.NullString
	CreatedAt  time.Time
}

// IInstitutionTable defines the interface for institution storage operations.
//
//go:generate mockery --name IInstitutionTable --output mock_IInstitutionTable.go
type IInstitutionTable interface {
	Ensure(ctx context.Context, name string, externalID sql.NullString) (int64, error)
}

// InstitutionsTable provides access to the institutions table.
type InstitutionsTable struct {
	db *sql.DB
}

var _ IInstitutionTable = (*InstitutionsTable)(nil)

func NewInstitutionsTable(db *sql.DB) *InstitutionsTable {
	return &InstitutionsTable{db: db}
}

// Ensure idempotently creates an institution by unique name and returns its
// ID. The insert never clobbers an existing row.
func (t *InstitutionsTable) Ensure(ctx context.Context, name string, externalID sql.NullString) (int64, error) {
	var id int64
	err := t.db.QueryRowContext(ctx, `
		INSERT INTO institutions (name, external_id)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
		RETURNING id`,
		name, externalID,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	err = t.db.QueryRowContext(ctx,
		`SELECT id FROM institutions WHERE name = $1`, name,
	).Scan(&id)
	return id, err
}
