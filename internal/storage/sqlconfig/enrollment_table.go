package sqlconfig

import (
	"context"
	"database/sql"

	"github.com/gofrs/uuid/v5"
)

// EnrollmentUpsert is the input for storing or refreshing a provider
// enrollment. The access token is encrypted in the database with pgcrypto;
// it never lands in a column in the clear.
type EnrollmentUpsert struct {
	Provider        string
	EnrollmentID    string
	UserRef         sql.NullString
	InstitutionName string
	Environment     string
	AccessToken     string
	EncryptionKey   string
}

// IEnrollmentTable defines the interface for provider enrollment storage
// operations.
//
//go:generate mockery --name IEnrollmentTable --output mock_IEnrollmentTable.go
type IEnrollmentTable interface {
	Upsert(ctx context.Context, upsert *EnrollmentUpsert) (uuid.UUID, error)
}

// EnrollmentsTable provides access to the provider_enrollments table.
type EnrollmentsTable struct {
	db *sql.DB
}

var _ IEnrollmentTable = (*EnrollmentsTable)(nil)

func NewEnrollmentsTable(db *sql.DB) *EnrollmentsTable {
	return &EnrollmentsTable{db: db}
}

// Upsert stores or refreshes the enrollment row keyed by the provider's
// enrollment id and marks it active.
func (t *EnrollmentsTable) Upsert(ctx context.Context, upsert *EnrollmentUpsert) (uuid.UUID, error) {
	var id uuid.UUID
	err := t.db.QueryRowContext(ctx, `
		INSERT INTO provider_enrollments
			(id, provider, enrollment_id, user_ref, institution_name, environment, access_token_enc, status)
		VALUES ($1, $2, $3, $4, $5, $6, pgp_sym_encrypt($7, $8), 'active')
		ON CONFLICT (enrollment_id) DO UPDATE SET
			environment      = excluded.environment,
			access_token_enc = excluded.access_token_enc,
			status           = 'active',
			user_ref         = excluded.user_ref,
			institution_name = excluded.institution_name
		RETURNING id`,
		uuid.Must(uuid.NewV4()), upsert.Provider, upsert.EnrollmentID, upsert.UserRef,
		upsert.InstitutionName, upsert.Environment, upsert.AccessToken, upsert.EncryptionKey,
	).Scan(&id)
	return id, err
}
