package sqlconfig

import (
	"context"
	"database/sql"
)

// ProviderAccount maps a provider account id to internal records under one
// enrollment.
type ProviderAccount struct {
	ID              int64
	EnrollmentID    string
	TellerAccountID string
	InstitutionID   sql.NullInt64
	LastFour        sql.NullString
	Type            string
	Subtype         string
	Currency        string
}

// ProviderAccountUpsert is the input for mapping one provider account.
type ProviderAccountUpsert struct {
	EnrollmentID    string
	TellerAccountID string
	LastFour        sql.NullString
	Type            string
	Subtype         string
	Currency        string
}

// IProviderAccountTable defines the interface for provider account storage
// operations.
//
//go:generate mockery --name IProviderAccountTable --output mock_IProviderAccountTable.go
type IProviderAccountTable interface {
	Upsert(ctx context.Context, upsert *ProviderAccountUpsert) (int64, error)
}

// ProviderAccountsTable provides access to the provider_accounts table.
type ProviderAccountsTable struct {
	db *sql.DB
}

var _ IProviderAccountTable = (*ProviderAccountsTable)(nil)

func NewProviderAccountsTable(db *sql.DB) *ProviderAccountsTable {
	return &ProviderAccountsTable{db: db}
}

// Upsert records the provider account mapping keyed by
// (enrollment, provider account id).
func (t *ProviderAccountsTable) Upsert(ctx context.Context, upsert *ProviderAccountUpsert) (int64, error) {
	var id int64
	err := t.db.QueryRowContext(ctx, `
		INSERT INTO provider_accounts
			(enrollment_id, teller_account_id, last_four, type, subtype, currency)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (enrollment_id, teller_account_id) DO UPDATE SET
			last_four = excluded.last_four,
			type      = excluded.type,
			subtype   = excluded.subtype,
			currency  = excluded.currency
		RETURNING id`,
		upsert.EnrollmentID, upsert.TellerAccountID, upsert.LastFour,
		upsert.Type, upsert.Subtype, upsert.Currency,
	).Scan(&id)
	return id, err
}
