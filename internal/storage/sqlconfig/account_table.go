package sqlconfig

import (
	"context"
	"database/sql"
)

// Account represents an account record.
type Account struct {
	ID            int64
	InstitutionID int64
	Name          string
	Type          sql.NullString
	Currency      string
	Mask          sql.NullString
	ExternalID    sql.NullString
	IsActive      bool
}

// AccountUpsert is the input for the provider-keyed account upsert.
type AccountUpsert struct {
	InstitutionID int64
	Name          string
	Type          sql.NullString
	Currency      string
	Mask          sql.NullString
	ExternalID    string
}

// IAccountTable defines the interface for account storage operations.
//
//go:generate mockery --name IAccountTable --output mock_IAccountTable.go
type IAccountTable interface {
	FindIDByMask(ctx context.Context, mask string) (int64, bool, error)
	CreatePlaceholder(ctx context.Context, institutionID int64, name, currency, mask string) (int64, error)
	UpsertByExternalID(ctx context.Context, upsert *AccountUpsert) (int64, error)
}

// AccountsTable provides access to the accounts table.
type AccountsTable struct {
	db *sql.DB
}

var _ IAccountTable = (*AccountsTable)(nil)

func NewAccountsTable(db *sql.DB) *AccountsTable {
	return &AccountsTable{db: db}
}

// FindIDByMask looks an account up by mask alone, across all institutions.
// First match wins; two institutions sharing a mask are conflated.
func (t *AccountsTable) FindIDByMask(ctx context.Context, mask string) (int64, bool, error) {
	var id int64
	err := t.db.QueryRowContext(ctx,
		`SELECT id FROM accounts WHERE mask = $1 ORDER BY id LIMIT 1`, mask,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// CreatePlaceholder inserts a placeholder account for a statement file whose
// account is not yet known. Type defaults to checking.
func (t *AccountsTable) CreatePlaceholder(ctx context.Context, institutionID int64, name, currency, mask string) (int64, error) {
	var id int64
	err := t.db.QueryRowContext(ctx, `
		INSERT INTO accounts (institution_id, name, type, currency, mask, is_active)
		VALUES ($1, $2, 'checking', $3, NULLIF($4, ''), true)
		RETURNING id`,
		institutionID, name, currency, mask,
	).Scan(&id)
	return id, err
}

// UpsertByExternalID inserts or refreshes an account keyed by its globally
// unique external id. An unset incoming type never clears a known one.
func (t *AccountsTable) UpsertByExternalID(ctx context.Context, upsert *AccountUpsert) (int64, error) {
	var id int64
	err := t.db.QueryRowContext(ctx, `
		INSERT INTO accounts (institution_id, name, type, currency, mask, external_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		ON CONFLICT (external_id) DO UPDATE SET
			institution_id = excluded.institution_id,
			name           = excluded.name,
			type           = COALESCE(excluded.type, accounts.type),
			currency       = excluded.currency,
			mask           = excluded.mask,
			is_active      = true
		RETURNING id`,
		upsert.InstitutionID, upsert.Name, upsert.Type, upsert.Currency, upsert.Mask, upsert.ExternalID,
	).Scan(&id)
	return id, err
}
