package sqlconfig

import (
	"context"
	"database/sql"
)

// TransactionsTable provides access to the transactions table.
type TransactionsTable struct {
	db *sql.DB
}

var _ ITransactionTable = (*TransactionsTable)(nil)

func NewTransactionsTable(db *sql.DB) *TransactionsTable {
	return &TransactionsTable{db: db}
}

// UpsertByExternalID merges a transaction keyed on (account, external id).
// A repeat observation refreshes updated_at and never inserts a second row.
// The caller must only use this when the external id is set.
func (t *TransactionsTable) UpsertByExternalID(ctx context.Context, upsert *TransactionUpsert) (int64, error) {
	var id int64
	err := t.db.QueryRowContext(ctx, `
		INSERT INTO transactions
			(account_id, posted_at, amount, currency, description, normalized_desc, external_tx_id, hash, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (account_id, external_tx_id) WHERE external_tx_id IS NOT NULL
		DO UPDATE SET updated_at = now()
		RETURNING id`,
		upsert.AccountID, upsert.PostedAt, upsert.Amount, upsert.Currency,
		upsert.Description, upsert.NormalizedDesc, upsert.ExternalTxID,
		upsert.Hash, upsert.BalanceAfter,
	).Scan(&id)
	return id, err
}

// UpsertByFingerprint merges a transaction keyed on (account, content hash).
// Used only when the source supplied no external id; a second observation of
// the same logical transaction collapses to the same row.
func (t *TransactionsTable) UpsertByFingerprint(ctx context.Context, upsert *TransactionUpsert) (int64, error) {
	var id int64
	err := t.db.QueryRowContext(ctx, `
		INSERT INTO transactions
			(account_id, posted_at, amount, currency, description, normalized_desc, external_tx_id, hash, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (account_id, hash) DO UPDATE SET updated_at = now()
		RETURNING id`,
		upsert.AccountID, upsert.PostedAt, upsert.Amount, upsert.Currency,
		upsert.Description, upsert.NormalizedDesc, upsert.ExternalTxID,
		upsert.Hash, upsert.BalanceAfter,
	).Scan(&id)
	return id, err
}

// InsertProviderTransaction inserts a provider transaction keyed on
// (account, external id) and reports whether a new row was created. Provider
// records always carry an external id, so there is no fingerprint fallback.
func (t *TransactionsTable) InsertProviderTransaction(ctx context.Context, upsert *TransactionUpsert) (bool, error) {
	var id int64
	err := t.db.QueryRowContext(ctx, `
		INSERT INTO transactions
			(account_id, posted_at, amount, currency, description, normalized_desc, external_tx_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (account_id, external_tx_id) WHERE external_tx_id IS NOT NULL
		DO NOTHING
		RETURNING id`,
		upsert.AccountID, upsert.PostedAt, upsert.Amount, upsert.Currency,
		upsert.Description, upsert.NormalizedDesc, upsert.ExternalTxID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListUnclassified returns debit transactions within the lookback window that
// have no category split yet, oldest first.
func (t *TransactionsTable) ListUnclassified(ctx context.Context, lookbackDays int) ([]*Transaction, error) {
	rows, err := t.db.QueryContext(ctx, `
		SELECT t.id, t.account_id, t.posted_at, t.amount, t.normalized_desc
		FROM transactions t
		LEFT JOIN tx_splits s ON s.transaction_id = t.id
		WHERE s.id IS NULL
		  AND t.amount < 0
		  AND t.posted_at >= current_date - ($1 * INTERVAL '1 day')
		ORDER BY t.posted_at, t.id`,
		lookbackDays,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Transaction
	for rows.Next() {
		tx := &Transaction{}
		if err := rows.Scan(&tx.ID, &tx.AccountID, &tx.PostedAt, &tx.Amount, &tx.NormalizedDesc); err != nil {
			return nil, err
		}
		result = append(result, tx)
	}
	return result, rows.Err()
}
