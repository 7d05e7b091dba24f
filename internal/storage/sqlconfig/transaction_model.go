package sqlconfig

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a ledger transaction record.
type Transaction struct {
	ID             int64
	AccountID      int64
	PostedAt       time.Time
	Amount         decimal.Decimal
	Currency       string
	Description    string
	NormalizedDesc string
	ExternalTxID   sql.NullString
	Hash           []byte
	BalanceAfter   decimal.NullDecimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TransactionUpsert is the input for merging one canonical transaction into
// the ledger.
type TransactionUpsert struct {
	AccountID      int64
	PostedAt       time.Time
	Amount         decimal.Decimal
	Currency       string
	Description    string
	NormalizedDesc string
	ExternalTxID   sql.NullString
	Hash           []byte
	BalanceAfter   decimal.NullDecimal
}

// ITransactionTable defines the interface for transaction storage operations.
// All dedup guarantees live in single-statement conflict-resolving upserts so
// overlapping runs stay safe without read-then-write.
//
//go:generate mockery --name ITransactionTable --output mock_ITransactionTable.go
type ITransactionTable interface {
	UpsertByExternalID(ctx context.Context, upsert *TransactionUpsert) (int64, error)
	UpsertByFingerprint(ctx context.Context, upsert *TransactionUpsert) (int64, error)
	InsertProviderTransaction(ctx context.Context, upsert *TransactionUpsert) (bool, error)
	ListUnclassified(ctx context.Context, lookbackDays int) ([]*Transaction, error)
}
