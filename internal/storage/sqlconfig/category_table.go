package sqlconfig

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
)

// ICategoryTable defines the interface for category storage operations.
//
//go:generate mockery --name ICategoryTable --output mock_ICategoryTable.go
type ICategoryTable interface {
	CodeToID(ctx context.Context) (map[string]int64, error)
}

// CategoriesTable provides access to the categories table.
type CategoriesTable struct {
	db *sql.DB
}

var _ ICategoryTable = (*CategoriesTable)(nil)

func NewCategoriesTable(db *sql.DB) *CategoriesTable {
	return &CategoriesTable{db: db}
}

// CodeToID returns the stable category code to id mapping used by rules and
// budgets.
func (t *CategoriesTable) CodeToID(ctx context.Context) (map[string]int64, error) {
	rows, err := t.db.QueryContext(ctx, `SELECT id, code FROM categories`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var id int64
		var code string
		if err := rows.Scan(&id, &code); err != nil {
			return nil, err
		}
		result[code] = id
	}
	return result, rows.Err()
}

// ISplitTable defines the interface for category split storage operations.
//
//go:generate mockery --name ISplitTable --output mock_ISplitTable.go
type ISplitTable interface {
	InsertIfAbsent(ctx context.Context, transactionID, categoryID int64, amount decimal.Decimal, note string) (bool, error)
}

// SplitsTable provides access to the tx_splits table.
type SplitsTable struct {
	db *sql.DB
}

var _ ISplitTable = (*SplitsTable)(nil)

func NewSplitsTable(db *sql.DB) *SplitsTable {
	return &SplitsTable{db: db}
}

// InsertIfAbsent assigns a category to a transaction unless that pairing
// already exists, and reports whether a new split was created.
func (t *SplitsTable) InsertIfAbsent(ctx context.Context, transactionID, categoryID int64, amount decimal.Decimal, note string) (bool, error) {
	var id int64
	err := t.db.QueryRowContext(ctx, `
		INSERT INTO tx_splits (transaction_id, category_id, amount, note)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (transaction_id, category_id) DO NOTHING
		RETURNING id`,
		transactionID, categoryID, amount, note,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
