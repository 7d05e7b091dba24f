package sqlconfig

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// IBudgetTable defines the interface for budget storage operations.
//
//go:generate mockery --name IBudgetTable --output mock_IBudgetTable.go
type IBudgetTable interface {
	Upsert(ctx context.Context, categoryID int64, periodStart, periodEnd time.Time, amount decimal.Decimal) error
}

// BudgetsTable provides access to the budgets table.
type BudgetsTable struct {
	db *sql.DB
}

var _ IBudgetTable = (*BudgetsTable)(nil)

func NewBudgetsTable(db *sql.DB) *BudgetsTable {
	return &BudgetsTable{db: db}
}

// Upsert sets the budgeted amount for one category and period, overwriting a
// previous import for the same period.
func (t *BudgetsTable) Upsert(ctx context.Context, categoryID int64, periodStart, periodEnd time.Time, amount decimal.Decimal) error {
	_, err := t.db.ExecContext(ctx, `
		INSERT INTO budgets (category_id, period_start, period_end, amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (category_id, period_start, period_end)
		DO UPDATE SET amount = excluded.amount`,
		categoryID, periodStart, periodEnd, amount,
	)
	return err
}
