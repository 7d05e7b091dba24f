package budget

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/carson-networks/ledger-server/internal/storage"
)

// Importer loads the monthly budget file into the budgets table.
type Importer struct {
	Store  *storage.Storage
	Logger *logrus.Logger
}

func NewImporter(store *storage.Storage, logger *logrus.Logger) *Importer {
	return &Importer{Store: store, Logger: logger}
}

type budgetFile struct {
	Period     string             `yaml:"period"`
	Categories map[string]float64 `yaml:"categories"`
}

// Import reads the budget file and upserts one budget row per category for
// the file's period. Unknown category codes are skipped with a warning.
func (i *Importer) Import(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var file budgetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("parse budget file %s: %w", path, err)
	}

	periodStart, periodEnd, err := monthBounds(file.Period)
	if err != nil {
		return 0, err
	}

	categoryIDs, err := i.Store.Categories.CodeToID(ctx)
	if err != nil {
		return 0, err
	}

	imported := 0
	for code, amount := range file.Categories {
		categoryID, ok := categoryIDs[code]
		if !ok {
			i.Logger.WithField("category", code).Warn("Budget references unknown category")
			continue
		}
		err := i.Store.Budgets.Upsert(ctx, categoryID, periodStart, periodEnd,
			decimal.NewFromFloat(amount).Round(2))
		if err != nil {
			return imported, err
		}
		imported++
	}

	i.Logger.WithFields(logrus.Fields{
		"period":   file.Period,
		"imported": imported,
	}).Info("Budget imported")
	return imported, nil
}

// monthBounds returns the first and last day of a YYYY-MM period.
func monthBounds(period string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", period)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid period %q: %w", period, err)
	}
	return start, start.AddDate(0, 1, -1), nil
}
