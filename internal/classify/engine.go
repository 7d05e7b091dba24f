package classify

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/internal/storage"
)

// Engine assigns categories to recent unclassified spending using the rule
// set. Only debits inside the lookback window are candidates; a transaction
// that already has a split is never touched.
type Engine struct {
	Store        *storage.Storage
	Logger       *logrus.Logger
	Rules        []*Rule
	LookbackDays int
}

func NewEngine(store *storage.Storage, logger *logrus.Logger, rules []*Rule, lookbackDays int) *Engine {
	return &Engine{Store: store, Logger: logger, Rules: rules, LookbackDays: lookbackDays}
}

// Run performs one classification pass and returns the number of
// transactions classified.
func (e *Engine) Run(ctx context.Context) (int, error) {
	categoryIDs, err := e.Store.Categories.CodeToID(ctx)
	if err != nil {
		return 0, err
	}

	candidates, err := e.Store.Transactions.ListUnclassified(ctx, e.LookbackDays)
	if err != nil {
		return 0, err
	}

	classified := 0
	for _, tx := range candidates {
		for _, rule := range e.Rules {
			if !rule.Matches(tx.NormalizedDesc, tx.Amount) {
				continue
			}

			categoryID, ok := categoryIDs[rule.Category]
			if !ok {
				// A rule naming a missing category is skipped so a later
				// rule can still claim the transaction.
				e.Logger.WithFields(logrus.Fields{
					"rule":     rule.Name,
					"category": rule.Category,
				}).Warn("Rule references unknown category")
				continue
			}

			inserted, err := e.Store.Splits.InsertIfAbsent(ctx, tx.ID, categoryID, tx.Amount, "rule:"+rule.Name)
			if err != nil {
				return classified, err
			}
			if inserted {
				classified++
			}
			break
		}
	}

	e.Logger.WithFields(logrus.Fields{
		"candidates": len(candidates),
		"classified": classified,
	}).Info("Classification pass complete")
	return classified, nil
}
