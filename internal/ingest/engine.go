package ingest

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/internal/canonical"
	"github.com/carson-networks/ledger-server/internal/parser"
	"github.com/carson-networks/ledger-server/internal/resolve"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/sqlconfig"
)

// Engine drives file ingestion: it registers files from the raw directory,
// then parses, canonicalizes and upserts every pending file.
type Engine struct {
	Store    *storage.Storage
	Resolver *resolve.Resolver
	Logger   *logrus.Logger
	RawDir   string
}

func NewEngine(store *storage.Storage, resolver *resolve.Resolver, logger *logrus.Logger, rawDir string) *Engine {
	return &Engine{Store: store, Resolver: resolver, Logger: logger, RawDir: rawDir}
}

// Run performs one ingestion pass. File-level failures mark that file and do
// not stop the pass; row-level failures skip that row and do not fail the
// file.
func (e *Engine) Run(ctx context.Context) error {
	if _, err := e.RegisterDir(ctx); err != nil {
		e.Logger.WithError(err).Warn("Register raw directory")
	}

	files, err := e.Store.IngestFiles.ListReceived(ctx)
	if err != nil {
		return err
	}

	for _, file := range files {
		if err := e.processFile(ctx, file); err != nil {
			e.Logger.WithError(err).WithField("filename", file.Filename).Warn("Ingest file failed")
			if markErr := e.Store.IngestFiles.MarkError(ctx, file.ID, err.Error()); markErr != nil {
				return markErr
			}
			continue
		}
		if err := e.Store.IngestFiles.MarkProcessed(ctx, file.ID); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) processFile(ctx context.Context, file *sqlconfig.IngestFile) error {
	data, err := os.ReadFile(filepath.Join(e.RawDir, filepath.FromSlash(file.Filename)))
	if err != nil {
		return err
	}

	rows, err := parser.Parse(data, file.Filename)
	if err != nil {
		return err
	}

	upserted := 0
	skipped := 0
	for _, row := range rows {
		tx, err := canonical.Canonicalize(row, file.Bank)
		if err != nil {
			var parseErr *canonical.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				e.Logger.WithError(err).WithField("filename", file.Filename).Debug("Skipping row")
				continue
			}
			return err
		}

		if err := e.upsertTx(ctx, tx); err != nil {
			skipped++
			e.Logger.WithError(err).WithField("filename", file.Filename).Warn("Upsert row failed")
			continue
		}
		upserted++
	}

	e.Logger.WithFields(logrus.Fields{
		"filename": file.Filename,
		"upserted": upserted,
		"skipped":  skipped,
	}).Info("Ingested statement file")
	return nil
}

// upsertTx merges one canonical row. Rows with a source-stable id dedup on
// that id; the rest dedup on the content fingerprint.
func (e *Engine) upsertTx(ctx context.Context, tx *canonical.Tx) error {
	accountID, err := e.Resolver.FileAccount(ctx, tx.Bank, tx.Mask, tx.Currency)
	if err != nil {
		return err
	}

	upsert := &sqlconfig.TransactionUpsert{
		AccountID:      accountID,
		PostedAt:       tx.PostedAt,
		Amount:         tx.Amount,
		Currency:       tx.Currency,
		Description:    tx.Description,
		NormalizedDesc: tx.NormalizedDesc,
	}
	if tx.BalanceAfter != nil {
		upsert.BalanceAfter = decimal.NullDecimal{Decimal: *tx.BalanceAfter, Valid: true}
	}

	if tx.ExternalTxID != "" {
		upsert.ExternalTxID = sql.NullString{String: tx.ExternalTxID, Valid: true}
		_, err = e.Store.Transactions.UpsertByExternalID(ctx, upsert)
		return err
	}

	upsert.Hash = canonical.Fingerprint(accountID, tx.PostedAt, tx.Amount, tx.NormalizedDesc)
	_, err = e.Store.Transactions.UpsertByFingerprint(ctx, upsert)
	return err
}
