package syncer

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/internal/canonical"
	"github.com/carson-networks/ledger-server/internal/resolve"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/sqlconfig"
	"github.com/carson-networks/ledger-server/internal/teller"
)

// Provider is the slice of the Teller client the syncer depends on.
//
//go:generate mockery --name Provider --output mock_Provider.go
type Provider interface {
	Accounts(ctx context.Context) ([]*teller.Account, error)
	Account(ctx context.Context, id string) (*teller.Account, error)
	Transactions(ctx context.Context, accountID string, from time.Time) ([]*teller.Transaction, error)
}

// Engine drains the sync job queue against the provider API. Jobs are
// consumed on success and pushed back with backoff on failure; an empty
// queue triggers a rate-limited sweep over every enrolled account.
type Engine struct {
	Store    *storage.Storage
	Client   Provider
	Resolver *resolve.Resolver
	Logger   *logrus.Logger

	SinceDays        int
	BatchSize        int
	Backoff          time.Duration
	SweepMinInterval time.Duration

	mu        sync.Mutex
	lastSweep time.Time
}

func NewEngine(store *storage.Storage, client Provider, resolver *resolve.Resolver, logger *logrus.Logger,
	sinceDays, batchSize int, backoff, sweepMinInterval time.Duration) *Engine {
	return &Engine{
		Store:            store,
		Client:           client,
		Resolver:         resolver,
		Logger:           logger,
		SinceDays:        sinceDays,
		BatchSize:        batchSize,
		Backoff:          backoff,
		SweepMinInterval: sweepMinInterval,
	}
}

func todayUTC() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

// Run performs one drain pass. A failing job is rescheduled and does not
// block its siblings.
func (e *Engine) Run(ctx context.Context) error {
	windowEnd := todayUTC()
	windowStart := windowEnd.AddDate(0, 0, -e.SinceDays)

	jobs, err := e.Store.SyncJobs.ClaimDue(ctx, e.BatchSize)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return e.maybeSweep(ctx, windowStart, windowEnd)
	}

	succeeded := 0
	for _, job := range jobs {
		if err := e.pollAccount(ctx, job.AccountAPIID, windowStart, windowEnd); err != nil {
			e.Logger.WithError(err).WithFields(logrus.Fields{
				"job":      job.ID,
				"account":  job.AccountAPIID,
				"attempts": job.Attempts + 1,
			}).Warn("Sync job failed")
			if rescheduleErr := e.Store.SyncJobs.Reschedule(ctx, job.ID, err.Error(), e.Backoff); rescheduleErr != nil {
				return rescheduleErr
			}
			continue
		}
		if err := e.Store.SyncJobs.Delete(ctx, job.ID); err != nil {
			return err
		}
		succeeded++
	}

	e.Logger.WithFields(logrus.Fields{
		"claimed":   len(jobs),
		"succeeded": succeeded,
	}).Info("Sync pass complete")
	return nil
}

// maybeSweep refreshes every visible account when the queue is idle, at most
// once per SweepMinInterval. The check-and-set is atomic so overlapping runs
// cannot both sweep.
func (e *Engine) maybeSweep(ctx context.Context, windowStart, windowEnd time.Time) error {
	e.mu.Lock()
	if time.Since(e.lastSweep) < e.SweepMinInterval {
		e.mu.Unlock()
		return nil
	}
	e.lastSweep = time.Now()
	e.mu.Unlock()

	accounts, err := e.Client.Accounts(ctx)
	if err != nil {
		return err
	}
	for _, acct := range accounts {
		if err := e.syncAccount(ctx, acct, windowStart, windowEnd); err != nil {
			e.Logger.WithError(err).WithField("account", acct.ID).Warn("Sweep account failed")
		}
	}
	e.Logger.WithField("accounts", len(accounts)).Info("Sweep complete")
	return nil
}

func (e *Engine) pollAccount(ctx context.Context, accountAPIID string, windowStart, windowEnd time.Time) error {
	acct, err := e.Client.Account(ctx, accountAPIID)
	if err != nil {
		return err
	}
	return e.syncAccount(ctx, acct, windowStart, windowEnd)
}

// syncAccount upserts the account mapping then pulls the trailing window of
// transactions. Rows without a usable date or amount are skipped, not failed.
func (e *Engine) syncAccount(ctx context.Context, acct *teller.Account, windowStart, windowEnd time.Time) error {
	institutionName := acct.Institution.Name
	if institutionName == "" {
		institutionName = "TELLER"
	}
	institutionID, err := e.Store.Institutions.Ensure(ctx, institutionName,
		sql.NullString{String: "teller", Valid: true})
	if err != nil {
		return err
	}

	accountID, err := e.Resolver.ProviderAccount(ctx, institutionID, acct)
	if err != nil {
		return err
	}

	if _, err := e.Store.ProviderAccounts.Upsert(ctx, &sqlconfig.ProviderAccountUpsert{
		EnrollmentID:    acct.EnrollmentID,
		TellerAccountID: acct.ID,
		LastFour:        nullIfEmpty(acct.LastFour),
		Type:            acct.Type,
		Subtype:         acct.Subtype,
		Currency:        fallbackCurrency(acct.Currency),
	}); err != nil {
		return err
	}

	transactions, err := e.Client.Transactions(ctx, acct.ID, windowStart)
	if err != nil {
		return err
	}

	inserted := 0
	for _, tx := range transactions {
		ok, err := e.upsertTx(ctx, accountID, acct, tx)
		if err != nil {
			return err
		}
		if ok {
			inserted++
		}
	}

	if err := e.Store.SyncCursors.Upsert(ctx, accountID, windowStart, windowEnd); err != nil {
		return err
	}

	e.Logger.WithFields(logrus.Fields{
		"account":  acct.ID,
		"fetched":  len(transactions),
		"inserted": inserted,
	}).Info("Synced account")
	return nil
}

func (e *Engine) upsertTx(ctx context.Context, accountID int64, acct *teller.Account, tx *teller.Transaction) (bool, error) {
	postedAt, ok := txDate(tx)
	if !ok {
		e.Logger.WithFields(logrus.Fields{
			"account":     acct.ID,
			"transaction": tx.ID,
			"reason":      "no usable date",
		}).Warn("Validation failed, skipping transaction")
		return false, nil
	}
	if tx.Amount.Invalid {
		e.Logger.WithFields(logrus.Fields{
			"account":     acct.ID,
			"transaction": tx.ID,
			"reason":      "unparseable amount",
		}).Warn("Validation failed, skipping transaction")
		return false, nil
	}

	description := tx.Description
	if description == "" {
		description = tx.Counterparty.Name
	}
	if description == "" {
		description = tx.Name
	}
	if description == "" {
		description = "Transaction"
	}

	currency := tx.Currency
	if currency == "" {
		currency = fallbackCurrency(acct.Currency)
	}

	return e.Store.Transactions.InsertProviderTransaction(ctx, &sqlconfig.TransactionUpsert{
		AccountID:      accountID,
		PostedAt:       postedAt,
		Amount:         tx.Amount.Decimal,
		Currency:       strings.ToUpper(currency),
		Description:    description,
		NormalizedDesc: canonical.NormalizeDesc(description),
		ExternalTxID:   sql.NullString{String: tx.ID, Valid: true},
	})
}

// txDate picks the first populated date field. Timestamps longer than a
// calendar date are truncated to one.
func txDate(tx *teller.Transaction) (time.Time, bool) {
	for _, raw := range []string{tx.Date, tx.Posted, tx.Timestamp, tx.Booked} {
		if raw == "" {
			continue
		}
		if len(raw) > 10 {
			raw = raw[:10]
		}
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func fallbackCurrency(currency string) string {
	if currency == "" {
		return "USD"
	}
	return strings.ToUpper(currency)
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
