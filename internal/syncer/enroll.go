package syncer

import (
	"context"
	"database/sql"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/internal/storage/sqlconfig"
)

// EnrollInput carries the enrollment credentials to persist.
type EnrollInput struct {
	Provider      string
	EnrollmentID  string
	UserRef       string
	Environment   string
	AccessToken   string
	EncryptionKey string
}

// Enroll stores the enrollment with its token encrypted, maps every account
// the provider reports, and seeds an initial sync job per account.
func (e *Engine) Enroll(ctx context.Context, input *EnrollInput) error {
	accounts, err := e.Client.Accounts(ctx)
	if err != nil {
		return err
	}

	institutionName := ""
	if len(accounts) > 0 {
		institutionName = accounts[0].Institution.Name
	}

	if _, err := e.Store.Enrollments.Upsert(ctx, &sqlconfig.EnrollmentUpsert{
		Provider:        input.Provider,
		EnrollmentID:    input.EnrollmentID,
		UserRef:         nullIfEmpty(input.UserRef),
		InstitutionName: institutionName,
		Environment:     input.Environment,
		AccessToken:     input.AccessToken,
		EncryptionKey:   input.EncryptionKey,
	}); err != nil {
		return err
	}

	windowEnd := todayUTC()
	windowStart := windowEnd.AddDate(0, 0, -e.SinceDays)

	for _, acct := range accounts {
		name := acct.Institution.Name
		if name == "" {
			name = "TELLER"
		}
		institutionID, err := e.Store.Institutions.Ensure(ctx, name,
			sql.NullString{String: "teller", Valid: true})
		if err != nil {
			return err
		}

		if _, err := e.Resolver.ProviderAccount(ctx, institutionID, acct); err != nil {
			return err
		}

		providerAccountID, err := e.Store.ProviderAccounts.Upsert(ctx, &sqlconfig.ProviderAccountUpsert{
			EnrollmentID:    input.EnrollmentID,
			TellerAccountID: acct.ID,
			LastFour:        nullIfEmpty(acct.LastFour),
			Type:            acct.Type,
			Subtype:         acct.Subtype,
			Currency:        fallbackCurrency(acct.Currency),
		})
		if err != nil {
			return err
		}

		if err := e.Store.SyncJobs.Seed(ctx, providerAccountID, acct.ID, windowStart, windowEnd); err != nil {
			return err
		}
	}

	e.Logger.WithFields(logrus.Fields{
		"enrollment": input.EnrollmentID,
		"accounts":   len(accounts),
	}).Info("Enrollment registered")
	return nil
}
