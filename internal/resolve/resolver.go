package resolve

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/sqlconfig"
	"github.com/carson-networks/ledger-server/internal/teller"
)

// Resolver maps statement rows and provider accounts to internal account
// ids, creating placeholder records when nothing matches. Safe for use from
// overlapping stage runs.
type Resolver struct {
	store *storage.Storage

	// cache lives for the process; account rows are never deleted.
	mu    sync.Mutex
	cache map[string]int64
}

func NewResolver(store *storage.Storage) *Resolver {
	return &Resolver{store: store, cache: map[string]int64{}}
}

// FileAccount resolves a file-sourced row by account mask. A known mask wins
// regardless of bank; an unknown one gets a placeholder account under the
// bank's institution. Masks are assumed unique across institutions, so two
// banks sharing a last-four would conflate here.
func (r *Resolver) FileAccount(ctx context.Context, bank, mask, currency string) (int64, error) {
	cacheKey := bank + "|" + mask
	r.mu.Lock()
	id, ok := r.cache[cacheKey]
	r.mu.Unlock()
	if ok {
		return id, nil
	}

	if mask != "" {
		id, found, err := r.store.Accounts.FindIDByMask(ctx, mask)
		if err != nil {
			return 0, err
		}
		if found {
			r.cacheSet(cacheKey, id)
			return id, nil
		}
	}

	institutionID, err := r.store.Institutions.Ensure(ctx, bank, sql.NullString{})
	if err != nil {
		return 0, err
	}

	label := mask
	if label == "" {
		label = "XXXX"
	}
	id, err = r.store.Accounts.CreatePlaceholder(ctx, institutionID, bank+"-"+label, currency, mask)
	if err != nil {
		return 0, err
	}
	r.cacheSet(cacheKey, id)
	return id, nil
}

func (r *Resolver) cacheSet(key string, id int64) {
	r.mu.Lock()
	r.cache[key] = id
	r.mu.Unlock()
}

// ProviderAccount upserts the app-level account for a provider account,
// keyed by the provider-prefixed external id.
func (r *Resolver) ProviderAccount(ctx context.Context, institutionID int64, acct *teller.Account) (int64, error) {
	name := acct.Name
	if name == "" {
		name = "Account"
	}
	currency := strings.ToUpper(acct.Currency)
	if currency == "" {
		currency = "USD"
	}
	return r.store.Accounts.UpsertByExternalID(ctx, &sqlconfig.AccountUpsert{
		InstitutionID: institutionID,
		Name:          name,
		Type:          MapAccountType(acct.Type, acct.Subtype),
		Currency:      currency,
		Mask:          nullIfEmpty(acct.LastFour),
		ExternalID:    "teller:" + acct.ID,
	})
}

// MapAccountType folds the provider's type/subtype pair onto the internal
// account type enum. Unrecognized pairs map to NULL rather than a guess.
func MapAccountType(accountType, subtype string) sql.NullString {
	switch strings.ToLower(accountType) {
	case "depository", "bank", "cash":
		switch strings.ToLower(subtype) {
		case "savings", "money_market":
			return nullString(string(sqlconfig.AccountTypeSavings))
		default:
			return nullString(string(sqlconfig.AccountTypeChecking))
		}
	case "credit", "card", "credit_card":
		return nullString(string(sqlconfig.AccountTypeCredit))
	case "loan", "mortgage":
		return nullString(string(sqlconfig.AccountTypeLoan))
	case "investment", "brokerage":
		return nullString(string(sqlconfig.AccountTypeInvestment))
	default:
		return sql.NullString{}
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return nullString(s)
}
