package canonical

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carson-networks/ledger-server/internal/parser"
)

// Tx is one transaction in canonical form, ready for upsert.
type Tx struct {
	Bank           string
	Mask           string
	PostedAt       time.Time
	Amount         decimal.Decimal
	Currency       string
	Description    string
	NormalizedDesc string
	ExternalTxID   string
	BalanceAfter   *decimal.Decimal
}

// ParseError marks a row that cannot be canonicalized. The caller skips the
// row and keeps going.
type ParseError struct {
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	return "cannot parse " + e.Field + ": " + e.Reason
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"2006/01/02",
	"Jan 2, 2006",
	"Jan 02, 2006",
	"02 Jan 2006",
}

var (
	dateKeys    = []string{"date", "posted date", "posting date", "transaction date"}
	descKeys    = []string{"description", "name", "memo", "payee"}
	amountKeys  = []string{"amount", "amount (usd)", "transaction amount"}
	idKeys      = []string{"fitid", "id", "transaction id", "reference"}
	balanceKeys = []string{"balance", "running balance"}
	maskKeys    = []string{"account", "account number", "last4"}
)

// Canonicalize converts one raw statement row into a Tx. The bank label
// travels with the row so account resolution can name placeholder accounts.
func Canonicalize(row parser.RawRecord, bank string) (*Tx, error) {
	rawDate := firstValue(row, dateKeys)
	if rawDate == "" {
		return nil, &ParseError{Field: "date", Reason: "missing"}
	}
	postedAt, err := parseDate(rawDate)
	if err != nil {
		return nil, &ParseError{Field: "date", Reason: rawDate}
	}

	amount, err := resolveAmount(row)
	if err != nil {
		return nil, err
	}

	description := firstValue(row, descKeys)
	if description == "" {
		description = "UNKNOWN"
	}

	// Only exact 3-letter codes are trusted; anything else falls back.
	currency := strings.ToUpper(firstValue(row, []string{"currency"}))
	if len(currency) != 3 {
		currency = "USD"
	}

	tx := &Tx{
		Bank:           bank,
		Mask:           lastFour(firstValue(row, maskKeys)),
		PostedAt:       postedAt,
		Amount:         amount,
		Currency:       currency,
		Description:    description,
		NormalizedDesc: NormalizeDesc(description),
		ExternalTxID:   firstValue(row, idKeys),
	}

	// Balance is informational; an unparseable one does not fail the row.
	if raw := firstValue(row, balanceKeys); raw != "" {
		if balance, err := ParseAmount(raw); err == nil {
			tx.BalanceAfter = &balance
		}
	}
	return tx, nil
}

// resolveAmount handles both single-column signed amounts and the split
// debit/credit column convention, where debits are negated.
func resolveAmount(row parser.RawRecord) (decimal.Decimal, error) {
	if raw := firstValue(row, amountKeys); raw != "" {
		amount, err := ParseAmount(raw)
		if err != nil {
			return decimal.Decimal{}, &ParseError{Field: "amount", Reason: raw}
		}
		return amount, nil
	}
	if raw := firstValue(row, []string{"debit", "withdrawal"}); raw != "" {
		amount, err := ParseAmount(raw)
		if err != nil {
			return decimal.Decimal{}, &ParseError{Field: "amount", Reason: raw}
		}
		return amount.Abs().Neg(), nil
	}
	if raw := firstValue(row, []string{"credit", "deposit"}); raw != "" {
		amount, err := ParseAmount(raw)
		if err != nil {
			return decimal.Decimal{}, &ParseError{Field: "amount", Reason: raw}
		}
		return amount.Abs(), nil
	}
	return decimal.Decimal{}, &ParseError{Field: "amount", Reason: "missing"}
}

// ParseAmount strips currency punctuation and parses to two decimal places.
// Parenthesized amounts are treated as negative.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer(",", "", "$", "", " ", "").Replace(s)
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if negative {
		amount = amount.Neg()
	}
	return amount.Round(2), nil
}

// NormalizeDesc upper-cases and collapses runs of whitespace so descriptions
// compare equal across sources.
func NormalizeDesc(description string) string {
	return strings.Join(strings.Fields(strings.ToUpper(description)), " ")
}

// Fingerprint is the content-derived dedup key for rows without a stable
// source id: account, calendar date, amount at two decimal places, and the
// normalized description.
func Fingerprint(accountID int64, postedAt time.Time, amount decimal.Decimal, normalizedDesc string) []byte {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s|%s|%s",
		accountID, postedAt.Format("2006-01-02"), amount.StringFixed(2), normalizedDesc)))
	return sum[:]
}

func parseDate(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func firstValue(row parser.RawRecord, keys []string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(row[key]); value != "" {
			return value
		}
	}
	return ""
}

// lastFour reduces any account identifier to its trailing four digits, the
// only part bank exports reliably agree on.
func lastFour(raw string) string {
	digits := make([]rune, 0, len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) == 0 {
		return ""
	}
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	return string(digits)
}
