package teller

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Account is one account as reported by the provider API.
type Account struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Subtype      string `json:"subtype"`
	Currency     string `json:"currency"`
	LastFour     string `json:"last_four"`
	EnrollmentID string `json:"enrollment_id"`
	Institution  struct {
		Name string `json:"name"`
	} `json:"institution"`
}

// Transaction is one transaction as reported by the provider API. Date
// fields vary by API version, so all known spellings are carried and the
// caller picks the first populated one.
type Transaction struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	Posted       string `json:"posted"`
	Timestamp    string `json:"timestamp"`
	Booked       string `json:"booked"`
	Amount       Amount `json:"amount"`
	Currency     string `json:"currency"`
	Description  string `json:"description"`
	Name         string `json:"name"`
	Counterparty struct {
		Name string `json:"name"`
	} `json:"counterparty"`
}

// Amount tolerates the provider's inconsistent amount encoding: JSON
// numbers, decimal strings, and bare digit strings denominated in cents.
// An unparseable value sets Invalid instead of erroring, so one bad record
// cannot fail the decode of a whole response. Callers skip invalid records.
type Amount struct {
	decimal.Decimal
	Invalid bool
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			a.Invalid = true
			return nil
		}
		parsed, err := ParseAmount(s)
		if err != nil {
			a.Invalid = true
			return nil
		}
		a.Decimal = parsed
		return nil
	}
	parsed, err := decimal.NewFromString(raw)
	if err != nil {
		a.Invalid = true
		return nil
	}
	a.Decimal = parsed.Round(2)
	return nil
}

// ParseAmount interprets a string amount. A string of bare digits with an
// optional sign is minor units (cents); anything with a decimal point is
// major units.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if isIntegerString(s) {
		cents, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return cents.Shift(-2), nil
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return amount.Round(2), nil
}

func isIntegerString(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
