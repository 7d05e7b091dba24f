package canonical

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/carson-networks/ledger-server/internal/parser"
)

func TestCanonicalize_BasicRow(t *testing.T) {
	row := parser.RawRecord{
		"date":        "2026-01-15",
		"description": "  Starbucks   #1234  ",
		"amount":      "-4.50",
		"currency":    "usd",
		"account":     "****6789",
	}

	tx, err := Canonicalize(row, "chase")
	assert.NoError(t, err)
	assert.Equal(t, "chase", tx.Bank)
	assert.Equal(t, "6789", tx.Mask)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), tx.PostedAt)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("-4.50")))
	assert.Equal(t, "USD", tx.Currency)
	assert.Equal(t, "Starbucks   #1234", tx.Description)
	assert.Equal(t, "STARBUCKS #1234", tx.NormalizedDesc)
	assert.Empty(t, tx.ExternalTxID)
	assert.Nil(t, tx.BalanceAfter)
}

func TestCanonicalize_HeaderAliases(t *testing.T) {
	row := parser.RawRecord{
		"posting date": "01/15/2026",
		"memo":         "ACH PAYMENT",
		"amount":       "100.00",
		"fitid":        "20260115-001",
	}

	tx, err := Canonicalize(row, "boa")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), tx.PostedAt)
	assert.Equal(t, "ACH PAYMENT", tx.Description)
	assert.Equal(t, "20260115-001", tx.ExternalTxID)
}

func TestCanonicalize_DebitCreditColumns(t *testing.T) {
	debit := parser.RawRecord{
		"date":        "2026-02-01",
		"description": "Grocery",
		"debit":       "25.00",
	}
	tx, err := Canonicalize(debit, "chase")
	assert.NoError(t, err)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("-25.00")))

	credit := parser.RawRecord{
		"date":        "2026-02-01",
		"description": "Paycheck",
		"credit":      "1500.00",
	}
	tx, err = Canonicalize(credit, "chase")
	assert.NoError(t, err)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("1500.00")))
}

func TestCanonicalize_MissingDescription(t *testing.T) {
	row := parser.RawRecord{
		"date":   "2026-03-01",
		"amount": "-1.00",
	}

	tx, err := Canonicalize(row, "chase")
	assert.NoError(t, err)
	assert.Equal(t, "UNKNOWN", tx.Description)
	assert.Equal(t, "UNKNOWN", tx.NormalizedDesc)
}

func TestCanonicalize_DefaultCurrency(t *testing.T) {
	// Anything that is not an exact 3-letter code falls back to USD.
	for _, raw := range []string{"dollars", "eu", "$", ""} {
		row := parser.RawRecord{
			"date":        "2026-03-01",
			"description": "Thing",
			"amount":      "-1.00",
			"currency":    raw,
		}

		tx, err := Canonicalize(row, "chase")
		assert.NoError(t, err)
		assert.Equal(t, "USD", tx.Currency, raw)
	}
}

func TestCanonicalize_UnparseableBalanceIsNil(t *testing.T) {
	row := parser.RawRecord{
		"date":        "2026-03-01",
		"description": "Thing",
		"amount":      "-1.00",
		"balance":     "n/a",
	}

	tx, err := Canonicalize(row, "chase")
	assert.NoError(t, err)
	assert.Nil(t, tx.BalanceAfter)
}

func TestCanonicalize_Balance(t *testing.T) {
	row := parser.RawRecord{
		"date":        "2026-03-01",
		"description": "Thing",
		"amount":      "-1.00",
		"balance":     "1,204.33",
	}

	tx, err := Canonicalize(row, "chase")
	assert.NoError(t, err)
	assert.NotNil(t, tx.BalanceAfter)
	assert.True(t, tx.BalanceAfter.Equal(decimal.RequireFromString("1204.33")))
}

func TestCanonicalize_MissingDate(t *testing.T) {
	_, err := Canonicalize(parser.RawRecord{"description": "x", "amount": "1"}, "chase")
	parseErr := &ParseError{}
	assert.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "date", parseErr.Field)
}

func TestCanonicalize_BadDate(t *testing.T) {
	_, err := Canonicalize(parser.RawRecord{"date": "soon", "amount": "1"}, "chase")
	parseErr := &ParseError{}
	assert.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "date", parseErr.Field)
}

func TestCanonicalize_MissingAmount(t *testing.T) {
	_, err := Canonicalize(parser.RawRecord{"date": "2026-01-01", "description": "x"}, "chase")
	parseErr := &ParseError{}
	assert.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "amount", parseErr.Field)
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"-4.50", "-4.5"},
		{"1,234.50", "1234.5"},
		{"$20.00", "20"},
		{"(15.25)", "-15.25"},
		{"0.005", "0.01"},
	}
	for _, c := range cases {
		got, err := ParseAmount(c.in)
		assert.NoError(t, err, c.in)
		assert.True(t, got.Equal(decimal.RequireFromString(c.want)), "%s -> %s", c.in, got)
	}

	_, err := ParseAmount("twelve")
	assert.Error(t, err)
}

func TestNormalizeDesc(t *testing.T) {
	assert.Equal(t, "STARBUCKS #1234", NormalizeDesc("  starbucks \t #1234 \n"))
	assert.Equal(t, "", NormalizeDesc("   "))
}

func TestFingerprint_StableAndDistinct(t *testing.T) {
	posted := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	amount := decimal.RequireFromString("-4.50")

	a := Fingerprint(1, posted, amount, "STARBUCKS #1234")
	b := Fingerprint(1, posted, amount, "STARBUCKS #1234")
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)

	// Same data under another account must not collide.
	c := Fingerprint(2, posted, amount, "STARBUCKS #1234")
	assert.NotEqual(t, a, c)

	// -4.5 and -4.50 fingerprint identically at two decimal places.
	d := Fingerprint(1, posted, decimal.RequireFromString("-4.5"), "STARBUCKS #1234")
	assert.Equal(t, a, d)
}
