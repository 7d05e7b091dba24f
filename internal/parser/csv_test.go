package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCSV_CommaDelimited(t *testing.T) {
	data := []byte("Date,Description,Amount\n2026-01-15,Starbucks #1234,-4.50\n2026-01-16,Paycheck,1500.00\n")

	rows, err := ParseCSV(data)
	assert.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, "2026-01-15", rows[0]["date"])
	assert.Equal(t, "Starbucks #1234", rows[0]["description"])
	assert.Equal(t, "-4.50", rows[0]["amount"])
}

func TestParseCSV_SemicolonDelimited(t *testing.T) {
	data := []byte("Date;Description;Amount\n2026-01-15;Cafe;-2.00\n")

	rows, err := ParseCSV(data)
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "Cafe", rows[0]["description"])
}

func TestParseCSV_TabDelimited(t *testing.T) {
	data := []byte("Date\tDescription\tAmount\n2026-01-15\tCafe\t-2.00\n")

	rows, err := ParseCSV(data)
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "-2.00", rows[0]["amount"])
}

func TestParseCSV_LowercasesHeaders(t *testing.T) {
	data := []byte("Posting Date,MEMO,Amount\n2026-01-15,x,-1.00\n")

	rows, err := ParseCSV(data)
	assert.NoError(t, err)
	assert.Equal(t, "x", rows[0]["memo"])
	assert.Equal(t, "2026-01-15", rows[0]["posting date"])
}

func TestParseCSV_UTF8BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("date,amount\n2026-01-15,-1.00\n")...)

	rows, err := ParseCSV(data)
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "2026-01-15", rows[0]["date"])
}

func TestParseCSV_Latin1Decoded(t *testing.T) {
	// "Café" with a Latin-1 0xE9, invalid as UTF-8.
	data := []byte("date,description,amount\n2026-01-15,Caf\xe9,-2.00\n")

	rows, err := ParseCSV(data)
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Contains(t, rows[0]["description"], "Caf")
}

func TestParseCSV_RaggedRows(t *testing.T) {
	data := []byte("date,description,amount\n2026-01-15,Cafe\n")

	rows, err := ParseCSV(data)
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "Cafe", rows[0]["description"])
	assert.Empty(t, rows[0]["amount"])
}

func TestParseCSV_Empty(t *testing.T) {
	_, err := ParseCSV([]byte(""))
	assert.Error(t, err)
}

func TestParse_UnsupportedExtension(t *testing.T) {
	_, err := Parse([]byte("%PDF-1.4"), "statement.pdf")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestParse_DispatchesCSV(t *testing.T) {
	rows, err := Parse([]byte("date,amount\n2026-01-15,-1.00\n"), "chase/Jan.CSV")
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
}
