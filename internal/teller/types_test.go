package teller

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		// Bare digit strings are minor units.
		{"500", "5"},
		{"-500", "-5"},
		{"1", "0.01"},
		// Anything with a decimal point is major units.
		{"5.00", "5"},
		{"-4.50", "-4.5"},
		{"4.505", "4.51"},
	}
	for _, c := range cases {
		got, err := ParseAmount(c.in)
		assert.NoError(t, err, c.in)
		assert.Equal(t, c.want, got.String(), c.in)
	}

	_, err := ParseAmount("abc")
	assert.Error(t, err)
}

func TestAmountUnmarshal(t *testing.T) {
	var tx Transaction

	assert.NoError(t, json.Unmarshal([]byte(`{"amount":"500"}`), &tx))
	assert.Equal(t, "5", tx.Amount.String())

	assert.NoError(t, json.Unmarshal([]byte(`{"amount":"-4.50"}`), &tx))
	assert.Equal(t, "-4.5", tx.Amount.String())

	assert.NoError(t, json.Unmarshal([]byte(`{"amount":-4.5}`), &tx))
	assert.Equal(t, "-4.5", tx.Amount.String())
}

func TestAmountUnmarshal_InvalidValueFlagsRecord(t *testing.T) {
	var tx Transaction
	assert.NoError(t, json.Unmarshal([]byte(`{"amount":"n/a"}`), &tx))
	assert.True(t, tx.Amount.Invalid)
}

// A single bad amount must not fail the decode of the surrounding array;
// valid sibling records survive.
func TestAmountUnmarshal_BadRecordKeepsSiblings(t *testing.T) {
	var txs []*Transaction
	data := []byte(`[{"id":"txn_1","amount":"n/a"},{"id":"txn_2","amount":"-4.50"}]`)
	assert.NoError(t, json.Unmarshal(data, &txs))
	assert.Len(t, txs, 2)
	assert.True(t, txs[0].Amount.Invalid)
	assert.False(t, txs[1].Amount.Invalid)
	assert.Equal(t, "-4.5", txs[1].Amount.String())
}

func TestAmountUnmarshal_Null(t *testing.T) {
	var tx Transaction
	assert.NoError(t, json.Unmarshal([]byte(`{"amount":null}`), &tx))
	assert.True(t, tx.Amount.IsZero())
}
