package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const ofxFixture = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20260115120000
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>000006789
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20260101
<DTEND>20260131
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20260115
<TRNAMT>-4.50
<FITID>TX-1
<NAME>STARBUCKS #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20260116
<TRNAMT>1500.00
<FITID>TX-2
<MEMO>PAYROLL
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1204.33
<DTASOF>20260131
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>
`

func TestParseOFX_BankStatement(t *testing.T) {
	rows, err := ParseOFX([]byte(ofxFixture))
	assert.NoError(t, err)
	assert.Len(t, rows, 2)

	assert.Equal(t, "2026-01-15", rows[0]["date"])
	assert.Equal(t, "-4.5", rows[0]["amount"])
	assert.Equal(t, "TX-1", rows[0]["fitid"])
	assert.Equal(t, "STARBUCKS #1234", rows[0]["description"])
	assert.Equal(t, "000006789", rows[0]["account"])
	assert.Equal(t, "USD", rows[0]["currency"])

	// Memo backfills a missing name.
	assert.Equal(t, "PAYROLL", rows[1]["description"])
	assert.Equal(t, "TX-2", rows[1]["fitid"])
}

func TestParseOFX_Garbage(t *testing.T) {
	_, err := ParseOFX([]byte("not an ofx file"))
	assert.Error(t, err)
}

func TestParse_DispatchesQFX(t *testing.T) {
	rows, err := Parse([]byte(ofxFixture), "boa/statement.qfx")
	assert.NoError(t, err)
	assert.Len(t, rows, 2)
}
