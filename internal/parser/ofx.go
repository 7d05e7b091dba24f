package parser

import (
	"bytes"

	"github.com/aclindsa/ofxgo"
)

// ParseOFX reads OFX and QFX statement downloads, including the SGML variant
// older banks still produce.
func ParseOFX(data []byte) ([]RawRecord, error) {
	resp, err := ofxgo.ParseResponse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var result []RawRecord
	for _, message := range resp.Bank {
		stmt, ok := message.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		acctID := stmt.BankAcctFrom.AcctID.String()
		for _, tx := range stmt.BankTranList.Transactions {
			result = append(result, ofxRecord(&tx, acctID, stmt.CurDef.String()))
		}
	}
	for _, message := range resp.CreditCard {
		stmt, ok := message.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		acctID := stmt.CCAcctFrom.AcctID.String()
		for _, tx := range stmt.BankTranList.Transactions {
			result = append(result, ofxRecord(&tx, acctID, stmt.CurDef.String()))
		}
	}
	return result, nil
}

func ofxRecord(tx *ofxgo.Transaction, acctID, currency string) RawRecord {
	description := tx.Name.String()
	if description == "" {
		description = tx.Memo.String()
	}
	return RawRecord{
		"date":        tx.DtPosted.Format("2006-01-02"),
		"amount":      tx.TrnAmt.String(),
		"fitid":       tx.FiTID.String(),
		"description": description,
		"account":     acctID,
		"currency":    currency,
	}
}
