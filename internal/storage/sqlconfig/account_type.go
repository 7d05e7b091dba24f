package sqlconfig

// AccountType is the closed account-type vocabulary stored in the accounts
// table. Provider types outside this set are left unset, never guessed.
type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeLoan       AccountType = "loan"
	AccountTypeInvestment AccountType = "investment"
)
