package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TransactionRecord represents a single data row from the input file.
//
// Column order in the delimited input:
//
//	Reference ID, Source Account, Source Account Name, Source Bank Code,
//	Beneficiary Account, Beneficiary Account Name, Beneficiary Bank Code,
//	Currency, Amount, Transaction Type, Note (optional)
type TransactionRecord struct {
	ReferenceID            string          `json:"reference_id"`
	SourceAccount          string          `json:"source_account"`
	SourceAccountName      string          `json:"source_account_name"`
	SourceBankCode         string          `json:"source_bank_code"`
	BeneficiaryAccount     string          `json:"beneficiary_account"`
	BeneficiaryAccountName string          `json:"beneficiary_account_name"`
	BeneficiaryBankCode    string          `json:"beneficiary_bank_code"`
	Currency               string          `json:"currency"`
	Amount                 decimal.Decimal `json:"amount"`
	TransactionType        string          `json:"transaction_type"`
	Note                   string          `json:"note"`

	// Populated by the validator.
	Valid            bool   `json:"valid"`
	ValidationErrors string `json:"validation_errors,omitempty"`
}

// MarkInvalid attaches the verdict for a record that failed one or more
// checks. Reasons are joined with "; " in check order.
func (r *TransactionRecord) MarkInvalid(reasons []string) {
	r.Valid = false
	r.ValidationErrors = strings.Join(reasons, "; ")
}

// ValidRow renders the record as the valid-output file row.
func (r *TransactionRecord) ValidRow() []string {
	return []string{
		r.ReferenceID, r.SourceAccount, r.SourceAccountName, r.SourceBankCode,
		r.BeneficiaryAccount, r.BeneficiaryAccountName, r.BeneficiaryBankCode,
		r.Currency, r.Amount.String(), r.TransactionType, r.Note,
	}
}

// InvalidRow renders the record as the invalid-output file row.
func (r *TransactionRecord) InvalidRow() []string {
	return []string{
		r.ReferenceID, r.SourceAccount, r.SourceBankCode,
		r.BeneficiaryAccount, r.BeneficiaryBankCode,
		r.Currency, r.Amount.String(), r.TransactionType,
		r.ValidationErrors,
	}
}

// ValidHeader is the header line of every valid-output file.
var ValidHeader = []string{
	"referenceId", "sourceAccount", "sourceAccountName", "sourceBankCode",
	"beneficiaryAccount", "beneficiaryAccountName", "beneficiaryBankCode",
	"currency", "amount", "transactionType", "note",
}

// InvalidHeader is the header line of every invalid-output file.
var InvalidHeader = []string{
	"referenceId", "sourceAccount", "sourceBankCode",
	"beneficiaryAccount", "beneficiaryBankCode",
	"currency", "amount", "transactionType",
	"validationErrors",
}
