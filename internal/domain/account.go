package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankAccountConfig holds the issuing-account data boletos are drawn
// against. Immutable once boletos reference it; created by admin
// configuration and never deleted while referenced.
type BankAccountConfig struct {
	ID                  string          `json:"id"`
	BankCode            string          `json:"bank_code"` // 3 digits
	Agency              string          `json:"agency"`
	AccountNumber       string          `json:"account_number"`
	Wallet              string          `json:"wallet"` // carteira/portfolio code
	BeneficiaryName     string          `json:"beneficiary_name"`
	BeneficiaryDocument string          `json:"beneficiary_document"` // CNPJ
	PenaltyPct          decimal.Decimal `json:"penalty_pct"`          // flat fine, % of face value
	MonthlyInterestPct  decimal.Decimal `json:"monthly_interest_pct"` // simple monthly rate, % of face value
	Active              bool            `json:"active"`
	CreatedAt           time.Time       `json:"created_at"`
}

// Payer identifies who a boleto is charged to.
type Payer struct {
	Name     string `json:"name"`
	Document string `json:"document"` // CPF or CNPJ
	Address  string `json:"address,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	ZipCode  string `json:"zip_code,omitempty"`
}
