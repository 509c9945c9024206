package models

import "time"

// TransactionKind classifies what a transaction represents.
type TransactionKind string

const (
	TransactionKindExpense  TransactionKind = "expense"
	TransactionKindIncome   TransactionKind = "income"
	TransactionKindTransfer TransactionKind = "transfer"
)

// TransactionSource records which ingestion path created a transaction.
type TransactionSource string

const (
	SourceManual TransactionSource = "manual"
	SourceImport TransactionSource = "import"
	SourcePlaid  TransactionSource = "plaid"
)

// Transaction represents one row in the canonical ledger.
//
// Identity rules: Fingerprint is unique among rows without an ExternalID;
// ExternalID is unique overall and, once set, is the sole identity used for
// future matching of that row. At most one transaction exists per
// (date, amount, account) regardless of description differences.
type Transaction struct {
	Base
	AccountID   uint              `gorm:"not null;index" json:"account_id"`
	CategoryID  *uint             `json:"category_id,omitempty"`
	Kind        TransactionKind   `gorm:"not null" json:"kind"`
	Source      TransactionSource `gorm:"not null;default:'manual'" json:"source"`
	Amount      int64             `gorm:"type:bigint;not null" json:"amount"` // cents; negative = money out
	Description string            `json:"description"`
	Date        time.Time         `gorm:"not null;index" json:"date"` // calendar day, no time-of-day
	Fingerprint string            `gorm:"size:64;not null;index" json:"fingerprint"`
	ExternalID  *string           `gorm:"uniqueIndex" json:"external_id,omitempty"`
	IsPending   bool              `gorm:"default:false" json:"is_pending"`
	Notes       string            `json:"notes"` // user-owned, never touched by sync

	// Relationships
	Account  Account   `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// KindForAmount derives the transaction kind from a signed amount in cents.
func KindForAmount(cents int64) TransactionKind {
	if cents > 0 {
		return TransactionKindIncome
	}
	return TransactionKindExpense
}
