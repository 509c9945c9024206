package models

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCreditCard AccountType = "credit_card"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeLoan       AccountType = "loan"
)

// Account represents a financial account in the system
type Account struct {
	Base
	Name     string      `gorm:"not null" json:"name"`
	Type     AccountType `gorm:"not null" json:"type"`
	Currency string      `gorm:"not null;default:'USD'" json:"currency"`
	IsActive bool        `gorm:"default:true" json:"is_active"`

	// External bank-sync linkage. ExternalAccountID is the provider's
	// account identifier; empty for accounts that are not linked.
	SyncItemID        *uint  `json:"sync_item_id,omitempty"`
	ExternalAccountID string `gorm:"index" json:"external_account_id,omitempty"`

	// Relationships
	SyncItem     *SyncItem     `gorm:"foreignKey:SyncItemID" json:"sync_item,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:AccountID" json:"transactions,omitempty"`
}
