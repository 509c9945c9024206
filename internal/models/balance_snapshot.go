package models

import "time"

// BalanceSnapshot is a point-in-time balance for one account on one
// calendar day. Unlike ledger rows, snapshots are keyed by (account, day):
// a same-day re-sync overwrites rather than appends.
type BalanceSnapshot struct {
	Base
	AccountID uint      `gorm:"not null;uniqueIndex:idx_balance_account_date" json:"account_id"`
	Date      time.Time `gorm:"not null;uniqueIndex:idx_balance_account_date" json:"date"`
	Current   int64     `gorm:"type:bigint;not null" json:"current"` // cents
	Available int64     `gorm:"type:bigint" json:"available"`        // cents

	Account Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
}
