package models

import "time"

// IncomeRecord is the payroll-detail side of income reporting. The ingestion
// pipeline creates a companion record (gross = net) for ad hoc income
// transactions that have no matching payroll detail, so one-off income stays
// reflected in income-specific reporting without double entry.
type IncomeRecord struct {
	Base
	Date   time.Time `gorm:"not null;index" json:"date"`
	Gross  int64     `gorm:"type:bigint;not null" json:"gross"` // cents
	Net    int64     `gorm:"type:bigint;not null" json:"net"`   // cents
	Source string    `json:"source"`
}
