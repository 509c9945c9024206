package models

// SyncLogStatus is the outcome recorded for one sync attempt.
type SyncLogStatus string

const (
	SyncLogSuccess SyncLogStatus = "success"
	SyncLogError   SyncLogStatus = "error"
)

// SyncLog is an append-only record of sync attempts: one row per attempt,
// carrying either the applied delta counts or an error message.
type SyncLog struct {
	Base
	SyncItemID uint          `gorm:"not null;index" json:"sync_item_id"`
	Status     SyncLogStatus `gorm:"not null" json:"status"`
	Added      int           `json:"added"`
	Modified   int           `json:"modified"`
	Removed    int           `json:"removed"`
	Message    string        `json:"message,omitempty"`
}
