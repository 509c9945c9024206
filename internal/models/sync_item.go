package models

import "time"

// SyncItemStatus is the state of a linked bank item.
type SyncItemStatus string

const (
	// SyncStatusActive means sync proceeds normally on the next run.
	SyncStatusActive SyncItemStatus = "active"
	// SyncStatusError means an authentication-class failure occurred; the
	// item is skipped until external re-auth, at which point the next
	// successful sync restores active.
	SyncStatusError SyncItemStatus = "error"
)

// SyncItem is the durable sync state for one linked bank item: the
// provider item id, the access credential (encrypted at rest), and the
// cursor marking incremental progress. The cursor only ever advances on a
// successfully applied page.
type SyncItem struct {
	Base
	ItemID          string         `gorm:"not null;uniqueIndex" json:"item_id"`
	AccessToken     string         `gorm:"not null" json:"-"` // sealed, see internal/vault
	InstitutionName string         `json:"institution_name"`
	Cursor          string         `json:"cursor"` // empty until first sync
	Status          SyncItemStatus `gorm:"not null;default:'active'" json:"status"`
	ErrorCode       string         `json:"error_code,omitempty"`
	ErrorMessage    string         `json:"error_message,omitempty"`
	LastSyncedAt    *time.Time     `json:"last_synced_at,omitempty"`

	// Relationships
	Accounts []Account `gorm:"foreignKey:SyncItemID" json:"accounts,omitempty"`
}
