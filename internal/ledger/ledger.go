// Package ledger implements the deduplication contract for the canonical
// transaction ledger: a primary content fingerprint, a secondary
// (date, amount, account) key, and external-id authority once established.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"moneta/internal/models"
	"moneta/internal/normalize"
)

// Fingerprint computes the stable content hash of a transaction over
// (date, amount, description, account). It is the exact-duplicate key
// within a single description convention.
func Fingerprint(date time.Time, amountCents int64, description string, accountID uint) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%s|%d", normalize.DayString(date), amountCents, description, accountID)
	return hex.EncodeToString(h.Sum(nil))
}

// FindByExternalID looks up the transaction carrying the given external id.
// Returns (nil, nil) when no such row exists.
func FindByExternalID(db *gorm.DB, externalID string) (*models.Transaction, error) {
	var tx models.Transaction
	err := db.Where("external_id = ?", externalID).First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// FindDuplicate looks for an existing row that makes a newcomer a duplicate:
// either the same fingerprint, or the same (date, amount, account) secondary
// key regardless of description. Rows that already carry an external id are
// excluded — their identity is the external id alone, so fingerprint and
// secondary-key comparison is bypassed for them.
//
// When several rows could match (equal-amount same-day charges), the lowest
// id wins.
func FindDuplicate(db *gorm.DB, accountID uint, date time.Time, amountCents int64, fingerprint string) (*models.Transaction, error) {
	var tx models.Transaction
	err := db.
		Where("account_id = ? AND external_id IS NULL", accountID).
		Where("fingerprint = ? OR (date = ? AND amount = ?)", fingerprint, normalize.Day(date), amountCents).
		Order("id ASC").
		First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// SecondaryKeyExists reports whether any row (linked or not) already
// occupies the (date, amount, account) slot. Used by the ingestion pipeline,
// where even an externally-linked row suppresses a newcomer.
func SecondaryKeyExists(db *gorm.DB, accountID uint, date time.Time, amountCents int64) (bool, error) {
	var count int64
	err := db.Model(&models.Transaction{}).
		Where("account_id = ? AND date = ? AND amount = ?", accountID, normalize.Day(date), amountCents).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FingerprintExists reports whether an unlinked row with the given
// fingerprint already exists on the account.
func FingerprintExists(db *gorm.DB, accountID uint, fingerprint string) (bool, error) {
	var count int64
	err := db.Model(&models.Transaction{}).
		Where("account_id = ? AND fingerprint = ? AND external_id IS NULL", accountID, fingerprint).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
