package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"moneta/internal/ledger"
	"moneta/internal/models"

	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestAccount creates a checking account.
func CreateTestAccount(t *testing.T, db *gorm.DB) *models.Account {
	t.Helper()

	account := &models.Account{
		Name:     fmt.Sprintf("Test Account %d", nextID()),
		Type:     models.AccountTypeChecking,
		Currency: "USD",
		IsActive: true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestLinkedAccount creates an account tied to a sync item's external
// account reference.
func CreateTestLinkedAccount(t *testing.T, db *gorm.DB, syncItemID uint, externalAccountID string) *models.Account {
	t.Helper()

	account := &models.Account{
		Name:              fmt.Sprintf("Linked Account %d", nextID()),
		Type:              models.AccountTypeChecking,
		Currency:          "USD",
		IsActive:          true,
		SyncItemID:        &syncItemID,
		ExternalAccountID: externalAccountID,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create linked test account: %v", err)
	}
	return account
}

// CreateTestCategory creates a category with the given ordered keyword list.
func CreateTestCategory(t *testing.T, db *gorm.DB, name string, kind models.CategoryKind, keywords string, sortOrder int) *models.Category {
	t.Helper()

	category := &models.Category{
		Name:      name,
		Kind:      kind,
		Keywords:  keywords,
		SortOrder: sortOrder,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction creates a ledger row with a correctly computed
// fingerprint and a kind derived from the amount's sign.
func CreateTestTransaction(t *testing.T, db *gorm.DB, accountID uint, date time.Time, amount int64, description string) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		AccountID:   accountID,
		Kind:        models.KindForAmount(amount),
		Source:      models.SourceManual,
		Amount:      amount,
		Description: description,
		Date:        date,
		Fingerprint: ledger.Fingerprint(date, amount, description, accountID),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// LinkTransaction attaches an external id to a row, making the external id
// its sole identity from then on.
func LinkTransaction(t *testing.T, db *gorm.DB, tx *models.Transaction, externalID string) {
	t.Helper()

	if err := db.Model(tx).Updates(map[string]interface{}{
		"external_id": externalID,
		"source":      models.SourcePlaid,
	}).Error; err != nil {
		t.Fatalf("failed to link test transaction: %v", err)
	}
	tx.ExternalID = &externalID
	tx.Source = models.SourcePlaid
}

// CreateTestSyncItem creates an active sync item with the given credential.
func CreateTestSyncItem(t *testing.T, db *gorm.DB, accessToken string) *models.SyncItem {
	t.Helper()

	item := &models.SyncItem{
		ItemID:      fmt.Sprintf("item-%d", nextID()),
		AccessToken: accessToken,
		Status:      models.SyncStatusActive,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to create test sync item: %v", err)
	}
	return item
}
