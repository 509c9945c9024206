package testutil_test

import (
	"testing"
	"time"

	"moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"accounts", "categories", "transactions", "sync_items", "sync_logs", "balance_snapshots", "income_records"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	account := testutil.CreateTestAccount(t, db)
	if account.ID == 0 {
		t.Fatal("account should have a non-zero ID")
	}

	category := testutil.CreateTestCategory(t, db, "Groceries", models.CategoryKindExpense, "whole foods", 1)
	if category.Kind != models.CategoryKindExpense {
		t.Errorf("expected expense category, got %s", category.Kind)
	}

	date := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	tx := testutil.CreateTestTransaction(t, db, account.ID, date, -4523, "WHOLE FOODS")
	if tx.Fingerprint == "" {
		t.Error("transaction should carry a computed fingerprint")
	}
	if tx.Kind != models.TransactionKindExpense {
		t.Errorf("negative amount should be an expense, got %s", tx.Kind)
	}

	testutil.LinkTransaction(t, db, tx, "ext-1")
	if tx.ExternalID == nil || *tx.ExternalID != "ext-1" {
		t.Error("linking should set the external id")
	}

	item := testutil.CreateTestSyncItem(t, db, "sealed-token")
	if item.Status != models.SyncStatusActive {
		t.Errorf("new sync items start active, got %s", item.Status)
	}

	linked := testutil.CreateTestLinkedAccount(t, db, item.ID, "ext-acct-1")
	if linked.SyncItemID == nil || *linked.SyncItemID != item.ID {
		t.Error("linked account should reference its sync item")
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.ErrAccountNotFound
	testutil.AssertAppError(t, err, errors.ErrAccountNotFound.Code)
	testutil.AssertNoError(t, nil)
}
