package services

import (
	"strings"
	"testing"
	"time"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/normalize"
	"moneta/internal/testutil"
)

func setupImportTest(t *testing.T) (ImportServicer, *models.Account) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	account := testutil.CreateTestAccount(t, db)
	svc := NewImportService(db, NewAccountService(db))
	return svc, account
}

func TestImportBatchBasic(t *testing.T) {
	db := testutil.SetupTestDB(t)
	account := testutil.CreateTestAccount(t, db)
	groceries := testutil.CreateTestCategory(t, db, "Groceries", models.CategoryKindExpense, "whole foods,trader joe", 1)
	dining := testutil.CreateTestCategory(t, db, "Dining Out", models.CategoryKindExpense, "starbucks,chipotle", 2)
	svc := NewImportService(db, NewAccountService(db))

	rows := []RawRow{
		{Date: "2025-01-15", Amount: "-45.23", Description: "WHOLE FOODS MARKET #123"},
		{Date: "01/16/2025", Amount: "-6.75", Description: "STARBUCKS STORE 456"},
		{Date: "2025-01-17", Amount: "-120.00", Description: "CITY UTILITIES"},
	}

	result, err := svc.ImportBatch(account.ID, rows, normalize.SignNegativeExpense)
	testutil.AssertNoError(t, err)
	if result.Imported != 3 || result.Duplicates != 0 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	var wholeFoods models.Transaction
	testutil.AssertNoError(t, db.Where("description = ?", "WHOLE FOODS MARKET #123").First(&wholeFoods).Error)
	if wholeFoods.Amount != -4523 {
		t.Errorf("expected -4523 cents, got %d", wholeFoods.Amount)
	}
	if wholeFoods.CategoryID == nil || *wholeFoods.CategoryID != groceries.ID {
		t.Errorf("expected Groceries category")
	}
	if wholeFoods.Source != models.SourceImport {
		t.Errorf("expected import source, got %s", wholeFoods.Source)
	}
	if wholeFoods.Kind != models.TransactionKindExpense {
		t.Errorf("expected expense kind, got %s", wholeFoods.Kind)
	}
	if wholeFoods.Fingerprint == "" {
		t.Errorf("expected fingerprint set")
	}

	var coffee models.Transaction
	testutil.AssertNoError(t, db.Where("description = ?", "STARBUCKS STORE 456").First(&coffee).Error)
	if coffee.CategoryID == nil || *coffee.CategoryID != dining.ID {
		t.Errorf("expected Dining Out category")
	}
	if !coffee.Date.Equal(time.Date(2025, time.January, 16, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected slash date normalized to UTC midnight, got %v", coffee.Date)
	}

	var uncategorized models.Transaction
	testutil.AssertNoError(t, db.Where("description = ?", "CITY UTILITIES").First(&uncategorized).Error)
	if uncategorized.CategoryID != nil {
		t.Errorf("expected no category match")
	}
}

func TestImportBatchIdempotent(t *testing.T) {
	svc, account := setupImportTest(t)

	rows := []RawRow{
		{Date: "2025-01-15", Amount: "-45.23", Description: "WHOLE FOODS MARKET"},
		{Date: "2025-01-16", Amount: "-6.75", Description: "STARBUCKS"},
	}

	first, err := svc.ImportBatch(account.ID, rows, normalize.SignNegativeExpense)
	testutil.AssertNoError(t, err)
	if first.Imported != 2 {
		t.Fatalf("expected 2 imported, got %d", first.Imported)
	}

	second, err := svc.ImportBatch(account.ID, rows, normalize.SignNegativeExpense)
	testutil.AssertNoError(t, err)
	if second.Imported != 0 || second.Duplicates != 2 {
		t.Errorf("re-import must be all duplicates, got %+v", second)
	}
}

func TestImportBatchCrossFormatDedup(t *testing.T) {
	svc, account := setupImportTest(t)

	// Same real-world charge exported by two tools with different
	// description text and date formats.
	first, err := svc.ImportBatch(account.ID, []RawRow{
		{Date: "2025-01-15", Amount: "-45.23", Description: "WHOLE FOODS MARKET #123"},
	}, normalize.SignNegativeExpense)
	testutil.AssertNoError(t, err)
	if first.Imported != 1 {
		t.Fatalf("expected 1 imported, got %d", first.Imported)
	}

	second, err := svc.ImportBatch(account.ID, []RawRow{
		{Date: "01/15/2025", Amount: "-45.23", Description: "WHOLEFDS MKT 123"},
	}, normalize.SignNegativeExpense)
	testutil.AssertNoError(t, err)
	if second.Imported != 0 || second.Duplicates != 1 {
		t.Errorf("secondary key must catch cross-format duplicate, got %+v", second)
	}
}

func TestImportBatchAccountIsolation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	accountA := testutil.CreateTestAccount(t, db)
	accountB := testutil.CreateTestAccount(t, db)
	svc := NewImportService(db, NewAccountService(db))

	rows := []RawRow{{Date: "2025-01-15", Amount: "-45.23", Description: "WHOLE FOODS MARKET"}}

	first, err := svc.ImportBatch(accountA.ID, rows, normalize.SignNegativeExpense)
	testutil.AssertNoError(t, err)
	second, err := svc.ImportBatch(accountB.ID, rows, normalize.SignNegativeExpense)
	testutil.AssertNoError(t, err)

	if first.Imported != 1 || second.Imported != 1 {
		t.Errorf("identical rows on different accounts are not duplicates: %+v %+v", first, second)
	}
}

func TestImportBatchRowErrors(t *testing.T) {
	svc, account := setupImportTest(t)

	rows := []RawRow{
		{Date: "2025-01-15", Amount: "-45.23", Description: "GOOD ROW"},
		{Date: "not-a-date", Amount: "-10.00", Description: "BAD DATE"},
		{Date: "2025-01-16", Amount: "ten dollars", Description: "BAD AMOUNT"},
		{Date: "2025-01-17", Amount: "-20.00", Description: "ANOTHER GOOD ROW"},
	}

	result, err := svc.ImportBatch(account.ID, rows, normalize.SignNegativeExpense)
	testutil.AssertNoError(t, err)
	if result.Imported != 2 {
		t.Errorf("bad rows must not block good ones, got %d imported", result.Imported)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 row errors, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0], "row 2") || !strings.Contains(result.Errors[0], "date") {
		t.Errorf("expected row 2 date error, got %q", result.Errors[0])
	}
	if !strings.Contains(result.Errors[1], "row 3") || !strings.Contains(result.Errors[1], "amount") {
		t.Errorf("expected row 3 amount error, got %q", result.Errors[1])
	}
}

func TestImportBatchPositiveExpenseConvention(t *testing.T) {
	db := testutil.SetupTestDB(t)
	account := testutil.CreateTestAccount(t, db)
	svc := NewImportService(db, NewAccountService(db))

	result, err := svc.ImportBatch(account.ID, []RawRow{
		{Date: "2025-01-15", Amount: "45.23", Description: "CARD PURCHASE"},
		{Date: "2025-01-16", Amount: "-500.00", Description: "PAYMENT RECEIVED"},
	}, normalize.SignPositiveExpense)
	testutil.AssertNoError(t, err)
	if result.Imported != 2 {
		t.Fatalf("expected 2 imported, got %d", result.Imported)
	}

	var purchase models.Transaction
	testutil.AssertNoError(t, db.Where("description = ?", "CARD PURCHASE").First(&purchase).Error)
	if purchase.Amount != -4523 {
		t.Errorf("positive-expense convention must negate, got %d", purchase.Amount)
	}

	var payment models.Transaction
	testutil.AssertNoError(t, db.Where("description = ?", "PAYMENT RECEIVED").First(&payment).Error)
	if payment.Amount != 50000 {
		t.Errorf("expected 50000 cents, got %d", payment.Amount)
	}
}

func TestImportBatchInvalidConvention(t *testing.T) {
	svc, account := setupImportTest(t)
	_, err := svc.ImportBatch(account.ID, nil, normalize.SignConvention("sideways"))
	testutil.AssertAppError(t, err, apperrors.ErrInvalidInput.Code)
}

func TestImportBatchUnknownAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewImportService(db, NewAccountService(db))
	_, err := svc.ImportBatch(99999, []RawRow{{Date: "2025-01-15", Amount: "-1.00", Description: "X"}}, normalize.SignNegativeExpense)
	testutil.AssertAppError(t, err, apperrors.ErrAccountNotFound.Code)
}

func TestImportBatchIncomeRecordSideEffect(t *testing.T) {
	db := testutil.SetupTestDB(t)
	account := testutil.CreateTestAccount(t, db)
	testutil.CreateTestCategory(t, db, "Salary", models.CategoryKindIncome, "payroll,direct deposit", 1)
	svc := NewImportService(db, NewAccountService(db))

	rows := []RawRow{{Date: "2025-01-15", Amount: "3200.00", Description: "ACME CORP PAYROLL"}}
	result, err := svc.ImportBatch(account.ID, rows, normalize.SignNegativeExpense)
	testutil.AssertNoError(t, err)
	if result.Imported != 1 {
		t.Fatalf("expected 1 imported, got %d", result.Imported)
	}

	var records []models.IncomeRecord
	testutil.AssertNoError(t, db.Find(&records).Error)
	if len(records) != 1 {
		t.Fatalf("expected 1 income record, got %d", len(records))
	}
	if records[0].Gross != 320000 || records[0].Net != 320000 {
		t.Errorf("ad hoc income records gross = net, got %+v", records[0])
	}
	if records[0].Source != "ACME CORP PAYROLL" {
		t.Errorf("expected source from description, got %q", records[0].Source)
	}

	// A matching payroll detail already on file suppresses a second one.
	other := testutil.CreateTestAccount(t, db)
	again, err := svc.ImportBatch(other.ID, rows, normalize.SignNegativeExpense)
	testutil.AssertNoError(t, err)
	if again.Imported != 1 {
		t.Fatalf("different account must import, got %+v", again)
	}
	testutil.AssertNoError(t, db.Find(&records).Error)
	if len(records) != 1 {
		t.Errorf("expected income record reuse for same (date, net), got %d", len(records))
	}
}
