package services

import (
	"context"
	"time"

	"moneta/internal/models"
	"moneta/internal/normalize"
	"moneta/internal/pagination"
)

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(name string, accountType models.AccountType, currency string) (*models.Account, error)
	GetAccounts(page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(accountID uint) (*models.Account, error)
}

// CategoryServicer defines the contract for the read-only category
// configuration consumed by the categorizer and the admin surface.
type CategoryServicer interface {
	GetCategories() ([]models.Category, error)
	GetCategoryByID(categoryID uint) (*models.Category, error)
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate  *time.Time
	ToDate    *time.Time
	Kind      *models.TransactionKind
	Source    *models.TransactionSource
	MinAmount *int64
	MaxAmount *int64
}

// TransactionServicer defines the contract for ledger reads and direct user
// edits. User edits touch category and notes only; everything else belongs
// to the ingestion pipeline and the sync engine.
type TransactionServicer interface {
	GetAccountTransactions(accountID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(transactionID uint) (*models.Transaction, error)
	UpdateUserFields(transactionID uint, categoryID *uint, notes *string) (*models.Transaction, error)
	DeleteTransaction(transactionID uint) error
}

// RawRow is one unparsed statement row from CSV parsing or PDF extraction.
type RawRow struct {
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

// ImportResult is the outcome of one ingestion batch.
type ImportResult struct {
	Imported   int      `json:"imported"`
	Duplicates int      `json:"duplicates"`
	Errors     []string `json:"errors"`
}

// ImportServicer defines the contract for the batch ingestion pipeline.
type ImportServicer interface {
	ImportBatch(accountID uint, rows []RawRow, convention normalize.SignConvention) (*ImportResult, error)
}

// SyncResult is the per-item outcome of one sync run.
type SyncResult struct {
	ItemID   string `json:"item_id"`
	Added    int    `json:"added"`
	Modified int    `json:"modified"`
	Removed  int    `json:"removed"`
	Error    string `json:"error,omitempty"`
}

// SyncServicer defines the contract for the incremental bank-sync engine.
type SyncServicer interface {
	// LinkItem registers a new bank item, sealing its access credential.
	LinkItem(itemID, accessToken, institutionName string) (*models.SyncItem, error)

	// SyncItem runs one full cursor loop for a single item. It always
	// attempts the item, even in error status: a successful call after
	// external re-auth is what restores active.
	SyncItem(ctx context.Context, syncItemID uint) (*SyncResult, error)

	// SyncAll syncs every active item. Items in error status are skipped
	// until re-auth; one failing item never blocks its siblings.
	SyncAll(ctx context.Context) ([]SyncResult, error)
}
