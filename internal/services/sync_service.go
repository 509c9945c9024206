package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"moneta/internal/bankfeed"
	"moneta/internal/categorize"
	apperrors "moneta/internal/errors"
	"moneta/internal/ledger"
	"moneta/internal/logger"
	"moneta/internal/models"
	"moneta/internal/normalize"
	"moneta/internal/vault"
)

const (
	// maxSyncAttempts bounds rate-limit retries on a single page.
	maxSyncAttempts = 3
	// defaultRetryDelay is the first backoff delay; it doubles per attempt.
	defaultRetryDelay = time.Second
)

// syncService is the per-item incremental sync engine. It pulls delta pages
// from the bank-sync provider and applies them through the same fingerprint
// index as the ingestion pipeline, one atomic storage transaction per page.
type syncService struct {
	db         *gorm.DB
	client     bankfeed.Client
	vault      *vault.Vault
	retryDelay time.Duration
}

// NewSyncService creates a new SyncServicer over an injected provider client.
func NewSyncService(db *gorm.DB, client bankfeed.Client, credentialVault *vault.Vault) SyncServicer {
	return &syncService{
		db:         db,
		client:     client,
		vault:      credentialVault,
		retryDelay: defaultRetryDelay,
	}
}

// LinkItem registers a new bank item, sealing its access credential at rest.
func (s *syncService) LinkItem(itemID, accessToken, institutionName string) (*models.SyncItem, error) {
	if itemID == "" || accessToken == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "item id and access token are required")
	}

	var count int64
	if err := s.db.Model(&models.SyncItem{}).Where("item_id = ?", itemID).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateItem
	}

	sealed, err := s.vault.Seal(accessToken)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	item := &models.SyncItem{
		ItemID:          itemID,
		AccessToken:     sealed,
		InstitutionName: institutionName,
		Status:          models.SyncStatusActive,
	}
	if err := s.db.Create(item).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return item, nil
}

// SyncAll syncs every active item. A failing item records its own result
// and never blocks its siblings; items in error status wait for re-auth.
func (s *syncService) SyncAll(ctx context.Context) ([]SyncResult, error) {
	var items []models.SyncItem
	if err := s.db.Where("status = ?", models.SyncStatusActive).Order("id ASC").Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	results := make([]SyncResult, 0, len(items))
	for i := range items {
		result, err := s.SyncItem(ctx, items[i].ID)
		if err != nil {
			// Item-level infrastructure failures are isolated too.
			results = append(results, SyncResult{ItemID: items[i].ItemID, Error: err.Error()})
			continue
		}
		results = append(results, *result)
	}
	return results, nil
}

// SyncItem runs one full cursor loop for a single item: fetch a page
// (retrying rate limits with bounded backoff), apply it atomically, persist
// the advanced cursor, and repeat while the provider reports more.
func (s *syncService) SyncItem(ctx context.Context, syncItemID uint) (*SyncResult, error) {
	var item models.SyncItem
	if err := s.db.First(&item, syncItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSyncItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	accessToken, err := s.vault.Open(item.AccessToken)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := &SyncResult{ItemID: item.ItemID}
	cursor := item.Cursor

	for {
		page, err := s.fetchPageWithRetry(ctx, accessToken, cursor)
		if err != nil {
			// Pages already applied stay committed; the persisted cursor
			// ensures the next run resumes exactly where this one stopped.
			s.recordFailure(&item, result, err)
			return result, nil
		}

		if err := s.applyPage(&item, page, result); err != nil {
			s.recordFailure(&item, result, err)
			return result, nil
		}

		cursor = page.NextCursor
		if !page.HasMore {
			break
		}
	}

	s.recordSuccess(&item, result)
	s.refreshBalances(ctx, &item, accessToken)
	return result, nil
}

// fetchPageWithRetry calls the delta endpoint, retrying the same page on
// rate limits up to maxSyncAttempts with exponential backoff.
func (s *syncService) fetchPageWithRetry(ctx context.Context, accessToken, cursor string) (*bankfeed.SyncResponse, error) {
	delay := s.retryDelay
	var lastErr error

	for attempt := 1; attempt <= maxSyncAttempts; attempt++ {
		page, err := s.client.SyncTransactions(ctx, accessToken, cursor)
		if err == nil {
			return page, nil
		}
		lastErr = err
		if !bankfeed.IsRateLimited(err) {
			return nil, err
		}
		if attempt < maxSyncAttempts {
			logger.Get().Warnw("rate limited, retrying page",
				"attempt", attempt,
				"delay", delay.String(),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			delay *= 2
		}
	}
	return nil, lastErr
}

// applyPage applies one delta page and persists the advanced cursor as a
// single atomic storage transaction.
func (s *syncService) applyPage(item *models.SyncItem, page *bankfeed.SyncResponse, result *SyncResult) error {
	added, modified, removed := 0, 0, 0

	err := s.db.Transaction(func(tx *gorm.DB) error {
		categorizer, err := categorize.Load(tx)
		if err != nil {
			return err
		}

		for i := range page.Added {
			applied, err := s.applyAdded(tx, item, &page.Added[i], categorizer)
			if err != nil {
				return err
			}
			if applied {
				added++
			}
		}
		for i := range page.Modified {
			applied, err := s.applyModified(tx, item, &page.Modified[i])
			if err != nil {
				return err
			}
			if applied {
				modified++
			}
		}
		for i := range page.Removed {
			if err := s.applyRemoved(tx, &page.Removed[i]); err != nil {
				return err
			}
			removed++
		}

		return tx.Model(item).Update("cursor", page.NextCursor).Error
	})
	if err != nil {
		return err
	}

	result.Added += added
	result.Modified += modified
	result.Removed += removed
	return nil
}

// applyAdded inserts a delta, upgrades a matching legacy row in place, or
// skips a re-delivered one.
func (s *syncService) applyAdded(tx *gorm.DB, item *models.SyncItem, delta *bankfeed.TransactionDelta, categorizer *categorize.Categorizer) (bool, error) {
	account, err := s.resolveAccount(tx, item, delta.AccountID)
	if err != nil {
		return false, err
	}
	if account == nil {
		// Orphaned external account reference; not a sync failure.
		logger.Get().Debugw("skipping delta for unknown account",
			"item_id", item.ItemID,
			"external_account_id", delta.AccountID,
		)
		return false, nil
	}

	date, err := normalize.Date(delta.Date)
	if err != nil {
		logger.Get().Warnw("skipping delta with unparseable date",
			"item_id", item.ItemID,
			"transaction_id", delta.TransactionID,
			"date", delta.Date,
		)
		return false, nil
	}

	// The provider reports expenses as positive values.
	amount := normalize.SignPositiveExpense.Apply(normalize.Cents(delta.Amount))
	description := deltaDescription(delta)
	fingerprint := ledger.Fingerprint(date, amount, description, account.ID)

	// Re-delivery of an already-applied delta is a no-op.
	existing, err := ledger.FindByExternalID(tx, delta.TransactionID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	// A legacy manual/import row matching the fingerprint or secondary key
	// is upgraded in place rather than duplicated: it gains the external
	// id and the plaid source; its category and notes survive untouched.
	match, err := ledger.FindDuplicate(tx, account.ID, date, amount, fingerprint)
	if err != nil {
		return false, err
	}
	if match != nil {
		err := tx.Model(match).Updates(map[string]interface{}{
			"external_id": delta.TransactionID,
			"source":      models.SourcePlaid,
			"is_pending":  delta.Pending,
		}).Error
		return err == nil, err
	}

	transaction := &models.Transaction{
		AccountID:   account.ID,
		CategoryID:  categorizer.CategoryID(description),
		Kind:        models.KindForAmount(amount),
		Source:      models.SourcePlaid,
		Amount:      amount,
		Description: description,
		Date:        date,
		Fingerprint: fingerprint,
		ExternalID:  &delta.TransactionID,
		IsPending:   delta.Pending,
	}
	if err := tx.Create(transaction).Error; err != nil {
		return false, err
	}
	return true, nil
}

// applyModified updates the provider-owned fields of a linked row: date,
// amount, description, pending flag, and fingerprint. Category and notes
// are user-owned and explicitly preserved.
func (s *syncService) applyModified(tx *gorm.DB, item *models.SyncItem, delta *bankfeed.TransactionDelta) (bool, error) {
	existing, err := ledger.FindByExternalID(tx, delta.TransactionID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		logger.Get().Warnw("modified delta for unknown transaction",
			"item_id", item.ItemID,
			"transaction_id", delta.TransactionID,
		)
		return false, nil
	}

	date, err := normalize.Date(delta.Date)
	if err != nil {
		logger.Get().Warnw("skipping modified delta with unparseable date",
			"item_id", item.ItemID,
			"transaction_id", delta.TransactionID,
			"date", delta.Date,
		)
		return false, nil
	}

	amount := normalize.SignPositiveExpense.Apply(normalize.Cents(delta.Amount))
	description := deltaDescription(delta)

	err = tx.Model(existing).Updates(map[string]interface{}{
		"date":        date,
		"amount":      amount,
		"description": description,
		"kind":        models.KindForAmount(amount),
		"is_pending":  delta.Pending,
		"fingerprint": ledger.Fingerprint(date, amount, description, existing.AccountID),
	}).Error
	return err == nil, err
}

// applyRemoved hard-deletes the row carrying the delta's external id.
func (s *syncService) applyRemoved(tx *gorm.DB, delta *bankfeed.RemovedDelta) error {
	return tx.Where("external_id = ?", delta.TransactionID).Delete(&models.Transaction{}).Error
}

// resolveAccount maps a provider account id to a local account on this
// item. Returns (nil, nil) for unknown references.
func (s *syncService) resolveAccount(tx *gorm.DB, item *models.SyncItem, externalAccountID string) (*models.Account, error) {
	var account models.Account
	err := tx.Where("sync_item_id = ? AND external_account_id = ?", item.ID, externalAccountID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// recordSuccess persists the item's healthy state and appends the success log.
func (s *syncService) recordSuccess(item *models.SyncItem, result *SyncResult) {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":         models.SyncStatusActive,
		"error_code":     "",
		"error_message":  "",
		"last_synced_at": now,
	}
	if err := s.db.Model(item).Updates(updates).Error; err != nil {
		logger.Get().Errorw("failed to persist sync state", "item_id", item.ItemID, "error", err.Error())
	}

	log := &models.SyncLog{
		SyncItemID: item.ID,
		Status:     models.SyncLogSuccess,
		Added:      result.Added,
		Modified:   result.Modified,
		Removed:    result.Removed,
	}
	if err := s.db.Create(log).Error; err != nil {
		logger.Get().Errorw("failed to append sync log", "item_id", item.ItemID, "error", err.Error())
	}

	logger.Get().Infow("sync completed",
		"item_id", item.ItemID,
		"added", result.Added,
		"modified", result.Modified,
		"removed", result.Removed,
	)
}

// recordFailure classifies the failure, persists any status transition, and
// appends the error log. Authentication-class failures flip the item to
// error; everything else is transient and leaves status unchanged.
func (s *syncService) recordFailure(item *models.SyncItem, result *SyncResult, err error) {
	result.Error = err.Error()

	if bankfeed.IsAuthRequired(err) {
		updates := map[string]interface{}{
			"status":        models.SyncStatusError,
			"error_code":    bankfeed.ErrorCode(err),
			"error_message": err.Error(),
		}
		if dbErr := s.db.Model(item).Updates(updates).Error; dbErr != nil {
			logger.Get().Errorw("failed to persist error state", "item_id", item.ItemID, "error", dbErr.Error())
		}
		logger.Get().Warnw("item requires re-authentication", "item_id", item.ItemID, "code", bankfeed.ErrorCode(err))
	} else {
		logger.Get().Warnw("transient sync failure", "item_id", item.ItemID, "error", err.Error())
	}

	log := &models.SyncLog{
		SyncItemID: item.ID,
		Status:     models.SyncLogError,
		Message:    err.Error(),
	}
	if dbErr := s.db.Create(log).Error; dbErr != nil {
		logger.Get().Errorw("failed to append sync log", "item_id", item.ItemID, "error", dbErr.Error())
	}
}

// refreshBalances upserts one balance snapshot per linked account for
// today. Best effort: its failure never fails the overall sync.
func (s *syncService) refreshBalances(ctx context.Context, item *models.SyncItem, accessToken string) {
	balances, err := s.client.GetBalances(ctx, accessToken)
	if err != nil {
		logger.Get().Warnw("balance refresh failed", "item_id", item.ItemID, "error", err.Error())
		return
	}

	today := normalize.Day(time.Now().UTC())
	for _, balance := range balances {
		account, err := s.resolveAccount(s.db, item, balance.AccountID)
		if err != nil || account == nil {
			continue
		}

		snapshot := models.BalanceSnapshot{
			AccountID: account.ID,
			Date:      today,
			Current:   normalize.Cents(balance.Current),
			Available: normalize.Cents(balance.Available),
		}
		// Same-day re-syncs overwrite: balance is a point-in-time
		// snapshot, not ledger history.
		err = s.db.Where("account_id = ? AND date = ?", account.ID, today).
			Assign(map[string]interface{}{
				"current":   snapshot.Current,
				"available": snapshot.Available,
			}).
			FirstOrCreate(&models.BalanceSnapshot{}, models.BalanceSnapshot{AccountID: account.ID, Date: today}).Error
		if err != nil {
			logger.Get().Warnw("balance snapshot upsert failed", "account_id", account.ID, "error", err.Error())
		}
	}
}

// deltaDescription prefers the cleaned merchant name when the provider
// supplies one.
func deltaDescription(delta *bankfeed.TransactionDelta) string {
	if delta.MerchantName != "" {
		return delta.MerchantName
	}
	return delta.Name
}
