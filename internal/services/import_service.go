package services

import (
	"fmt"

	"gorm.io/gorm"

	"moneta/internal/categorize"
	apperrors "moneta/internal/errors"
	"moneta/internal/ledger"
	"moneta/internal/logger"
	"moneta/internal/models"
	"moneta/internal/normalize"
)

// importService is the batch ingestion pipeline for manual, CSV, and
// PDF-extracted rows.
type importService struct {
	db             *gorm.DB
	accountService AccountServicer
}

// NewImportService creates a new ImportServicer.
func NewImportService(db *gorm.DB, accountService AccountServicer) ImportServicer {
	return &importService{
		db:             db,
		accountService: accountService,
	}
}

// ImportBatch normalizes, categorizes, fingerprints, and dedup-checks each
// row independently, then applies the whole batch as one atomic storage
// transaction. A failing row is recorded in Errors with its 1-based index
// and never blocks the other rows.
func (s *importService) ImportBatch(accountID uint, rows []RawRow, convention normalize.SignConvention) (*ImportResult, error) {
	if !convention.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown sign convention")
	}

	account, err := s.accountService.GetAccountByID(accountID)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: []string{}}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		categorizer, err := categorize.Load(tx)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		for i, row := range rows {
			if err := s.importRow(tx, account, i+1, row, convention, categorizer, result); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("import batch applied",
		"account_id", accountID,
		"imported", result.Imported,
		"duplicates", result.Duplicates,
		"errors", len(result.Errors),
	)
	return result, nil
}

// importRow processes a single row inside the batch transaction. Row-level
// problems are recorded on result; only storage failures abort the batch.
func (s *importService) importRow(tx *gorm.DB, account *models.Account, rowIndex int, row RawRow, convention normalize.SignConvention, categorizer *categorize.Categorizer, result *ImportResult) error {
	date, err := normalize.Date(row.Date)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("row %d: could not parse date", rowIndex))
		return nil
	}

	rawCents, err := normalize.Amount(row.Amount)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("row %d: invalid amount", rowIndex))
		return nil
	}
	amount := convention.Apply(rawCents)

	fingerprint := ledger.Fingerprint(date, amount, row.Description, account.ID)

	// Primary key check: exact duplicate within the same description
	// convention.
	dup, err := ledger.FingerprintExists(tx, account.ID, fingerprint)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !dup {
		// Secondary key check: same real-world event arriving with
		// different description text, from any source.
		dup, err = ledger.SecondaryKeyExists(tx, account.ID, date, amount)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	if dup {
		result.Duplicates++
		return nil
	}

	category := categorizer.Categorize(row.Description)
	var categoryID *uint
	if category != nil {
		categoryID = &category.ID
	}

	transaction := &models.Transaction{
		AccountID:   account.ID,
		CategoryID:  categoryID,
		Kind:        models.KindForAmount(amount),
		Source:      models.SourceImport,
		Amount:      amount,
		Description: row.Description,
		Date:        date,
		Fingerprint: fingerprint,
	}
	if err := tx.Create(transaction).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	result.Imported++

	// Ad hoc income rows get a companion payroll-detail record (gross =
	// net) so income-specific reporting reflects them without double
	// entry.
	if category != nil && category.Kind == models.CategoryKindIncome && amount > 0 {
		if err := s.ensureIncomeRecord(tx, transaction); err != nil {
			return err
		}
	}
	return nil
}

// ensureIncomeRecord creates the companion income record unless a payroll
// detail already exists for the same (date, amount).
func (s *importService) ensureIncomeRecord(tx *gorm.DB, transaction *models.Transaction) error {
	var count int64
	err := tx.Model(&models.IncomeRecord{}).
		Where("date = ? AND net = ?", transaction.Date, transaction.Amount).
		Count(&count).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil
	}

	record := &models.IncomeRecord{
		Date:   transaction.Date,
		Gross:  transaction.Amount,
		Net:    transaction.Amount,
		Source: transaction.Description,
	}
	if err := tx.Create(record).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
