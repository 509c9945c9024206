package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moneta/internal/errors"
	"moneta/internal/normalize"
	"moneta/internal/services"
)

// maxImportRows bounds a single ingestion batch.
const maxImportRows = 5000

// ImportHandler runs the batch ingestion pipeline.
type ImportHandler struct {
	importService services.ImportServicer
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(importService services.ImportServicer) *ImportHandler {
	return &ImportHandler{importService: importService}
}

// ImportRowRequest is one raw statement row.
type ImportRowRequest struct {
	Date        string `json:"date" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description" binding:"max=500"`
}

// ImportBatchRequest represents the request payload for an ingestion batch.
type ImportBatchRequest struct {
	SignConvention normalize.SignConvention `json:"sign_convention" binding:"required,sign_convention"`
	Rows           []ImportRowRequest       `json:"rows" binding:"required,min=1"`
}

// ImportBatch ingests a batch of raw rows into the account's ledger.
func (h *ImportHandler) ImportBatch(c *gin.Context) {
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ImportBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if len(req.Rows) > maxImportRows {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "too many rows in one batch"))
		return
	}

	rows := make([]services.RawRow, len(req.Rows))
	for i, r := range req.Rows {
		rows[i] = services.RawRow{
			Date:        r.Date,
			Amount:      r.Amount,
			Description: r.Description,
		}
	}

	result, err := h.importService.ImportBatch(accountID, rows, req.SignConvention)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
