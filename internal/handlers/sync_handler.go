package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moneta/internal/errors"
	"moneta/internal/services"
)

// SyncHandler exposes the bank-sync engine: item linking for the app surface
// and the scheduler-facing run trigger.
type SyncHandler struct {
	syncService services.SyncServicer
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(syncService services.SyncServicer) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// LinkItemRequest represents the request payload for linking a bank item.
type LinkItemRequest struct {
	ItemID          string `json:"item_id" binding:"required,max=255"`
	AccessToken     string `json:"access_token" binding:"required"`
	InstitutionName string `json:"institution_name" binding:"max=255"`
}

// LinkItem registers a newly authorized bank item. The access token is
// sealed before it touches storage and never appears in responses.
func (h *SyncHandler) LinkItem(c *gin.Context) {
	var req LinkItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	item, err := h.syncService.LinkItem(req.ItemID, req.AccessToken, req.InstitutionName)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"sync_item": item})
}

// RunItem syncs one item immediately, regardless of its status. This is the
// recovery path after re-authentication.
func (h *SyncHandler) RunItem(c *gin.Context) {
	syncItemID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.syncService.SyncItem(c.Request.Context(), syncItemID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RunAll syncs every active item. Sits behind the API-key middleware; an
// external scheduler calls it on an interval.
func (h *SyncHandler) RunAll(c *gin.Context) {
	results, err := h.syncService.SyncAll(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}
