package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "moneta/internal/errors"
	"moneta/internal/middleware"
	"moneta/internal/models"
	"moneta/internal/services"
)

// --- mock sync service ---

type mockSyncService struct {
	linkItemFn func(itemID, accessToken, institutionName string) (*models.SyncItem, error)
	syncItemFn func(ctx context.Context, syncItemID uint) (*services.SyncResult, error)
	syncAllFn  func(ctx context.Context) ([]services.SyncResult, error)
}

func (m *mockSyncService) LinkItem(itemID, accessToken, institutionName string) (*models.SyncItem, error) {
	if m.linkItemFn != nil {
		return m.linkItemFn(itemID, accessToken, institutionName)
	}
	return &models.SyncItem{}, nil
}

func (m *mockSyncService) SyncItem(ctx context.Context, syncItemID uint) (*services.SyncResult, error) {
	if m.syncItemFn != nil {
		return m.syncItemFn(ctx, syncItemID)
	}
	return &services.SyncResult{}, nil
}

func (m *mockSyncService) SyncAll(ctx context.Context) ([]services.SyncResult, error) {
	if m.syncAllFn != nil {
		return m.syncAllFn(ctx)
	}
	return []services.SyncResult{}, nil
}

var _ services.SyncServicer = (*mockSyncService)(nil)

func setupSyncRouter(handler *SyncHandler, apiKey string) *gin.Engine {
	r := gin.New()
	r.POST("/sync/items", handler.LinkItem)
	r.POST("/sync/items/:id/run", handler.RunItem)
	r.POST("/internal/sync/run", middleware.SyncAuthMiddleware(apiKey), handler.RunAll)
	return r
}

func TestSyncHandler_LinkItem(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockSyncService{
			linkItemFn: func(itemID, accessToken, institutionName string) (*models.SyncItem, error) {
				return &models.SyncItem{
					Base:            models.Base{ID: 1},
					ItemID:          itemID,
					InstitutionName: institutionName,
					Status:          models.SyncStatusActive,
				}, nil
			},
		}
		r := setupSyncRouter(NewSyncHandler(svc), "key")

		rec := doRequest(r, "POST", "/sync/items",
			`{"item_id":"item-1","access_token":"access-secret","institution_name":"Test Bank"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		item := result["sync_item"].(map[string]interface{})
		if item["item_id"] != "item-1" {
			t.Errorf("expected item-1, got %v", item["item_id"])
		}
		if _, leaked := item["access_token"]; leaked {
			t.Errorf("access token must never appear in responses")
		}
	})

	t.Run("returns 400 on missing access token", func(t *testing.T) {
		r := setupSyncRouter(NewSyncHandler(&mockSyncService{}), "key")

		rec := doRequest(r, "POST", "/sync/items", `{"item_id":"item-1"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 on duplicate item", func(t *testing.T) {
		svc := &mockSyncService{
			linkItemFn: func(string, string, string) (*models.SyncItem, error) {
				return nil, apperrors.ErrDuplicateItem
			},
		}
		r := setupSyncRouter(NewSyncHandler(svc), "key")

		rec := doRequest(r, "POST", "/sync/items",
			`{"item_id":"item-1","access_token":"access-secret"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), apperrors.ErrDuplicateItem.Code)
	})
}

func TestSyncHandler_RunItem(t *testing.T) {
	t.Run("returns per-item result", func(t *testing.T) {
		svc := &mockSyncService{
			syncItemFn: func(_ context.Context, syncItemID uint) (*services.SyncResult, error) {
				if syncItemID != 5 {
					t.Errorf("expected item 5, got %d", syncItemID)
				}
				return &services.SyncResult{ItemID: "item-5", Added: 3}, nil
			},
		}
		r := setupSyncRouter(NewSyncHandler(svc), "key")

		rec := doRequest(r, "POST", "/sync/items/5/run", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["added"].(float64) != 3 {
			t.Errorf("expected 3 added, got %v", result["added"])
		}
	})

	t.Run("returns 404 on unknown item", func(t *testing.T) {
		svc := &mockSyncService{
			syncItemFn: func(context.Context, uint) (*services.SyncResult, error) {
				return nil, apperrors.ErrSyncItemNotFound
			},
		}
		r := setupSyncRouter(NewSyncHandler(svc), "key")

		rec := doRequest(r, "POST", "/sync/items/99/run", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestSyncHandler_RunAll(t *testing.T) {
	t.Run("requires the api key", func(t *testing.T) {
		r := setupSyncRouter(NewSyncHandler(&mockSyncService{}), "secret-key")

		rec := doRequest(r, "POST", "/internal/sync/run", "")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 without key, got %d", rec.Code)
		}
	})

	t.Run("returns results with the api key", func(t *testing.T) {
		svc := &mockSyncService{
			syncAllFn: func(context.Context) ([]services.SyncResult, error) {
				return []services.SyncResult{
					{ItemID: "item-1", Added: 2},
					{ItemID: "item-2", Error: "provider down"},
				}, nil
			},
		}
		r := setupSyncRouter(NewSyncHandler(svc), "secret-key")

		rec := doRequestWithKey(r, "POST", "/internal/sync/run", "", "secret-key")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		results := result["results"].([]interface{})
		if len(results) != 2 {
			t.Errorf("expected 2 results, got %d", len(results))
		}
	})
}
