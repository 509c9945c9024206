package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func setupSyncAuthRouter(apiKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SyncAuthMiddleware(apiKey))
	router.POST("/internal/sync/run", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestSyncAuthMiddleware(t *testing.T) {
	t.Run("valid_key_passes", func(t *testing.T) {
		router := setupSyncAuthRouter("sync-key-1")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/internal/sync/run", nil)
		req.Header.Set("X-API-Key", "sync-key-1")
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
	})

	t.Run("invalid_key_rejected", func(t *testing.T) {
		router := setupSyncAuthRouter("sync-key-1")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/internal/sync/run", nil)
		req.Header.Set("X-API-Key", "wrong")
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("missing_key_rejected", func(t *testing.T) {
		router := setupSyncAuthRouter("sync-key-1")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/internal/sync/run", nil)
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("unconfigured_returns_503", func(t *testing.T) {
		router := setupSyncAuthRouter("")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/internal/sync/run", nil)
		req.Header.Set("X-API-Key", "anything")
		router.ServeHTTP(w, req)
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", w.Code)
		}
	})
}
