package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/emailai/backend/internal/cache"
	"github.com/emailai/backend/internal/db"
	"github.com/emailai/backend/internal/models"
	"github.com/emailai/backend/internal/testutil"
	ws "github.com/emailai/backend/internal/websocket"
	"github.com/stretchr/testify/assert"
)

func TestSyncHandler(t *testing.T) {
	pool := testutil.NewTestDB(t)
	defer pool.Close()

	registry := cache.NewRegistry(func(userID string) cache.Loader {
		return func(ctx context.Context) ([]*models.Email, error) {
			return db.ListEmails(ctx, pool, userID, "all", 500, 0)
		}
	})
	handler := NewSyncHandler(pool, registry, ws.NewHub(10), 50)

	t.Run("missing provider token is 403", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.Sync(rec, authedRequest(http.MethodPost, "/api/gmail/sync", "", "sync@example.com", ""))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Contains(t, body["error"], "Gmail access token")
	})

	t.Run("unauthenticated request is 401", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.Sync(rec, httptest.NewRequest(http.MethodPost, "/api/gmail/sync", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
