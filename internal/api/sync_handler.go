package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/emailai/backend/internal/auth"
	"github.com/emailai/backend/internal/cache"
	"github.com/emailai/backend/internal/gmail"
	"github.com/emailai/backend/internal/sync"
	ws "github.com/emailai/backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SyncHandler handles on-demand Gmail sync requests.
type SyncHandler struct {
	pool     *pgxpool.Pool
	registry *cache.Registry
	hub      *ws.Hub
	pageSize int64
}

// NewSyncHandler creates a new SyncHandler instance.
func NewSyncHandler(pool *pgxpool.Pool, registry *cache.Registry, hub *ws.Hub, pageSize int64) *SyncHandler {
	return &SyncHandler{
		pool:     pool,
		registry: registry,
		hub:      hub,
		pageSize: pageSize,
	}
}

type syncResponse struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message"`
	SyncedCount int      `json:"syncedCount"`
	TotalFound  int      `json:"totalFound"`
	Errors      []string `json:"errors,omitempty"`
}

// Sync pulls the newest inbox and sent messages from Gmail into the database.
// Per-message failures are reported in the errors array but do not fail the
// request; only a missing provider token or a Gmail connection failure does.
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserIDFromContext(ctx, w, h.pool)
	if !ok {
		return
	}

	token, ok := auth.GetProviderTokenFromContext(ctx)
	if !ok {
		WriteErrorResponse(w, http.StatusForbidden, "Gmail access token not found. Please sign in with Google again.")
		return
	}

	client, err := gmail.NewClient(ctx, token)
	if err != nil {
		log.Printf("SyncHandler: Failed to create Gmail client: %v", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	engine := sync.NewEngine(h.pool, client, h.pageSize)
	result, err := engine.Run(ctx, userID)
	if err != nil {
		log.Printf("SyncHandler: Sync failed for user %s: %v", userID, err)
		if errors.Is(err, sync.ErrConnection) {
			WriteErrorResponse(w, http.StatusForbidden, "Failed to connect to Gmail. Please check your permissions.")
			return
		}
		WriteErrorResponse(w, http.StatusInternalServerError, "Failed to sync emails")
		return
	}

	if result.TotalFound == 0 {
		WriteJSONResponse(w, http.StatusOK, syncResponse{
			Success: true,
			Message: "No new messages to sync",
		})
		return
	}

	// The database changed, so force the cached list back to authoritative
	// state and tell connected clients to refetch.
	if err := h.registry.ForUser(userID).Refresh(ctx); err != nil {
		log.Printf("SyncHandler: Cache refresh failed for user %s: %v", userID, err)
	}
	h.hub.NotifyEmailsUpdated(userID, "sync")

	WriteJSONResponse(w, http.StatusOK, syncResponse{
		Success:     true,
		Message:     fmt.Sprintf("Synced %d of %d messages", result.SyncedCount, result.TotalFound),
		SyncedCount: result.SyncedCount,
		TotalFound:  result.TotalFound,
		Errors:      result.Errors,
	})
}
