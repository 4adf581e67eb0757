package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/emailai/backend/internal/actions"
	"github.com/emailai/backend/internal/auth"
	"github.com/emailai/backend/internal/cache"
	"github.com/emailai/backend/internal/gmail"
	ws "github.com/emailai/backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ActionsHandler handles the batch email action endpoint.
type ActionsHandler struct {
	pool     *pgxpool.Pool
	registry *cache.Registry
	hub      *ws.Hub
}

// NewActionsHandler creates a new ActionsHandler instance.
func NewActionsHandler(pool *pgxpool.Pool, registry *cache.Registry, hub *ws.Hub) *ActionsHandler {
	return &ActionsHandler{
		pool:     pool,
		registry: registry,
		hub:      hub,
	}
}

type actionRequest struct {
	ActionType string           `json:"actionType"`
	EmailIDs   []string         `json:"emailIds"`
	EmailData  actions.SendData `json:"emailData"`
}

type batchResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Results []actions.ItemResult `json:"results"`
}

type sendResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	EmailID string `json:"emailId"`
	GmailID string `json:"gmailId"`
}

// HandleAction dispatches one action request. Batch actions patch the user's
// cached list optimistically before dispatching; if any item fails, the cache
// is forced back to authoritative state with a refetch rather than un-patched
// field by field.
func (h *ActionsHandler) HandleAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserIDFromContext(ctx, w, h.pool)
	if !ok {
		return
	}

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, ok := auth.GetProviderTokenFromContext(ctx)
	if !ok {
		WriteErrorResponse(w, http.StatusForbidden, "Gmail access token not found. Please sign in with Google again.")
		return
	}

	client, err := gmail.NewClient(ctx, token)
	if err != nil {
		log.Printf("ActionsHandler: Failed to create Gmail client: %v", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	dispatcher := actions.NewDispatcher(h.pool, client)
	store := h.registry.ForUser(userID)

	switch req.ActionType {
	case "delete":
		store.MarkTrashed(req.EmailIDs)
		h.finishBatch(w, r, userID, store, dispatcher.Delete(ctx, userID, req.EmailIDs))
	case "archive":
		store.MarkArchived(req.EmailIDs)
		h.finishBatch(w, r, userID, store, dispatcher.Archive(ctx, userID, req.EmailIDs))
	case "star":
		store.ToggleStarred(req.EmailIDs)
		h.finishBatch(w, r, userID, store, dispatcher.Star(ctx, userID, req.EmailIDs))
	case "toggleImportant":
		store.ToggleImportant(req.EmailIDs)
		h.finishBatch(w, r, userID, store, dispatcher.ToggleImportant(ctx, userID, req.EmailIDs))
	case "mark_read":
		store.MarkRead(req.EmailIDs)
		h.finishBatch(w, r, userID, store, dispatcher.MarkRead(ctx, userID, req.EmailIDs))
	case "restore":
		store.MarkRestored(req.EmailIDs)
		h.finishBatch(w, r, userID, store, dispatcher.Restore(ctx, userID, req.EmailIDs))
	case "send":
		h.finishSend(w, r, userID, store)(dispatcher.Send(ctx, userID, req.EmailData))
	case "reply":
		h.finishSend(w, r, userID, store)(dispatcher.Reply(ctx, userID, req.EmailData))
	case "forward":
		h.finishSend(w, r, userID, store)(dispatcher.Forward(ctx, userID, req.EmailData))
	default:
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid action")
	}
}

// finishBatch settles the cache after a batch action and writes the response.
// A batch with per-item failures still responds success; the failed items
// carry their own error strings.
func (h *ActionsHandler) finishBatch(w http.ResponseWriter, r *http.Request, userID string, store *cache.Store, result *actions.BatchResult) {
	ctx := r.Context()

	anyFailed := false
	for _, item := range result.Results {
		if !item.Success {
			anyFailed = true
			break
		}
	}
	if anyFailed {
		if err := store.Refresh(ctx); err != nil {
			log.Printf("ActionsHandler: Cache refresh failed for user %s: %v", userID, err)
		}
	}

	h.hub.NotifyEmailsUpdated(userID, "action")

	WriteJSONResponse(w, http.StatusOK, batchResponse{
		Success: true,
		Message: result.Message,
		Results: result.Results,
	})
}

func (h *ActionsHandler) finishSend(w http.ResponseWriter, r *http.Request, userID string, store *cache.Store) func(*actions.SendResult, error) {
	return func(result *actions.SendResult, err error) {
		ctx := r.Context()

		if err != nil {
			log.Printf("ActionsHandler: Send action failed for user %s: %v", userID, err)
			if errors.Is(err, actions.ErrOriginalNotFound) {
				WriteErrorResponse(w, http.StatusNotFound, "Original email not found")
				return
			}
			WriteErrorResponse(w, http.StatusInternalServerError, "Failed to send email")
			return
		}

		// A sent message adds a row, so refetch rather than patch.
		if err := store.Refresh(ctx); err != nil {
			log.Printf("ActionsHandler: Cache refresh failed for user %s: %v", userID, err)
		}
		h.hub.NotifyEmailsUpdated(userID, "send")

		WriteJSONResponse(w, http.StatusOK, sendResponse{
			Success: true,
			Message: result.Message,
			EmailID: result.EmailID,
			GmailID: result.GmailID,
		})
	}
}
