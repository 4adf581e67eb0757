package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/emailai/backend/internal/agent"
	"github.com/emailai/backend/internal/api"
	"github.com/emailai/backend/internal/auth"
	"github.com/emailai/backend/internal/cache"
	"github.com/emailai/backend/internal/config"
	"github.com/emailai/backend/internal/db"
	"github.com/emailai/backend/internal/models"
	ws "github.com/emailai/backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.NewConnection(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.CloseConnection(pool)

	log.Printf("Successfully connected to database")

	server := NewServer(cfg, pool)

	address := ":" + cfg.Port
	log.Printf("EmailAI backend server starting on %s (environment: %s)", address, cfg.Environment)

	if err := http.ListenAndServe(address, server); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// NewServer creates and returns a new HTTP handler for the EmailAI API server.
func NewServer(cfg *config.Config, dbPool *pgxpool.Pool) http.Handler {
	authenticator := auth.NewAuthenticator(cfg.AuthServiceURL)
	wsHub := ws.NewHub(10)
	agentClient := agent.NewClient(cfg.SummarizeWebhookURL, cfg.ResponseWebhookURL)

	// The per-user cache loads the authoritative list straight from the
	// database, unfiltered, so optimistic patches apply to every folder view.
	registry := cache.NewRegistry(func(userID string) cache.Loader {
		return func(ctx context.Context) ([]*models.Email, error) {
			return db.ListEmails(ctx, dbPool, userID, "all", 500, 0)
		}
	})

	emailsHandler := api.NewEmailsHandler(dbPool)
	syncHandler := api.NewSyncHandler(dbPool, registry, wsHub, cfg.SyncPageSize)
	actionsHandler := api.NewActionsHandler(dbPool, registry, wsHub)
	agentHandler := api.NewAgentHandler(agentClient)
	authHandler := api.NewAuthHandler()
	wsHandler := api.NewWebSocketHandler(dbPool, authenticator, wsHub)

	mux := http.NewServeMux()

	mux.HandleFunc("/", handleRoot)

	mux.Handle("GET /api/emails", authenticator.RequireAuth(http.HandlerFunc(emailsHandler.GetEmails)))
	mux.Handle("POST /api/gmail/sync", authenticator.RequireAuth(http.HandlerFunc(syncHandler.Sync)))
	mux.Handle("POST /api/emails/actions", authenticator.RequireAuth(http.HandlerFunc(actionsHandler.HandleAction)))
	mux.Handle("POST /api/summarize", authenticator.RequireAuth(http.HandlerFunc(agentHandler.Summarize)))
	mux.Handle("POST /api/response", authenticator.RequireAuth(http.HandlerFunc(agentHandler.GenerateResponse)))
	mux.Handle("GET /api/auth/status", authenticator.RequireAuth(http.HandlerFunc(authHandler.Status)))
	// WebSocket handler handles its own authentication via query parameter
	// (since browsers can't set headers on WebSocket connections).
	mux.Handle("/api/ws", http.HandlerFunc(wsHandler.Handle))

	return mux
}

func handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "EmailAI API is running")
}
