package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/emailai/backend/internal/auth"
	"github.com/emailai/backend/internal/db"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WriteJSONResponse encodes v as JSON and writes it with the given status.
// The body is buffered first so that an encoding failure never produces a
// partial write. Returns false if encoding failed (a 500 has been sent).
func WriteJSONResponse(w http.ResponseWriter, status int, v any) bool {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		log.Printf("API: Failed to encode response: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return false
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
	return true
}

// WriteErrorResponse writes the standard failure envelope used across the API.
func WriteErrorResponse(w http.ResponseWriter, status int, message string) {
	WriteJSONResponse(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}

// GetUserIDFromContext extracts the user's email from context, resolves/creates
// the DB user, and writes appropriate HTTP errors when it fails. Returns
// (userID, true) on success. Shared across handlers so authentication and user
// resolution fail the same way everywhere.
func GetUserIDFromContext(ctx context.Context, w http.ResponseWriter, pool *pgxpool.Pool) (string, bool) {
	email, ok := auth.GetUserEmailFromContext(ctx)
	if !ok {
		log.Println("API: No user email in context")
		WriteErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return "", false
	}

	userID, err := db.GetOrCreateUser(ctx, pool, email)
	if err != nil {
		log.Printf("API: Failed to get/create user: %v", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return "", false
	}

	return userID, true
}

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// ParseListParams parses folder, limit and offset from query parameters.
// Missing or invalid values fall back to folder "all", limit 50, offset 0;
// limit is capped at 100.
func ParseListParams(r *http.Request) (folder string, limit, offset int) {
	folder = r.URL.Query().Get("folder")
	if folder == "" {
		folder = "all"
	}

	limit = defaultListLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	return folder, limit, offset
}
