package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/emailai/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrThreadNotFound is returned when a requested thread cannot be found.
var ErrThreadNotFound = errors.New("thread not found")

// UpsertThread inserts or updates a thread keyed on (user_id, gmail_thread_id).
// A re-sync overwrites subject, snippet and history_id; it never duplicates.
func UpsertThread(ctx context.Context, pool *pgxpool.Pool, thread *models.Thread) error {
	var threadID string

	err := pool.QueryRow(ctx, `
		INSERT INTO threads (user_id, subject, snippet, history_id, gmail_thread_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, gmail_thread_id) DO UPDATE SET
			subject = EXCLUDED.subject,
			snippet = EXCLUDED.snippet,
			history_id = EXCLUDED.history_id
		RETURNING id
	`, thread.UserID, thread.Subject, thread.Snippet, thread.HistoryID, thread.GmailThreadID).Scan(&threadID)

	if err != nil {
		return fmt.Errorf("failed to upsert thread: %w", err)
	}

	thread.ID = threadID
	return nil
}

// GetThreadByGmailID returns a thread by its Gmail thread id.
func GetThreadByGmailID(ctx context.Context, pool *pgxpool.Pool, userID, gmailThreadID string) (*models.Thread, error) {
	var thread models.Thread

	err := pool.QueryRow(ctx, `
		SELECT id, user_id, subject, snippet, history_id, gmail_thread_id
		FROM threads
		WHERE user_id = $1 AND gmail_thread_id = $2
	`, userID, gmailThreadID).Scan(
		&thread.ID,
		&thread.UserID,
		&thread.Subject,
		&thread.Snippet,
		&thread.HistoryID,
		&thread.GmailThreadID,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrThreadNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}

	return &thread, nil
}
