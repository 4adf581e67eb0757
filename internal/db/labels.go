package db

import (
	"context"
	"fmt"

	"github.com/emailai/backend/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UpsertLabel inserts a label keyed on (user_id, name). Inserting a label
// that already exists is a no-op (duplicate-ignore); the existing row's id
// is returned either way.
func UpsertLabel(ctx context.Context, pool *pgxpool.Pool, label *models.Label) error {
	var labelID string

	err := pool.QueryRow(ctx, `
		INSERT INTO labels (user_id, name, type)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, label.UserID, label.Name, label.Type).Scan(&labelID)

	if err != nil {
		return fmt.Errorf("failed to upsert label: %w", err)
	}

	label.ID = labelID
	return nil
}

// GetLabelsByName returns the user's labels matching the given names.
func GetLabelsByName(ctx context.Context, pool *pgxpool.Pool, userID string, names []string) ([]*models.Label, error) {
	rows, err := pool.Query(ctx, `
		SELECT id, user_id, name, type
		FROM labels
		WHERE user_id = $1 AND name = ANY($2)
	`, userID, names)

	if err != nil {
		return nil, fmt.Errorf("failed to get labels: %w", err)
	}
	defer rows.Close()

	var labels []*models.Label
	for rows.Next() {
		var label models.Label
		if err := rows.Scan(&label.ID, &label.UserID, &label.Name, &label.Type); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, &label)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating labels: %w", err)
	}

	return labels, nil
}

// ReplaceMessageLabels replaces the message's label associations with the
// given set: all existing rows for the message are deleted, then the new
// associations are inserted.
func ReplaceMessageLabels(ctx context.Context, pool *pgxpool.Pool, messageID string, labelIDs []string) error {
	if _, err := pool.Exec(ctx, `
		DELETE FROM message_labels WHERE message_id = $1
	`, messageID); err != nil {
		return fmt.Errorf("failed to delete message labels: %w", err)
	}

	for _, labelID := range labelIDs {
		if _, err := pool.Exec(ctx, `
			INSERT INTO message_labels (message_id, label_id)
			VALUES ($1, $2)
		`, messageID, labelID); err != nil {
			return fmt.Errorf("failed to insert message label: %w", err)
		}
	}

	return nil
}

// GetLabelNamesForMessage returns the names of all labels attached to a message.
func GetLabelNamesForMessage(ctx context.Context, pool *pgxpool.Pool, messageID string) ([]string, error) {
	rows, err := pool.Query(ctx, `
		SELECT l.name
		FROM message_labels ml
		JOIN labels l ON l.id = ml.label_id
		WHERE ml.message_id = $1
		ORDER BY l.name
	`, messageID)

	if err != nil {
		return nil, fmt.Errorf("failed to get message labels: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan label name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating label names: %w", err)
	}

	return names, nil
}
