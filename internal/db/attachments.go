package db

import (
	"context"
	"fmt"

	"github.com/emailai/backend/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReplaceAttachments replaces the message's attachment rows with the given
// set. Attachments are never mutated individually; every re-sync of the
// owning message does a full delete-then-insert.
func ReplaceAttachments(ctx context.Context, pool *pgxpool.Pool, messageID string, attachments []models.Attachment) error {
	if _, err := pool.Exec(ctx, `
		DELETE FROM attachments WHERE message_id = $1
	`, messageID); err != nil {
		return fmt.Errorf("failed to delete attachments: %w", err)
	}

	for _, att := range attachments {
		if _, err := pool.Exec(ctx, `
			INSERT INTO attachments (message_id, filename, mime_type, size, gmail_attachment_id)
			VALUES ($1, $2, $3, $4, $5)
		`, messageID, att.Filename, att.MimeType, att.Size, att.GmailAttachmentID); err != nil {
			return fmt.Errorf("failed to insert attachment: %w", err)
		}
	}

	return nil
}

// GetAttachmentsForMessage returns all attachment rows for a message.
func GetAttachmentsForMessage(ctx context.Context, pool *pgxpool.Pool, messageID string) ([]models.Attachment, error) {
	rows, err := pool.Query(ctx, `
		SELECT id, message_id, filename, mime_type, size, gmail_attachment_id
		FROM attachments
		WHERE message_id = $1
	`, messageID)

	if err != nil {
		return nil, fmt.Errorf("failed to get attachments: %w", err)
	}
	defer rows.Close()

	var attachments []models.Attachment
	for rows.Next() {
		var att models.Attachment
		if err := rows.Scan(
			&att.ID,
			&att.MessageID,
			&att.Filename,
			&att.MimeType,
			&att.Size,
			&att.GmailAttachmentID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		attachments = append(attachments, att)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attachments: %w", err)
	}

	return attachments, nil
}
