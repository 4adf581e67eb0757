package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emailai/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrEmailNotFound is returned when a requested message cannot be found.
var ErrEmailNotFound = errors.New("email not found")

const emailColumns = `
	id,
	thread_id,
	user_id,
	gmail_id,
	from_email,
	from_name,
	to_emails,
	cc_emails,
	bcc_emails,
	subject,
	body,
	body_html,
	is_read,
	is_starred,
	is_important,
	is_sent,
	is_archived,
	is_in_trash,
	is_deleted,
	sent_at,
	received_at,
	deleted_at,
	reply_to_message_id,
	forwarded_from_message_id`

func scanEmail(row pgx.Row) (*models.Email, error) {
	var e models.Email
	err := row.Scan(
		&e.ID,
		&e.ThreadID,
		&e.UserID,
		&e.GmailID,
		&e.FromEmail,
		&e.FromName,
		&e.ToEmails,
		&e.CcEmails,
		&e.BccEmails,
		&e.Subject,
		&e.Body,
		&e.BodyHTML,
		&e.IsRead,
		&e.IsStarred,
		&e.IsImportant,
		&e.IsSent,
		&e.IsArchived,
		&e.IsInTrash,
		&e.IsDeleted,
		&e.SentAt,
		&e.ReceivedAt,
		&e.DeletedAt,
		&e.ReplyToMessageID,
		&e.ForwardedFromMessageID,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpsertEmail inserts or updates a message keyed on (user_id, gmail_id).
// A re-sync overwrites all synced fields in place; the trash/delete flags are
// owned by the action dispatcher and are not touched on conflict.
func UpsertEmail(ctx context.Context, pool *pgxpool.Pool, email *models.Email) error {
	var id string

	err := pool.QueryRow(ctx, `
		INSERT INTO messages (
			thread_id,
			user_id,
			gmail_id,
			from_email,
			from_name,
			to_emails,
			cc_emails,
			bcc_emails,
			subject,
			body,
			body_html,
			is_read,
			is_starred,
			is_important,
			is_sent,
			sent_at,
			received_at,
			reply_to_message_id,
			forwarded_from_message_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (user_id, gmail_id) DO UPDATE SET
			thread_id = EXCLUDED.thread_id,
			from_email = EXCLUDED.from_email,
			from_name = EXCLUDED.from_name,
			to_emails = EXCLUDED.to_emails,
			cc_emails = EXCLUDED.cc_emails,
			bcc_emails = EXCLUDED.bcc_emails,
			subject = EXCLUDED.subject,
			body = EXCLUDED.body,
			body_html = EXCLUDED.body_html,
			is_read = EXCLUDED.is_read,
			is_starred = EXCLUDED.is_starred,
			is_important = EXCLUDED.is_important,
			is_sent = EXCLUDED.is_sent,
			sent_at = EXCLUDED.sent_at
		RETURNING id
	`,
		email.ThreadID,
		email.UserID,
		email.GmailID,
		email.FromEmail,
		email.FromName,
		email.ToEmails,
		email.CcEmails,
		email.BccEmails,
		email.Subject,
		email.Body,
		email.BodyHTML,
		email.IsRead,
		email.IsStarred,
		email.IsImportant,
		email.IsSent,
		email.SentAt,
		email.ReceivedAt,
		email.ReplyToMessageID,
		email.ForwardedFromMessageID,
	).Scan(&id)

	if err != nil {
		return fmt.Errorf("failed to upsert email: %w", err)
	}

	email.ID = id
	return nil
}

// GetEmailByID returns one of the user's messages by its database id.
func GetEmailByID(ctx context.Context, pool *pgxpool.Pool, userID, emailID string) (*models.Email, error) {
	email, err := scanEmail(pool.QueryRow(ctx, `
		SELECT `+emailColumns+`
		FROM messages
		WHERE user_id = $1 AND id = $2
	`, userID, emailID))

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEmailNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get email: %w", err)
	}

	return email, nil
}

// folderCondition returns the WHERE fragment for a folder view. Trash takes
// precedence over archive, archive over sent/inbox, so the four folder views
// partition the message set (starred/important/unread are cross-cutting views,
// not folders). Hard-deleted messages only remain visible in trash.
func folderCondition(folder string) string {
	switch folder {
	case "inbox":
		return "NOT is_sent AND NOT is_archived AND NOT is_in_trash AND NOT is_deleted"
	case "sent":
		return "is_sent AND NOT is_archived AND NOT is_in_trash AND NOT is_deleted"
	case "archive":
		return "is_archived AND NOT is_in_trash AND NOT is_deleted"
	case "trash":
		return "is_in_trash"
	case "starred":
		return "is_starred AND NOT is_in_trash AND NOT is_deleted"
	case "important":
		return "is_important AND NOT is_in_trash AND NOT is_deleted"
	case "unread":
		return "NOT is_read AND NOT is_in_trash AND NOT is_deleted"
	default: // "all"
		return "NOT is_deleted"
	}
}

// ListEmails returns a page of the user's messages for a folder view,
// newest first.
func ListEmails(ctx context.Context, pool *pgxpool.Pool, userID, folder string, limit, offset int) ([]*models.Email, error) {
	rows, err := pool.Query(ctx, `
		SELECT `+emailColumns+`
		FROM messages
		WHERE user_id = $1 AND `+folderCondition(folder)+`
		ORDER BY received_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)

	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	defer rows.Close()

	var emails []*models.Email
	for rows.Next() {
		email, err := scanEmail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		emails = append(emails, email)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating emails: %w", err)
	}

	return emails, nil
}

// CountEmails returns the number of the user's messages in a folder view.
func CountEmails(ctx context.Context, pool *pgxpool.Pool, userID, folder string) (int, error) {
	var count int

	err := pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM messages
		WHERE user_id = $1 AND `+folderCondition(folder)+`
	`, userID).Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("failed to count emails: %w", err)
	}

	return count, nil
}

func updateEmail(ctx context.Context, pool *pgxpool.Pool, userID, emailID, set string, args ...any) error {
	tag, err := pool.Exec(ctx, `
		UPDATE messages SET `+set+`
		WHERE user_id = $1 AND id = $2
	`, append([]any{userID, emailID}, args...)...)

	if err != nil {
		return fmt.Errorf("failed to update email: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrEmailNotFound
	}

	return nil
}

// MoveEmailToTrash soft-deletes a message: it enters the trash with a fresh
// deleted_at timestamp and is not yet permanently deleted.
func MoveEmailToTrash(ctx context.Context, pool *pgxpool.Pool, userID, emailID string, now time.Time) error {
	return updateEmail(ctx, pool, userID, emailID,
		"is_in_trash = true, is_deleted = false, deleted_at = $3", now)
}

// MarkEmailDeleted hard-deletes a message already in the trash. The original
// deleted_at from the soft delete is preserved.
func MarkEmailDeleted(ctx context.Context, pool *pgxpool.Pool, userID, emailID string, now time.Time) error {
	return updateEmail(ctx, pool, userID, emailID,
		"is_deleted = true, is_in_trash = true, deleted_at = COALESCE(deleted_at, $3)", now)
}

// RestoreEmail moves a message out of the trash and clears its deletion state.
func RestoreEmail(ctx context.Context, pool *pgxpool.Pool, userID, emailID string) error {
	return updateEmail(ctx, pool, userID, emailID,
		"is_in_trash = false, is_deleted = false, deleted_at = NULL")
}

// SetEmailArchived sets the archive flag.
func SetEmailArchived(ctx context.Context, pool *pgxpool.Pool, userID, emailID string, archived bool) error {
	return updateEmail(ctx, pool, userID, emailID, "is_archived = $3", archived)
}

// SetEmailRead sets the read flag.
func SetEmailRead(ctx context.Context, pool *pgxpool.Pool, userID, emailID string, read bool) error {
	return updateEmail(ctx, pool, userID, emailID, "is_read = $3", read)
}

// SetEmailStarred sets the star flag.
func SetEmailStarred(ctx context.Context, pool *pgxpool.Pool, userID, emailID string, starred bool) error {
	return updateEmail(ctx, pool, userID, emailID, "is_starred = $3", starred)
}

// SetEmailImportant sets the important flag.
func SetEmailImportant(ctx context.Context, pool *pgxpool.Pool, userID, emailID string, important bool) error {
	return updateEmail(ctx, pool, userID, emailID, "is_important = $3", important)
}
