package db

import (
	"context"
	"testing"
	"time"

	"github.com/emailai/backend/internal/models"
	"github.com/emailai/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelsAndAttachments(t *testing.T) {
	pool := testutil.NewTestDB(t)
	defer pool.Close()

	ctx := context.Background()

	userID, err := GetOrCreateUser(ctx, pool, "labels@example.com")
	require.NoError(t, err)

	thread := &models.Thread{UserID: userID, GmailThreadID: "gthread-l", Subject: "s"}
	require.NoError(t, UpsertThread(ctx, pool, thread))

	email := &models.Email{
		ThreadID:   &thread.ID,
		UserID:     userID,
		GmailID:    "l-1",
		FromEmail:  "x@example.com",
		ReceivedAt: time.Now().UTC(),
	}
	require.NoError(t, UpsertEmail(ctx, pool, email))

	t.Run("label upsert is idempotent per (user, name)", func(t *testing.T) {
		first := &models.Label{UserID: userID, Name: "Work", Type: models.LabelTypeCustom}
		require.NoError(t, UpsertLabel(ctx, pool, first))
		require.NotEmpty(t, first.ID)

		second := &models.Label{UserID: userID, Name: "Work", Type: models.LabelTypeCustom}
		require.NoError(t, UpsertLabel(ctx, pool, second))
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("message labels are replaced wholesale", func(t *testing.T) {
		inbox := &models.Label{UserID: userID, Name: "INBOX", Type: models.LabelTypeSystem}
		require.NoError(t, UpsertLabel(ctx, pool, inbox))

		work, err := GetLabelsByName(ctx, pool, userID, []string{"Work"})
		require.NoError(t, err)
		require.Len(t, work, 1)

		require.NoError(t, ReplaceMessageLabels(ctx, pool, email.ID, []string{inbox.ID, work[0].ID}))
		names, err := GetLabelNamesForMessage(ctx, pool, email.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"INBOX", "Work"}, names)

		// Re-sync with a smaller set drops the stale association.
		require.NoError(t, ReplaceMessageLabels(ctx, pool, email.ID, []string{inbox.ID}))
		names, err = GetLabelNamesForMessage(ctx, pool, email.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"INBOX"}, names)
	})

	t.Run("attachments are replaced wholesale", func(t *testing.T) {
		require.NoError(t, ReplaceAttachments(ctx, pool, email.ID, []models.Attachment{
			{Filename: "a.pdf", MimeType: "application/pdf", Size: 10, GmailAttachmentID: "att-a"},
			{Filename: "b.png", MimeType: "image/png", Size: 20, GmailAttachmentID: "att-b"},
		}))

		got, err := GetAttachmentsForMessage(ctx, pool, email.ID)
		require.NoError(t, err)
		require.Len(t, got, 2)

		require.NoError(t, ReplaceAttachments(ctx, pool, email.ID, []models.Attachment{
			{Filename: "c.txt", MimeType: "text/plain", Size: 5, GmailAttachmentID: "att-c"},
		}))

		got, err = GetAttachmentsForMessage(ctx, pool, email.ID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "c.txt", got[0].Filename)
	})
}
