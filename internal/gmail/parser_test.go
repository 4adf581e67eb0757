package gmail

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/emailai/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmailapi "google.golang.org/api/gmail/v1"
)

func TestExtractEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jane Doe <jane@example.com>", "jane@example.com"},
		{"jane@example.com", "jane@example.com"},
		{"  jane@example.com  ", "jane@example.com"},
		{`"Doe, Jane" <jane@example.com>`, "jane@example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractEmail(tt.in), "input %q", tt.in)
	}
}

func TestExtractName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jane Doe <jane@example.com>", "Jane Doe"},
		{`"Jane Doe" <jane@example.com>`, "Jane Doe"},
		{"'Jane Doe' <jane@example.com>", "Jane Doe"},
		{"jane@example.com", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractName(tt.in), "input %q", tt.in)
	}
}

func TestParseAddressList(t *testing.T) {
	assert.Nil(t, ParseAddressList(""))

	got := ParseAddressList("Jane <jane@example.com>, bob@example.com, ,Carol <carol@example.com>")
	assert.Equal(t, []string{"jane@example.com", "bob@example.com", "carol@example.com"}, got)
}

func encodeBody(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func TestParseMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("parses a full message", func(t *testing.T) {
		fake := &testutil.FakeGmail{
			Messages: map[string]*gmailapi.Message{
				"msg-1": {
					Id:       "msg-1",
					ThreadId: "thread-1",
					Snippet:  "snippet text",
					LabelIds: []string{"INBOX", "STARRED", "Work"},
					Payload: &gmailapi.MessagePart{
						MimeType: "multipart/alternative",
						Headers: []*gmailapi.MessagePartHeader{
							{Name: "From", Value: "Jane Doe <jane@example.com>"},
							{Name: "To", Value: "me@example.com, Bob <bob@example.com>"},
							{Name: "Cc", Value: "carol@example.com"},
							{Name: "subject", Value: "Quarterly report"},
							{Name: "Date", Value: "Mon, 02 Jun 2025 10:30:00 +0200"},
						},
						Parts: []*gmailapi.MessagePart{
							{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: encodeBody("plain body")}},
							{MimeType: "text/html", Body: &gmailapi.MessagePartBody{Data: encodeBody("<p>html body</p>")}},
						},
					},
				},
			},
			Threads: map[string]*gmailapi.Thread{
				"thread-1": {Id: "thread-1", HistoryId: 42},
			},
		}

		parsed, err := NewParser(fake).ParseMessage(ctx, "user-1", "msg-1")
		require.NoError(t, err)
		require.NotNil(t, parsed)

		assert.Equal(t, "thread-1", parsed.Thread.GmailThreadID)
		assert.Equal(t, int64(42), parsed.Thread.HistoryID)
		assert.Equal(t, "Quarterly report", parsed.Thread.Subject)
		assert.Equal(t, "snippet text", parsed.Thread.Snippet)

		email := parsed.Email
		assert.Equal(t, "msg-1", email.GmailID)
		assert.Equal(t, "jane@example.com", email.FromEmail)
		assert.Equal(t, "Jane Doe", email.FromName)
		assert.Equal(t, []string{"me@example.com", "bob@example.com"}, email.ToEmails)
		assert.Equal(t, []string{"carol@example.com"}, email.CcEmails)
		assert.Equal(t, "Quarterly report", email.Subject, "header lookup is case-insensitive")
		assert.Equal(t, "plain body", email.Body)
		assert.Equal(t, "<p>html body</p>", email.BodyHTML)
		assert.True(t, email.IsRead, "no UNREAD label means read")
		assert.True(t, email.IsStarred)
		assert.False(t, email.IsSent)
		require.NotNil(t, email.SentAt)
		assert.Equal(t, "2025-06-02T08:30:00Z", email.SentAt.UTC().Format("2006-01-02T15:04:05Z"))

		assert.Equal(t, []string{"INBOX", "STARRED", "Work"}, parsed.Labels)
	})

	t.Run("message without payload yields nil, nil", func(t *testing.T) {
		fake := &testutil.FakeGmail{
			Messages: map[string]*gmailapi.Message{
				"msg-empty": {Id: "msg-empty", ThreadId: "t"},
			},
		}

		parsed, err := NewParser(fake).ParseMessage(ctx, "user-1", "msg-empty")
		assert.NoError(t, err)
		assert.Nil(t, parsed)
	})

	t.Run("fetch failure propagates", func(t *testing.T) {
		fake := &testutil.FakeGmail{}

		_, err := NewParser(fake).ParseMessage(ctx, "user-1", "missing")
		assert.Error(t, err)
	})
}

func TestExtractBody(t *testing.T) {
	t.Run("single-part payload classified by mime type", func(t *testing.T) {
		body, html := extractBody(&gmailapi.MessagePart{
			MimeType: "text/html",
			Body:     &gmailapi.MessagePartBody{Data: encodeBody("<b>hi</b>")},
		})
		assert.Empty(t, body)
		assert.Equal(t, "<b>hi</b>", html)
	})

	t.Run("outer part wins over nested content", func(t *testing.T) {
		body, html := extractBody(&gmailapi.MessagePart{
			MimeType: "multipart/mixed",
			Parts: []*gmailapi.MessagePart{
				{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: encodeBody("outer plain")}},
				{
					MimeType: "multipart/alternative",
					Parts: []*gmailapi.MessagePart{
						{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: encodeBody("nested plain")}},
						{MimeType: "text/html", Body: &gmailapi.MessagePartBody{Data: encodeBody("nested html")}},
					},
				},
			},
		})
		assert.Equal(t, "outer plain", body)
		assert.Equal(t, "nested html", html, "html only exists nested, so recursion finds it")
	})

	t.Run("padded base64 is tolerated", func(t *testing.T) {
		padded := base64.URLEncoding.EncodeToString([]byte("padded body"))
		body, _ := extractBody(&gmailapi.MessagePart{
			MimeType: "text/plain",
			Body:     &gmailapi.MessagePartBody{Data: padded},
		})
		assert.Equal(t, "padded body", body)
	})
}

func TestExtractAttachments(t *testing.T) {
	payload := &gmailapi.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmailapi.MessagePart{
			{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: encodeBody("body")}},
			{
				Filename: "report.pdf",
				MimeType: "application/pdf",
				Body:     &gmailapi.MessagePartBody{AttachmentId: "att-1", Size: 1234},
			},
			{
				MimeType: "multipart/related",
				Parts: []*gmailapi.MessagePart{
					{
						Filename: "logo.png",
						Body:     &gmailapi.MessagePartBody{AttachmentId: "att-2", Size: 99},
					},
					// Inline part with a filename but no attachment id is skipped.
					{Filename: "inline.txt", Body: &gmailapi.MessagePartBody{Data: encodeBody("x")}},
				},
			},
		},
	}

	attachments := extractAttachments(payload)
	require.Len(t, attachments, 2)

	assert.Equal(t, "report.pdf", attachments[0].Filename)
	assert.Equal(t, "application/pdf", attachments[0].MimeType)
	assert.Equal(t, int64(1234), attachments[0].Size)
	assert.Equal(t, "att-1", attachments[0].GmailAttachmentID)

	assert.Equal(t, "logo.png", attachments[1].Filename)
	assert.Equal(t, "application/octet-stream", attachments[1].MimeType, "missing mime type falls back")
}
