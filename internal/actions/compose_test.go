package actions

import (
	"encoding/base64"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeRaw(t *testing.T) {
	date := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	t.Run("orders headers and encodes without padding", func(t *testing.T) {
		raw := composeRaw(composeInput{
			From:      "alice@example.com",
			To:        "bob@example.com",
			Cc:        "carol@example.com",
			Bcc:       "dave@example.com",
			InReplyTo: "gmail-orig-1",
			Subject:   "Hello",
			Body:      "Body text",
			Date:      date,
		})

		assert.NotContains(t, raw, "=", "raw message must use unpadded base64url")

		decoded, err := base64.RawURLEncoding.DecodeString(raw)
		require.NoError(t, err)

		lines := strings.Split(string(decoded), "\n")
		assert.Equal(t, "From: alice@example.com", lines[0])
		assert.Equal(t, "To: bob@example.com", lines[1])
		assert.Equal(t, "Cc: carol@example.com", lines[2])
		assert.Equal(t, "Bcc: dave@example.com", lines[3])
		assert.Equal(t, "In-Reply-To: <gmail-orig-1>", lines[4])
		assert.Equal(t, "References: <gmail-orig-1>", lines[5])
		assert.Equal(t, "Subject: Hello", lines[6])
		assert.Equal(t, "Date: Fri, 14 Mar 2025 09:26:53 +0000", lines[7])
		assert.True(t, strings.HasPrefix(lines[8], "Message-ID: <"), "got %q", lines[8])
		assert.Equal(t, "", lines[9])
		assert.Equal(t, "Body text", lines[10])
	})

	t.Run("omits optional headers when empty", func(t *testing.T) {
		raw := composeRaw(composeInput{
			From:    "alice@example.com",
			To:      "bob@example.com",
			Subject: "Hi",
			Body:    "x",
			Date:    date,
		})

		decoded, err := base64.RawURLEncoding.DecodeString(raw)
		require.NoError(t, err)

		text := string(decoded)
		assert.NotContains(t, text, "Cc:")
		assert.NotContains(t, text, "Bcc:")
		assert.NotContains(t, text, "In-Reply-To:")
		assert.NotContains(t, text, "References:")
	})
}

func TestGenerateMessageID(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	id := generateMessageID("alice@example.com", now)
	assert.Regexp(t, regexp.MustCompile(`^<1748779200000\.[0-9a-f]{9}@example\.com>$`), id)

	// Bare domains (no @) are used as-is.
	id = generateMessageID("example.org", now)
	assert.True(t, strings.HasSuffix(id, "@example.org>"), "got %q", id)

	// Random suffix makes consecutive ids distinct.
	assert.NotEqual(t, generateMessageID("a@b.c", now), generateMessageID("a@b.c", now))
}

func TestSubjectPrefixes(t *testing.T) {
	assert.Equal(t, "Re: Hello", replySubject("Hello"))
	assert.Equal(t, "Re: Hello", replySubject("Re: Hello"))
	assert.Equal(t, "Re: RE: Hello", replySubject("RE: Hello"), "prefix check is case-sensitive")

	assert.Equal(t, "Fwd: Hello", forwardSubject("Hello"))
	assert.Equal(t, "Fwd: Hello", forwardSubject("Fwd: Hello"))
}

func TestForwardBody(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	body := forwardBody("Alice", "alice@example.com", "Orig subject", "Original body", "me@example.com", "FYI", now)

	assert.Contains(t, body, "---------- Forwarded message ---------")
	assert.Contains(t, body, "From: Alice")
	assert.Contains(t, body, "Date: 2025-06-01")
	assert.Contains(t, body, "Subject: Orig subject")
	assert.Contains(t, body, "To: me@example.com")
	assert.Contains(t, body, "Original body")
	assert.Contains(t, body, "FYI")

	// Falls back to the address when the sender has no display name.
	body = forwardBody("", "alice@example.com", "s", "b", "me@example.com", "", now)
	assert.Contains(t, body, "From: alice@example.com")
}
