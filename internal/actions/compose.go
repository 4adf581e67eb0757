package actions

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// composeInput carries everything needed to build one outgoing message.
type composeInput struct {
	From      string
	To        string
	Cc        string
	Bcc       string
	InReplyTo string
	Subject   string
	Body      string
	Date      time.Time
}

// composeRaw builds the RFC-822-style message Gmail expects in a send call:
// an ordered header block, a blank line, then the body, base64url-encoded
// without padding.
func composeRaw(in composeInput) string {
	lines := []string{
		"From: " + in.From,
		"To: " + in.To,
	}

	if in.Cc != "" {
		lines = append(lines, "Cc: "+in.Cc)
	}
	if in.Bcc != "" {
		lines = append(lines, "Bcc: "+in.Bcc)
	}
	if in.InReplyTo != "" {
		lines = append(lines,
			"In-Reply-To: <"+in.InReplyTo+">",
			"References: <"+in.InReplyTo+">",
		)
	}

	lines = append(lines,
		"Subject: "+in.Subject,
		"Date: "+in.Date.UTC().Format(time.RFC1123Z),
		"Message-ID: "+generateMessageID(in.From, in.Date),
		"",
		in.Body,
	)

	return base64.RawURLEncoding.EncodeToString([]byte(strings.Join(lines, "\n")))
}

// generateMessageID builds a Message-ID whose local part combines a
// timestamp with a random suffix, scoped to the sender's domain.
func generateMessageID(from string, now time.Time) string {
	domain := from
	if i := strings.LastIndex(from, "@"); i >= 0 {
		domain = from[i+1:]
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("<%d.%s@%s>", now.UnixMilli(), suffix, domain)
}

// replySubject prefixes a subject with "Re: " unless it already carries it.
func replySubject(subject string) string {
	if strings.HasPrefix(subject, "Re: ") {
		return subject
	}
	return "Re: " + subject
}

// forwardSubject prefixes a subject with "Fwd: " unless it already carries it.
func forwardSubject(subject string) string {
	if strings.HasPrefix(subject, "Fwd: ") {
		return subject
	}
	return "Fwd: " + subject
}

// forwardBody wraps the original message content in the conventional
// forwarded-message frame.
func forwardBody(fromName, fromEmail, originalSubject, originalBody, userEmail, note string, now time.Time) string {
	sender := fromName
	if sender == "" {
		sender = fromEmail
	}

	return fmt.Sprintf(`---------- Forwarded message ---------
From: %s
Date: %s
Subject: %s
To: %s

%s

---------- Forwarded message ---------

%s`, sender, now.UTC().Format("2006-01-02"), originalSubject, userEmail, originalBody, note)
}
