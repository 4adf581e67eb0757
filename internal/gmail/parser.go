package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/emailai/backend/internal/models"
	gmailapi "google.golang.org/api/gmail/v1"
)

// ParsedEmail is the normalized form of one Gmail message: the owning
// thread's header, the message record, the raw label set, and attachment
// metadata. Database ids are filled in later by the sync engine.
type ParsedEmail struct {
	Thread      models.Thread
	Email       models.Email
	Labels      []string
	Attachments []models.Attachment
}

// Parser converts raw Gmail messages into ParsedEmail records. Each parse
// costs two provider round-trips: one for the message and one for the owning
// thread's history id.
type Parser struct {
	client Client
}

func NewParser(client Client) *Parser {
	return &Parser{client: client}
}

// ParseMessage fetches and normalizes one message. A message without a
// payload yields (nil, nil) so the caller can count it as a non-fatal
// per-item failure rather than an error.
func (p *Parser) ParseMessage(ctx context.Context, userID, gmailMessageID string) (*ParsedEmail, error) {
	msg, err := p.client.GetMessage(ctx, gmailMessageID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message %s: %w", gmailMessageID, err)
	}

	if msg.Payload == nil {
		return nil, nil
	}

	headers := msg.Payload.Headers

	fromHeader := headerValue(headers, "From")
	body, bodyHTML := extractBody(msg.Payload)

	var sentAt *time.Time
	if dateHeader := headerValue(headers, "Date"); dateHeader != "" {
		if parsed, err := mail.ParseDate(dateHeader); err == nil {
			parsed = parsed.UTC()
			sentAt = &parsed
		}
	}

	thread, err := p.client.GetThread(ctx, msg.ThreadId)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message %s: %w", gmailMessageID, err)
	}

	labels := msg.LabelIds

	return &ParsedEmail{
		Thread: models.Thread{
			UserID:        userID,
			Subject:       headerValue(headers, "Subject"),
			Snippet:       msg.Snippet,
			HistoryID:     int64(thread.HistoryId),
			GmailThreadID: msg.ThreadId,
		},
		Email: models.Email{
			UserID:      userID,
			GmailID:     msg.Id,
			FromEmail:   ExtractEmail(fromHeader),
			FromName:    ExtractName(fromHeader),
			ToEmails:    ParseAddressList(headerValue(headers, "To")),
			CcEmails:    ParseAddressList(headerValue(headers, "Cc")),
			BccEmails:   ParseAddressList(headerValue(headers, "Bcc")),
			Subject:     headerValue(headers, "Subject"),
			Body:        body,
			BodyHTML:    bodyHTML,
			IsRead:      !hasLabel(labels, "UNREAD"),
			IsStarred:   hasLabel(labels, "STARRED"),
			IsImportant: hasLabel(labels, "IMPORTANT"),
			IsSent:      hasLabel(labels, "SENT"),
			SentAt:      sentAt,
			ReceivedAt:  time.Now().UTC(),
		},
		Labels:      labels,
		Attachments: extractAttachments(msg.Payload),
	}, nil
}

// headerValue does a case-insensitive lookup of a header value.
func headerValue(headers []*gmailapi.MessagePartHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

func hasLabel(labels []string, name string) bool {
	for _, l := range labels {
		if l == name {
			return true
		}
	}
	return false
}

var (
	bracketedAddressRe = regexp.MustCompile(`<(.+)>`)
	displayNameRe      = regexp.MustCompile(`^(.+)\s*<.+>$`)
	quoteRe            = regexp.MustCompile(`['"]`)
)

// ExtractEmail returns the address part of a From/To-style header entry:
// the portion inside angle brackets, or the trimmed raw string when no
// brackets are present.
func ExtractEmail(addr string) string {
	if m := bracketedAddressRe.FindStringSubmatch(addr); m != nil {
		return m[1]
	}
	return strings.TrimSpace(addr)
}

// ExtractName returns the display-name part of an address header entry
// (the text preceding an angle-bracketed address, quotes stripped), or ""
// when the entry is a bare address.
func ExtractName(addr string) string {
	if m := displayNameRe.FindStringSubmatch(addr); m != nil {
		return quoteRe.ReplaceAllString(strings.TrimSpace(m[1]), "")
	}
	return ""
}

// ParseAddressList splits a comma-separated address header and extracts one
// email per entry, discarding empties.
func ParseAddressList(header string) []string {
	if header == "" {
		return nil
	}

	var emails []string
	for _, entry := range strings.Split(header, ",") {
		if email := ExtractEmail(strings.TrimSpace(entry)); email != "" {
			emails = append(emails, email)
		}
	}
	return emails
}

// decodePartData decodes a part body. Gmail uses URL-safe base64, usually
// without padding.
func decodePartData(data string) string {
	if decoded, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	return ""
}

// extractBody walks the part tree depth-first and returns the first
// text/plain and first text/html contents found. A level's own parts win
// over content nested deeper.
func extractBody(payload *gmailapi.MessagePart) (body, bodyHTML string) {
	if payload == nil {
		return "", ""
	}

	if payload.Body != nil && payload.Body.Data != "" {
		content := decodePartData(payload.Body.Data)
		if payload.MimeType == "text/html" {
			return "", content
		}
		return content, ""
	}

	for _, part := range payload.Parts {
		switch {
		case part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "":
			if body == "" {
				body = decodePartData(part.Body.Data)
			}
		case part.MimeType == "text/html" && part.Body != nil && part.Body.Data != "":
			if bodyHTML == "" {
				bodyHTML = decodePartData(part.Body.Data)
			}
		case len(part.Parts) > 0:
			nestedBody, nestedHTML := extractBody(part)
			if body == "" {
				body = nestedBody
			}
			if bodyHTML == "" {
				bodyHTML = nestedHTML
			}
		}
	}

	return body, bodyHTML
}

// extractAttachments collects every part in the tree carrying both a
// filename and a Gmail attachment id.
func extractAttachments(payload *gmailapi.MessagePart) []models.Attachment {
	var attachments []models.Attachment

	var walk func(parts []*gmailapi.MessagePart)
	walk = func(parts []*gmailapi.MessagePart) {
		for _, part := range parts {
			if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" {
				mimeType := part.MimeType
				if mimeType == "" {
					mimeType = "application/octet-stream"
				}
				attachments = append(attachments, models.Attachment{
					Filename:          part.Filename,
					MimeType:          mimeType,
					Size:              part.Body.Size,
					GmailAttachmentID: part.Body.AttachmentId,
				})
			}
			if len(part.Parts) > 0 {
				walk(part.Parts)
			}
		}
	}

	walk(payload.Parts)
	return attachments
}
