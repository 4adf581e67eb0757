package models

import "time"

// Thread is one Gmail conversation. There is exactly one row per
// (user, gmail_thread_id); re-syncing overwrites subject, snippet and
// history_id in place. Threads are never deleted by the client.
type Thread struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	Subject       string `json:"subject"`
	Snippet       string `json:"snippet"`
	HistoryID     int64  `json:"history_id"`
	GmailThreadID string `json:"gmail_thread_id"`
}

// Email is one synced Gmail message. There is exactly one row per
// (user, gmail_id); re-syncing overwrites all synced fields in place.
type Email struct {
	ID                     string       `json:"id"`
	ThreadID               *string      `json:"thread_id"`
	UserID                 string       `json:"user_id"`
	GmailID                string       `json:"gmail_id"`
	FromEmail              string       `json:"from_email"`
	FromName               string       `json:"from_name"`
	ToEmails               []string     `json:"to_emails"`
	CcEmails               []string     `json:"cc_emails"`
	BccEmails              []string     `json:"bcc_emails"`
	Subject                string       `json:"subject"`
	Body                   string       `json:"body"`
	BodyHTML               string       `json:"body_html"`
	IsRead                 bool         `json:"is_read"`
	IsStarred              bool         `json:"is_starred"`
	IsImportant            bool         `json:"is_important"`
	IsSent                 bool         `json:"is_sent"`
	IsArchived             bool         `json:"is_archived"`
	IsInTrash              bool         `json:"is_in_trash"`
	IsDeleted              bool         `json:"is_deleted"`
	SentAt                 *time.Time   `json:"sent_at"`
	ReceivedAt             time.Time    `json:"received_at"`
	DeletedAt              *time.Time   `json:"deleted_at,omitempty"`
	ReplyToMessageID       *string      `json:"reply_to_message_id,omitempty"`
	ForwardedFromMessageID *string      `json:"forwarded_from_message_id,omitempty"`
	Attachments            []Attachment `json:"attachments,omitempty"`
}

// Label types. System labels are the fixed set Gmail ships with;
// everything else is custom.
const (
	LabelTypeSystem = "system"
	LabelTypeCustom = "custom"
)

// Label is a Gmail label, unique per (user, name).
type Label struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
}

// Attachment is metadata for one attachment part of a message. Attachments
// are fully replaced whenever the owning message is re-synced.
type Attachment struct {
	ID                string `json:"id"`
	MessageID         string `json:"message_id"`
	Filename          string `json:"filename"`
	MimeType          string `json:"mime_type"`
	Size              int64  `json:"size"`
	GmailAttachmentID string `json:"gmail_attachment_id"`
}

// PaginationInfo describes the window of a paginated email listing.
type PaginationInfo struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// EmailsResponse is the envelope for GET /api/emails.
type EmailsResponse struct {
	Success    bool           `json:"success"`
	Emails     []*Email       `json:"emails"`
	Pagination PaginationInfo `json:"pagination"`
}
