package actions

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/emailai/backend/internal/db"
	"github.com/emailai/backend/internal/gmail"
	"github.com/emailai/backend/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrOriginalNotFound is returned by Reply and Forward when the referenced
// original message is absent from storage.
var ErrOriginalNotFound = errors.New("original email not found")

// ItemResult is the per-message outcome inside a batch action.
type ItemResult struct {
	EmailID string `json:"emailId"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Action  string `json:"action,omitempty"`
	Starred *bool  `json:"starred,omitempty"`
}

// BatchResult aggregates the per-item outcomes of one batch action.
type BatchResult struct {
	Message string       `json:"message"`
	Results []ItemResult `json:"results"`
}

// SendResult is the outcome of a send, reply or forward.
type SendResult struct {
	Message string `json:"message"`
	EmailID string `json:"emailId"`
	GmailID string `json:"gmailId"`
}

// SendData is the compose payload for send, reply and forward actions.
type SendData struct {
	To              string `json:"to"`
	Cc              string `json:"cc,omitempty"`
	Bcc             string `json:"bcc,omitempty"`
	Subject         string `json:"subject"`
	Body            string `json:"body"`
	ReplyTo         string `json:"replyTo,omitempty"`
	OriginalEmailID string `json:"originalEmailId,omitempty"`
}

// Dispatcher applies user actions to messages. Every id in a batch is
// processed independently: a failure for one id is recorded in its ItemResult
// and the rest of the batch proceeds. For delete, archive and mark-read a
// Gmail-side failure is logged and the local state change applied anyway;
// local truth wins over remote confirmation for those actions.
type Dispatcher struct {
	pool   *pgxpool.Pool
	client gmail.Client
	now    func() time.Time
}

func NewDispatcher(pool *pgxpool.Pool, client gmail.Client) *Dispatcher {
	return &Dispatcher{
		pool:   pool,
		client: client,
		now:    time.Now,
	}
}

func successCount(results []ItemResult) int {
	count := 0
	for _, r := range results {
		if r.Success {
			count++
		}
	}
	return count
}

// Delete runs the two-stage trash state machine for each id. The stage is
// chosen by reading the current is_in_trash flag from storage at call time,
// never from client-supplied intent, so a stale client can't double-trash.
func (d *Dispatcher) Delete(ctx context.Context, userID string, emailIDs []string) *BatchResult {
	var results []ItemResult

	for _, emailID := range emailIDs {
		email, err := db.GetEmailByID(ctx, d.pool, userID, emailID)
		if err != nil {
			results = append(results, ItemResult{EmailID: emailID, Success: false, Error: itemError(err)})
			continue
		}

		if !email.IsInTrash {
			// First delete: soft delete into the trash.
			if err := d.client.TrashMessage(ctx, email.GmailID); err != nil {
				log.Printf("Actions: Gmail trash failed for %s, continuing with local update: %v", email.GmailID, err)
			}

			if err := db.MoveEmailToTrash(ctx, d.pool, userID, emailID, d.now().UTC()); err != nil {
				results = append(results, ItemResult{EmailID: emailID, Success: false, Error: fmt.Sprintf("Move to trash failed: %v", err)})
				continue
			}

			results = append(results, ItemResult{EmailID: emailID, Success: true, Action: "move_to_trash"})
			continue
		}

		// Already in trash: permanent delete. deleted_at keeps its value from
		// the soft delete.
		if err := d.client.DeleteMessage(ctx, email.GmailID); err != nil {
			log.Printf("Actions: Gmail delete failed for %s, continuing with local update: %v", email.GmailID, err)
		}

		if err := db.MarkEmailDeleted(ctx, d.pool, userID, emailID, d.now().UTC()); err != nil {
			results = append(results, ItemResult{EmailID: emailID, Success: false, Error: fmt.Sprintf("Permanent delete failed: %v", err)})
			continue
		}

		results = append(results, ItemResult{EmailID: emailID, Success: true, Action: "permanent_delete"})
	}

	return &BatchResult{
		Message: fmt.Sprintf("Processed %d emails", successCount(results)),
		Results: results,
	}
}

// Archive removes each message from the inbox. Only active messages can be
// archived; archiving is idempotent, but a trashed or deleted message is
// reported as a per-item failure.
func (d *Dispatcher) Archive(ctx context.Context, userID string, emailIDs []string) *BatchResult {
	var results []ItemResult

	for _, emailID := range emailIDs {
		email, err := db.GetEmailByID(ctx, d.pool, userID, emailID)
		if err != nil {
			results = append(results, ItemResult{EmailID: emailID, Success: false, Error: itemError(err)})
			continue
		}

		status := models.StatusOf(email)
		if status != models.StatusArchived && !models.CanTransition(status, models.StatusArchived) {
			results = append(results, ItemResult{EmailID: emailID, Success: false, Error: fmt.Sprintf("Cannot archive a %s email", status)})
			continue
		}

		if err := d.client.ModifyMessage(ctx, email.GmailID, nil, []string{"INBOX"}); err != nil {
			log.Printf("Actions: Gmail archive failed for %s, continuing with local update: %v", email.GmailID, err)
		}

		if err := db.SetEmailArchived(ctx, d.pool, userID, emailID, true); err != nil {
			results = append(results, ItemResult{EmailID: emailID, Success: false, Error: fmt.Sprintf("Archive failed: %v", err)})
			continue
		}

		results = append(results, ItemResult{EmailID: emailID, Success: true})
	}

	return &BatchResult{
		Message: fmt.Sprintf("Archived %d emails", successCount(results)),
		Results: results,
	}
}

// Star toggles the star flag for each id. Local-only: Gmail is not called.
func (d *Dispatcher) Star(ctx context.Context, userID string, emailIDs []string) *BatchResult {
	var results []ItemResult

	for _, emailID := range emailIDs {
		email, err := db.GetEmailByID(ctx, d.pool, userID, emailID)
		if err != nil {
			results = append(results, ItemResult{EmailID: emailID, Success: false, Error: itemError(err)})
			continue
		}

		starred := !email.IsStarred
		if err := db.SetEmailStarred(ctx, d.pool, userID, emailID, starred); err != nil {
			results = append(results, ItemResult{EmailID: emailID, Success: false, Error: fmt.Sprintf("Database update failed: %v", err)})
			continue
		}

		results = append(results, ItemResult{EmailID: emailID, Success: true, Starred: &starred})
	}

	return &BatchResult{
		Message: fmt.Sprintf("Updated star status for %d emails", successCount(results)),
		Results: results,
	}
}

// ToggleImportant toggles the important flag for each id. Local-only.
func (d *Dispatcher) ToggleImportant(ctx context.Context, userID string, emailIDs []string) *BatchResult {
	var results []ItemResult

	for _, emailID := range emailIDs {
		email, err := db.GetEmailByID(ctx, d.pool, userID, emailID)
		if err != nil {
			results = append(results, ItemResult{EmailID: emailID, Success: false, Error: itemError(err)})
			continue
		}

		if err := db.SetEmailImportant(ctx, d.pool, userID, emailID, !email.IsImportant); err != nil {
			results = append(results, ItemResult{EmailID: emailID, Success: false, Error: fmt.Sprintf("Database update failed: %v", err)})
			continue
		}

		results = append(results, ItemResult{EmailID: emailID, Success: true})
	}

	return &BatchResult{
		Message: fmt.Sprintf("Updated importance for %d emails", successCount(results)),
		Results: results,
	}
}

// MarkRead marks each message read, removing Gmail's UNREAD label.
func (d *Dispatcher) MarkRead(ctx context.Context, userID string, emailIDs []string) *BatchResult {
	var results []ItemResult

	for _, emailID := range emailIDs {
		email, err := db.GetEmailByID(ctx, d.pool, userID, emailID)
		if err != nil {
			results = append(results, ItemResult{EmailID: emailID, Success: false, Error: itemError(err)})
			continue
		}

		if err := d.client.ModifyMessage(ctx, email.GmailID, nil, []string{"UNREAD"}); err != nil {
			log.Printf("Actions: Gmail mark-read failed for %s, continuing with local update: %v", email.GmailID, err)
		}

		if err := db.SetEmailRead(ctx, d.pool, userID, emailID, true); err != nil {
			results = append(results, ItemResult{EmailID: emailID, Success: false, Error: fmt.Sprintf("Database update failed: %v", err)})
			continue
		}

		results = append(results, ItemResult{EmailID: emailID, Success: true})
	}

	return &BatchResult{
		Message: fmt.Sprintf("Marked %d emails as read", successCount(results)),
		Results: results,
	}
}

// Restore moves messages out of the trash. Only valid for messages that are
// in the trash and not yet permanently deleted. Local-only.
func (d *Dispatcher) Restore(ctx context.Context, userID string, emailIDs []string) *BatchResult {
	var results []ItemResult

	for _, emailID := range emailIDs {
		email, err := db.GetEmailByID(ctx, d.pool, userID, emailID)
		if err != nil {
			results = append(results, ItemResult{EmailID: emailID, Success: false, Error: itemError(err)})
			continue
		}

		if models.StatusOf(email) != models.StatusTrashed {
			results = append(results, ItemResult{EmailID: emailID, Success: false, Error: "Email not found or not in trash"})
			continue
		}

		if err := db.RestoreEmail(ctx, d.pool, userID, emailID); err != nil {
			results = append(results, ItemResult{EmailID: emailID, Success: false, Error: fmt.Sprintf("Database update failed: %v", err)})
			continue
		}

		results = append(results, ItemResult{EmailID: emailID, Success: true})
	}

	return &BatchResult{
		Message: fmt.Sprintf("Restored %d emails", successCount(results)),
		Results: results,
	}
}

// Send composes and sends a new message, then records it locally as a sent,
// already-read message carrying the SENT label.
func (d *Dispatcher) Send(ctx context.Context, userID string, data SendData) (*SendResult, error) {
	profile, err := d.client.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Gmail profile: %w", err)
	}
	userEmail := profile.EmailAddress

	now := d.now().UTC()
	raw := composeRaw(composeInput{
		From:      userEmail,
		To:        data.To,
		Cc:        data.Cc,
		Bcc:       data.Bcc,
		InReplyTo: data.ReplyTo,
		Subject:   data.Subject,
		Body:      data.Body,
		Date:      now,
	})

	sent, err := d.client.SendMessage(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	email := &models.Email{
		UserID:     userID,
		GmailID:    sent.Id,
		FromEmail:  userEmail,
		FromName:   userEmail,
		ToEmails:   []string{data.To},
		Subject:    data.Subject,
		Body:       data.Body,
		IsSent:     true,
		IsRead:     true,
		SentAt:     &now,
		ReceivedAt: now,
	}
	if data.Cc != "" {
		email.CcEmails = []string{data.Cc}
	}
	if data.Bcc != "" {
		email.BccEmails = []string{data.Bcc}
	}
	if data.ReplyTo != "" {
		email.ReplyToMessageID = &data.ReplyTo
	}

	if err := db.UpsertEmail(ctx, d.pool, email); err != nil {
		return nil, fmt.Errorf("failed to save sent email: %w", err)
	}

	d.attachSentLabel(ctx, userID, email.ID)

	return &SendResult{
		Message: "Email sent successfully",
		EmailID: email.ID,
		GmailID: sent.Id,
	}, nil
}

// Reply sends a reply to the original message's sender, on the original's
// thread, with the subject prefixed "Re: " exactly once.
func (d *Dispatcher) Reply(ctx context.Context, userID string, data SendData) (*SendResult, error) {
	original, err := db.GetEmailByID(ctx, d.pool, userID, data.OriginalEmailID)
	if err != nil {
		if errors.Is(err, db.ErrEmailNotFound) {
			return nil, ErrOriginalNotFound
		}
		return nil, fmt.Errorf("failed to get original email: %w", err)
	}

	profile, err := d.client.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Gmail profile: %w", err)
	}
	userEmail := profile.EmailAddress

	subject := replySubject(original.Subject)
	now := d.now().UTC()
	raw := composeRaw(composeInput{
		From:      userEmail,
		To:        original.FromEmail,
		InReplyTo: original.GmailID,
		Subject:   subject,
		Body:      data.Body,
		Date:      now,
	})

	sent, err := d.client.SendMessage(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to send reply: %w", err)
	}

	email := &models.Email{
		ThreadID:         original.ThreadID,
		UserID:           userID,
		GmailID:          sent.Id,
		FromEmail:        userEmail,
		FromName:         userEmail,
		ToEmails:         []string{original.FromEmail},
		Subject:          subject,
		Body:             data.Body,
		IsSent:           true,
		IsRead:           true,
		SentAt:           &now,
		ReceivedAt:       now,
		ReplyToMessageID: &original.ID,
	}

	if err := db.UpsertEmail(ctx, d.pool, email); err != nil {
		return nil, fmt.Errorf("failed to save reply: %w", err)
	}

	d.attachSentLabel(ctx, userID, email.ID)

	return &SendResult{
		Message: "Reply sent successfully",
		EmailID: email.ID,
		GmailID: sent.Id,
	}, nil
}

// Forward sends the original message's content to a new recipient with the
// subject prefixed "Fwd: " exactly once.
func (d *Dispatcher) Forward(ctx context.Context, userID string, data SendData) (*SendResult, error) {
	original, err := db.GetEmailByID(ctx, d.pool, userID, data.OriginalEmailID)
	if err != nil {
		if errors.Is(err, db.ErrEmailNotFound) {
			return nil, ErrOriginalNotFound
		}
		return nil, fmt.Errorf("failed to get original email: %w", err)
	}

	profile, err := d.client.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Gmail profile: %w", err)
	}
	userEmail := profile.EmailAddress

	subject := forwardSubject(original.Subject)
	now := d.now().UTC()
	body := forwardBody(original.FromName, original.FromEmail, original.Subject, original.Body, userEmail, data.Body, now)

	raw := composeRaw(composeInput{
		From:    userEmail,
		To:      data.To,
		Subject: subject,
		Body:    body,
		Date:    now,
	})

	sent, err := d.client.SendMessage(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to forward email: %w", err)
	}

	email := &models.Email{
		UserID:                 userID,
		GmailID:                sent.Id,
		FromEmail:              userEmail,
		FromName:               userEmail,
		ToEmails:               []string{data.To},
		Subject:                subject,
		Body:                   body,
		IsSent:                 true,
		IsRead:                 true,
		SentAt:                 &now,
		ReceivedAt:             now,
		ForwardedFromMessageID: &original.ID,
	}

	if err := db.UpsertEmail(ctx, d.pool, email); err != nil {
		return nil, fmt.Errorf("failed to save forwarded email: %w", err)
	}

	d.attachSentLabel(ctx, userID, email.ID)

	return &SendResult{
		Message: "Email forwarded successfully",
		EmailID: email.ID,
		GmailID: sent.Id,
	}, nil
}

// attachSentLabel tags a freshly stored outgoing message with SENT.
// Best-effort enrichment: a failure is logged, never surfaced.
func (d *Dispatcher) attachSentLabel(ctx context.Context, userID, emailID string) {
	label := models.Label{UserID: userID, Name: "SENT", Type: models.LabelTypeSystem}
	if err := db.UpsertLabel(ctx, d.pool, &label); err != nil {
		log.Printf("Actions: failed to upsert SENT label: %v", err)
		return
	}

	if err := db.ReplaceMessageLabels(ctx, d.pool, emailID, []string{label.ID}); err != nil {
		log.Printf("Actions: failed to attach SENT label to %s: %v", emailID, err)
	}
}

func itemError(err error) string {
	if errors.Is(err, db.ErrEmailNotFound) {
		return "Email not found"
	}
	return fmt.Sprintf("Database error: %v", err)
}
