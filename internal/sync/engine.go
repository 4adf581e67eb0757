package sync

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/emailai/backend/internal/db"
	"github.com/emailai/backend/internal/gmail"
	"github.com/emailai/backend/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrConnection marks a failure to reach Gmail at all, as opposed to a
// failure partway through a run. Callers map it to a permission problem.
var ErrConnection = errors.New("gmail connection failed")

// Gmail's built-in label names. Anything outside this set is a user-created
// custom label.
var systemLabels = map[string]bool{
	"INBOX":     true,
	"SENT":      true,
	"STARRED":   true,
	"IMPORTANT": true,
	"DRAFT":     true,
	"SPAM":      true,
	"TRASH":     true,
}

// Result is the outcome of one sync run. A run with per-item errors is still
// a successful run; only a connectivity or listing failure aborts it.
type Result struct {
	SyncedCount int
	TotalFound  int
	Errors      []string
}

// Engine pulls a bounded page of messages from Gmail and reconciles them into
// the database. Messages are processed one at a time; one message's failure
// never blocks the rest of the batch.
type Engine struct {
	pool     *pgxpool.Pool
	client   gmail.Client
	parser   *gmail.Parser
	pageSize int64
}

func NewEngine(pool *pgxpool.Pool, client gmail.Client, pageSize int64) *Engine {
	return &Engine{
		pool:     pool,
		client:   client,
		parser:   gmail.NewParser(client),
		pageSize: pageSize,
	}
}

// Run syncs the newest messages across inbox and sent for the user.
// The profile fetch doubles as a connectivity probe: if it fails, the whole
// run is aborted before any listing happens.
func (e *Engine) Run(ctx context.Context, userID string) (*Result, error) {
	if _, err := e.client.GetProfile(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	refs, err := e.client.ListMessages(ctx, e.pageSize, "in:inbox OR in:sent")
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	if len(refs) == 0 {
		return &Result{}, nil
	}

	result := &Result{TotalFound: len(refs)}

	for _, ref := range refs {
		parsed, err := e.parser.ParseMessage(ctx, userID, ref.Id)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Error processing message %s: %v", ref.Id, err))
			continue
		}

		if parsed == nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to parse message %s", ref.Id))
			continue
		}

		if err := e.syncToDatabase(ctx, userID, parsed); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to sync message %s: %v", ref.Id, err))
			continue
		}

		result.SyncedCount++
	}

	return result, nil
}

// syncToDatabase upserts the thread and message, then attaches labels and
// attachments. Label and attachment failures are logged but never fail the
// message's sync; the thread and message upserts do.
func (e *Engine) syncToDatabase(ctx context.Context, userID string, parsed *gmail.ParsedEmail) error {
	thread := parsed.Thread
	if err := db.UpsertThread(ctx, e.pool, &thread); err != nil {
		return fmt.Errorf("thread sync failed: %w", err)
	}

	email := parsed.Email
	email.ThreadID = &thread.ID
	if err := db.UpsertEmail(ctx, e.pool, &email); err != nil {
		return fmt.Errorf("message sync failed: %w", err)
	}

	if err := e.syncLabels(ctx, userID, email.ID, parsed.Labels); err != nil {
		log.Printf("Sync: label sync failed for message %s: %v", email.GmailID, err)
	}

	if err := db.ReplaceAttachments(ctx, e.pool, email.ID, parsed.Attachments); err != nil {
		log.Printf("Sync: attachment sync failed for message %s: %v", email.GmailID, err)
	}

	return nil
}

func (e *Engine) syncLabels(ctx context.Context, userID, messageID string, labelNames []string) error {
	if len(labelNames) == 0 {
		return db.ReplaceMessageLabels(ctx, e.pool, messageID, nil)
	}

	for _, name := range labelNames {
		labelType := models.LabelTypeCustom
		if systemLabels[name] {
			labelType = models.LabelTypeSystem
		}
		label := models.Label{UserID: userID, Name: name, Type: labelType}
		if err := db.UpsertLabel(ctx, e.pool, &label); err != nil {
			return err
		}
	}

	labels, err := db.GetLabelsByName(ctx, e.pool, userID, labelNames)
	if err != nil {
		return err
	}

	labelIDs := make([]string, 0, len(labels))
	for _, label := range labels {
		labelIDs = append(labelIDs, label.ID)
	}

	return db.ReplaceMessageLabels(ctx, e.pool, messageID, labelIDs)
}
