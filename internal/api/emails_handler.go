package api

import (
	"log"
	"net/http"

	"github.com/emailai/backend/internal/db"
	"github.com/emailai/backend/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EmailsHandler serves the email list.
type EmailsHandler struct {
	pool *pgxpool.Pool
}

// NewEmailsHandler creates a new EmailsHandler instance.
func NewEmailsHandler(pool *pgxpool.Pool) *EmailsHandler {
	return &EmailsHandler{pool: pool}
}

// GetEmails returns a paginated, folder-filtered list of the user's emails,
// newest first, with attachment metadata attached.
func (h *EmailsHandler) GetEmails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserIDFromContext(ctx, w, h.pool)
	if !ok {
		return
	}

	folder, limit, offset := ParseListParams(r)

	emails, err := db.ListEmails(ctx, h.pool, userID, folder, limit, offset)
	if err != nil {
		log.Printf("EmailsHandler: Failed to list emails: %v", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	total, err := db.CountEmails(ctx, h.pool, userID, folder)
	if err != nil {
		log.Printf("EmailsHandler: Failed to count emails: %v", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Attachment metadata is small and the page is capped, so one query per
	// listed message is acceptable here.
	for _, email := range emails {
		attachments, err := db.GetAttachmentsForMessage(ctx, h.pool, email.ID)
		if err != nil {
			log.Printf("EmailsHandler: Failed to load attachments for %s: %v", email.ID, err)
			continue
		}
		email.Attachments = attachments
	}

	response := &models.EmailsResponse{
		Success: true,
		Emails:  emails,
		Pagination: models.PaginationInfo{
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(emails) < total,
		},
	}

	WriteJSONResponse(w, http.StatusOK, response)
}
