package postal

import (
	"time"

	"github.com/google/uuid"
)

// CreatePostalHistoryRequest registers a mailing record with its
// initial association links
type CreatePostalHistoryRequest struct {
	Title       string            `json:"title" binding:"required"`
	Content     string            `json:"content"`
	SentDate    *time.Time        `json:"sent_date"`
	DocumentRef string            `json:"document_ref"`
	AuthorID    *uuid.UUID        `json:"author_id"`
	Tags        map[string]string `json:"tags"`
	ForestIDs   []uuid.UUID       `json:"forest_ids"`
	CustomerIDs []uuid.UUID       `json:"customer_ids"`
	UserIDs     []uuid.UUID       `json:"user_ids"`
}

// UpdatePostalHistoryRequest replaces a record's editable fields
type UpdatePostalHistoryRequest struct {
	Title       string            `json:"title" binding:"required"`
	Content     string            `json:"content"`
	SentDate    *time.Time        `json:"sent_date"`
	DocumentRef string            `json:"document_ref"`
	Tags        map[string]string `json:"tags"`
}
