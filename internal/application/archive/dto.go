package archive

import (
	"time"

	"github.com/google/uuid"
)

// CreateArchiveRequest registers a consultation record with its
// initial association links
type CreateArchiveRequest struct {
	Title        string            `json:"title" binding:"required"`
	Content      string            `json:"content"`
	ArchiveDate  *time.Time        `json:"archive_date"`
	Location     string            `json:"location"`
	FutureAction string            `json:"future_action"`
	AuthorID     *uuid.UUID        `json:"author_id"`
	Tags         map[string]string `json:"tags"`
	ForestIDs    []uuid.UUID       `json:"forest_ids"`
	CustomerIDs  []uuid.UUID       `json:"customer_ids"`
	UserIDs      []uuid.UUID       `json:"user_ids"`
}

// UpdateArchiveRequest replaces a record's editable fields
type UpdateArchiveRequest struct {
	Title        string            `json:"title" binding:"required"`
	Content      string            `json:"content"`
	ArchiveDate  *time.Time        `json:"archive_date"`
	Location     string            `json:"location"`
	FutureAction string            `json:"future_action"`
	Tags         map[string]string `json:"tags"`
}
