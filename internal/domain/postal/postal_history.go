package postal

import (
	"strings"
	"time"

	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PostalHistory records one outbound mailing: what was sent, when, and
// to which forests and customers. Its attributes carry the rollup
// caches rebuilt from the association links.
type PostalHistory struct {
	shared.BaseAggregateRoot
	Title       string     `gorm:"type:varchar(255);not null"`
	Content     string     `gorm:"type:text"`
	SentDate    *time.Time `gorm:"index"`
	DocumentRef string     `gorm:"type:varchar(255)"`
	AuthorID    *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (PostalHistory) TableName() string {
	return "postal_histories"
}

// NewPostalHistory creates a mailing record
func NewPostalHistory(title string, authorID *uuid.UUID) (*PostalHistory, error) {
	if strings.TrimSpace(title) == "" {
		return nil, shared.NewValidationError("title is required")
	}
	p := &PostalHistory{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Title:             title,
		AuthorID:          authorID,
	}
	p.AddDomainEvent(NewPostalHistoryCreatedEvent(p))
	return p, nil
}

// Update replaces the editable fields of the record
func (p *PostalHistory) Update(title, content, documentRef string, sentDate *time.Time) error {
	if strings.TrimSpace(title) == "" {
		return shared.NewValidationError("title is required")
	}
	p.Title = title
	p.Content = content
	p.DocumentRef = documentRef
	p.SentDate = sentDate
	p.Touch()
	p.AddDomainEvent(NewPostalHistoryUpdatedEvent(p))
	return nil
}

// SetTags replaces the record's tag map, dropping empty keys
func (p *PostalHistory) SetTags(tags map[string]string) {
	next := shared.StringMap{}
	for k, v := range tags {
		if strings.TrimSpace(k) == "" {
			continue
		}
		next[k] = v
	}
	p.Tags = next
	p.Touch()
}

// Touch bumps version and updated-at after a mutation
func (p *PostalHistory) Touch() {
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}
