package archive

import (
	"strings"
	"time"

	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Archive is a consultation record: a dated note tied to forests,
// customers and staff participants. Its attributes carry the rollup
// caches rebuilt from the association links.
type Archive struct {
	shared.BaseAggregateRoot
	Title        string     `gorm:"type:varchar(255);not null"`
	Content      string     `gorm:"type:text"`
	ArchiveDate  *time.Time `gorm:"index"`
	Location     string     `gorm:"type:varchar(255)"`
	FutureAction string     `gorm:"type:text"`
	AuthorID     *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (Archive) TableName() string {
	return "archives"
}

// NewArchive creates a consultation record
func NewArchive(title string, authorID *uuid.UUID) (*Archive, error) {
	if strings.TrimSpace(title) == "" {
		return nil, shared.NewValidationError("title is required")
	}
	a := &Archive{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Title:             title,
		AuthorID:          authorID,
	}
	a.AddDomainEvent(NewArchiveCreatedEvent(a))
	return a, nil
}

// Update replaces the editable fields of the record
func (a *Archive) Update(title, content, location, futureAction string, archiveDate *time.Time) error {
	if strings.TrimSpace(title) == "" {
		return shared.NewValidationError("title is required")
	}
	a.Title = title
	a.Content = content
	a.Location = location
	a.FutureAction = futureAction
	a.ArchiveDate = archiveDate
	a.Touch()
	a.AddDomainEvent(NewArchiveUpdatedEvent(a))
	return nil
}

// SetTags replaces the record's tag map, dropping empty keys
func (a *Archive) SetTags(tags map[string]string) {
	next := shared.StringMap{}
	for k, v := range tags {
		if strings.TrimSpace(k) == "" {
			continue
		}
		next[k] = v
	}
	a.Tags = next
	a.Touch()
}

// Touch bumps version and updated-at after a mutation
func (a *Archive) Touch() {
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}
