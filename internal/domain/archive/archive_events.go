package archive

import (
	"github.com/forestcrm/backend/internal/domain/shared"
)

const (
	EventArchiveCreated = "archive.created"
	EventArchiveUpdated = "archive.updated"
)

// ArchiveCreatedEvent is published when a consultation record is created
type ArchiveCreatedEvent struct {
	shared.BaseDomainEvent
	Title string `json:"title"`
}

// NewArchiveCreatedEvent creates an archive created event
func NewArchiveCreatedEvent(a *Archive) *ArchiveCreatedEvent {
	return &ArchiveCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventArchiveCreated, "Archive", a.ID),
		Title:           a.Title,
	}
}

// ArchiveUpdatedEvent is published when a consultation record changes
type ArchiveUpdatedEvent struct {
	shared.BaseDomainEvent
	Title string `json:"title"`
}

// NewArchiveUpdatedEvent creates an archive updated event
func NewArchiveUpdatedEvent(a *Archive) *ArchiveUpdatedEvent {
	return &ArchiveUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventArchiveUpdated, "Archive", a.ID),
		Title:           a.Title,
	}
}
