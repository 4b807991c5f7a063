package postal

import (
	"github.com/forestcrm/backend/internal/domain/shared"
)

const (
	EventPostalHistoryCreated = "postalhistory.created"
	EventPostalHistoryUpdated = "postalhistory.updated"
)

// PostalHistoryCreatedEvent is published when a mailing record is created
type PostalHistoryCreatedEvent struct {
	shared.BaseDomainEvent
	Title string `json:"title"`
}

// NewPostalHistoryCreatedEvent creates a postal history created event
func NewPostalHistoryCreatedEvent(p *PostalHistory) *PostalHistoryCreatedEvent {
	return &PostalHistoryCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPostalHistoryCreated, "PostalHistory", p.ID),
		Title:           p.Title,
	}
}

// PostalHistoryUpdatedEvent is published when a mailing record changes
type PostalHistoryUpdatedEvent struct {
	shared.BaseDomainEvent
	Title string `json:"title"`
}

// NewPostalHistoryUpdatedEvent creates a postal history updated event
func NewPostalHistoryUpdatedEvent(p *PostalHistory) *PostalHistoryUpdatedEvent {
	return &PostalHistoryUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPostalHistoryUpdated, "PostalHistory", p.ID),
		Title:           p.Title,
	}
}
