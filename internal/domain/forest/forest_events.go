package forest

import (
	"github.com/forestcrm/backend/internal/domain/shared"
)

const (
	EventForestCreated = "forest.created"
	EventForestUpdated = "forest.updated"
)

// ForestCreatedEvent is published when a forest parcel is registered
type ForestCreatedEvent struct {
	shared.BaseDomainEvent
	InternalID string `json:"internal_id"`
}

// NewForestCreatedEvent creates a forest created event
func NewForestCreatedEvent(f *Forest) *ForestCreatedEvent {
	return &ForestCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventForestCreated, "Forest", f.ID),
		InternalID:      f.InternalID,
	}
}

// ForestUpdatedEvent is published when forest details change. Cache
// synchronization listens for this to refresh dependent entries.
type ForestUpdatedEvent struct {
	shared.BaseDomainEvent
	InternalID string `json:"internal_id"`
}

// NewForestUpdatedEvent creates a forest updated event
func NewForestUpdatedEvent(f *Forest) *ForestUpdatedEvent {
	return &ForestUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventForestUpdated, "Forest", f.ID),
		InternalID:      f.InternalID,
	}
}
