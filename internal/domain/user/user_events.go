package user

import (
	"github.com/forestcrm/backend/internal/domain/shared"
)

const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
)

// UserCreatedEvent is published when a staff member is registered
type UserCreatedEvent struct {
	shared.BaseDomainEvent
	FullName string `json:"full_name"`
}

// NewUserCreatedEvent creates a UserCreatedEvent
func NewUserCreatedEvent(u *User) *UserCreatedEvent {
	return &UserCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventUserCreated, "User", u.ID),
		FullName:        u.FullName(),
	}
}

// UserUpdatedEvent is published when a staff member's display fields
// change. Cache synchronization listens for this to refresh the
// participant reprs on dependent records.
type UserUpdatedEvent struct {
	shared.BaseDomainEvent
	FullName string `json:"full_name"`
}

// NewUserUpdatedEvent creates a UserUpdatedEvent
func NewUserUpdatedEvent(u *User) *UserUpdatedEvent {
	return &UserUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventUserUpdated, "User", u.ID),
		FullName:        u.FullName(),
	}
}
