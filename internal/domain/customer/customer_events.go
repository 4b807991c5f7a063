package customer

import (
	"github.com/forestcrm/backend/internal/domain/shared"
)

// Event types for the customer aggregate
const (
	EventCustomerCreated = "customer.created"
	EventCustomerUpdated = "customer.updated"
	EventCustomerDeleted = "customer.deleted"
)

// CustomerCreatedEvent is published when a customer is created.
// Creation never triggers cache fan-out: a brand-new customer has no links.
type CustomerCreatedEvent struct {
	shared.BaseDomainEvent
	InternalID string `json:"internal_id"`
}

// NewCustomerCreatedEvent creates a CustomerCreatedEvent
func NewCustomerCreatedEvent(c *Customer) *CustomerCreatedEvent {
	return &CustomerCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventCustomerCreated, "Customer", c.ID),
		InternalID:      c.InternalID,
	}
}

// CustomerUpdatedEvent is published when an existing customer is saved.
// Subscribers fan the update out to every aggregate caching this
// customer's repr.
type CustomerUpdatedEvent struct {
	shared.BaseDomainEvent
	InternalID string `json:"internal_id"`
}

// NewCustomerUpdatedEvent creates a CustomerUpdatedEvent
func NewCustomerUpdatedEvent(c *Customer) *CustomerUpdatedEvent {
	return &CustomerUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventCustomerUpdated, "Customer", c.ID),
		InternalID:      c.InternalID,
	}
}

// CustomerDeletedEvent is published when a customer is soft-deleted
type CustomerDeletedEvent struct {
	shared.BaseDomainEvent
}

// NewCustomerDeletedEvent creates a CustomerDeletedEvent
func NewCustomerDeletedEvent(c *Customer) *CustomerDeletedEvent {
	return &CustomerDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventCustomerDeleted, "Customer", c.ID),
	}
}
