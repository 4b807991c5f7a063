package customer

import (
	"strings"
	"time"

	"github.com/forestcrm/backend/internal/domain/shared"
)

// RegisterStatus represents a customer's registration state
type RegisterStatus string

const (
	RegisterStatusRegistered   RegisterStatus = "registered"
	RegisterStatusUnregistered RegisterStatus = "unregistered"
)

// Customer represents a land owner in the CRM. It is the aggregate root
// for ownership operations. Display names live on the basic self Contact
// reached through the CustomerContact link.
type Customer struct {
	shared.BaseAggregateRoot
	InternalID string         `gorm:"type:varchar(255);index"`
	BusinessID string         `gorm:"type:varchar(255);index"`
	Banking    shared.JSONMap `gorm:"type:jsonb"`
	Status     RegisterStatus `gorm:"type:varchar(20);not null;default:'unregistered'"`
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// NewCustomer creates a new customer
func NewCustomer(internalID, businessID string) *Customer {
	c := &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InternalID:        internalID,
		BusinessID:        businessID,
		Banking:           shared.JSONMap{},
		Status:            RegisterStatusUnregistered,
	}
	c.AddDomainEvent(NewCustomerCreatedEvent(c))
	return c
}

// Update records a basic-info change. Mutations of the linked contacts
// happen through the relation layer; this bumps the aggregate so the
// update event fans out to dependent caches.
func (c *Customer) Update() {
	c.Touch()
	c.AddDomainEvent(NewCustomerUpdatedEvent(c))
}

// SetBanking replaces the banking details
func (c *Customer) SetBanking(banking shared.JSONMap) {
	if banking == nil {
		banking = shared.JSONMap{}
	}
	c.Banking = banking
	c.Touch()
}

// SetStatus updates the registration status
func (c *Customer) SetStatus(status RegisterStatus) error {
	switch status {
	case RegisterStatusRegistered, RegisterStatusUnregistered:
	default:
		return shared.NewDomainError("INVALID_STATUS", "Invalid customer register status")
	}
	c.Status = status
	c.Touch()
	return nil
}

// SetTags replaces the customer's tag map, dropping empty keys
func (c *Customer) SetTags(tags map[string]string) {
	next := shared.StringMap{}
	for k, v := range tags {
		if strings.TrimSpace(k) == "" {
			continue
		}
		next[k] = v
	}
	c.Tags = next
	c.Touch()
}

// Touch bumps version and updated-at after a mutation
func (c *Customer) Touch() {
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}
