package relation

import (
	"time"

	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// LinkState describes the lifecycle of an association link. Tombstoned
// links are kept for audit but excluded from every rollup; purged links
// are physically removed.
type LinkState string

const (
	LinkActive     LinkState = "active"
	LinkTombstoned LinkState = "tombstoned"
)

// Link is the common shape of all association rows
type Link struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Attributes shared.JSONMap `gorm:"type:jsonb"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time `gorm:"index"`
}

// NewLink creates an active link row
func NewLink() Link {
	now := time.Now()
	return Link{
		ID:         uuid.New(),
		Attributes: shared.JSONMap{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// State reports the link's lifecycle state
func (l *Link) State() LinkState {
	if l.DeletedAt != nil {
		return LinkTombstoned
	}
	return LinkActive
}

// Tombstone soft-deletes the link, keeping the row for audit
func (l *Link) Tombstone() {
	now := time.Now()
	l.DeletedAt = &now
	l.UpdatedAt = now
}

// ForestCustomer links a forest parcel to an owning customer. The
// attributes carry a "default" flag marking the representative owner.
type ForestCustomer struct {
	Link
	ForestID   uuid.UUID `gorm:"type:uuid;index;not null"`
	CustomerID uuid.UUID `gorm:"type:uuid;index;not null"`
}

// TableName returns the table name for GORM
func (ForestCustomer) TableName() string {
	return "forest_customers"
}

// NewForestCustomer creates an ownership link
func NewForestCustomer(forestID, customerID uuid.UUID) *ForestCustomer {
	return &ForestCustomer{
		Link:       NewLink(),
		ForestID:   forestID,
		CustomerID: customerID,
	}
}

// IsDefault reports whether this customer is the representative owner
func (fc *ForestCustomer) IsDefault() bool {
	v, ok := fc.Attributes["default"]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// SetDefault marks or unmarks this customer as the representative owner
func (fc *ForestCustomer) SetDefault(isDefault bool) {
	if fc.Attributes == nil {
		fc.Attributes = shared.JSONMap{}
	}
	fc.Attributes["default"] = isDefault
	fc.UpdatedAt = time.Now()
}

// CustomerContact links a customer to one of its contacts. The basic
// contact carries the customer's own name and address.
type CustomerContact struct {
	Link
	CustomerID uuid.UUID `gorm:"type:uuid;index;not null"`
	ContactID  uuid.UUID `gorm:"type:uuid;index;not null"`
	IsBasic    bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (CustomerContact) TableName() string {
	return "customer_contacts"
}

// NewCustomerContact creates a customer-to-contact link
func NewCustomerContact(customerID, contactID uuid.UUID, isBasic bool) *CustomerContact {
	return &CustomerContact{
		Link:       NewLink(),
		CustomerID: customerID,
		ContactID:  contactID,
		IsBasic:    isBasic,
	}
}

// ForestCustomerContact scopes a customer contact to a specific forest,
// so mailings about one parcel reach the right person.
type ForestCustomerContact struct {
	Link
	ForestCustomerID  uuid.UUID `gorm:"type:uuid;index;not null"`
	CustomerContactID uuid.UUID `gorm:"type:uuid;index;not null"`
}

// TableName returns the table name for GORM
func (ForestCustomerContact) TableName() string {
	return "forest_customer_contacts"
}

// NewForestCustomerContact scopes a contact to a forest ownership link
func NewForestCustomerContact(forestCustomerID, customerContactID uuid.UUID) *ForestCustomerContact {
	return &ForestCustomerContact{
		Link:              NewLink(),
		ForestCustomerID:  forestCustomerID,
		CustomerContactID: customerContactID,
	}
}

// ArchiveForest links a consultation record to a forest parcel
type ArchiveForest struct {
	Link
	ArchiveID uuid.UUID `gorm:"type:uuid;index;not null"`
	ForestID  uuid.UUID `gorm:"type:uuid;index;not null"`
}

// TableName returns the table name for GORM
func (ArchiveForest) TableName() string {
	return "archive_forests"
}

// ArchiveCustomer links a consultation record to a participating customer
type ArchiveCustomer struct {
	Link
	ArchiveID  uuid.UUID `gorm:"type:uuid;index;not null"`
	CustomerID uuid.UUID `gorm:"type:uuid;index;not null"`
}

// TableName returns the table name for GORM
func (ArchiveCustomer) TableName() string {
	return "archive_customers"
}

// ArchiveUser links a consultation record to a participating staff user
type ArchiveUser struct {
	Link
	ArchiveID uuid.UUID `gorm:"type:uuid;index;not null"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"`
}

// TableName returns the table name for GORM
func (ArchiveUser) TableName() string {
	return "archive_users"
}

// PostalHistoryForest links a mailing record to a forest parcel
type PostalHistoryForest struct {
	Link
	PostalHistoryID uuid.UUID `gorm:"type:uuid;index;not null"`
	ForestID        uuid.UUID `gorm:"type:uuid;index;not null"`
}

// TableName returns the table name for GORM
func (PostalHistoryForest) TableName() string {
	return "postal_history_forests"
}

// PostalHistoryCustomer links a mailing record to a recipient customer
type PostalHistoryCustomer struct {
	Link
	PostalHistoryID uuid.UUID `gorm:"type:uuid;index;not null"`
	CustomerID      uuid.UUID `gorm:"type:uuid;index;not null"`
}

// TableName returns the table name for GORM
func (PostalHistoryCustomer) TableName() string {
	return "postal_history_customers"
}

// PostalHistoryUser links a mailing record to the staff user who sent it
type PostalHistoryUser struct {
	Link
	PostalHistoryID uuid.UUID `gorm:"type:uuid;index;not null"`
	UserID          uuid.UUID `gorm:"type:uuid;index;not null"`
}

// TableName returns the table name for GORM
func (PostalHistoryUser) TableName() string {
	return "postal_history_users"
}
