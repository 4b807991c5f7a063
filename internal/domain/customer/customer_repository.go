package customer

import (
	"context"

	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ListRow is one row of the customer listing projection: the customer's
// own columns flattened with its self-contact display fields and, on the
// export path, aggregated child arrays.
type ListRow struct {
	ID             uuid.UUID `json:"id"`
	InternalID     string    `json:"internal_id"`
	BusinessID     string    `json:"business_id"`
	FullnameKanji  string    `json:"fullname_kanji"`
	FullnameKana   string    `json:"fullname_kana"`
	PostalCode     string    `json:"postal_code"`
	Prefecture     string    `json:"prefecture"`
	Municipality   string    `json:"municipality"`
	Address        string    `json:"address"`
	Telephone      string    `json:"telephone"`
	Mobilephone    string    `json:"mobilephone"`
	Email          string    `json:"email"`
	Representative string    `json:"representative"`
	TagsRepr       string    `json:"tags_repr"`
	// ForestsJSON and ContactsJSON hold aggregated child arrays on the
	// CSV export path, empty otherwise.
	ForestsJSON  string `json:"forests_json,omitempty"`
	ContactsJSON string `json:"contacts_json,omitempty"`
}

// Repository defines persistence for customers and contacts
type Repository interface {
	// FindByID finds an active customer by id
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindByIDs finds active customers by ids
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Customer, error)

	// FindByBusinessID finds an active customer by its business id
	FindByBusinessID(ctx context.Context, businessID string) (*Customer, error)

	// FindByBusinessIDForUpdateNoWait locks the row for update without
	// waiting. A held lock yields shared.ErrResourcesNotReady so bulk
	// importers fail fast instead of blocking.
	FindByBusinessIDForUpdateNoWait(ctx context.Context, businessID string) (*Customer, error)

	// SelfContact returns the customer's basic contact
	SelfContact(ctx context.Context, customerID uuid.UUID) (*Contact, error)

	// Save creates or updates a customer
	Save(ctx context.Context, c *Customer) error

	// SaveContact creates or updates a contact
	SaveContact(ctx context.Context, contact *Contact) error

	// Delete soft-deletes a customer
	Delete(ctx context.Context, id uuid.UUID) error

	// List runs the assembled listing query: predicate, ordering,
	// pagination, and on the export path the aggregated child arrays.
	// The returned total counts matches before limit/offset.
	List(ctx context.Context, q shared.ListQuery, pred shared.Predicate) ([]ListRow, int64, error)
}
