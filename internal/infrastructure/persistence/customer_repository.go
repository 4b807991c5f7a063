package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/forestcrm/backend/internal/domain/customer"
	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCustomerRepository implements customer.Repository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds an active customer by id
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	var c customer.Customer
	if err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Customer")
		}
		return nil, err
	}
	return &c, nil
}

// FindByIDs finds active customers by ids
func (r *GormCustomerRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]customer.Customer, error) {
	if len(ids) == 0 {
		return []customer.Customer{}, nil
	}
	var customers []customer.Customer
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND deleted_at IS NULL", ids).
		Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

// FindByBusinessID finds an active customer by its business id
func (r *GormCustomerRepository) FindByBusinessID(ctx context.Context, businessID string) (*customer.Customer, error) {
	var c customer.Customer
	if err := r.db.WithContext(ctx).
		Where("business_id = ? AND deleted_at IS NULL", businessID).
		First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Customer")
		}
		return nil, err
	}
	return &c, nil
}

// FindByBusinessIDForUpdateNoWait locks the customer row without
// waiting. Bulk imports take this lock per row so two concurrent
// uploads fail fast instead of deadlocking.
func (r *GormCustomerRepository) FindByBusinessIDForUpdateNoWait(ctx context.Context, businessID string) (*customer.Customer, error) {
	var c customer.Customer
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"}).
		Where("business_id = ? AND deleted_at IS NULL", businessID).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Customer")
		}
		if isLockNotAvailable(err) {
			return nil, shared.ErrResourcesNotReady
		}
		return nil, err
	}
	return &c, nil
}

// isLockNotAvailable reports the Postgres lock_not_available condition
// (SQLSTATE 55P03) raised by FOR UPDATE NOWAIT on a held row
func isLockNotAvailable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "55P03")
}

// SelfContact returns the customer's basic contact
func (r *GormCustomerRepository) SelfContact(ctx context.Context, customerID uuid.UUID) (*customer.Contact, error) {
	var contact customer.Contact
	err := r.db.WithContext(ctx).
		Table("contacts").
		Joins("JOIN customer_contacts cc ON cc.contact_id = contacts.id AND cc.deleted_at IS NULL").
		Where("cc.customer_id = ? AND cc.is_basic AND contacts.deleted_at IS NULL", customerID).
		First(&contact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Contact")
		}
		return nil, err
	}
	return &contact, nil
}

// Save creates or updates a customer
func (r *GormCustomerRepository) Save(ctx context.Context, c *customer.Customer) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// SaveContact creates or updates a contact
func (r *GormCustomerRepository) SaveContact(ctx context.Context, contact *customer.Contact) error {
	return r.db.WithContext(ctx).Save(contact).Error
}

// Delete soft-deletes a customer
func (r *GormCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&customer.Customer{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", gorm.Expr("NOW()"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Customer")
	}
	return nil
}

// customerListSelect flattens each customer with its basic contact.
// Names and addresses live in jsonb on the contact row; the listing
// splits them into the columns the filter contract names.
var customerListSelect = fmt.Sprintf(`c.id,
c.internal_id,
c.business_id,
trim(concat_ws(' ', ct.name_kanji->>'last_name', ct.name_kanji->>'first_name')) AS fullname_kanji,
trim(concat_ws(' ', ct.name_kana->>'last_name', ct.name_kana->>'first_name')) AS fullname_kana,
ct.postal_code,
ct.address->>'prefecture' AS prefecture,
ct.address->>'municipality' AS municipality,
trim(concat_ws(' ', ct.address->>'prefecture', ct.address->>'municipality', ct.address->>'sector')) AS address,
ct.telephone,
ct.mobilephone,
ct.email,
c.attributes->>'representative' AS representative,
`+tagsReprSQL+` AS tags_repr,
c.created_at,
c.updated_at`, "c")

// customerExportSelect adds the aggregated child arrays the CSV export
// needs on top of the listing columns
var customerExportSelect = customerListSelect + `,
COALESCE((SELECT json_agg(json_build_object(
	'forest_id', fc.forest_id,
	'default', COALESCE((fc.attributes->>'default')::boolean, false)) ORDER BY fc.created_at)
	FROM forest_customers fc
	WHERE fc.customer_id = c.id AND fc.deleted_at IS NULL), '[]')::text AS forests_json,
COALESCE((SELECT json_agg(json_build_object(
	'contact_id', cc2.contact_id,
	'is_basic', cc2.is_basic) ORDER BY cc2.created_at)
	FROM customer_contacts cc2
	WHERE cc2.customer_id = c.id AND cc2.deleted_at IS NULL), '[]')::text AS contacts_json`

// List returns the filtered, ordered customer listing with its total
func (r *GormCustomerRepository) List(ctx context.Context, query shared.ListQuery, filter shared.Predicate) ([]customer.ListRow, int64, error) {
	orderClause, err := OrderClause(query, CustomerSortFields, "internal_id ASC")
	if err != nil {
		return nil, 0, err
	}

	selectClause := customerListSelect
	if query.ForCSV {
		selectClause = customerExportSelect
	}

	sub := r.db.WithContext(ctx).
		Table("customers c").
		Select(selectClause).
		Joins("LEFT JOIN customer_contacts cc ON cc.customer_id = c.id AND cc.is_basic AND cc.deleted_at IS NULL").
		Joins("LEFT JOIN contacts ct ON ct.id = cc.contact_id AND ct.deleted_at IS NULL").
		Where("c.deleted_at IS NULL")

	var rows []customer.ListRow
	total, err := runListQuery(r.db.WithContext(ctx), sub, filter, query, orderClause, &rows)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

var _ customer.Repository = (*GormCustomerRepository)(nil)
