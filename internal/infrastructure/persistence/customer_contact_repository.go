package persistence

import (
	"context"
	"errors"

	"github.com/forestcrm/backend/internal/domain/relation"
	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCustomerContactRepository implements relation.CustomerContactRepository
type GormCustomerContactRepository struct {
	db *gorm.DB
}

// NewGormCustomerContactRepository creates a new GormCustomerContactRepository
func NewGormCustomerContactRepository(db *gorm.DB) *GormCustomerContactRepository {
	return &GormCustomerContactRepository{db: db}
}

// Save creates or updates a customer-to-contact link
func (r *GormCustomerContactRepository) Save(ctx context.Context, link *relation.CustomerContact) error {
	return r.db.WithContext(ctx).Save(link).Error
}

// FindActive finds the active link between a customer and a contact
func (r *GormCustomerContactRepository) FindActive(ctx context.Context, customerID, contactID uuid.UUID) (*relation.CustomerContact, error) {
	var link relation.CustomerContact
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND contact_id = ? AND deleted_at IS NULL", customerID, contactID).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("CustomerContact")
		}
		return nil, err
	}
	return &link, nil
}

// Tombstone soft-deletes the link. Forest-scoped child links tombstone
// with it so a removed contact stops receiving parcel mailings.
func (r *GormCustomerContactRepository) Tombstone(ctx context.Context, customerID, contactID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var link relation.CustomerContact
		err := tx.Where("customer_id = ? AND contact_id = ? AND deleted_at IS NULL", customerID, contactID).
			First(&link).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.NewNotFoundError("CustomerContact")
			}
			return err
		}

		if err := tx.Model(&relation.ForestCustomerContact{}).
			Where("customer_contact_id = ? AND deleted_at IS NULL", link.ID).
			Update("deleted_at", gorm.Expr("NOW()")).Error; err != nil {
			return err
		}

		return tx.Model(&relation.CustomerContact{}).
			Where("id = ?", link.ID).
			Update("deleted_at", gorm.Expr("NOW()")).Error
	})
}

// Purge physically removes tombstoned links for the customer
func (r *GormCustomerContactRepository) Purge(ctx context.Context, customerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Where("customer_id = ? AND deleted_at IS NOT NULL", customerID).
		Delete(&relation.CustomerContact{}).Error
}

// SaveForestScope scopes a customer contact to one forest ownership link
func (r *GormCustomerContactRepository) SaveForestScope(ctx context.Context, link *relation.ForestCustomerContact) error {
	return r.db.WithContext(ctx).Save(link).Error
}

// TombstoneForestScope soft-deletes a forest-scoped contact link
func (r *GormCustomerContactRepository) TombstoneForestScope(ctx context.Context, forestCustomerID, customerContactID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&relation.ForestCustomerContact{}).
		Where("forest_customer_id = ? AND customer_contact_id = ? AND deleted_at IS NULL", forestCustomerID, customerContactID).
		Update("deleted_at", gorm.Expr("NOW()"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("ForestCustomerContact")
	}
	return nil
}

var _ relation.CustomerContactRepository = (*GormCustomerContactRepository)(nil)
