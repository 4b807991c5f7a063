package persistence

import (
	"context"
	"errors"

	"github.com/forestcrm/backend/internal/domain/relation"
	"github.com/forestcrm/backend/internal/domain/repcache"
	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormForestCustomerRepository implements relation.ForestCustomerRepository
type GormForestCustomerRepository struct {
	db *gorm.DB
}

// NewGormForestCustomerRepository creates a new GormForestCustomerRepository
func NewGormForestCustomerRepository(db *gorm.DB) *GormForestCustomerRepository {
	return &GormForestCustomerRepository{db: db}
}

// Save creates or updates an ownership link
func (r *GormForestCustomerRepository) Save(ctx context.Context, link *relation.ForestCustomer) error {
	return r.db.WithContext(ctx).Save(link).Error
}

// FindActive finds the active link between a forest and a customer
func (r *GormForestCustomerRepository) FindActive(ctx context.Context, forestID, customerID uuid.UUID) (*relation.ForestCustomer, error) {
	var link relation.ForestCustomer
	err := r.db.WithContext(ctx).
		Where("forest_id = ? AND customer_id = ? AND deleted_at IS NULL", forestID, customerID).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("ForestCustomer")
		}
		return nil, err
	}
	return &link, nil
}

// Tombstone soft-deletes the link, keeping it for audit
func (r *GormForestCustomerRepository) Tombstone(ctx context.Context, forestID, customerID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&relation.ForestCustomer{}).
		Where("forest_id = ? AND customer_id = ? AND deleted_at IS NULL", forestID, customerID).
		Update("deleted_at", gorm.Expr("NOW()"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("ForestCustomer")
	}
	return nil
}

// Purge physically removes tombstoned links for the forest
func (r *GormForestCustomerRepository) Purge(ctx context.Context, forestID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Where("forest_id = ? AND deleted_at IS NOT NULL", forestID).
		Delete(&relation.ForestCustomer{}).Error
}

type ownerRow struct {
	CustomerID uuid.UUID `gorm:"column:customer_id"`
	IsDefault  bool      `gorm:"column:is_default"`
	ContactID  uuid.UUID `gorm:"column:contact_id"`
	NameKanji  string    `gorm:"column:name_kanji"`
	NameKana   string    `gorm:"column:name_kana"`
}

// ActiveOwnersByForest returns one entry per active ownership link,
// representative owners first, then oldest link first. Names come from
// each customer's basic contact.
func (r *GormForestCustomerRepository) ActiveOwnersByForest(ctx context.Context, forestID uuid.UUID) ([]repcache.KeyedOwnerEntry, error) {
	var rows []ownerRow
	err := r.db.WithContext(ctx).
		Table("forest_customers fc").
		Select(`fc.customer_id,
COALESCE((fc.attributes->>'default')::boolean, false) AS is_default,
ct.id AS contact_id,
trim(concat_ws(' ', ct.name_kanji->>'last_name', ct.name_kanji->>'first_name')) AS name_kanji,
trim(concat_ws(' ', ct.name_kana->>'last_name', ct.name_kana->>'first_name')) AS name_kana`).
		Joins("JOIN customers c ON c.id = fc.customer_id AND c.deleted_at IS NULL").
		Joins("LEFT JOIN customer_contacts cc ON cc.customer_id = c.id AND cc.is_basic AND cc.deleted_at IS NULL").
		Joins("LEFT JOIN contacts ct ON ct.id = cc.contact_id AND ct.deleted_at IS NULL").
		Where("fc.forest_id = ? AND fc.deleted_at IS NULL", forestID).
		Order("(fc.attributes->>'default')::boolean DESC NULLS LAST, fc.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]repcache.KeyedOwnerEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, repcache.KeyedOwnerEntry{
			CustomerID: row.CustomerID,
			Entry: repcache.OwnerEntry{
				Default:   row.IsDefault,
				ContactID: row.ContactID,
				NameKanji: row.NameKanji,
				NameKana:  row.NameKana,
			},
		})
	}
	return entries, nil
}

// ForestIDsByCustomer returns ids of forests the customer owns
func (r *GormForestCustomerRepository) ForestIDsByCustomer(ctx context.Context, customerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&relation.ForestCustomer{}).
		Where("customer_id = ? AND deleted_at IS NULL", customerID).
		Distinct().
		Pluck("forest_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// SetDefault marks or unmarks the customer as the forest's
// representative owner
func (r *GormForestCustomerRepository) SetDefault(ctx context.Context, forestID, customerID uuid.UUID, isDefault bool) error {
	result := r.db.WithContext(ctx).
		Model(&relation.ForestCustomer{}).
		Where("forest_id = ? AND customer_id = ? AND deleted_at IS NULL", forestID, customerID).
		Updates(map[string]interface{}{
			"attributes": gorm.Expr("jsonb_set(COALESCE(attributes, '{}'), '{default}', to_jsonb(?::boolean))", isDefault),
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("ForestCustomer")
	}
	return nil
}

var _ relation.ForestCustomerRepository = (*GormForestCustomerRepository)(nil)
