package persistence

import (
	"context"

	"github.com/forestcrm/backend/internal/domain/relation"
	"github.com/forestcrm/backend/internal/domain/repcache"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPostalHistoryLinkRepository implements relation.PostalHistoryLinkRepository
type GormPostalHistoryLinkRepository struct {
	db *gorm.DB
}

// NewGormPostalHistoryLinkRepository creates a new GormPostalHistoryLinkRepository
func NewGormPostalHistoryLinkRepository(db *gorm.DB) *GormPostalHistoryLinkRepository {
	return &GormPostalHistoryLinkRepository{db: db}
}

// SaveForestLinks replaces the record's active forest link set
func (r *GormPostalHistoryLinkRepository) SaveForestLinks(ctx context.Context, postalHistoryID uuid.UUID, forestIDs []uuid.UUID) error {
	return replaceLinks(r.db.WithContext(ctx), "postal_history_forests", "postal_history_id", "forest_id", postalHistoryID, forestIDs, func(targetID uuid.UUID) interface{} {
		return &relation.PostalHistoryForest{Link: relation.NewLink(), PostalHistoryID: postalHistoryID, ForestID: targetID}
	})
}

// SaveCustomerLinks replaces the record's active customer link set
func (r *GormPostalHistoryLinkRepository) SaveCustomerLinks(ctx context.Context, postalHistoryID uuid.UUID, customerIDs []uuid.UUID) error {
	return replaceLinks(r.db.WithContext(ctx), "postal_history_customers", "postal_history_id", "customer_id", postalHistoryID, customerIDs, func(targetID uuid.UUID) interface{} {
		return &relation.PostalHistoryCustomer{Link: relation.NewLink(), PostalHistoryID: postalHistoryID, CustomerID: targetID}
	})
}

// SaveUserLinks replaces the record's active user link set
func (r *GormPostalHistoryLinkRepository) SaveUserLinks(ctx context.Context, postalHistoryID uuid.UUID, userIDs []uuid.UUID) error {
	return replaceLinks(r.db.WithContext(ctx), "postal_history_users", "postal_history_id", "user_id", postalHistoryID, userIDs, func(targetID uuid.UUID) interface{} {
		return &relation.PostalHistoryUser{Link: relation.NewLink(), PostalHistoryID: postalHistoryID, UserID: targetID}
	})
}

// TombstoneForestLink soft-deletes one forest link
func (r *GormPostalHistoryLinkRepository) TombstoneForestLink(ctx context.Context, postalHistoryID, forestID uuid.UUID) error {
	return tombstoneLink(r.db.WithContext(ctx), &relation.PostalHistoryForest{}, "postal_history_id", "forest_id", postalHistoryID, forestID, "PostalHistoryForest")
}

// TombstoneCustomerLink soft-deletes one customer link
func (r *GormPostalHistoryLinkRepository) TombstoneCustomerLink(ctx context.Context, postalHistoryID, customerID uuid.UUID) error {
	return tombstoneLink(r.db.WithContext(ctx), &relation.PostalHistoryCustomer{}, "postal_history_id", "customer_id", postalHistoryID, customerID, "PostalHistoryCustomer")
}

// TombstoneUserLink soft-deletes one user link
func (r *GormPostalHistoryLinkRepository) TombstoneUserLink(ctx context.Context, postalHistoryID, userID uuid.UUID) error {
	return tombstoneLink(r.db.WithContext(ctx), &relation.PostalHistoryUser{}, "postal_history_id", "user_id", postalHistoryID, userID, "PostalHistoryUser")
}

// ActiveForestsByPostalHistory projects the linked forests in link order
func (r *GormPostalHistoryLinkRepository) ActiveForestsByPostalHistory(ctx context.Context, postalHistoryID uuid.UUID) ([]repcache.ForestEntry, error) {
	var entries []repcache.ForestEntry
	err := r.db.WithContext(ctx).
		Table("postal_history_forests l").
		Select("f.internal_id").
		Joins("JOIN forests f ON f.id = l.forest_id AND f.deleted_at IS NULL").
		Where("l.postal_history_id = ? AND l.deleted_at IS NULL", postalHistoryID).
		Order("l.created_at ASC").
		Scan(&entries).Error
	return entries, err
}

// ActiveCustomersByPostalHistory projects the recipient customers
func (r *GormPostalHistoryLinkRepository) ActiveCustomersByPostalHistory(ctx context.Context, postalHistoryID uuid.UUID) ([]repcache.CustomerEntry, error) {
	return activeCustomerEntries(r.db.WithContext(ctx), "postal_history_customers", "postal_history_id", postalHistoryID)
}

// ActiveUsersByPostalHistory projects the linked staff users
func (r *GormPostalHistoryLinkRepository) ActiveUsersByPostalHistory(ctx context.Context, postalHistoryID uuid.UUID) ([]repcache.UserEntry, error) {
	return activeUserEntries(r.db.WithContext(ctx), "postal_history_users", "postal_history_id", postalHistoryID)
}

// ActiveForestIDs returns ids of the record's active forest links
func (r *GormPostalHistoryLinkRepository) ActiveForestIDs(ctx context.Context, postalHistoryID uuid.UUID) ([]uuid.UUID, error) {
	return activeTargetIDs(r.db.WithContext(ctx), &relation.PostalHistoryForest{}, "postal_history_id", "forest_id", postalHistoryID)
}

// ActiveCustomerIDs returns ids of the record's active customer links
func (r *GormPostalHistoryLinkRepository) ActiveCustomerIDs(ctx context.Context, postalHistoryID uuid.UUID) ([]uuid.UUID, error) {
	return activeTargetIDs(r.db.WithContext(ctx), &relation.PostalHistoryCustomer{}, "postal_history_id", "customer_id", postalHistoryID)
}

// ActiveUserIDs returns ids of the record's active user links
func (r *GormPostalHistoryLinkRepository) ActiveUserIDs(ctx context.Context, postalHistoryID uuid.UUID) ([]uuid.UUID, error) {
	return activeTargetIDs(r.db.WithContext(ctx), &relation.PostalHistoryUser{}, "postal_history_id", "user_id", postalHistoryID)
}

// PostalHistoryIDsByForest returns ids of records linked to the forest
func (r *GormPostalHistoryLinkRepository) PostalHistoryIDsByForest(ctx context.Context, forestID uuid.UUID) ([]uuid.UUID, error) {
	return linkedParentIDs(r.db.WithContext(ctx), &relation.PostalHistoryForest{}, "postal_history_id", "forest_id", forestID)
}

// PostalHistoryIDsByCustomer returns ids of records linked to the customer
func (r *GormPostalHistoryLinkRepository) PostalHistoryIDsByCustomer(ctx context.Context, customerID uuid.UUID) ([]uuid.UUID, error) {
	return linkedParentIDs(r.db.WithContext(ctx), &relation.PostalHistoryCustomer{}, "postal_history_id", "customer_id", customerID)
}

// PostalHistoryIDsByUser returns ids of records linked to the user
func (r *GormPostalHistoryLinkRepository) PostalHistoryIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return linkedParentIDs(r.db.WithContext(ctx), &relation.PostalHistoryUser{}, "postal_history_id", "user_id", userID)
}

var _ relation.PostalHistoryLinkRepository = (*GormPostalHistoryLinkRepository)(nil)
