package persistence

import (
	"context"

	"github.com/forestcrm/backend/internal/domain/relation"
	"github.com/forestcrm/backend/internal/domain/repcache"
	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormArchiveLinkRepository implements relation.ArchiveLinkRepository
type GormArchiveLinkRepository struct {
	db *gorm.DB
}

// NewGormArchiveLinkRepository creates a new GormArchiveLinkRepository
func NewGormArchiveLinkRepository(db *gorm.DB) *GormArchiveLinkRepository {
	return &GormArchiveLinkRepository{db: db}
}

// SaveForestLinks replaces the record's active forest link set:
// links outside the new set tombstone, missing ones are created
func (r *GormArchiveLinkRepository) SaveForestLinks(ctx context.Context, archiveID uuid.UUID, forestIDs []uuid.UUID) error {
	return replaceLinks(r.db.WithContext(ctx), "archive_forests", "archive_id", "forest_id", archiveID, forestIDs, func(targetID uuid.UUID) interface{} {
		return &relation.ArchiveForest{Link: relation.NewLink(), ArchiveID: archiveID, ForestID: targetID}
	})
}

// SaveCustomerLinks replaces the record's active customer link set
func (r *GormArchiveLinkRepository) SaveCustomerLinks(ctx context.Context, archiveID uuid.UUID, customerIDs []uuid.UUID) error {
	return replaceLinks(r.db.WithContext(ctx), "archive_customers", "archive_id", "customer_id", archiveID, customerIDs, func(targetID uuid.UUID) interface{} {
		return &relation.ArchiveCustomer{Link: relation.NewLink(), ArchiveID: archiveID, CustomerID: targetID}
	})
}

// SaveUserLinks replaces the record's active user link set
func (r *GormArchiveLinkRepository) SaveUserLinks(ctx context.Context, archiveID uuid.UUID, userIDs []uuid.UUID) error {
	return replaceLinks(r.db.WithContext(ctx), "archive_users", "archive_id", "user_id", archiveID, userIDs, func(targetID uuid.UUID) interface{} {
		return &relation.ArchiveUser{Link: relation.NewLink(), ArchiveID: archiveID, UserID: targetID}
	})
}

// TombstoneForestLink soft-deletes one forest link
func (r *GormArchiveLinkRepository) TombstoneForestLink(ctx context.Context, archiveID, forestID uuid.UUID) error {
	return tombstoneLink(r.db.WithContext(ctx), &relation.ArchiveForest{}, "archive_id", "forest_id", archiveID, forestID, "ArchiveForest")
}

// TombstoneCustomerLink soft-deletes one customer link
func (r *GormArchiveLinkRepository) TombstoneCustomerLink(ctx context.Context, archiveID, customerID uuid.UUID) error {
	return tombstoneLink(r.db.WithContext(ctx), &relation.ArchiveCustomer{}, "archive_id", "customer_id", archiveID, customerID, "ArchiveCustomer")
}

// TombstoneUserLink soft-deletes one user link
func (r *GormArchiveLinkRepository) TombstoneUserLink(ctx context.Context, archiveID, userID uuid.UUID) error {
	return tombstoneLink(r.db.WithContext(ctx), &relation.ArchiveUser{}, "archive_id", "user_id", archiveID, userID, "ArchiveUser")
}

// ActiveForestsByArchive projects the linked forests in link order
func (r *GormArchiveLinkRepository) ActiveForestsByArchive(ctx context.Context, archiveID uuid.UUID) ([]repcache.ForestEntry, error) {
	var entries []repcache.ForestEntry
	err := r.db.WithContext(ctx).
		Table("archive_forests l").
		Select("f.internal_id").
		Joins("JOIN forests f ON f.id = l.forest_id AND f.deleted_at IS NULL").
		Where("l.archive_id = ? AND l.deleted_at IS NULL", archiveID).
		Order("l.created_at ASC").
		Scan(&entries).Error
	return entries, err
}

// ActiveCustomersByArchive projects the linked customers with the
// names from their basic contacts, in link order
func (r *GormArchiveLinkRepository) ActiveCustomersByArchive(ctx context.Context, archiveID uuid.UUID) ([]repcache.CustomerEntry, error) {
	return activeCustomerEntries(r.db.WithContext(ctx), "archive_customers", "archive_id", archiveID)
}

// ActiveUsersByArchive projects the linked staff users in link order
func (r *GormArchiveLinkRepository) ActiveUsersByArchive(ctx context.Context, archiveID uuid.UUID) ([]repcache.UserEntry, error) {
	return activeUserEntries(r.db.WithContext(ctx), "archive_users", "archive_id", archiveID)
}

// ActiveForestIDs returns ids of the record's active forest links
func (r *GormArchiveLinkRepository) ActiveForestIDs(ctx context.Context, archiveID uuid.UUID) ([]uuid.UUID, error) {
	return activeTargetIDs(r.db.WithContext(ctx), &relation.ArchiveForest{}, "archive_id", "forest_id", archiveID)
}

// ActiveCustomerIDs returns ids of the record's active customer links
func (r *GormArchiveLinkRepository) ActiveCustomerIDs(ctx context.Context, archiveID uuid.UUID) ([]uuid.UUID, error) {
	return activeTargetIDs(r.db.WithContext(ctx), &relation.ArchiveCustomer{}, "archive_id", "customer_id", archiveID)
}

// ActiveUserIDs returns ids of the record's active user links
func (r *GormArchiveLinkRepository) ActiveUserIDs(ctx context.Context, archiveID uuid.UUID) ([]uuid.UUID, error) {
	return activeTargetIDs(r.db.WithContext(ctx), &relation.ArchiveUser{}, "archive_id", "user_id", archiveID)
}

// ArchiveIDsByForest returns ids of records linked to the forest
func (r *GormArchiveLinkRepository) ArchiveIDsByForest(ctx context.Context, forestID uuid.UUID) ([]uuid.UUID, error) {
	return linkedParentIDs(r.db.WithContext(ctx), &relation.ArchiveForest{}, "archive_id", "forest_id", forestID)
}

// ArchiveIDsByCustomer returns ids of records linked to the customer
func (r *GormArchiveLinkRepository) ArchiveIDsByCustomer(ctx context.Context, customerID uuid.UUID) ([]uuid.UUID, error) {
	return linkedParentIDs(r.db.WithContext(ctx), &relation.ArchiveCustomer{}, "archive_id", "customer_id", customerID)
}

// ArchiveIDsByUser returns ids of records linked to the user
func (r *GormArchiveLinkRepository) ArchiveIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return linkedParentIDs(r.db.WithContext(ctx), &relation.ArchiveUser{}, "archive_id", "user_id", userID)
}

// replaceLinks reconciles a link table against the wanted target set:
// active links outside the set tombstone, absent targets get new rows.
// Targets already linked keep their original row and created_at.
func replaceLinks(db *gorm.DB, table, parentCol, targetCol string, parentID uuid.UUID, targetIDs []uuid.UUID, build func(uuid.UUID) interface{}) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var existing []uuid.UUID
		if err := tx.Table(table).
			Where(parentCol+" = ? AND deleted_at IS NULL", parentID).
			Pluck(targetCol, &existing).Error; err != nil {
			return err
		}

		wanted := make(map[uuid.UUID]bool, len(targetIDs))
		for _, id := range targetIDs {
			wanted[id] = true
		}
		current := make(map[uuid.UUID]bool, len(existing))
		for _, id := range existing {
			current[id] = true
		}

		var removed []uuid.UUID
		for _, id := range existing {
			if !wanted[id] {
				removed = append(removed, id)
			}
		}
		if len(removed) > 0 {
			if err := tx.Table(table).
				Where(parentCol+" = ? AND "+targetCol+" IN ? AND deleted_at IS NULL", parentID, removed).
				Update("deleted_at", gorm.Expr("NOW()")).Error; err != nil {
				return err
			}
		}

		for _, id := range targetIDs {
			if current[id] {
				continue
			}
			if err := tx.Create(build(id)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func tombstoneLink(db *gorm.DB, model interface{}, parentCol, targetCol string, parentID, targetID uuid.UUID, entity string) error {
	result := db.Model(model).
		Where(parentCol+" = ? AND "+targetCol+" = ? AND deleted_at IS NULL", parentID, targetID).
		Update("deleted_at", gorm.Expr("NOW()"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError(entity)
	}
	return nil
}

func activeCustomerEntries(db *gorm.DB, table, parentCol string, parentID uuid.UUID) ([]repcache.CustomerEntry, error) {
	var entries []repcache.CustomerEntry
	err := db.Table(table+" l").
		Select(`l.customer_id,
trim(concat_ws(' ', ct.name_kanji->>'last_name', ct.name_kanji->>'first_name')) AS name_kanji,
trim(concat_ws(' ', ct.name_kana->>'last_name', ct.name_kana->>'first_name')) AS name_kana`).
		Joins("JOIN customers c ON c.id = l.customer_id AND c.deleted_at IS NULL").
		Joins("LEFT JOIN customer_contacts cc ON cc.customer_id = c.id AND cc.is_basic AND cc.deleted_at IS NULL").
		Joins("LEFT JOIN contacts ct ON ct.id = cc.contact_id AND ct.deleted_at IS NULL").
		Where("l."+parentCol+" = ? AND l.deleted_at IS NULL", parentID).
		Order("l.created_at ASC").
		Scan(&entries).Error
	return entries, err
}

func activeUserEntries(db *gorm.DB, table, parentCol string, parentID uuid.UUID) ([]repcache.UserEntry, error) {
	var entries []repcache.UserEntry
	err := db.Table(table+" l").
		Select("l.user_id, trim(concat_ws(' ', u.last_name, u.first_name)) AS full_name").
		Joins("JOIN users u ON u.id = l.user_id AND u.deleted_at IS NULL").
		Where("l."+parentCol+" = ? AND l.deleted_at IS NULL", parentID).
		Order("l.created_at ASC").
		Scan(&entries).Error
	return entries, err
}

func activeTargetIDs(db *gorm.DB, model interface{}, parentCol, targetCol string, parentID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.Model(model).
		Where(parentCol+" = ? AND deleted_at IS NULL", parentID).
		Order("created_at ASC").
		Pluck(targetCol, &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func linkedParentIDs(db *gorm.DB, model interface{}, parentCol, targetCol string, targetID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.Model(model).
		Where(targetCol+" = ? AND deleted_at IS NULL", targetID).
		Distinct().
		Pluck(parentCol, &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

var _ relation.ArchiveLinkRepository = (*GormArchiveLinkRepository)(nil)
