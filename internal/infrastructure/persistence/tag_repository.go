package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/forestcrm/backend/internal/domain/tag"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// tagTables maps each aggregate family to the table that carries its tags
var tagTables = map[tag.ObjectType]string{
	tag.ObjectTypeForest:        "forests",
	tag.ObjectTypeCustomer:      "customers",
	tag.ObjectTypeArchive:       "archives",
	tag.ObjectTypePostalHistory: "postal_histories",
}

func tagTableFor(objectType tag.ObjectType) (string, error) {
	table, ok := tagTables[objectType]
	if !ok {
		return "", shared.NewValidationError(fmt.Sprintf("Unknown tag object type: %s", objectType))
	}
	return table, nil
}

// GormTagRepository implements tag.SettingRepository and
// tag.ObjectRepository using GORM
type GormTagRepository struct {
	db *gorm.DB
}

// NewGormTagRepository creates a new GormTagRepository
func NewGormTagRepository(db *gorm.DB) *GormTagRepository {
	return &GormTagRepository{db: db}
}

// FindByID finds a tag setting by id
func (r *GormTagRepository) FindByID(ctx context.Context, id uuid.UUID) (*tag.Setting, error) {
	var s tag.Setting
	if err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Tag setting")
		}
		return nil, err
	}
	return &s, nil
}

// FindByType lists the tag settings declared for one aggregate family
func (r *GormTagRepository) FindByType(ctx context.Context, objectType tag.ObjectType) ([]tag.Setting, error) {
	var settings []tag.Setting
	if err := r.db.WithContext(ctx).
		Where("object_type = ? AND deleted_at IS NULL", objectType).
		Order("name ASC").
		Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

// Save creates or updates a tag setting
func (r *GormTagRepository) Save(ctx context.Context, setting *tag.Setting) error {
	return r.db.WithContext(ctx).Save(setting).Error
}

// Delete soft-deletes a tag setting
func (r *GormTagRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&tag.Setting{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Tag setting")
	}
	return nil
}

// MigrateKey renames a tag key across every live row of the aggregate
// family. The rename drops the old key and re-attaches its value under
// the new one in a single statement, so rows never hold both keys.
// With doUpdate false only the affected row count is reported.
func (r *GormTagRepository) MigrateKey(ctx context.Context, objectType tag.ObjectType, fromKey, toKey string, doUpdate bool) (tag.MigrationResult, error) {
	result := tag.MigrationResult{
		ObjectType: objectType,
		FromKey:    fromKey,
		ToKey:      toKey,
	}
	table, err := tagTableFor(objectType)
	if err != nil {
		return result, err
	}
	if fromKey == "" || toKey == "" {
		return result, shared.NewValidationError("Tag keys cannot be empty")
	}
	if fromKey == toKey {
		return result, shared.NewValidationError("Old and new tag keys are identical")
	}

	if !doUpdate {
		var count int64
		err := r.db.WithContext(ctx).
			Table(table).
			Where("jsonb_exists(tags, ?) AND deleted_at IS NULL", fromKey).
			Count(&count).Error
		if err != nil {
			return result, err
		}
		result.Count = count
		return result, nil
	}

	// jsonb_exists avoids the jsonb ? operator, which collides with
	// statement placeholders
	sql := fmt.Sprintf(
		"UPDATE %s SET tags = (tags - ?) || jsonb_build_object(?, tags -> ?), updated_at = NOW() "+
			"WHERE jsonb_exists(tags, ?) AND deleted_at IS NULL", table)
	exec := r.db.WithContext(ctx).Exec(sql, fromKey, toKey, fromKey, fromKey)
	if exec.Error != nil {
		return result, exec.Error
	}
	result.Count = exec.RowsAffected
	result.Applied = true
	return result, nil
}

// UpdateTags merges one tag key/value into each of the given rows. The
// jsonb concatenation keeps every other key on the row intact.
func (r *GormTagRepository) UpdateTags(ctx context.Context, objectType tag.ObjectType, ids []uuid.UUID, key, value string) error {
	table, err := tagTableFor(objectType)
	if err != nil {
		return err
	}
	if key == "" {
		return shared.NewValidationError("Tag key cannot be empty")
	}
	if len(ids) == 0 {
		return nil
	}
	sql := fmt.Sprintf(
		"UPDATE %s SET tags = tags || jsonb_build_object(?::text, ?::text), updated_at = NOW() "+
			"WHERE id IN ? AND deleted_at IS NULL", table)
	return r.db.WithContext(ctx).Exec(sql, key, value, ids).Error
}

// DistinctKeys lists every tag key in use by the aggregate family
func (r *GormTagRepository) DistinctKeys(ctx context.Context, objectType tag.ObjectType) ([]string, error) {
	table, err := tagTableFor(objectType)
	if err != nil {
		return nil, err
	}
	keys := []string{}
	sql := fmt.Sprintf(
		"SELECT DISTINCT t.key FROM %s, jsonb_each_text(tags) AS t "+
			"WHERE deleted_at IS NULL ORDER BY t.key", table)
	if err := r.db.WithContext(ctx).Raw(sql).Scan(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// DistinctValues lists every value in use under one tag key
func (r *GormTagRepository) DistinctValues(ctx context.Context, objectType tag.ObjectType, key string) ([]string, error) {
	table, err := tagTableFor(objectType)
	if err != nil {
		return nil, err
	}
	values := []string{}
	sql := fmt.Sprintf(
		"SELECT DISTINCT tags ->> ? AS value FROM %s "+
			"WHERE jsonb_exists(tags, ?) AND deleted_at IS NULL ORDER BY value", table)
	if err := r.db.WithContext(ctx).Raw(sql, key, key).Scan(&values).Error; err != nil {
		return nil, err
	}
	return values, nil
}

var _ tag.SettingRepository = (*GormTagRepository)(nil)
var _ tag.ObjectRepository = (*GormTagRepository)(nil)
