package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/forestcrm/backend/internal/domain/archive"
	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormArchiveRepository implements archive.Repository using GORM
type GormArchiveRepository struct {
	db *gorm.DB
}

// NewGormArchiveRepository creates a new GormArchiveRepository
func NewGormArchiveRepository(db *gorm.DB) *GormArchiveRepository {
	return &GormArchiveRepository{db: db}
}

// FindByID finds a consultation record by id
func (r *GormArchiveRepository) FindByID(ctx context.Context, id uuid.UUID) (*archive.Archive, error) {
	var a archive.Archive
	if err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Archive")
		}
		return nil, err
	}
	return &a, nil
}

// FindByIDs loads the given records; an empty id list loads all records
func (r *GormArchiveRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*archive.Archive, error) {
	query := r.db.WithContext(ctx).Where("deleted_at IS NULL")
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	var archives []*archive.Archive
	if err := query.Order("created_at ASC").Find(&archives).Error; err != nil {
		return nil, err
	}
	return archives, nil
}

// Save creates or updates a consultation record
func (r *GormArchiveRepository) Save(ctx context.Context, a *archive.Archive) error {
	return r.db.WithContext(ctx).Save(a).Error
}

// SaveAttributes persists only the attributes column and updated-at
func (r *GormArchiveRepository) SaveAttributes(ctx context.Context, a *archive.Archive) error {
	return r.db.WithContext(ctx).
		Model(&archive.Archive{}).
		Where("id = ?", a.ID).
		Updates(map[string]interface{}{
			"attributes": a.Attributes,
			"updated_at": a.UpdatedAt,
		}).Error
}

// Delete soft-deletes a consultation record
func (r *GormArchiveRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&archive.Archive{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", gorm.Expr("NOW()"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Archive")
	}
	return nil
}

// archiveForestTagsSQL aggregates the tag reprs of the record's active
// linked forests so a tag filter also finds records through the forests
// they concern
var archiveForestTagsSQL = fmt.Sprintf(`(SELECT string_agg(%s, ',')
	FROM archive_forests af
	JOIN forests f ON f.id = af.forest_id
	WHERE af.archive_id = a.id AND af.deleted_at IS NULL AND f.deleted_at IS NULL)`,
	fmt.Sprintf(tagsReprSQL, "f"))

// archiveListSelect annotates each record with the author's display
// name and the cached rollup reprs its filter contract names
var archiveListSelect = fmt.Sprintf(`a.id,
a.title,
a.content,
a.archive_date,
a.author_id,
trim(concat_ws(' ', u.last_name, u.first_name)) AS author_name,
a.attributes->'forest_cache'->>'repr' AS associated_forest_repr,
a.attributes->'user_cache'->>'repr' AS our_participants_repr,
a.attributes->'customer_cache'->>'repr' AS their_participants_repr,
`+tagsReprSQL+` AS tags_repr,
`+archiveForestTagsSQL+` AS forest_tags_repr,
a.created_at,
a.updated_at`, "a")

// List returns the filtered, ordered archive listing with its total
func (r *GormArchiveRepository) List(ctx context.Context, query shared.ListQuery, filter shared.Predicate) ([]archive.ListRow, int64, error) {
	orderClause, err := OrderClause(query, ArchiveSortFields, "archive_date DESC NULLS LAST, created_at DESC")
	if err != nil {
		return nil, 0, err
	}

	sub := r.db.WithContext(ctx).
		Table("archives a").
		Select(archiveListSelect).
		Joins("LEFT JOIN users u ON u.id = a.author_id").
		Where("a.deleted_at IS NULL")

	var rows []archive.ListRow
	total, err := runListQuery(r.db.WithContext(ctx), sub, filter, query, orderClause, &rows)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

var _ archive.Repository = (*GormArchiveRepository)(nil)
