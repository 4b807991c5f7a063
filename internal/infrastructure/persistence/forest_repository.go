package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/forestcrm/backend/internal/domain/forest"
	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormForestRepository implements forest.Repository using GORM
type GormForestRepository struct {
	db *gorm.DB
}

// NewGormForestRepository creates a new GormForestRepository
func NewGormForestRepository(db *gorm.DB) *GormForestRepository {
	return &GormForestRepository{db: db}
}

// FindByID finds a forest by its ID
func (r *GormForestRepository) FindByID(ctx context.Context, id uuid.UUID) (*forest.Forest, error) {
	var f forest.Forest
	if err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Forest")
		}
		return nil, err
	}
	return &f, nil
}

// FindByIDs loads the given forests; an empty id list loads all forests
func (r *GormForestRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*forest.Forest, error) {
	query := r.db.WithContext(ctx).Where("deleted_at IS NULL")
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	var forests []*forest.Forest
	if err := query.Order("created_at ASC").Find(&forests).Error; err != nil {
		return nil, err
	}
	return forests, nil
}

// FindByInternalID finds a forest by its land-registry identifier
func (r *GormForestRepository) FindByInternalID(ctx context.Context, internalID string) (*forest.Forest, error) {
	var f forest.Forest
	if err := r.db.WithContext(ctx).
		Where("internal_id = ? AND deleted_at IS NULL", internalID).
		First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Forest")
		}
		return nil, err
	}
	return &f, nil
}

// Save creates or updates a forest
func (r *GormForestRepository) Save(ctx context.Context, f *forest.Forest) error {
	return r.db.WithContext(ctx).Save(f).Error
}

// SaveAttributes persists only the attributes column and updated-at.
// Cache rebuilds go through here so they never clobber concurrent
// edits to the other columns.
func (r *GormForestRepository) SaveAttributes(ctx context.Context, f *forest.Forest) error {
	return r.db.WithContext(ctx).
		Model(&forest.Forest{}).
		Where("id = ?", f.ID).
		Updates(map[string]interface{}{
			"attributes": f.Attributes,
			"updated_at": f.UpdatedAt,
		}).Error
}

// Delete soft-deletes a forest
func (r *GormForestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&forest.Forest{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", gorm.Expr("NOW()"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Forest")
	}
	return nil
}

// forestListSelect annotates each forest row with the flattened columns
// the filter contract exposes. Owner reprs come from the cached rollup
// in attributes; contract fields index the jsonb list with the primary
// contract first and the FSC contract last.
var forestListSelect = fmt.Sprintf(`f.id,
f.internal_id,
f.cadastral->>'municipality' AS municipality,
f.cadastral->>'sector' AS sector,
f.land_attributes,
f.attributes->'customer_cache'->>'repr_name_kanji' AS owner_name_kanji,
f.attributes->'customer_cache'->>'repr_name_kana' AS owner_name_kana,
f.contracts->0->>'type' AS contract_type,
f.contracts->0->>'status' AS contract_status,
f.contracts->0->>'start_date' AS contract_start_date,
f.contracts->0->>'end_date' AS contract_end_date,
f.contracts->-1->>'status' AS fsc_status,
f.contracts->-1->>'start_date' AS fsc_start_date,
`+tagsReprSQL+` AS tags_repr,
COALESCE((SELECT json_agg(json_build_object(
	'customer_id', fc.customer_id,
	'default', COALESCE((fc.attributes->>'default')::boolean, false)) ORDER BY fc.created_at)
	FROM forest_customers fc
	WHERE fc.forest_id = f.id AND fc.deleted_at IS NULL), '[]')::text AS customers_json,
f.created_at,
f.updated_at`, "f")

// List returns the filtered, ordered forest listing with its total
func (r *GormForestRepository) List(ctx context.Context, query shared.ListQuery, filter shared.Predicate) ([]forest.ListRow, int64, error) {
	orderClause, err := OrderClause(query, ForestSortFields, "internal_id ASC")
	if err != nil {
		return nil, 0, err
	}

	sub := r.db.WithContext(ctx).
		Table("forests f").
		Select(forestListSelect).
		Where("f.deleted_at IS NULL")

	var rows []forest.ListRow
	total, err := runListQuery(r.db.WithContext(ctx), sub, filter, query, orderClause, &rows)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

var _ forest.Repository = (*GormForestRepository)(nil)
