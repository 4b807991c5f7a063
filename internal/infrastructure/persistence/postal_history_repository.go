package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/forestcrm/backend/internal/domain/postal"
	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPostalHistoryRepository implements postal.Repository using GORM
type GormPostalHistoryRepository struct {
	db *gorm.DB
}

// NewGormPostalHistoryRepository creates a new GormPostalHistoryRepository
func NewGormPostalHistoryRepository(db *gorm.DB) *GormPostalHistoryRepository {
	return &GormPostalHistoryRepository{db: db}
}

// FindByID finds a mailing record by id
func (r *GormPostalHistoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*postal.PostalHistory, error) {
	var p postal.PostalHistory
	if err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("PostalHistory")
		}
		return nil, err
	}
	return &p, nil
}

// FindByIDs loads the given records; an empty id list loads all records
func (r *GormPostalHistoryRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*postal.PostalHistory, error) {
	query := r.db.WithContext(ctx).Where("deleted_at IS NULL")
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	var histories []*postal.PostalHistory
	if err := query.Order("created_at ASC").Find(&histories).Error; err != nil {
		return nil, err
	}
	return histories, nil
}

// Save creates or updates a mailing record
func (r *GormPostalHistoryRepository) Save(ctx context.Context, p *postal.PostalHistory) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// SaveAttributes persists only the attributes column and updated-at
func (r *GormPostalHistoryRepository) SaveAttributes(ctx context.Context, p *postal.PostalHistory) error {
	return r.db.WithContext(ctx).
		Model(&postal.PostalHistory{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"attributes": p.Attributes,
			"updated_at": p.UpdatedAt,
		}).Error
}

// Delete soft-deletes a mailing record
func (r *GormPostalHistoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&postal.PostalHistory{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", gorm.Expr("NOW()"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("PostalHistory")
	}
	return nil
}

var postalListSelect = fmt.Sprintf(`p.id,
p.title,
p.content,
p.sent_date,
p.author_id,
trim(concat_ws(' ', u.last_name, u.first_name)) AS author_name,
p.attributes->'forest_cache'->>'repr' AS associated_forest_repr,
p.attributes->'customer_cache'->>'repr' AS recipients_repr,
p.attributes->'user_cache'->>'repr' AS senders_repr,
`+tagsReprSQL+` AS tags_repr,
p.created_at,
p.updated_at`, "p")

// List returns the filtered, ordered mailing listing with its total
func (r *GormPostalHistoryRepository) List(ctx context.Context, query shared.ListQuery, filter shared.Predicate) ([]postal.ListRow, int64, error) {
	orderClause, err := OrderClause(query, PostalHistorySortFields, "sent_date DESC NULLS LAST, created_at DESC")
	if err != nil {
		return nil, 0, err
	}

	sub := r.db.WithContext(ctx).
		Table("postal_histories p").
		Select(postalListSelect).
		Joins("LEFT JOIN users u ON u.id = p.author_id").
		Where("p.deleted_at IS NULL")

	var rows []postal.ListRow
	total, err := runListQuery(r.db.WithContext(ctx), sub, filter, query, orderClause, &rows)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

var _ postal.Repository = (*GormPostalHistoryRepository)(nil)
