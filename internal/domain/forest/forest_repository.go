package forest

import (
	"context"

	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ListRow is the flattened projection returned by forest listings.
// Computed columns mirror the annotated subquery the repository builds.
type ListRow struct {
	ID                  uuid.UUID `gorm:"column:id"`
	InternalID          string    `gorm:"column:internal_id"`
	Municipality        string    `gorm:"column:municipality"`
	Sector              string    `gorm:"column:sector"`
	OwnerNameKanji      string    `gorm:"column:owner_name_kanji"`
	OwnerNameKana       string    `gorm:"column:owner_name_kana"`
	ContractType        string    `gorm:"column:contract_type"`
	ContractStatus      string    `gorm:"column:contract_status"`
	ContractStartDate   string    `gorm:"column:contract_start_date"`
	ContractEndDate     string    `gorm:"column:contract_end_date"`
	FSCStatus           string    `gorm:"column:fsc_status"`
	FSCStartDate        string    `gorm:"column:fsc_start_date"`
	TagsRepr            string    `gorm:"column:tags_repr"`
	CustomersJSON       string    `gorm:"column:customers_json"`
}

// Repository is the persistence port for forest parcels
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Forest, error)
	// FindByIDs loads the given parcels; an empty slice loads all parcels
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Forest, error)
	FindByInternalID(ctx context.Context, internalID string) (*Forest, error)
	Save(ctx context.Context, f *Forest) error
	// SaveAttributes persists only the attributes column and updated-at,
	// used by cache refresh so it never races other field updates
	SaveAttributes(ctx context.Context, f *Forest) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, query shared.ListQuery, filter shared.Predicate) ([]ListRow, int64, error)
}
