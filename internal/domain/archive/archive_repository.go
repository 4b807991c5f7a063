package archive

import (
	"context"
	"time"

	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ListRow is the flattened projection returned by archive listings
type ListRow struct {
	ID                    uuid.UUID  `gorm:"column:id"`
	Title                 string     `gorm:"column:title"`
	Content               string     `gorm:"column:content"`
	ArchiveDate           *time.Time `gorm:"column:archive_date"`
	AuthorName            string     `gorm:"column:author_name"`
	AssociatedForestRepr  string     `gorm:"column:associated_forest_repr"`
	OurParticipantsRepr   string     `gorm:"column:our_participants_repr"`
	TheirParticipantsRepr string     `gorm:"column:their_participants_repr"`
	TagsRepr              string     `gorm:"column:tags_repr"`
}

// Repository is the persistence port for consultation records
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Archive, error)
	// FindByIDs loads the given records; an empty slice loads all records
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Archive, error)
	Save(ctx context.Context, a *Archive) error
	// SaveAttributes persists only the attributes column and updated-at
	SaveAttributes(ctx context.Context, a *Archive) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, query shared.ListQuery, filter shared.Predicate) ([]ListRow, int64, error)
}
