package postal

import (
	"context"
	"time"

	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ListRow is the flattened projection returned by postal history listings
type ListRow struct {
	ID                   uuid.UUID  `gorm:"column:id"`
	Title                string     `gorm:"column:title"`
	Content              string     `gorm:"column:content"`
	SentDate             *time.Time `gorm:"column:sent_date"`
	AuthorName           string     `gorm:"column:author_name"`
	AssociatedForestRepr string     `gorm:"column:associated_forest_repr"`
	RecipientsRepr       string     `gorm:"column:recipients_repr"`
	SendersRepr          string     `gorm:"column:senders_repr"`
	TagsRepr             string     `gorm:"column:tags_repr"`
}

// Repository is the persistence port for mailing records
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PostalHistory, error)
	// FindByIDs loads the given records; an empty slice loads all records
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*PostalHistory, error)
	Save(ctx context.Context, p *PostalHistory) error
	// SaveAttributes persists only the attributes column and updated-at
	SaveAttributes(ctx context.Context, p *PostalHistory) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, query shared.ListQuery, filter shared.Predicate) ([]ListRow, int64, error)
}
