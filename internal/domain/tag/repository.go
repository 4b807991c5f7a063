package tag

import (
	"context"

	"github.com/google/uuid"
)

// MigrationResult reports one tag-key migration run
type MigrationResult struct {
	ObjectType ObjectType `json:"object_type"`
	FromKey    string     `json:"from_key"`
	ToKey      string     `json:"to_key"`
	Count      int64      `json:"count"`
	Applied    bool       `json:"applied"`
}

// ObjectRepository operates on the tag maps stored on the aggregate
// tables themselves
type ObjectRepository interface {
	// MigrateKey renames a tag key across every row of the aggregate
	// family carrying it. With doUpdate false it only counts the rows
	// that would change.
	MigrateKey(ctx context.Context, objectType ObjectType, fromKey, toKey string, doUpdate bool) (MigrationResult, error)

	// UpdateTags merges one tag key/value into each of the given rows,
	// leaving their other tag keys untouched
	UpdateTags(ctx context.Context, objectType ObjectType, ids []uuid.UUID, key, value string) error

	// DistinctKeys lists every tag key in use by the aggregate family
	DistinctKeys(ctx context.Context, objectType ObjectType) ([]string, error)

	// DistinctValues lists every value in use under one tag key
	DistinctValues(ctx context.Context, objectType ObjectType, key string) ([]string, error)
}
