package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forestcrm/backend/internal/domain/tag"
)

func TestGormTagRepository_UpdateTags_MergesSingleKey(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewGormTagRepository(db.DB)

	ids := []uuid.UUID{uuid.New(), uuid.New()}

	// one key is merged via jsonb concatenation; other keys on the row survive
	mock.ExpectExec(`UPDATE forests SET tags = tags \|\| jsonb_build_object\(\$1::text, \$2::text\), updated_at = NOW\(\) WHERE id IN \(\$3,\$4\) AND deleted_at IS NULL`).
		WithArgs("danchi", "A", ids[0], ids[1]).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.UpdateTags(context.Background(), tag.ObjectTypeForest, ids, "danchi", "A")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTagRepository_UpdateTags_EmptyKey(t *testing.T) {
	db, _ := newMockDatabase(t)
	repo := NewGormTagRepository(db.DB)

	err := repo.UpdateTags(context.Background(), tag.ObjectTypeForest, []uuid.UUID{uuid.New()}, "", "A")
	assert.Error(t, err)
}

func TestGormTagRepository_UpdateTags_NoIDs(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewGormTagRepository(db.DB)

	// nothing to update, no statement issued
	err := repo.UpdateTags(context.Background(), tag.ObjectTypeForest, nil, "danchi", "A")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTagRepository_UpdateTags_UnknownObjectType(t *testing.T) {
	db, _ := newMockDatabase(t)
	repo := NewGormTagRepository(db.DB)

	err := repo.UpdateTags(context.Background(), tag.ObjectType("warehouse"), []uuid.UUID{uuid.New()}, "k", "v")
	assert.Error(t, err)
}

func TestGormTagRepository_MigrateKey_DryRunCountsOnly(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewGormTagRepository(db.DB)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "customers" WHERE jsonb_exists\(tags, \$1\) AND deleted_at IS NULL`).
		WithArgs("old").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10000))

	result, err := repo.MigrateKey(context.Background(), tag.ObjectTypeCustomer, "old", "new", false)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), result.Count)
	assert.False(t, result.Applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTagRepository_MigrateKey_Apply(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewGormTagRepository(db.DB)

	mock.ExpectExec(`UPDATE customers SET tags = \(tags - \$1\) \|\| jsonb_build_object\(\$2, tags -> \$3\), updated_at = NOW\(\) WHERE jsonb_exists\(tags, \$4\) AND deleted_at IS NULL`).
		WithArgs("old", "new", "old", "old").
		WillReturnResult(sqlmock.NewResult(0, 10000))

	result, err := repo.MigrateKey(context.Background(), tag.ObjectTypeCustomer, "old", "new", true)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), result.Count)
	assert.True(t, result.Applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTagRepository_MigrateKey_IdenticalKeys(t *testing.T) {
	db, _ := newMockDatabase(t)
	repo := NewGormTagRepository(db.DB)

	_, err := repo.MigrateKey(context.Background(), tag.ObjectTypeForest, "same", "same", true)
	assert.Error(t, err)
}
