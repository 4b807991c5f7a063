package persistence

import (
	"testing"

	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSortField(t *testing.T) {
	allowed := map[string]bool{"internal_id": true, "created_at": true}

	t.Run("accepts whitelisted field", func(t *testing.T) {
		field, err := ValidateSortField("internal_id", allowed)
		require.NoError(t, err)
		assert.Equal(t, "internal_id", field)
	})

	t.Run("trims whitespace", func(t *testing.T) {
		field, err := ValidateSortField("  created_at ", allowed)
		require.NoError(t, err)
		assert.Equal(t, "created_at", field)
	})

	t.Run("rejects unknown field", func(t *testing.T) {
		_, err := ValidateSortField("attributes->>'x'", allowed)
		assert.Error(t, err)
	})

	t.Run("rejects empty field", func(t *testing.T) {
		_, err := ValidateSortField("", allowed)
		assert.Error(t, err)
	})
}

func TestOrderClause(t *testing.T) {
	allowed := map[string]bool{"internal_id": true, "municipality": true}

	t.Run("default when no sort columns", func(t *testing.T) {
		clause, err := OrderClause(shared.ListQuery{}, allowed, "internal_id ASC")
		require.NoError(t, err)
		assert.Equal(t, "internal_id ASC", clause)
	})

	t.Run("builds ascending and descending terms", func(t *testing.T) {
		query := shared.ListQuery{OrderBy: []string{"-municipality", "internal_id"}}
		clause, err := OrderClause(query, allowed, "internal_id ASC")
		require.NoError(t, err)
		assert.Equal(t, "municipality DESC, internal_id ASC", clause)
	})

	t.Run("rejects a non-whitelisted column anywhere in the list", func(t *testing.T) {
		query := shared.ListQuery{OrderBy: []string{"internal_id", "evil; DROP TABLE forests"}}
		_, err := OrderClause(query, allowed, "internal_id ASC")
		assert.Error(t, err)
	})

	t.Run("skips blank entries", func(t *testing.T) {
		query := shared.ListQuery{OrderBy: []string{"", "internal_id"}}
		clause, err := OrderClause(query, allowed, "created_at DESC")
		require.NoError(t, err)
		assert.Equal(t, "internal_id ASC", clause)
	})
}
