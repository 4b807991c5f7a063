package postal

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/forestcrm/backend/internal/search"
)

func TestScopePredicate_Unrestricted(t *testing.T) {
	pred := scopePredicate(search.AccessContext{UserID: uuid.New(), Restricted: false})
	assert.True(t, pred.IsZero())
}

func TestScopePredicate_RestrictedScopesByMembership(t *testing.T) {
	callerID := uuid.New()
	pred := scopePredicate(search.AccessContext{UserID: callerID, Restricted: true})

	// authored records, or an active sender link for the caller
	assert.Contains(t, pred.SQL, "listing.author_id = ?")
	assert.Contains(t, pred.SQL, "EXISTS (SELECT 1 FROM postal_history_users pu")
	assert.Contains(t, pred.SQL, "pu.postal_history_id = listing.id")
	assert.Contains(t, pred.SQL, "pu.user_id = ?")
	assert.Contains(t, pred.SQL, "pu.deleted_at IS NULL")
	assert.Equal(t, []interface{}{callerID, callerID}, pred.Args)

	// membership comes from the link table, never the display rollup
	assert.NotContains(t, pred.SQL, "repr")
	assert.NotContains(t, pred.SQL, "ILIKE")
}
