package search

import (
	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AccessContext carries the caller's identity and visibility scope.
// Handlers build it once from the authenticated request and pass it
// down explicitly; nothing below the interface layer reads ambient
// request state.
type AccessContext struct {
	UserID     uuid.UUID
	Restricted bool
}

// ScopePredicate returns the extra predicate a restricted caller's
// listings must satisfy: only records the caller authored. Unrestricted
// callers get a zero predicate.
func (ac AccessContext) ScopePredicate(authorColumn string) shared.Predicate {
	if !ac.Restricted {
		return shared.Predicate{}
	}
	return shared.Predicate{
		SQL:  authorColumn + " = ?",
		Args: []interface{}{ac.UserID},
	}
}
