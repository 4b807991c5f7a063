package persistence

import (
	"github.com/forestcrm/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// tagsReprSQL flattens a jsonb tag map into the "key:value,key:value"
// display string. It must stay in sync with the in-process tag repr so
// filtering on tags matches what listings show.
const tagsReprSQL = "(SELECT string_agg(concat_ws(':', key, value), ',') FROM jsonb_each_text(%s.tags))"

// runListQuery applies the filter predicate to an annotated subquery
// exposed under the alias "listing", counts the matching rows, then
// orders and paginates into dest. The count runs before the limit so
// totals cover the whole result set. Predicates may correlate against
// listing.id and the other annotated columns.
func runListQuery(db *gorm.DB, sub *gorm.DB, filter shared.Predicate, query shared.ListQuery, orderClause string, dest interface{}) (int64, error) {
	base := func() *gorm.DB {
		scope := db.Table("(?) AS listing", sub)
		if !filter.IsZero() {
			scope = scope.Where(filter.SQL, filter.Args...)
		}
		return scope
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return 0, err
	}

	scope := base().Order(orderClause)
	if !query.ForCSV && query.PerPage > 0 {
		scope = scope.Offset(query.Offset()).Limit(query.PerPage)
	}
	if err := scope.Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}
