package persistence

import (
	"strings"

	"github.com/forestcrm/backend/internal/domain/shared"
)

// ValidateSortField validates a sort field against a whitelist of
// allowed columns. Sort fields reach the SQL ORDER BY verbatim, so
// anything outside the whitelist is rejected.
func ValidateSortField(sortField string, allowedFields map[string]bool) (string, error) {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" || !allowedFields[trimmed] {
		return "", shared.NewValidationError("invalid sort field: " + sortField)
	}
	return trimmed, nil
}

// OrderClause builds the ORDER BY clause from the query's sort columns,
// validating every column against the whitelist. With no sort columns
// the default clause applies.
func OrderClause(query shared.ListQuery, allowedFields map[string]bool, defaultClause string) (string, error) {
	cols := query.SortColumns()
	if len(cols) == 0 {
		return defaultClause, nil
	}
	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		name, err := ValidateSortField(col.Name, allowedFields)
		if err != nil {
			return "", err
		}
		if col.Desc {
			parts = append(parts, name+" DESC")
		} else {
			parts = append(parts, name+" ASC")
		}
	}
	return strings.Join(parts, ", "), nil
}

// ForestSortFields contains allowed sort fields for forest listings
var ForestSortFields = map[string]bool{
	"id":                  true,
	"created_at":          true,
	"updated_at":          true,
	"internal_id":         true,
	"municipality":        true,
	"sector":              true,
	"owner_name_kanji":    true,
	"owner_name_kana":     true,
	"contract_type":       true,
	"contract_status":     true,
	"contract_start_date": true,
	"contract_end_date":   true,
	"fsc_status":          true,
	"fsc_start_date":      true,
	"tags_repr":           true,
}

// CustomerSortFields contains allowed sort fields for customer listings
var CustomerSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"internal_id":    true,
	"business_id":    true,
	"fullname_kanji": true,
	"fullname_kana":  true,
	"postal_code":    true,
	"prefecture":     true,
	"municipality":   true,
	"address":        true,
	"telephone":      true,
	"mobilephone":    true,
	"email":          true,
	"tags_repr":      true,
}

// ArchiveSortFields contains allowed sort fields for archive listings
var ArchiveSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"title":        true,
	"archive_date": true,
	"author_name":  true,
	"tags_repr":    true,
}

// PostalHistorySortFields contains allowed sort fields for mailing listings
var PostalHistorySortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"title":       true,
	"sent_date":   true,
	"author_name": true,
	"tags_repr":   true,
}

// UserSortFields contains allowed sort fields for user listings
var UserSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"last_name":  true,
	"first_name": true,
	"email":      true,
}
