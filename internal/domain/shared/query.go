package shared

import "strings"

// ListQuery carries pagination and ordering for listing operations.
// PrePerPage, when set, keeps the row offset stable for a client that
// changed its page size mid-session: the offset is computed from the
// previous page size while the limit uses the new one.
type ListQuery struct {
	PageNum    int
	PerPage    int
	PrePerPage int
	OrderBy    []string // column names, "-" prefix for descending
	ForCSV     bool     // export path: no pagination, heavier joins
}

// DefaultListQuery returns a query for the first page with default sizing
func DefaultListQuery() ListQuery {
	return ListQuery{PageNum: 1, PerPage: 10}
}

// Offset computes the row offset from the page number and the
// pre-change page size when one is present.
func (q ListQuery) Offset() int {
	per := q.PerPage
	if q.PrePerPage > 0 {
		per = q.PrePerPage
	}
	page := q.PageNum
	if page < 1 {
		page = 1
	}
	return per * (page - 1)
}

// SortColumns normalizes OrderBy into (column, descending) pairs.
func (q ListQuery) SortColumns() []SortColumn {
	cols := make([]SortColumn, 0, len(q.OrderBy))
	for _, raw := range q.OrderBy {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		desc := false
		if strings.HasPrefix(name, "-") {
			desc = true
			name = name[1:]
		}
		cols = append(cols, SortColumn{Name: name, Desc: desc})
	}
	return cols
}

// SortColumn is one ordering term
type SortColumn struct {
	Name string
	Desc bool
}

// NormalizeSort pairs sort field names with direction flags. The two
// slices must have equal length; a mismatch is a hard validation error
// since silently misapplying directions would corrupt ordering.
func NormalizeSort(sortBy []string, sortDesc []bool) ([]string, error) {
	if len(sortBy) != len(sortDesc) {
		return nil, NewValidationError("sort_by and sort_desc must have the same length")
	}
	out := make([]string, 0, len(sortBy))
	for i, name := range sortBy {
		if sortDesc[i] {
			out = append(out, "-"+name)
		} else {
			out = append(out, name)
		}
	}
	return out, nil
}

// Paginated represents a paginated result
type Paginated[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// NewPaginated creates a new paginated result
func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	return Paginated[T]{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
}
