// Package listing holds the request shape shared by every aggregate
// listing service: free-form filter criteria plus ordering and
// pagination controls.
package listing

import (
	"github.com/forestcrm/backend/internal/domain/shared"
)

// Request carries listing criteria, ordering and pagination
type Request struct {
	Criteria   map[string]string `json:"criteria"`
	PageNum    int               `json:"page_num"`
	PerPage    int               `json:"per_page"`
	PrePerPage int               `json:"pre_per_page"`
	SortBy     []string          `json:"sort_by"`
	SortDesc   []bool            `json:"sort_desc"`
}

// ListQuery converts the request into the repository query, validating
// the sort arity before anything touches the database
func (r Request) ListQuery() (shared.ListQuery, error) {
	orderBy, err := shared.NormalizeSort(r.SortBy, r.SortDesc)
	if err != nil {
		return shared.ListQuery{}, err
	}
	q := shared.DefaultListQuery()
	if r.PageNum > 0 {
		q.PageNum = r.PageNum
	}
	if r.PerPage > 0 {
		q.PerPage = r.PerPage
	}
	q.PrePerPage = r.PrePerPage
	q.OrderBy = orderBy
	return q, nil
}
