// Package search compiles logical filter criteria into SQL predicates.
// Every aggregate exposes a mapping table from logical field names to
// the physical columns of its listing subquery; criteria with unknown
// field names are ignored.
package search

// MatchKind selects how a filter value is matched against its columns
type MatchKind int

const (
	// Substring matches case-insensitively anywhere in the column
	Substring MatchKind = iota
	// Equality matches the whole column value case-insensitively
	Equality
	// TokenAll splits the value on spaces and requires every token to
	// match as a substring, used for person-name search
	TokenAll
)

// FieldMapping binds one logical filter field to physical columns. A
// field with several columns matches when any column matches.
type FieldMapping struct {
	Columns []string
	Kind    MatchKind
}

// Mapping is the filter contract of one aggregate's listing
type Mapping map[string]FieldMapping

// Fields returns the logical field names the mapping accepts
func (m Mapping) Fields() []string {
	fields := make([]string, 0, len(m))
	for name := range m {
		fields = append(fields, name)
	}
	return fields
}
