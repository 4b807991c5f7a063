package shared

import "strings"

// Predicate is a composed boolean condition over a query source: a SQL
// fragment with positional placeholders and its arguments. Predicates
// are built by the filter compiler and consumed by repositories; they
// never mutate the rows they select.
type Predicate struct {
	SQL  string
	Args []interface{}
}

// IsZero reports whether the predicate carries no condition
func (p Predicate) IsZero() bool {
	return p.SQL == ""
}

// AndPredicates conjoins predicates, skipping empty ones
func AndPredicates(preds ...Predicate) Predicate {
	return joinPredicates(" AND ", preds)
}

// OrPredicates disjoins predicates, skipping empty ones
func OrPredicates(preds ...Predicate) Predicate {
	return joinPredicates(" OR ", preds)
}

func joinPredicates(sep string, preds []Predicate) Predicate {
	parts := make([]string, 0, len(preds))
	var args []interface{}
	for _, p := range preds {
		if p.IsZero() {
			continue
		}
		parts = append(parts, "("+p.SQL+")")
		args = append(args, p.Args...)
	}
	if len(parts) == 0 {
		return Predicate{}
	}
	if len(parts) == 1 {
		one := parts[0]
		return Predicate{SQL: one[1 : len(one)-1], Args: args}
	}
	return Predicate{SQL: strings.Join(parts, sep), Args: args}
}
