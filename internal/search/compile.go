package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/forestcrm/backend/internal/domain/shared"
)

// Compile turns filter criteria into one predicate. Criteria whose
// field name is not in the mapping are silently ignored; recognized
// fields are combined with AND. An empty value matches rows whose
// columns are all NULL or empty.
func Compile(mapping Mapping, criteria map[string]string) shared.Predicate {
	if len(criteria) == 0 {
		return shared.Predicate{}
	}
	fields := make([]string, 0, len(criteria))
	for name := range criteria {
		if _, ok := mapping[name]; ok {
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)

	predicates := make([]shared.Predicate, 0, len(fields))
	for _, name := range fields {
		fm := mapping[name]
		p := compileField(fm, criteria[name])
		if !p.IsZero() {
			predicates = append(predicates, p)
		}
	}
	return shared.AndPredicates(predicates...)
}

func compileField(fm FieldMapping, raw string) shared.Predicate {
	values := splitValues(raw)
	if len(values) == 0 {
		return emptyMatch(fm.Columns)
	}
	alternatives := make([]shared.Predicate, 0, len(values))
	for _, v := range values {
		alternatives = append(alternatives, compileValue(fm, v))
	}
	return shared.OrPredicates(alternatives...)
}

// splitValues implements the comma-OR contract: split, trim, dedupe
// preserving order. A blank input yields no values.
func splitValues(raw string) []string {
	seen := make(map[string]struct{})
	var values []string
	for _, piece := range strings.Split(raw, ",") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		if _, dup := seen[piece]; dup {
			continue
		}
		seen[piece] = struct{}{}
		values = append(values, piece)
	}
	return values
}

func compileValue(fm FieldMapping, value string) shared.Predicate {
	switch fm.Kind {
	case Equality:
		alternatives := make([]shared.Predicate, 0, len(fm.Columns))
		for _, col := range fm.Columns {
			alternatives = append(alternatives, shared.Predicate{
				SQL:  fmt.Sprintf("LOWER(%s) = LOWER(?)", col),
				Args: []interface{}{value},
			})
		}
		return shared.OrPredicates(alternatives...)
	case TokenAll:
		return compileTokens(fm.Columns, value)
	default:
		return substringMatch(fm.Columns, value)
	}
}

// compileTokens requires every whitespace-separated token to match.
// Ideographic spaces are treated as separators so Japanese full names
// written either way split the same.
func compileTokens(columns []string, value string) shared.Predicate {
	normalized := strings.ReplaceAll(value, "　", " ")
	tokens := strings.Fields(normalized)
	if len(tokens) == 0 {
		return shared.Predicate{}
	}
	conjuncts := make([]shared.Predicate, 0, len(tokens))
	for _, token := range tokens {
		conjuncts = append(conjuncts, substringMatch(columns, token))
	}
	return shared.AndPredicates(conjuncts...)
}

func substringMatch(columns []string, value string) shared.Predicate {
	pattern := "%" + escapeLike(value) + "%"
	alternatives := make([]shared.Predicate, 0, len(columns))
	for _, col := range columns {
		alternatives = append(alternatives, shared.Predicate{
			SQL:  fmt.Sprintf("%s ILIKE ?", col),
			Args: []interface{}{pattern},
		})
	}
	return shared.OrPredicates(alternatives...)
}

func emptyMatch(columns []string) shared.Predicate {
	alternatives := make([]shared.Predicate, 0, len(columns))
	for _, col := range columns {
		alternatives = append(alternatives, shared.Predicate{
			SQL: fmt.Sprintf("(%s IS NULL OR %s = '')", col, col),
		})
	}
	return shared.OrPredicates(alternatives...)
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
