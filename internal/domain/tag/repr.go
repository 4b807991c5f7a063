package tag

import (
	"sort"
	"strings"

	"github.com/forestcrm/backend/internal/domain/shared"
)

// Repr reduces a tags map to the canonical search repr "key1:value1,key2:value2".
// Keys are emitted in sorted order and keys with empty values are skipped, so
// the result matches what the database-side repr expression produces for the
// same row. Both the filter compiler and row serialization go through this
// one function.
func Repr(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		if tags[k] == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+":"+tags[k])
	}
	return strings.Join(pairs, ",")
}

// ParseRepr parses the search repr "key1:value1,key2:value2" back into
// a map. Malformed pairs are skipped; the repr is machine-produced so a
// bad pair only ever comes from hand-edited data.
func ParseRepr(s string) map[string]string {
	tags := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), ":")
		if !found || key == "" {
			continue
		}
		tags[key] = value
	}
	return tags
}

// ToCSV serializes a tags map for spreadsheet export: "key1:value1; key2:value2".
// The output round-trips through ParseCSV.
func ToCSV(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+":"+tags[k])
	}
	return strings.Join(pairs, "; ")
}

// ParseCSV parses the CSV tag cell format "key1:value1; key2:value2" back
// into a map. An empty cell yields an empty map. A pair without a colon is
// a format error.
func ParseCSV(s string) (map[string]string, error) {
	tags := map[string]string{}
	s = strings.TrimSpace(s)
	if s == "" {
		return tags, nil
	}
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, found := strings.Cut(pair, ":")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, shared.NewValidationError("Invalid format (tag1:value1; tag2:value2)")
		}
		tags[key] = strings.TrimSpace(value)
	}
	return tags, nil
}
