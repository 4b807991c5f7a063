package csvimport

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrEmptyFile is returned when the CSV file is empty
	ErrEmptyFile = errors.New("CSV file is empty")

	// ErrInvalidEncoding is returned when the file is not valid UTF-8
	ErrInvalidEncoding = errors.New("invalid file encoding")

	// ErrMissingHeader is returned when the CSV file has no header row
	ErrMissingHeader = errors.New("CSV file missing header row")
)

// RowError reports every invalid field of one CSV row. Imports stop at
// the first bad row, so the user fixes the file top to bottom.
type RowError struct {
	Line   int                 `json:"line"`
	Fields map[string][]string `json:"errors"`
}

// NewRowError creates an empty error report for a row
func NewRowError(line int) *RowError {
	return &RowError{
		Line:   line,
		Fields: make(map[string][]string),
	}
}

// Add records a message against one field of the row
func (e *RowError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// HasErrors reports whether any field failed
func (e *RowError) HasErrors() bool {
	return len(e.Fields) > 0
}

// Error implements the error interface
func (e *RowError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("line %d:", e.Line))
	for _, f := range fields {
		sb.WriteString(fmt.Sprintf(" %s: %s;", f, strings.Join(e.Fields[f], ", ")))
	}
	return strings.TrimSuffix(sb.String(), ";")
}
