package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// CSVParser reads UTF-8 CSV files the office tooling produces: a BOM
// prefix from Excel is tolerated, headers are Japanese column names,
// and every row keeps its 1-based line number for error reporting.
type CSVParser struct {
	headerMap  map[string]int
	headers    []string
	currentRow int
	reader     *csv.Reader
	bufReader  *bufio.Reader
}

// NewCSVParser creates a CSV parser from a reader
func NewCSVParser(r io.Reader) (*CSVParser, error) {
	parser := &CSVParser{
		headerMap: make(map[string]int),
		bufReader: bufio.NewReader(r),
	}

	content, err := parser.bufReader.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	// UTF-8 BOM: 0xEF, 0xBB, 0xBF
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		_, _ = parser.bufReader.Discard(3)
	}

	if err := validateUTF8(parser.bufReader); err != nil {
		return nil, err
	}

	parser.reader = csv.NewReader(parser.bufReader)
	parser.reader.LazyQuotes = true
	parser.reader.TrimLeadingSpace = true
	parser.reader.FieldsPerRecord = -1

	return parser, nil
}

// ParseFromBytes creates a parser from a byte slice
func ParseFromBytes(data []byte) (*CSVParser, error) {
	return NewCSVParser(bytes.NewReader(data))
}

// validateUTF8 vets the head of the file so obviously wrong encodings
// (Shift_JIS exports, binary uploads) fail before any row is parsed.
// Full coverage comes from validateRecord, which checks every record
// as it is read.
func validateUTF8(r *bufio.Reader) error {
	const checkSize = 4096
	content, err := r.Peek(checkSize)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file for encoding validation: %w", err)
	}
	if len(content) == 0 {
		return ErrEmptyFile
	}
	// A multi-byte rune may straddle the peek boundary, so only whole
	// bytes before the last rune start count as evidence
	if len(content) == checkSize {
		content = content[:lastRuneStart(content)]
	}
	if !utf8.Valid(content) {
		return ErrInvalidEncoding
	}
	return nil
}

// lastRuneStart returns the offset of the final UTF-8 rune start in b,
// so a truncated trailing rune is not mistaken for bad encoding
func lastRuneStart(b []byte) int {
	for i := len(b) - 1; i >= 0 && len(b)-i <= utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			return i
		}
	}
	return len(b)
}

func validateRecord(record []string, line int) error {
	for _, field := range record {
		if !utf8.ValidString(field) {
			return fmt.Errorf("line %d: %w", line, ErrInvalidEncoding)
		}
	}
	return nil
}

// ParseHeader reads and parses the header row
func (p *CSVParser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	if err := validateRecord(record, 1); err != nil {
		return err
	}

	p.headers = make([]string, len(record))
	for i, h := range record {
		header := trimSpaces(h)
		p.headers[i] = header
		p.headerMap[header] = i
	}
	if len(p.headers) == 0 {
		return ErrMissingHeader
	}

	p.currentRow = 1
	return nil
}

// Headers returns the parsed header names in file order
func (p *CSVParser) Headers() []string {
	return p.headers
}

// HasHeader checks if a header exists
func (p *CSVParser) HasHeader(name string) bool {
	_, ok := p.headerMap[name]
	return ok
}

// MissingHeaders returns the required headers absent from the file
func (p *CSVParser) MissingHeaders(required []string) []string {
	var missing []string
	for _, h := range required {
		if !p.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

// Row is one parsed CSV row with its 1-based line number
type Row struct {
	LineNumber int
	Data       map[string]string
}

// Get returns the value for a column by header name
func (r *Row) Get(header string) string {
	return r.Data[header]
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow reads the next row from the CSV
func (p *CSVParser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		p.currentRow++
		return nil, fmt.Errorf("error reading row %d: %w", p.currentRow, err)
	}
	p.currentRow++
	if err := validateRecord(record, p.currentRow); err != nil {
		return nil, err
	}

	row := &Row{
		LineNumber: p.currentRow,
		Data:       make(map[string]string, len(p.headers)),
	}
	for i, header := range p.headers {
		if i < len(record) {
			row.Data[header] = trimSpaces(record[i])
		} else {
			row.Data[header] = ""
		}
	}
	return row, nil
}

// ReadAllRows reads the remaining rows, skipping fully empty ones
func (p *CSVParser) ReadAllRows() ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, err
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// trimSpaces trims ASCII whitespace and ideographic spaces, which
// Japanese spreadsheets pad cells with
func trimSpaces(s string) string {
	return strings.Trim(s, " \t\n\r\v\f　")
}
