package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVWriter writes UTF-8 CSV with a BOM prefix so Excel opens the
// Japanese headers correctly
type CSVWriter struct {
	writer *csv.Writer
}

// NewCSVWriter writes the BOM and returns a writer for the rows
func NewCSVWriter(w io.Writer) (*CSVWriter, error) {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return nil, fmt.Errorf("failed to write BOM: %w", err)
	}
	return &CSVWriter{writer: csv.NewWriter(w)}, nil
}

// Write writes one record
func (w *CSVWriter) Write(record []string) error {
	return w.writer.Write(record)
}

// WriteAll writes the header followed by every row and flushes
func (w *CSVWriter) WriteAll(header []string, rows [][]string) error {
	if err := w.writer.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.writer.Write(row); err != nil {
			return err
		}
	}
	w.writer.Flush()
	return w.writer.Error()
}

// Flush writes buffered data to the underlying writer
func (w *CSVWriter) Flush() error {
	w.writer.Flush()
	return w.writer.Error()
}
