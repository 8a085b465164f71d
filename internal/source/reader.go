// Package source decodes tabular source files (CSV-like text and .xlsx) into
// header + rows of raw strings.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoHeader is returned for files with no header row.
var ErrNoHeader = errors.New("no header row")

// Table is a decoded file. Rows may be shorter or longer than Header.
type Table struct {
	Header    []string
	Rows      [][]string
	Encoding  string
	Delimiter string
}

// Cell returns row[i] trimmed, or "" when the row is too short.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

const extXLSX = ".xlsx"

var textExtensions = map[string]bool{
	".csv": true,
	".tsv": true,
	".txt": true,
}

// IsTabular reports whether name has an extension the reader understands.
func IsTabular(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return textExtensions[ext] || ext == extXLSX
}

// Reader decodes source files using a fixed secondary text encoding.
type Reader struct {
	secondary Encoding
}

// NewReader creates a Reader that falls back to secondary when a text file is
// not valid UTF-8.
func NewReader(secondary Encoding) *Reader {
	return &Reader{secondary: secondary}
}

// ReadFile decodes the file at path.
func (r *Reader) ReadFile(path string) (*Table, error) {
	if strings.EqualFold(filepath.Ext(path), extXLSX) {
		return readXLSX(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return r.Parse(data)
}

// Parse decodes CSV-like bytes: encoding fallback, delimiter detection, then
// a lenient CSV read.
func (r *Reader) Parse(data []byte) (*Table, error) {
	text, enc, err := decodeText(data, r.secondary)
	if err != nil {
		return nil, err
	}

	delim := sniffDelimiter(text)
	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = delim
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	t := &Table{Header: cleanHeader(header), Encoding: enc, Delimiter: delimiterName(delim)}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if !blankRow(rec) {
			t.Rows = append(t.Rows, rec)
		}
	}
	return t, nil
}

// readXLSX reads the first sheet of a workbook; its first row is the header.
func readXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	start := 0
	for start < len(rows) && blankRow(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, ErrNoHeader
	}

	t := &Table{Header: cleanHeader(rows[start]), Encoding: "xlsx"}
	for _, row := range rows[start+1:] {
		if !blankRow(row) {
			t.Rows = append(t.Rows, row)
		}
	}
	return t, nil
}

func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return out
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
