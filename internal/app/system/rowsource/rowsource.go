// Package rowsource reads spreadsheet uploads (CSV or XLSX) into batch rows
// keyed by their header names.
package rowsource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dalemusser/rollbook/internal/app/system/batch"
	"github.com/dalemusser/rollbook/internal/app/system/normalize"
	"github.com/xuri/excelize/v2"
)

// Upload size and row limits.
const (
	MaxUploadSize = 5 << 20 // 5 MB
	MaxRows       = 20000
)

var (
	ErrTooManyRows = fmt.Errorf("file exceeds maximum of %d data rows", MaxRows)
	ErrNoHeader    = errors.New("first row must be a header naming an account column")
	ErrUnsupported = errors.New("unsupported file type (want .csv or .xlsx)")
	ErrNoSheet     = errors.New("workbook has no sheets")
)

// Options tunes parsing. MaxRows <= 0 means no limit.
type Options struct {
	MaxRows int
}

// Default returns the options used by the upload paths.
func Default() Options {
	return Options{MaxRows: MaxRows}
}

// ReadCSV parses r. The first record must be the header; data rows are
// numbered from 2. An empty input yields no rows and no error.
func ReadCSV(r io.Reader, opts Options) ([]batch.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		records = append(records, rec)
	}
	return toRows(records, opts)
}

// ReadXLSX parses the first sheet of the workbook in r.
func ReadXLSX(r io.Reader, opts Options) ([]batch.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return toRows(records, opts)
}

// ReadFile picks the reader by file extension.
func ReadFile(path string, opts Options) ([]batch.Row, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".xlsx" {
		return nil, ErrUnsupported
	}

	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	if st, err := fh.Stat(); err == nil && st.Size() > MaxUploadSize {
		return nil, fmt.Errorf("%s is larger than %d bytes", filepath.Base(path), MaxUploadSize)
	}

	if ext == ".xlsx" {
		return ReadXLSX(fh, opts)
	}
	return ReadCSV(fh, opts)
}

func toRows(records [][]string, opts Options) ([]batch.Row, error) {
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if !detectHeader(header) {
		return nil, ErrNoHeader
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	data := records[1:]
	if opts.MaxRows > 0 && len(data) > opts.MaxRows {
		return nil, ErrTooManyRows
	}

	rows := make([]batch.Row, 0, len(data))
	for i, rec := range data {
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if h == "" {
				continue
			}
			if j < len(rec) {
				fields[h] = strings.TrimSpace(rec[j])
			} else {
				fields[h] = ""
			}
		}
		// Line: +1 for 1-based, +1 for the header.
		rows = append(rows, batch.Row{Line: i + 2, Fields: fields})
	}
	return rows, nil
}

// detectHeader reports whether rec names an account column.
func detectHeader(rec []string) bool {
	for _, cell := range rec {
		c := normalize.Header(cell)
		for _, a := range batch.AccountAliases {
			if c == normalize.Header(a) {
				return true
			}
		}
	}
	return false
}
