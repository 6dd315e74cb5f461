// Package importer turns uploaded assignment spreadsheets into parsed rows
// and hands them to the store.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrEmpty is returned when the upload has a header but no data rows.
	ErrEmpty = errors.New("file contains no data rows")
	// ErrUnreadable wraps any failure to decode the upload.
	ErrUnreadable = errors.New("unreadable spreadsheet")
)

// RawRow is one data row keyed by its header cell. Index is the 1-based
// sheet row number, so the first data row is 2.
type RawRow struct {
	Index  int
	Values map[string]string
}

// Read decodes a CSV or XLSX upload, picking the format by file extension.
// Anything that is not .csv is read as a workbook.
func Read(filename string, r io.Reader) ([]RawRow, error) {
	var (
		table [][]string
		err   error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		table, err = readCSV(r)
	default:
		table, err = readXLSX(r)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return rowsFromTable(table)
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if first, _, _ := bytes.Cut(data, []byte("\n")); bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		cr.Comma = ';'
	}
	return cr.ReadAll()
}

// rowsFromTable keys every row after the header by header name. Blank rows
// are skipped but still advance the row number.
func rowsFromTable(table [][]string) ([]RawRow, error) {
	if len(table) == 0 {
		return nil, ErrEmpty
	}
	header := make([]string, len(table[0]))
	for i, h := range table[0] {
		header[i] = strings.TrimSpace(h)
	}

	var rows []RawRow
	for i, cells := range table[1:] {
		values := make(map[string]string, len(header))
		blank := true
		for j, name := range header {
			if name == "" || j >= len(cells) {
				continue
			}
			v := strings.TrimSpace(cells[j])
			if v != "" {
				blank = false
			}
			values[name] = v
		}
		if blank {
			continue
		}
		rows = append(rows, RawRow{Index: i + 2, Values: values})
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	return rows, nil
}
