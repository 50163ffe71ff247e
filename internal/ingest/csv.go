// Package ingest parses and cleans the parking and transit data sets
// loaded into the candidate store.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// rowReader wraps a CSV reader with header-based field lookup
type rowReader struct {
	csv    *csv.Reader
	colMap map[string]int
}

func newRowReader(r io.Reader) (*rowReader, error) {
	csvReader := csv.NewReader(r)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	return &rowReader{csv: csvReader, colMap: makeColumnMap(header)}, nil
}

func (r *rowReader) has(field string) bool {
	_, ok := r.colMap[field]
	return ok
}

func makeColumnMap(header []string) map[string]int {
	colMap := make(map[string]int)
	for i, col := range header {
		// Excel exports prefix the first column with a BOM
		col = strings.TrimPrefix(col, "\ufeff")
		colMap[strings.TrimSpace(col)] = i
	}
	return colMap
}

func getField(record []string, colMap map[string]int, fieldName string) string {
	if idx, ok := colMap[fieldName]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}
