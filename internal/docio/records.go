package docio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/leaptoken/pkg/lexsub"
)

// Record table column names. Header matching is case-insensitive.
const (
	ColumnLanguage  = "Language"
	ColumnComponent = "Component"
	ColumnToken     = "Token"
)

// ReadRecords parses a CSV table with a header row naming the Language,
// Component and Token columns in any order. Token is required; the other
// columns default to empty values when absent.
func ReadRecords(r io.Reader) ([]lexsub.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: record table is empty", ErrMalformedInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	tokenCol, ok := cols[strings.ToLower(ColumnToken)]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q column", ErrMalformedInput, ColumnToken)
	}
	langCol, hasLang := cols[strings.ToLower(ColumnLanguage)]
	compCol, hasComp := cols[strings.ToLower(ColumnComponent)]

	var records []lexsub.Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedInput, err)
		}
		if isBlankRow(row) {
			continue
		}

		rec := lexsub.Record{Token: field(row, tokenCol)}
		if hasLang {
			rec.Language = field(row, langCol)
		}
		if hasComp {
			rec.Component = field(row, compCol)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadRecordsFile reads a record table from path.
func ReadRecordsFile(path string) ([]lexsub.Record, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	records, err := ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

func field(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
