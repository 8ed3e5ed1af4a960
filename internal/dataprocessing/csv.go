package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	apperrors "covidvax/internal/errors"
	"covidvax/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeCSV reads a CSV payload whose first line is the header. Columns are
// matched by name, case-insensitively, in any order.
func decodeCSV(data []byte, b *recordBuilder) error {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.NewMalformedDataError("csv payload is empty", nil)
		}
		return apperrors.NewMalformedDataError("failed to read csv header", err)
	}

	columnMap := make(map[string]int, len(header))
	for i, h := range header {
		key := columnKey(h)
		if _, seen := columnMap[key]; !seen {
			columnMap[key] = i
		}
	}
	for _, name := range requiredColumns {
		if _, ok := columnMap[name]; !ok {
			return missingColumnError(name)
		}
	}

	cell := func(row []string, name string) string {
		if idx := columnMap[name]; idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	rowNum := 0
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		rowNum++
		if err != nil {
			return apperrors.NewMalformedDataError("failed to read csv row", err).
				WithContext("row", rowNum)
		}

		rec := rawRecord{row: rowNum, date: nullDate(), state: cell(row, domain.ColumnState)}
		if d := cell(row, domain.ColumnDate); d != "" {
			rec.date = textDate(d)
		}

		for i, name := range domain.CountColumns {
			n, err := parseCSVCount(name, rowNum, cell(row, name))
			if err != nil {
				return err
			}
			rec.counts[i] = n
		}
		b.add(rec)
	}
}

// parseCSVCount accepts integers and whole-valued decimals such as "12.0"
func parseCSVCount(column string, row int, s string) (int64, error) {
	if s == "" {
		return 0, badCountError(column, row, "count is empty")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return countFromInt(column, row, n)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, badCountError(column, row, fmt.Sprintf("count %q is not numeric", s))
	}
	return countFromFloat(column, row, f)
}
