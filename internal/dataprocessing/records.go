package dataprocessing

import (
	"fmt"
	"math"
	"strings"

	apperrors "covidvax/internal/errors"
	"covidvax/pkg/contracts/domain"
)

// requiredColumns must all be present in a decodable payload. date and state
// are required alongside the counts since every view filters on them.
var requiredColumns = append([]string{domain.ColumnDate, domain.ColumnState}, domain.CountColumns...)

// rawRecord is one decoded row before its date is normalized. Counts are in
// domain.CountColumns order.
type rawRecord struct {
	row    int
	date   rawDate
	state  string
	counts [4]int64
}

// recordBuilder turns raw records into case records, dropping rows whose
// date cannot be normalized.
type recordBuilder struct {
	records  []domain.CaseRecord
	read     int
	skipped  int
	firstBad string
	firstErr error
}

func (b *recordBuilder) add(r rawRecord) {
	b.read++

	day, err := normalizeDate(r.date)
	if err != nil {
		if b.skipped == 0 {
			b.firstBad = r.date.String()
			b.firstErr = fmt.Errorf("row %d: %w", r.row, err)
		}
		b.skipped++
		return
	}

	rec := domain.CaseRecord{
		Date:       day,
		State:      r.state,
		CasesUnvax: r.counts[0],
		CasesPvax:  r.counts[1],
		CasesFvax:  r.counts[2],
		CasesBoost: r.counts[3],
	}
	rec.Derive()
	b.records = append(b.records, rec)
}

// columnKey normalizes a source column name for matching. Both decoders
// match names case-insensitively, ignoring surrounding space.
func columnKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func missingColumnError(column string) error {
	return apperrors.NewMalformedDataError(
		fmt.Sprintf("required column %s is missing", column), nil).
		WithContext("column", column)
}

func badCountError(column string, row int, reason string) error {
	return apperrors.NewMalformedDataError(
		fmt.Sprintf("column %s row %d: %s", column, row, reason), nil).
		WithContext("column", column).
		WithContext("row", row)
}

// countFromInt validates an integer count
func countFromInt(column string, row int, v int64) (int64, error) {
	if v < 0 {
		return 0, badCountError(column, row, fmt.Sprintf("negative count %d", v))
	}
	return v, nil
}

// countFromFloat accepts floats that hold a whole, non-negative number
func countFromFloat(column string, row int, f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, badCountError(column, row, "count is not a number")
	}
	if f != math.Trunc(f) {
		return 0, badCountError(column, row, fmt.Sprintf("count %v is not a whole number", f))
	}
	if f >= math.MaxInt64 {
		return 0, badCountError(column, row, fmt.Sprintf("count %v overflows", f))
	}
	return countFromInt(column, row, int64(f))
}
