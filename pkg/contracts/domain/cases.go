package domain

import (
	"time"
)

// DateLayout is the calendar-day layout used in queries, exports and JSON
const DateLayout = "2006-01-02"

// Source column names of the vaccination status dataset
const (
	ColumnDate       = "date"
	ColumnState      = "state"
	ColumnCasesUnvax = "cases_unvax"
	ColumnCasesPvax  = "cases_pvax"
	ColumnCasesFvax  = "cases_fvax"
	ColumnCasesBoost = "cases_boost"
	ColumnTotalCases = "total_cases"
)

// CountColumns lists the required count columns in source order
var CountColumns = []string{
	ColumnCasesUnvax,
	ColumnCasesPvax,
	ColumnCasesFvax,
	ColumnCasesBoost,
}

// CaseRecord is one row of the dataset: new cases for a (date, state) pair
// split by vaccination status.
type CaseRecord struct {
	Date       time.Time `json:"date"`
	State      string    `json:"state"`
	CasesUnvax int64     `json:"cases_unvax"`
	CasesPvax  int64     `json:"cases_pvax"`
	CasesFvax  int64     `json:"cases_fvax"`
	CasesBoost int64     `json:"cases_boost"`
	TotalCases int64     `json:"total_cases"`
}

// SumCounts returns the sum of the four vaccination status counts
func (r CaseRecord) SumCounts() int64 {
	return r.CasesUnvax + r.CasesPvax + r.CasesFvax + r.CasesBoost
}

// Derive sets TotalCases from the four counts
func (r *CaseRecord) Derive() {
	r.TotalCases = r.SumCounts()
}

// Value returns the numeric value of a count column by key.
func (r CaseRecord) Value(column string) (int64, bool) {
	switch column {
	case ColumnCasesUnvax:
		return r.CasesUnvax, true
	case ColumnCasesPvax:
		return r.CasesPvax, true
	case ColumnCasesFvax:
		return r.CasesFvax, true
	case ColumnCasesBoost:
		return r.CasesBoost, true
	case ColumnTotalCases:
		return r.TotalCases, true
	}
	return 0, false
}

// Dataset is an ordered, in-memory collection of case records together with
// what was observed while loading it.
type Dataset struct {
	Source      string        `json:"source"`
	Records     []CaseRecord  `json:"records"`
	RowsRead    int           `json:"rows_read"`
	SkippedRows int           `json:"skipped_rows"`
	LoadedAt    time.Time     `json:"loaded_at"`
	Duration    time.Duration `json:"duration"`
}

// Len returns the number of records, treating a nil dataset as empty
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// FilterCriteria selects a view of the dataset. Start and End are inclusive
// calendar days.
type FilterCriteria struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
	State string    `json:"state"`
}

// DateRange is the observed span of dates in a dataset
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Day truncates t to midnight UTC of its calendar day
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Totals holds per-column sums over a set of records
type Totals struct {
	Rows       int   `json:"rows"`
	CasesUnvax int64 `json:"cases_unvax"`
	CasesPvax  int64 `json:"cases_pvax"`
	CasesFvax  int64 `json:"cases_fvax"`
	CasesBoost int64 `json:"cases_boost"`
	TotalCases int64 `json:"total_cases"`
}

// Value returns the sum for a count column by key
func (t Totals) Value(column string) (int64, bool) {
	return CaseRecord{
		CasesUnvax: t.CasesUnvax,
		CasesPvax:  t.CasesPvax,
		CasesFvax:  t.CasesFvax,
		CasesBoost: t.CasesBoost,
		TotalCases: t.TotalCases,
	}.Value(column)
}
