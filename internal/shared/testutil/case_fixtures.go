package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
)

// CaseRow mirrors one row of the published parquet file
type CaseRow struct {
	Date       time.Time `parquet:"date"`
	State      string    `parquet:"state"`
	CasesUnvax int64     `parquet:"cases_unvax"`
	CasesPvax  int64     `parquet:"cases_pvax"`
	CasesFvax  int64     `parquet:"cases_fvax"`
	CasesBoost int64     `parquet:"cases_boost"`
}

// TextDateRow is a variant whose date column is stored as text
type TextDateRow struct {
	Date       string `parquet:"date"`
	State      string `parquet:"state"`
	CasesUnvax int64  `parquet:"cases_unvax"`
	CasesPvax  int64  `parquet:"cases_pvax"`
	CasesFvax  int64  `parquet:"cases_fvax"`
	CasesBoost int64  `parquet:"cases_boost"`
}

// NoBoostRow lacks the cases_boost column entirely
type NoBoostRow struct {
	Date       time.Time `parquet:"date"`
	State      string    `parquet:"state"`
	CasesUnvax int64     `parquet:"cases_unvax"`
	CasesPvax  int64     `parquet:"cases_pvax"`
	CasesFvax  int64     `parquet:"cases_fvax"`
}

// DayNumberRow stores the date as days since the epoch with a DATE annotation
type DayNumberRow struct {
	Date       int32  `parquet:"date,date"`
	State      string `parquet:"state"`
	CasesUnvax int64  `parquet:"cases_unvax"`
	CasesPvax  int64  `parquet:"cases_pvax"`
	CasesFvax  int64  `parquet:"cases_fvax"`
	CasesBoost int64  `parquet:"cases_boost"`
}

// PlainIntDateRow stores the date as a bare int32 such as 20220101
type PlainIntDateRow struct {
	Date       int32  `parquet:"date"`
	State      string `parquet:"state"`
	CasesUnvax int64  `parquet:"cases_unvax"`
	CasesPvax  int64  `parquet:"cases_pvax"`
	CasesFvax  int64  `parquet:"cases_fvax"`
	CasesBoost int64  `parquet:"cases_boost"`
}

// MixedCaseRow spells its column names with capitals
type MixedCaseRow struct {
	Date       time.Time `parquet:"Date"`
	State      string    `parquet:"State"`
	CasesUnvax int64     `parquet:"Cases_Unvax"`
	CasesPvax  int64     `parquet:"Cases_Pvax"`
	CasesFvax  int64     `parquet:"Cases_Fvax"`
	CasesBoost int64     `parquet:"Cases_Boost"`
}

// Date returns midnight UTC of the given calendar day
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SampleCaseRows returns a small dataset spanning three days and two states
func SampleCaseRows() []CaseRow {
	return []CaseRow{
		{Date: Date(2021, 9, 1), State: "Johor", CasesUnvax: 500, CasesPvax: 120, CasesFvax: 300, CasesBoost: 0},
		{Date: Date(2021, 9, 1), State: "Selangor", CasesUnvax: 900, CasesPvax: 200, CasesFvax: 650, CasesBoost: 0},
		{Date: Date(2021, 9, 2), State: "Johor", CasesUnvax: 480, CasesPvax: 110, CasesFvax: 320, CasesBoost: 1},
		{Date: Date(2021, 9, 2), State: "Selangor", CasesUnvax: 870, CasesPvax: 190, CasesFvax: 700, CasesBoost: 2},
		{Date: Date(2021, 9, 3), State: "Johor", CasesUnvax: 460, CasesPvax: 100, CasesFvax: 340, CasesBoost: 3},
		{Date: Date(2021, 9, 3), State: "Selangor", CasesUnvax: 850, CasesPvax: 180, CasesFvax: 720, CasesBoost: 4},
	}
}

// WriteParquet writes rows to name inside a per-test temp dir and returns the path
func WriteParquet[T any](t *testing.T, name string, rows []T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := parquet.WriteFile(path, rows); err != nil {
		t.Fatalf("write parquet fixture: %v", err)
	}
	return path
}

// ParquetBytes returns rows encoded as a parquet file
func ParquetBytes[T any](t *testing.T, rows []T) []byte {
	t.Helper()

	path := WriteParquet(t, "fixture.parquet", rows)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read parquet fixture: %v", err)
	}
	return data
}

// CaseCSV renders rows in the dataset's CSV layout
func CaseCSV(rows []CaseRow) [][]string {
	out := [][]string{{"date", "state", "cases_unvax", "cases_pvax", "cases_fvax", "cases_boost"}}
	for _, r := range rows {
		out = append(out, []string{
			r.Date.Format("2006-01-02"),
			r.State,
			strconv.FormatInt(r.CasesUnvax, 10),
			strconv.FormatInt(r.CasesPvax, 10),
			strconv.FormatInt(r.CasesFvax, 10),
			strconv.FormatInt(r.CasesBoost, 10),
		})
	}
	return out
}

// WriteCSV writes records to name inside a per-test temp dir and returns the path
func WriteCSV(t *testing.T, name string, records [][]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create csv fixture: %v", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		t.Fatalf("write csv fixture: %v", err)
	}
	return path
}
