package exporter

import (
	"strconv"
	"time"

	"covidvax/pkg/contracts/domain"
)

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatDate formats a record date as a calendar day
func formatDate(t time.Time) string {
	return t.Format(domain.DateLayout)
}

// recordRow renders one record in TableColumns order
func recordRow(r domain.CaseRecord) []string {
	return []string{
		formatDate(r.Date),
		r.State,
		formatInt(r.CasesUnvax),
		formatInt(r.CasesPvax),
		formatInt(r.CasesFvax),
		formatInt(r.CasesBoost),
		formatInt(r.TotalCases),
	}
}

// columnKeys returns the header used by machine-readable exports
func columnKeys() []string {
	cols := domain.TableColumns()
	keys := make([]string, len(cols))
	for i, c := range cols {
		keys[i] = c.Key
	}
	return keys
}
