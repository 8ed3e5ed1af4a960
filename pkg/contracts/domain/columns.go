package domain

import (
	"fmt"
	"strconv"
)

// ColumnSpec carries display metadata for one column of the case table
type ColumnSpec struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Help    string `json:"help,omitempty"`
	Format  string `json:"format,omitempty"`
	Numeric bool   `json:"numeric"`
}

// FormatValue renders a count with the column's format string
func (c ColumnSpec) FormatValue(v int64) string {
	if c.Format == "" {
		return strconv.FormatInt(v, 10)
	}
	return fmt.Sprintf(c.Format, v)
}

// TableColumns returns the display metadata for every column of the table,
// in display order.
func TableColumns() []ColumnSpec {
	return []ColumnSpec{
		{Key: ColumnDate, Label: "Date"},
		{Key: ColumnState, Label: "State"},
		{
			Key:     ColumnCasesUnvax,
			Label:   "Unvaccinated cases",
			Help:    "Number of new cases for which no vaccination record is found",
			Format:  "%d cases",
			Numeric: true,
		},
		{
			Key:     ColumnCasesPvax,
			Label:   "Partially vaccinated cases",
			Help:    "Number of new cases where the individual received at least 1 dose of any vaccine, but has not yet been fully vaccinated",
			Format:  "%d cases",
			Numeric: true,
		},
		{
			Key:     ColumnCasesFvax,
			Label:   "Fully vaccinated cases",
			Help:    "Number of new cases where the individual received the second dose of a two-dose vaccine at least 14 days ago, or the first dose of a one-dose vaccine at least 28 days ago",
			Format:  "%d cases",
			Numeric: true,
		},
		{
			Key:     ColumnCasesBoost,
			Label:   "Boosted cases",
			Help:    "Number of new cases where the individual received a booster dose at least 7 days ago",
			Format:  "%d cases",
			Numeric: true,
		},
		{
			Key:     ColumnTotalCases,
			Label:   "Total new cases",
			Help:    "Total new cases (Pvax + Fvax + Boosted + Unvax)",
			Format:  "%d cases",
			Numeric: true,
		},
	}
}

// NumericColumns returns the five count columns (four statuses plus total)
func NumericColumns() []ColumnSpec {
	all := TableColumns()
	out := make([]ColumnSpec, 0, len(all))
	for _, c := range all {
		if c.Numeric {
			out = append(out, c)
		}
	}
	return out
}
