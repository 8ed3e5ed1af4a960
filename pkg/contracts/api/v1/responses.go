package api

import (
	"covidvax/pkg/contracts/domain"
)

// CaseRow is one record as returned by the JSON API, dates as YYYY-MM-DD
type CaseRow struct {
	Date       string `json:"date"`
	State      string `json:"state"`
	CasesUnvax int64  `json:"cases_unvax"`
	CasesPvax  int64  `json:"cases_pvax"`
	CasesFvax  int64  `json:"cases_fvax"`
	CasesBoost int64  `json:"cases_boost"`
	TotalCases int64  `json:"total_cases"`
}

// NewCaseRow converts a domain record
func NewCaseRow(r domain.CaseRecord) CaseRow {
	return CaseRow{
		Date:       r.Date.Format(domain.DateLayout),
		State:      r.State,
		CasesUnvax: r.CasesUnvax,
		CasesPvax:  r.CasesPvax,
		CasesFvax:  r.CasesFvax,
		CasesBoost: r.CasesBoost,
		TotalCases: r.TotalCases,
	}
}

// CriteriaResponse echoes the resolved filter
type CriteriaResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
	State string `json:"state"`
}

// ViewResponse is the body of GET /api/cases
type ViewResponse struct {
	Criteria    CriteriaResponse    `json:"criteria"`
	Records     []CaseRow           `json:"records"`
	Totals      domain.Totals       `json:"totals"`
	Columns     []domain.ColumnSpec `json:"columns"`
	States      []string            `json:"states"`
	MinDate     string              `json:"min_date,omitempty"`
	MaxDate     string              `json:"max_date,omitempty"`
	SkippedRows int                 `json:"skipped_rows"`
	Source      string              `json:"source"`
}

// StatesResponse is the body of GET /api/cases/states
type StatesResponse struct {
	States []string `json:"states"`
}

// ColumnsResponse is the body of GET /api/cases/columns
type ColumnsResponse struct {
	Columns []domain.ColumnSpec `json:"columns"`
}
