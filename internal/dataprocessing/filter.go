package dataprocessing

import (
	"covidvax/pkg/contracts/domain"
)

// Filter returns the records dated within [c.Start, c.End] by calendar day
// whose state equals c.State exactly. Order is preserved and the input is
// neither mutated nor aliased. An inverted range or an unknown state gives
// an empty dataset.
func Filter(ds *domain.Dataset, c domain.FilterCriteria) *domain.Dataset {
	out := &domain.Dataset{Records: []domain.CaseRecord{}}
	if ds == nil {
		return out
	}
	out.Source = ds.Source
	out.RowsRead = ds.RowsRead
	out.SkippedRows = ds.SkippedRows
	out.LoadedAt = ds.LoadedAt
	out.Duration = ds.Duration

	start, end := domain.Day(c.Start), domain.Day(c.End)
	if start.After(end) {
		return out
	}

	for _, rec := range ds.Records {
		if rec.State != c.State {
			continue
		}
		day := domain.Day(rec.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		out.Records = append(out.Records, rec)
	}
	return out
}

// States lists the distinct states in first-seen order
func States(ds *domain.Dataset) []string {
	states := []string{}
	if ds == nil {
		return states
	}
	seen := make(map[string]struct{})
	for _, rec := range ds.Records {
		if _, ok := seen[rec.State]; ok {
			continue
		}
		seen[rec.State] = struct{}{}
		states = append(states, rec.State)
	}
	return states
}

// DateBounds returns the earliest and latest record dates. ok is false for
// an empty dataset.
func DateBounds(ds *domain.Dataset) (domain.DateRange, bool) {
	if ds.Len() == 0 {
		return domain.DateRange{}, false
	}
	r := domain.DateRange{Start: ds.Records[0].Date, End: ds.Records[0].Date}
	for _, rec := range ds.Records[1:] {
		if rec.Date.Before(r.Start) {
			r.Start = rec.Date
		}
		if rec.Date.After(r.End) {
			r.End = rec.Date
		}
	}
	return r, true
}

// DefaultCriteria spans the whole dataset for its first-seen state
func DefaultCriteria(ds *domain.Dataset) domain.FilterCriteria {
	var c domain.FilterCriteria
	if bounds, ok := DateBounds(ds); ok {
		c.Start, c.End = bounds.Start, bounds.End
	}
	if states := States(ds); len(states) > 0 {
		c.State = states[0]
	}
	return c
}

// ResolveCriteria fills every unset field of partial (zero date, empty
// state) from DefaultCriteria.
func ResolveCriteria(ds *domain.Dataset, partial domain.FilterCriteria) domain.FilterCriteria {
	defaults := DefaultCriteria(ds)
	resolved := partial
	if resolved.Start.IsZero() {
		resolved.Start = defaults.Start
	}
	if resolved.End.IsZero() {
		resolved.End = defaults.End
	}
	if resolved.State == "" {
		resolved.State = defaults.State
	}
	resolved.Start = domain.Day(resolved.Start)
	resolved.End = domain.Day(resolved.End)
	return resolved
}

// Summarize sums every count column across the dataset
func Summarize(ds *domain.Dataset) domain.Totals {
	var t domain.Totals
	if ds == nil {
		return t
	}
	for _, rec := range ds.Records {
		t.Rows++
		t.CasesUnvax += rec.CasesUnvax
		t.CasesPvax += rec.CasesPvax
		t.CasesFvax += rec.CasesFvax
		t.CasesBoost += rec.CasesBoost
		t.TotalCases += rec.TotalCases
	}
	return t
}
