// Package api contains the request and response contracts of the HTTP API.
// Version v1 is the current stable API version.
package api

import (
	"net/url"
	"strings"
	"time"

	"covidvax/pkg/contracts/domain"
)

// ViewRequest carries the query parameters shared by the dashboard, the
// chart, the JSON view and the exports. Every field is optional.
type ViewRequest struct {
	Start string `json:"start,omitempty" query:"start" validate:"omitempty,calendarday"`
	End   string `json:"end,omitempty" query:"end" validate:"omitempty,calendarday"`
	State string `json:"state,omitempty" query:"state" validate:"omitempty,max=64,statename"`
	Kind  string `json:"kind,omitempty" query:"kind" validate:"omitempty,oneof=bar line"`
}

// ViewRequestFromQuery reads a ViewRequest from URL query values. Dates and
// kind are trimmed; the state is kept verbatim since it must match exactly.
func ViewRequestFromQuery(q url.Values) ViewRequest {
	return ViewRequest{
		Start: strings.TrimSpace(q.Get("start")),
		End:   strings.TrimSpace(q.Get("end")),
		State: q.Get("state"),
		Kind:  strings.ToLower(strings.TrimSpace(q.Get("kind"))),
	}
}

// Criteria converts the request into partial filter criteria. Unparseable
// dates are left zero; callers validate first.
func (r ViewRequest) Criteria() domain.FilterCriteria {
	var c domain.FilterCriteria
	if t, err := time.Parse(domain.DateLayout, r.Start); err == nil {
		c.Start = t
	}
	if t, err := time.Parse(domain.DateLayout, r.End); err == nil {
		c.End = t
	}
	c.State = r.State
	return c
}

// Query renders the request back into URL query form, dropping empty fields
func (r ViewRequest) Query() url.Values {
	q := url.Values{}
	if r.Start != "" {
		q.Set("start", r.Start)
	}
	if r.End != "" {
		q.Set("end", r.End)
	}
	if r.State != "" {
		q.Set("state", r.State)
	}
	if r.Kind != "" {
		q.Set("kind", r.Kind)
	}
	return q
}
