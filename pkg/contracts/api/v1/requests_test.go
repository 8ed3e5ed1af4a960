package api

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestViewRequestFromQuery(t *testing.T) {
	tests := []struct {
		name  string
		query url.Values
		want  ViewRequest
	}{
		{
			name:  "empty",
			query: url.Values{},
			want:  ViewRequest{},
		},
		{
			name:  "dates and kind are trimmed",
			query: url.Values{"start": {" 2022-01-01 "}, "end": {"2022-01-31\t"}, "kind": {" LINE"}},
			want:  ViewRequest{Start: "2022-01-01", End: "2022-01-31", Kind: "line"},
		},
		{
			name:  "state is kept verbatim",
			query: url.Values{"state": {" Johor "}},
			want:  ViewRequest{State: " Johor "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ViewRequestFromQuery(tt.query))
		})
	}
}

func TestViewRequest_Criteria(t *testing.T) {
	c := ViewRequest{Start: "2022-01-01", End: "not a date", State: "W.P. Kuala Lumpur"}.Criteria()

	assert.Equal(t, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), c.Start)
	assert.True(t, c.End.IsZero())
	assert.Equal(t, "W.P. Kuala Lumpur", c.State)
}

func TestViewRequest_QueryRoundTrip(t *testing.T) {
	req := ViewRequest{Start: "2022-01-01", State: "Johor"}
	assert.Equal(t, "start=2022-01-01&state=Johor", req.Query().Encode())
	assert.Equal(t, req, ViewRequestFromQuery(req.Query()))
}
