package dataprocessing

import (
	"fmt"
	"strings"
	"time"

	"covidvax/pkg/contracts/domain"
)

// dateLayouts are tried in order when a date arrives as text
var dateLayouts = []string{
	domain.DateLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

type dateKind int

const (
	dateNull dateKind = iota
	dateTime
	dateText
)

// rawDate is a date cell as decoded, before normalization
type rawDate struct {
	kind dateKind
	t    time.Time
	text string
}

func nullDate() rawDate            { return rawDate{kind: dateNull} }
func timeDate(t time.Time) rawDate { return rawDate{kind: dateTime, t: t} }
func textDate(s string) rawDate    { return rawDate{kind: dateText, text: s} }

// String renders the raw value for log messages
func (d rawDate) String() string {
	switch d.kind {
	case dateTime:
		return d.t.Format(time.RFC3339Nano)
	case dateText:
		return d.text
	}
	return "<null>"
}

// normalizeDate reduces a raw cell to midnight UTC of its calendar day
func normalizeDate(d rawDate) (time.Time, error) {
	switch d.kind {
	case dateTime:
		return domain.Day(d.t), nil
	case dateText:
		return ParseDate(d.text)
	}
	return time.Time{}, fmt.Errorf("date is null")
}

// ParseDate parses a textual date in any accepted layout and truncates it to
// its calendar day. The calendar day is the one written in the text, not the
// UTC day of the instant.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
