package schedule

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Accepted input layouts, most specific first.
const (
	LayoutDate       = "2006-01-02"
	LayoutMinute     = "2006-01-02 15:04"
	LayoutSecond     = "2006-01-02 15:04:05"
	LayoutMinuteISO  = "2006-01-02T15:04"
	LayoutSecondISO  = "2006-01-02T15:04:05"
	defaultLayoutOut = LayoutMinute
)

var layouts = []string{LayoutDate, LayoutMinute, LayoutSecond, LayoutMinuteISO, LayoutSecondISO}

// Timestamp is a point in time that remembers the layout it was written in,
// so a date-only value is saved back as a date.
//
// The zero Timestamp is "unset" and serializes as an empty string.
type Timestamp struct {
	time.Time
	Layout string
}

// NewTimestamp wraps t with the minute layout, or the seconds layout when t
// has a seconds part.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t, Layout: layoutFor(t, defaultLayoutOut)}
}

// layoutFor returns layout widened to seconds when t would lose them.
func layoutFor(t time.Time, layout string) string {
	if t.Second() == 0 {
		return layout
	}
	switch layout {
	case LayoutDate, LayoutMinute:
		return LayoutSecond
	case LayoutMinuteISO:
		return LayoutSecondISO
	}
	return layout
}

// DateOnly reports whether the value carries no time of day.
func (ts Timestamp) DateOnly() bool { return ts.Layout == LayoutDate }

func (ts Timestamp) String() string {
	if ts.IsZero() {
		return ""
	}
	layout := ts.Layout
	if layout == "" {
		layout = defaultLayoutOut
	}
	return ts.Format(layout)
}

// Add returns ts moved by d, keeping its layout where it can still express
// the result. A date-only value stays date-only only when d is a whole
// number of days; a seconds part widens the layout to seconds.
func (ts Timestamp) Add(d time.Duration) Timestamp {
	t := ts.Time.Add(d)
	layout := ts.Layout
	if layout == "" || (ts.DateOnly() && d%(24*time.Hour) != 0) {
		layout = defaultLayoutOut
	}
	return Timestamp{Time: t, Layout: layoutFor(t, layout)}
}

// ParseTime parses raw in one of the accepted layouts, interpreting it in loc.
// field names the input for the InvalidDate error.
func ParseTime(field, raw string, loc *time.Location) (Timestamp, error) {
	s := normalizeTime(raw)
	if s == "" {
		return Timestamp{}, NewError(InvalidDate, field, raw, fmt.Errorf("empty value"))
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range layouts {
		if len(s) != len(layout) {
			continue
		}
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return Timestamp{Time: t, Layout: layout}, nil
		}
	}
	return Timestamp{}, NewError(InvalidDate, field, raw,
		fmt.Errorf("use YYYY-MM-DD or YYYY-MM-DD HH:MM"))
}

// normalizeTime trims, collapses inner whitespace and replaces full-width
// colons, which are common when typing times with a CJK input method.
func normalizeTime(raw string) string {
	s := strings.ReplaceAll(raw, "：", ":")
	return strings.Join(strings.Fields(s), " ")
}

// DateRangeEnd widens a date-only bound to the last instant of that day so
// range filters treat it inclusively.
func DateRangeEnd(ts Timestamp) time.Time {
	if ts.DateOnly() {
		return ts.Time.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return ts.Time
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.String())
}

// MarshalYAML keeps YAML output in the same layout as the stored document
// instead of time.Time's RFC 3339 text form.
func (ts Timestamp) MarshalYAML() (any, error) {
	return ts.String(), nil
}

// UnmarshalJSON decodes in the process-local zone; use Entry decoding via
// the store to pick a different location.
func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return ts.decode(s, time.Local)
}

func (ts *Timestamp) decode(s string, loc *time.Location) error {
	if strings.TrimSpace(s) == "" {
		*ts = Timestamp{}
		return nil
	}
	v, err := ParseTime("", s, loc)
	if err != nil {
		return err
	}
	*ts = v
	return nil
}
