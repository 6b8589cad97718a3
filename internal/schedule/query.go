package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Filter selects entries for List. Zero-valued fields are no-ops.
type Filter struct {
	Status string

	// From/To select entries whose window overlaps [From, To]. A date-only
	// To covers that whole day.
	From Timestamp
	To   Timestamp

	// Limit truncates the result after filtering (0 = no limit).
	Limit int
}

// ParseFilterDates builds the date part of a Filter from raw input.
// Blank values leave the bound open.
func ParseFilterDates(from, to string, loc *time.Location) (Timestamp, Timestamp, error) {
	var f, t Timestamp
	var err error
	if strings.TrimSpace(from) != "" {
		if f, err = ParseTime("start_date", from, loc); err != nil {
			return Timestamp{}, Timestamp{}, err
		}
	}
	if strings.TrimSpace(to) != "" {
		if t, err = ParseTime("end_date", to, loc); err != nil {
			return Timestamp{}, Timestamp{}, err
		}
	}
	return f, t, nil
}

// List returns matching entries with their ids, in collection order.
func (c Collection) List(f Filter) []Indexed {
	from := f.From.Time
	var to time.Time
	if !f.To.IsZero() {
		to = DateRangeEnd(f.To)
	}
	out := make([]Indexed, 0, len(c))
	for i, e := range c {
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if !e.Overlaps(from, to) {
			continue
		}
		out = append(out, Indexed{ID: i, Entry: e})
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

// Searchable fields.
const (
	FieldTask        = "task"
	FieldDescription = "description"
	FieldStatus      = "status"
)

// Search performs a case-sensitive substring match. With field empty it
// looks at task and description; otherwise only at the named field.
func (c Collection) Search(keyword, field string) ([]Indexed, error) {
	get, err := fieldGetter(field)
	if err != nil {
		return nil, err
	}
	out := make([]Indexed, 0)
	for i, e := range c {
		if get(e, keyword) {
			out = append(out, Indexed{ID: i, Entry: e})
		}
	}
	return out, nil
}

func fieldGetter(field string) (func(Entry, string) bool, error) {
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "":
		return func(e Entry, kw string) bool {
			return strings.Contains(e.Task, kw) || strings.Contains(e.Description, kw)
		}, nil
	case FieldTask:
		return func(e Entry, kw string) bool { return strings.Contains(e.Task, kw) }, nil
	case FieldDescription:
		return func(e Entry, kw string) bool { return strings.Contains(e.Description, kw) }, nil
	case FieldStatus:
		return func(e Entry, kw string) bool { return strings.Contains(e.Status, kw) }, nil
	default:
		return nil, NewError(InvalidArgument, "field", field,
			fmt.Errorf("use %s, %s or %s", FieldTask, FieldDescription, FieldStatus))
	}
}
