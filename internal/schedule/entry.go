package schedule

import (
	"strings"
	"time"
)

// Conventional status values. Status is open vocabulary; these are the
// documented defaults and the ones counted by Stats.
const (
	StatusUnfinished = "未完成"
	StatusInProgress = "进行中"
	StatusCompleted  = "已完成"
	StatusOnHold     = "搁置"
	StatusPostponed  = "延期"
)

// KnownStatuses lists the conventional statuses in display order.
var KnownStatuses = []string{StatusUnfinished, StatusInProgress, StatusCompleted, StatusOnHold, StatusPostponed}

// Entry is one time-boxed task record.
type Entry struct {
	Start       Timestamp `json:"start" yaml:"start"`
	End         Timestamp `json:"end" yaml:"end"`
	Task        string    `json:"task" yaml:"task"`
	Status      string    `json:"status" yaml:"status"`
	Description string    `json:"description" yaml:"description"`
}

// Reversed reports the tolerated anomaly start > end.
func (e Entry) Reversed() bool {
	if e.Start.IsZero() || e.End.IsZero() {
		return false
	}
	return e.Start.After(e.End.Time)
}

// Overlaps reports whether the entry window intersects [from, to].
// A zero bound, on either side, is open.
func (e Entry) Overlaps(from, to time.Time) bool {
	if !to.IsZero() && !e.Start.IsZero() && e.Start.After(to) {
		return false
	}
	if !from.IsZero() && !e.End.IsZero() && DateRangeEnd(e.End).Before(from) {
		return false
	}
	return true
}

// Fields carries raw, unparsed field values as typed by a user.
// A nil pointer means "not supplied".
type Fields struct {
	Start       *string
	End         *string
	Task        *string
	Status      *string
	Description *string
}

// NewEntry validates raw fields and builds an Entry.
//
// start and end must parse (InvalidDate otherwise). start > end is accepted
// and reported through Entry.Reversed. A blank status defaults to 未完成.
func NewEntry(f Fields, loc *time.Location) (Entry, error) {
	var e Entry
	start, err := ParseTime("start", deref(f.Start), loc)
	if err != nil {
		return Entry{}, err
	}
	end, err := ParseTime("end", deref(f.End), loc)
	if err != nil {
		return Entry{}, err
	}
	e.Start, e.End = start, end
	e.Task = deref(f.Task)
	e.Status = strings.TrimSpace(deref(f.Status))
	if e.Status == "" {
		e.Status = StatusUnfinished
	}
	e.Description = deref(f.Description)
	return e, nil
}

// Patch is a validated partial update.
type Patch struct {
	Start       *Timestamp
	End         *Timestamp
	Task        *string
	Status      *string
	Description *string
}

// NewPatch validates the supplied raw fields. Fields left nil stay nil.
func NewPatch(f Fields, loc *time.Location) (Patch, error) {
	var p Patch
	if f.Start != nil {
		ts, err := ParseTime("start", *f.Start, loc)
		if err != nil {
			return Patch{}, err
		}
		p.Start = &ts
	}
	if f.End != nil {
		ts, err := ParseTime("end", *f.End, loc)
		if err != nil {
			return Patch{}, err
		}
		p.End = &ts
	}
	p.Task = f.Task
	p.Status = f.Status
	p.Description = f.Description
	return p, nil
}

func (p Patch) Empty() bool {
	return p.Start == nil && p.End == nil && p.Task == nil && p.Status == nil && p.Description == nil
}

// Apply returns e with the supplied fields replaced. start <= end is not
// re-checked.
func (p Patch) Apply(e Entry) Entry {
	if p.Start != nil {
		e.Start = *p.Start
	}
	if p.End != nil {
		e.End = *p.End
	}
	if p.Task != nil {
		e.Task = *p.Task
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	return e
}

// DecodeEscapes turns the literal two-character sequence `\n` into a
// newline. It is how single-line inputs carry multi-line descriptions.
func DecodeEscapes(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
