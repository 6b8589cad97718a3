// Package generator partitions a total duration into equal-sized schedule
// entries.
//
// The wizard is split into steps that each take an already-typed answer
// (ParseTotal, ParseUnit, ParseStart, RenderName, ...) so callers decide how
// to prompt. Nothing here touches the store: a Plan produces a batch that
// the caller appends and saves once.
package generator

import (
	"fmt"
	"strings"
	"time"

	"jotter/internal/schedule"
)

const (
	Placeholder     = "{n}"
	DefaultTemplate = "任务" + Placeholder
	DefaultStatus   = schedule.StatusUnfinished

	// MaxEntries caps one generated batch; each entry is prompted for.
	MaxEntries = 500
)

// Options carries configured defaults.
type Options struct {
	Template string
	Status   string

	// RoundStart truncates the default start time. Zero means one minute.
	RoundStart time.Duration

	Location *time.Location
	Now      func() time.Time
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.Template) == "" {
		o.Template = DefaultTemplate
	}
	if strings.TrimSpace(o.Status) == "" {
		o.Status = DefaultStatus
	}
	if o.RoundStart <= 0 {
		o.RoundStart = time.Minute
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Inputs are the raw wizard answers. Blank optional answers take defaults.
type Inputs struct {
	Total    string
	Unit     string
	Start    string
	Template string
	Status   string
}

// ParseTotal parses the total duration. It is required.
func ParseTotal(raw string) (time.Duration, error) { return ParseDuration("total_duration", raw) }

// ParseUnit parses the per-entry duration. It is required.
func ParseUnit(raw string) (time.Duration, error) { return ParseDuration("unit", raw) }

// ParseStart parses the start time; blank means now truncated to round.
func ParseStart(raw string, now time.Time, round time.Duration, loc *time.Location) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		if loc != nil {
			now = now.In(loc)
		}
		if round <= 0 {
			round = time.Minute
		}
		return truncateLocal(now, round), nil
	}
	ts, err := schedule.ParseTime("start_time", raw, loc)
	if err != nil {
		return time.Time{}, err
	}
	return ts.Time, nil
}

// truncateLocal truncates t on the wall clock of its own zone.
// time.Truncate works on absolute time, which is off for zones with
// non-hour offsets.
func truncateLocal(t time.Time, d time.Duration) time.Time {
	_, off := t.Zone()
	shift := time.Duration(off) * time.Second
	return t.Add(shift).Truncate(d).Add(-shift)
}

// RenderName substitutes the 1-based sequence number for every {n} in
// template. A template without {n} is returned unchanged.
func RenderName(template string, n int) string {
	return strings.ReplaceAll(template, Placeholder, fmt.Sprint(n))
}

// DecodeDescription interprets the typed `\n` escape as a newline.
func DecodeDescription(raw string) string {
	return schedule.DecodeEscapes(strings.TrimSpace(raw))
}

// Plan is a fully validated generator request.
type Plan struct {
	Total    time.Duration
	Unit     time.Duration
	Start    time.Time
	Template string
	Status   string
}

// Resolve runs every validation step over in. Any failure aborts before a
// Plan exists, so no partial batch can be produced.
func (o Options) Resolve(in Inputs) (Plan, error) {
	o = o.withDefaults()
	total, err := ParseTotal(in.Total)
	if err != nil {
		return Plan{}, err
	}
	unit, err := ParseUnit(in.Unit)
	if err != nil {
		return Plan{}, err
	}
	if n := total / unit; n > MaxEntries {
		return Plan{}, schedule.NewError(schedule.InvalidDuration, "unit", in.Unit,
			fmt.Errorf("%s per entry makes %d entries from %s (max %d)", unit, n, total, MaxEntries))
	}
	start, err := ParseStart(in.Start, o.Now(), o.RoundStart, o.Location)
	if err != nil {
		return Plan{}, err
	}
	p := Plan{Total: total, Unit: unit, Start: start, Template: o.Template, Status: o.Status}
	if t := strings.TrimSpace(in.Template); t != "" {
		p.Template = t
	}
	if s := strings.TrimSpace(in.Status); s != "" {
		p.Status = s
	}
	return p, nil
}

// Count is floor(Total / Unit). The remainder is dropped.
func (p Plan) Count() int {
	if p.Unit <= 0 || p.Total < p.Unit {
		return 0
	}
	return int(p.Total / p.Unit)
}

// Remainder is the trailing time that does not fill a whole unit.
func (p Plan) Remainder() time.Duration {
	if p.Unit <= 0 {
		return p.Total
	}
	return p.Total % p.Unit
}

// Slot is one generated window, for previews and description prompts.
type Slot struct {
	N     int
	Start time.Time
	End   time.Time
	Task  string
}

func (p Plan) Slots() []Slot {
	n := p.Count()
	out := make([]Slot, 0, n)
	for i := 1; i <= n; i++ {
		start := p.Start.Add(time.Duration(i-1) * p.Unit)
		out = append(out, Slot{N: i, Start: start, End: start.Add(p.Unit), Task: RenderName(p.Template, i)})
	}
	return out
}

// Entries builds the batch. descs[i] is the raw description for slot i+1;
// missing descriptions are blank.
func (p Plan) Entries(descs []string) []schedule.Entry {
	slots := p.Slots()
	out := make([]schedule.Entry, 0, len(slots))
	for i, s := range slots {
		var desc string
		if i < len(descs) {
			desc = DecodeDescription(descs[i])
		}
		out = append(out, schedule.Entry{
			Start:       schedule.NewTimestamp(s.Start),
			End:         schedule.NewTimestamp(s.End),
			Task:        s.Task,
			Status:      p.Status,
			Description: desc,
		})
	}
	return out
}
