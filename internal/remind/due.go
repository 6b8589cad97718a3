package remind

import (
	"fmt"
	"time"

	"jotter/internal/notify"
	"jotter/internal/schedule"
)

// due is one pending reminder and how long its dedup key must live.
type due struct {
	msg   notify.Message
	key   string
	until time.Time
}

// Due lists reminders for now: entries starting within lead, and unfinished
// entries whose end passed within window. Completed entries are skipped.
func Due(c schedule.Collection, now time.Time, lead, window time.Duration) []notify.Message {
	ds := collect(c, now, lead, window)
	out := make([]notify.Message, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.msg)
	}
	return out
}

func collect(c schedule.Collection, now time.Time, lead, window time.Duration) []due {
	var out []due
	for i, e := range c {
		if e.Status == schedule.StatusCompleted {
			continue
		}
		item := schedule.Indexed{ID: i, Entry: e}
		if !e.Start.IsZero() && !e.Start.Before(now) && e.Start.Sub(now) <= lead {
			out = append(out, due{
				msg:   notify.Message{Reason: notify.ReasonStarting, Item: item, Now: now},
				key:   dedupKey(notify.ReasonStarting, e),
				until: e.Start.Time.Add(time.Minute),
			})
		}
		if e.End.IsZero() {
			continue
		}
		end := schedule.DateRangeEnd(e.End)
		if end.Before(now) && now.Sub(end) <= window {
			out = append(out, due{
				msg:   notify.Message{Reason: notify.ReasonOverdue, Item: item, Now: now},
				key:   dedupKey(notify.ReasonOverdue, e),
				until: end.Add(window),
			})
		}
	}
	return out
}

// dedupKey identifies an entry by content, since positional ids shift.
func dedupKey(r notify.Reason, e schedule.Entry) string {
	return fmt.Sprintf("remind:%s:%s|%s|%s", r, e.Start, e.End, e.Task)
}
