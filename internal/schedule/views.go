package schedule

import "time"

// InProgress returns entries whose window contains now.
func (c Collection) InProgress(now time.Time) []Indexed {
	return c.where(func(e Entry) bool {
		return !e.Start.IsZero() && !e.End.IsZero() && !now.Before(e.Start.Time) && !now.After(DateRangeEnd(e.End))
	})
}

// Overdue returns unfinished entries whose end has passed.
func (c Collection) Overdue(now time.Time) []Indexed {
	return c.where(func(e Entry) bool {
		return e.Status != StatusCompleted && !e.End.IsZero() && DateRangeEnd(e.End).Before(now)
	})
}

// Upcoming returns entries that have not started yet.
func (c Collection) Upcoming(now time.Time) []Indexed {
	return c.where(func(e Entry) bool {
		return !e.Start.IsZero() && e.Start.After(now)
	})
}

// History returns entries that ended within the last days days.
func (c Collection) History(now time.Time, days int) []Indexed {
	if days <= 0 {
		days = 7
	}
	since := now.AddDate(0, 0, -days)
	return c.where(func(e Entry) bool {
		if e.End.IsZero() {
			return false
		}
		end := DateRangeEnd(e.End)
		return end.Before(now) && !end.Before(since)
	})
}

func (c Collection) where(keep func(Entry) bool) []Indexed {
	out := make([]Indexed, 0)
	for i, e := range c {
		if keep(e) {
			out = append(out, Indexed{ID: i, Entry: e})
		}
	}
	return out
}

// Stats summarizes a collection by status.
type Stats struct {
	Total    int            `json:"total" yaml:"total"`
	ByStatus map[string]int `json:"by_status" yaml:"by_status"`
	Reversed int            `json:"reversed" yaml:"reversed"`
}

// Stats counts entries per status. The returned order lists conventional
// statuses first, then others in first-seen collection order.
func (c Collection) Stats() (Stats, []string) {
	s := Stats{Total: len(c), ByStatus: map[string]int{}}
	for _, st := range KnownStatuses {
		s.ByStatus[st] = 0
	}
	order := append([]string(nil), KnownStatuses...)
	for _, e := range c {
		if _, ok := s.ByStatus[e.Status]; !ok {
			order = append(order, e.Status)
		}
		s.ByStatus[e.Status]++
		if e.Reversed() {
			s.Reversed++
		}
	}
	return s, order
}
