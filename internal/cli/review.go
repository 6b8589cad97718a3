package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"jotter/internal/schedule"
	"jotter/internal/services/planner"
)

type reviewChoice struct {
	key   string
	label string
}

var (
	nowChoices = []reviewChoice{
		{"1", "still in progress"},
		{"2", "done"},
		{"3", "extend"},
		{"4", "on hold"},
		{"5", "edit description"},
		{"0", "skip"},
	}
	overdueChoices = []reviewChoice{
		{"1", "done"},
		{"2", "not finished (note a reason)"},
		{"3", "extend"},
		{"4", "on hold"},
		{"5", "edit description"},
		{"0", "skip"},
	}
)

// reviewer walks current and overdue entries before a new batch is planned.
type reviewer struct {
	pl  *planner.Service
	p   *prompter
	out io.Writer
	pr  *printer
}

func newReviewer(pl *planner.Service, p *prompter, out io.Writer) *reviewer {
	return &reviewer{pl: pl, p: p, out: out, pr: &printer{w: out, format: formatText}}
}

// run reviews in-progress entries, then overdue ones. Ids are stable
// because no action here removes an entry.
func (r *reviewer) run(ctx context.Context) error {
	now, err := r.pl.View(ctx, planner.ViewNow, 0)
	if err != nil {
		return err
	}
	if err := r.section(ctx, "in progress", now, nowChoices, false); err != nil {
		return err
	}
	overdue, err := r.pl.View(ctx, planner.ViewOverdue, 0)
	if err != nil {
		return err
	}
	return r.section(ctx, "overdue", overdue, overdueChoices, true)
}

func (r *reviewer) section(ctx context.Context, title string, items []schedule.Indexed, choices []reviewChoice, overdue bool) error {
	if len(items) == 0 {
		return nil
	}
	fmt.Fprintf(r.out, "== %s (%d) ==\n", title, len(items))
	for _, it := range items {
		r.pr.entry(it.ID, it.Entry)
		for _, c := range choices {
			fmt.Fprintf(r.out, "  [%s] %s\n", c.key, c.label)
		}
		key, err := r.choose(choices)
		if err != nil {
			return err
		}
		if err := r.apply(ctx, it, key, overdue); err != nil {
			return err
		}
	}
	return nil
}

func (r *reviewer) choose(choices []reviewChoice) (string, error) {
	for {
		ans, err := r.p.ask(fmt.Sprintf("choice [0-%d, default 0]: ", len(choices)-1))
		if err != nil {
			return "", err
		}
		if ans == "" {
			return "0", nil
		}
		for _, c := range choices {
			if c.key == ans {
				return ans, nil
			}
		}
		fmt.Fprintf(r.out, "unknown choice %q\n", ans)
	}
}

func (r *reviewer) apply(ctx context.Context, it schedule.Indexed, key string, overdue bool) error {
	switch {
	case key == "0":
		return nil
	case key == "1" && !overdue:
		return r.setStatus(ctx, it.ID, schedule.StatusInProgress)
	case key == "1" && overdue:
		return r.setStatus(ctx, it.ID, schedule.StatusCompleted)
	case key == "2" && !overdue:
		return r.setStatus(ctx, it.ID, schedule.StatusCompleted)
	case key == "2" && overdue:
		return r.unfinished(ctx, it)
	case key == "3":
		return r.extend(ctx, it.ID)
	case key == "4":
		return r.setStatus(ctx, it.ID, schedule.StatusOnHold)
	case key == "5":
		raw, err := r.p.ask(`new description (\n for a newline, blank clears): `)
		if err != nil {
			return err
		}
		d := schedule.DecodeEscapes(raw)
		return r.edit(ctx, it.ID, schedule.Fields{Description: &d}, "description updated")
	}
	return nil
}

func (r *reviewer) setStatus(ctx context.Context, id int, status string) error {
	return r.edit(ctx, id, schedule.Fields{Status: &status}, "status: "+status)
}

// unfinished resets the status and appends an optional reason to the
// description.
func (r *reviewer) unfinished(ctx context.Context, it schedule.Indexed) error {
	reason, err := r.p.ask("reason (optional): ")
	if err != nil {
		return err
	}
	status := schedule.StatusUnfinished
	f := schedule.Fields{Status: &status}
	if reason != "" {
		d := "未完成原因：" + reason
		if it.Entry.Description != "" {
			d = it.Entry.Description + "\n" + d
		}
		f.Description = &d
	}
	return r.edit(ctx, it.ID, f, "status: "+status)
}

// extend asks again until the duration parses; EOF aborts.
func (r *reviewer) extend(ctx context.Context, id int) error {
	for {
		raw, err := r.p.ask("extend by (e.g. 1小时, 30分钟, 1.5): ")
		if err != nil {
			return err
		}
		e, err := r.pl.Extend(ctx, id, raw)
		if errors.Is(err, schedule.ErrInvalidDuration) {
			fmt.Fprintln(r.out, err)
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "[%d] now ends %s\n", id, e.End)
		return nil
	}
}

func (r *reviewer) edit(ctx context.Context, id int, f schedule.Fields, msg string) error {
	if _, err := r.pl.Edit(ctx, id, f); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "[%d] %s\n", id, msg)
	return nil
}
