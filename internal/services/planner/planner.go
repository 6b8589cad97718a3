// Package planner runs schedule operations as load, mutate, save cycles.
//
// Every call loads the collection afresh, so ids passed to Edit, Delete and
// Extend refer to positions in the stored collection at call time. A
// mutation is durable only once Save returns; on any error the stored
// document is left as it was.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jotter/internal/audit"
	"jotter/internal/generator"
	"jotter/internal/schedule"
	logx "jotter/pkg/logx"
)

var ErrAuditDisabled = errors.New("audit log disabled (set audit.driver)")

// Store is satisfied by *store.Store.
type Store interface {
	Load(ctx context.Context) (schedule.Collection, error)
	Save(ctx context.Context, c schedule.Collection) error
}

type Options struct {
	Location  *time.Location
	Now       func() time.Time
	Generator generator.Options
}

type Service struct {
	store Store
	audit audit.Store
	log   logx.Logger
	loc   *time.Location
	now   func() time.Time
	gen   generator.Options
}

// New wires a planner. au may be nil.
func New(st Store, au audit.Store, log logx.Logger, opt Options) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if opt.Location == nil {
		opt.Location = time.Local
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	gen := opt.Generator
	gen.Location = opt.Location
	gen.Now = opt.Now
	return &Service{store: st, audit: au, log: log, loc: opt.Location, now: opt.Now, gen: gen}
}

func (s *Service) Location() *time.Location { return s.loc }

// mutate loads, applies fn and saves. fn returns the audit record to write.
func (s *Service) mutate(ctx context.Context, fn func(c *schedule.Collection) (audit.Record, error)) error {
	c, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	rec, err := fn(&c)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, c); err != nil {
		return err
	}
	s.log.Info("schedule "+rec.Action,
		logx.Int("id", rec.Index),
		logx.String("task", rec.Task),
		logx.Int("count", rec.Count),
		logx.Int("entries", len(c)),
	)
	s.record(ctx, rec)
	return nil
}

// record appends to the audit log. The mutation is already saved, so a
// failure here is only logged.
func (s *Service) record(ctx context.Context, rec audit.Record) {
	if s.audit == nil {
		return
	}
	if rec.At.IsZero() {
		rec.At = s.now()
	}
	if err := s.audit.Append(ctx, rec); err != nil {
		s.log.Warn("audit append failed", logx.String("action", rec.Action), logx.Err(err))
	}
}

// Add validates f, appends the entry and returns its id.
func (s *Service) Add(ctx context.Context, f schedule.Fields) (int, schedule.Entry, error) {
	e, err := schedule.NewEntry(f, s.loc)
	if err != nil {
		return 0, schedule.Entry{}, err
	}
	if e.Reversed() {
		s.log.Warn("entry starts after it ends", logx.String("start", e.Start.String()), logx.String("end", e.End.String()))
	}
	var id int
	err = s.mutate(ctx, func(c *schedule.Collection) (audit.Record, error) {
		id = c.Add(e)
		return audit.Record{Action: audit.ActionAdd, Index: id, Count: 1, Task: e.Task}, nil
	})
	if err != nil {
		return 0, schedule.Entry{}, err
	}
	return id, e, nil
}

// Edit applies the supplied fields to the entry at id.
func (s *Service) Edit(ctx context.Context, id int, f schedule.Fields) (schedule.Entry, error) {
	p, err := schedule.NewPatch(f, s.loc)
	if err != nil {
		return schedule.Entry{}, err
	}
	var out schedule.Entry
	err = s.mutate(ctx, func(c *schedule.Collection) (audit.Record, error) {
		e, err := c.Edit(id, p)
		if err != nil {
			return audit.Record{}, err
		}
		out = e
		return audit.Record{Action: audit.ActionEdit, Index: id, Count: 1, Task: e.Task, Detail: patchFields(p)}, nil
	})
	return out, err
}

// Delete removes the entry at id. Later ids shift down by one.
func (s *Service) Delete(ctx context.Context, id int) (schedule.Entry, error) {
	var out schedule.Entry
	err := s.mutate(ctx, func(c *schedule.Collection) (audit.Record, error) {
		e, err := c.Delete(id)
		if err != nil {
			return audit.Record{}, err
		}
		out = e
		return audit.Record{Action: audit.ActionDelete, Index: id, Count: 1, Task: e.Task}, nil
	})
	return out, err
}

// Extend pushes the end of entry id later by raw (generator unit grammar)
// and marks it postponed.
func (s *Service) Extend(ctx context.Context, id int, raw string) (schedule.Entry, error) {
	d, err := generator.ParseDuration("by", raw)
	if err != nil {
		return schedule.Entry{}, err
	}
	var out schedule.Entry
	err = s.mutate(ctx, func(c *schedule.Collection) (audit.Record, error) {
		e, err := c.Extend(id, d)
		if err != nil {
			return audit.Record{}, err
		}
		out = e
		return audit.Record{Action: audit.ActionExtend, Index: id, Count: 1, Task: e.Task, Detail: d.String()}, nil
	})
	return out, err
}

// PlanGeneration validates wizard answers. It does not touch the store.
func (s *Service) PlanGeneration(in generator.Inputs) (generator.Plan, error) {
	return s.gen.Resolve(in)
}

// Generate appends the plan's entries in one batch and saves once. It
// returns the id of the first new entry and the entries added.
func (s *Service) Generate(ctx context.Context, p generator.Plan, descs []string) (int, []schedule.Entry, error) {
	batch := p.Entries(descs)
	if len(batch) == 0 {
		return 0, nil, nil
	}
	var first int
	err := s.mutate(ctx, func(c *schedule.Collection) (audit.Record, error) {
		first = c.Append(batch...)
		return audit.Record{
			Action: audit.ActionGen,
			Index:  first,
			Count:  len(batch),
			Task:   p.Template,
			Detail: fmt.Sprintf("unit=%s remainder=%s", p.Unit, p.Remainder()),
		}, nil
	})
	if err != nil {
		return 0, nil, err
	}
	return first, batch, nil
}

func patchFields(p schedule.Patch) string {
	var names []string
	if p.Start != nil {
		names = append(names, "start")
	}
	if p.End != nil {
		names = append(names, "end")
	}
	if p.Task != nil {
		names = append(names, "task")
	}
	if p.Status != nil {
		names = append(names, "status")
	}
	if p.Description != nil {
		names = append(names, "description")
	}
	return fmt.Sprint(names)
}
