package planner

import (
	"context"
	"fmt"

	"jotter/internal/audit"
	"jotter/internal/schedule"
)

// ListQuery holds raw list filters. Blank fields are not applied.
type ListQuery struct {
	Status    string
	StartDate string
	EndDate   string
	Limit     int
}

func (s *Service) List(ctx context.Context, q ListQuery) ([]schedule.Indexed, error) {
	from, to, err := schedule.ParseFilterDates(q.StartDate, q.EndDate, s.loc)
	if err != nil {
		return nil, err
	}
	if q.Limit < 0 {
		return nil, schedule.NewError(schedule.InvalidArgument, "limit", fmt.Sprint(q.Limit), fmt.Errorf("must be >= 0"))
	}
	c, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return c.List(schedule.Filter{Status: q.Status, From: from, To: to, Limit: q.Limit}), nil
}

func (s *Service) Search(ctx context.Context, keyword, field string) ([]schedule.Indexed, error) {
	c, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return c.Search(keyword, field)
}

// View names a time-relative listing.
type View string

const (
	ViewNow      View = "now"
	ViewOverdue  View = "overdue"
	ViewUpcoming View = "upcoming"
	ViewHistory  View = "history"
)

// View lists entries relative to the current time. days applies to history.
func (s *Service) View(ctx context.Context, v View, days int) ([]schedule.Indexed, error) {
	c, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now().In(s.loc)
	switch v {
	case ViewNow:
		return c.InProgress(now), nil
	case ViewOverdue:
		return c.Overdue(now), nil
	case ViewUpcoming:
		return c.Upcoming(now), nil
	case ViewHistory:
		return c.History(now, days), nil
	default:
		return nil, schedule.NewError(schedule.InvalidArgument, "view", string(v), nil)
	}
}

func (s *Service) Stats(ctx context.Context) (schedule.Stats, []string, error) {
	c, err := s.store.Load(ctx)
	if err != nil {
		return schedule.Stats{}, nil, err
	}
	st, order := c.Stats()
	return st, order, nil
}

// Audit returns the n most recent audit records, oldest first.
func (s *Service) Audit(ctx context.Context, n int) ([]audit.Record, error) {
	if s.audit == nil {
		return nil, ErrAuditDisabled
	}
	return s.audit.Recent(ctx, n)
}
