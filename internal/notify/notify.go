// Package notify delivers reminder messages to the log and to Telegram.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"jotter/internal/schedule"
	logx "jotter/pkg/logx"
)

// Reason says why an entry is being reported.
type Reason string

const (
	ReasonStarting Reason = "starting"
	ReasonOverdue  Reason = "overdue"
)

// Message is one reminder about one entry.
type Message struct {
	Reason Reason
	Item   schedule.Indexed
	Now    time.Time
}

// Text renders the message for humans.
func (m Message) Text() string {
	e := m.Item.Entry
	var b strings.Builder
	switch m.Reason {
	case ReasonStarting:
		fmt.Fprintf(&b, "⏰ #%d %s starts %s", m.Item.ID, e.Task, humanize.RelTime(e.Start.Time, m.Now, "ago", "from now"))
	case ReasonOverdue:
		fmt.Fprintf(&b, "⚠️ #%d %s ended %s [%s]", m.Item.ID, e.Task, humanize.RelTime(e.End.Time, m.Now, "ago", "from now"), e.Status)
	default:
		fmt.Fprintf(&b, "#%d %s", m.Item.ID, e.Task)
	}
	fmt.Fprintf(&b, "\n%s → %s", e.Start, e.End)
	if d := strings.TrimSpace(e.Description); d != "" {
		b.WriteString("\n")
		b.WriteString(d)
	}
	return b.String()
}

// Sink delivers messages.
type Sink interface {
	Name() string
	Notify(ctx context.Context, m Message) error
}

// LogSink writes reminders to the structured log.
type LogSink struct{ Log logx.Logger }

func (LogSink) Name() string { return "log" }

func (s LogSink) Notify(_ context.Context, m Message) error {
	s.Log.Warn("schedule reminder",
		logx.String("reason", string(m.Reason)),
		logx.Int("id", m.Item.ID),
		logx.String("task", m.Item.Entry.Task),
		logx.String("start", m.Item.Entry.Start.String()),
		logx.String("end", m.Item.Entry.End.String()),
		logx.String("status", m.Item.Entry.Status),
		logx.Time("checked_at", m.Now),
	)
	return nil
}

// Fanout sends every message to all sinks and joins their errors.
type Fanout []Sink

func (f Fanout) Name() string {
	names := make([]string, 0, len(f))
	for _, s := range f {
		names = append(names, s.Name())
	}
	return strings.Join(names, "+")
}

func (f Fanout) Notify(ctx context.Context, m Message) error {
	var errs []error
	for _, s := range f {
		if err := s.Notify(ctx, m); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
