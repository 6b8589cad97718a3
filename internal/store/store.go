// Package store persists the schedule collection as the "schedule" section
// of the shared configuration document.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"jotter/internal/document"
	"jotter/internal/schedule"
	logx "jotter/pkg/logx"
)

// DefaultSection is the document key owned by the schedule subsystem.
const DefaultSection = "schedule"

type Config struct {
	Path     string
	Section  string         // default "schedule"
	Location *time.Location // zone for stored times without offset; default time.Local
}

type Store struct {
	doc     *document.Document
	section string
	loc     *time.Location
	log     logx.Logger
}

// rawEntry is the on-disk shape. Fields are pointers so a missing key can be
// told apart from an empty value when applying defaults.
type rawEntry struct {
	Start       *string `json:"start"`
	End         *string `json:"end"`
	Task        *string `json:"task"`
	Status      *string `json:"status"`
	Description *string `json:"description"`
}

func New(cfg Config, log logx.Logger) *Store {
	section := strings.TrimSpace(cfg.Section)
	if section == "" {
		section = DefaultSection
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Store{doc: document.Open(cfg.Path), section: section, loc: loc, log: log}
}

func (s *Store) Path() string { return s.doc.Path() }

// Load returns the stored collection, or an empty one when the document or
// the section does not exist. Any read or decode problem is a
// PersistenceFailure.
func (s *Store) Load(ctx context.Context) (schedule.Collection, error) {
	raw, ok, err := s.doc.ReadSection(ctx, s.section)
	if err != nil {
		return nil, schedule.Persistence("load", err)
	}
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		s.log.Debug("schedule section absent; starting empty", logx.String("path", s.doc.Path()))
		return schedule.Collection{}, nil
	}

	var items []rawEntry
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, schedule.Persistence("load", fmt.Errorf("decode %s section: %w", s.section, err))
	}
	out := make(schedule.Collection, 0, len(items))
	for i, it := range items {
		e, err := s.decode(it)
		if err != nil {
			return nil, schedule.Persistence("load", fmt.Errorf("entry %d: %w", i, err))
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) decode(it rawEntry) (schedule.Entry, error) {
	var e schedule.Entry
	var err error
	if v := value(it.Start); strings.TrimSpace(v) != "" {
		if e.Start, err = schedule.ParseTime("start", v, s.loc); err != nil {
			return e, err
		}
	}
	if v := value(it.End); strings.TrimSpace(v) != "" {
		if e.End, err = schedule.ParseTime("end", v, s.loc); err != nil {
			return e, err
		}
	}
	e.Task = value(it.Task)
	e.Status = value(it.Status)
	if it.Status == nil {
		e.Status = schedule.StatusUnfinished
	}
	e.Description = value(it.Description)
	return e, nil
}

// Save rewrites only the schedule section. Sibling keys are preserved.
func (s *Store) Save(ctx context.Context, c schedule.Collection) error {
	if c == nil {
		c = schedule.Collection{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("  ", "  ")
	if err := enc.Encode(c); err != nil {
		return schedule.Persistence("save", fmt.Errorf("encode: %w", err))
	}
	raw := bytes.TrimRight(buf.Bytes(), "\n")
	if err := s.doc.WriteSection(ctx, s.section, raw); err != nil {
		return schedule.Persistence("save", err)
	}
	s.log.Debug("schedule saved", logx.String("path", s.doc.Path()), logx.Int("entries", len(c)))
	return nil
}

func value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
