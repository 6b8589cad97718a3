package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/tidwall/pretty"
	yaml "go.yaml.in/yaml/v3"

	"jotter/internal/audit"
	"jotter/internal/schedule"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

type printer struct {
	w      io.Writer
	format string
	color  bool
}

func newPrinter(w io.Writer, format string) (*printer, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	switch f {
	case "":
		f = formatText
	case formatText, formatJSON, formatYAML:
	default:
		return nil, schedule.NewError(schedule.InvalidArgument, "format", format, fmt.Errorf("use text, json or yaml"))
	}
	return &printer{w: w, format: f, color: isTerminal(w)}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// structured writes v as JSON or YAML. It reports false for text format.
func (p *printer) structured(v any) (bool, error) {
	switch p.format {
	case formatJSON:
		b, err := json.Marshal(v)
		if err != nil {
			return true, err
		}
		b = pretty.PrettyOptions(b, &pretty.Options{Indent: "  ", Width: 100})
		if p.color {
			b = pretty.Color(b, nil)
		}
		_, err = p.w.Write(b)
		return true, err
	case formatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	}
	return false, nil
}

func (p *printer) items(items []schedule.Indexed) error {
	if done, err := p.structured(items); done {
		return err
	}
	if len(items) == 0 {
		_, err := fmt.Fprintln(p.w, "no entries")
		return err
	}
	for _, it := range items {
		p.entry(it.ID, it.Entry)
	}
	_, err := fmt.Fprintf(p.w, "%d entries\n", len(items))
	return err
}

func (p *printer) one(id int, e schedule.Entry) error {
	if done, err := p.structured(schedule.Indexed{ID: id, Entry: e}); done {
		return err
	}
	p.entry(id, e)
	return nil
}

func (p *printer) entry(id int, e schedule.Entry) {
	fmt.Fprintf(p.w, "[%d] %s → %s  %s (%s)", id, e.Start, e.End, e.Task, e.Status)
	if e.Reversed() {
		fmt.Fprint(p.w, "  ! start after end")
	}
	fmt.Fprintln(p.w)
	if d := strings.TrimRight(e.Description, "\n"); d != "" {
		for _, line := range strings.Split(d, "\n") {
			fmt.Fprintf(p.w, "    %s\n", line)
		}
	}
}

func (p *printer) stats(s schedule.Stats, order []string) error {
	if done, err := p.structured(s); done {
		return err
	}
	fmt.Fprintf(p.w, "total: %d\n", s.Total)
	for _, st := range order {
		fmt.Fprintf(p.w, "  %s: %d\n", st, s.ByStatus[st])
	}
	if s.Reversed > 0 {
		fmt.Fprintf(p.w, "  start after end: %d\n", s.Reversed)
	}
	return nil
}

func (p *printer) audit(recs []audit.Record) error {
	if done, err := p.structured(recs); done {
		return err
	}
	if len(recs) == 0 {
		_, err := fmt.Fprintln(p.w, "no audit records")
		return err
	}
	for _, r := range recs {
		fmt.Fprintf(p.w, "%s (%s)  %-6s #%d", r.At.Format("2006-01-02 15:04:05"), humanize.Time(r.At), r.Action, r.Index)
		if r.Count > 1 {
			fmt.Fprintf(p.w, " x%d", r.Count)
		}
		if r.Task != "" {
			fmt.Fprintf(p.w, "  %s", r.Task)
		}
		if r.Detail != "" {
			fmt.Fprintf(p.w, "  %s", r.Detail)
		}
		fmt.Fprintln(p.w)
	}
	return nil
}
