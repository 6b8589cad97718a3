package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"jotter/internal/app"
	"jotter/internal/audit"
	"jotter/internal/schedule"
)

type harness struct {
	dir string
	doc string
	cfg string
	now time.Time
}

func newHarness(t *testing.T, auditDriver string) *harness {
	t.Helper()
	dir := t.TempDir()
	h := &harness{
		dir: dir,
		doc: filepath.Join(dir, "texteditor_config.json"),
		cfg: filepath.Join(dir, "jot.yaml"),
		now: time.Date(2025, 1, 15, 9, 7, 30, 0, time.UTC),
	}
	if err := os.WriteFile(h.doc, []byte(`{"file_path": "/tmp/notes.txt", "tail.n": 20}`), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	cfg := fmt.Sprintf(`document: %q
timezone: UTC
logging:
  level: "off"
  console: false
audit:
  driver: %s
  path: %q
`, h.doc, auditDriver, filepath.Join(dir, "jot"))
	if err := os.WriteFile(h.cfg, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return h
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, string, int) {
	t.Helper()
	var out, errb bytes.Buffer
	code := Execute(context.Background(), append([]string{"--config", h.cfg}, args...),
		Streams{In: strings.NewReader(stdin), Out: &out, Err: &errb},
		app.Options{
			Getenv: func(string) string { return "" },
			Now:    func() time.Time { return h.now },
		})
	return out.String(), errb.String(), code
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, code := h.run(t, "", args...)
	if code != 0 {
		t.Fatalf("jot %s: exit %d: %s", strings.Join(args, " "), code, errOut)
	}
	return out
}

func (h *harness) list(t *testing.T, args ...string) []schedule.Indexed {
	t.Helper()
	out := h.mustRun(t, append([]string{"schedule", "list", "--format", "json"}, args...)...)
	var items []schedule.Indexed
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("decode list: %v\n%s", err, out)
	}
	return items
}

func (h *harness) rawDoc(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile(h.doc)
	if err != nil {
		t.Fatalf("read doc: %v", err)
	}
	return string(b)
}

func TestScheduleLifecycle(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "none")

	out := h.mustRun(t, "schedule", "add", "--start", "2025-01-15 09:00", "--end", "2025-01-15 10:00", "--task", "写报告")
	if !strings.Contains(out, "added #0") {
		t.Fatalf("add output=%q", out)
	}
	h.mustRun(t, "schedule", "add", "--start", "2025-01-16", "--end", "2025-01-16", "--task", "review",
		"--description", `line1\nline2`)

	items := h.list(t)
	if len(items) != 2 {
		t.Fatalf("len=%d", len(items))
	}
	if items[0].Entry.Status != schedule.StatusUnfinished {
		t.Fatalf("default status=%q", items[0].Entry.Status)
	}
	if items[1].Entry.Description != "line1\nline2" {
		t.Fatalf("description=%q", items[1].Entry.Description)
	}

	h.mustRun(t, "schedule", "edit", "--index", "1", "--status", schedule.StatusCompleted)
	if got := h.list(t, "--status", schedule.StatusCompleted); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("status filter=%+v", got)
	}

	out = h.mustRun(t, "schedule", "delete", "--id", "0")
	if !strings.Contains(out, "ok") {
		t.Fatalf("delete output=%q", out)
	}
	items = h.list(t)
	if len(items) != 1 || items[0].ID != 0 || items[0].Entry.Task != "review" {
		t.Fatalf("after delete=%+v", items)
	}

	doc := h.rawDoc(t)
	for _, want := range []string{`"file_path": "/tmp/notes.txt"`, `"tail.n": 20`} {
		if !strings.Contains(doc, want) {
			t.Fatalf("sibling %s lost:\n%s", want, doc)
		}
	}
}

func TestScheduleErrors(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "none")
	h.mustRun(t, "schedule", "add", "--start", "2025-01-15", "--end", "2025-01-15", "--task", "a")
	before := h.rawDoc(t)

	cases := []struct {
		name string
		args []string
		want string
	}{
		{"bad start", []string{"schedule", "add", "--start", "2025/01/15", "--end", "2025-01-15", "--task", "x"}, "start: invalid date"},
		{"missing id", []string{"schedule", "edit", "--task", "x"}, "--id or --index is required"},
		{"id index disagree", []string{"schedule", "delete", "--id", "0", "--index", "1"}, "disagree"},
		{"edit out of range", []string{"schedule", "edit", "--id", "5", "--task", "x"}, "index out of range"},
		{"delete negative", []string{"schedule", "delete", "--id", "-1"}, "index out of range"},
		{"empty edit", []string{"schedule", "edit", "--id", "0"}, "invalid argument"},
		{"bad field", []string{"schedule", "search", "a", "--field", "owner"}, "invalid argument"},
		{"bad format", []string{"schedule", "list", "--format", "xml"}, "format: invalid argument"},
		{"bad extend", []string{"schedule", "extend", "--id", "0", "--by", "soon"}, "invalid duration"},
		{"remind disabled", []string{"remind"}, "reminders disabled"},
	}
	for _, tc := range cases {
		_, errOut, code := h.run(t, "", tc.args...)
		if code != 1 {
			t.Fatalf("%s: exit=%d", tc.name, code)
		}
		if !strings.Contains(errOut, tc.want) {
			t.Fatalf("%s: stderr=%q want %q", tc.name, errOut, tc.want)
		}
	}
	if after := h.rawDoc(t); after != before {
		t.Fatalf("failed commands changed the document:\n%s", after)
	}
}

func TestSearchAndViews(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "none")
	h.mustRun(t, "schedule", "add", "--start", "2025-01-15 08:00", "--end", "2025-01-15 10:00", "--task", "standup notes")
	h.mustRun(t, "schedule", "add", "--start", "2025-01-14 08:00", "--end", "2025-01-14 09:00", "--task", "draft",
		"--description", "notes for standup")
	h.mustRun(t, "schedule", "add", "--start", "2025-01-16 08:00", "--end", "2025-01-16 09:00", "--task", "Retro")

	out := h.mustRun(t, "schedule", "search", "standup")
	if !strings.Contains(out, "[0] ") || !strings.Contains(out, "[1] ") || !strings.Contains(out, "2 entries") {
		t.Fatalf("search=%q", out)
	}
	out = h.mustRun(t, "schedule", "search", "retro")
	if !strings.Contains(out, "no entries") {
		t.Fatalf("search is case-sensitive, got %q", out)
	}

	views := map[string]string{"now": "standup notes", "overdue": "draft", "upcoming": "Retro"}
	for v, want := range views {
		out := h.mustRun(t, "schedule", v)
		if !strings.Contains(out, want) || !strings.Contains(out, "1 entries") {
			t.Fatalf("%s=%q", v, out)
		}
	}
	out = h.mustRun(t, "schedule", "history", "--days", "2")
	if !strings.Contains(out, "draft") {
		t.Fatalf("history=%q", out)
	}

	out = h.mustRun(t, "schedule", "stats", "--format", "yaml")
	if !strings.Contains(out, "total: 3") {
		t.Fatalf("stats=%q", out)
	}
}

func TestExtend(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "none")
	h.mustRun(t, "schedule", "add", "--start", "2025-01-15 09:00", "--end", "2025-01-15 10:00", "--task", "a")
	h.mustRun(t, "schedule", "extend", "--index", "0", "--by", "30分钟")

	e := h.list(t)[0].Entry
	if got := e.End.String(); got != "2025-01-15 10:30" {
		t.Fatalf("end=%q", got)
	}
	if e.Status != schedule.StatusPostponed {
		t.Fatalf("status=%q", e.Status)
	}
}

func TestGenInteractive(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "file")

	// total, unit, start (default), template, status (default), two descriptions, confirm (default yes)
	stdin := "5\n2小时\n\n工作{n}\n\n" + `第一\n细节` + "\n\n\n"
	out, errOut, code := h.run(t, stdin, "schedule", "gen")
	if code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, errOut)
	}
	for _, want := range []string{"2 entries of 2h0m0s", "1h0m0s left over", "added #0..#1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	items := h.list(t)
	if len(items) != 2 {
		t.Fatalf("len=%d", len(items))
	}
	want := []struct{ start, end, task, desc string }{
		{"2025-01-15 09:07", "2025-01-15 11:07", "工作1", "第一\n细节"},
		{"2025-01-15 11:07", "2025-01-15 13:07", "工作2", ""},
	}
	for i, w := range want {
		e := items[i].Entry
		if e.Start.String() != w.start || e.End.String() != w.end || e.Task != w.task || e.Description != w.desc {
			t.Fatalf("entry %d=%+v", i, e)
		}
		if e.Status != schedule.StatusUnfinished {
			t.Fatalf("entry %d status=%q", i, e.Status)
		}
	}

	out = h.mustRun(t, "schedule", "audit", "--format", "json")
	var recs []audit.Record
	if err := json.Unmarshal([]byte(out), &recs); err != nil {
		t.Fatalf("decode audit: %v", err)
	}
	if len(recs) != 1 || recs[0].Action != audit.ActionGen || recs[0].Count != 2 {
		t.Fatalf("audit=%+v", recs)
	}
}

func TestGenReviewsCurrentAndOverdue(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "none")
	h.mustRun(t, "schedule", "add", "--start", "2025-01-14 08:00", "--end", "2025-01-14 09:00", "--task", "draft", "--description", "d")
	h.mustRun(t, "schedule", "add", "--start", "2025-01-15 09:00", "--end", "2025-01-15 10:00", "--task", "standup")
	h.mustRun(t, "schedule", "add", "--start", "2025-01-13 08:00", "--end", "2025-01-13 09:00", "--task", "old")
	h.mustRun(t, "schedule", "add", "--start", "2025-01-12 08:00", "--end", "2025-01-12 09:00", "--task", "shipped",
		"--status", schedule.StatusCompleted)

	// standup: extend (bad then good); draft: bad choice, not finished with reason; old: done;
	// then a wizard that generates nothing.
	stdin := "3\nsoon\n1小时\n9\n2\nblocked\n1\n" + "1\n2小时\n\n\n\n"
	out, errOut, code := h.run(t, stdin, "schedule", "gen")
	if code != 0 {
		t.Fatalf("exit=%d stderr=%s\n%s", code, errOut, out)
	}
	for _, want := range []string{"== in progress (1) ==", "== overdue (2) ==", "by: invalid duration",
		"[1] now ends 2025-01-15 11:00", `unknown choice "9"`, "nothing to generate"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "shipped") {
		t.Fatalf("completed entry reviewed:\n%s", out)
	}

	items := h.list(t)
	want := []struct{ end, status, desc string }{
		{"2025-01-14 09:00", schedule.StatusUnfinished, "d\n未完成原因：blocked"},
		{"2025-01-15 11:00", schedule.StatusPostponed, ""},
		{"2025-01-13 09:00", schedule.StatusCompleted, ""},
		{"2025-01-12 09:00", schedule.StatusCompleted, ""},
	}
	if len(items) != len(want) {
		t.Fatalf("len=%d", len(items))
	}
	for i, w := range want {
		e := items[i].Entry
		if e.End.String() != w.end || e.Status != w.status || e.Description != w.desc {
			t.Fatalf("entry %d=%+v", i, e)
		}
	}
}

func TestGenReviewSkipAndAbort(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		args    []string
		stdin   string
		code    int
		wantOut string
		noOut   string
		wantErr string
	}{
		{"no review flag", []string{"--no-review"}, "1\n2小时\n\n\n\n", 0, "nothing to generate", "overdue", ""},
		{"default skips", nil, "\n1\n2小时\n\n\n\n", 0, "== overdue (1) ==", "status:", ""},
		{"eof in review", nil, "", 1, "== overdue (1) ==", "total duration", "aborted"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t, "none")
			h.mustRun(t, "schedule", "add", "--start", "2025-01-14 08:00", "--end", "2025-01-14 09:00", "--task", "draft")
			before := h.rawDoc(t)
			out, errOut, code := h.run(t, tc.stdin, append([]string{"schedule", "gen"}, tc.args...)...)
			if code != tc.code {
				t.Fatalf("exit=%d stderr=%s", code, errOut)
			}
			if !strings.Contains(out, tc.wantOut) || strings.Contains(out, tc.noOut) || !strings.Contains(errOut, tc.wantErr) {
				t.Fatalf("out=%q err=%q", out, errOut)
			}
			if after := h.rawDoc(t); after != before {
				t.Fatalf("document changed:\n%s", after)
			}
		})
	}
}

func TestGenNothingSaved(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		stdin   string
		code    int
		wantOut string
		wantErr string
	}{
		{"declined", "4\n2h\n2025-01-20 08:00\n\n\na\nb\nn\n", 0, "discarded", ""},
		{"shorter than unit", "1\n2小时\n\n\n\n", 0, "nothing to generate", ""},
		{"bad unit", "8\nfortnight\n\n\n\n", 1, "", "unit: invalid duration"},
		{"bad start", "8\n2\n2025-13-01\n\n\n", 1, "", "start_time: invalid date"},
		{"eof mid wizard", "8\n", 1, "", "aborted"},
		{"eof in descriptions", "4\n2\n\n\n\nfirst\n", 1, "", "aborted"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t, "none")
			before := h.rawDoc(t)
			out, errOut, code := h.run(t, tc.stdin, "schedule", "gen")
			if code != tc.code {
				t.Fatalf("exit=%d stderr=%s", code, errOut)
			}
			if !strings.Contains(out, tc.wantOut) || !strings.Contains(errOut, tc.wantErr) {
				t.Fatalf("out=%q err=%q", out, errOut)
			}
			if after := h.rawDoc(t); after != before {
				t.Fatalf("document changed:\n%s", after)
			}
		})
	}
}

func TestAuditDisabled(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "none")
	_, errOut, code := h.run(t, "", "schedule", "audit")
	if code != 1 || !strings.Contains(errOut, "audit log disabled") {
		t.Fatalf("exit=%d stderr=%q", code, errOut)
	}
}

func TestDocumentFlagOverridesConfig(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "none")
	other := filepath.Join(h.dir, "other.json")
	h.mustRun(t, "--document", other, "schedule", "add", "--start", "2025-01-15", "--end", "2025-01-15", "--task", "x")

	b, err := os.ReadFile(other)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), `"task": "x"`) {
		t.Fatalf("other doc=%s", b)
	}
	if strings.Contains(h.rawDoc(t), "schedule") {
		t.Fatalf("configured document was written")
	}
}
