package schedule

import (
	"errors"
	"testing"
	"time"
)

func ptr(s string) *string { return &s }

func mustEntry(t *testing.T, start, end, task string) Entry {
	t.Helper()
	e, err := NewEntry(Fields{Start: ptr(start), End: ptr(end), Task: ptr(task)}, time.UTC)
	if err != nil {
		t.Fatalf("NewEntry(%q, %q) error: %v", start, end, err)
	}
	return e
}

func tasks(items []Indexed) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Entry.Task)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewEntryDefaultsAndLayouts(t *testing.T) {
	t.Parallel()
	e := mustEntry(t, "2025-01-10", "2025-01-10 18:30", "report")
	if e.Status != StatusUnfinished {
		t.Fatalf("Status = %q, want %q", e.Status, StatusUnfinished)
	}
	if !e.Start.DateOnly() || e.Start.String() != "2025-01-10" {
		t.Fatalf("start should stay date-only, got %q", e.Start.String())
	}
	if e.End.String() != "2025-01-10 18:30" {
		t.Fatalf("end = %q", e.End.String())
	}
}

func TestNewEntryInvalidDateNamesField(t *testing.T) {
	t.Parallel()
	_, err := NewEntry(Fields{Start: ptr("2025-01-10"), End: ptr("next tuesday")}, time.UTC)
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected InvalidDate, got %v", err)
	}
	var e *Error
	if !errors.As(err, &e) || e.Field != "end" {
		t.Fatalf("error should name the end field, got %#v", err)
	}
}

func TestNewEntryToleratesReversedWindow(t *testing.T) {
	t.Parallel()
	e := mustEntry(t, "2025-01-20", "2025-01-10", "draft")
	if !e.Reversed() {
		t.Fatal("expected Reversed() for start > end")
	}
}

func TestParseTimeNormalizesFullWidthColon(t *testing.T) {
	t.Parallel()
	ts, err := ParseTime("start", " 2025-03-01   09：45 ", time.UTC)
	if err != nil {
		t.Fatalf("ParseTime error: %v", err)
	}
	want := time.Date(2025, 3, 1, 9, 45, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Fatalf("ParseTime = %v, want %v", ts.Time, want)
	}
}

func TestAddPreservesOrder(t *testing.T) {
	t.Parallel()
	var c Collection
	starts := []string{"2025-01-03", "2025-01-01", "2025-01-02"}
	for i, name := range []string{"c", "a", "b"} {
		id := c.Add(mustEntry(t, starts[i], "2025-01-05", name))
		if id != i {
			t.Fatalf("Add id = %d, want %d", id, i)
		}
	}
	if got := tasks(c.List(Filter{})); !equalStrings(got, []string{"c", "a", "b"}) {
		t.Fatalf("List order = %v", got)
	}
}

func TestIDValidity(t *testing.T) {
	t.Parallel()
	base := Collection{
		mustEntry(t, "2025-01-01", "2025-01-02", "a"),
		mustEntry(t, "2025-01-01", "2025-01-02", "b"),
	}
	task := "x"
	for _, id := range []int{-1, 2, 100} {
		c := base.Clone()
		if _, err := c.Edit(id, Patch{Task: &task}); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("Edit(%d) error = %v, want IndexOutOfRange", id, err)
		}
		if _, err := c.Delete(id); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("Delete(%d) error = %v, want IndexOutOfRange", id, err)
		}
		if c.Len() != 2 {
			t.Fatalf("failed op mutated collection: len=%d", c.Len())
		}
	}
	for _, id := range []int{0, 1} {
		c := base.Clone()
		if _, err := c.Edit(id, Patch{Task: &task}); err != nil {
			t.Fatalf("Edit(%d) error: %v", id, err)
		}
		if _, err := c.Delete(id); err != nil {
			t.Fatalf("Delete(%d) error: %v", id, err)
		}
	}
}

func TestDeleteShiftsLaterEntries(t *testing.T) {
	t.Parallel()
	c := Collection{
		mustEntry(t, "2025-01-01", "2025-01-02", "a"),
		mustEntry(t, "2025-01-01", "2025-01-02", "b"),
		mustEntry(t, "2025-01-01", "2025-01-02", "c"),
		mustEntry(t, "2025-01-01", "2025-01-02", "d"),
	}
	before := c.Clone()
	removed, err := c.Delete(1)
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if removed.Task != "b" {
		t.Fatalf("removed %q, want b", removed.Task)
	}
	if c[0] != before[0] {
		t.Fatal("entry before the deleted id changed")
	}
	for old := 2; old < len(before); old++ {
		if c[old-1] != before[old] {
			t.Fatalf("entry %d did not shift to %d", old, old-1)
		}
	}
}

func TestEditAppliesOnlySuppliedFields(t *testing.T) {
	t.Parallel()
	c := Collection{mustEntry(t, "2025-01-01 09:00", "2025-01-01 10:00", "write")}
	c[0].Description = "keep me"

	p, err := NewPatch(Fields{End: ptr("2024-12-31"), Status: ptr(StatusCompleted)}, time.UTC)
	if err != nil {
		t.Fatalf("NewPatch error: %v", err)
	}
	got, err := c.Edit(0, p)
	if err != nil {
		t.Fatalf("Edit error: %v", err)
	}
	if got.Task != "write" || got.Description != "keep me" {
		t.Fatalf("untouched fields changed: %+v", got)
	}
	if got.Status != StatusCompleted || got.End.String() != "2024-12-31" {
		t.Fatalf("patched fields not applied: %+v", got)
	}
	if !got.Reversed() {
		t.Fatal("edit should accept end < start without re-validating")
	}
}

func TestEditEmptyPatch(t *testing.T) {
	t.Parallel()
	c := Collection{mustEntry(t, "2025-01-01", "2025-01-02", "a")}
	if _, err := c.Edit(0, Patch{}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestListOverlapFilter(t *testing.T) {
	t.Parallel()
	c := Collection{mustEntry(t, "2025-01-10", "2025-01-20", "window")}
	tests := []struct {
		name     string
		from, to string
		want     int
	}{
		{name: "overlapping", from: "2025-01-15", to: "2025-01-25", want: 1},
		{name: "disjoint", from: "2025-02-01", to: "2025-02-10", want: 0},
		{name: "touching end day", from: "2025-01-20", to: "2025-01-30", want: 1},
		{name: "touching start day", from: "2025-01-01", to: "2025-01-10", want: 1},
		{name: "open start", from: "", to: "2025-01-09", want: 0},
		{name: "open end", from: "2025-01-12", to: "", want: 1},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			from, to, err := ParseFilterDates(tt.from, tt.to, time.UTC)
			if err != nil {
				t.Fatalf("ParseFilterDates error: %v", err)
			}
			if got := c.List(Filter{From: from, To: to}); len(got) != tt.want {
				t.Fatalf("List returned %d entries, want %d", len(got), tt.want)
			}
		})
	}
}

func TestListStatusAndLimit(t *testing.T) {
	t.Parallel()
	c := Collection{
		mustEntry(t, "2025-01-01", "2025-01-02", "a"),
		mustEntry(t, "2025-01-01", "2025-01-02", "b"),
		mustEntry(t, "2025-01-01", "2025-01-02", "c"),
	}
	c[1].Status = StatusCompleted

	got := c.List(Filter{Status: StatusUnfinished})
	if !equalStrings(tasks(got), []string{"a", "c"}) || got[1].ID != 2 {
		t.Fatalf("status filter = %+v", got)
	}
	if got := c.List(Filter{Limit: 2}); len(got) != 2 || got[1].ID != 1 {
		t.Fatalf("limit = %+v", got)
	}
}

func TestListIsStable(t *testing.T) {
	t.Parallel()
	c := Collection{
		mustEntry(t, "2025-01-05", "2025-01-06", "late"),
		mustEntry(t, "2025-01-01", "2025-01-02", "early"),
	}
	first := c.List(Filter{})
	second := c.List(Filter{})
	if !equalStrings(tasks(first), tasks(second)) || !equalStrings(tasks(first), []string{"late", "early"}) {
		t.Fatalf("List not stable or reordered: %v / %v", tasks(first), tasks(second))
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()
	c := Collection{
		mustEntry(t, "2025-01-01", "2025-01-02", "project report"),
		mustEntry(t, "2025-01-01", "2025-01-02", "Project kickoff"),
		mustEntry(t, "2025-01-01", "2025-01-02", "gym"),
	}
	c[2].Description = "leg day\nProject-free"

	got, err := c.Search("Project", "")
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if !equalStrings(tasks(got), []string{"Project kickoff", "gym"}) {
		t.Fatalf("Search(Project) = %v", tasks(got))
	}

	got, err = c.Search("Project", FieldTask)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("Search(Project, task) = %+v", got)
	}

	if _, err := c.Search("x", "owner"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("unknown field error = %v", err)
	}
}

func TestExtend(t *testing.T) {
	t.Parallel()
	c := Collection{mustEntry(t, "2025-01-01 09:00", "2025-01-01 10:00", "a")}
	got, err := c.Extend(0, 90*time.Minute)
	if err != nil {
		t.Fatalf("Extend error: %v", err)
	}
	if got.End.String() != "2025-01-01 11:30" || got.Status != StatusPostponed {
		t.Fatalf("Extend result = %+v", got)
	}
	if _, err := c.Extend(0, 0); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("Extend(0) error = %v", err)
	}
	if _, err := c.Extend(3, time.Hour); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("Extend(bad id) error = %v", err)
	}
}

func TestViewsAndStats(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	c := Collection{
		mustEntry(t, "2025-01-10 11:00", "2025-01-10 13:00", "running"),
		mustEntry(t, "2025-01-09 08:00", "2025-01-09 09:00", "missed"),
		mustEntry(t, "2025-01-09 10:00", "2025-01-09 11:00", "done"),
		mustEntry(t, "2025-01-11", "2025-01-11", "tomorrow"),
		mustEntry(t, "2024-12-01", "2024-12-02", "old"),
	}
	c[2].Status = StatusCompleted

	if got := tasks(c.InProgress(now)); !equalStrings(got, []string{"running"}) {
		t.Fatalf("InProgress = %v", got)
	}
	if got := tasks(c.Overdue(now)); !equalStrings(got, []string{"missed", "old"}) {
		t.Fatalf("Overdue = %v", got)
	}
	if got := tasks(c.Upcoming(now)); !equalStrings(got, []string{"tomorrow"}) {
		t.Fatalf("Upcoming = %v", got)
	}
	if got := tasks(c.History(now, 7)); !equalStrings(got, []string{"missed", "done"}) {
		t.Fatalf("History = %v", got)
	}

	st, order := c.Stats()
	if st.Total != 5 || st.ByStatus[StatusUnfinished] != 4 || st.ByStatus[StatusCompleted] != 1 {
		t.Fatalf("Stats = %+v", st)
	}
	if order[0] != StatusUnfinished {
		t.Fatalf("order = %v", order)
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()
	err := Persistence("save", errors.New("disk full"))
	if KindOf(err) != PersistenceFailure || !errors.Is(err, ErrPersistence) {
		t.Fatalf("Persistence wrap = %v", err)
	}
	if Persistence("save", nil) != nil {
		t.Fatal("Persistence(nil) should be nil")
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Fatal("plain error should have unknown kind")
	}
}

func TestTimestampLayoutKeepsSeconds(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	date := Timestamp{Time: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), Layout: LayoutDate}
	iso := Timestamp{Time: base, Layout: LayoutMinuteISO}
	cases := []struct {
		name string
		ts   Timestamp
		want string
	}{
		{"new on the minute", NewTimestamp(base), "2025-01-10 09:00"},
		{"new with seconds", NewTimestamp(base.Add(30 * time.Second)), "2025-01-10 09:00:30"},
		{"add minutes", NewTimestamp(base).Add(90 * time.Minute), "2025-01-10 10:30"},
		{"add seconds", NewTimestamp(base).Add(30 * time.Second), "2025-01-10 09:00:30"},
		{"seconds layout is kept", NewTimestamp(base.Add(30 * time.Second)).Add(30 * time.Second), "2025-01-10 09:01:00"},
		{"date plus days", date.Add(48 * time.Hour), "2025-01-12"},
		{"date plus hours", date.Add(90 * time.Minute), "2025-01-10 01:30"},
		{"date plus seconds", date.Add(90 * time.Second), "2025-01-10 00:01:30"},
		{"iso plus seconds", iso.Add(45 * time.Second), "2025-01-10T09:00:45"},
	}
	for _, tc := range cases {
		if got := tc.ts.String(); got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}
