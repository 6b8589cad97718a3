package audit

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	logx "jotter/pkg/logx"
)

func drivers(t *testing.T) map[string]Config {
	t.Helper()
	dir := t.TempDir()
	return map[string]Config{
		"file":   {Driver: "file", Path: filepath.Join(dir, "f", "jot_audit")},
		"sqlite": {Driver: "sqlite", Path: filepath.Join(dir, "s", "jot_audit.db"), BusyTimeout: time.Second},
	}
}

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, d := range []string{"", "none", " NONE "} {
		st, err := Open(Config{Driver: d}, logx.Nop())
		if err != nil || st != nil {
			t.Fatalf("driver %q: st=%v err=%v", d, st, err)
		}
	}
	if _, err := Open(Config{Driver: "redis", Path: "x"}, logx.Nop()); err == nil {
		t.Fatalf("expected unknown driver error")
	}
	if _, err := Open(Config{Driver: "file"}, logx.Nop()); err == nil {
		t.Fatalf("expected missing path error")
	}
}

func TestAppendAndRecent(t *testing.T) {
	t.Parallel()
	for name, cfg := range drivers(t) {
		cfg := cfg
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			st, err := Open(cfg, logx.Nop())
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer st.Close()

			for i := 0; i < 5; i++ {
				if err := st.Append(ctx, Record{Action: ActionAdd, Index: i, Task: fmt.Sprintf("t%d", i)}); err != nil {
					t.Fatalf("Append: %v", err)
				}
			}
			got, err := st.Recent(ctx, 3)
			if err != nil {
				t.Fatalf("Recent: %v", err)
			}
			if len(got) != 3 {
				t.Fatalf("len=%d", len(got))
			}
			for i, r := range got {
				if r.Index != i+2 || r.Task != fmt.Sprintf("t%d", i+2) {
					t.Fatalf("record %d: %+v", i, r)
				}
				if r.ID == "" || r.At.IsZero() {
					t.Fatalf("record %d not stamped: %+v", i, r)
				}
			}
			all, err := st.Recent(ctx, 100)
			if err != nil || len(all) != 5 {
				t.Fatalf("Recent(100): %d %v", len(all), err)
			}
			if none, _ := st.Recent(ctx, 0); len(none) != 0 {
				t.Fatalf("Recent(0) = %d", len(none))
			}
			if huge, err := st.Recent(ctx, math.MaxInt); err != nil || len(huge) != 5 {
				t.Fatalf("Recent(MaxInt): %d %v", len(huge), err)
			}
		})
	}
}

func TestRecentIsBounded(t *testing.T) {
	t.Parallel()
	for name, cfg := range drivers(t) {
		cfg := cfg
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			st, err := Open(cfg, logx.Nop())
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer st.Close()
			for i := 0; i < MaxRecent+2; i++ {
				if err := st.Append(ctx, Record{Action: ActionEdit, Index: i}); err != nil {
					t.Fatalf("Append %d: %v", i, err)
				}
			}
			got, err := st.Recent(ctx, MaxRecent+2)
			if err != nil {
				t.Fatalf("Recent: %v", err)
			}
			if len(got) != MaxRecent || got[len(got)-1].Index != MaxRecent+1 {
				t.Fatalf("len=%d last=%+v", len(got), got[len(got)-1])
			}
		})
	}
}

func TestDedupSurvivesReopen(t *testing.T) {
	t.Parallel()
	for name, cfg := range drivers(t) {
		cfg := cfg
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			until := time.Now().Add(time.Hour).Truncate(time.Millisecond)

			st, err := Open(cfg, logx.Nop())
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if err := st.PutDedup(ctx, "start:0:2025-01-10 09:00", until); err != nil {
				t.Fatalf("PutDedup: %v", err)
			}
			if err := st.PutDedup(ctx, "gone", time.Now().Add(-time.Hour)); err != nil {
				t.Fatalf("PutDedup: %v", err)
			}
			if err := st.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			st, err = Open(cfg, logx.Nop())
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			defer st.Close()
			got, ok, err := st.GetDedup(ctx, "start:0:2025-01-10 09:00")
			if err != nil || !ok || !got.Equal(until) {
				t.Fatalf("GetDedup: %v %v %v", got, ok, err)
			}
			if _, ok, _ := st.GetDedup(ctx, "missing"); ok {
				t.Fatalf("unexpected key")
			}
		})
	}
}

func TestFileStoreCompacts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st, err := openFile(Config{Path: filepath.Join(t.TempDir(), "a.log")}, logx.Nop())
	if err != nil {
		t.Fatalf("openFile: %v", err)
	}
	defer st.Close()
	st.compactEvery = 2
	until := time.Now().Add(time.Hour)
	for i := 0; i < 4; i++ {
		if err := st.PutDedup(ctx, fmt.Sprintf("k%d", i), until); err != nil {
			t.Fatalf("PutDedup: %v", err)
		}
	}
	m := map[string]int64{}
	if err := loadDedupSnapshot(st.dedupSnapshotPath, m); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(m) != 4 {
		t.Fatalf("snapshot has %d keys", len(m))
	}
}

func TestClosedFileStore(t *testing.T) {
	t.Parallel()
	st, err := openFile(Config{Path: filepath.Join(t.TempDir(), "a")}, logx.Nop())
	if err != nil {
		t.Fatalf("openFile: %v", err)
	}
	_ = st.Close()
	if err := st.Append(context.Background(), Record{Action: ActionAdd}); err != ErrClosed {
		t.Fatalf("want ErrClosed, got %v", err)
	}
}
