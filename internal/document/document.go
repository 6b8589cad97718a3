package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var ErrNotObject = errors.New("document is not a JSON object")

type Document struct {
	path string
	perm fs.FileMode
}

func Open(path string) *Document {
	return &Document{path: path, perm: 0o644}
}

func (d *Document) Path() string { return d.path }

// ReadSection returns the raw JSON of the top-level key. ok is false when
// the file or the key does not exist.
func (d *Document) ReadSection(ctx context.Context, key string) (raw []byte, ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	b, exists, err := d.read()
	if err != nil || !exists {
		return nil, false, err
	}
	res := gjson.GetBytes(b, escapeKey(key))
	if !res.Exists() {
		return nil, false, nil
	}
	return []byte(res.Raw), true, nil
}

// WriteSection replaces (or adds) the top-level key with raw, which must be
// valid JSON. The file is created when missing.
func (d *Document) WriteSection(ctx context.Context, key string, raw []byte) error {
	if !json.Valid(raw) {
		return fmt.Errorf("section %q: invalid JSON value", key)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	b, exists, err := d.read()
	if err != nil {
		return err
	}

	var out []byte
	if !exists || len(bytes.TrimSpace(b)) == 0 {
		kb, _ := json.Marshal(key)
		out = []byte("{\n  " + string(kb) + ": " + string(raw) + "\n}\n")
	} else {
		out, err = sjson.SetRawBytes(b, escapeKey(key), raw)
		if err != nil {
			return fmt.Errorf("set section %q: %w", key, err)
		}
	}

	perm := d.perm
	if st, err := os.Stat(d.path); err == nil {
		perm = st.Mode().Perm()
	}
	// Re-check right before the write so a cancelled caller never replaces
	// the file.
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeFileAtomic(d.path, out, perm)
}

func (d *Document) read() ([]byte, bool, error) {
	b, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", d.path, err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return b, true, nil
	}
	if !gjson.ValidBytes(b) {
		return nil, false, fmt.Errorf("%s: invalid JSON", d.path)
	}
	if !gjson.ParseBytes(b).IsObject() {
		return nil, false, fmt.Errorf("%s: %w", d.path, ErrNotObject)
	}
	return b, true, nil
}

// writeFileAtomic writes data next to path and renames it into place so a
// crash mid-write leaves the previous file intact.
func writeFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	cleanup := func() { _ = os.Remove(tmp) }

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		cleanup()
		return err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmp, perm); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		cleanup()
		return err
	}
	return nil
}

// escapeKey turns a literal key into a gjson/sjson path.
func escapeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
