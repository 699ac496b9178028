package fsys

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/aharikum/forensicx/pkg/models"
)

func collectEntries(t *testing.T, w *Walker, root string) []*Entry {
	t.Helper()
	var entries []*Entry
	err := w.Walk(context.Background(), root, func(e *Entry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	return entries
}

func TestWalker_Walk_YieldsEveryEntry(t *testing.T) {
	tmpDir := t.TempDir()

	if err := os.MkdirAll(filepath.Join(tmpDir, "sub", "deeper"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(tmpDir, "empty"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "a.txt"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "sub", "b.txt"), []byte("world"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("a.txt", filepath.Join(tmpDir, "link")); err != nil {
		t.Fatal(err)
	}

	w := NewWalker(nil, zap.NewNop())
	entries := collectEntries(t, w, tmpDir)

	got := make(map[string]models.EntryKind)
	for _, e := range entries {
		got[e.RelPath] = e.Kind
	}

	want := map[string]models.EntryKind{
		"a.txt":      models.KindRegular,
		"empty":      models.KindDirectory,
		"link":       models.KindSymlink,
		"sub":        models.KindDirectory,
		"sub/b.txt":  models.KindRegular,
		"sub/deeper": models.KindDirectory,
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Walk() entries = %v, want %v", got, want)
	}
}

func TestWalker_Walk_StableOrder(t *testing.T) {
	tmpDir := t.TempDir()
	for _, name := range []string{"c.txt", "a.txt", "b.txt"} {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
	}

	w := NewWalker(nil, zap.NewNop())

	var first, second []string
	for _, out := range []*[]string{&first, &second} {
		for _, e := range collectEntries(t, w, tmpDir) {
			*out = append(*out, e.RelPath)
		}
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Walk() order not stable across runs: %v vs %v", first, second)
	}

	want := []string{"a.txt", "b.txt", "c.txt"}
	if !reflect.DeepEqual(first, want) {
		t.Errorf("Walk() order = %v, want lexical %v", first, want)
	}
}

func TestWalker_Walk_DoesNotFollowSymlinkedDirs(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, "real"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "real", "f.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	// A link back to the root would loop forever if followed.
	if err := os.Symlink(tmpDir, filepath.Join(tmpDir, "real", "loop")); err != nil {
		t.Fatal(err)
	}

	w := NewWalker(nil, zap.NewNop())
	entries := collectEntries(t, w, tmpDir)

	for _, e := range entries {
		if e.RelPath == "real/loop" && e.Kind != models.KindSymlink {
			t.Errorf("Walk() loop entry kind = %v, want symlink", e.Kind)
		}
		if len(e.RelPath) > len("real/loop") && e.RelPath[:len("real/loop/")] == "real/loop/" {
			t.Errorf("Walk() descended into symlink: %s", e.RelPath)
		}
	}
}

func TestWalker_Walk_UnreadableDirRecordedAndSkipped(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission checks are bypassed when running as root")
	}

	tmpDir := t.TempDir()
	locked := filepath.Join(tmpDir, "locked")
	if err := os.MkdirAll(locked, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(locked, "hidden.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "visible.txt"), []byte("y"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(locked, 0000); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(locked, 0755)

	w := NewWalker(nil, zap.NewNop())
	entries := collectEntries(t, w, tmpDir)

	sawUnreadable := false
	sawSibling := false
	for _, e := range entries {
		switch e.RelPath {
		case "locked":
			if e.Kind == models.KindUnreadable {
				sawUnreadable = true
				if e.Err == nil {
					t.Error("unreadable entry has nil Err")
				}
			}
		case "locked/hidden.txt":
			t.Error("Walk() descended into unreadable directory")
		case "visible.txt":
			sawSibling = true
		}
	}

	if !sawUnreadable {
		t.Error("Walk() did not record unreadable directory")
	}
	if !sawSibling {
		t.Error("Walk() aborted instead of continuing with siblings")
	}
}

func TestWalker_Walk_IgnoreGlobs(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, "cache"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "cache", "c.tmp"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "keep.txt"), []byte("y"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "skip.log"), []byte("z"), 0644); err != nil {
		t.Fatal(err)
	}

	w := NewWalker([]string{"cache", "**/*.log", "*.log"}, zap.NewNop())
	entries := collectEntries(t, w, tmpDir)

	for _, e := range entries {
		if e.RelPath == "cache" || e.RelPath == "cache/c.tmp" || e.RelPath == "skip.log" {
			t.Errorf("Walk() yielded ignored path %s", e.RelPath)
		}
	}
}

func TestWalker_Walk_Cancellation(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "f.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewWalker(nil, zap.NewNop())
	err := w.Walk(ctx, tmpDir, func(e *Entry) error { return nil })
	if err == nil {
		t.Error("Walk() with cancelled context returned nil error")
	}
}
