package baseline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"vigil/src/integrity"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type memTrail struct{ lines []string }

func (m *memTrail) Append(line string) error {
	m.lines = append(m.lines, line)
	return nil
}

func digest(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func newTestService(trail *memTrail) *Service {
	clock := fixedClock{t: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)}
	return NewService(integrity.Policy{IgnoreHidden: true}, 0, clock, trail, nil)
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestBuildRecordsEligibleFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"one.txt":   "first",
		"two.txt":   "second",
		"three.txt": "third",
	})
	statePath := filepath.Join(t.TempDir(), "state.json")
	trail := &memTrail{}

	store, err := newTestService(trail).Build(context.Background(), []string{dir}, statePath)
	if err != nil {
		t.Fatal(err)
	}
	if len(store.Files) != 3 {
		t.Fatalf("expected 3 records, got %d", len(store.Files))
	}
	for name, content := range map[string]string{"one.txt": "first", "two.txt": "second", "three.txt": "third"} {
		canon := integrity.CanonicalPath(filepath.Join(dir, name))
		rec, ok := store.Files[canon]
		if !ok {
			t.Fatalf("missing record for %s", canon)
		}
		if rec.SHA256 != digest(content) {
			t.Errorf("%s: digest %s, want %s", name, rec.SHA256, digest(content))
		}
		if rec.Size != int64(len(content)) {
			t.Errorf("%s: size %d, want %d", name, rec.Size, len(content))
		}
	}

	done := trail.lines[len(trail.lines)-1]
	if !strings.Contains(done, "BASELINE_DONE files=3 db="+statePath) {
		t.Errorf("unexpected summary line: %q", done)
	}

	// The store must be persisted, not only returned.
	loaded, err := integrity.Load(statePath, fixedClock{t: time.Now()})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded.Files, store.Files) {
		t.Error("persisted store differs from returned store")
	}
}

func TestBuildIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.txt": "aaa", "b.txt": "bbb"})
	svc := newTestService(&memTrail{})

	first, err := svc.Build(context.Background(), []string{dir}, filepath.Join(t.TempDir(), "s1.json"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Build(context.Background(), []string{dir}, filepath.Join(t.TempDir(), "s2.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first.Files, second.Files) {
		t.Error("baseline over an unchanged file set must be idempotent")
	}
}

func TestBuildExcludesHiddenAndSymlinks(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"visible.txt": "data", ".hidden": "secret"})
	if err := os.Symlink(filepath.Join(dir, "visible.txt"), filepath.Join(dir, "link.txt")); err != nil {
		t.Fatal(err)
	}

	store, err := newTestService(&memTrail{}).Build(context.Background(), []string{dir}, filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(store.Files) != 1 {
		t.Fatalf("expected only the visible file, got %d records", len(store.Files))
	}
	if _, ok := store.Files[integrity.CanonicalPath(filepath.Join(dir, "visible.txt"))]; !ok {
		t.Error("visible file missing from baseline")
	}
}

func TestBuildSingleFileTarget(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"solo.txt": "alone"})
	target := filepath.Join(dir, "solo.txt")

	store, err := newTestService(&memTrail{}).Build(context.Background(), []string{target}, filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(store.Files) != 1 {
		t.Fatalf("expected 1 record, got %d", len(store.Files))
	}
}

func TestBuildReplacesPriorStore(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	svc := newTestService(&memTrail{})

	oldDir := t.TempDir()
	writeFiles(t, oldDir, map[string]string{"old.txt": "old"})
	if _, err := svc.Build(context.Background(), []string{oldDir}, statePath); err != nil {
		t.Fatal(err)
	}

	newDir := t.TempDir()
	writeFiles(t, newDir, map[string]string{"new.txt": "new"})
	store, err := svc.Build(context.Background(), []string{newDir}, statePath)
	if err != nil {
		t.Fatal(err)
	}
	if len(store.Files) != 1 {
		t.Fatalf("baseline must be a full reset, got %d records", len(store.Files))
	}
	if _, ok := store.Files[integrity.CanonicalPath(filepath.Join(oldDir, "old.txt"))]; ok {
		t.Error("prior store leaked into the new baseline")
	}
}

func TestBuildSkipsUnreadableFiles(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"ok.txt": "fine", "locked.txt": "nope"})
	if err := os.Chmod(filepath.Join(dir, "locked.txt"), 0o000); err != nil {
		t.Fatal(err)
	}
	trail := &memTrail{}

	store, err := newTestService(trail).Build(context.Background(), []string{dir}, filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(store.Files) != 1 {
		t.Fatalf("expected the unreadable file to be skipped, got %d records", len(store.Files))
	}

	var skipped bool
	for _, line := range trail.lines {
		if strings.Contains(line, "BASELINE_SKIP path="+integrity.CanonicalPath(filepath.Join(dir, "locked.txt"))) {
			skipped = true
		}
	}
	if !skipped {
		t.Errorf("expected a BASELINE_SKIP line, trail: %v", trail.lines)
	}
}

func TestBuildCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.txt": "a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestService(&memTrail{}).Build(ctx, []string{dir}, filepath.Join(t.TempDir(), "state.json")); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
