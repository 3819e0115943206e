package monitoring

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vigil/src/integrity"
)

type fakeWatcher struct {
	ch      chan Event
	stopped bool
}

func (w *fakeWatcher) Start(ctx context.Context, dirs []string) (<-chan Event, error) {
	return w.ch, nil
}

func (w *fakeWatcher) Stop() { w.stopped = true }

func TestWatchDirs(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	dirs := WatchDirs([]string{dir, file, dir})
	if len(dirs) != 1 {
		t.Fatalf("expected 1 deduped watch dir, got %v", dirs)
	}
	if dirs[0] != integrity.CanonicalPath(dir) {
		t.Errorf("watch dir %q, want %q", dirs[0], integrity.CanonicalPath(dir))
	}
}

func TestRunLifecycle(t *testing.T) {
	clock := fixedClock{t: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)}
	dir := t.TempDir()
	path := filepath.Join(dir, "live.txt")
	writeFile(t, path, "content")

	trail := &memTrail{}
	store := integrity.NewStore(clock)
	detector := NewDetector(store, filepath.Join(t.TempDir(), "state.json"), integrity.Policy{}, 0, clock, trail, nil)
	w := &fakeWatcher{ch: make(chan Event)}
	svc := NewService(detector, w, trail, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Run(ctx, []string{dir})
	}()

	// Unbuffered channel: once this send returns, Run has the event and
	// will finish handling it before looking at ctx again.
	w.ch <- Event{Kind: EventCreated, Path: path}
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !w.stopped {
		t.Error("watcher was not stopped")
	}

	var got []string
	for _, line := range trail.lines {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			t.Fatalf("malformed trail line: %q", line)
		}
		got = append(got, fields[1])
	}
	want := []string{"WATCHING", "MONITOR_STARTED", "CREATED", "MONITOR_STOPPING", "MONITOR_STOPPED"}
	if len(got) != len(want) {
		t.Fatalf("trail events %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("trail events %v, want %v", got, want)
		}
	}
}
