package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vigil/src/features/monitoring"
)

func waitForPath(t *testing.T, events <-chan monitoring.Event, path string) monitoring.Event {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatal("event channel closed before the expected event arrived")
			}
			if ev.Path == path {
				return ev
			}
		case <-deadline:
			t.Fatalf("no event for %s within deadline", path)
		}
	}
}

func TestWatcherDeliversCreate(t *testing.T) {
	dir := t.TempDir()
	w, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	events, err := w.Start(context.Background(), []string{dir})
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "fresh.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	ev := waitForPath(t, events, path)
	if ev.Kind != monitoring.EventCreated && ev.Kind != monitoring.EventModified {
		t.Errorf("event kind %s, want created or modified", ev.Kind)
	}
	if ev.IsDir {
		t.Error("file event marked as directory")
	}
}

func TestWatcherSeesNewSubdirectories(t *testing.T) {
	dir := t.TempDir()
	w, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	events, err := w.Start(context.Background(), []string{dir})
	if err != nil {
		t.Fatal(err)
	}

	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	ev := waitForPath(t, events, sub)
	if !ev.IsDir {
		t.Error("directory creation not flagged as directory")
	}

	// The new subdirectory joins the watch; files inside it are seen.
	time.Sleep(100 * time.Millisecond)
	nested := filepath.Join(sub, "inner.txt")
	if err := os.WriteFile(nested, []byte("deep"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitForPath(t, events, nested)
}

func TestWatcherStopClosesChannel(t *testing.T) {
	dir := t.TempDir()
	w, err := New()
	if err != nil {
		t.Fatal(err)
	}

	events, err := w.Start(context.Background(), []string{dir})
	if err != nil {
		t.Fatal(err)
	}
	w.Stop()

	deadline := time.After(3 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("event channel not closed after Stop")
		}
	}
}
