package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/fsnotify/fsnotify"

	"vigil/src/features/monitoring"
)

// FsWatcher adapts fsnotify to the monitoring event-source capability.
type FsWatcher struct {
	fsw     *fsnotify.Watcher
	events  chan monitoring.Event
	stop    chan struct{}
	running bool
}

// New creates a new filesystem watcher.
func New() (*FsWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &FsWatcher{
		fsw:    fsw,
		events: make(chan monitoring.Event, 256),
		stop:   make(chan struct{}),
	}, nil
}

// Start watches every directory under each root and begins translating
// raw notifications. The returned channel closes when the watcher stops.
func (w *FsWatcher) Start(ctx context.Context, dirs []string) (<-chan monitoring.Event, error) {
	for _, dir := range dirs {
		if err := w.addRecursive(dir); err != nil {
			return nil, err
		}
	}
	w.running = true
	go w.loop(ctx)
	slog.Info("File watcher started", "dirs", dirs)
	return w.events, nil
}

// Stop stops the watcher. Safe to call once after Start.
func (w *FsWatcher) Stop() {
	if !w.running {
		return
	}
	w.running = false
	close(w.stop)
	w.fsw.Close()
}

func (w *FsWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				slog.Warn("Cannot watch directory", "dir", path, "error", err)
			}
		}
		return nil
	})
}

func (w *FsWatcher) loop(ctx context.Context) {
	defer close(w.events)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.translate(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", "error", err)
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// translate maps fsnotify ops onto the event model. fsnotify reports the
// two halves of a rename as uncorrelated Rename/Create notifications, so
// moved events never originate here; the detector accepts them from event
// sources that can pair them.
func (w *FsWatcher) translate(ev fsnotify.Event) {
	info, statErr := os.Lstat(ev.Name)
	isDir := statErr == nil && info.IsDir()

	var out monitoring.Event
	switch {
	case ev.Has(fsnotify.Create):
		if isDir {
			// New subdirectories join the watch so files created
			// inside them are seen.
			if err := w.fsw.Add(ev.Name); err != nil {
				slog.Warn("Cannot watch new directory", "dir", ev.Name, "error", err)
			}
		}
		out = monitoring.Event{Kind: monitoring.EventCreated, Path: ev.Name, IsDir: isDir}
	case ev.Has(fsnotify.Write):
		out = monitoring.Event{Kind: monitoring.EventModified, Path: ev.Name, IsDir: isDir}
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		// The path is already gone, so Lstat cannot tell files from
		// directories; a watched directory is one we added earlier.
		if !isDir && slices.Contains(w.fsw.WatchList(), ev.Name) {
			isDir = true
		}
		out = monitoring.Event{Kind: monitoring.EventDeleted, Path: ev.Name, IsDir: isDir}
	case ev.Has(fsnotify.Chmod):
		// Metadata-only change; the detector downgrades it to TOUCHED
		// when the content digest is unchanged.
		out = monitoring.Event{Kind: monitoring.EventModified, Path: ev.Name, IsDir: isDir}
	default:
		return
	}

	select {
	case w.events <- out:
	default:
		slog.Warn("Event channel full, dropping event", "path", ev.Name, "op", ev.Op.String())
	}
}
