package monitoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"vigil/src/integrity"
)

// Service runs the monitoring loop: it consumes raw events from the
// watcher sequentially and feeds them to the detector, one event fully
// classified, persisted and logged before the next is considered.
type Service struct {
	detector *Detector
	watcher  Watcher
	trail    Trail
	clock    integrity.Clock
}

// NewService creates a new monitoring service.
func NewService(detector *Detector, watcher Watcher, trail Trail, clock integrity.Clock) *Service {
	return &Service{
		detector: detector,
		watcher:  watcher,
		trail:    trail,
		clock:    clock,
	}
}

// WatchDirs maps each target to the directory the event source must watch:
// directory targets watch themselves, plain-file targets watch their
// parent. Duplicates collapse.
func WatchDirs(targets []string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, target := range targets {
		dir := integrity.CanonicalPath(target)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			dir = filepath.Dir(dir)
		}
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// Run watches the targets until ctx is cancelled. The event in flight when
// the stop arrives completes its store mutation and trail line; events the
// source has not delivered by then are not waited for.
func (s *Service) Run(ctx context.Context, targets []string) error {
	dirs := WatchDirs(targets)
	for _, dir := range dirs {
		if err := s.trail.Append(integrity.Entry(s.clock.Now(), fmt.Sprintf("WATCHING dir=%s", dir))); err != nil {
			return err
		}
	}

	events, err := s.watcher.Start(ctx, dirs)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	if err := s.trail.Append(integrity.Entry(s.clock.Now(), "MONITOR_STARTED")); err != nil {
		return err
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return errors.New("event source closed unexpectedly")
			}
			if err := s.detector.Handle(ev); err != nil {
				slog.Error("Event handling failed", "path", ev.Path, "kind", ev.Kind, "error", err)
			}
		case <-ctx.Done():
			if err := s.trail.Append(integrity.Entry(s.clock.Now(), "MONITOR_STOPPING")); err != nil {
				slog.Error("Failed to append trail line", "error", err)
			}
			s.watcher.Stop()
			return s.trail.Append(integrity.Entry(s.clock.Now(), "MONITOR_STOPPED"))
		}
	}
}
