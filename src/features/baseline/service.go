package baseline

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"vigil/src/features/metrics"
	"vigil/src/integrity"
)

// Trail is the durable append-and-print sink for formatted trail lines.
type Trail interface {
	Append(line string) error
}

// Service builds a fresh baseline snapshot of the target file set.
type Service struct {
	policy    integrity.Policy
	chunkSize int
	clock     integrity.Clock
	trail     Trail
	recorder  *metrics.Recorder
}

// NewService creates a new baseline service.
func NewService(policy integrity.Policy, chunkSize int, clock integrity.Clock, trail Trail, recorder *metrics.Recorder) *Service {
	return &Service{
		policy:    policy,
		chunkSize: chunkSize,
		clock:     clock,
		trail:     trail,
		recorder:  recorder,
	}
}

// Build walks the targets, records every eligible file, and atomically
// replaces any prior store at statePath: a baseline is a full reset, never
// a merge. Unreadable files are skipped, not fatal, so a completed
// baseline may omit files; each omission leaves a BASELINE_SKIP line.
func (s *Service) Build(ctx context.Context, targets []string, statePath string) (*integrity.Store, error) {
	start := s.clock.Now()
	store := integrity.NewStore(s.clock)

	for _, target := range targets {
		if err := s.addTarget(ctx, store, target); err != nil {
			return nil, err
		}
	}

	if err := store.Save(statePath); err != nil {
		return nil, err
	}
	if err := s.trail.Append(integrity.Entry(s.clock.Now(),
		fmt.Sprintf("BASELINE_DONE files=%d db=%s", len(store.Files), statePath))); err != nil {
		return nil, err
	}

	duration := s.clock.Now().Sub(start)
	s.recorder.ObserveBaseline(len(store.Files), duration)
	slog.Info("Baseline complete", "files", len(store.Files), "db", statePath, "duration", duration)
	return store, nil
}

func (s *Service) addTarget(ctx context.Context, store *integrity.Store, target string) error {
	canon := integrity.CanonicalPath(target)
	info, err := os.Lstat(canon)
	if err != nil {
		s.skip(canon, err)
		return nil
	}
	if !info.IsDir() {
		s.record(store, canon)
		return nil
	}
	return filepath.WalkDir(canon, func(path string, d fs.DirEntry, walkErr error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if walkErr != nil {
			s.skip(path, walkErr)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		s.record(store, path)
		return nil
	})
}

func (s *Service) record(store *integrity.Store, path string) {
	canon := integrity.CanonicalPath(path)
	if !s.policy.Eligible(canon) {
		return
	}
	rec, err := integrity.NewFileRecord(canon, s.chunkSize)
	if err != nil {
		s.skip(canon, err)
		return
	}
	store.Files[canon] = rec
}

func (s *Service) skip(path string, reason error) {
	line := integrity.Entry(s.clock.Now(), fmt.Sprintf("BASELINE_SKIP path=%s err=%v", path, reason))
	if err := s.trail.Append(line); err != nil {
		slog.Error("Failed to append trail line", "error", err)
	}
	s.recorder.ObserveChange(string(integrity.Skip))
}
