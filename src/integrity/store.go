package integrity

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store maps canonical paths to their last-known records. It is the sole
// source of truth for "did this path exist before, and with what content".
type Store struct {
	CreatedAt string                `json:"created_at"`
	Files     map[string]FileRecord `json:"files"`
}

// NewStore returns an empty store stamped with the clock's current time.
func NewStore(clock Clock) *Store {
	return &Store{
		CreatedAt: Timestamp(clock.Now()),
		Files:     make(map[string]FileRecord),
	}
}

// Load reads the durable store at path. A missing file yields a fresh
// empty store; a malformed one is an error and is never silently treated
// as empty, since that would erase integrity history.
func Load(path string, clock Clock) (*Store, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewStore(clock), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file %s: %w", path, err)
	}
	var s Store
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse state file %s: %w", path, err)
	}
	if s.Files == nil {
		s.Files = make(map[string]FileRecord)
	}
	return &s, nil
}

// Save persists the store with atomic-replace semantics: serialize to a
// uniquely named sibling, then rename over the canonical path. No partial
// file is ever visible, and a failure at any step leaves the previous
// durable state untouched.
func (s *Store) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir %s: %w", dir, err)
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write state temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace state file %s: %w", path, err)
	}
	return nil
}
