package integrity

import (
	"os"
	"path/filepath"
	"strings"
)

// Policy decides which paths participate in tracking. Baseline and live
// monitoring must share the same policy instance, or the two disagree
// about what exists.
type Policy struct {
	IgnoreHidden bool
}

// Ignored reports whether the path is excluded by name alone.
func (p Policy) Ignored(path string) bool {
	return p.IgnoreHidden && strings.HasPrefix(filepath.Base(path), ".")
}

// Eligible reports whether the path is tracked: not ignored, and currently
// a regular, non-symlink file.
func (p Policy) Eligible(path string) bool {
	return !p.Ignored(path) && IsRegularFile(path)
}

// IsRegularFile reports whether path is a regular file. Symlinks fail the
// check even when they point at regular files.
func IsRegularFile(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// CanonicalPath resolves path to its absolute, symlink-free form. Paths
// that no longer exist fall back to the cleaned absolute form so deletes
// of tracked files still map to their stored key.
func CanonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	// The leaf may already be gone (delete events); resolving the parent
	// keeps the key identical to the one stored while the file existed.
	if resolvedDir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		return filepath.Join(resolvedDir, filepath.Base(abs))
	}
	return filepath.Clean(abs)
}
