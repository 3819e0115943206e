package journal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// FileJournal durably appends trail lines to a plain text file and echoes
// them to stdout. Appends are serialized; the file is opened per append so
// external rotation never holds a stale handle.
type FileJournal struct {
	mu   sync.Mutex
	path string
	echo io.Writer
}

// New creates a journal writing to path.
func New(path string) *FileJournal {
	return &FileJournal{path: path, echo: os.Stdout}
}

// Append writes one line to the trail and prints it.
func (j *FileJournal) Append(line string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if dir := filepath.Dir(j.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create trail dir %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open trail %s: %w", j.path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("append trail line: %w", err)
	}
	fmt.Fprintln(j.echo, line)
	return nil
}
