package requestlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Log appends usage lines of the form
//
//	2024-01-02-15-04-05, 123456789, alice, 48213
//
// where the final field is the submitted media size in bytes. Records are
// serialized by a mutex so concurrent writers never interleave lines.
type Log struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// New creates a log writing to path. The file and its parent directories are
// created on first record.
func New(path string) *Log {
	return &Log{path: path, now: time.Now}
}

// Record appends one line for the given request.
func (l *Log) Record(userID int64, username string, size int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create request log directory: %w", err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open request log: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s, %d, %s, %d\n", l.now().Format("2006-01-02-15-04-05"), userID, username, size)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to write request log: %w", err)
	}
	return nil
}
