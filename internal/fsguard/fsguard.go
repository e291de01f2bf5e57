// Package fsguard provides guarded file writes: a symlink check run before
// every write, a size-capped reader, and an atomic replace with rollback.
package fsguard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrBlocked is returned when a guard refuses a write.
var ErrBlocked = errors.New("write blocked by guard")

// ErrTooLarge is returned by ReadLimited when a file exceeds its cap.
var ErrTooLarge = errors.New("file exceeds size limit")

// Guard approves or refuses a write to path.
type Guard func(path string) bool

// Deny refuses every write. It is the disabled mode.
func Deny(string) bool { return false }

// NoSymlink approves path when neither it nor its parent directory is a
// symbolic link. A path that does not exist yet is allowed.
func NoSymlink(path string) bool {
	for _, p := range []string{path, filepath.Dir(path)} {
		info, err := os.Lstat(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return false
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return false
		}
	}
	return true
}

// Allows reports whether g approves path. A nil guard approves nothing.
func (g Guard) Allows(path string) bool {
	return g != nil && g(path)
}

// ReadLimited reads a whole file unless it is larger than max bytes.
func ReadLimited(path string, max int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() > max {
		return nil, fmt.Errorf("%s: %d bytes: %w", path, info.Size(), ErrTooLarge)
	}
	// The file may grow between Stat and Read.
	data, err := io.ReadAll(io.LimitReader(f, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%s: %w", path, ErrTooLarge)
	}
	return data, nil
}

// AppendLine appends data plus a trailing newline to path, creating it if needed.
func AppendLine(path string, data []byte, guard Guard) error {
	if !guard.Allows(path) {
		return fmt.Errorf("fsguard.AppendLine: %s: %w", path, ErrBlocked)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("fsguard.AppendLine: %w", err)
	}
	line := append(append([]byte(nil), data...), '\n')
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("fsguard.AppendLine: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("fsguard.AppendLine: %w", err)
	}
	return nil
}
