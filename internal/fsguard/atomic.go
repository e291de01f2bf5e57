package fsguard

import (
	"errors"
	"fmt"
	"os"
)

// Swapped out in tests to simulate rename failures.
var rename = os.Rename

// AtomicReplace replaces the contents of path with data.
//
// The data is written and synced to path.tmp. An existing file is moved to
// path.bak, the temp file is renamed into place, and the backup is removed.
// If the final rename fails the backup is moved back, so a reader sees either
// the old contents or the new contents, never a partial file.
func AtomicReplace(path string, data []byte, guard Guard) error {
	tmp := path + ".tmp"
	bak := path + ".bak"

	if !guard.Allows(path) || !guard.Allows(tmp) {
		return fmt.Errorf("fsguard.AtomicReplace: %s: %w", path, ErrBlocked)
	}

	if err := writeSynced(tmp, data); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("fsguard.AtomicReplace: write temp: %w", err)
	}

	hadOriginal := true
	if err := rename(path, bak); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			os.Remove(tmp)
			return fmt.Errorf("fsguard.AtomicReplace: backup: %w", err)
		}
		hadOriginal = false
	}

	if err := rename(tmp, path); err != nil {
		os.Remove(tmp)
		if hadOriginal {
			if rerr := rename(bak, path); rerr != nil {
				return fmt.Errorf("fsguard.AtomicReplace: commit: %w (restore from %s failed: %v)", err, bak, rerr)
			}
		}
		return fmt.Errorf("fsguard.AtomicReplace: commit: %w", err)
	}

	if hadOriginal {
		// best effort
		os.Remove(bak)
	}
	return nil
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
