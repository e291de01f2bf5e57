// Package root locates the project an audit runs against.
package root

import (
	"os"
	"path/filepath"
)

// DefaultMarkers identify a project root.
var DefaultMarkers = []string{".git", "go.mod", "package.json"}

// Find walks upward from start until a directory containing one of markers
// is found. When none is found it returns start.
func Find(start string, markers []string) string {
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	abs, err := filepath.Abs(start)
	if err != nil {
		return start
	}
	for dir := abs; ; {
		for _, m := range markers {
			if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs
		}
		dir = parent
	}
}

// FromWorkingDir resolves the root starting at the current directory.
func FromWorkingDir() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return Find(wd, nil), nil
}
