package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dshills/healthaudit/internal/fsguard"
)

// Baseline is a pinned entry later runs are compared against.
type Baseline struct {
	SavedAt time.Time `json:"saved_at"`
	Entry   Entry     `json:"entry"`
}

// SaveBaseline replaces the domain's baseline with e.
func (j *Journal) SaveBaseline(e Entry, now time.Time) error {
	data, err := json.MarshalIndent(Baseline{SavedAt: now.UTC(), Entry: e}, "", "  ")
	if err != nil {
		return fmt.Errorf("journal.SaveBaseline: %w", err)
	}
	if !j.guard.Allows(j.baselinePath) {
		return fmt.Errorf("journal.SaveBaseline: %s: %w", j.baselinePath, fsguard.ErrBlocked)
	}
	if err := os.MkdirAll(filepath.Dir(j.baselinePath), 0755); err != nil {
		return fmt.Errorf("journal.SaveBaseline: %w", err)
	}
	if err := fsguard.AtomicReplace(j.baselinePath, append(data, '\n'), j.guard); err != nil {
		return fmt.Errorf("journal.SaveBaseline: %w", err)
	}
	return nil
}

// LoadBaseline returns the saved baseline, or nil when none exists.
func (j *Journal) LoadBaseline() (*Baseline, error) {
	data, err := fsguard.ReadLimited(j.baselinePath, j.maxBytes)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("journal.LoadBaseline: %w", err)
	}
	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("journal.LoadBaseline: %s: %w", j.baselinePath, err)
	}
	return &b, nil
}
