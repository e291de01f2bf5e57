// Package journal stores per-domain audit history as newline-delimited JSON.
//
// The journal is append-only below its entry cap. Appending past the cap
// rewrites the file through fsguard.AtomicReplace, keeping the newest entries.
// There is no cross-process lock: two audits of the same domain running at
// once can race during rotation.
package journal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dshills/healthaudit/internal/audit"
	"github.com/dshills/healthaudit/internal/fsguard"
)

const (
	DefaultMaxEntries       = 100
	DefaultMaxBytes   int64 = 5 << 20
)

// Entry is one audit run.
type Entry struct {
	Timestamp   time.Time                      `json:"timestamp"`
	RunID       string                         `json:"run_id,omitempty"`
	InputHash   string                         `json:"input_hash,omitempty"`
	HealthScore *audit.CompositeScore          `json:"health_score,omitempty"`
	Categories  map[string]audit.CategoryScore `json:"categories"`
}

// Config configures a Journal. Guard defaults to refusing all writes.
type Config struct {
	Dir        string
	Domain     string
	Guard      fsguard.Guard
	Logger     *log.Logger
	MaxEntries int
	MaxBytes   int64
}

// Journal is the history file of one domain.
type Journal struct {
	path         string
	baselinePath string
	guard        fsguard.Guard
	logger       *log.Logger
	maxEntries   int
	maxBytes     int64
}

// New returns a journal for cfg.Domain under cfg.Dir. Nothing is touched on disk.
func New(cfg Config) *Journal {
	j := &Journal{
		path:         filepath.Join(cfg.Dir, cfg.Domain+"-history.jsonl"),
		baselinePath: filepath.Join(cfg.Dir, cfg.Domain+"-baseline.json"),
		guard:        cfg.Guard,
		logger:       cfg.Logger,
		maxEntries:   cfg.MaxEntries,
		maxBytes:     cfg.MaxBytes,
	}
	if j.guard == nil {
		j.guard = fsguard.Deny
	}
	if j.logger == nil {
		j.logger = log.New(io.Discard, "", 0)
	}
	if j.maxEntries < 2 {
		j.maxEntries = DefaultMaxEntries
	}
	if j.maxBytes <= 0 {
		j.maxBytes = DefaultMaxBytes
	}
	return j
}

// Path returns the history file location.
func (j *Journal) Path() string { return j.path }

// ReadEntries returns all well-formed entries, oldest first. A missing or
// oversized file reads as empty.
func (j *Journal) ReadEntries() []Entry {
	entries, _, err := j.load()
	if err != nil {
		j.logger.Printf("Warning: journal %s: %v", j.path, err)
	}
	return entries
}

// load parses the history file. raw is the file content, nil when it could
// not be read.
func (j *Journal) load() (entries []Entry, raw []byte, err error) {
	raw, err = fsguard.ReadLimited(j.path, j.maxBytes)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	for _, line := range bytes.Split(raw, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var e Entry
		if json.Unmarshal(line, &e) != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, raw, nil
}

// Append records e. It reports false, after logging why, when the write was
// refused or failed; the history file is then left as it was.
func (j *Journal) Append(e Entry) bool {
	if err := j.append(e); err != nil {
		j.logger.Printf("Warning: history not recorded: %v", err)
		return false
	}
	return true
}

func (j *Journal) append(e Entry) error {
	if !j.guard.Allows(j.path) {
		return fmt.Errorf("journal.Append: %s: %w", j.path, fsguard.ErrBlocked)
	}
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("journal.Append: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0755); err != nil {
		return fmt.Errorf("journal.Append: %w", err)
	}

	entries, raw, err := j.load()
	if err != nil {
		if !errors.Is(err, fsguard.ErrTooLarge) {
			return fmt.Errorf("journal.Append: %w", err)
		}
		kept, err := j.setAside(e.Timestamp)
		if err != nil {
			return fmt.Errorf("journal.Append: %w", err)
		}
		j.logger.Printf("Warning: journal %s is oversized, moved to %s and starting over", j.path, kept)
		return j.rotate(nil, line)
	}

	if len(entries)+1 > j.maxEntries {
		return j.rotate(entries[len(entries)-(j.maxEntries-1):], line)
	}

	if len(raw) > 0 && raw[len(raw)-1] != '\n' {
		line = append([]byte("\n"), line...)
	}
	if err := fsguard.AppendLine(j.path, line, j.guard); err != nil {
		return fmt.Errorf("journal.Append: %w", err)
	}
	return nil
}

// setAside renames an oversized journal out of the way so its contents survive
// the fresh file that replaces it.
func (j *Journal) setAside(at time.Time) (string, error) {
	kept := fmt.Sprintf("%s.%s.oversized", j.path, at.UTC().Format("20060102T150405Z"))
	if !j.guard.Allows(kept) {
		return "", fmt.Errorf("%s: %w", kept, fsguard.ErrBlocked)
	}
	if err := os.Rename(j.path, kept); err != nil {
		return "", err
	}
	return kept, nil
}

// rotate rewrites the file as keep followed by line.
func (j *Journal) rotate(keep []Entry, line []byte) error {
	var buf bytes.Buffer
	for _, e := range keep {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("journal.rotate: marshal: %w", err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	buf.Write(line)
	buf.WriteByte('\n')
	if err := fsguard.AtomicReplace(j.path, buf.Bytes(), j.guard); err != nil {
		return fmt.Errorf("journal.rotate: %w", err)
	}
	return nil
}

// Recent returns up to n of the newest entries, oldest first.
func (j *Journal) Recent(n int) []Entry {
	entries := j.ReadEntries()
	if n <= 0 {
		return nil
	}
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries
}

// CompositeHistory returns the composite scores of the last window entries
// that have one.
func (j *Journal) CompositeHistory(window int) []int {
	var scores []int
	for _, e := range j.Recent(window) {
		if e.HealthScore != nil {
			scores = append(scores, e.HealthScore.Score)
		}
	}
	return scores
}

// CategoryHistory returns one category's scores from the last window entries
// that recorded it.
func (j *Journal) CategoryHistory(category string, window int) []int {
	var scores []int
	for _, e := range j.Recent(window) {
		if cs, ok := e.Categories[category]; ok {
			scores = append(scores, cs.Score)
		}
	}
	return scores
}
