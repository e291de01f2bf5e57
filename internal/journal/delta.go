package journal

import (
	"time"

	"github.com/dshills/healthaudit/internal/audit"
)

// Delta compares two entries' scores.
type Delta struct {
	Since       time.Time                `json:"since"`
	Before      int                      `json:"before"`
	After       int                      `json:"after"`
	Change      int                      `json:"change"`
	BeforeGrade audit.Grade              `json:"before_grade"`
	AfterGrade  audit.Grade              `json:"after_grade"`
	Categories  map[string]CategoryDelta `json:"categories,omitempty"`
}

// CategoryDelta is the score movement of one category.
type CategoryDelta struct {
	Before int `json:"before"`
	After  int `json:"after"`
	Change int `json:"change"`
}

// ComputeDelta compares current against the most recent recorded entry.
// It returns nil when there is no prior entry or either lacks a composite.
func (j *Journal) ComputeDelta(current Entry) *Delta {
	prev := j.Recent(1)
	if len(prev) == 0 {
		return nil
	}
	return Diff(prev[0], current)
}

// Diff compares before and after. Categories missing from either side are
// left out.
func Diff(before, after Entry) *Delta {
	if before.HealthScore == nil || after.HealthScore == nil {
		return nil
	}
	d := &Delta{
		Since:       before.Timestamp,
		Before:      before.HealthScore.Score,
		After:       after.HealthScore.Score,
		Change:      after.HealthScore.Score - before.HealthScore.Score,
		BeforeGrade: before.HealthScore.Grade,
		AfterGrade:  after.HealthScore.Grade,
	}
	for cat, a := range after.Categories {
		b, ok := before.Categories[cat]
		if !ok {
			continue
		}
		if d.Categories == nil {
			d.Categories = make(map[string]CategoryDelta)
		}
		d.Categories[cat] = CategoryDelta{Before: b.Score, After: a.Score, Change: a.Score - b.Score}
	}
	return d
}
