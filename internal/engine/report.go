package engine

import (
	"time"

	"github.com/dshills/healthaudit/internal/audit"
	"github.com/dshills/healthaudit/internal/benchmark"
	"github.com/dshills/healthaudit/internal/journal"
	"github.com/dshills/healthaudit/internal/patch"
	"github.com/dshills/healthaudit/internal/trend"
)

const (
	ToolName = "healthaudit"
	Version  = "1.0.0"
)

// Source says where a category score came from.
type Source string

const (
	SourceMetrics  Source = "metrics"
	SourceReported Source = "reported"
)

// Report is the complete output of one run.
type Report struct {
	Tool          string                    `json:"tool"`
	Version       string                    `json:"version"`
	Domain        string                    `json:"domain"`
	RunID         string                    `json:"run_id"`
	Timestamp     time.Time                 `json:"timestamp"`
	Input         Input                     `json:"input"`
	Health        audit.CompositeScore      `json:"health_score"`
	Categories    map[string]CategoryResult `json:"categories"`
	Trend         *trend.Trend              `json:"trend,omitempty"`
	Delta         *journal.Delta            `json:"delta,omitempty"`
	BaselineDelta *journal.Delta            `json:"baseline_delta,omitempty"`
	Counts        FindingCounts             `json:"finding_counts"`
	Findings      []audit.RankedFinding     `json:"findings"`
	Patches       []patch.Patch             `json:"patches,omitempty"`
	Recorded      bool                      `json:"recorded"`
	BaselineSaved bool                      `json:"baseline_saved,omitempty"`
	DebtRecorded  []string                  `json:"debt_recorded,omitempty"`
}

type Input struct {
	File string `json:"file"`
	Hash string `json:"hash"`
}

// FindingCounts tallies every reported finding by severity, including those
// dropped from Findings by truncation.
type FindingCounts struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Info     int `json:"info"`
}

// CategoryResult is one scored category.
type CategoryResult struct {
	Title   string                  `json:"title"`
	Weight  float64                 `json:"weight"`
	Score   int                     `json:"score"`
	Grade   audit.Grade             `json:"grade"`
	Source  Source                  `json:"source"`
	Metrics map[string]MetricResult `json:"metrics,omitempty"`
	Trend   *trend.Trend            `json:"trend,omitempty"`
}

// MetricResult is one scored metric. Value is nil when the observation was
// not a finite number.
type MetricResult struct {
	audit.MetricScore
	Value     *float64            `json:"value"`
	Benchmark benchmark.Benchmark `json:"benchmark"`
}

// Passed reports whether the run clears a --check gate: no error findings,
// truncated or not, and a composite score of at least minScore.
func (r *Report) Passed(minScore int) bool {
	return r.Counts.Errors == 0 && r.Health.Score >= minScore
}
