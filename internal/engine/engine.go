// Package engine runs one audit: it scores a domain's observations, places the
// result in the context of the domain's history, records it, and proposes fixes.
//
// The same engine serves every domain; only the benchmark.Domain differs.
package engine

import (
	"fmt"
	"io"
	"log"
	"math"
	"strings"
	"time"

	"github.com/dshills/healthaudit/internal/audit"
	"github.com/dshills/healthaudit/internal/benchmark"
	"github.com/dshills/healthaudit/internal/journal"
	"github.com/dshills/healthaudit/internal/observe"
	"github.com/dshills/healthaudit/internal/patch"
	"github.com/dshills/healthaudit/internal/schema"
	"github.com/dshills/healthaudit/internal/trend"
	"github.com/google/uuid"
)

// Config wires an Engine to one domain's benchmarks and storage.
type Config struct {
	Domain  *benchmark.Domain
	Journal *journal.Journal
	Patches *patch.Generator
	Logger  *log.Logger
	Now     func() time.Time
	RunID   string
}

// Options controls side effects of a single run.
type Options struct {
	// Batch suppresses history and ledger writes.
	Batch        bool
	SaveBaseline bool
	WriteDebt    bool
	TrendWindow  int
	MaxFindings  int
}

// Engine audits one domain.
type Engine struct {
	domain  *benchmark.Domain
	journal *journal.Journal
	patches *patch.Generator
	logger  *log.Logger
	now     func() time.Time
	runID   string
}

// InvalidError reports observations that failed validation.
type InvalidError struct {
	Errs []schema.ValidationError
}

func (e *InvalidError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, v := range e.Errs {
		msgs[i] = v.Error()
	}
	return fmt.Sprintf("invalid observations: %s", strings.Join(msgs, "; "))
}

// New returns an Engine. Domain and Journal are required.
func New(cfg Config) (*Engine, error) {
	if cfg.Domain == nil {
		return nil, fmt.Errorf("engine.New: domain is required")
	}
	if cfg.Journal == nil {
		return nil, fmt.Errorf("engine.New: journal is required")
	}
	e := &Engine{
		domain:  cfg.Domain,
		journal: cfg.Journal,
		patches: cfg.Patches,
		logger:  cfg.Logger,
		now:     cfg.Now,
		runID:   cfg.RunID,
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard, "", 0)
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.runID == "" {
		e.runID = uuid.NewString()
	}
	return e, nil
}

// Run audits doc.
func (e *Engine) Run(doc *observe.Document, opts Options) (*Report, error) {
	if doc == nil {
		return nil, fmt.Errorf("engine.Run: no observations")
	}
	if errs := schema.Validate(doc, e.domain); len(errs) > 0 {
		return nil, &InvalidError{Errs: errs}
	}
	if opts.TrendWindow <= 0 {
		opts.TrendWindow = trend.DefaultWindow
	}

	categories, scores := e.scoreCategories(doc)
	composite := audit.ComputeComposite(scores, e.domain.Weights())

	entry := journal.Entry{
		Timestamp:   e.now().UTC(),
		RunID:       e.runID,
		InputHash:   doc.Hash,
		HealthScore: &composite,
		Categories:  scores,
	}

	rep := &Report{
		Tool:       ToolName,
		Version:    Version,
		Domain:     e.domain.Name,
		RunID:      e.runID,
		Timestamp:  entry.Timestamp,
		Input:      Input{File: doc.FilePath, Hash: doc.Hash},
		Health:     composite,
		Categories: categories,
	}

	e.addHistory(rep, entry, opts.TrendWindow)

	if opts.Batch {
		e.logger.Printf("Batch mode: history not recorded")
	} else {
		rep.Recorded = e.journal.Append(entry)
	}

	if opts.SaveBaseline {
		if err := e.journal.SaveBaseline(entry, e.now()); err != nil {
			e.logger.Printf("Warning: baseline not saved: %v", err)
		} else {
			rep.BaselineSaved = true
		}
	}

	ranked := audit.Rank(doc.Findings)
	rep.Counts.Errors, rep.Counts.Warnings, rep.Counts.Info = audit.CountBySeverity(ranked)
	rep.Findings = audit.Truncate(ranked, opts.MaxFindings)
	if e.patches != nil {
		rep.Patches = e.patches.GenerateAll(rep.Findings)
		if opts.WriteDebt && !opts.Batch {
			rep.DebtRecorded = e.recordDebt(rep.Patches)
		}
	}

	return rep, nil
}

// scoreCategories scores every category that has data. A category score
// reported in the document wins over the mean of its metric scores.
func (e *Engine) scoreCategories(doc *observe.Document) (map[string]CategoryResult, map[string]audit.CategoryScore) {
	results := make(map[string]CategoryResult)
	scores := make(map[string]audit.CategoryScore)

	for _, c := range e.domain.Categories {
		res := CategoryResult{Title: c.Title, Weight: c.Weight}
		var metricScores []audit.MetricScore
		for _, m := range c.Metrics {
			if _, ok := doc.Metrics[m.ID]; !ok {
				continue
			}
			v := doc.Metric(m.ID)
			ms := audit.ScoreMetric(v, m.Benchmark)
			metricScores = append(metricScores, ms)
			if res.Metrics == nil {
				res.Metrics = make(map[string]MetricResult)
			}
			mr := MetricResult{MetricScore: ms, Benchmark: m.Benchmark}
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				mr.Value = &v
			}
			res.Metrics[m.ID] = mr
		}

		if v, ok := doc.CategoryOverride(c.ID); ok {
			res.Score = audit.NormalizeScore(v)
			res.Source = SourceReported
		} else if mean, ok := audit.MeanScore(metricScores); ok {
			res.Score = mean
			res.Source = SourceMetrics
		} else {
			continue
		}
		res.Grade = audit.ComputeGrade(res.Score)
		results[c.ID] = res
		scores[c.ID] = audit.CategoryScore{Score: res.Score}
	}
	return results, scores
}

// addHistory fills trends and deltas from entries recorded before this run.
// It must run before the current entry is appended.
func (e *Engine) addHistory(rep *Report, current journal.Entry, window int) {
	prior := e.journal.Recent(window - 1)

	var composite []int
	for _, p := range prior {
		if p.HealthScore != nil {
			composite = append(composite, p.HealthScore.Score)
		}
	}
	composite = append(composite, rep.Health.Score)
	rep.Trend = trend.Compute(trend.Ints(composite), window)

	for id, res := range rep.Categories {
		var series []int
		for _, p := range prior {
			if cs, ok := p.Categories[id]; ok {
				series = append(series, cs.Score)
			}
		}
		series = append(series, res.Score)
		res.Trend = trend.Compute(trend.Ints(series), window)
		rep.Categories[id] = res
	}

	rep.Delta = e.journal.ComputeDelta(current)

	b, err := e.journal.LoadBaseline()
	if err != nil {
		e.logger.Printf("Warning: %v", err)
	}
	if b != nil {
		rep.BaselineDelta = journal.Diff(b.Entry, current)
	}
}

func (e *Engine) recordDebt(patches []patch.Patch) []string {
	var ids []string
	for _, p := range patches {
		if p.Debt == nil {
			continue
		}
		if err := e.patches.AppendDebt(*p.Debt); err != nil {
			e.logger.Printf("Warning: %s not recorded: %v", p.Debt.ID, err)
			continue
		}
		ids = append(ids, p.Debt.ID)
	}
	return ids
}
