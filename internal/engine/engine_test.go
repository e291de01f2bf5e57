package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/healthaudit/internal/audit"
	"github.com/dshills/healthaudit/internal/benchmark"
	"github.com/dshills/healthaudit/internal/fsguard"
	"github.com/dshills/healthaudit/internal/journal"
	"github.com/dshills/healthaudit/internal/observe"
	"github.com/dshills/healthaudit/internal/patch"
	"github.com/dshills/healthaudit/internal/trend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

type fixture struct {
	dir    string
	ledger string
	domain *benchmark.Domain
	clock  time.Time
	logs   bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	d, err := benchmark.LoadBuiltin("hooks")
	require.NoError(t, err)
	dir := t.TempDir()
	return &fixture{
		dir:    dir,
		ledger: filepath.Join(dir, "debt", "ledger.jsonl"),
		domain: d,
		clock:  start,
	}
}

// engine returns a fresh engine, as each CLI invocation would build one.
func (f *fixture) engine(t *testing.T) *Engine {
	t.Helper()
	f.clock = f.clock.Add(time.Hour)
	now := f.clock
	logger := log.New(&f.logs, "", 0)
	e, err := New(Config{
		Domain: f.domain,
		Journal: journal.New(journal.Config{
			Dir:    filepath.Join(f.dir, "state"),
			Domain: f.domain.Name,
			Guard:  fsguard.NoSymlink,
			Logger: logger,
		}),
		Patches: patch.NewGenerator(patch.Config{
			LedgerPath: f.ledger,
			Domain:     f.domain.Name,
			Guard:      fsguard.NoSymlink,
			Logger:     logger,
			Now:        func() time.Time { return now },
		}),
		Logger: logger,
		Now:    func() time.Time { return now },
	})
	require.NoError(t, err)
	return e
}

func metricsDoc(metrics map[string]any) *observe.Document {
	return &observe.Document{Domain: "hooks", Metrics: metrics, Hash: "sha256:test"}
}

func TestNewRequiresDomainAndJournal(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	d, err := benchmark.LoadBuiltin("hooks")
	require.NoError(t, err)
	_, err = New(Config{Domain: d})
	require.Error(t, err)
}

func TestNewGeneratesRunID(t *testing.T) {
	f := newFixture(t)
	a := f.engine(t)
	b := f.engine(t)
	assert.NotEmpty(t, a.runID)
	assert.NotEqual(t, a.runID, b.runID)
}

func TestRunScoresAndRecords(t *testing.T) {
	f := newFixture(t)
	rep, err := f.engine(t).Run(metricsDoc(map[string]any{"avg_hook_ms": 500}), Options{})
	require.NoError(t, err)

	assert.Equal(t, ToolName, rep.Tool)
	assert.Equal(t, "hooks", rep.Domain)
	require.Contains(t, rep.Categories, "performance")
	perf := rep.Categories["performance"]
	assert.Equal(t, 90, perf.Score)
	assert.Equal(t, SourceMetrics, perf.Source)
	assert.Equal(t, audit.GradeA, perf.Grade)

	m := perf.Metrics["avg_hook_ms"]
	require.NotNil(t, m.Value)
	assert.Equal(t, 500.0, *m.Value)
	assert.Equal(t, audit.RatingAverage, m.Rating)

	assert.Len(t, rep.Categories, 1)
	assert.Equal(t, 90, rep.Health.Score)
	assert.Equal(t, audit.GradeA, rep.Health.Grade)
	assert.Nil(t, rep.Trend)
	assert.Nil(t, rep.Delta)
	assert.True(t, rep.Recorded)

	_, err = os.Stat(filepath.Join(f.dir, "state", "hooks-history.jsonl"))
	assert.NoError(t, err)
}

func TestRunCompositeUsesPresentWeights(t *testing.T) {
	f := newFixture(t)
	rep, err := f.engine(t).Run(metricsDoc(map[string]any{
		"unsafe_exec_calls":    0,
		"hooks_with_tests_pct": 65,
	}), Options{})
	require.NoError(t, err)

	// security 100 at 0.25, test_coverage 90 at 0.15
	assert.Equal(t, 100, rep.Categories["security"].Score)
	assert.Equal(t, 90, rep.Categories["test_coverage"].Score)
	assert.Len(t, rep.Health.Breakdown, 2)
	assert.Equal(t, 96, rep.Health.Score)
	assert.Equal(t, audit.GradeA, rep.Health.Grade)
}

func TestRunNonNumericMetric(t *testing.T) {
	f := newFixture(t)
	rep, err := f.engine(t).Run(metricsDoc(map[string]any{"avg_hook_ms": "slow"}), Options{})
	require.NoError(t, err)

	m := rep.Categories["performance"].Metrics["avg_hook_ms"]
	assert.Nil(t, m.Value)
	assert.Equal(t, 0, m.Score)
	assert.Equal(t, audit.RatingPoor, m.Rating)

	_, err = json.Marshal(rep)
	assert.NoError(t, err)
}

func TestRunCategoryOverride(t *testing.T) {
	f := newFixture(t)
	doc := metricsDoc(map[string]any{"avg_hook_ms": 2000})
	doc.Categories = map[string]any{"performance": 72.5}

	rep, err := f.engine(t).Run(doc, Options{})
	require.NoError(t, err)

	perf := rep.Categories["performance"]
	assert.Equal(t, 73, perf.Score)
	assert.Equal(t, SourceReported, perf.Source)
	assert.Equal(t, 0, perf.Metrics["avg_hook_ms"].Score)
}

func TestRunInvalidDocument(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine(t).Run(metricsDoc(map[string]any{"nope": 1}), Options{})
	require.Error(t, err)

	var inv *InvalidError
	require.True(t, errors.As(err, &inv))
	require.Len(t, inv.Errs, 1)
	assert.Equal(t, "metrics.nope", inv.Errs[0].Path)
	assert.Contains(t, err.Error(), "unknown metric")

	_, err = f.engine(t).Run(nil, Options{})
	assert.Error(t, err)
}

func TestRunBatchDoesNotRecord(t *testing.T) {
	f := newFixture(t)
	rep, err := f.engine(t).Run(metricsDoc(map[string]any{"avg_hook_ms": 100}), Options{Batch: true})
	require.NoError(t, err)
	assert.False(t, rep.Recorded)

	_, err = os.Stat(filepath.Join(f.dir, "state", "hooks-history.jsonl"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunTrendAndDelta(t *testing.T) {
	f := newFixture(t)
	var rep *Report
	for _, score := range []float64{60, 70, 80} {
		doc := metricsDoc(map[string]any{"avg_hook_ms": 100})
		doc.Categories = map[string]any{"performance": score}
		var err error
		rep, err = f.engine(t).Run(doc, Options{})
		require.NoError(t, err)
	}

	require.NotNil(t, rep.Trend)
	assert.Equal(t, trend.Improving, rep.Trend.Direction)
	assert.Equal(t, 20.0, rep.Trend.Delta)
	assert.Equal(t, 33, rep.Trend.DeltaPercent)
	assert.Equal(t, "▁▅█", rep.Trend.Sparkline)

	perf := rep.Categories["performance"]
	require.NotNil(t, perf.Trend)
	assert.Equal(t, trend.Improving, perf.Trend.Direction)

	require.NotNil(t, rep.Delta)
	assert.Equal(t, 70, rep.Delta.Before)
	assert.Equal(t, 80, rep.Delta.After)
	assert.Equal(t, 10, rep.Delta.Change)
	assert.Equal(t, 10, rep.Delta.Categories["performance"].Change)
}

func TestRunTrendWindow(t *testing.T) {
	f := newFixture(t)
	var rep *Report
	for _, score := range []float64{10, 90, 90} {
		doc := metricsDoc(map[string]any{"avg_hook_ms": 100})
		doc.Categories = map[string]any{"performance": score}
		var err error
		rep, err = f.engine(t).Run(doc, Options{TrendWindow: 2})
		require.NoError(t, err)
	}
	require.NotNil(t, rep.Trend)
	assert.Equal(t, trend.Stable, rep.Trend.Direction)
}

func TestRunBaseline(t *testing.T) {
	f := newFixture(t)
	doc := metricsDoc(map[string]any{"avg_hook_ms": 2000})
	rep, err := f.engine(t).Run(doc, Options{SaveBaseline: true, Batch: true})
	require.NoError(t, err)
	assert.True(t, rep.BaselineSaved)
	assert.Nil(t, rep.BaselineDelta)

	rep, err = f.engine(t).Run(metricsDoc(map[string]any{"avg_hook_ms": 200}), Options{})
	require.NoError(t, err)
	require.NotNil(t, rep.BaselineDelta)
	assert.Equal(t, 0, rep.BaselineDelta.Before)
	assert.Equal(t, 100, rep.BaselineDelta.After)
	assert.Equal(t, 100, rep.BaselineDelta.Change)
}

func TestRunFindingsAndDebt(t *testing.T) {
	f := newFixture(t)
	doc := metricsDoc(map[string]any{"avg_hook_ms": 100})
	doc.Findings = []audit.Finding{
		{Message: "minor style", Severity: audit.SeverityInfo},
		{
			Message:     "hook writes without guard",
			Severity:    audit.SeverityError,
			Category:    "security",
			Frequency:   10,
			BlastRadius: 5,
			PatchType:   audit.PatchDebtEntry,
		},
		{
			Message:      "settings out of sync",
			Severity:     audit.SeverityWarning,
			PatchType:    audit.PatchSyncCommand,
			PatchContent: "npm run hooks:sync",
		},
	}

	rep, err := f.engine(t).Run(doc, Options{WriteDebt: true})
	require.NoError(t, err)

	require.Len(t, rep.Findings, 3)
	assert.Equal(t, "hook writes without guard", rep.Findings[0].Message)
	assert.Equal(t, 100, rep.Findings[0].Impact)

	require.Len(t, rep.Patches, 2)
	require.NotNil(t, rep.Patches[0].Debt)
	assert.Equal(t, "DEBT-1", rep.Patches[0].Debt.ID)
	assert.Equal(t, "$ npm run hooks:sync", rep.Patches[1].Preview)

	assert.Equal(t, []string{"DEBT-1"}, rep.DebtRecorded)
	data, err := os.ReadFile(f.ledger)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id":"DEBT-1"`)

	assert.Equal(t, FindingCounts{Errors: 1, Warnings: 1, Info: 1}, rep.Counts)
	assert.False(t, rep.Passed(60))
}

func TestRunDebtSkippedInBatch(t *testing.T) {
	f := newFixture(t)
	doc := metricsDoc(map[string]any{"avg_hook_ms": 100})
	doc.Findings = []audit.Finding{{Message: "x", Severity: audit.SeverityWarning, PatchType: audit.PatchDebtEntry}}

	rep, err := f.engine(t).Run(doc, Options{WriteDebt: true, Batch: true})
	require.NoError(t, err)
	assert.Len(t, rep.Patches, 1)
	assert.Empty(t, rep.DebtRecorded)
	_, err = os.Stat(f.ledger)
	assert.True(t, os.IsNotExist(err))
}

func TestRunTruncatesFindings(t *testing.T) {
	f := newFixture(t)
	doc := metricsDoc(map[string]any{"avg_hook_ms": 100})
	for i := 0; i < 12; i++ {
		doc.Findings = append(doc.Findings, audit.Finding{Message: "w", Severity: audit.SeverityWarning})
	}
	rep, err := f.engine(t).Run(doc, Options{MaxFindings: 5})
	require.NoError(t, err)
	require.Len(t, rep.Findings, 5)
	assert.Equal(t, "8 lower-impact findings omitted", rep.Findings[4].Message)
	assert.Equal(t, FindingCounts{Warnings: 12}, rep.Counts)
}

func TestRunCheckSeesTruncatedErrors(t *testing.T) {
	f := newFixture(t)
	doc := metricsDoc(map[string]any{"avg_hook_ms": 100})
	doc.Findings = []audit.Finding{
		{Message: "hook exits non-zero", Severity: audit.SeverityError},
		{Message: "noisy hook a", Severity: audit.SeverityWarning, Frequency: 10, BlastRadius: 5},
		{Message: "noisy hook b", Severity: audit.SeverityWarning, Frequency: 10, BlastRadius: 5},
	}

	rep, err := f.engine(t).Run(doc, Options{MaxFindings: 2})
	require.NoError(t, err)
	require.Equal(t, 100, rep.Health.Score)

	for _, rf := range rep.Findings {
		assert.NotEqual(t, audit.SeverityError, rf.Severity, "error finding should have been truncated away")
	}
	assert.Equal(t, FindingCounts{Errors: 1, Warnings: 2}, rep.Counts)
	assert.False(t, rep.Passed(60))
}

func TestRunDeltaIgnoresTrendWindow(t *testing.T) {
	f := newFixture(t)
	for _, score := range []float64{40, 65} {
		doc := metricsDoc(map[string]any{"avg_hook_ms": 100})
		doc.Categories = map[string]any{"performance": score}
		rep, err := f.engine(t).Run(doc, Options{TrendWindow: 1})
		require.NoError(t, err)
		assert.Nil(t, rep.Trend)
		if score == 40 {
			assert.Nil(t, rep.Delta)
			continue
		}
		require.NotNil(t, rep.Delta)
		assert.Equal(t, 40, rep.Delta.Before)
		assert.Equal(t, 65, rep.Delta.After)
		assert.Equal(t, 25, rep.Delta.Change)
	}
}

func TestPassed(t *testing.T) {
	rep := &Report{Health: audit.CompositeScore{Score: 75}}
	assert.True(t, rep.Passed(60))
	assert.False(t, rep.Passed(80))

	rep.Counts = FindingCounts{Warnings: 3, Info: 1}
	assert.True(t, rep.Passed(60))
	rep.Counts.Errors = 1
	assert.False(t, rep.Passed(60))
}
