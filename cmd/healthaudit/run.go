package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/dshills/healthaudit/internal/benchmark"
	"github.com/dshills/healthaudit/internal/engine"
	"github.com/dshills/healthaudit/internal/fsguard"
	"github.com/dshills/healthaudit/internal/journal"
	"github.com/dshills/healthaudit/internal/observe"
	"github.com/dshills/healthaudit/internal/patch"
	"github.com/dshills/healthaudit/internal/render"
	"github.com/dshills/healthaudit/internal/root"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const (
	stateDir   = ".healthaudit"
	ledgerFile = "debt/ledger.jsonl"
)

type runFlags struct {
	domain       string
	input        string
	check        bool
	summary      bool
	batch        bool
	saveBaseline bool
	format       string
	root         string
	config       string
	writeDebt    bool
	patchOut     string
	minScore     int
	trendWindow  int
	maxFindings  int
	verbose      bool
}

func newRunCmd() *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Score one domain's observations and record the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd.OutOrStdout(), cmd.ErrOrStderr(), f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.domain, "domain", "", "Domain to audit (see 'healthaudit domains')")
	flags.StringVar(&f.input, "input", "", "Observations file (JSON or YAML, - for stdin)")
	flags.BoolVar(&f.check, "check", false, "Exit 1 if the run has error findings or scores below --min-score")
	flags.BoolVar(&f.summary, "summary", false, "Print a compact summary instead of the full report")
	flags.BoolVar(&f.batch, "batch", false, "Do not record history or debt")
	flags.BoolVar(&f.saveBaseline, "save-baseline", false, "Save this run as the comparison baseline")
	flags.StringVar(&f.format, "format", "json", "Output format: json or md")
	flags.StringVar(&f.root, "root", "", "Project root (default: nearest directory with .git, go.mod, or package.json)")
	flags.StringVar(&f.config, "config", "", "Custom benchmark profile (YAML)")
	flags.BoolVar(&f.writeDebt, "write-debt", false, "Append debt_entry patches to the debt ledger")
	flags.StringVar(&f.patchOut, "patch-out", "", "Write patch previews to this file")
	flags.IntVar(&f.minScore, "min-score", 60, "Minimum composite score for --check")
	flags.IntVar(&f.trendWindow, "trend-window", 0, "Runs to include in trends (default 5)")
	flags.IntVar(&f.maxFindings, "max-findings", 0, "Cap on reported findings (default 100)")
	flags.BoolVar(&f.verbose, "verbose", false, "Print processing steps to stderr")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runAudit(stdout, stderr io.Writer, f *runFlags) error {
	logger := log.New(stderr, "", 0)
	verbose := func(msg string, args ...any) {
		if f.verbose {
			logger.Printf(msg, args...)
		}
	}

	if f.format != "json" && f.format != "md" {
		return exitError(3, "unknown format: %s", f.format)
	}

	d, err := loadDomain(f.domain, f.config)
	if err != nil {
		return exitError(3, "failed to load domain: %v", err)
	}
	verbose("Auditing domain: %s", d.Name)

	projectRoot, err := resolveRoot(f.root)
	if err != nil {
		return exitError(3, "failed to resolve project root: %v", err)
	}
	verbose("Project root: %s", projectRoot)

	verbose("Loading observations: %s", f.input)
	doc, err := observe.Load(f.input)
	if err != nil {
		return exitError(3, "failed to load observations: %v", err)
	}

	runID := uuid.NewString()
	j := journal.New(journal.Config{
		Dir:    filepath.Join(projectRoot, stateDir, "state"),
		Domain: d.Name,
		Guard:  fsguard.NoSymlink,
		Logger: logger,
	})
	gen := patch.NewGenerator(patch.Config{
		LedgerPath: filepath.Join(projectRoot, stateDir, ledgerFile),
		Domain:     d.Name,
		SourceID:   fmt.Sprintf("audit:%s:%s", d.Name, runID),
		Guard:      fsguard.NoSymlink,
		Logger:     logger,
	})
	eng, err := engine.New(engine.Config{
		Domain:  d,
		Journal: j,
		Patches: gen,
		Logger:  logger,
		RunID:   runID,
	})
	if err != nil {
		return exitError(3, "%v", err)
	}

	rep, err := eng.Run(doc, engine.Options{
		Batch:        f.batch,
		SaveBaseline: f.saveBaseline,
		WriteDebt:    f.writeDebt,
		TrendWindow:  f.trendWindow,
		MaxFindings:  f.maxFindings,
	})
	if err != nil {
		var inv *engine.InvalidError
		if errors.As(err, &inv) {
			fmt.Fprintln(stderr, "Observation errors:")
			for _, e := range inv.Errs {
				fmt.Fprintf(stderr, "  %s\n", e)
			}
			return exitError(3, "observations failed validation")
		}
		return exitError(3, "%v", err)
	}
	verbose("Health score %d (%s), %d findings, %d patches", rep.Health.Score, rep.Health.Grade, len(rep.Findings), len(rep.Patches))
	if rep.Recorded {
		verbose("Recorded run %s in %s", rep.RunID, j.Path())
	}

	var output string
	switch {
	case f.summary || f.check:
		output = render.Summary(rep)
	case f.format == "md":
		output = render.Markdown(rep)
	default:
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		output = string(data) + "\n"
	}
	fmt.Fprint(stdout, output)

	if f.patchOut != "" {
		verbose("Writing patches to %s", f.patchOut)
		if err := patch.WritePatchFile(rep.Patches, f.patchOut, fsguard.NoSymlink); err != nil {
			return fmt.Errorf("failed to write patches: %w", err)
		}
	}

	if f.check && !rep.Passed(f.minScore) {
		return exitError(1, "check failed: score %d (minimum %d)", rep.Health.Score, f.minScore)
	}
	return nil
}

// loadDomain prefers a custom profile over the built-in one.
func loadDomain(name, config string) (*benchmark.Domain, error) {
	if config != "" {
		d, err := benchmark.LoadFile(config)
		if err != nil {
			return nil, err
		}
		if name != "" && name != d.Name {
			return nil, fmt.Errorf("profile %s is for domain %q, not %q", config, d.Name, name)
		}
		return d, nil
	}
	if name == "" {
		names, _ := benchmark.List()
		return nil, fmt.Errorf("--domain is required (one of %s)", strings.Join(names, ", "))
	}
	return benchmark.LoadBuiltin(name)
}

func resolveRoot(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	return root.FromWorkingDir()
}
