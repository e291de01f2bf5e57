package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"github.com/dshills/healthaudit/internal/benchmark"
	"github.com/dshills/healthaudit/internal/fsguard"
	"github.com/dshills/healthaudit/internal/journal"
	"github.com/dshills/healthaudit/internal/trend"
	"github.com/spf13/cobra"
)

type historyFlags struct {
	domain   string
	category string
	root     string
	limit    int
	format   string
}

func newHistoryCmd() *cobra.Command {
	f := &historyFlags{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded runs for a domain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.OutOrStdout(), cmd.ErrOrStderr(), f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.domain, "domain", "", "Domain whose history to show")
	flags.StringVar(&f.category, "category", "", "Also show the trend of one category")
	flags.StringVar(&f.root, "root", "", "Project root (default: nearest directory with .git, go.mod, or package.json)")
	flags.IntVar(&f.limit, "limit", 10, "Number of most recent runs to show")
	flags.StringVar(&f.format, "format", "text", "Output format: text or json")
	_ = cmd.MarkFlagRequired("domain")

	return cmd
}

func runHistory(stdout, stderr io.Writer, f *historyFlags) error {
	if f.format != "text" && f.format != "json" {
		return exitError(3, "unknown format: %s", f.format)
	}
	if !benchmark.ValidName(f.domain) {
		return exitError(3, "invalid domain name: %q", f.domain)
	}
	projectRoot, err := resolveRoot(f.root)
	if err != nil {
		return exitError(3, "failed to resolve project root: %v", err)
	}

	// Read-only: the journal never needs to write here.
	j := journal.New(journal.Config{
		Dir:    filepath.Join(projectRoot, stateDir, "state"),
		Domain: f.domain,
		Guard:  fsguard.Deny,
		Logger: log.New(stderr, "", 0),
	})
	entries := j.Recent(f.limit)

	if f.format == "json" {
		if entries == nil {
			entries = []journal.Entry{}
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		fmt.Fprintln(stdout, string(data))
		return nil
	}

	if len(entries) == 0 {
		fmt.Fprintf(stdout, "No history for %s\n", f.domain)
		return nil
	}
	for _, e := range entries {
		score, grade := "-", "-"
		if e.HealthScore != nil {
			score = fmt.Sprint(e.HealthScore.Score)
			grade = string(e.HealthScore.Grade)
		}
		fmt.Fprintf(stdout, "%s  %3s %s  %s\n", e.Timestamp.Format("2006-01-02 15:04"), score, grade, e.RunID)
	}
	if t := trend.Compute(trend.Ints(j.CompositeHistory(f.limit)), f.limit); t != nil {
		fmt.Fprintf(stdout, "trend: %s %s (%+d%%)\n", t.Sparkline, t.Direction, t.DeltaPercent)
	}
	if f.category != "" {
		scores := j.CategoryHistory(f.category, f.limit)
		if t := trend.Compute(trend.Ints(scores), f.limit); t != nil {
			fmt.Fprintf(stdout, "%s: %s %s (%+d%%)\n", f.category, t.Sparkline, t.Direction, t.DeltaPercent)
		} else {
			fmt.Fprintf(stdout, "%s: %d runs recorded\n", f.category, len(scores))
		}
	}
	return nil
}
