// Package render produces Markdown and terminal output from an audit report.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/healthaudit/internal/engine"
	"github.com/dshills/healthaudit/internal/journal"
	"github.com/dshills/healthaudit/internal/trend"
	"github.com/fatih/color"
)

var (
	goodColor = color.New(color.FgGreen, color.Bold)
	midColor  = color.New(color.FgYellow, color.Bold)
	badColor  = color.New(color.FgRed, color.Bold)
	dimColor  = color.New(color.Faint)
)

// Markdown renders a report as a Markdown document.
func Markdown(r *engine.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s Health Audit\n\n", titleCase(r.Domain))
	fmt.Fprintf(&b, "**Score:** %d / 100 (%s)\n", r.Health.Score, r.Health.Grade)
	if r.Trend != nil {
		fmt.Fprintf(&b, "**Trend:** %s %s (%+d%%)\n", r.Trend.Sparkline, r.Trend.Direction, r.Trend.DeltaPercent)
	}
	fmt.Fprintf(&b, "**Findings:** %d errors, %d warnings, %d info\n\n", r.Counts.Errors, r.Counts.Warnings, r.Counts.Info)

	b.WriteString("## Categories\n\n")
	b.WriteString("| Category | Score | Grade | Weight | Trend |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, id := range sortedCategories(r) {
		c := r.Categories[id]
		fmt.Fprintf(&b, "| %s | %d | %s | %.2f | %s |\n", orID(c.Title, id), c.Score, c.Grade, c.Weight, trendCell(c.Trend))
	}
	b.WriteString("\n")

	for _, id := range sortedCategories(r) {
		c := r.Categories[id]
		if len(c.Metrics) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s\n\n", orID(c.Title, id))
		if c.Source == engine.SourceReported {
			b.WriteString("_Score reported by the checker._\n\n")
		}
		for _, mid := range sortedKeys(c.Metrics) {
			m := c.Metrics[mid]
			fmt.Fprintf(&b, "- `%s`: %s, %s (%d)\n", mid, formatValue(m.Value), m.Rating, m.Score)
		}
		b.WriteString("\n")
	}

	if r.Delta != nil || r.BaselineDelta != nil {
		b.WriteString("## Changes\n\n")
		writeDelta(&b, "Since last run", r.Delta)
		writeDelta(&b, "Since baseline", r.BaselineDelta)
		b.WriteString("\n")
	}

	if len(r.Findings) > 0 {
		b.WriteString("## Findings\n\n")
		for _, f := range r.Findings {
			fmt.Fprintf(&b, "- **[%s]** %s (impact %d", f.Severity, f.Message, f.Impact)
			if f.Category != "" {
				fmt.Fprintf(&b, ", %s", f.Category)
			}
			b.WriteString(")\n")
		}
		b.WriteString("\n")
	} else {
		b.WriteString("No findings.\n\n")
	}

	if len(r.Patches) > 0 {
		b.WriteString("## Suggested Patches\n\n")
		for _, p := range r.Patches {
			fmt.Fprintf(&b, "### %s\n\n", p.Description)
			fmt.Fprintf(&b, "%s\n\n", p.Impact)
			lang := "diff"
			if p.Type.IsCommand() {
				lang = "sh"
			}
			fmt.Fprintf(&b, "```%s\n%s\n```\n\n", lang, p.Preview)
		}
	}

	return b.String()
}

func writeDelta(b *strings.Builder, label string, d *journal.Delta) {
	if d == nil {
		return
	}
	fmt.Fprintf(b, "- %s: %d -> %d (%+d)", label, d.Before, d.After, d.Change)
	if d.BeforeGrade != d.AfterGrade {
		fmt.Fprintf(b, ", grade %s -> %s", d.BeforeGrade, d.AfterGrade)
	}
	b.WriteString("\n")
}

// Summary renders the short terminal summary printed after a run.
func Summary(r *engine.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s health: %s %s", r.Domain, scoreColor(r.Health.Score).Sprintf("%d/100", r.Health.Score), scoreColor(r.Health.Score).Sprint(r.Health.Grade))
	if r.Trend != nil {
		fmt.Fprintf(&b, "  %s %s", r.Trend.Sparkline, directionColor(r.Trend.Direction).Sprint(r.Trend.Direction))
	}
	b.WriteString("\n")

	for _, id := range sortedCategories(r) {
		c := r.Categories[id]
		fmt.Fprintf(&b, "  %-24s %s\n", orID(c.Title, id), scoreColor(c.Score).Sprintf("%3d %s", c.Score, c.Grade))
	}

	fmt.Fprintf(&b, "findings: %s, %s, %d info\n",
		badColor.Sprintf("%d errors", r.Counts.Errors), midColor.Sprintf("%d warnings", r.Counts.Warnings), r.Counts.Info)

	if !r.Recorded {
		b.WriteString(dimColor.Sprint("history not recorded"))
		b.WriteString("\n")
	}
	return b.String()
}

func scoreColor(score int) *color.Color {
	switch {
	case score >= 80:
		return goodColor
	case score >= 60:
		return midColor
	default:
		return badColor
	}
}

func directionColor(d trend.Direction) *color.Color {
	switch d {
	case trend.Improving:
		return goodColor
	case trend.Declining:
		return badColor
	default:
		return dimColor
	}
}

func trendCell(t *trend.Trend) string {
	if t == nil {
		return "-"
	}
	return fmt.Sprintf("%s %s", t.Sparkline, t.Direction)
}

func formatValue(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%g", *v)
}

func sortedCategories(r *engine.Report) []string {
	return sortedKeys(r.Categories)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orID(title, id string) string {
	if title == "" {
		return id
	}
	return title
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
