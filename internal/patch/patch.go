// Package patch turns findings into proposed remediations and maintains the
// shared debt ledger.
package patch

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/dshills/healthaudit/internal/audit"
	"github.com/dshills/healthaudit/internal/fsguard"
	"github.com/dshills/healthaudit/internal/redact"
)

const (
	defaultEffort = "E1"
	maxTitleLen   = 100
)

// Patch is a proposed fix. Commands are never executed by this package.
type Patch struct {
	Type        audit.PatchType `json:"type"`
	Target      string          `json:"target,omitempty"`
	Content     string          `json:"content,omitempty"`
	Command     string          `json:"command,omitempty"`
	Description string          `json:"description"`
	Impact      string          `json:"impact"`
	Debt        *DebtEntry      `json:"debt,omitempty"`
	Preview     string          `json:"preview"`
}

// DebtEntry is one record of the shared debt ledger.
type DebtEntry struct {
	ID          string `json:"id"`
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	SourceID    string `json:"source_id"`
	Status      string `json:"status"`
	Created     string `json:"created"`
	Effort      string `json:"effort"`
	Description string `json:"description"`
}

// Config configures a Generator.
type Config struct {
	LedgerPath string
	Domain     string
	SourceID   string
	Guard      fsguard.Guard
	Logger     *log.Logger
	Now        func() time.Time
	MaxBytes   int64
}

// Generator builds patches for one audit run.
type Generator struct {
	ledgerPath string
	domain     string
	sourceID   string
	guard      fsguard.Guard
	logger     *log.Logger
	now        func() time.Time
	maxBytes   int64

	// highest debt number handed out by this generator
	issued int64
}

func NewGenerator(cfg Config) *Generator {
	g := &Generator{
		ledgerPath: cfg.LedgerPath,
		domain:     cfg.Domain,
		sourceID:   cfg.SourceID,
		guard:      cfg.Guard,
		logger:     cfg.Logger,
		now:        cfg.Now,
		maxBytes:   cfg.MaxBytes,
	}
	if g.guard == nil {
		g.guard = fsguard.Deny
	}
	if g.logger == nil {
		g.logger = log.New(io.Discard, "", 0)
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.maxBytes <= 0 {
		g.maxBytes = DefaultLedgerMaxBytes
	}
	if g.sourceID == "" {
		g.sourceID = "audit:" + g.domain
	}
	return g
}

// Generate returns the patch a finding asks for, or nil when it carries no
// recognized patch type.
func (g *Generator) Generate(f audit.Finding) *Patch {
	if !f.PatchType.Valid() {
		return nil
	}
	switch {
	case f.PatchType == audit.PatchDebtEntry:
		return g.debtPatch(f)
	case f.PatchType.IsCommand():
		return g.commandPatch(f)
	default:
		return g.genericPatch(f)
	}
}

// GenerateAll builds patches for every finding that has one.
func (g *Generator) GenerateAll(findings []audit.RankedFinding) []Patch {
	var patches []Patch
	for _, f := range findings {
		if p := g.Generate(f.Finding); p != nil {
			patches = append(patches, *p)
		}
	}
	return patches
}

func (g *Generator) debtPatch(f audit.Finding) *Patch {
	severity := "S2"
	if f.Severity == audit.SeverityError {
		severity = "S1"
	}
	effort := f.Effort
	if effort == "" {
		effort = defaultEffort
	}
	description := f.Message
	if f.PatchContent != "" {
		description += "\n\n" + f.PatchContent
	}
	category := f.Category
	if category == "" {
		category = g.domain
	}

	entry := &DebtEntry{
		ID:          g.NextDebtID(),
		Severity:    severity,
		Title:       title(redact.Redact(f.Message)),
		Category:    category,
		SourceID:    g.sourceID,
		Status:      "open",
		Created:     g.now().UTC().Format("2006-01-02"),
		Effort:      effort,
		Description: redact.Redact(description),
	}
	line, err := json.Marshal(entry)
	if err != nil {
		g.logger.Printf("Warning: debt entry %s: %v", entry.ID, err)
		return nil
	}
	return &Patch{
		Type:        audit.PatchDebtEntry,
		Target:      g.ledgerPath,
		Description: fmt.Sprintf("Record %s in the debt ledger", entry.ID),
		Impact:      orDefault(f.PatchImpact, "Tracks the finding until it is resolved"),
		Debt:        entry,
		Preview:     "+ " + string(line),
	}
}

func (g *Generator) commandPatch(f audit.Finding) *Patch {
	cmd := strings.TrimSpace(f.PatchContent)
	if cmd == "" {
		cmd = strings.TrimSpace(f.PatchTarget)
	}
	return &Patch{
		Type:        f.PatchType,
		Command:     cmd,
		Description: f.Message,
		Impact:      orDefault(f.PatchImpact, fmt.Sprintf("Improves %s health", g.domain)),
		Preview:     "$ " + cmd,
	}
}

func (g *Generator) genericPatch(f audit.Finding) *Patch {
	target := orDefault(f.PatchTarget, "(unspecified)")
	var preview strings.Builder
	fmt.Fprintf(&preview, "--- a/%s\n+++ b/%s\n", target, target)
	for _, line := range strings.Split(f.PatchContent, "\n") {
		fmt.Fprintf(&preview, "+%s\n", line)
	}
	return &Patch{
		Type:        f.PatchType,
		Target:      target,
		Content:     f.PatchContent,
		Description: f.Message,
		Impact:      orDefault(f.PatchImpact, fmt.Sprintf("Improves %s health", g.domain)),
		Preview:     strings.TrimSuffix(preview.String(), "\n"),
	}
}

func title(msg string) string {
	msg = strings.TrimSpace(msg)
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	r := []rune(msg)
	if len(r) > maxTitleLen {
		return string(r[:maxTitleLen-3]) + "..."
	}
	return msg
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
