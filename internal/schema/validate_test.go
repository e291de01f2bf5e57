package schema

import (
	"strings"
	"testing"

	"github.com/dshills/healthaudit/internal/audit"
	"github.com/dshills/healthaudit/internal/benchmark"
	"github.com/dshills/healthaudit/internal/observe"
)

func hooksDomain(t *testing.T) *benchmark.Domain {
	t.Helper()
	d, err := benchmark.LoadBuiltin("hooks")
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func validDoc() *observe.Document {
	return &observe.Document{
		Domain: "hooks",
		Metrics: map[string]any{
			"avg_hook_ms":       420.0,
			"unsafe_exec_calls": "n/a",
		},
		Categories: map[string]any{"security": 70.0},
		Findings: []audit.Finding{
			{Message: "hook without timeout", Severity: audit.SeverityWarning, Category: "performance", PatchType: "made_up"},
		},
	}
}

func TestValidateValid(t *testing.T) {
	errs := Validate(validDoc(), hooksDomain(t))
	if len(errs) > 0 {
		for _, e := range errs {
			t.Errorf("unexpected error: %s", e)
		}
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(d *observe.Document)
		path   string
	}{
		{"wrong domain", func(d *observe.Document) { d.Domain = "docs" }, "domain"},
		{"empty", func(d *observe.Document) { d.Metrics = nil; d.Categories = nil }, "metrics"},
		{"unknown metric", func(d *observe.Document) { d.Metrics["hook_vibes"] = 1.0 }, "metrics.hook_vibes"},
		{"unknown category", func(d *observe.Document) { d.Categories["style"] = 50.0 }, "categories.style"},
		{"category out of range", func(d *observe.Document) { d.Categories["security"] = 140.0 }, "categories.security"},
		{"missing message", func(d *observe.Document) { d.Findings[0].Message = "" }, "findings[0].message"},
		{"bad severity", func(d *observe.Document) { d.Findings[0].Severity = "fatal" }, "findings[0].severity"},
		{"negative frequency", func(d *observe.Document) { d.Findings[0].Frequency = -1 }, "findings[0].frequency"},
		{"negative blast radius", func(d *observe.Document) { d.Findings[0].BlastRadius = -2 }, "findings[0].blastRadius"},
		{"unknown finding category", func(d *observe.Document) { d.Findings[0].Category = "vibes" }, "findings[0].category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validDoc()
			tt.modify(doc)
			errs := Validate(doc, hooksDomain(t))
			if len(errs) == 0 {
				t.Fatal("expected validation errors")
			}
			found := false
			for _, e := range errs {
				if e.Path == tt.path {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error at %s, got %v", tt.path, errs)
			}
		})
	}
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{Path: "metrics.x", Message: "unknown metric"}
	if !strings.Contains(e.Error(), "metrics.x: unknown metric") {
		t.Errorf("unexpected error string: %s", e.Error())
	}
}
