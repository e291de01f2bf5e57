// Package schema validates an observations document against a domain's benchmarks.
package schema

import (
	"fmt"
	"sort"

	"github.com/dshills/healthaudit/internal/benchmark"
	"github.com/dshills/healthaudit/internal/observe"
)

// ValidationError describes a single schema violation.
type ValidationError struct {
	Path    string
	Message string
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks doc for structural problems. Non-numeric metric values are
// not errors; they score as poor.
func Validate(doc *observe.Document, d *benchmark.Domain) []ValidationError {
	var errs []ValidationError

	if doc.Domain != "" && doc.Domain != d.Name {
		errs = append(errs, ValidationError{"domain", fmt.Sprintf("document is for %q, auditing %q", doc.Domain, d.Name)})
	}
	if len(doc.Metrics) == 0 && len(doc.Categories) == 0 {
		errs = append(errs, ValidationError{"metrics", "no metrics or category scores reported"})
	}

	for _, id := range sortedKeys(doc.Metrics) {
		if _, _, ok := d.Metric(id); !ok {
			errs = append(errs, ValidationError{"metrics." + id, "unknown metric"})
		}
	}

	for _, id := range sortedKeys(doc.Categories) {
		if _, ok := d.Category(id); !ok {
			errs = append(errs, ValidationError{"categories." + id, "unknown category"})
			continue
		}
		if v, ok := doc.CategoryOverride(id); ok && (v < 0 || v > 100) {
			errs = append(errs, ValidationError{"categories." + id, fmt.Sprintf("score %v outside 0-100", v)})
		}
	}

	for i, f := range doc.Findings {
		prefix := fmt.Sprintf("findings[%d]", i)
		if f.Message == "" {
			errs = append(errs, ValidationError{prefix + ".message", "required"})
		}
		if !f.Severity.Valid() {
			errs = append(errs, ValidationError{prefix + ".severity", fmt.Sprintf("invalid: %q", f.Severity)})
		}
		if f.Frequency < 0 {
			errs = append(errs, ValidationError{prefix + ".frequency", "must be >= 0"})
		}
		if f.BlastRadius < 0 {
			errs = append(errs, ValidationError{prefix + ".blastRadius", "must be >= 0"})
		}
		if f.Category != "" {
			if _, ok := d.Category(f.Category); !ok {
				errs = append(errs, ValidationError{prefix + ".category", fmt.Sprintf("unknown category %q", f.Category)})
			}
		}
	}

	return errs
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
