// Package benchmark loads per-domain metric thresholds and category weights.
package benchmark

import (
	"embed"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Direction says which way a metric improves.
type Direction string

const (
	HigherIsBetter Direction = "higher-is-better"
	LowerIsBetter  Direction = "lower-is-better"
)

func (d Direction) Valid() bool {
	return d == HigherIsBetter || d == LowerIsBetter
}

// Benchmark places a raw metric value on a 0-100 quality axis.
type Benchmark struct {
	Good      float64   `yaml:"good" json:"good"`
	Average   float64   `yaml:"average" json:"average"`
	Poor      float64   `yaml:"poor" json:"poor"`
	Direction Direction `yaml:"direction" json:"direction"`
}

// Metric is a named benchmark inside a category.
type Metric struct {
	ID        string `yaml:"id"`
	Title     string `yaml:"title"`
	Benchmark `yaml:",inline"`
}

// Category groups metrics under a single weight.
type Category struct {
	ID      string   `yaml:"id"`
	Title   string   `yaml:"title"`
	Weight  float64  `yaml:"weight"`
	Metrics []Metric `yaml:"metrics"`
}

// Domain is the complete benchmark table for one audit domain.
// A Domain is treated as read-only once loaded.
type Domain struct {
	Name        string     `yaml:"name"`
	Version     int        `yaml:"version"`
	Description string     `yaml:"description"`
	Categories  []Category `yaml:"categories"`
}

// Weights returns category ID → weight.
func (d *Domain) Weights() map[string]float64 {
	w := make(map[string]float64, len(d.Categories))
	for _, c := range d.Categories {
		w[c.ID] = c.Weight
	}
	return w
}

// Category looks up a category by ID.
func (d *Domain) Category(id string) (Category, bool) {
	for _, c := range d.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// Metric looks up a metric by ID and returns it with its owning category ID.
func (d *Domain) Metric(id string) (Metric, string, bool) {
	for _, c := range d.Categories {
		for _, m := range c.Metrics {
			if m.ID == id {
				return m, c.ID, true
			}
		}
	}
	return Metric{}, "", false
}

// Domain names become file names under the state directory.
var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidName reports whether name can be used as a domain name.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Validate checks the name, IDs, weights, directions, and threshold ordering.
func (d *Domain) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("benchmark: domain name is required")
	}
	if !ValidName(d.Name) {
		return fmt.Errorf("benchmark: invalid domain name %q (want lowercase letters, digits, '-' or '_')", d.Name)
	}
	if len(d.Categories) == 0 {
		return fmt.Errorf("benchmark: domain %q has no categories", d.Name)
	}
	seenCat := make(map[string]bool)
	seenMetric := make(map[string]bool)
	for _, c := range d.Categories {
		if c.ID == "" {
			return fmt.Errorf("benchmark: domain %q has a category without id", d.Name)
		}
		if seenCat[c.ID] {
			return fmt.Errorf("benchmark: duplicate category %q", c.ID)
		}
		seenCat[c.ID] = true
		if c.Weight <= 0 || math.IsNaN(c.Weight) {
			return fmt.Errorf("benchmark: category %q weight must be positive", c.ID)
		}
		for _, m := range c.Metrics {
			if m.ID == "" {
				return fmt.Errorf("benchmark: category %q has a metric without id", c.ID)
			}
			if seenMetric[m.ID] {
				return fmt.Errorf("benchmark: duplicate metric %q", m.ID)
			}
			seenMetric[m.ID] = true
			if err := m.Benchmark.validate(); err != nil {
				return fmt.Errorf("benchmark: metric %q: %w", m.ID, err)
			}
		}
	}
	return nil
}

func (b Benchmark) validate() error {
	switch b.Direction {
	case HigherIsBetter:
		if b.Good < b.Average || b.Average < b.Poor {
			return fmt.Errorf("thresholds must satisfy good >= average >= poor")
		}
	case LowerIsBetter:
		if b.Good > b.Average || b.Average > b.Poor {
			return fmt.Errorf("thresholds must satisfy good <= average <= poor")
		}
	default:
		return fmt.Errorf("invalid direction %q", b.Direction)
	}
	return nil
}

// LoadBuiltin loads a built-in domain by name.
func LoadBuiltin(name string) (*Domain, error) {
	data, err := builtinFS.ReadFile("builtin/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("benchmark.LoadBuiltin: unknown domain %q: %w", name, err)
	}
	d, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("benchmark.LoadBuiltin: %q: %w", name, err)
	}
	return d, nil
}

// LoadFile loads a custom domain definition from disk.
func LoadFile(path string) (*Domain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("benchmark.LoadFile: %w", err)
	}
	d, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("benchmark.LoadFile: %s: %w", path, err)
	}
	return d, nil
}

func parse(data []byte) (*Domain, error) {
	var d Domain
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns the names of all built-in domains, sorted.
func List() ([]string, error) {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if strings.HasSuffix(n, ".yaml") {
			names = append(names, strings.TrimSuffix(n, ".yaml"))
		}
	}
	sort.Strings(names)
	return names, nil
}
