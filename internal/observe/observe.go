// Package observe loads the metric values and findings a domain checker
// reports for one audit run.
package observe

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/healthaudit/internal/audit"
	"gopkg.in/yaml.v3"
)

// MaxBytes caps the size of an observations file.
const MaxBytes int64 = 1 << 20

// Document is one run's worth of checker output.
type Document struct {
	Domain     string          `json:"domain" yaml:"domain"`
	Metrics    map[string]any  `json:"metrics" yaml:"metrics"`
	Categories map[string]any  `json:"categories,omitempty" yaml:"categories,omitempty"`
	Findings   []audit.Finding `json:"findings" yaml:"findings"`

	FilePath string `json:"-" yaml:"-"`
	Hash     string `json:"-" yaml:"-"`
}

// Load reads path, or stdin when path is "-". Files ending in .yaml or .yml
// are decoded as YAML, everything else as JSON.
func Load(path string) (*Document, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = readCapped(os.Stdin)
	} else {
		var f *os.File
		f, err = os.Open(path)
		if err == nil {
			data, err = readCapped(f)
			f.Close()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("observe.Load: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes data and records its hash.
func Parse(path string, data []byte) (*Document, error) {
	var doc Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("observe.Parse: %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("observe.Parse: %s: %w", path, err)
		}
	}
	h := sha256.Sum256(data)
	doc.FilePath = path
	doc.Hash = fmt.Sprintf("sha256:%x", h)
	return &doc, nil
}

func readCapped(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxBytes {
		return nil, fmt.Errorf("observations exceed %d bytes", MaxBytes)
	}
	return data, nil
}

// Metric returns a metric's value. Missing or non-numeric values are NaN.
func (d *Document) Metric(id string) float64 {
	v, ok := d.Metrics[id]
	if !ok {
		return math.NaN()
	}
	return Number(v)
}

// CategoryOverride returns an explicitly reported category score when it is numeric.
func (d *Document) CategoryOverride(id string) (float64, bool) {
	v, ok := d.Categories[id]
	if !ok {
		return 0, false
	}
	n := Number(v)
	if math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

// Number converts a decoded JSON or YAML scalar to float64. Strings,
// booleans, and nulls are not numbers.
func Number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}
