// Package audit scores metrics, aggregates category scores, and ranks findings.
package audit

// MetricScore is the normalized score of one raw metric value.
type MetricScore struct {
	Score  int    `json:"score"`
	Rating Rating `json:"rating"`
}

// CategoryScore is a category's aggregated score.
type CategoryScore struct {
	Score int `json:"score"`
}

// Contribution records how one category fed into a composite.
type Contribution struct {
	Score        int     `json:"score"`
	Weight       float64 `json:"weight"`
	Contribution int     `json:"contribution"`
}

// CompositeScore is the weighted health score of one domain.
type CompositeScore struct {
	Score     int                     `json:"score"`
	Grade     Grade                   `json:"grade"`
	Breakdown map[string]Contribution `json:"breakdown"`
}

// Finding is a problem reported by a domain checker.
type Finding struct {
	Message      string    `json:"message" yaml:"message"`
	Severity     Severity  `json:"severity" yaml:"severity"`
	Category     string    `json:"category,omitempty" yaml:"category,omitempty"`
	Frequency    float64   `json:"frequency,omitempty" yaml:"frequency,omitempty"`
	BlastRadius  float64   `json:"blastRadius,omitempty" yaml:"blastRadius,omitempty"`
	PatchType    PatchType `json:"patchType,omitempty" yaml:"patchType,omitempty"`
	PatchTarget  string    `json:"patchTarget,omitempty" yaml:"patchTarget,omitempty"`
	PatchContent string    `json:"patchContent,omitempty" yaml:"patchContent,omitempty"`
	PatchImpact  string    `json:"patchImpact,omitempty" yaml:"patchImpact,omitempty"`
	Effort       string    `json:"effort,omitempty" yaml:"effort,omitempty"`
}

// RankedFinding pairs a finding with its impact score.
type RankedFinding struct {
	Finding
	Impact int `json:"impact"`
}
