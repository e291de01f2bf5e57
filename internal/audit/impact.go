package audit

import "math"

// ImpactScore rates how urgently a finding should be fixed, 0-100.
// Severity contributes 40%, frequency (saturating at 10) 30%, and
// blast radius (saturating at 5) 30%.
func ImpactScore(f Finding) int {
	freq := normalize(f.Frequency, 10)
	blast := normalize(f.BlastRadius, 5)
	raw := f.Severity.weight()*40 + freq*30 + blast*30
	return clamp(roundHalfUp(raw))
}

func normalize(v, ceiling float64) float64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	return math.Min(v/ceiling, 1)
}

// Rank scores every finding and returns them sorted by impact.
func Rank(findings []Finding) []RankedFinding {
	ranked := make([]RankedFinding, len(findings))
	for i, f := range findings {
		ranked[i] = RankedFinding{Finding: f, Impact: ImpactScore(f)}
	}
	SortFindings(ranked)
	return ranked
}
