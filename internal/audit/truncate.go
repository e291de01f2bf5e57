package audit

import "fmt"

const DefaultMaxFindings = 100

// Truncate caps a ranked finding list. When the list is over the limit the
// lowest-impact tail is dropped and a synthetic info finding records how many
// were cut.
func Truncate(findings []RankedFinding, limit int) []RankedFinding {
	if limit <= 0 {
		limit = DefaultMaxFindings
	}
	if len(findings) <= limit {
		return findings
	}
	dropped := len(findings) - (limit - 1)
	out := append([]RankedFinding(nil), findings[:limit-1]...)
	note := Finding{
		Message:  fmt.Sprintf("%d lower-impact findings omitted", dropped),
		Severity: SeverityInfo,
	}
	return append(out, RankedFinding{Finding: note, Impact: ImpactScore(note)})
}
