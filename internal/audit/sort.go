package audit

import "sort"

// SortFindings sorts by impact descending, then severity (error > warning > info),
// then message.
func SortFindings(findings []RankedFinding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Impact != findings[j].Impact {
			return findings[i].Impact > findings[j].Impact
		}
		oi := findings[i].Severity.order()
		oj := findings[j].Severity.order()
		if oi != oj {
			return oi < oj
		}
		return findings[i].Message < findings[j].Message
	})
}

// CountBySeverity tallies findings per severity.
func CountBySeverity(findings []RankedFinding) (errs, warns, infos int) {
	for _, f := range findings {
		switch f.Severity {
		case SeverityError:
			errs++
		case SeverityWarning:
			warns++
		default:
			infos++
		}
	}
	return errs, warns, infos
}
