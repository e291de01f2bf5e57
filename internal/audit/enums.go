package audit

// Rating is the qualitative band a metric value falls into.
type Rating string

const (
	RatingGood    Rating = "good"
	RatingAverage Rating = "average"
	RatingPoor    Rating = "poor"
)

func (r Rating) Valid() bool {
	switch r {
	case RatingGood, RatingAverage, RatingPoor:
		return true
	}
	return false
}

// Grade is the letter grade of a composite score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

func (g Grade) Valid() bool {
	switch g {
	case GradeA, GradeB, GradeC, GradeD, GradeF:
		return true
	}
	return false
}

// Severity indicates the importance of a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityError, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// order returns a sort key (lower = higher priority).
func (s Severity) order() int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	default:
		return 3
	}
}

// weight is the severity share used by ImpactScore.
func (s Severity) weight() float64 {
	switch s {
	case SeverityError:
		return 1.0
	case SeverityWarning:
		return 0.6
	default:
		return 0.3
	}
}

// PatchType names the kind of remediation a finding proposes.
type PatchType string

const (
	PatchDebtEntry      PatchType = "debt_entry"
	PatchCommand        PatchType = "command"
	PatchSyncCommand    PatchType = "sync_command"
	PatchViewRegenerate PatchType = "view_regenerate"
	PatchFileEdit       PatchType = "file_edit"
	PatchFileCreate     PatchType = "file_create"
	PatchConfigUpdate   PatchType = "config_update"
	PatchJSONMerge      PatchType = "json_merge"
	PatchDocUpdate      PatchType = "doc_update"
)

func (p PatchType) Valid() bool {
	switch p {
	case PatchDebtEntry, PatchCommand, PatchSyncCommand, PatchViewRegenerate,
		PatchFileEdit, PatchFileCreate, PatchConfigUpdate, PatchJSONMerge, PatchDocUpdate:
		return true
	}
	return false
}

// IsCommand reports whether the patch proposes a shell command.
func (p PatchType) IsCommand() bool {
	switch p {
	case PatchCommand, PatchSyncCommand, PatchViewRegenerate:
		return true
	}
	return false
}
