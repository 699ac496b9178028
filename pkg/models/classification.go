package models

// Category tags the kind of change a classified entry represents.
type Category string

const (
	// CategoryContentTamper marks content that changed while the modify time
	// did not: a legitimate write updates mtime as a side effect, so an
	// unchanged mtime over new content is a strong tamper signal.
	CategoryContentTamper Category = "content_tamper"
	// CategoryContentChange marks content changes with a consistent mtime
	// update, the pattern of an ordinary edit. Still reported.
	CategoryContentChange Category = "content_change"
	// CategoryPermissionEscalation marks permission bits that widened access.
	CategoryPermissionEscalation Category = "permission_escalation"
	// CategoryOwnershipChange marks a uid or gid change.
	CategoryOwnershipChange Category = "ownership_change"
	// CategoryMetadataTamper marks remaining metadata drift: mtime or ctime
	// moved without a content change, permissions narrowed, size changed on
	// a non-regular entry.
	CategoryMetadataTamper Category = "metadata_tamper"
	// CategoryBenignTouch marks an access-time-only change.
	CategoryBenignTouch Category = "benign_touch"
	// CategoryAdded marks an entry present only in the current snapshot.
	CategoryAdded Category = "added"
	// CategoryRemoved marks an entry present only in the baseline.
	CategoryRemoved Category = "removed"
	// CategoryUnreadableAnomaly marks an entry unreadable in either snapshot.
	CategoryUnreadableAnomaly Category = "unreadable_anomaly"
)

// Severity represents the severity level of a classification.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// GetSeverityPriority returns numeric priority for severity (higher = more severe).
func GetSeverityPriority(s Severity) int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// ValidSeverity reports whether s is a known severity level.
func ValidSeverity(s Severity) bool {
	return GetSeverityPriority(s) > 0
}

// Classification annotates one changed path with a category, a severity and
// the evidence that produced them.
type Classification struct {
	RelPath  string        `json:"rel_path"`
	Category Category      `json:"category"`
	Severity Severity      `json:"severity"`
	Reason   string        `json:"reason"`             // one-line explanation
	Evidence []FieldChange `json:"evidence,omitempty"` // the attributes that differed
}
