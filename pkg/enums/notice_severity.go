package enums

// NoticeSeverity grades a user-facing notice.
type NoticeSeverity string

const (
	NoticeSeverityInfo        NoticeSeverity = "info"
	NoticeSeverityWarning     NoticeSeverity = "warning"
	NoticeSeverityDestructive NoticeSeverity = "destructive"
)

// IsValid reports whether the value is a known NoticeSeverity.
func (s NoticeSeverity) IsValid() bool {
	switch s {
	case NoticeSeverityInfo, NoticeSeverityWarning, NoticeSeverityDestructive:
		return true
	default:
		return false
	}
}
