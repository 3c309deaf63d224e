package list

// Severity grades user-facing feedback.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Feedback is the human-readable outcome of one operation. Warnings and
// errors always accompany an unchanged snapshot; nothing here is fatal.
type Feedback struct {
	Message  string
	Severity Severity
	Title    string
}
