package diag

// Severity orders diagnostics; higher is worse.
type Severity uint8

const (
	SevInfo Severity = iota
	// SevWarning marks lookups that found nothing.
	SevWarning
	// SevError marks lookups that could not run to completion.
	SevError
)

var severityNames = [...]string{SevInfo: "info", SevWarning: "warning", SevError: "error"}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "unknown"
}

// Diagnostic is one finding about a request or an assembly.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Subject  string // request label or assembly name
	Message  string
	Notes    []string
}

// identity is what makes two diagnostics repeats of each other.
type identity struct {
	code    Code
	sev     Severity
	subject string
	msg     string
}

func (d *Diagnostic) identity() identity {
	return identity{code: d.Code, sev: d.Severity, subject: d.Subject, msg: d.Message}
}
