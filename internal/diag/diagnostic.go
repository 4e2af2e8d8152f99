package diag

import "nwnsc/internal/source"

// Note attaches a secondary message to a related span, e.g. pointing at a
// prior declaration in a redefinition error.
type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic carries the (file, line, column, message) tuple spec.md §7
// requires of every error kind, plus a severity and a stable Code so
// tooling can filter or explain a diagnostic without parsing its message.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
}
